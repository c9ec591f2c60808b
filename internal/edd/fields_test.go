package edd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"3/1/2024", "2024-03-01", true},
		{"03/01/2024", "2024-03-01", true},
		{"12/31/24", "2024-12-31", true},
		{"3-1-2024", "2024-03-01", true},
		{"3/1/2024 08:30", "2024-03-01", true},
		{"2024-03-01", "2024-03-01", true},
		{"2024-03-01T08:30:00Z", "2024-03-01", true},
		{"44927", "2023-01-01", true},
		{"44920", "2022-12-25", true},
		{"45352.354166", "2024-03-01", true},
		{"1", "1899-12-31", true},
		{"2/30/2024", "", false},
		{"13/1/2024", "", false},
		{"0", "", false},
		{"3000000", "", false},
		{"yesterday", "", false},
		{"NaN", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	got, ok := ParseDate("   ")
	assert.True(t, ok)
	assert.Nil(t, got)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"8:30", "08:30", true},
		{"08:30", "08:30", true},
		{"14:05:59", "14:05", true},
		{"1430", "14:30", true},
		{"830", "08:30", true},
		{"8:30 AM", "08:30", true},
		{"12:15 am", "00:15", true},
		{"12:15 PM", "12:15", true},
		{"2:45 p.m.", "14:45", true},
		{"3/1/2024 08:30", "08:30", true},
		{"2024-03-01T16:20", "16:20", true},
		{"0.5", "12:00", true},
		{"0.354166666666667", "08:30", true},
		{"0", "00:00", true},
		{"0.99999", "23:59", true},
		{"0.9996", "23:59", true},
		{"25:00", "", false},
		{"12:60", "", false},
		{"13:00 PM", "", false},
		{"1.5", "", false},
		{"noon", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseTime(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	got, ok := ParseTime("")
	assert.True(t, ok)
	assert.Nil(t, got)
}

func TestParseValue(t *testing.T) {
	type want struct {
		value     *float64
		below     bool
		qualifier *string
		valid     bool
	}
	f := func(v float64) *float64 { return &v }
	s := func(v string) *string { return &v }

	tests := []struct {
		name      string
		raw       string
		qualifier string
		want      want
	}{
		{"inline less-than", "<0.5", "", want{f(0.5), true, s("<"), true}},
		{"inline less-than with space", "< 2", "", want{f(2), true, s("<"), true}},
		{"inline greater-than", ">2419.6", "", want{f(2419.6), false, s(">"), true}},
		{"inline prefix beats column", "<0.5", "J", want{f(0.5), true, s("<"), true}},
		{"plain number", "7.2", "", want{f(7.2), false, nil, true}},
		{"thousands separator", "1,250.5", "", want{f(1250.5), false, nil, true}},
		{"column U qualifier", "0.02", "U", want{f(0.02), true, s("U"), true}},
		{"column ND qualifier lowercase", "0.02", "nd", want{f(0.02), true, s("nd"), true}},
		{"column J qualifier", "3.1", "J", want{f(3.1), false, s("J"), true}},
		{"empty", "", "", want{nil, false, nil, true}},
		{"not sampled", "NS", "", want{nil, false, nil, true}},
		{"not reported lowercase", "nr", "", want{nil, false, nil, true}},
		{"ND text", "ND", "", want{nil, true, s("ND"), true}},
		{"free text", "TNTC", "", want{nil, false, s("TNTC"), false}},
		{"free text keeps column qualifier", "see note", "E", want{nil, false, s("E"), false}},
		{"bad grouping", "1,25", "", want{nil, false, s("1,25"), false}},
		{"infinity rejected", "Inf", "", want{nil, false, s("Inf"), false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValue(tt.raw, tt.qualifier)
			if tt.want.value == nil {
				assert.Nil(t, got.Value)
			} else {
				require.NotNil(t, got.Value)
				assert.InDelta(t, *tt.want.value, *got.Value, 1e-9)
			}
			assert.Equal(t, tt.want.below, got.BelowDetection)
			assert.Equal(t, tt.want.qualifier, got.Qualifier)
			assert.Equal(t, tt.want.valid, got.Valid)
		})
	}
}
