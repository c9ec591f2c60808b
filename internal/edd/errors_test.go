package edd

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"format error", &FormatError{Kind: KindInvalidHeader, Detail: "missing value"}, KindInvalidHeader},
		{"wrapped format error", eris.Wrap(&FormatError{Kind: KindNoData}, "ingest: classify"), KindNoData},
		{"limit error", &LimitError{Kind: KindTooManyRows, Limit: 10, Actual: 11}, KindTooManyRows},
		{"anything else", eris.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, msg := Categorize(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	assert.NoError(t, CheckFileSize(50<<20, 50<<20))
	assert.NoError(t, CheckFileSize(1<<40, 0))

	err := CheckFileSize(50<<20+1, 50<<20)
	require.Error(t, err)
	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindFileTooLarge, le.Kind)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestCheckRowCount(t *testing.T) {
	assert.NoError(t, CheckRowCount(50000, 50000))

	err := CheckRowCount(50001, 50000)
	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindTooManyRows, le.Kind)
	assert.Equal(t, int64(50001), le.Actual)
}
