package edd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/model"
)

func sampleGrid() [][]string {
	return [][]string{
		templateHeader(),
		{"txt", "txt", "txt", "txt", "txt", "txt", "txt", "txt", "num", "num"},
		// 3: below detection, zero-strip outfall match
		dataRow(map[int]string{ColValue: "<0.5", ColOutfall: "01"}),
		// 4: Excel serial sample date, ph via alias store, same-day analysis
		dataRow(map[int]string{ColParameter: "pH", ColSampleDate: "44927", ColAnalysisDate: "44927", ColSampleTime: "0.375", ColValue: "7.2", ColUnit: "SU"}),
		// 5: ignored parameter
		dataRow(map[int]string{ColParameter: "txt"}),
		{""},
		// 7: static-only parameter with a hold-time violation
		dataRow(map[int]string{ColParameter: "BOD5", ColAnalysisDate: "3/8/2024", ColOutfall: "002"}),
		// 8: unknown parameter, unmatched outfall, non-numeric value
		dataRow(map[int]string{ColParameter: "Widget Index", ColOutfall: "999", ColValue: "TNTC"}),
		// 9: missing permit and unparseable date
		dataRow(map[int]string{ColPermitNumber: "", ColSampleDate: "someday", ColParameter: "Total Suspended Solids"}),
	}
}

func TestParse_EndToEnd(t *testing.T) {
	c, err := Classify(sampleGrid())
	require.NoError(t, err)

	res := Parse(c, Options{
		FileName:  "march.xlsx",
		Limits:    DefaultLimits(),
		Resolver:  testResolver(t),
		HoldTimes: testHoldTimes(t),
	})
	d := res.Data

	assert.Equal(t, "march.xlsx", d.FileName)
	assert.Equal(t, 6, d.TotalRows)
	assert.Equal(t, 5, d.ParsedRows)
	assert.Equal(t, 1, d.SkippedRows)
	assert.Equal(t, d.TotalRows, d.ParsedRows+d.SkippedRows)
	assert.Len(t, d.Records, d.ParsedRows)
	assert.False(t, d.RecordsTruncated)

	byRow := map[int]model.ParsedRecord{}
	for _, r := range d.Records {
		byRow[r.RowNumber] = r
	}

	below := byRow[3]
	require.NotNil(t, below.Value)
	assert.Equal(t, 0.5, *below.Value)
	assert.True(t, below.BelowDetection)
	require.NotNil(t, below.Qualifier)
	assert.Equal(t, "<", *below.Qualifier)
	require.NotNil(t, below.OutfallID)
	assert.Equal(t, "o-1", *below.OutfallID)
	assert.Equal(t, model.MatchZeroStrip, *below.OutfallMatch)
	assert.Equal(t, "Total Suspended Solids", below.ParameterName)
	require.NotNil(t, below.ParameterID)
	assert.Equal(t, "p-tss", *below.ParameterID)
	require.NotNil(t, below.HoldTimeCompliant)
	assert.True(t, *below.HoldTimeCompliant)
	assert.Equal(t, 2.0, *below.HoldTimeDays)

	serial := byRow[4]
	require.NotNil(t, serial.SampleDate)
	assert.Equal(t, "2023-01-01", *serial.SampleDate)
	assert.Equal(t, "09:00", *serial.SampleTime)
	assert.Equal(t, "pH", serial.ParameterName)

	bod := byRow[7]
	assert.Equal(t, "Biochemical Oxygen Demand", bod.ParameterName)
	assert.Nil(t, bod.ParameterID)
	require.NotNil(t, bod.HoldTimeCompliant)
	assert.False(t, *bod.HoldTimeCompliant)
	assert.Equal(t, model.MatchExact, *bod.OutfallMatch)

	unknown := byRow[8]
	assert.Equal(t, "Widget Index", unknown.ParameterName)
	assert.Nil(t, unknown.OutfallID)
	assert.Nil(t, unknown.OutfallMatch)
	assert.Nil(t, unknown.Value)
	assert.Equal(t, "TNTC", *unknown.Qualifier)

	bad := byRow[9]
	assert.Empty(t, bad.PermitNumber)
	assert.Nil(t, bad.SampleDate)
	assert.Nil(t, bad.HoldTimeCompliant)
	assert.False(t, bad.Importable())

	assert.Equal(t, []string{"TX0001234"}, d.PermitNumbers)
	assert.Equal(t, []string{"TX"}, d.States)
	require.NotNil(t, d.DateRange)
	assert.Equal(t, "2023-01-01", d.DateRange.Start)
	assert.Equal(t, "2024-03-01", d.DateRange.End)

	assert.Equal(t, []string{"Widget Index"}, d.UnknownParameters)
	assert.Equal(t, []string{"999"}, d.UnmatchedOutfalls)
	assert.Equal(t, 3, d.MatchedOutfalls)

	require.Len(t, d.HoldTimeViolations, 1)
	assert.Equal(t, 7, d.HoldTimeViolations[0].Row)
	assert.Equal(t, "002", d.HoldTimeViolations[0].Outfall)
	assert.Equal(t, 7.0, d.HoldTimeViolations[0].ElapsedDays)
	assert.Equal(t, 2.0, d.HoldTimeViolations[0].MaxHoldDays)

	fields := map[string]bool{}
	for _, ve := range d.ValidationErrors {
		fields[ve.Field] = true
	}
	assert.True(t, fields["value"])
	assert.True(t, fields["permit_number"])
	assert.True(t, fields["sample_date"])

	assert.Contains(t, d.Warnings[0], "Unrecognized parameters: Widget Index")
	assert.Contains(t, d.Summary, "Parsed 5 of 6 rows from march.xlsx")

	// Row 9 has no permit; its "1" matches across all outfalls and is
	// remembered under the outfall's own permit alongside row 4's.
	require.Len(t, res.Learned, 3)
	assert.Equal(t, "002", res.Learned[0].Alias)
	assert.Equal(t, "01", res.Learned[1].Alias)
	assert.Equal(t, "1", res.Learned[2].Alias)
	for _, a := range res.Learned {
		assert.Equal(t, "TX0001234", a.PermitNumber)
		assert.Equal(t, "org-1", a.OrgID)
	}
}

func TestParse_HoldTimeUsesDatesOnly(t *testing.T) {
	c, err := Classify([][]string{
		templateHeader(),
		dataRow(map[int]string{ColParameter: "pH", ColUnit: "SU", ColValue: "7.1", ColSampleTime: "08:00", ColAnalysisDate: "3/1/2024", ColAnalysisTime: "11:00"}),
		dataRow(map[int]string{ColParameter: "BOD", ColSampleTime: "08:00", ColAnalysisTime: "14:00"}),
	})
	require.NoError(t, err)

	res := Parse(c, Options{Resolver: testResolver(t), HoldTimes: testHoldTimes(t)})
	d := res.Data
	require.Len(t, d.Records, 2)

	ph := d.Records[0]
	require.NotNil(t, ph.HoldTimeDays)
	assert.Equal(t, 0.0, *ph.HoldTimeDays)
	assert.True(t, *ph.HoldTimeCompliant)

	bod := d.Records[1]
	require.NotNil(t, bod.HoldTimeDays)
	assert.Equal(t, 2.0, *bod.HoldTimeDays)
	assert.True(t, *bod.HoldTimeCompliant)
	assert.Empty(t, d.HoldTimeViolations)
}

func TestParse_Duplicates(t *testing.T) {
	c, err := Classify([][]string{
		templateHeader(),
		dataRow(nil),
		dataRow(map[int]string{ColSampleTime: "09:00"}),
	})
	require.NoError(t, err)

	dups := compliance.NewDuplicateIndex([]model.ResultKey{{
		PermitNumber: "tx0001234",
		OutfallID:    "001",
		SampleDate:   "2024-03-01",
		SampleTime:   "08:30",
		Parameter:    "total suspended solids",
	}})

	res := Parse(c, Options{Resolver: testResolver(t), Duplicates: dups})
	d := res.Data
	assert.Equal(t, 1, d.DuplicateRows)
	assert.True(t, d.Records[0].IsDuplicate)
	assert.False(t, d.Records[0].Importable())
	assert.False(t, d.Records[1].IsDuplicate)
	assert.True(t, d.Records[1].Importable())
	assert.Contains(t, d.Summary, "1 duplicates")
}

func TestParse_Caps(t *testing.T) {
	grid := [][]string{templateHeader()}
	for i := 0; i < 5; i++ {
		grid = append(grid, dataRow(map[int]string{
			ColValue:        "n/a value",
			ColParameter:    "BOD",
			ColAnalysisDate: "3/20/2024",
		}))
	}
	c, err := Classify(grid)
	require.NoError(t, err)

	res := Parse(c, Options{
		Limits:    Limits{MaxRecords: 2, MaxValidationErrors: 1, MaxHoldTimeViolations: 3},
		Resolver:  testResolver(t),
		HoldTimes: testHoldTimes(t),
	})
	d := res.Data

	assert.Equal(t, 5, d.ParsedRows)
	assert.Len(t, d.Records, 2)
	assert.True(t, d.RecordsTruncated)
	assert.Len(t, d.ValidationErrors, 1)
	assert.Equal(t, 5, d.TotalValidationErrors)
	assert.Len(t, d.HoldTimeViolations, 3)
	assert.Equal(t, 5, d.TotalHoldTimeViolations)

	var capWarnings int
	for _, w := range d.Warnings {
		for _, want := range []string{"Only the first 2 of 5", "Showing 1 of 5", "Showing 3 of 5"} {
			if strings.Contains(w, want) {
				capWarnings++
			}
		}
	}
	assert.Equal(t, 3, capWarnings)
}

func TestPrescan(t *testing.T) {
	c, err := Classify([][]string{
		templateHeader(),
		dataRow(nil),
		dataRow(map[int]string{ColPermitNumber: "tx0009999", ColSampleDate: "45352"}),
		dataRow(map[int]string{ColSampleDate: "garbage"}),
	})
	require.NoError(t, err)

	s := Prescan(c)
	assert.Equal(t, []string{"TX0001234", "TX0009999"}, s.Permits)
	assert.Equal(t, []string{"2024-03-01"}, s.SampleDates)
}
