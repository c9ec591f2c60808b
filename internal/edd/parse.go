package edd

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/edd/resolve"
	"github.com/sells-group/edd-cli/internal/model"
)

// Options configures one Parse run. Resolver is required; a nil HoldTimes or
// Duplicates disables the corresponding check.
type Options struct {
	FileName   string
	Limits     Limits
	Resolver   *resolve.Cache
	HoldTimes  *compliance.HoldTimes
	Duplicates *compliance.DuplicateIndex
}

// Result is the outcome of parsing a classified grid.
type Result struct {
	Data *model.ExtractedLabData
	// Learned are outfall aliases discovered by fuzzy matching during the run.
	Learned []model.OutfallAlias
}

// Scan is what the parse service needs to know before resolving rows.
type Scan struct {
	Permits     []string
	SampleDates []string
}

// Prescan collects the distinct permits and canonical sample dates of the
// data rows so reference data can be loaded before the row loop.
func Prescan(c *Classified) Scan {
	var permits, dates set
	for _, r := range c.Rows {
		permits.add(strings.ToUpper(r.Cell(ColPermitNumber)))
		if d, ok := ParseDate(r.Cell(ColSampleDate)); ok && d != nil {
			dates.add(*d)
		}
	}
	return Scan{Permits: permits.sorted(), SampleDates: dates.sorted()}
}

// Parse canonicalizes every data row, resolves identities, evaluates
// holding times and duplicates, and aggregates the bounded extraction.
// Row-level problems never abort the run.
func Parse(c *Classified, opts Options) *Result {
	log := zap.L().With(zap.String("component", "edd.parse"), zap.String("file", opts.FileName))

	agg := NewAggregator(opts.FileName, c.ColumnCount, opts.Limits)
	agg.AddWarnings(c.Warnings...)

	for _, row := range c.Rows {
		rec, ok := parseRow(row, opts, agg)
		if !ok {
			agg.AddSkipped()
			continue
		}
		agg.AddRecord(rec.ParsedRecord, rec.known)
	}

	data := agg.Finish()
	log.Debug("edd: parsed file",
		zap.Int("total_rows", data.TotalRows),
		zap.Int("parsed_rows", data.ParsedRows),
		zap.Int("skipped_rows", data.SkippedRows),
		zap.Int("duplicates", data.DuplicateRows),
	)
	return &Result{Data: data, Learned: opts.Resolver.Learned()}
}

type rowRecord struct {
	model.ParsedRecord
	known bool
}

func parseRow(row Row, opts Options, agg *Aggregator) (rowRecord, bool) {
	param := opts.Resolver.ResolveParameter(row.Cell(ColParameter))
	if param.Skip {
		return rowRecord{}, false
	}

	invalid := func(field, value, msg string) {
		agg.AddValidationError(model.ValidationError{Row: row.Number, Field: field, Value: value, Message: msg})
	}

	r := model.ParsedRecord{
		RowNumber:     row.Number,
		PermitNumber:  strings.ToUpper(row.Cell(ColPermitNumber)),
		SiteName:      row.Cell(ColSite),
		State:         strings.ToUpper(row.Cell(ColState)),
		LabName:       row.Cell(ColLabName),
		LabID:         row.Cell(ColLabID),
		SampleID:      row.Cell(ColSampleID),
		OutfallRaw:    row.Cell(ColOutfall),
		ParameterRaw:  row.Cell(ColParameter),
		ParameterName: param.Name,
		ParameterID:   param.ID,
		Unit:          row.Cell(ColUnit),
		Method:        row.Cell(ColMethod),
		Comments:      row.Cell(ColComments),
	}
	if r.PermitNumber == "" {
		invalid("permit_number", "", "missing permit number")
	}

	var ok bool
	if r.SampleDate, ok = ParseDate(row.Cell(ColSampleDate)); !ok {
		invalid("sample_date", row.Cell(ColSampleDate), "unparseable sample date")
	} else if r.SampleDate == nil {
		invalid("sample_date", "", "missing sample date")
	}
	if r.SampleTime, ok = ParseTime(row.Cell(ColSampleTime)); !ok {
		invalid("sample_time", row.Cell(ColSampleTime), "unparseable sample time")
	}
	if r.AnalysisDate, ok = ParseDate(row.Cell(ColAnalysisDate)); !ok {
		invalid("analysis_date", row.Cell(ColAnalysisDate), "unparseable analysis date")
	}
	if r.AnalysisTime, ok = ParseTime(row.Cell(ColAnalysisTime)); !ok {
		invalid("analysis_time", row.Cell(ColAnalysisTime), "unparseable analysis time")
	}

	v := ParseValue(row.Cell(ColValue), row.Cell(ColQualifier))
	r.Value, r.BelowDetection, r.Qualifier = v.Value, v.BelowDetection, v.Qualifier
	if !v.Valid {
		invalid("value", row.Cell(ColValue), "non-numeric result")
	}

	if of := opts.Resolver.ResolveOutfall(r.PermitNumber, r.OutfallRaw); of.Matched() {
		id, display := of.Outfall.ID, of.Outfall.DisplayID
		r.OutfallID, r.OutfallDisplayID, r.OutfallMatch = &id, &display, of.Method
	}

	ht := opts.HoldTimes.Evaluate(compliance.Sample{
		Parameter:    r.ParameterName,
		SampleDate:   r.SampleDate,
		AnalysisDate: r.AnalysisDate,
	})
	r.HoldTimeDays, r.HoldTimeCompliant = ht.ElapsedDays, ht.Compliant
	if ht.ElapsedDays != nil && *ht.ElapsedDays < 0 {
		invalid("analysis_date", *r.AnalysisDate, "analysis date precedes sample date")
	}
	if ht.Violation() {
		outfall := r.OutfallRaw
		if r.OutfallDisplayID != nil {
			outfall = *r.OutfallDisplayID
		}
		agg.AddHoldTimeViolation(model.HoldTimeViolation{
			Row:          r.RowNumber,
			Parameter:    r.ParameterName,
			Outfall:      outfall,
			SampleDate:   *r.SampleDate,
			AnalysisDate: *r.AnalysisDate,
			ElapsedDays:  *ht.ElapsedDays,
			MaxHoldDays:  ht.MaxDays,
		})
	}

	if key, ok := compliance.RecordKey(&r); ok {
		r.IsDuplicate = opts.Duplicates.Contains(key)
	}

	return rowRecord{ParsedRecord: r, known: param.Known}, true
}
