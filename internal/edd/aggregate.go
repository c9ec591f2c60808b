package edd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/edd-cli/internal/model"
)

// Limits caps the lists stored in an extraction.
type Limits struct {
	MaxRecords            int
	MaxValidationErrors   int
	MaxHoldTimeViolations int
}

// DefaultLimits returns the standard storage caps.
func DefaultLimits() Limits {
	return Limits{MaxRecords: 5000, MaxValidationErrors: 50, MaxHoldTimeViolations: 50}
}

// Aggregator accumulates per-row outputs into an ExtractedLabData.
type Aggregator struct {
	limits Limits
	data   model.ExtractedLabData

	permits, states, sites, labs set

	params     map[string]*paramAgg
	paramOrder []string
	unknown    set

	outfalls     map[string]*model.OutfallSummary
	outfallOrder []string

	noParameterID int
	extraWarnings []string
}

type paramAgg struct {
	summary model.ParameterSummary
	raw     set
}

// NewAggregator starts an aggregation for one file. Zero limits mean DefaultLimits.
func NewAggregator(fileName string, columnCount int, limits Limits) *Aggregator {
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	a := &Aggregator{
		limits:   limits,
		params:   make(map[string]*paramAgg),
		outfalls: make(map[string]*model.OutfallSummary),
	}
	a.data.FileName = fileName
	a.data.ColumnCount = columnCount
	return a
}

// AddWarnings appends file-level warnings ahead of the computed ones.
func (a *Aggregator) AddWarnings(w ...string) {
	a.data.Warnings = append(a.data.Warnings, w...)
}

// AddSkipped counts a data row that produced no record.
func (a *Aggregator) AddSkipped() {
	a.data.TotalRows++
	a.data.SkippedRows++
}

// AddValidationError records a row-level issue, keeping the total beyond the cap.
func (a *Aggregator) AddValidationError(ve model.ValidationError) {
	a.data.TotalValidationErrors++
	if len(a.data.ValidationErrors) < a.limits.MaxValidationErrors {
		a.data.ValidationErrors = append(a.data.ValidationErrors, ve)
	}
}

// AddHoldTimeViolation records a non-compliant result, keeping the total beyond the cap.
func (a *Aggregator) AddHoldTimeViolation(v model.HoldTimeViolation) {
	a.data.TotalHoldTimeViolations++
	if len(a.data.HoldTimeViolations) < a.limits.MaxHoldTimeViolations {
		a.data.HoldTimeViolations = append(a.data.HoldTimeViolations, v)
	}
}

// AddRecord folds one parsed record into the summaries. known reports whether
// the parameter name resolved through the alias store or the static table.
func (a *Aggregator) AddRecord(r model.ParsedRecord, known bool) {
	a.data.TotalRows++
	a.data.ParsedRows++
	if r.IsDuplicate {
		a.data.DuplicateRows++
	}

	a.permits.add(r.PermitNumber)
	a.states.add(strings.ToUpper(r.State))
	a.sites.add(r.SiteName)
	a.labs.add(r.LabName)

	if r.SampleDate != nil {
		d := *r.SampleDate
		switch {
		case a.data.DateRange == nil:
			a.data.DateRange = &model.DateRange{Start: d, End: d}
		case d < a.data.DateRange.Start:
			a.data.DateRange.Start = d
		case d > a.data.DateRange.End:
			a.data.DateRange.End = d
		}
	}

	p, ok := a.params[r.ParameterName]
	if !ok {
		p = &paramAgg{summary: model.ParameterSummary{Name: r.ParameterName, ParameterID: r.ParameterID}}
		a.params[r.ParameterName] = p
		a.paramOrder = append(a.paramOrder, r.ParameterName)
	}
	p.summary.Count++
	if r.BelowDetection {
		p.summary.BelowDetectionCount++
	}
	if p.summary.ParameterID == nil && r.ParameterID != nil {
		p.summary.ParameterID = r.ParameterID
	}
	p.raw.add(r.ParameterRaw)
	if !known {
		a.unknown.add(r.ParameterName)
	}
	if r.ParameterID == nil {
		a.noParameterID++
	}

	raw := strings.TrimSpace(r.OutfallRaw)
	o, ok := a.outfalls[raw]
	if !ok {
		o = &model.OutfallSummary{Raw: raw}
		a.outfalls[raw] = o
		a.outfallOrder = append(a.outfallOrder, raw)
	}
	o.Count++
	if o.OutfallID == nil && r.OutfallID != nil {
		o.OutfallID = r.OutfallID
		o.DisplayID = r.OutfallDisplayID
		o.MatchMethod = r.OutfallMatch
	}

	if len(a.data.Records) < a.limits.MaxRecords {
		a.data.Records = append(a.data.Records, r)
	} else {
		a.data.RecordsTruncated = true
	}
}

// Finish builds the extraction. The aggregator must not be used afterwards.
func (a *Aggregator) Finish() *model.ExtractedLabData {
	d := &a.data
	d.PermitNumbers = a.permits.sorted()
	d.States = a.states.sorted()
	d.Sites = a.sites.sorted()
	d.Labs = a.labs.sorted()

	d.Parameters = make([]model.ParameterSummary, 0, len(a.paramOrder))
	for _, name := range a.paramOrder {
		p := a.params[name]
		p.summary.RawNames = p.raw.sorted()
		if p.summary.ParameterID != nil {
			d.ResolvedParameters++
		}
		d.Parameters = append(d.Parameters, p.summary)
	}
	d.UnknownParameters = a.unknown.sorted()

	d.Outfalls = make([]model.OutfallSummary, 0, len(a.outfallOrder))
	var unmatched set
	for _, raw := range a.outfallOrder {
		o := a.outfalls[raw]
		if o.OutfallID != nil {
			d.MatchedOutfalls++
		} else {
			unmatched.add(raw)
		}
		d.Outfalls = append(d.Outfalls, *o)
	}
	d.UnmatchedOutfalls = unmatched.sorted()

	d.Warnings = append(d.Warnings, a.warnings()...)
	d.Summary = a.summary()
	return d
}

func (a *Aggregator) warnings() []string {
	d := &a.data
	var w []string
	if len(d.UnknownParameters) > 0 {
		w = append(w, fmt.Sprintf("Unrecognized parameters: %s.", strings.Join(d.UnknownParameters, ", ")))
	}
	if a.noParameterID > 0 {
		w = append(w, fmt.Sprintf("%d rows have no parameter identity and will be skipped on import.", a.noParameterID))
	}
	if len(d.UnmatchedOutfalls) > 0 {
		w = append(w, fmt.Sprintf("Unmatched outfalls: %s.", quoteJoin(d.UnmatchedOutfalls)))
	}
	if d.DuplicateRows > 0 {
		w = append(w, fmt.Sprintf("%d rows duplicate results that were already imported and will be excluded from import.", d.DuplicateRows))
	}
	if d.RecordsTruncated {
		w = append(w, fmt.Sprintf("Only the first %d of %d records are stored; the full set remains in the source file.",
			len(d.Records), d.ParsedRows))
	}
	if d.TotalValidationErrors > len(d.ValidationErrors) {
		w = append(w, fmt.Sprintf("Showing %d of %d validation errors; the full set remains in the source file.",
			len(d.ValidationErrors), d.TotalValidationErrors))
	}
	if d.TotalHoldTimeViolations > len(d.HoldTimeViolations) {
		w = append(w, fmt.Sprintf("Showing %d of %d hold-time violations; the full set remains in the source file.",
			len(d.HoldTimeViolations), d.TotalHoldTimeViolations))
	}
	return w
}

func (a *Aggregator) summary() string {
	d := &a.data
	var b strings.Builder
	fmt.Fprintf(&b, "Parsed %d of %d rows", d.ParsedRows, d.TotalRows)
	if d.FileName != "" {
		fmt.Fprintf(&b, " from %s", d.FileName)
	}
	fmt.Fprintf(&b, ": %d permits, %d parameters, %d outfalls (%d matched)",
		len(d.PermitNumbers), len(d.Parameters), len(d.Outfalls), d.MatchedOutfalls)
	if d.DateRange != nil {
		fmt.Fprintf(&b, ", sampled %s to %s", d.DateRange.Start, d.DateRange.End)
	}
	b.WriteString(".")
	if d.SkippedRows > 0 {
		fmt.Fprintf(&b, " %d rows skipped.", d.SkippedRows)
	}
	if d.DuplicateRows > 0 {
		fmt.Fprintf(&b, " %d duplicates.", d.DuplicateRows)
	}
	if d.TotalHoldTimeViolations > 0 {
		fmt.Fprintf(&b, " %d hold-time violations.", d.TotalHoldTimeViolations)
	}
	return b.String()
}

func quoteJoin(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}

// set is a small ordered-output string set that ignores blanks.
type set map[string]struct{}

func (s *set) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if *s == nil {
		*s = make(set)
	}
	(*s)[v] = struct{}{}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
