package model

// MatchMethod describes how a raw outfall string was resolved to an outfall.
type MatchMethod string

const (
	MatchExact      MatchMethod = "exact"
	MatchZeroStrip  MatchMethod = "zero_strip"
	MatchDigitsOnly MatchMethod = "digits_only"
)

// ParsedRecord is one canonicalized measurement from an EDD row. Records are
// built once per row and never mutated afterwards.
type ParsedRecord struct {
	RowNumber    int    `json:"row_number"`
	PermitNumber string `json:"permit_number"`
	SiteName     string `json:"site_name,omitempty"`
	State        string `json:"state,omitempty"`
	LabName      string `json:"lab_name,omitempty"`
	LabID        string `json:"lab_id,omitempty"`
	SampleID     string `json:"sample_id,omitempty"`

	OutfallRaw       string       `json:"outfall_raw"`
	OutfallID        *string      `json:"outfall_id"`
	OutfallDisplayID *string      `json:"outfall_display_id,omitempty"`
	OutfallMatch     *MatchMethod `json:"outfall_match_method"`

	ParameterRaw  string  `json:"parameter_raw"`
	ParameterName string  `json:"parameter_name"`
	ParameterID   *string `json:"parameter_id"`

	SampleDate   *string `json:"sample_date"`
	SampleTime   *string `json:"sample_time"`
	AnalysisDate *string `json:"analysis_date"`
	AnalysisTime *string `json:"analysis_time,omitempty"`

	Value          *float64 `json:"value"`
	BelowDetection bool     `json:"below_detection"`
	Qualifier      *string  `json:"qualifier"`
	Unit           string   `json:"unit,omitempty"`
	Method         string   `json:"method,omitempty"`
	Comments       string   `json:"comments,omitempty"`

	HoldTimeDays      *float64 `json:"hold_time_days"`
	HoldTimeCompliant *bool    `json:"hold_time_compliant"`

	IsDuplicate bool `json:"is_duplicate"`
}

// Importable reports whether the record can become part of a sampling event:
// it needs a resolved outfall, a sample date, and must not duplicate history.
func (r *ParsedRecord) Importable() bool {
	return r.OutfallID != nil && r.SampleDate != nil && !r.IsDuplicate
}

// ValidationError is a non-fatal row-level issue found while parsing.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// HoldTimeViolation describes a result analyzed after its holding time expired.
type HoldTimeViolation struct {
	Row          int     `json:"row"`
	Parameter    string  `json:"parameter"`
	Outfall      string  `json:"outfall"`
	SampleDate   string  `json:"sample_date"`
	AnalysisDate string  `json:"analysis_date"`
	ElapsedDays  float64 `json:"elapsed_days"`
	MaxHoldDays  float64 `json:"max_hold_days"`
}
