package model

// DateRange is an inclusive span of ISO calendar dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParameterSummary aggregates rows by canonical parameter name.
type ParameterSummary struct {
	Name                string   `json:"name"`
	ParameterID         *string  `json:"parameter_id"`
	RawNames            []string `json:"raw_names"`
	Count               int      `json:"count"`
	BelowDetectionCount int      `json:"below_detection_count"`
}

// OutfallSummary aggregates rows by raw outfall text.
type OutfallSummary struct {
	Raw         string       `json:"raw"`
	OutfallID   *string      `json:"outfall_id"`
	DisplayID   *string      `json:"display_id,omitempty"`
	MatchMethod *MatchMethod `json:"match_method"`
	Count       int          `json:"count"`
}

// ExtractedLabData is the bounded result of parsing one EDD file. It is the
// payload reviewed by a human and the sole input of the importer.
type ExtractedLabData struct {
	FileName      string   `json:"file_name"`
	ColumnCount   int      `json:"column_count"`
	TotalRows     int      `json:"total_rows"`
	ParsedRows    int      `json:"parsed_rows"`
	SkippedRows   int      `json:"skipped_rows"`
	DuplicateRows int      `json:"duplicate_rows"`
	PermitNumbers []string `json:"permit_numbers"`
	States        []string `json:"states"`
	Sites         []string `json:"sites"`
	Labs          []string `json:"labs"`

	DateRange *DateRange `json:"date_range"`

	Parameters         []ParameterSummary `json:"parameters"`
	ResolvedParameters int                `json:"resolved_parameters"`
	UnknownParameters  []string           `json:"unknown_parameters"`

	Outfalls          []OutfallSummary `json:"outfalls"`
	MatchedOutfalls   int              `json:"matched_outfalls"`
	UnmatchedOutfalls []string         `json:"unmatched_outfalls"`

	Warnings []string `json:"warnings"`

	ValidationErrors      []ValidationError `json:"validation_errors"`
	TotalValidationErrors int               `json:"total_validation_errors"`

	HoldTimeViolations      []HoldTimeViolation `json:"hold_time_violations"`
	TotalHoldTimeViolations int                 `json:"total_hold_time_violations"`

	Records          []ParsedRecord `json:"records"`
	RecordsTruncated bool           `json:"records_truncated"`

	Summary string `json:"summary"`
}

// SingleState returns the state shared by every row, if exactly one was seen.
func (d *ExtractedLabData) SingleState() (string, bool) {
	if len(d.States) != 1 {
		return "", false
	}
	return d.States[0], true
}
