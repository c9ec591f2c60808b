package model

// EventKey identifies one physical sampling occasion.
type EventKey struct {
	OutfallID  string
	SampleDate string
	SampleTime string // "" when the EDD row had no time
}

// SamplingEvent is a persisted sampling occasion.
type SamplingEvent struct {
	ID      string
	Key     EventKey
	Created bool
}

// LabResult is one measurement attached to a sampling event.
type LabResult struct {
	ID                string
	ParameterID       string
	Value             *float64
	BelowDetection    bool
	Qualifier         *string
	Unit              string
	AnalysisDate      *string
	HoldTimeDays      *float64
	HoldTimeCompliant *bool
	RowNumber         int
}

// EventGroup is a sampling event with the results to attach to it.
type EventGroup struct {
	Key     EventKey
	Results []LabResult
}

// CommitStats reports what a batch commit actually wrote.
type CommitStats struct {
	EventsCreated  int
	EventsReused   int
	ResultsCreated int
	ResultsIgnored int
}
