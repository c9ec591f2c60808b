package model

// ParameterAlias maps a lowercase alias to a canonical parameter.
type ParameterAlias struct {
	Alias         string `json:"alias"`
	ParameterID   string `json:"parameter_id"`
	CanonicalName string `json:"canonical_name"`
}

// Outfall is a permitted discharge point of a permit.
type Outfall struct {
	ID           string `json:"id"`
	PermitID     string `json:"permit_id"`
	PermitNumber string `json:"permit_number"`
	DisplayID    string `json:"display_id"`
}

// OutfallAlias is a learned mapping from raw outfall text to an outfall,
// scoped by organization and permit.
type OutfallAlias struct {
	OrgID        string      `json:"organization_id"`
	PermitNumber string      `json:"permit_number"`
	Alias        string      `json:"alias"`
	OutfallID    string      `json:"outfall_id"`
	DisplayID    string      `json:"display_id"`
	Method       MatchMethod `json:"match_method"`
}

// ResultKey identifies an already-imported measurement for duplicate checks.
type ResultKey struct {
	PermitNumber string
	OutfallID    string // canonical display id, e.g. "001"
	SampleDate   string
	SampleTime   string
	Parameter    string
}

// Caller is the authenticated identity invoking an operation.
type Caller struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"organization_id"`
	Role   string `json:"role"`
}
