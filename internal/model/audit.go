package model

import "time"

// AuditEntry is a structured audit-trail record for an upload operation.
type AuditEntry struct {
	Action    string         `json:"action"`
	UploadID  string         `json:"upload_id"`
	FileName  string         `json:"file_name"`
	OrgID     string         `json:"organization_id"`
	ActorID   string         `json:"actor_id"`
	Outcome   string         `json:"outcome"`
	Counts    map[string]int `json:"counts,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
