package model

import "time"

// QueueStatus is the lifecycle state of an uploaded file.
type QueueStatus string

const (
	QueueQueued     QueueStatus = "queued"
	QueueProcessing QueueStatus = "processing"
	QueueParsed     QueueStatus = "parsed"
	QueueFailed     QueueStatus = "failed"
	QueueImported   QueueStatus = "imported"
)

// CategoryLabData is the declared category of EDD lab-result uploads.
const CategoryLabData = "lab_data"

// QueueEntry is one uploaded file in the upload queue.
type QueueEntry struct {
	ID             string      `json:"id"`
	OrgID          string      `json:"organization_id"`
	UploadedBy     string      `json:"uploaded_by"`
	StoragePath    string      `json:"storage_path"`
	FileName       string      `json:"file_name"`
	Category       string      `json:"category"`
	RegionCode     *string     `json:"region_code,omitempty"`
	Status         QueueStatus `json:"status"`
	Extraction     []byte      `json:"-"`
	RecordCount    int         `json:"record_count"`
	ErrorLog       []string    `json:"error_log,omitempty"`
	ImportRecordID *string     `json:"import_record_id,omitempty"`
	PendingAudit   []byte      `json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ParseOutcome is written back to a queue entry when parsing succeeds.
type ParseOutcome struct {
	Extraction     []byte
	RecordCount    int
	Warnings       []string
	RegionCode     *string
	ImportRecordID string
}

// ImportStatus is the lifecycle state of an import batch.
type ImportStatus string

const (
	ImportParsing  ImportStatus = "parsing"
	ImportParsed   ImportStatus = "parsed"
	ImportFailed   ImportStatus = "failed"
	ImportImported ImportStatus = "imported"
)

// ImportRecord tracks one import batch from parse start to import completion.
type ImportRecord struct {
	ID             string         `json:"id"`
	UploadID       string         `json:"upload_id"`
	OrgID          string         `json:"organization_id"`
	Status         ImportStatus   `json:"status"`
	TotalRows      int            `json:"total_rows"`
	ParsedRows     int            `json:"parsed_rows"`
	SkippedRows    int            `json:"skipped_rows"`
	DuplicateRows  int            `json:"duplicate_rows"`
	EventsCreated  int            `json:"events_created"`
	ResultsCreated int            `json:"results_created"`
	ResultsSkipped int            `json:"results_skipped"`
	CanRollback    bool           `json:"can_rollback"`
	Error          string         `json:"error,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
