package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/model"
)

// ErrNotFound is returned when a queue entry or import record does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrNotProcessing is returned by CommitBatch when the upload being imported
// is no longer in processing.
var ErrNotProcessing = eris.New("store: upload is not processing")

// CommitRequest is the grouped, import-effective content of one extraction.
// When UploadID is set the upload moves from processing to imported in the
// same transaction, and the commit fails if it is no longer processing.
type CommitRequest struct {
	UploadID       string
	ImportRecordID string
	Groups         []model.EventGroup
	BatchSize      int // rows per statement; <= 0 uses DefaultBatchSize
}

// DefaultBatchSize bounds the rows written per upsert round trip.
const DefaultBatchSize = 50

// Queue manages upload queue entries and their status transitions.
type Queue interface {
	CreateUpload(ctx context.Context, e *model.QueueEntry) error
	GetUpload(ctx context.Context, id string) (*model.QueueEntry, error)
	// ClaimForParse moves a queued or failed entry to processing. It reports
	// false when the entry was in any other state.
	ClaimForParse(ctx context.Context, id string) (bool, error)
	CompleteParse(ctx context.Context, id string, out model.ParseOutcome) error
	FailParse(ctx context.Context, id string, errLog []string) error
	// ClaimForImport is the optimistic lock: parsed -> processing. It reports
	// false when another import already claimed the entry.
	ClaimForImport(ctx context.Context, id string) (bool, error)
	FailImport(ctx context.Context, id, message string) error
	SetPendingAudit(ctx context.Context, id string, payload []byte) error
}

// ImportRecords persists import batch trackers.
type ImportRecords interface {
	CreateImportRecord(ctx context.Context, r *model.ImportRecord) error
	UpdateImportRecord(ctx context.Context, r *model.ImportRecord) error
	GetImportRecord(ctx context.Context, id string) (*model.ImportRecord, error)
}

// References reads the lookup tables used during parsing and appends
// learned outfall aliases.
type References interface {
	ParameterAliases(ctx context.Context) ([]model.ParameterAlias, error)
	OutfallsForPermits(ctx context.Context, orgID string, permits []string) ([]model.Outfall, error)
	OutfallAliases(ctx context.Context, orgID string, permits []string) ([]model.OutfallAlias, error)
	ExistingResultKeys(ctx context.Context, orgID string, w compliance.Window) ([]model.ResultKey, error)
	SaveOutfallAliases(ctx context.Context, aliases []model.OutfallAlias) error
}

// Domain writes sampling events and lab results.
type Domain interface {
	// CommitBatch upserts every event and result of the request in a single
	// transaction. Events merge on (outfall, date, time); results that
	// already exist for (event, parameter) are ignored. The upload named by
	// UploadID is marked imported in that transaction.
	CommitBatch(ctx context.Context, req CommitRequest) (model.CommitStats, error)
}

// AuditSink receives structured audit entries.
type AuditSink interface {
	WriteAudit(ctx context.Context, e model.AuditEntry) error
}

// Store is the full persistence surface of the EDD pipeline.
type Store interface {
	Queue
	ImportRecords
	References
	Domain
	AuditSink

	SeedReference(ctx context.Context, seed *model.ReferenceSeed) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
