// Package importer commits an approved EDD extraction into sampling events
// and lab results. An upload is imported at most once at a time: the
// parsed -> processing transition is a conditional update and the loser of a
// race is rejected before it writes anything.
package importer

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/edd-cli/internal/audit"
	"github.com/sells-group/edd-cli/internal/config"
	"github.com/sells-group/edd-cli/internal/metrics"
	"github.com/sells-group/edd-cli/internal/model"
	"github.com/sells-group/edd-cli/internal/resilience"
	"github.com/sells-group/edd-cli/internal/store"
)

// Store is the persistence the importer depends on.
type Store interface {
	store.Queue
	store.ImportRecords
	store.Domain
}

// Request identifies the upload to import and who is asking.
type Request struct {
	UploadID string
	Caller   *model.Caller
}

// Result reports what an import wrote.
type Result struct {
	ImportRecordID          string `json:"import_record_id"`
	EventsCreated           int    `json:"events_created"`
	EventsReused            int    `json:"events_reused"`
	ResultsCreated          int    `json:"results_created"`
	ResultsIgnored          int    `json:"results_ignored"`
	SkippedMissingParameter int    `json:"skipped_missing_parameter"`
	SkippedUnresolved       int    `json:"skipped_unresolved"`
	SkippedDuplicate        int    `json:"skipped_duplicate"`
}

// Importer runs imports.
type Importer struct {
	store     Store
	batchSize int
	roles     map[string]bool
	retry     resilience.RetryConfig
	audit     *audit.Writer
}

// Option configures an Importer.
type Option func(*Importer)

// WithAudit records every import outcome through w.
func WithAudit(w *audit.Writer) Option {
	return func(im *Importer) { im.audit = w }
}

// New builds an Importer. An empty role list allows owner, admin and manager.
func New(st Store, cfg config.ImportConfig, opts ...Option) *Importer {
	roles := cfg.AllowedRoles
	if len(roles) == 0 {
		roles = []string{"owner", "admin", "manager"}
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("importer", "commit")
	im := &Importer{
		store:     st,
		batchSize: cfg.BatchSize,
		roles:     make(map[string]bool, len(roles)),
		retry:     retry,
	}
	for _, r := range roles {
		im.roles[strings.ToLower(strings.TrimSpace(r))] = true
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Import commits the extraction stored on the upload. Every precondition is
// checked before the first write.
func (im *Importer) Import(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := im.run(ctx, req)
	result := "success"
	if err != nil {
		result = string(KindInternal)
		var ie *Error
		if errors.As(err, &ie) {
			result = string(ie.Kind)
		}
	}
	metrics.ImportsTotal.WithLabelValues(result).Inc()
	metrics.ImportDurationSeconds.Observe(metrics.Since(start))
	return res, err
}

func (im *Importer) run(ctx context.Context, req Request) (*Result, error) {
	log := zap.L().With(zap.String("component", "importer"), zap.String("upload_id", req.UploadID))

	caller := req.Caller
	if caller == nil || caller.UserID == "" {
		return nil, reject(KindUnauthorized, "caller identity required")
	}
	if !im.roles[strings.ToLower(strings.TrimSpace(caller.Role))] {
		return nil, reject(KindForbidden, "role %q may not import data", caller.Role)
	}

	entry, err := im.store.GetUpload(ctx, req.UploadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, reject(KindNotFound, "upload %s not found", req.UploadID)
		}
		return nil, &Error{Kind: KindInternal, Message: "load upload", Err: err}
	}
	if entry.OrgID != caller.OrgID {
		return nil, reject(KindForbidden, "upload belongs to another organization")
	}
	if entry.Category != model.CategoryLabData {
		return nil, reject(KindBadRequest, "upload category %q cannot be imported as lab data", entry.Category)
	}
	switch entry.Status {
	case model.QueueParsed:
	case model.QueueProcessing:
		return nil, reject(KindConflict, "upload is already being processed")
	default:
		return nil, reject(KindBadRequest, "upload status is %s, expected %s", entry.Status, model.QueueParsed)
	}
	data, err := model.DecodeLabData(entry.Extraction)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Message: "extraction payload cannot be imported", Err: err}
	}

	claimed, err := im.store.ClaimForImport(ctx, entry.ID)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "claim upload", Err: err}
	}
	if !claimed {
		return nil, reject(KindConflict, "upload is already being imported")
	}

	plan := BuildPlan(data.Records)
	if data.RecordsTruncated {
		log.Warn("importer: extraction records were truncated, importing the stored subset",
			zap.Int("parsed_rows", data.ParsedRows),
			zap.Int("stored_records", len(data.Records)),
		)
	}

	rec, err := im.importRecord(ctx, entry)
	if err != nil {
		im.fail(ctx, entry, nil, caller, err, log)
		return nil, &Error{Kind: KindInternal, Message: "load import record", Err: err}
	}

	log.Info("importer: committing plan",
		zap.Int("events", len(plan.Groups)),
		zap.Int("results", plan.Results()),
		zap.Int("skipped_duplicate", plan.SkippedDuplicate),
	)

	// The commit is one transaction of merges plus the processing -> imported
	// move, so a deadlock or busy database can be retried as a whole.
	stats, err := resilience.DoVal(ctx, im.retry, func(ctx context.Context) (model.CommitStats, error) {
		return im.store.CommitBatch(ctx, store.CommitRequest{
			UploadID:       entry.ID,
			ImportRecordID: rec.ID,
			Groups:         plan.Groups,
			BatchSize:      im.batchSize,
		})
	})
	if err != nil {
		im.fail(ctx, entry, rec, caller, err, log)
		return nil, &Error{Kind: KindInternal, Message: "commit lab results", Err: err}
	}

	rec.Status = model.ImportImported
	rec.EventsCreated = stats.EventsCreated
	rec.ResultsCreated = stats.ResultsCreated
	rec.ResultsSkipped = plan.SkippedMissingParameter + stats.ResultsIgnored
	rec.DuplicateRows = data.DuplicateRows
	rec.CanRollback = stats.ResultsCreated > 0
	rec.Error = ""
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	rec.Metadata["imported_by"] = caller.UserID
	rec.Metadata["events_reused"] = stats.EventsReused
	rec.Metadata["planned_results"] = plan.Results()
	rec.Metadata["skipped_unresolved"] = plan.SkippedUnresolved
	rec.Metadata["skipped_duplicate"] = plan.SkippedDuplicate
	rec.Metadata["records_truncated"] = data.RecordsTruncated
	if err := im.store.UpdateImportRecord(ctx, rec); err != nil {
		log.Error("importer: update import record", zap.Error(err))
	}

	res := &Result{
		ImportRecordID:          rec.ID,
		EventsCreated:           stats.EventsCreated,
		EventsReused:            stats.EventsReused,
		ResultsCreated:          stats.ResultsCreated,
		ResultsIgnored:          stats.ResultsIgnored,
		SkippedMissingParameter: plan.SkippedMissingParameter,
		SkippedUnresolved:       plan.SkippedUnresolved,
		SkippedDuplicate:        plan.SkippedDuplicate,
	}
	metrics.LabResultsTotal.WithLabelValues("created").Add(float64(stats.ResultsCreated))
	metrics.LabResultsTotal.WithLabelValues("ignored").Add(float64(stats.ResultsIgnored))

	im.writeAudit(ctx, entry, caller, audit.OutcomeSuccess, map[string]int{
		"events_created":            res.EventsCreated,
		"events_reused":             res.EventsReused,
		"results_created":           res.ResultsCreated,
		"results_ignored":           res.ResultsIgnored,
		"skipped_missing_parameter": res.SkippedMissingParameter,
		"skipped_unresolved":        res.SkippedUnresolved,
		"skipped_duplicate":         res.SkippedDuplicate,
	}, "")

	log.Info("importer: imported upload",
		zap.String("import_record_id", rec.ID),
		zap.Int("events_created", res.EventsCreated),
		zap.Int("results_created", res.ResultsCreated),
		zap.Int("skipped_missing_parameter", res.SkippedMissingParameter),
	)
	return res, nil
}

// importRecord returns the tracker created at parse time, or a new one for
// uploads parsed before trackers existed.
func (im *Importer) importRecord(ctx context.Context, entry *model.QueueEntry) (*model.ImportRecord, error) {
	if entry.ImportRecordID != nil && *entry.ImportRecordID != "" {
		rec, err := im.store.GetImportRecord(ctx, *entry.ImportRecordID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	rec := &model.ImportRecord{UploadID: entry.ID, OrgID: entry.OrgID, Status: model.ImportParsed}
	if err := im.store.CreateImportRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// fail marks the upload and its tracker failed with the triggering message.
func (im *Importer) fail(ctx context.Context, entry *model.QueueEntry, rec *model.ImportRecord, caller *model.Caller, cause error, log *zap.Logger) {
	log.Error("importer: import failed", zap.Error(cause))

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := im.store.FailImport(fctx, entry.ID, cause.Error()); err != nil {
		log.Error("importer: mark upload failed", zap.Error(err))
	}
	if rec != nil {
		rec.Status = model.ImportFailed
		rec.Error = cause.Error()
		if err := im.store.UpdateImportRecord(fctx, rec); err != nil {
			log.Error("importer: mark import record failed", zap.Error(err))
		}
	}
	im.writeAudit(fctx, entry, caller, audit.OutcomeFailure, nil, cause.Error())
}

func (im *Importer) writeAudit(ctx context.Context, entry *model.QueueEntry, caller *model.Caller, outcome string, counts map[string]int, errMsg string) {
	if im.audit == nil {
		return
	}
	im.audit.Write(ctx, model.AuditEntry{
		Action:   audit.ActionImport,
		UploadID: entry.ID,
		FileName: entry.FileName,
		OrgID:    entry.OrgID,
		ActorID:  caller.UserID,
		Outcome:  outcome,
		Counts:   counts,
		Error:    errMsg,
	})
}
