// Package ingest runs the parse stage of the upload pipeline: it claims a
// queued EDD upload, reads the file from the blob store, resolves it against
// the organization's reference data and stores the reviewed extraction back
// on the queue entry.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/edd-cli/internal/audit"
	"github.com/sells-group/edd-cli/internal/blob"
	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/config"
	"github.com/sells-group/edd-cli/internal/edd"
	"github.com/sells-group/edd-cli/internal/edd/resolve"
	"github.com/sells-group/edd-cli/internal/metrics"
	"github.com/sells-group/edd-cli/internal/model"
	"github.com/sells-group/edd-cli/internal/store"
)

// Store is the persistence the parse stage depends on.
type Store interface {
	store.Queue
	store.ImportRecords
	store.References
}

// Outcome summarizes a successful parse.
type Outcome struct {
	UploadID       string                  `json:"upload_id"`
	ImportRecordID string                  `json:"import_record_id"`
	Data           *model.ExtractedLabData `json:"extraction"`
	LearnedAliases int                     `json:"learned_aliases"`
}

// Service parses queued uploads.
type Service struct {
	store     Store
	blobs     blob.Source
	cfg       config.ParseConfig
	static    *resolve.StaticTable
	holdTimes *compliance.HoldTimes
	aliases   *AliasWriter
	audit     *audit.Writer
}

// Option configures a Service.
type Option func(*Service)

// WithAliasWriter hands learned outfall aliases to w after each parse.
func WithAliasWriter(w *AliasWriter) Option {
	return func(s *Service) { s.aliases = w }
}

// WithAudit records every parse outcome through w.
func WithAudit(w *audit.Writer) Option {
	return func(s *Service) { s.audit = w }
}

// NewService builds a Service with the embedded parameter and hold-time tables.
func NewService(st Store, blobs blob.Source, cfg config.ParseConfig, opts ...Option) (*Service, error) {
	static, err := resolve.DefaultStaticTable()
	if err != nil {
		return nil, err
	}
	holdTimes, err := compliance.DefaultHoldTimes()
	if err != nil {
		return nil, err
	}
	s := &Service{store: st, blobs: blobs, cfg: cfg, static: static, holdTimes: holdTimes}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Parse claims the upload, parses its file and stores the extraction. A
// failure after the claim marks the upload failed so it can be retried.
func (s *Service) Parse(ctx context.Context, uploadID string) (*Outcome, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "ingest"), zap.String("upload_id", uploadID))

	out, err := s.parse(ctx, uploadID, log)
	result := "success"
	if err != nil {
		var ie *Error
		result = string(KindInternal)
		if errors.As(err, &ie) {
			result = string(ie.Kind)
		}
	}
	metrics.ParsesTotal.WithLabelValues(result).Inc()
	metrics.ParseDurationSeconds.WithLabelValues(result).Observe(metrics.Since(start))
	return out, err
}

func (s *Service) parse(ctx context.Context, uploadID string, log *zap.Logger) (*Outcome, error) {
	entry, err := s.store.GetUpload(ctx, uploadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, "upload not found", err)
		}
		return nil, newError(KindInternal, "load upload", err)
	}
	if entry.Category != model.CategoryLabData {
		return nil, newError(KindBadRequest, fmt.Sprintf("upload category %q is not %s", entry.Category, model.CategoryLabData), nil)
	}
	if entry.Status != model.QueueQueued && entry.Status != model.QueueFailed {
		return nil, newError(KindConflict, fmt.Sprintf("upload is %s", entry.Status), nil)
	}

	claimed, err := s.store.ClaimForParse(ctx, uploadID)
	if err != nil {
		return nil, newError(KindInternal, "claim upload", err)
	}
	if !claimed {
		return nil, newError(KindConflict, "upload is already being processed", nil)
	}

	rec := &model.ImportRecord{UploadID: entry.ID, OrgID: entry.OrgID, Status: model.ImportParsing}
	if err := s.store.CreateImportRecord(ctx, rec); err != nil {
		s.fail(ctx, entry, nil, err, log)
		return nil, newError(KindInternal, "create import record", err)
	}
	log = log.With(zap.String("import_record_id", rec.ID), zap.String("file", entry.FileName))

	if s.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	res, err := s.extract(ctx, entry)
	if err != nil {
		s.fail(ctx, entry, rec, err, log)
		kind, msg := edd.Categorize(err)
		if kind == edd.KindInternal {
			return nil, newError(KindInternal, msg, err)
		}
		return nil, newError(KindParseFailed, msg, err)
	}
	data := res.Data

	payload, err := model.NewLabDataEnvelope(data)
	if err != nil {
		s.fail(ctx, entry, rec, err, log)
		return nil, newError(KindInternal, "encode extraction", err)
	}
	outcome := model.ParseOutcome{
		Extraction:     payload,
		RecordCount:    data.ParsedRows,
		Warnings:       warningLog(data, s.cfg.WarningLogLines),
		ImportRecordID: rec.ID,
	}
	if entry.RegionCode == nil {
		if state, ok := data.SingleState(); ok {
			outcome.RegionCode = &state
		}
	}
	if err := s.store.CompleteParse(ctx, entry.ID, outcome); err != nil {
		s.fail(ctx, entry, rec, err, log)
		return nil, newError(KindInternal, "store extraction", err)
	}

	rec.Status = model.ImportParsed
	rec.TotalRows, rec.ParsedRows = data.TotalRows, data.ParsedRows
	rec.SkippedRows, rec.DuplicateRows = data.SkippedRows, data.DuplicateRows
	rec.Metadata = map[string]any{
		"file_name":            data.FileName,
		"column_count":         data.ColumnCount,
		"unknown_parameters":   len(data.UnknownParameters),
		"unmatched_outfalls":   len(data.UnmatchedOutfalls),
		"validation_errors":    data.TotalValidationErrors,
		"hold_time_violations": data.TotalHoldTimeViolations,
		"records_truncated":    data.RecordsTruncated,
	}
	if err := s.store.UpdateImportRecord(ctx, rec); err != nil {
		// The extraction is already stored; the tracker lagging is not fatal.
		log.Warn("ingest: update import record", zap.Error(err))
	}

	if s.aliases != nil {
		s.aliases.Enqueue(res.Learned)
	}

	metrics.ParsedRowsTotal.WithLabelValues("parsed").Add(float64(data.ParsedRows))
	metrics.ParsedRowsTotal.WithLabelValues("skipped").Add(float64(data.SkippedRows))
	metrics.ParsedRowsTotal.WithLabelValues("duplicate").Add(float64(data.DuplicateRows))

	s.writeAudit(ctx, entry, audit.OutcomeSuccess, map[string]int{
		"total_rows":     data.TotalRows,
		"parsed_rows":    data.ParsedRows,
		"skipped_rows":   data.SkippedRows,
		"duplicate_rows": data.DuplicateRows,
	}, "")

	log.Info("ingest: parsed upload",
		zap.Int("total_rows", data.TotalRows),
		zap.Int("parsed_rows", data.ParsedRows),
		zap.Int("duplicates", data.DuplicateRows),
		zap.Int("learned_aliases", len(res.Learned)),
	)
	return &Outcome{
		UploadID:       entry.ID,
		ImportRecordID: rec.ID,
		Data:           data,
		LearnedAliases: len(res.Learned),
	}, nil
}

// extract reads the file, loads the reference data it needs and runs the
// row parser.
func (s *Service) extract(ctx context.Context, entry *model.QueueEntry) (*edd.Result, error) {
	raw, err := blob.ReadAll(ctx, s.blobs, entry.StoragePath, s.cfg.MaxFileBytes, func(size int64) error {
		return edd.CheckFileSize(size, s.cfg.MaxFileBytes)
	})
	if err != nil {
		return nil, err
	}

	classified, err := ReadFile(entry.FileName, raw, s.cfg.MaxFileBytes, s.cfg.MaxRows)
	if err != nil {
		return nil, err
	}

	scan := edd.Prescan(classified)
	refs, err := s.prefetch(ctx, entry.OrgID, scan)
	if err != nil {
		return nil, err
	}

	return edd.Parse(classified, edd.Options{
		FileName: entry.FileName,
		Limits: edd.Limits{
			MaxRecords:            s.cfg.MaxRecords,
			MaxValidationErrors:   s.cfg.MaxValidationErrors,
			MaxHoldTimeViolations: s.cfg.MaxHoldTimeViolations,
		},
		Resolver:   refs.cache,
		HoldTimes:  s.holdTimes,
		Duplicates: refs.duplicates,
	}), nil
}

type references struct {
	cache      *resolve.Cache
	duplicates *compliance.DuplicateIndex
}

// prefetch loads the three reference sets concurrently.
func (s *Service) prefetch(ctx context.Context, orgID string, scan edd.Scan) (*references, error) {
	var (
		params   []model.ParameterAlias
		outfalls []model.Outfall
		aliases  []model.OutfallAlias
		existing []model.ResultKey
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		params, err = s.store.ParameterAliases(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if outfalls, err = s.store.OutfallsForPermits(gctx, orgID, scan.Permits); err != nil {
			return err
		}
		aliases, err = s.store.OutfallAliases(gctx, orgID, scan.Permits)
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = s.store.ExistingResultKeys(gctx, orgID,
			compliance.PlanWindow(scan.Permits, scan.SampleDates, s.cfg.DedupMaxSpanDays))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &references{
		cache: resolve.NewCache(resolve.Inputs{
			OrgID:            orgID,
			ParameterAliases: params,
			OutfallAliases:   aliases,
			Outfalls:         outfalls,
			Static:           s.static,
		}),
		duplicates: compliance.NewDuplicateIndex(existing),
	}, nil
}

// fail records a parse failure on the queue entry and its import record.
func (s *Service) fail(ctx context.Context, entry *model.QueueEntry, rec *model.ImportRecord, cause error, log *zap.Logger) {
	_, category := edd.Categorize(cause)
	diagnostic := truncate(cause.Error(), s.cfg.ErrorDetailChars)
	log.Warn("ingest: parse failed", zap.String("category", category), zap.Error(cause))

	// Record the failure even when the parse context expired.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.store.FailParse(fctx, entry.ID, []string{category, diagnostic}); err != nil {
		log.Error("ingest: mark upload failed", zap.Error(err))
	}
	if rec != nil && rec.ID != "" {
		rec.Status = model.ImportFailed
		rec.Error = category
		if err := s.store.UpdateImportRecord(fctx, rec); err != nil {
			log.Error("ingest: mark import record failed", zap.Error(err))
		}
	}
	s.writeAudit(fctx, entry, audit.OutcomeFailure, nil, category)
}

func (s *Service) writeAudit(ctx context.Context, entry *model.QueueEntry, outcome string, counts map[string]int, errMsg string) {
	if s.audit == nil {
		return
	}
	s.audit.Write(ctx, model.AuditEntry{
		Action:   audit.ActionParse,
		UploadID: entry.ID,
		FileName: entry.FileName,
		OrgID:    entry.OrgID,
		ActorID:  entry.UploadedBy,
		Outcome:  outcome,
		Counts:   counts,
		Error:    errMsg,
	})
}

// warningLog flattens file warnings and row validation errors into the
// upload's error log, keeping at most limit lines.
func warningLog(d *model.ExtractedLabData, limit int) []string {
	lines := make([]string, 0, len(d.Warnings)+len(d.ValidationErrors))
	lines = append(lines, d.Warnings...)
	for _, ve := range d.ValidationErrors {
		line := fmt.Sprintf("Row %d: %s: %s", ve.Row, ve.Field, ve.Message)
		if ve.Value != "" {
			line += fmt.Sprintf(" (%q)", ve.Value)
		}
		lines = append(lines, line)
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	return lines
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
