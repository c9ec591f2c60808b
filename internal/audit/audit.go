// Package audit records upload operations in the audit trail. Writes are
// retried and, when every attempt fails, parked on the queue entry so the
// trail can be replayed later. Audit failures never fail the operation.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/edd-cli/internal/config"
	"github.com/sells-group/edd-cli/internal/metrics"
	"github.com/sells-group/edd-cli/internal/model"
	"github.com/sells-group/edd-cli/internal/resilience"
)

// Actions written by the pipeline.
const (
	ActionParse  = "edd.parse"
	ActionImport = "edd.import"
)

// Outcomes written by the pipeline.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Sink receives audit entries.
type Sink interface {
	WriteAudit(ctx context.Context, e model.AuditEntry) error
}

// Pending stores an undelivered audit payload on its queue entry.
type Pending interface {
	SetPendingAudit(ctx context.Context, uploadID string, payload []byte) error
}

// Writer delivers audit entries with retries and an on-record fallback.
type Writer struct {
	sink    Sink
	pending Pending
	retry   resilience.RetryConfig
	now     func() time.Time
}

// NewWriter builds a Writer. Delays are exact: 500ms then 1000ms with the
// default configuration.
func NewWriter(sink Sink, pending Pending, cfg config.AuditConfig) *Writer {
	retry := resilience.FromRetryConfig(cfg.MaxAttempts, cfg.InitialBackoffMs, 0, cfg.Multiplier, 0)
	retry.ShouldRetry = resilience.RetryAny
	retry.OnRetry = resilience.RetryLogger("audit", "write")
	return &Writer{
		sink:    sink,
		pending: pending,
		retry:   retry,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Write delivers e. It never returns an error; failures are logged and the
// payload is stored as pending on the upload.
func (w *Writer) Write(ctx context.Context, e model.AuditEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = w.now()
	}
	log := zap.L().With(
		zap.String("component", "audit"),
		zap.String("action", e.Action),
		zap.String("upload_id", e.UploadID),
	)

	err := resilience.Do(ctx, w.retry, func(ctx context.Context) error {
		return w.sink.WriteAudit(ctx, e)
	})
	if err == nil {
		return
	}

	log.Warn("audit: write failed, storing as pending", zap.Error(err))
	metrics.AuditFallbackTotal.Inc()

	if w.pending == nil || e.UploadID == "" {
		return
	}
	payload, merr := json.Marshal(e)
	if merr != nil {
		log.Error("audit: marshal pending entry", zap.Error(merr))
		return
	}
	// The caller's context may already be done; the fallback still gets a short window.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if perr := w.pending.SetPendingAudit(fctx, e.UploadID, payload); perr != nil {
		log.Error("audit: store pending entry", zap.Error(perr))
	}
}
