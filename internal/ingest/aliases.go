package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/edd-cli/internal/config"
	"github.com/sells-group/edd-cli/internal/metrics"
	"github.com/sells-group/edd-cli/internal/model"
)

// AliasSaver persists learned outfall aliases.
type AliasSaver interface {
	SaveOutfallAliases(ctx context.Context, aliases []model.OutfallAlias) error
}

const aliasWriteTimeout = 10 * time.Second

// AliasWriter persists learned outfall aliases in the background. Batches
// are queued without blocking the parse, written at a throttled rate, and
// failures are logged and dropped: a lost alias only costs a re-match on the
// next upload.
type AliasWriter struct {
	saver   AliasSaver
	limiter *rate.Limiter
	queue   chan []model.OutfallAlias
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAliasWriter starts the background writer.
func NewAliasWriter(saver AliasSaver, cfg config.AliasConfig) *AliasWriter {
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	w := &AliasWriter{
		saver:   saver,
		limiter: rate.NewLimiter(limit, burst),
		queue:   make(chan []model.OutfallAlias, size),
		log:     zap.L().With(zap.String("component", "ingest.aliases")),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue hands a batch to the writer. It reports false when the batch was
// dropped because the queue is full or the writer is closed.
func (w *AliasWriter) Enqueue(aliases []model.OutfallAlias) bool {
	if len(aliases) == 0 {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		metrics.AliasWritesTotal.WithLabelValues("dropped").Inc()
		return false
	}
	select {
	case w.queue <- aliases:
		metrics.AliasQueueDepth.Inc()
		return true
	default:
		w.log.Warn("ingest: alias queue full, dropping batch", zap.Int("aliases", len(aliases)))
		metrics.AliasWritesTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close stops accepting batches and waits for queued ones to be written.
func (w *AliasWriter) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *AliasWriter) run() {
	defer w.wg.Done()
	for batch := range w.queue {
		metrics.AliasQueueDepth.Dec()
		w.write(batch)
	}
}

func (w *AliasWriter) write(batch []model.OutfallAlias) {
	ctx, cancel := context.WithTimeout(context.Background(), aliasWriteTimeout)
	defer cancel()

	if err := w.limiter.Wait(ctx); err != nil {
		w.log.Warn("ingest: alias write throttled past deadline", zap.Int("aliases", len(batch)), zap.Error(err))
		metrics.AliasWritesTotal.WithLabelValues("failed").Inc()
		return
	}
	if err := w.saver.SaveOutfallAliases(ctx, batch); err != nil {
		w.log.Warn("ingest: persist learned outfall aliases", zap.Int("aliases", len(batch)), zap.Error(err))
		metrics.AliasWritesTotal.WithLabelValues("failed").Inc()
		return
	}
	w.log.Debug("ingest: persisted learned outfall aliases", zap.Int("aliases", len(batch)))
	metrics.AliasWritesTotal.WithLabelValues("saved").Inc()
}
