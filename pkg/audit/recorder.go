package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/epicorbridge/pkg/bridge"
	"mercator-hq/epicorbridge/pkg/config"
	"mercator-hq/epicorbridge/pkg/telemetry/logging"
)

// Writer persists entries. *Store implements it.
type Writer interface {
	Insert(ctx context.Context, e *Entry) error
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// BufferSize is the size of the async write channel.
	BufferSize int

	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration
}

// RecorderConfigFrom converts the audit configuration section.
func RecorderConfigFrom(cfg config.AuditConfig) RecorderConfig {
	return RecorderConfig{BufferSize: cfg.BufferSize, WriteTimeout: cfg.WriteTimeout}
}

// Recorder writes one Entry per proxied operation without blocking the
// request path. When the buffer is full the entry is dropped and counted.
type Recorder struct {
	writer  Writer
	config  RecorderConfig
	logger  *slog.Logger
	entries chan *Entry
	dropped atomic.Int64
	written atomic.Int64
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder creates a Recorder and starts its writer goroutine.
func NewRecorder(writer Writer, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = config.DefaultAuditBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultAuditWriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		writer:  writer,
		config:  cfg,
		logger:  logger.With("component", "audit.recorder"),
		entries: make(chan *Entry, cfg.BufferSize),
		now:     time.Now,
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// ObserveResult implements bridge.Observer.
func (r *Recorder) ObserveResult(ctx context.Context, op bridge.Operation, res bridge.Result, duration time.Duration) {
	r.Record(&Entry{
		ID:             uuid.NewString(),
		RequestID:      logging.GetRequestID(ctx),
		Operation:      op.Kind,
		Target:         op.Target,
		Category:       res.Category.String(),
		UpstreamStatus: res.UpstreamStatus,
		Duration:       duration,
		Timestamp:      r.now().UTC(),
	})
}

// Record enqueues e. It never blocks.
func (r *Recorder) Record(e *Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.entries <- e:
	default:
		n := r.dropped.Add(1)
		r.logger.Warn("audit buffer full, dropping entry",
			"request_id", e.RequestID,
			"target", e.Target,
			"dropped_total", n,
		)
	}
}

// Dropped returns the number of entries dropped so far.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written returns the number of entries persisted so far.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Close stops accepting entries and waits until the buffer is drained.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.entries)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("audit recorder stopped",
		"written", r.written.Load(),
		"dropped", r.dropped.Load(),
	)
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for e := range r.entries {
		r.write(e)
	}
}

func (r *Recorder) write(e *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.writer.Insert(ctx, e); err != nil {
		r.logger.Error("failed to store audit entry",
			"entry_id", e.ID,
			"request_id", e.RequestID,
			"error", err,
		)
		return
	}
	r.written.Add(1)

	if d := time.Since(start); d > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"entry_id", e.ID,
			"duration_ms", d.Milliseconds(),
		)
	}
}
