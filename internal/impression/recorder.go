package impression

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultBufferSize is the recorder's channel capacity. A full buffer drops
// new records instead of blocking the ranking response.
const DefaultBufferSize = 1024

// drainTimeout bounds how long Close waits for buffered records.
const drainTimeout = 5 * time.Second

// record is one unit of work for the background writer.
type record struct {
	impressions []Impression
	requestLog  *RequestLog
}

// Recorder dispatches impression and request-log writes to a background
// worker. Record methods never block and never return errors; failures are
// logged and counted only.
type Recorder struct {
	repo      Repository
	metrics   *Metrics
	ch        chan record
	done      chan struct{}
	closeOnce sync.Once
}

// NewRecorder starts a recorder with the given buffer size (0 selects
// DefaultBufferSize). The caller owns the returned Recorder and must call
// Close on shutdown.
func NewRecorder(repo Repository, metrics *Metrics, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	r := &Recorder{
		repo:    repo,
		metrics: metrics,
		ch:      make(chan record, bufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// RecordImpressions queues a batch of impressions. Never blocks: if the
// buffer is full the batch is dropped and counted.
func (r *Recorder) RecordImpressions(impressions []Impression) {
	if len(impressions) == 0 {
		return
	}
	select {
	case r.ch <- record{impressions: impressions}:
	default:
		r.metrics.RecordDropped(len(impressions))
		slog.Warn("impression buffer full, dropping batch",
			"count", len(impressions))
	}
}

// RecordRequestLog queues a request log row. Never blocks.
func (r *Recorder) RecordRequestLog(log RequestLog) {
	select {
	case r.ch <- record{requestLog: &log}:
	default:
		r.metrics.RecordDropped(1)
		slog.Warn("impression buffer full, dropping request log",
			"request_id", log.RequestID)
	}
}

// run is the background writer. Write errors are swallowed after logging;
// a failed observability write must never surface to callers.
func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		r.write(ctx, rec)
		cancel()
	}
}

func (r *Recorder) write(ctx context.Context, rec record) {
	if len(rec.impressions) > 0 {
		if err := r.repo.AppendImpressions(ctx, rec.impressions); err != nil {
			r.metrics.RecordWriteError()
			slog.ErrorContext(ctx, "failed to write impressions",
				"count", len(rec.impressions),
				"error", err)
		} else {
			r.metrics.RecordWritten(len(rec.impressions))
		}
	}
	if rec.requestLog != nil {
		if err := r.repo.AppendRequestLog(ctx, *rec.requestLog); err != nil {
			r.metrics.RecordWriteError()
			slog.ErrorContext(ctx, "failed to write request log",
				"request_id", rec.requestLog.RequestID,
				"error", err)
		} else {
			r.metrics.RecordWritten(1)
		}
	}
}

// Close stops accepting new records and drains the buffer, waiting at most
// drainTimeout for the worker to finish. Safe to call more than once.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.ch)
		select {
		case <-r.done:
		case <-time.After(drainTimeout):
			slog.Warn("impression recorder drain timed out")
		}
	})
}
