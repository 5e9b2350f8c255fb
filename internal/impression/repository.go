package impression

import (
	"context"
	"sync"
	"time"
)

// Repository persists impressions and request logs. Both tables are
// append-only; there are no updates or deletes.
type Repository interface {
	// AppendImpressions stores a batch of impressions from one response.
	AppendImpressions(ctx context.Context, impressions []Impression) error

	// AppendRequestLog stores one ranking invocation record.
	AppendRequestLog(ctx context.Context, log RequestLog) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for tests and development.
type InMemoryRepository struct {
	mu          sync.RWMutex
	impressions []Impression
	requestLogs []RequestLog
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// AppendImpressions stores a batch of impressions.
func (r *InMemoryRepository) AppendImpressions(_ context.Context, impressions []Impression) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impressions = append(r.impressions, impressions...)
	return nil
}

// AppendRequestLog stores one request log row.
func (r *InMemoryRepository) AppendRequestLog(_ context.Context, log RequestLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestLogs = append(r.requestLogs, log)
	return nil
}

// ImpressionsByViewer returns stored impressions for a viewer, oldest first.
func (r *InMemoryRepository) ImpressionsByViewer(viewerTenantID string) []Impression {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Impression
	for _, imp := range r.impressions {
		if imp.ViewerTenantID == viewerTenantID {
			out = append(out, imp)
		}
	}
	return out
}

// RequestLogs returns all stored request logs, oldest first.
func (r *InMemoryRepository) RequestLogs() []RequestLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RequestLog, len(r.requestLogs))
	copy(out, r.requestLogs)
	return out
}

// ImpressionsSince returns impressions created at or after the cutoff.
// Used by the archive exporter.
func (r *InMemoryRepository) ImpressionsSince(_ context.Context, cutoff time.Time) ([]Impression, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Impression
	for _, imp := range r.impressions {
		if !imp.CreatedAt.Before(cutoff) {
			out = append(out, imp)
		}
	}
	return out, nil
}
