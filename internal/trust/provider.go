package trust

import (
	"context"
	"sync"
)

// Provider supplies the current trust snapshot for a selling tenant.
// A seller without a tracked score yields the neutral default, never an
// error; errors are reserved for infrastructure failures.
type Provider interface {
	// GetScore returns the current snapshot for the tenant, falling back to
	// the neutral default when no score is tracked.
	GetScore(ctx context.Context, tenantID string) (Score, error)
}

// InMemoryProvider is an in-memory implementation of Provider.
// Thread-safe via RWMutex.
type InMemoryProvider struct {
	mu     sync.RWMutex
	scores map[string]Score
}

// NewInMemoryProvider creates a new in-memory trust score provider.
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		scores: make(map[string]Score),
	}
}

// Upsert replaces the snapshot for a tenant (last write wins, matching the
// upsertable snapshot table semantics).
func (p *InMemoryProvider) Upsert(score Score) {
	p.mu.Lock()
	p.scores[score.TenantID] = score
	p.mu.Unlock()
}

// GetScore returns the tracked snapshot or the neutral default.
func (p *InMemoryProvider) GetScore(_ context.Context, tenantID string) (Score, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if score, ok := p.scores[tenantID]; ok {
		return score, nil
	}
	return Neutral(tenantID), nil
}
