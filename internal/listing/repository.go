package listing

import (
	"context"
	"sort"
	"sync"
)

// Repository answers bounded, filtered listing queries for discovery.
// Implementations must only return eligible (NETWORK + ACTIVE) listings and
// must cap the result set so ranking never scores an unbounded scan.
type Repository interface {
	// FindEligible returns up to the repository's fetch cap of eligible
	// listings matching the filters.
	FindEligible(ctx context.Context, filters Filters) ([]Listing, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for tests and development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]*Listing
	fetchCap int
}

// NewInMemoryRepository creates an in-memory listing repository with the
// default fetch cap.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithCap(DefaultFetchCap)
}

// NewInMemoryRepositoryWithCap creates an in-memory repository with a custom
// fetch cap. Non-positive caps fall back to the default.
func NewInMemoryRepositoryWithCap(fetchCap int) *InMemoryRepository {
	if fetchCap <= 0 {
		fetchCap = DefaultFetchCap
	}
	return &InMemoryRepository{
		listings: make(map[string]*Listing),
		fetchCap: fetchCap,
	}
}

// Put inserts or replaces a listing.
func (r *InMemoryRepository) Put(l Listing) {
	r.mu.Lock()
	listingCopy := l
	r.listings[l.ID] = &listingCopy
	r.mu.Unlock()
}

// FindEligible returns eligible listings matching the filters, capped at the
// fetch cap. Results are ordered by ascending ID so the cap truncates
// deterministically.
func (r *InMemoryRepository) FindEligible(_ context.Context, filters Filters) ([]Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []Listing
	for _, l := range r.listings {
		if !l.Eligible() {
			continue
		}
		if !filters.Match(l) {
			continue
		}
		candidates = append(candidates, *l)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})

	if len(candidates) > r.fetchCap {
		candidates = candidates[:r.fetchCap]
	}

	return candidates, nil
}
