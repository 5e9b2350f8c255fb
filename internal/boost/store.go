package boost

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pazarnet/discovery/internal/audit"
)

// Store manages the lifecycle of boost rules. Every successful mutation
// writes exactly one audit entry; a failed audit write fails the mutation.
type Store interface {
	// Create validates and persists a new rule.
	// Fails with ErrInvalidMultiplier, ErrInvalidWindow, or
	// ErrOverlappingRule; on success the rule and its audit entry exist.
	Create(ctx context.Context, params CreateParams) (*Rule, error)

	// Deactivate soft-deletes a rule. Idempotent: deactivating an already
	// inactive rule succeeds. Fails with ErrRuleNotFound for unknown IDs.
	Deactivate(ctx context.Context, ruleID, actorID string) error

	// FetchActive returns all rules live at the given instant
	// (isActive and startsAt <= now <= endsAt).
	FetchActive(ctx context.Context, now time.Time) ([]Rule, error)
}

// auditSnapshot builds the full parameter snapshot stored with each
// CREATED_BOOST_RULE entry.
func auditSnapshot(rule *Rule) []byte {
	payload, _ := json.Marshal(rule)
	return payload
}

// InMemoryStore is an in-memory implementation of Store.
// Thread-safe via RWMutex. Used for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	rules   map[string]*Rule
	auditor audit.Repository
}

// NewInMemoryStore creates an in-memory boost store writing audit entries to
// the given repository.
func NewInMemoryStore(auditor audit.Repository) *InMemoryStore {
	return &InMemoryStore{
		rules:   make(map[string]*Rule),
		auditor: auditor,
	}
}

// Create validates and persists a new rule.
func (s *InMemoryStore) Create(_ context.Context, params CreateParams) (*Rule, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rules {
		if !existing.IsActive {
			continue
		}
		if existing.Scope != params.Scope || existing.TargetID != params.TargetID {
			continue
		}
		if overlaps(existing.StartsAt, existing.EndsAt, params.StartsAt, params.EndsAt) {
			return nil, ErrOverlappingRule
		}
	}

	rule := &Rule{
		ID:                uuid.New().String(),
		Scope:             params.Scope,
		TargetID:          params.TargetID,
		Multiplier:        params.Multiplier,
		StartsAt:          params.StartsAt,
		EndsAt:            params.EndsAt,
		IsActive:          true,
		CreatedByTenantID: params.CreatedByTenantID,
		CreatedAt:         time.Now().UTC(),
	}

	// Audit integrity gates the mutation: the rule is only stored once the
	// audit entry is durable.
	_, err := s.auditor.Append(audit.Record{
		ActorID:    params.CreatedByTenantID,
		EntityType: audit.EntityBoostRule,
		EntityID:   rule.ID,
		Action:     audit.ActionCreatedBoostRule,
		Payload:    auditSnapshot(rule),
		RequestID:  params.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to audit boost rule creation: %w", err)
	}

	s.rules[rule.ID] = rule
	ruleCopy := *rule
	return &ruleCopy, nil
}

// Deactivate soft-deletes a rule.
func (s *InMemoryStore) Deactivate(_ context.Context, ruleID, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return ErrRuleNotFound
	}

	_, err := s.auditor.Append(audit.Record{
		ActorID:    actorID,
		EntityType: audit.EntityBoostRule,
		EntityID:   rule.ID,
		Action:     audit.ActionDeactivatedBoostRule,
		Payload:    auditSnapshot(rule),
	})
	if err != nil {
		return fmt.Errorf("failed to audit boost rule deactivation: %w", err)
	}

	rule.IsActive = false
	return nil
}

// FetchActive returns all rules live at the given instant.
func (s *InMemoryStore) FetchActive(_ context.Context, now time.Time) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []Rule
	for _, rule := range s.rules {
		if rule.ActiveAt(now) {
			active = append(active, *rule)
		}
	}
	return active, nil
}
