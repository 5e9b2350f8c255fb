package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Validation errors for audit records.
var (
	ErrInvalidActor      = errors.New("actor ID cannot be empty")
	ErrInvalidEntityType = errors.New("entity type cannot be empty")
	ErrInvalidEntityID   = errors.New("entity ID cannot be empty")
	ErrInvalidAction     = errors.New("action cannot be empty")
)

// ValidActions defines the allowed actions for audit entries.
var ValidActions = map[string]bool{
	ActionCreatedBoostRule:     true,
	ActionDeactivatedBoostRule: true,
}

// Repository defines the interface for append-only audit log operations.
type Repository interface {
	// Append records an audit entry. Returns the created entry.
	// A failed append must propagate: audit integrity is part of the boost
	// policy, not best-effort observability.
	Append(record Record) (*Entry, error)

	// QueryByEntity retrieves entries for an entity, newest first.
	// Limit 0 means no limit.
	QueryByEntity(entityType, entityID string, limit int) ([]*Entry, error)

	// QueryByActor retrieves entries for an acting tenant, newest first.
	// Limit 0 means no limit.
	QueryByActor(actorID string, limit int) ([]*Entry, error)
}

// validateRecord checks the required fields of a record.
func validateRecord(r Record) error {
	if r.ActorID == "" {
		return ErrInvalidActor
	}
	if r.EntityType == "" {
		return ErrInvalidEntityType
	}
	if r.EntityID == "" {
		return ErrInvalidEntityID
	}
	if r.Action == "" || !ValidActions[r.Action] {
		return ErrInvalidAction
	}
	return nil
}

// chainHash computes the tamper-detection hash over an entry's canonical fields.
func chainHash(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d|%s",
		e.ID, e.ActorID, e.EntityType, e.EntityID, e.Action,
		e.CreatedAt.UnixNano(), e.PreviousHash)
	h.Write(e.Payload)
	return hex.EncodeToString(h.Sum(nil))
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Maintains insertion order for queries.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
	lastSum string
}

// NewInMemoryRepository creates a new in-memory audit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Append records an audit entry.
func (r *InMemoryRepository) Append(record Record) (*Entry, error) {
	if err := validateRecord(record); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &Entry{
		ID:           uuid.New().String(),
		ActorID:      record.ActorID,
		EntityType:   record.EntityType,
		EntityID:     record.EntityID,
		Action:       record.Action,
		Payload:      append([]byte(nil), record.Payload...),
		CreatedAt:    time.Now().UTC(),
		RequestID:    record.RequestID,
		PreviousHash: r.lastSum,
	}
	r.entries = append(r.entries, entry)
	r.lastSum = chainHash(entry)

	entryCopy := *entry
	return &entryCopy, nil
}

// QueryByEntity retrieves entries for an entity, newest first.
func (r *InMemoryRepository) QueryByEntity(entityType, entityID string, limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			entryCopy := *e
			results = append(results, &entryCopy)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// QueryByActor retrieves entries for an acting tenant, newest first.
func (r *InMemoryRepository) QueryByActor(actorID string, limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.ActorID == actorID {
			entryCopy := *e
			results = append(results, &entryCopy)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}
