// Package audit provides the append-only finance audit log shared by boost
// rule mutations. Every mutating boost operation writes exactly one entry;
// entries are never updated or hard-deleted.
package audit

import (
	"time"
)

// Actions recorded by the boost policy engine.
const (
	ActionCreatedBoostRule     = "CREATED_BOOST_RULE"
	ActionDeactivatedBoostRule = "DEACTIVATED_BOOST_RULE"
)

// Entity types referenced by audit entries.
const (
	EntityBoostRule = "boost_rule"
)

// Entry is a single immutable audit event.
type Entry struct {
	ID         string
	ActorID    string // acting tenant
	EntityType string
	EntityID   string
	Action     string
	Payload    []byte // JSON snapshot of the mutation parameters
	CreatedAt  time.Time

	// Optional correlation metadata
	RequestID string

	// PreviousHash chains entries for tamper detection: SHA-256 over the
	// previous entry's canonical fields.
	PreviousHash string
}

// Record is the input for appending an audit entry.
type Record struct {
	ActorID    string
	EntityType string
	EntityID   string
	Action     string
	Payload    []byte
	RequestID  string
}
