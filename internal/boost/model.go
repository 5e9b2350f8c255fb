// Package boost provides the promotional boost rule policy engine: rule
// validation, overlap prevention, tier-capped multiplier resolution, and the
// audit trail required for every mutation.
package boost

import (
	"errors"
	"time"

	"github.com/pazarnet/discovery/internal/trust"
)

// Scope determines what a boost rule targets.
type Scope string

// Valid rule scopes, in resolution priority order.
const (
	ScopeListing  Scope = "LISTING"
	ScopeSeller   Scope = "SELLER"
	ScopeCategory Scope = "CATEGORY"
)

// MaxMultiplier is the hard upper bound for rule multipliers. Multipliers
// must lie strictly within (0, MaxMultiplier].
const MaxMultiplier = 5.0

// Validation and lookup errors for boost rules.
var (
	ErrInvalidScope      = errors.New("invalid scope: must be LISTING, SELLER, or CATEGORY")
	ErrInvalidTarget     = errors.New("target ID cannot be empty")
	ErrInvalidMultiplier = errors.New("multiplier must be greater than 0 and at most 5")
	ErrInvalidWindow     = errors.New("endsAt must be after startsAt")
	ErrOverlappingRule   = errors.New("an active rule for this target overlaps the requested window")
	ErrRuleNotFound      = errors.New("boost rule not found")
)

// ValidScope reports whether the scope is one of the three known scopes.
func ValidScope(s Scope) bool {
	switch s {
	case ScopeListing, ScopeSeller, ScopeCategory:
		return true
	}
	return false
}

// Rule is a time-bounded promotional multiplier attached to a listing,
// seller, or category. Rules are soft-deleted only.
type Rule struct {
	ID                string    `json:"id"`
	Scope             Scope     `json:"scope"`
	TargetID          string    `json:"target_id"`
	Multiplier        float64   `json:"multiplier"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	IsActive          bool      `json:"is_active"`
	CreatedByTenantID string    `json:"created_by_tenant_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateParams carries the input for creating a rule.
type CreateParams struct {
	Scope             Scope
	TargetID          string
	Multiplier        float64
	StartsAt          time.Time
	EndsAt            time.Time
	CreatedByTenantID string
	RequestID         string
}

// Validate checks scope, target, multiplier range, and time window.
func (p CreateParams) Validate() error {
	if !ValidScope(p.Scope) {
		return ErrInvalidScope
	}
	if p.TargetID == "" {
		return ErrInvalidTarget
	}
	if p.Multiplier <= 0 || p.Multiplier > MaxMultiplier {
		return ErrInvalidMultiplier
	}
	if !p.EndsAt.After(p.StartsAt) {
		return ErrInvalidWindow
	}
	return nil
}

// overlaps reports whether two time windows intersect. Windows sharing only
// a boundary instant count as overlapping: the shared instant belongs to
// both rules' active ranges under the inclusive fetchActive check.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// ActiveAt reports whether the rule is live at the given instant.
func (r *Rule) ActiveAt(now time.Time) bool {
	return r.IsActive && !now.Before(r.StartsAt) && !now.After(r.EndsAt)
}

// EffectiveMultiplier returns the multiplier the scorer may apply for a
// seller of the given tier. Tier-D sellers keep the sponsored flag but
// cannot out-rank organically: their multiplier is clamped to 1.0.
func EffectiveMultiplier(multiplier float64, tier trust.Tier) float64 {
	if tier == trust.TierD {
		return 1.0
	}
	return multiplier
}
