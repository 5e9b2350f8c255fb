package boost

import (
	"github.com/pazarnet/discovery/internal/trust"
)

// Decision is the resolved boost outcome for a single listing.
type Decision struct {
	// Sponsored is set whenever any active rule matched the listing, even
	// when the multiplier was clamped for a low-trust seller.
	Sponsored bool

	// Multiplier is the effective multiplier applied to the base score.
	// 1.0 when no rule matched or when the Tier-D clamp applied.
	Multiplier float64
}

// Resolver answers boost lookups for a fixed snapshot of active rules.
// Build one per ranking request so every candidate sees the same snapshot.
type Resolver struct {
	byListing  map[string]float64
	bySeller   map[string]float64
	byCategory map[string]float64
}

// NewResolver indexes the given active rules by scope. When several rules
// share a target the highest multiplier is kept (multipliers never sum).
func NewResolver(rules []Rule) *Resolver {
	r := &Resolver{
		byListing:  make(map[string]float64),
		bySeller:   make(map[string]float64),
		byCategory: make(map[string]float64),
	}
	for _, rule := range rules {
		var idx map[string]float64
		switch rule.Scope {
		case ScopeListing:
			idx = r.byListing
		case ScopeSeller:
			idx = r.bySeller
		case ScopeCategory:
			idx = r.byCategory
		default:
			continue
		}
		if rule.Multiplier > idx[rule.TargetID] {
			idx[rule.TargetID] = rule.Multiplier
		}
	}
	return r
}

// Resolve checks LISTING, then SELLER, then CATEGORY scoped rules for the
// listing. If multiple scopes match, the highest multiplier wins. Tier-D
// sellers are flagged sponsored but their multiplier is clamped to 1.0.
func (r *Resolver) Resolve(listingID, sellerID, categoryID string, tier trust.Tier) Decision {
	multiplier := 0.0
	matched := false

	for _, m := range []float64{
		r.byListing[listingID],
		r.bySeller[sellerID],
		r.byCategory[categoryID],
	} {
		if m > 0 {
			matched = true
			if m > multiplier {
				multiplier = m
			}
		}
	}

	if !matched {
		return Decision{Sponsored: false, Multiplier: 1.0}
	}

	return Decision{
		Sponsored:  true,
		Multiplier: EffectiveMultiplier(multiplier, tier),
	}
}
