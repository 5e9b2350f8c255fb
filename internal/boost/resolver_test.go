package boost

import (
	"testing"
	"time"

	"github.com/pazarnet/discovery/internal/trust"
)

func activeRule(scope Scope, targetID string, multiplier float64) Rule {
	return Rule{
		ID:         "rule-" + targetID,
		Scope:      scope,
		TargetID:   targetID,
		Multiplier: multiplier,
		StartsAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
}

func TestResolve(t *testing.T) {
	resolver := NewResolver([]Rule{
		activeRule(ScopeListing, "listing-1", 1.5),
		activeRule(ScopeSeller, "seller-1", 2.0),
		activeRule(ScopeCategory, "cat-electronics", 1.2),
	})

	tests := []struct {
		name           string
		listingID      string
		sellerID       string
		categoryID     string
		tier           trust.Tier
		wantSponsored  bool
		wantMultiplier float64
	}{
		{
			name:           "no rule matches",
			listingID:      "listing-x",
			sellerID:       "seller-x",
			categoryID:     "cat-x",
			tier:           trust.TierA,
			wantSponsored:  false,
			wantMultiplier: 1.0,
		},
		{
			name:           "listing rule only",
			listingID:      "listing-1",
			sellerID:       "seller-x",
			categoryID:     "cat-x",
			tier:           trust.TierB,
			wantSponsored:  true,
			wantMultiplier: 1.5,
		},
		{
			name:           "seller rule only",
			listingID:      "listing-x",
			sellerID:       "seller-1",
			categoryID:     "cat-x",
			tier:           trust.TierB,
			wantSponsored:  true,
			wantMultiplier: 2.0,
		},
		{
			name:           "category rule only",
			listingID:      "listing-x",
			sellerID:       "seller-x",
			categoryID:     "cat-electronics",
			tier:           trust.TierC,
			wantSponsored:  true,
			wantMultiplier: 1.2,
		},
		{
			name:           "highest multiplier wins across scopes",
			listingID:      "listing-1",
			sellerID:       "seller-1",
			categoryID:     "cat-electronics",
			tier:           trust.TierA,
			wantSponsored:  true,
			wantMultiplier: 2.0,
		},
		{
			name:           "tier D stays sponsored with clamped multiplier",
			listingID:      "listing-1",
			sellerID:       "seller-1",
			categoryID:     "cat-electronics",
			tier:           trust.TierD,
			wantSponsored:  true,
			wantMultiplier: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.Resolve(tt.listingID, tt.sellerID, tt.categoryID, tt.tier)
			if got.Sponsored != tt.wantSponsored {
				t.Errorf("Sponsored = %v, want %v", got.Sponsored, tt.wantSponsored)
			}
			if got.Multiplier != tt.wantMultiplier {
				t.Errorf("Multiplier = %v, want %v", got.Multiplier, tt.wantMultiplier)
			}
		})
	}
}

func TestResolverKeepsHighestMultiplierPerTarget(t *testing.T) {
	// Multipliers on the same target never sum.
	resolver := NewResolver([]Rule{
		activeRule(ScopeSeller, "seller-1", 1.3),
		activeRule(ScopeSeller, "seller-1", 2.5),
		activeRule(ScopeSeller, "seller-1", 1.8),
	})

	got := resolver.Resolve("listing-x", "seller-1", "cat-x", trust.TierA)
	if !got.Sponsored {
		t.Fatal("Sponsored = false, want true")
	}
	if got.Multiplier != 2.5 {
		t.Errorf("Multiplier = %v, want 2.5 (highest, never summed)", got.Multiplier)
	}
}

func TestResolverIgnoresUnknownScopes(t *testing.T) {
	rule := activeRule(ScopeListing, "listing-1", 2.0)
	rule.Scope = "GLOBAL"

	resolver := NewResolver([]Rule{rule})
	got := resolver.Resolve("listing-1", "seller-x", "cat-x", trust.TierA)
	if got.Sponsored || got.Multiplier != 1.0 {
		t.Errorf("Resolve() = %+v, want no match", got)
	}
}

func TestEffectiveMultiplier(t *testing.T) {
	tests := []struct {
		tier trust.Tier
		want float64
	}{
		{trust.TierA, 3.0},
		{trust.TierB, 3.0},
		{trust.TierC, 3.0},
		{trust.TierD, 1.0},
	}
	for _, tt := range tests {
		if got := EffectiveMultiplier(3.0, tt.tier); got != tt.want {
			t.Errorf("EffectiveMultiplier(3.0, %s) = %v, want %v", tt.tier, got, tt.want)
		}
	}
}
