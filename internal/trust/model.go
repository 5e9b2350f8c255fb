// Package trust provides seller trust score snapshots consumed by the
// discovery ranking pipeline. Scores are computed by an external pipeline;
// this package only reads the current snapshot per selling tenant.
package trust

import (
	"errors"
)

// Tier is the coarse seller risk classification derived from the trust score.
type Tier string

// Valid tier constants, ordered A (best) to D (worst).
const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Neutral defaults applied when a seller has no tracked score yet.
// Untracked sellers are neither excluded nor boosted.
const (
	NeutralScore = 60.0
	NeutralTier  = TierC
)

// ErrInvalidTier is returned when a tier string is not one of A, B, C, D.
var ErrInvalidTier = errors.New("invalid tier: must be A, B, C, or D")

// tierOrdinals maps tiers to their ordinal rank for comparisons.
// Tiers must never be compared as raw strings.
var tierOrdinals = map[Tier]int{
	TierA: 4,
	TierB: 3,
	TierC: 2,
	TierD: 1,
}

// Ordinal returns the numeric rank of the tier (A=4, B=3, C=2, D=1).
// Unknown tiers return 0, ranking below every valid tier.
func (t Tier) Ordinal() int {
	return tierOrdinals[t]
}

// Valid reports whether the tier is one of the four known tiers.
func (t Tier) Valid() bool {
	_, ok := tierOrdinals[t]
	return ok
}

// AtLeast reports whether the tier ranks at or above the given minimum tier.
func (t Tier) AtLeast(min Tier) bool {
	return t.Ordinal() >= min.Ordinal()
}

// ParseTier converts a string into a Tier, rejecting unknown values.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", ErrInvalidTier
	}
	return t, nil
}

// Score is one current trust snapshot for a selling tenant.
type Score struct {
	TenantID string  `json:"tenant_id"`
	Score    float64 `json:"score"` // 0-100
	Tier     Tier    `json:"tier"`
}

// Neutral returns the default snapshot used for sellers without a tracked
// score (tier C, score 60).
func Neutral(tenantID string) Score {
	return Score{
		TenantID: tenantID,
		Score:    NeutralScore,
		Tier:     NeutralTier,
	}
}
