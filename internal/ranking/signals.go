package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/pazarnet/discovery/internal/listing"
	"github.com/pazarnet/discovery/internal/trust"
)

// recencyHorizonDays is the age at which the recency signal bottoms out.
const recencyHorizonDays = 365.0

// availabilityLogCeiling is the stock quantity (10^4) at which the
// availability signal saturates at 1.0.
const availabilityLogCeiling = 4.0

// TrustNorm normalizes a 0-100 trust score to [0, 1].
func TrustNorm(score float64) float64 {
	return clamp01(score / 100.0)
}

// RecencyNorm scores listing age: 1.0 for a brand-new listing, decaying
// linearly to 0 at one year.
func RecencyNorm(createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24.0
	if ageDays < 0 {
		ageDays = 0
	}
	return clamp01(1.0 - ageDays/recencyHorizonDays)
}

// AvailabilityNorm scores stock depth on a log scale. Out-of-stock listings
// score exactly 0; 1 unit ~ 0, 100 units ~ 0.5, 10000+ units saturate at 1.
func AvailabilityNorm(qty int) float64 {
	if qty <= 0 {
		return 0.0
	}
	return clamp01(math.Log10(float64(qty)) / availabilityLogCeiling)
}

// LeadTimeNorm scores dispatch lead time: 1.0 for same-day dispatch,
// 0.5 at one day, decaying toward 0 for long lead times.
func LeadTimeNorm(days int) float64 {
	if days < 0 {
		days = 0
	}
	return 1.0 / (1.0 + float64(days))
}

// MatchNorm scores query match quality. Full-text relevance is not wired
// yet, so every candidate scores a flat 1.0 and ordering is carried by the
// other signals.
func MatchNorm() float64 {
	return 1.0
}

// PriceIndex holds per-category price distributions for the fetched
// candidate set, supporting percentile-style price competitiveness.
type PriceIndex struct {
	// sorted ascending prices per category
	byCategory map[string][]float64
}

// NewPriceIndex builds the per-category price distribution over the
// candidates of a single request. Competitiveness is relative to what the
// buyer could actually see, not a global market index.
func NewPriceIndex(candidates []listing.Listing) *PriceIndex {
	idx := &PriceIndex{byCategory: make(map[string][]float64)}
	for i := range candidates {
		l := &candidates[i]
		if l.UnitPrice <= 0 {
			continue
		}
		idx.byCategory[l.CategoryID] = append(idx.byCategory[l.CategoryID], l.UnitPrice)
	}
	for _, prices := range idx.byCategory {
		sort.Float64s(prices)
	}
	return idx
}

// PriceNorm scores price competitiveness within the listing's category:
// approaching 1.0 for the cheapest listing, 0.5 at the category median, and
// approaching 0 for the most expensive. Thin categories (fewer than 2 priced
// listings) fall back to the neutral 0.5 so a lone listing is neither
// rewarded nor punished on price.
func (idx *PriceIndex) PriceNorm(categoryID string, price float64) float64 {
	prices := idx.byCategory[categoryID]
	if len(prices) < 2 || price <= 0 {
		return 0.5
	}

	// Rank the price within the sorted distribution. Ties take the midpoint
	// of their run so equal prices score equally.
	cheaper := sort.SearchFloat64s(prices, price)
	upper := sort.Search(len(prices), func(i int) bool { return prices[i] > price })
	equal := upper - cheaper
	if equal < 1 {
		equal = 1
	}

	rank := float64(cheaper) + float64(equal-1)/2.0
	percentile := rank / float64(len(prices)-1)
	return clamp01(1.0 - percentile)
}

// Signals holds the six normalized components for one candidate.
type Signals struct {
	Trust        float64 `json:"trust"`
	Recency      float64 `json:"recency"`
	Availability float64 `json:"availability"`
	Price        float64 `json:"price"`
	LeadTime     float64 `json:"lead_time"`
	Match        float64 `json:"match"`
}

// ComputeSignals derives all normalized signals for a listing given its
// seller's trust snapshot and the request's price index.
func ComputeSignals(l *listing.Listing, score trust.Score, idx *PriceIndex, now time.Time) Signals {
	return Signals{
		Trust:        TrustNorm(score.Score),
		Recency:      RecencyNorm(l.CreatedAt, now),
		Availability: AvailabilityNorm(l.AvailableQty),
		Price:        idx.PriceNorm(l.CategoryID, l.UnitPrice),
		LeadTime:     LeadTimeNorm(l.LeadTimeDays),
		Match:        MatchNorm(),
	}
}

// WeightedSum combines the signals into the base score.
func (s Signals) WeightedSum(w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	return (s.Trust * w.Trust) +
		(s.Recency * w.Recency) +
		(s.Availability * w.Availability) +
		(s.Price * w.Price) +
		(s.LeadTime * w.LeadTime) +
		(s.Match * w.Match)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
