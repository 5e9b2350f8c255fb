package ranking

import (
	"time"

	"github.com/pazarnet/discovery/internal/boost"
	"github.com/pazarnet/discovery/internal/listing"
	"github.com/pazarnet/discovery/internal/trust"
)

// Human-readable reason strings surfaced with ranked results.
const (
	ReasonHighlyTrusted   = "Highly Trusted Seller"
	ReasonPromoted        = "Promoted Result"
	ReasonSameDayDispatch = "Same Day Dispatch"
	ReasonNewListing      = "New listing boost"
)

// maxReasons caps how many reason strings a single result carries.
const maxReasons = 3

// DefaultColdStartWindow is how long a listing counts as new for the
// cold-start reason. No score bump is applied; recency already rewards
// young listings.
const DefaultColdStartWindow = 7 * 24 * time.Hour

// Breakdown is the explainability record attached to every scored
// candidate: each normalized sub-score, the weighted base, the boost that
// was applied, and the resulting final score.
type Breakdown struct {
	Signals         Signals  `json:"signals"`
	BaseScore       float64  `json:"base_score"`
	Boosted         bool     `json:"boosted"`
	BoostMultiplier float64  `json:"boost_multiplier"`
	FinalScore      float64  `json:"final_score"`
	TrustTier       string   `json:"trust_tier"`
	TrustScore      float64  `json:"trust_score"`
	Reasons         []string `json:"reasons,omitempty"`
}

// Candidate pairs a listing with its trust snapshot and score breakdown as
// it moves through the pipeline.
type Candidate struct {
	Listing   listing.Listing
	Trust     trust.Score
	Breakdown Breakdown
}

// Scorer computes breakdowns for one request's candidate set. It is built
// per request so every candidate is scored against the same weights, boost
// snapshot, price distribution, and clock reading.
type Scorer struct {
	weights         *Weights
	resolver        *boost.Resolver
	prices          *PriceIndex
	now             time.Time
	coldStartWindow time.Duration
}

// NewScorer builds a request-scoped scorer. A zero coldStartWindow selects
// the default window.
func NewScorer(weights *Weights, resolver *boost.Resolver, prices *PriceIndex, now time.Time, coldStartWindow time.Duration) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	if coldStartWindow <= 0 {
		coldStartWindow = DefaultColdStartWindow
	}
	return &Scorer{
		weights:         weights,
		resolver:        resolver,
		prices:          prices,
		now:             now,
		coldStartWindow: coldStartWindow,
	}
}

// Score computes the full breakdown for one candidate.
func (s *Scorer) Score(l *listing.Listing, ts trust.Score) Breakdown {
	signals := ComputeSignals(l, ts, s.prices, s.now)
	base := signals.WeightedSum(s.weights)

	decision := boost.Decision{Sponsored: false, Multiplier: 1.0}
	if s.resolver != nil {
		decision = s.resolver.Resolve(l.ID, l.SellerID, l.CategoryID, ts.Tier)
	}

	b := Breakdown{
		Signals:         signals,
		BaseScore:       base,
		Boosted:         decision.Sponsored,
		BoostMultiplier: decision.Multiplier,
		FinalScore:      base * decision.Multiplier,
		TrustTier:       string(ts.Tier),
		TrustScore:      ts.Score,
	}
	b.Reasons = s.reasons(l, ts, &b)
	return b
}

// reasons assembles up to maxReasons prioritized explanation strings.
// Priority: trust, promotion, dispatch speed, then cold start.
func (s *Scorer) reasons(l *listing.Listing, ts trust.Score, b *Breakdown) []string {
	var reasons []string
	if ts.Tier == trust.TierA {
		reasons = append(reasons, ReasonHighlyTrusted)
	}
	if b.Boosted {
		reasons = append(reasons, ReasonPromoted)
	}
	if l.LeadTimeDays == 0 {
		reasons = append(reasons, ReasonSameDayDispatch)
	}
	if s.now.Sub(l.CreatedAt) < s.coldStartWindow && !l.CreatedAt.After(s.now) {
		reasons = append(reasons, ReasonNewListing)
	}
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}
