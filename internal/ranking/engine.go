package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pazarnet/discovery/internal/boost"
	"github.com/pazarnet/discovery/internal/impression"
	"github.com/pazarnet/discovery/internal/listing"
	"github.com/pazarnet/discovery/internal/tracing"
	"github.com/pazarnet/discovery/internal/trust"
)

// Result limits per page. An unfiltered request
// may not pull more than DefaultLimit results per page regardless of what
// it asked for; filtered requests are capped at MaxLimit.
const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// Engine-level validation errors.
var (
	ErrMissingViewer   = errors.New("viewer tenant ID is required")
	ErrInvalidSortMode = errors.New("invalid sort mode")
)

// Params is one ranking request.
type Params struct {
	ViewerTenantID string          `json:"viewer_tenant_id"`
	Filters        listing.Filters `json:"-"`
	SortMode       SortMode        `json:"sort_mode"`
	Cursor         string          `json:"cursor,omitempty"`
	Limit          int             `json:"limit"`
	RequestID      string          `json:"request_id,omitempty"`
}

// ResultItem is the public shape of one ranked listing. Only catalog-facing
// fields are exposed; seller internals and viewer identity never leave the
// engine.
type ResultItem struct {
	ListingID       string    `json:"listing_id"`
	GlobalProductID string    `json:"global_product_id"`
	Title           string    `json:"title"`
	CategoryID      string    `json:"category_id"`
	BrandID         string    `json:"brand_id,omitempty"`
	UnitPrice       float64   `json:"unit_price"`
	Currency        string    `json:"currency"`
	AvailableQty    int       `json:"available_qty"`
	MinOrderQty     int       `json:"min_order_qty"`
	LeadTimeDays    int       `json:"lead_time_days"`
	SellerTier      string    `json:"seller_tier"`
	IsSponsored     bool      `json:"is_sponsored"`
	ScoreBreakdown  Breakdown `json:"score_breakdown"`
}

// Result is one ranked page.
type Result struct {
	Results    []ResultItem `json:"results"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// Options tunes an Engine beyond its collaborators.
type Options struct {
	Weights         *Weights             // nil selects DefaultWeights
	WeightsVersion  string               // empty selects DefaultWeightsVersion
	ColdStartWindow time.Duration        // zero selects DefaultColdStartWindow
	Metrics         *Metrics             // nil disables engine metrics
	Recorder        *impression.Recorder // nil disables impression logging
	Clock           func() time.Time     // nil selects time.Now; tests inject a fixed clock
}

// Engine orchestrates one ranking request end to end: fetch, trust join,
// boost resolution, scoring, sort, pagination, interleave, and
// fire-and-forget observability. It holds no per-request state, so a single
// Engine serves concurrent requests without locking.
type Engine struct {
	listings listing.Repository
	trust    trust.Provider
	boosts   boost.Store

	weights         *Weights
	weightsVersion  string
	coldStartWindow time.Duration
	metrics         *Metrics
	recorder        *impression.Recorder
	clock           func() time.Time
}

// NewEngine wires an engine from its collaborators.
func NewEngine(listings listing.Repository, trustProvider trust.Provider, boosts boost.Store, opts Options) *Engine {
	if opts.Weights == nil {
		opts.Weights = DefaultWeights()
	}
	if opts.WeightsVersion == "" {
		opts.WeightsVersion = DefaultWeightsVersion
	}
	if opts.ColdStartWindow <= 0 {
		opts.ColdStartWindow = DefaultColdStartWindow
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		listings:        listings,
		trust:           trustProvider,
		boosts:          boosts,
		weights:         opts.Weights,
		weightsVersion:  opts.WeightsVersion,
		coldStartWindow: opts.ColdStartWindow,
		metrics:         opts.Metrics,
		recorder:        opts.Recorder,
		clock:           opts.Clock,
	}
}

// Rank executes the full pipeline for one request. For a fixed data
// snapshot and fixed params the output is fully deterministic.
func (e *Engine) Rank(ctx context.Context, params Params) (*Result, error) {
	start := e.clock()

	if params.ViewerTenantID == "" {
		return nil, ErrMissingViewer
	}
	if params.SortMode == "" {
		params.SortMode = SortRelevance
	}
	if !ValidSortMode(params.SortMode) {
		return nil, ErrInvalidSortMode
	}
	params.Limit = clampLimit(params.Limit, params.Filters.Narrowing())
	if params.RequestID == "" {
		params.RequestID = uuid.New().String()
	}

	ctx, endSpan := tracing.StartSpan(ctx, "ranking.Rank")
	var rankErr error
	defer func() { endSpan(rankErr) }()

	// I/O phase: candidates, trust snapshots, boost rules.
	dbStart := e.clock()
	candidates, err := e.listings.FindEligible(ctx, params.Filters)
	if err != nil {
		rankErr = fmt.Errorf("failed to fetch candidates: %w", err)
		return nil, rankErr
	}

	now := e.clock()
	scores := e.trustScores(ctx, candidates)

	var resolver *boost.Resolver
	if e.boosts != nil {
		rules, err := e.boosts.FetchActive(ctx, now)
		if err != nil {
			// Boost store outages degrade to organic-only ranking.
			slog.WarnContext(ctx, "failed to fetch boost rules, ranking organically",
				"error", err)
			rules = nil
		}
		resolver = boost.NewResolver(rules)
	}
	dbMs := e.clock().Sub(dbStart).Milliseconds()

	// Compute phase: pure and deterministic from here on.
	computeStart := e.clock()
	scored := e.score(candidates, scores, resolver, params.Filters.SellerTierMin, now)
	Sort(scored, params.SortMode)
	page := Paginate(scored, params.Cursor, params.Limit)
	window := page.Items
	items := Interleave(window)

	// When the window holds more sponsored candidates than the cap allows,
	// Interleave drops the surplus. Shrink the window to the contiguous
	// prefix that survives intact and resume just after it, so the dropped
	// candidates lead the next page instead of being skipped for good.
	for len(items) < len(window) {
		emitted := make(map[string]bool, len(items))
		for i := range items {
			emitted[items[i].Listing.ID] = true
		}
		cut := 0
		for cut < len(window) && emitted[window[cut].Listing.ID] {
			cut++
		}
		window = window[:cut]
		items = Interleave(window)
	}
	nextCursor := page.NextCursor
	if len(window) > 0 && len(window) < len(page.Items) {
		nextCursor = window[len(window)-1].Listing.ID
	}

	result := &Result{
		Results:    make([]ResultItem, 0, len(items)),
		NextCursor: nextCursor,
	}
	sponsored := 0
	for i := range items {
		if items[i].Breakdown.Boosted {
			sponsored++
		}
		result.Results = append(result.Results, toResultItem(&items[i]))
	}
	computeMs := e.clock().Sub(computeStart).Milliseconds()
	totalMs := e.clock().Sub(start).Milliseconds()

	e.metrics.RecordRequest(string(params.SortMode), len(candidates), len(result.Results), sponsored, e.clock().Sub(start))
	e.logObservability(params, items, page.StartIndex, now, latency{totalMs, dbMs, computeMs})

	return result, nil
}

// clampLimit bounds the page size, tighter when no filter narrows the scan.
func clampLimit(limit int, narrowed bool) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ceiling := DefaultLimit
	if narrowed {
		ceiling = MaxLimit
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}

// trustScores joins each distinct seller to its trust snapshot. Provider
// errors degrade to the neutral default so a trust outage cannot take
// discovery down.
func (e *Engine) trustScores(ctx context.Context, candidates []listing.Listing) map[string]trust.Score {
	scores := make(map[string]trust.Score)
	for i := range candidates {
		sellerID := candidates[i].SellerID
		if _, ok := scores[sellerID]; ok {
			continue
		}
		score, err := e.trust.GetScore(ctx, sellerID)
		if err != nil {
			slog.WarnContext(ctx, "trust lookup failed, using neutral default",
				"seller_id", sellerID,
				"error", err)
			score = trust.Neutral(sellerID)
		}
		scores[sellerID] = score
	}
	return scores
}

// score applies the tier filter and computes breakdowns for the survivors.
// The price index is built over the post-filter set so competitiveness is
// relative to listings the viewer can actually see.
func (e *Engine) score(candidates []listing.Listing, scores map[string]trust.Score, resolver *boost.Resolver, minTier *trust.Tier, now time.Time) []Candidate {
	eligible := make([]listing.Listing, 0, len(candidates))
	for i := range candidates {
		ts := scores[candidates[i].SellerID]
		if minTier != nil && !ts.Tier.AtLeast(*minTier) {
			continue
		}
		eligible = append(eligible, candidates[i])
	}

	prices := NewPriceIndex(eligible)
	scorer := NewScorer(e.weights, resolver, prices, now, e.coldStartWindow)

	scored := make([]Candidate, 0, len(eligible))
	for i := range eligible {
		ts := scores[eligible[i].SellerID]
		scored = append(scored, Candidate{
			Listing:   eligible[i],
			Trust:     ts,
			Breakdown: scorer.Score(&eligible[i], ts),
		})
	}
	return scored
}

type latency struct {
	totalMs, dbMs, computeMs int64
}

// logObservability fires the impression batch and request log. Both are
// best-effort; the recorder never blocks and failures never surface here.
func (e *Engine) logObservability(params Params, items []Candidate, startIndex int, now time.Time, lat latency) {
	if e.recorder == nil {
		return
	}

	impressions := make([]impression.Impression, 0, len(items))
	topResults := make([]impression.TopResult, 0, min(len(items), impression.MaxTopResults))
	for i := range items {
		position := startIndex + i + 1
		snapshot, err := impression.EncodeSnapshot(items[i].Breakdown)
		if err != nil {
			snapshot = nil
		}
		impressions = append(impressions, impression.Impression{
			ID:             uuid.New().String(),
			ViewerTenantID: params.ViewerTenantID,
			ListingID:      items[i].Listing.ID,
			RequestID:      params.RequestID,
			Position:       position,
			FinalScore:     items[i].Breakdown.FinalScore,
			Snapshot:       snapshot,
			CreatedAt:      now,
		})
		if len(topResults) < impression.MaxTopResults {
			topResults = append(topResults, impression.TopResult{
				ListingID:  items[i].Listing.ID,
				Position:   position,
				FinalScore: items[i].Breakdown.FinalScore,
				Sponsored:  items[i].Breakdown.Boosted,
			})
		}
	}
	e.recorder.RecordImpressions(impressions)

	filtersJSON, _ := json.Marshal(params.Filters)
	queryHash := impression.HashQuery(struct {
		Viewer  string          `json:"viewer"`
		Filters json.RawMessage `json:"filters"`
		Sort    string          `json:"sort"`
		Limit   int             `json:"limit"`
		Cursor  string          `json:"cursor"`
	}{params.ViewerTenantID, filtersJSON, string(params.SortMode), params.Limit, params.Cursor})

	e.recorder.RecordRequestLog(impression.RequestLog{
		ID:             uuid.New().String(),
		RequestID:      params.RequestID,
		ViewerTenantID: params.ViewerTenantID,
		QueryHash:      queryHash,
		WeightsVersion: e.weightsVersion,
		Filters:        filtersJSON,
		SortMode:       string(params.SortMode),
		Limit:          params.Limit,
		LatencyTotalMs: lat.totalMs,
		LatencyDBMs:    lat.dbMs,
		LatencyCPUMs:   lat.computeMs,
		ResultCount:    len(items),
		TopResults:     topResults,
		CreatedAt:      now,
	})
}

func toResultItem(c *Candidate) ResultItem {
	return ResultItem{
		ListingID:       c.Listing.ID,
		GlobalProductID: c.Listing.GlobalProductID,
		Title:           c.Listing.Title,
		CategoryID:      c.Listing.CategoryID,
		BrandID:         c.Listing.BrandID,
		UnitPrice:       c.Listing.UnitPrice,
		Currency:        c.Listing.Currency,
		AvailableQty:    c.Listing.AvailableQty,
		MinOrderQty:     c.Listing.MinOrderQty,
		LeadTimeDays:    c.Listing.LeadTimeDays,
		SellerTier:      c.Breakdown.TrustTier,
		IsSponsored:     c.Breakdown.Boosted,
		ScoreBreakdown:  c.Breakdown,
	}
}
