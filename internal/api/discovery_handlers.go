package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pazarnet/discovery/internal/listing"
	"github.com/pazarnet/discovery/internal/middleware"
	"github.com/pazarnet/discovery/internal/ranking"
	"github.com/pazarnet/discovery/internal/trust"
)

// DiscoveryHandlers serves the cross-tenant network discovery feed.
type DiscoveryHandlers struct {
	engine *ranking.Engine
}

// NewDiscoveryHandlers creates discovery handlers over a ranking engine.
func NewDiscoveryHandlers(engine *ranking.Engine) *DiscoveryHandlers {
	return &DiscoveryHandlers{engine: engine}
}

// Discover handles GET /network/discovery. The viewer identity comes from
// the bearer token; filters, sort mode, cursor, and limit come from query
// parameters.
func (h *DiscoveryHandlers) Discover(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewerTenant(r.Context())
	if viewer == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Viewer identity is required")
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a non-negative integer")
			return
		}
	}

	params := ranking.Params{
		ViewerTenantID: viewer,
		Filters:        filters,
		SortMode:       ranking.SortMode(r.URL.Query().Get("sort")),
		Cursor:         r.URL.Query().Get("cursor"),
		Limit:          limit,
		RequestID:      middleware.GetRequestID(r.Context()),
	}

	result, err := h.engine.Rank(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, ranking.ErrInvalidSortMode):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidSortMode)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidSortMode, "Unknown sort mode")
		case errors.Is(err, ranking.ErrMissingViewer):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Viewer tenant ID is required")
		default:
			slog.ErrorContext(r.Context(), "discovery ranking failed", "error", err)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to rank listings")
		}
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}

// parseFilters builds listing filters from query parameters. Unknown
// parameters are ignored; malformed values fail the request.
func parseFilters(r *http.Request) (listing.Filters, error) {
	q := r.URL.Query()
	var filters listing.Filters

	if v := q.Get("category_id"); v != "" {
		filters.CategoryID = &v
	}
	if v := q.Get("brand_id"); v != "" {
		filters.BrandID = &v
	}
	if v := q.Get("price_min"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return listing.Filters{}, errors.New("price_min must be a non-negative number")
		}
		filters.PriceMin = &f
	}
	if v := q.Get("price_max"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return listing.Filters{}, errors.New("price_max must be a non-negative number")
		}
		filters.PriceMax = &f
	}
	if v := q.Get("in_stock_only"); v == "true" || v == "1" {
		filters.InStockOnly = true
	}
	if v := q.Get("lead_time_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return listing.Filters{}, errors.New("lead_time_max must be a non-negative integer")
		}
		filters.LeadTimeMax = &n
	}
	if v := q.Get("seller_tier_min"); v != "" {
		tier, err := trust.ParseTier(v)
		if err != nil {
			return listing.Filters{}, err
		}
		filters.SellerTierMin = &tier
	}

	return filters, nil
}
