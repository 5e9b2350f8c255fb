// Package listing provides models and repositories for cross-tenant network
// listings consumed by the discovery ranking pipeline. Listings are created
// and mutated by the sellers' catalog flows; discovery only reads them.
package listing

import (
	"time"

	"github.com/pazarnet/discovery/internal/trust"
)

// Visibility values for a listing.
const (
	VisibilityNetwork = "NETWORK"
	VisibilityPrivate = "PRIVATE"
)

// Status values for a listing. Only ACTIVE listings are discoverable.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// DefaultFetchCap bounds how many candidates a single discovery request may
// pull into memory for scoring. This is a safety valve against unranked full
// scans, not a business limit; stores that pre-filter aggressively may raise
// it via Repository configuration.
const DefaultFetchCap = 500

// Listing is a seller's offer of a global catalog product on the network.
type Listing struct {
	ID              string    `json:"id"`
	GlobalProductID string    `json:"global_product_id"`
	SellerID        string    `json:"seller_id"` // selling tenant
	Title           string    `json:"title"`
	CategoryID      string    `json:"category_id"`
	BrandID         string    `json:"brand_id,omitempty"`
	UnitPrice       float64   `json:"unit_price"`
	Currency        string    `json:"currency"`
	AvailableQty    int       `json:"available_qty"`
	MinOrderQty     int       `json:"min_order_qty"`
	LeadTimeDays    int       `json:"lead_time_days"`
	Visibility      string    `json:"visibility"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Eligible reports whether the listing may appear in discovery at all.
// The invariant holds regardless of filters: only NETWORK + ACTIVE.
func (l *Listing) Eligible() bool {
	return l.Visibility == VisibilityNetwork && l.Status == StatusActive
}

// Filters narrows a discovery fetch. All fields are optional; nil means
// "no constraint". SellerTierMin is applied after fetch, in the engine,
// because tier lives on the trust snapshot, not the listing row.
type Filters struct {
	CategoryID    *string
	BrandID       *string
	PriceMin      *float64
	PriceMax      *float64
	InStockOnly   bool
	LeadTimeMax   *int
	SellerTierMin *trust.Tier
}

// Narrowing reports whether at least one fetch-narrowing constraint is set.
// The engine clamps unfiltered requests to a conservative page limit.
// SellerTierMin alone does not count: it is a post-fetch filter and does not
// reduce the repository scan.
func (f Filters) Narrowing() bool {
	return f.CategoryID != nil ||
		f.BrandID != nil ||
		f.PriceMin != nil ||
		f.PriceMax != nil ||
		f.InStockOnly ||
		f.LeadTimeMax != nil
}

// Match reports whether a listing satisfies the fetch-level filters.
// Eligibility (NETWORK + ACTIVE) is checked separately and always.
func (f Filters) Match(l *Listing) bool {
	if f.CategoryID != nil && l.CategoryID != *f.CategoryID {
		return false
	}
	if f.BrandID != nil && l.BrandID != *f.BrandID {
		return false
	}
	if f.PriceMin != nil && l.UnitPrice < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && l.UnitPrice > *f.PriceMax {
		return false
	}
	if f.InStockOnly && l.AvailableQty <= 0 {
		return false
	}
	if f.LeadTimeMax != nil && l.LeadTimeDays > *f.LeadTimeMax {
		return false
	}
	return true
}
