package ranking

import (
	"sort"
)

// SortMode selects the comparator applied to scored candidates.
type SortMode string

// Supported sort modes. RELEVANCE is the default.
const (
	SortRelevance   SortMode = "RELEVANCE"
	SortPriceAsc    SortMode = "PRICE_ASC"
	SortPriceDesc   SortMode = "PRICE_DESC"
	SortLeadTimeAsc SortMode = "LEADTIME_ASC"
	SortTrustDesc   SortMode = "TRUST_DESC"
)

// ValidSortMode reports whether the mode is one of the supported modes.
func ValidSortMode(m SortMode) bool {
	switch m {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortLeadTimeAsc, SortTrustDesc:
		return true
	}
	return false
}

// Sort orders candidates in place. Every comparator tie-breaks by ascending
// listing ID so a fixed snapshot always produces the same order.
func Sort(candidates []Candidate, mode SortMode) {
	less := lessFunc(mode)
	sort.SliceStable(candidates, func(i, j int) bool {
		return less(&candidates[i], &candidates[j])
	})
}

func lessFunc(mode SortMode) func(a, b *Candidate) bool {
	switch mode {
	case SortPriceAsc:
		return func(a, b *Candidate) bool {
			if a.Listing.UnitPrice != b.Listing.UnitPrice {
				return a.Listing.UnitPrice < b.Listing.UnitPrice
			}
			return a.Listing.ID < b.Listing.ID
		}
	case SortPriceDesc:
		return func(a, b *Candidate) bool {
			if a.Listing.UnitPrice != b.Listing.UnitPrice {
				return a.Listing.UnitPrice > b.Listing.UnitPrice
			}
			return a.Listing.ID < b.Listing.ID
		}
	case SortLeadTimeAsc:
		return func(a, b *Candidate) bool {
			if a.Listing.LeadTimeDays != b.Listing.LeadTimeDays {
				return a.Listing.LeadTimeDays < b.Listing.LeadTimeDays
			}
			return a.Listing.ID < b.Listing.ID
		}
	case SortTrustDesc:
		return func(a, b *Candidate) bool {
			if a.Trust.Score != b.Trust.Score {
				return a.Trust.Score > b.Trust.Score
			}
			return a.Listing.ID < b.Listing.ID
		}
	default: // SortRelevance
		return func(a, b *Candidate) bool {
			if a.Breakdown.FinalScore != b.Breakdown.FinalScore {
				return a.Breakdown.FinalScore > b.Breakdown.FinalScore
			}
			return a.Listing.ID < b.Listing.ID
		}
	}
}
