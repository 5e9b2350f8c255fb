package ranking

import (
	"testing"

	"github.com/pazarnet/discovery/internal/listing"
	"github.com/pazarnet/discovery/internal/trust"
)

func sortCandidate(id string, price float64, leadTime int, trustScore, finalScore float64) Candidate {
	return Candidate{
		Listing: listing.Listing{
			ID:           id,
			UnitPrice:    price,
			LeadTimeDays: leadTime,
		},
		Trust:     trust.Score{Score: trustScore},
		Breakdown: Breakdown{FinalScore: finalScore},
	}
}

func ids(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i := range candidates {
		out[i] = candidates[i].Listing.ID
	}
	return out
}

func TestSortModes(t *testing.T) {
	build := func() []Candidate {
		return []Candidate{
			sortCandidate("l3", 30, 1, 90, 0.5),
			sortCandidate("l1", 10, 3, 70, 0.9),
			sortCandidate("l2", 20, 0, 80, 0.7),
		}
	}

	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortRelevance, []string{"l1", "l2", "l3"}},
		{SortPriceAsc, []string{"l1", "l2", "l3"}},
		{SortPriceDesc, []string{"l3", "l2", "l1"}},
		{SortLeadTimeAsc, []string{"l2", "l3", "l1"}},
		{SortTrustDesc, []string{"l3", "l2", "l1"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			candidates := build()
			Sort(candidates, tt.mode)
			got := ids(candidates)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Sort(%s) = %v, want %v", tt.mode, got, tt.want)
				}
			}
		})
	}
}

func TestSortTieBreaksByAscendingID(t *testing.T) {
	modes := []SortMode{SortRelevance, SortPriceAsc, SortPriceDesc, SortLeadTimeAsc, SortTrustDesc}

	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			// All ranking attributes identical; only IDs differ.
			candidates := []Candidate{
				sortCandidate("l9", 10, 1, 80, 0.5),
				sortCandidate("l1", 10, 1, 80, 0.5),
				sortCandidate("l5", 10, 1, 80, 0.5),
			}
			Sort(candidates, mode)
			got := ids(candidates)
			want := []string{"l1", "l5", "l9"}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("Sort(%s) tie order = %v, want %v", mode, got, want)
				}
			}
		})
	}
}

func TestSortDeterministic(t *testing.T) {
	build := func() []Candidate {
		return []Candidate{
			sortCandidate("l2", 20, 0, 80, 0.7),
			sortCandidate("l4", 20, 0, 80, 0.7),
			sortCandidate("l1", 10, 3, 70, 0.9),
			sortCandidate("l3", 30, 1, 90, 0.5),
		}
	}

	first := build()
	Sort(first, SortRelevance)
	for i := 0; i < 10; i++ {
		again := build()
		Sort(again, SortRelevance)
		for j := range first {
			if again[j].Listing.ID != first[j].Listing.ID {
				t.Fatalf("run %d produced different order: %v vs %v", i, ids(again), ids(first))
			}
		}
	}
}

func TestValidSortMode(t *testing.T) {
	for _, mode := range []SortMode{SortRelevance, SortPriceAsc, SortPriceDesc, SortLeadTimeAsc, SortTrustDesc} {
		if !ValidSortMode(mode) {
			t.Errorf("ValidSortMode(%s) = false", mode)
		}
	}
	if ValidSortMode("POPULARITY") {
		t.Error("ValidSortMode(POPULARITY) = true")
	}
	if ValidSortMode("relevance") {
		t.Error("sort modes must be case-sensitive")
	}
}
