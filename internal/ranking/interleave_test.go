package ranking

import (
	"fmt"
	"testing"

	"github.com/pazarnet/discovery/internal/listing"
)

func interleavePage(organic, sponsored int) []Candidate {
	var out []Candidate
	for i := 0; i < sponsored; i++ {
		out = append(out, Candidate{
			Listing:   listing.Listing{ID: fmt.Sprintf("s%02d", i+1)},
			Breakdown: Breakdown{Boosted: true},
		})
	}
	for i := 0; i < organic; i++ {
		out = append(out, Candidate{
			Listing: listing.Listing{ID: fmt.Sprintf("o%02d", i+1)},
		})
	}
	return out
}

func countSponsored(page []Candidate) int {
	n := 0
	for i := range page {
		if page[i].Breakdown.Boosted {
			n++
		}
	}
	return n
}

func TestInterleaveCapsSponsoredAtTwentyPercent(t *testing.T) {
	tests := []struct {
		name      string
		organic   int
		sponsored int
		wantCap   int
	}{
		{"full page of 20 with many sponsored", 12, 8, 4},
		{"page of 10", 7, 3, 2},
		{"page of 5", 4, 1, 1},
		{"no sponsored", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Interleave(interleavePage(tt.organic, tt.sponsored))
			if got := countSponsored(out); got > tt.wantCap {
				t.Errorf("sponsored count = %d, want <= %d", got, tt.wantCap)
			}
		})
	}
}

func TestInterleaveSponsoredOnlyAtDesignatedSlots(t *testing.T) {
	out := Interleave(interleavePage(16, 4))
	if len(out) != 20 {
		t.Fatalf("page size = %d, want 20", len(out))
	}

	for i := range out {
		if out[i].Breakdown.Boosted && i%sponsoredCadence != 0 {
			t.Errorf("sponsored item at index %d, want only indices 0, 5, 10, 15", i)
		}
	}
	if got := countSponsored(out); got != 4 {
		t.Errorf("sponsored count = %d, want 4", got)
	}
}

func TestInterleavePreservesBucketOrder(t *testing.T) {
	out := Interleave(interleavePage(16, 4))

	var sponsoredIDs, organicIDs []string
	for i := range out {
		if out[i].Breakdown.Boosted {
			sponsoredIDs = append(sponsoredIDs, out[i].Listing.ID)
		} else {
			organicIDs = append(organicIDs, out[i].Listing.ID)
		}
	}

	for i := 1; i < len(sponsoredIDs); i++ {
		if sponsoredIDs[i] < sponsoredIDs[i-1] {
			t.Errorf("sponsored order broken: %v", sponsoredIDs)
		}
	}
	for i := 1; i < len(organicIDs); i++ {
		if organicIDs[i] < organicIDs[i-1] {
			t.Errorf("organic order broken: %v", organicIDs)
		}
	}
}

func TestInterleaveAllOrganicPassesThrough(t *testing.T) {
	in := interleavePage(8, 0)
	out := Interleave(in)
	if len(out) != len(in) {
		t.Fatalf("page size = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Listing.ID != in[i].Listing.ID {
			t.Errorf("index %d = %s, want %s", i, out[i].Listing.ID, in[i].Listing.ID)
		}
	}
}

func TestInterleaveNeverPads(t *testing.T) {
	// 3 organic + 7 sponsored in a 10-slot page: cap is 2 sponsored, so the
	// output ends early at 5 items rather than padding or exceeding the cap.
	out := Interleave(interleavePage(3, 7))
	if len(out) != 5 {
		t.Fatalf("page size = %d, want 5 (3 organic + 2 sponsored)", len(out))
	}
	if got := countSponsored(out); got != 2 {
		t.Errorf("sponsored count = %d, want 2", got)
	}

	seen := make(map[string]bool)
	for i := range out {
		id := out[i].Listing.ID
		if seen[id] {
			t.Errorf("duplicate listing %s in interleaved page", id)
		}
		seen[id] = true
	}
}

func TestInterleaveEmptyPage(t *testing.T) {
	if out := Interleave(nil); len(out) != 0 {
		t.Errorf("Interleave(nil) = %d items, want 0", len(out))
	}
}
