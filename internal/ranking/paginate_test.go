package ranking

import (
	"fmt"
	"testing"

	"github.com/pazarnet/discovery/internal/listing"
)

func pageCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{Listing: listing.Listing{ID: fmt.Sprintf("l%03d", i+1)}}
	}
	return out
}

func TestPaginateFirstPage(t *testing.T) {
	page := Paginate(pageCandidates(25), "", 10)

	if len(page.Items) != 10 {
		t.Fatalf("page size = %d, want 10", len(page.Items))
	}
	if page.StartIndex != 0 {
		t.Errorf("StartIndex = %d, want 0", page.StartIndex)
	}
	if page.Items[0].Listing.ID != "l001" {
		t.Errorf("first item = %s, want l001", page.Items[0].Listing.ID)
	}
	if page.NextCursor != "l010" {
		t.Errorf("NextCursor = %s, want l010", page.NextCursor)
	}
}

func TestPaginateResumesAfterCursor(t *testing.T) {
	sorted := pageCandidates(25)

	page := Paginate(sorted, "l010", 10)
	if page.StartIndex != 10 {
		t.Errorf("StartIndex = %d, want 10", page.StartIndex)
	}
	if page.Items[0].Listing.ID != "l011" {
		t.Errorf("first item = %s, want l011", page.Items[0].Listing.ID)
	}
	if page.NextCursor != "l020" {
		t.Errorf("NextCursor = %s, want l020", page.NextCursor)
	}

	// Final partial page: no next cursor.
	last := Paginate(sorted, "l020", 10)
	if len(last.Items) != 5 {
		t.Fatalf("last page size = %d, want 5", len(last.Items))
	}
	if last.NextCursor != "" {
		t.Errorf("NextCursor = %s, want empty on final page", last.NextCursor)
	}
}

func TestPaginateExactBoundaryOmitsCursor(t *testing.T) {
	// Page fills exactly to the end: full page but nothing remains.
	page := Paginate(pageCandidates(20), "l010", 10)
	if len(page.Items) != 10 {
		t.Fatalf("page size = %d, want 10", len(page.Items))
	}
	if page.NextCursor != "" {
		t.Errorf("NextCursor = %s, want empty when no candidates remain", page.NextCursor)
	}
}

func TestPaginateStaleCursorRestarts(t *testing.T) {
	// A cursor no longer present in the sorted set restarts from the top
	// instead of erroring; the snapshot simply changed between requests.
	page := Paginate(pageCandidates(15), "expired-listing", 10)

	if page.StartIndex != 0 {
		t.Errorf("StartIndex = %d, want 0 for stale cursor", page.StartIndex)
	}
	if page.Items[0].Listing.ID != "l001" {
		t.Errorf("first item = %s, want l001", page.Items[0].Listing.ID)
	}
}

func TestPaginateCursorAtEnd(t *testing.T) {
	page := Paginate(pageCandidates(10), "l010", 10)
	if len(page.Items) != 0 {
		t.Errorf("page size = %d, want 0 past the end", len(page.Items))
	}
	if page.NextCursor != "" {
		t.Errorf("NextCursor = %s, want empty", page.NextCursor)
	}
}

func TestPaginateEmptySet(t *testing.T) {
	page := Paginate(nil, "", 10)
	if len(page.Items) != 0 || page.NextCursor != "" {
		t.Errorf("Paginate(empty) = %+v, want empty page", page)
	}
}

func TestPaginatePositionsContinuousAcrossPages(t *testing.T) {
	sorted := pageCandidates(30)

	first := Paginate(sorted, "", 10)
	second := Paginate(sorted, first.NextCursor, 10)

	// 1-indexed positions: first page 1..10, second page 11..20.
	if got := first.StartIndex + 1; got != 1 {
		t.Errorf("first page starting position = %d, want 1", got)
	}
	if got := second.StartIndex + 1; got != 11 {
		t.Errorf("second page starting position = %d, want 11", got)
	}
}
