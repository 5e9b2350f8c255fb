package ranking

// Page is a cursor-delimited window over the sorted candidate list.
type Page struct {
	// Items is the window itself, at most limit entries.
	Items []Candidate

	// StartIndex is the zero-based offset of the first item within the full
	// sorted list. Impression positions are StartIndex + i + 1.
	StartIndex int

	// NextCursor is the ID of the last item when more candidates remain
	// beyond this page, empty otherwise.
	NextCursor string
}

// Paginate slices the sorted candidates after the cursor position. The
// cursor is the last listing ID of the previous page; an unknown or stale
// cursor restarts from the beginning rather than erroring, since the
// snapshot may have changed between requests.
func Paginate(sorted []Candidate, cursor string, limit int) Page {
	startIndex := 0
	if cursor != "" {
		for i := range sorted {
			if sorted[i].Listing.ID == cursor {
				startIndex = i + 1
				break
			}
		}
	}

	if startIndex >= len(sorted) {
		return Page{Items: nil, StartIndex: startIndex}
	}

	end := startIndex + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	page := Page{
		Items:      sorted[startIndex:end],
		StartIndex: startIndex,
	}

	// A next cursor is only meaningful when this page filled up and
	// candidates remain beyond it.
	if len(page.Items) == limit && end < len(sorted) {
		page.NextCursor = page.Items[len(page.Items)-1].Listing.ID
	}

	return page
}
