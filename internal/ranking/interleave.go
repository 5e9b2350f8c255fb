package ranking

// sponsoredCadence places one designated sponsored slot every five page
// positions (indices 0, 5, 10, ...).
const sponsoredCadence = 5

// Interleave rebuilds a page so sponsored results never exceed 20% of it and
// appear only at the fixed cadence. Both buckets keep their upstream sort
// order. At a designated slot the next sponsored candidate is emitted while
// under the cap; at every other slot organics go first, with sponsored used
// as filler only once organics run out and the cap still has room. The page
// is never padded: when both pools exhaust the output simply ends.
//
// The cap rounds up per started run of five positions, so short pages can
// exceed a strict 20%: a three-item page may carry one sponsored result.
func Interleave(page []Candidate) []Candidate {
	if len(page) == 0 {
		return page
	}

	var sponsored, organic []Candidate
	for i := range page {
		if page[i].Breakdown.Boosted {
			sponsored = append(sponsored, page[i])
		} else {
			organic = append(organic, page[i])
		}
	}
	if len(sponsored) == 0 {
		return page
	}

	// The cap equals the number of designated slots in the page: one per
	// started run of five positions, i.e. 20% on a full page.
	maxSponsored := (len(page) + sponsoredCadence - 1) / sponsoredCadence
	out := make([]Candidate, 0, len(page))
	sponsoredUsed := 0
	si, oi := 0, 0

	for len(out) < len(page) {
		atSlot := len(out)%sponsoredCadence == 0
		canSponsor := sponsoredUsed < maxSponsored && si < len(sponsored)

		switch {
		case atSlot && canSponsor:
			out = append(out, sponsored[si])
			si++
			sponsoredUsed++
		case oi < len(organic):
			out = append(out, organic[oi])
			oi++
		case canSponsor:
			out = append(out, sponsored[si])
			si++
			sponsoredUsed++
		default:
			// Remaining candidates are sponsored beyond the cap.
			return out
		}
	}
	return out
}
