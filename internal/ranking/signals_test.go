package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/pazarnet/discovery/internal/listing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrustNorm(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{0, 0},
		{60, 0.6},
		{100, 1.0},
		{150, 1.0}, // clamped
		{-10, 0},   // clamped
	}
	for _, tt := range tests {
		if got := TrustNorm(tt.score); !almostEqual(got, tt.want) {
			t.Errorf("TrustNorm(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestRecencyNorm(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		ageDays int
		want    float64
	}{
		{"brand new", 0, 1.0},
		{"half a year", 182, 1.0 - 182.0/365.0},
		{"exactly a year", 365, 0.0},
		{"older than a year", 400, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			createdAt := now.AddDate(0, 0, -tt.ageDays)
			if got := RecencyNorm(createdAt, now); !almostEqual(got, tt.want) {
				t.Errorf("RecencyNorm(%d days) = %v, want %v", tt.ageDays, got, tt.want)
			}
		})
	}

	// A clock-skewed future timestamp counts as brand new, not negative age.
	if got := RecencyNorm(now.Add(time.Hour), now); got != 1.0 {
		t.Errorf("RecencyNorm(future) = %v, want 1.0", got)
	}
}

func TestAvailabilityNorm(t *testing.T) {
	tests := []struct {
		qty  int
		want float64
	}{
		{0, 0},      // out of stock scores exactly zero
		{-3, 0},
		{1, 0},      // log10(1) = 0
		{10, 0.25},
		{100, 0.5},
		{10000, 1.0},
		{500000, 1.0}, // saturates
	}
	for _, tt := range tests {
		if got := AvailabilityNorm(tt.qty); !almostEqual(got, tt.want) {
			t.Errorf("AvailabilityNorm(%d) = %v, want %v", tt.qty, got, tt.want)
		}
	}
}

func TestLeadTimeNorm(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{0, 1.0},
		{1, 0.5},
		{3, 0.25},
		{-2, 1.0}, // clamped
	}
	for _, tt := range tests {
		if got := LeadTimeNorm(tt.days); !almostEqual(got, tt.want) {
			t.Errorf("LeadTimeNorm(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func categoryListing(id string, price float64) listing.Listing {
	return listing.Listing{
		ID:         id,
		CategoryID: "cat-1",
		UnitPrice:  price,
	}
}

func TestPriceNorm(t *testing.T) {
	idx := NewPriceIndex([]listing.Listing{
		categoryListing("l1", 10),
		categoryListing("l2", 20),
		categoryListing("l3", 30),
		categoryListing("l4", 40),
		categoryListing("l5", 50),
	})

	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"cheapest scores highest", 10, 1.0},
		{"median scores neutral", 30, 0.5},
		{"most expensive scores lowest", 50, 0.0},
		{"second cheapest", 20, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.PriceNorm("cat-1", tt.price); !almostEqual(got, tt.want) {
				t.Errorf("PriceNorm(%v) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestPriceNormTiesScoreEqually(t *testing.T) {
	idx := NewPriceIndex([]listing.Listing{
		categoryListing("l1", 10),
		categoryListing("l2", 20),
		categoryListing("l3", 20),
		categoryListing("l4", 30),
	})

	a := idx.PriceNorm("cat-1", 20)
	b := idx.PriceNorm("cat-1", 20)
	if a != b {
		t.Errorf("equal prices scored differently: %v vs %v", a, b)
	}
	if a <= idx.PriceNorm("cat-1", 30) || a >= idx.PriceNorm("cat-1", 10) {
		t.Errorf("tied price %v not between extremes", a)
	}
}

func TestPriceNormThinCategoryFallsBackToNeutral(t *testing.T) {
	idx := NewPriceIndex([]listing.Listing{
		categoryListing("l1", 99),
	})

	if got := idx.PriceNorm("cat-1", 99); got != 0.5 {
		t.Errorf("PriceNorm(thin category) = %v, want 0.5", got)
	}
	if got := idx.PriceNorm("cat-unknown", 10); got != 0.5 {
		t.Errorf("PriceNorm(unknown category) = %v, want 0.5", got)
	}
	if got := idx.PriceNorm("cat-1", 0); got != 0.5 {
		t.Errorf("PriceNorm(unpriced) = %v, want 0.5", got)
	}
}

func TestWeightedSumBounded(t *testing.T) {
	best := Signals{Trust: 1, Recency: 1, Availability: 1, Price: 1, LeadTime: 1, Match: 1}
	worst := Signals{}

	if got := best.WeightedSum(DefaultWeights()); !almostEqual(got, 1.0) {
		t.Errorf("WeightedSum(all ones) = %v, want 1.0", got)
	}
	if got := worst.WeightedSum(DefaultWeights()); got != 0 {
		t.Errorf("WeightedSum(all zeros) = %v, want 0", got)
	}
	if got := best.WeightedSum(nil); !almostEqual(got, 1.0) {
		t.Errorf("WeightedSum(nil weights) = %v, want 1.0", got)
	}
}
