// Package impression records what discovery showed to whom: per-listing
// impressions with their full scoring snapshot, and per-request logs with
// latency and query metadata. All writes are append-only and best-effort;
// nothing in this package may fail or block a ranking response.
package impression

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Impression is one "viewer saw this listing at this position" record.
type Impression struct {
	ID             string    `json:"id"`
	ViewerTenantID string    `json:"viewer_tenant_id"`
	ListingID      string    `json:"listing_id"`
	RequestID      string    `json:"request_id"`
	Position       int       `json:"position"` // 1-indexed, continuous across pages
	FinalScore     float64   `json:"final_score"`
	Snapshot       []byte    `json:"-"` // CBOR-encoded scoring breakdown
	CreatedAt      time.Time `json:"created_at"`
}

// TopResult is one entry of the compact result snapshot stored on a
// request log.
type TopResult struct {
	ListingID  string  `json:"listing_id"`
	Position   int     `json:"position"`
	FinalScore float64 `json:"final_score"`
	Sponsored  bool    `json:"sponsored"`
}

// RequestLog is one row per ranking invocation.
type RequestLog struct {
	ID             string      `json:"id"`
	RequestID      string      `json:"request_id"`
	ViewerTenantID string      `json:"viewer_tenant_id"`
	QueryHash      string      `json:"query_hash"`
	WeightsVersion string      `json:"weights_version"`
	Filters        []byte      `json:"-"` // JSON snapshot of the effective filters
	SortMode       string      `json:"sort_mode"`
	Limit          int         `json:"limit"`
	LatencyTotalMs int64       `json:"latency_total_ms"`
	LatencyDBMs    int64       `json:"latency_db_ms"`
	LatencyCPUMs   int64       `json:"latency_cpu_ms"`
	ResultCount    int         `json:"result_count"`
	TopResults     []TopResult `json:"top_results,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// MaxTopResults bounds the compact snapshot stored per request log.
const MaxTopResults = 10

// HashQuery produces the stable hex digest used to correlate identical
// queries across request logs. The input is the canonical JSON of the
// effective (post-clamp) parameters.
func HashQuery(params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
