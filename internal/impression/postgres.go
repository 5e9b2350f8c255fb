package impression

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pazarnet/discovery/internal/tracing"
)

// PostgresRepository persists impressions and request logs in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgresRepository backed by the given
// handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// AppendImpressions inserts a batch of impressions with pq.CopyIn, which is
// substantially cheaper than per-row INSERTs for the page-sized batches the
// recorder produces.
func (r *PostgresRepository) AppendImpressions(ctx context.Context, impressions []Impression) error {
	if len(impressions) == 0 {
		return nil
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "discovery_impressions", tracing.DBOperationInsert)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to begin impression transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("discovery_impressions",
		"id", "viewer_tenant_id", "listing_id", "request_id",
		"position", "final_score", "snapshot", "created_at"))
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to prepare impression copy: %w", err)
	}

	for _, imp := range impressions {
		if _, err := stmt.ExecContext(ctx,
			imp.ID, imp.ViewerTenantID, imp.ListingID, imp.RequestID,
			imp.Position, imp.FinalScore, imp.Snapshot, imp.CreatedAt,
		); err != nil {
			_ = stmt.Close()
			endSpan(err)
			return fmt.Errorf("failed to copy impression row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		endSpan(err)
		return fmt.Errorf("failed to flush impression copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to close impression copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to commit impressions: %w", err)
	}

	endSpan(nil)
	return nil
}

// AppendRequestLog inserts one request log row.
func (r *PostgresRepository) AppendRequestLog(ctx context.Context, log RequestLog) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "discovery_request_logs", tracing.DBOperationInsert)

	topResults, err := json.Marshal(log.TopResults)
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to encode top results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO discovery_request_logs
			(id, request_id, viewer_tenant_id, query_hash, weights_version,
			 filters, sort_mode, result_limit, latency_total_ms, latency_db_ms,
			 latency_cpu_ms, result_count, top_results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		log.ID, log.RequestID, log.ViewerTenantID, log.QueryHash, log.WeightsVersion,
		log.Filters, log.SortMode, log.Limit, log.LatencyTotalMs, log.LatencyDBMs,
		log.LatencyCPUMs, log.ResultCount, topResults, log.CreatedAt,
	)
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to insert request log: %w", err)
	}

	endSpan(nil)
	return nil
}

// ImpressionsSince returns impressions created at or after the cutoff,
// oldest first. Used by the archive exporter.
func (r *PostgresRepository) ImpressionsSince(ctx context.Context, cutoff time.Time) ([]Impression, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "discovery_impressions", tracing.DBOperationQuery)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, viewer_tenant_id, listing_id, request_id,
		       position, final_score, snapshot, created_at
		FROM discovery_impressions
		WHERE created_at >= $1
		ORDER BY created_at`, cutoff)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to query impressions: %w", err)
	}
	defer rows.Close()

	var out []Impression
	for rows.Next() {
		var imp Impression
		if err := rows.Scan(&imp.ID, &imp.ViewerTenantID, &imp.ListingID, &imp.RequestID,
			&imp.Position, &imp.FinalScore, &imp.Snapshot, &imp.CreatedAt); err != nil {
			endSpan(err)
			return nil, fmt.Errorf("failed to scan impression: %w", err)
		}
		out = append(out, imp)
	}

	if err := rows.Err(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to iterate impressions: %w", err)
	}

	endSpan(nil)
	return out, nil
}
