package trust

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresProvider reads trust snapshots from the seller_trust_scores table
// (one upsertable row per selling tenant).
type PostgresProvider struct {
	db *sql.DB
}

// NewPostgresProvider creates a PostgresProvider backed by the given handle.
func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// GetScore returns the tracked snapshot or the neutral default when the
// tenant has no row.
func (p *PostgresProvider) GetScore(ctx context.Context, tenantID string) (Score, error) {
	const query = `
		SELECT seller_tenant_id, score, tier
		FROM seller_trust_scores
		WHERE seller_tenant_id = $1`

	var score Score
	var tier string
	err := p.db.QueryRowContext(ctx, query, tenantID).Scan(&score.TenantID, &score.Score, &tier)
	if err == sql.ErrNoRows {
		return Neutral(tenantID), nil
	}
	if err != nil {
		return Score{}, fmt.Errorf("failed to query trust score: %w", err)
	}

	parsed, err := ParseTier(tier)
	if err != nil {
		// Unknown tier in the store degrades to neutral rather than failing
		// the ranking request.
		return Neutral(tenantID), nil
	}
	score.Tier = parsed

	return score, nil
}
