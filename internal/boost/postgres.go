package boost

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pazarnet/discovery/internal/audit"
	"github.com/pazarnet/discovery/internal/tracing"
)

// TxAuditor appends audit entries inside an existing transaction, so a rule
// mutation and its audit row commit or roll back together.
type TxAuditor interface {
	AppendTx(ctx context.Context, tx *sql.Tx, record audit.Record) (*audit.Entry, error)
}

// PostgresStore implements Store against the boost_rules table.
// Every mutation and its audit entry share one transaction.
type PostgresStore struct {
	db      *sql.DB
	auditor TxAuditor
}

// NewPostgresStore creates a PostgresStore backed by the given handle.
func NewPostgresStore(db *sql.DB, auditor TxAuditor) *PostgresStore {
	return &PostgresStore{db: db, auditor: auditor}
}

// Create validates and persists a new rule.
func (s *PostgresStore) Create(ctx context.Context, params CreateParams) (*Rule, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "boost_rules", tracing.DBOperationInsert)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to begin boost transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Overlap check and insert run in one transaction so concurrent creates
	// for the same target serialize on the row locks. FOR UPDATE does not
	// combine with aggregates, so matching rows are fetched and counted here.
	rows, err := tx.QueryContext(ctx, `
		SELECT id
		FROM boost_rules
		WHERE scope = $1 AND target_id = $2 AND is_active
		  AND starts_at <= $4 AND $3 <= ends_at
		FOR UPDATE`,
		string(params.Scope), params.TargetID, params.StartsAt, params.EndsAt,
	)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to check rule overlap: %w", err)
	}
	overlapping := false
	for rows.Next() {
		overlapping = true
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to check rule overlap: %w", err)
	}
	if overlapping {
		endSpan(ErrOverlappingRule)
		return nil, ErrOverlappingRule
	}

	rule := &Rule{
		ID:                uuid.New().String(),
		Scope:             params.Scope,
		TargetID:          params.TargetID,
		Multiplier:        params.Multiplier,
		StartsAt:          params.StartsAt,
		EndsAt:            params.EndsAt,
		IsActive:          true,
		CreatedByTenantID: params.CreatedByTenantID,
		CreatedAt:         time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO boost_rules
			(id, scope, target_id, multiplier, starts_at, ends_at, is_active, created_by_tenant_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rule.ID, string(rule.Scope), rule.TargetID, rule.Multiplier,
		rule.StartsAt, rule.EndsAt, rule.IsActive, rule.CreatedByTenantID, rule.CreatedAt,
	)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to insert boost rule: %w", err)
	}

	// The audit row rides the same transaction: rule and audit entry commit
	// together or not at all.
	_, err = s.auditor.AppendTx(ctx, tx, audit.Record{
		ActorID:    params.CreatedByTenantID,
		EntityType: audit.EntityBoostRule,
		EntityID:   rule.ID,
		Action:     audit.ActionCreatedBoostRule,
		Payload:    auditSnapshot(rule),
		RequestID:  params.RequestID,
	})
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to audit boost rule creation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to commit boost rule: %w", err)
	}

	endSpan(nil)
	return rule, nil
}

// Deactivate soft-deletes a rule.
func (s *PostgresStore) Deactivate(ctx context.Context, ruleID, actorID string) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "boost_rules", tracing.DBOperationUpdate)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to begin boost transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rule := &Rule{}
	var scope string
	err = tx.QueryRowContext(ctx, `
		SELECT id, scope, target_id, multiplier, starts_at, ends_at, is_active, created_by_tenant_id, created_at
		FROM boost_rules
		WHERE id = $1
		FOR UPDATE`, ruleID,
	).Scan(&rule.ID, &scope, &rule.TargetID, &rule.Multiplier,
		&rule.StartsAt, &rule.EndsAt, &rule.IsActive, &rule.CreatedByTenantID, &rule.CreatedAt)
	if err == sql.ErrNoRows {
		endSpan(ErrRuleNotFound)
		return ErrRuleNotFound
	}
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to load boost rule: %w", err)
	}
	rule.Scope = Scope(scope)

	if _, err := tx.ExecContext(ctx,
		`UPDATE boost_rules SET is_active = FALSE WHERE id = $1`, ruleID,
	); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to deactivate boost rule: %w", err)
	}

	_, err = s.auditor.AppendTx(ctx, tx, audit.Record{
		ActorID:    actorID,
		EntityType: audit.EntityBoostRule,
		EntityID:   rule.ID,
		Action:     audit.ActionDeactivatedBoostRule,
		Payload:    auditSnapshot(rule),
	})
	if err != nil {
		endSpan(err)
		return fmt.Errorf("failed to audit boost rule deactivation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		endSpan(err)
		return fmt.Errorf("failed to commit boost deactivation: %w", err)
	}

	endSpan(nil)
	return nil
}

// FetchActive returns all rules live at the given instant.
func (s *PostgresStore) FetchActive(ctx context.Context, now time.Time) ([]Rule, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "boost_rules", tracing.DBOperationQuery)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, target_id, multiplier, starts_at, ends_at, is_active, created_by_tenant_id, created_at
		FROM boost_rules
		WHERE is_active AND starts_at <= $1 AND $1 <= ends_at`, now)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to query active boost rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		var scope string
		if err := rows.Scan(&rule.ID, &scope, &rule.TargetID, &rule.Multiplier,
			&rule.StartsAt, &rule.EndsAt, &rule.IsActive, &rule.CreatedByTenantID, &rule.CreatedAt); err != nil {
			endSpan(err)
			return nil, fmt.Errorf("failed to scan boost rule: %w", err)
		}
		rule.Scope = Scope(scope)
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to iterate boost rules: %w", err)
	}

	endSpan(nil)
	return rules, nil
}
