package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pazarnet/discovery/internal/tracing"
)

// PostgresRepository implements Repository against the finance_audit_log table.
// The table carries no UPDATE or DELETE paths; appends chain hashes off the
// latest row at write time inside a transaction.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgresRepository backed by the given handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append records an audit entry in its own transaction.
func (r *PostgresRepository) Append(record Record) (*Entry, error) {
	if err := validateRecord(record); err != nil {
		return nil, err
	}

	ctx, endSpan := tracing.StartDBSpan(context.Background(), "finance_audit_log", tracing.DBOperationInsert)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	entry, err := appendInTx(ctx, tx, record)
	if err != nil {
		endSpan(err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to commit audit entry: %w", err)
	}

	endSpan(nil)
	return entry, nil
}

// AppendTx records an audit entry inside the caller's transaction. The entry
// becomes durable only when the caller commits, so an audited mutation and
// its audit row land atomically or not at all.
func (r *PostgresRepository) AppendTx(ctx context.Context, tx *sql.Tx, record Record) (*Entry, error) {
	if err := validateRecord(record); err != nil {
		return nil, err
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "finance_audit_log", tracing.DBOperationInsert)
	entry, err := appendInTx(ctx, tx, record)
	endSpan(err)
	return entry, err
}

func appendInTx(ctx context.Context, tx *sql.Tx, record Record) (*Entry, error) {
	var lastSum sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT chain_hash FROM finance_audit_log ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&lastSum)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read audit chain head: %w", err)
	}

	entry := &Entry{
		ID:           uuid.New().String(),
		ActorID:      record.ActorID,
		EntityType:   record.EntityType,
		EntityID:     record.EntityID,
		Action:       record.Action,
		Payload:      append([]byte(nil), record.Payload...),
		CreatedAt:    time.Now().UTC(),
		RequestID:    record.RequestID,
		PreviousHash: lastSum.String,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO finance_audit_log
			(id, actor_id, entity_type, entity_id, action, payload, request_id, previous_hash, chain_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.ActorID, entry.EntityType, entry.EntityID, entry.Action,
		entry.Payload, entry.RequestID, entry.PreviousHash, chainHash(entry), entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	entryCopy := *entry
	return &entryCopy, nil
}

// QueryByEntity retrieves entries for an entity, newest first.
func (r *PostgresRepository) QueryByEntity(entityType, entityID string, limit int) ([]*Entry, error) {
	query := `
		SELECT id, actor_id, entity_type, entity_id, action, payload, request_id, previous_hash, created_at
		FROM finance_audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC`
	args := []interface{}{entityType, entityID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// QueryByActor retrieves entries for an acting tenant, newest first.
func (r *PostgresRepository) QueryByActor(actorID string, limit int) ([]*Entry, error) {
	query := `
		SELECT id, actor_id, entity_type, entity_id, action, payload, request_id, previous_hash, created_at
		FROM finance_audit_log
		WHERE actor_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []interface{}{actorID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

func (r *PostgresRepository) query(query string, args ...interface{}) ([]*Entry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var results []*Entry
	for rows.Next() {
		var e Entry
		var requestID sql.NullString
		if err := rows.Scan(&e.ID, &e.ActorID, &e.EntityType, &e.EntityID, &e.Action,
			&e.Payload, &requestID, &e.PreviousHash, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.RequestID = requestID.String
		results = append(results, &e)
	}
	return results, rows.Err()
}
