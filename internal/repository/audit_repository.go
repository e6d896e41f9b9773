package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditEntry struct {
	ID         string
	ActorID    *string
	Action     string
	EntityType string
	EntityID   string
	Detail     map[string]interface{}
	CreatedAt  time.Time
}

type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	FindByEntity(ctx context.Context, entityType, entityID string) ([]*AuditEntry, error)
	FindRecent(ctx context.Context, limit int) ([]*AuditEntry, error)
}

type pgAuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &pgAuditRepository{pool: pool}
}

func (r *pgAuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgAuditRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]*AuditEntry, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, detail, created_at
		FROM audit_log WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at
	`
	return r.queryEntries(ctx, query, entityType, entityID)
}

func (r *pgAuditRepository) FindRecent(ctx context.Context, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, detail, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT $1
	`
	return r.queryEntries(ctx, query, limit)
}

func (r *pgAuditRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*AuditEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		e := &AuditEntry{}
		var detail []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
