package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccessGrant is an individual approved access row for an RFP. It makes a
// confidential RFP visible to the holder and satisfies approval-required
// document checks without a company registration.
type AccessGrant struct {
	ID        string
	RfpID     string
	UserID    string
	Status    string
	GrantedBy *string
	CreatedAt time.Time
}

type AccessGrantRepository interface {
	Create(ctx context.Context, grant *AccessGrant) error
	Find(ctx context.Context, rfpID, userID string) (*AccessGrant, error)
	FindByRfpID(ctx context.Context, rfpID string) ([]*AccessGrant, error)
	Delete(ctx context.Context, id string) error
}

type pgAccessGrantRepository struct {
	pool *pgxpool.Pool
}

func NewAccessGrantRepository(pool *pgxpool.Pool) AccessGrantRepository {
	return &pgAccessGrantRepository{pool: pool}
}

func (r *pgAccessGrantRepository) Create(ctx context.Context, grant *AccessGrant) error {
	query := `
		INSERT INTO rfp_access_grants (rfp_id, user_id, status, granted_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (rfp_id, user_id) DO UPDATE SET
			status = EXCLUDED.status,
			granted_by = EXCLUDED.granted_by
		RETURNING id, created_at
	`
	if grant.Status == "" {
		grant.Status = "approved"
	}
	return r.pool.QueryRow(ctx, query, grant.RfpID, grant.UserID, grant.Status, grant.GrantedBy).
		Scan(&grant.ID, &grant.CreatedAt)
}

func (r *pgAccessGrantRepository) Find(ctx context.Context, rfpID, userID string) (*AccessGrant, error) {
	query := `
		SELECT id, rfp_id, user_id, status, granted_by, created_at
		FROM rfp_access_grants WHERE rfp_id = $1 AND user_id = $2
	`
	grant := &AccessGrant{}
	err := r.pool.QueryRow(ctx, query, rfpID, userID).Scan(
		&grant.ID, &grant.RfpID, &grant.UserID, &grant.Status, &grant.GrantedBy, &grant.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (r *pgAccessGrantRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*AccessGrant, error) {
	query := `
		SELECT id, rfp_id, user_id, status, granted_by, created_at
		FROM rfp_access_grants WHERE rfp_id = $1 ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []*AccessGrant
	for rows.Next() {
		grant := &AccessGrant{}
		if err := rows.Scan(
			&grant.ID, &grant.RfpID, &grant.UserID, &grant.Status, &grant.GrantedBy, &grant.CreatedAt,
		); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

func (r *pgAccessGrantRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM rfp_access_grants WHERE id = $1`, id)
	return err
}
