package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Rfp struct {
	ID          string
	Title       string
	Description *string
	Visibility  string
	Status      string
	ClosingDate *time.Time
	Categories  []string
	Budget      decimal.NullDecimal
	CreatedBy   string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RfpRepository interface {
	Create(ctx context.Context, rfp *Rfp) error
	FindByID(ctx context.Context, id string) (*Rfp, error)
	FindAll(ctx context.Context) ([]*Rfp, error)
	Update(ctx context.Context, rfp *Rfp) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	// FindExpiredOpen returns RFPs whose stored status is still open while
	// their closing date has passed. Used only by the reconciliation job;
	// read paths derive the effective status themselves.
	FindExpiredOpen(ctx context.Context, now time.Time) ([]*Rfp, error)
	FindClosingBetween(ctx context.Context, from, to time.Time) ([]*Rfp, error)
}

type pgRfpRepository struct {
	pool *pgxpool.Pool
}

func NewRfpRepository(pool *pgxpool.Pool) RfpRepository {
	return &pgRfpRepository{pool: pool}
}

const rfpColumns = `id, title, description, visibility, status, closing_date, categories,
	budget, created_by, published_at, created_at, updated_at`

func scanRfp(row pgx.Row) (*Rfp, error) {
	rfp := &Rfp{}
	err := row.Scan(
		&rfp.ID, &rfp.Title, &rfp.Description, &rfp.Visibility, &rfp.Status,
		&rfp.ClosingDate, &rfp.Categories, &rfp.Budget, &rfp.CreatedBy,
		&rfp.PublishedAt, &rfp.CreatedAt, &rfp.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rfp, nil
}

func (r *pgRfpRepository) Create(ctx context.Context, rfp *Rfp) error {
	query := `
		INSERT INTO rfps (title, description, visibility, status, closing_date, categories,
			budget, created_by, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	if rfp.Categories == nil {
		rfp.Categories = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		rfp.Title, rfp.Description, rfp.Visibility, rfp.Status, rfp.ClosingDate,
		rfp.Categories, rfp.Budget, rfp.CreatedBy, rfp.PublishedAt,
	).Scan(&rfp.ID, &rfp.CreatedAt, &rfp.UpdatedAt)
}

func (r *pgRfpRepository) FindByID(ctx context.Context, id string) (*Rfp, error) {
	query := `SELECT ` + rfpColumns + ` FROM rfps WHERE id = $1`
	return scanRfp(r.pool.QueryRow(ctx, query, id))
}

func (r *pgRfpRepository) FindAll(ctx context.Context) ([]*Rfp, error) {
	query := `SELECT ` + rfpColumns + ` FROM rfps ORDER BY created_at DESC`
	return r.queryRfps(ctx, query)
}

func (r *pgRfpRepository) Update(ctx context.Context, rfp *Rfp) error {
	query := `
		UPDATE rfps
		SET title = $2, description = $3, visibility = $4, status = $5, closing_date = $6,
			categories = $7, budget = $8, published_at = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		rfp.ID, rfp.Title, rfp.Description, rfp.Visibility, rfp.Status,
		rfp.ClosingDate, rfp.Categories, rfp.Budget, rfp.PublishedAt,
	).Scan(&rfp.UpdatedAt)
}

func (r *pgRfpRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE rfps SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *pgRfpRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM rfps WHERE id = $1`, id)
	return err
}

func (r *pgRfpRepository) FindExpiredOpen(ctx context.Context, now time.Time) ([]*Rfp, error) {
	query := `
		SELECT ` + rfpColumns + `
		FROM rfps
		WHERE status <> 'closed' AND closing_date IS NOT NULL AND closing_date < $1
	`
	return r.queryRfps(ctx, query, now)
}

func (r *pgRfpRepository) FindClosingBetween(ctx context.Context, from, to time.Time) ([]*Rfp, error) {
	query := `
		SELECT ` + rfpColumns + `
		FROM rfps
		WHERE status = 'active' AND closing_date >= $1 AND closing_date < $2
	`
	return r.queryRfps(ctx, query, from, to)
}

func (r *pgRfpRepository) queryRfps(ctx context.Context, query string, args ...interface{}) ([]*Rfp, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rfps []*Rfp
	for rows.Next() {
		rfp := &Rfp{}
		if err := rows.Scan(
			&rfp.ID, &rfp.Title, &rfp.Description, &rfp.Visibility, &rfp.Status,
			&rfp.ClosingDate, &rfp.Categories, &rfp.Budget, &rfp.CreatedBy,
			&rfp.PublishedAt, &rfp.CreatedAt, &rfp.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rfps = append(rfps, rfp)
	}
	return rfps, rows.Err()
}
