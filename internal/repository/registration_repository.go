package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InterestRegistration is a company's formal registration of interest in an
// RFP. One row per (rfp, company); approval gates approval-required documents.
type InterestRegistration struct {
	ID           string
	RfpID        string
	CompanyID    string
	RegistrantID string
	Status       string
	Reason       *string
	DecidedBy    *string
	DecidedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RegistrationRepository interface {
	Create(ctx context.Context, reg *InterestRegistration) error
	FindByID(ctx context.Context, id string) (*InterestRegistration, error)
	Find(ctx context.Context, rfpID, companyID string) (*InterestRegistration, error)
	FindByRfpID(ctx context.Context, rfpID string) ([]*InterestRegistration, error)
	FindByCompanyID(ctx context.Context, companyID string) ([]*InterestRegistration, error)
	Update(ctx context.Context, reg *InterestRegistration) error
}

type pgRegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &pgRegistrationRepository{pool: pool}
}

const registrationColumns = `id, rfp_id, company_id, registrant_id, status, reason,
	decided_by, decided_at, created_at, updated_at`

func scanRegistration(row pgx.Row) (*InterestRegistration, error) {
	reg := &InterestRegistration{}
	err := row.Scan(
		&reg.ID, &reg.RfpID, &reg.CompanyID, &reg.RegistrantID, &reg.Status, &reg.Reason,
		&reg.DecidedBy, &reg.DecidedAt, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *pgRegistrationRepository) Create(ctx context.Context, reg *InterestRegistration) error {
	query := `
		INSERT INTO interest_registrations (rfp_id, company_id, registrant_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, status, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query, reg.RfpID, reg.CompanyID, reg.RegistrantID).
		Scan(&reg.ID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
}

func (r *pgRegistrationRepository) FindByID(ctx context.Context, id string) (*InterestRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM interest_registrations WHERE id = $1`
	return scanRegistration(r.pool.QueryRow(ctx, query, id))
}

func (r *pgRegistrationRepository) Find(ctx context.Context, rfpID, companyID string) (*InterestRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM interest_registrations WHERE rfp_id = $1 AND company_id = $2`
	return scanRegistration(r.pool.QueryRow(ctx, query, rfpID, companyID))
}

func (r *pgRegistrationRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*InterestRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM interest_registrations WHERE rfp_id = $1 ORDER BY created_at`
	return r.queryRegistrations(ctx, query, rfpID)
}

func (r *pgRegistrationRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*InterestRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM interest_registrations WHERE company_id = $1 ORDER BY created_at`
	return r.queryRegistrations(ctx, query, companyID)
}

func (r *pgRegistrationRepository) Update(ctx context.Context, reg *InterestRegistration) error {
	query := `
		UPDATE interest_registrations
		SET status = $2, reason = $3, decided_by = $4, decided_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		reg.ID, reg.Status, reg.Reason, reg.DecidedBy, reg.DecidedAt,
	).Scan(&reg.UpdatedAt)
}

func (r *pgRegistrationRepository) queryRegistrations(ctx context.Context, query string, args ...interface{}) ([]*InterestRegistration, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*InterestRegistration
	for rows.Next() {
		reg := &InterestRegistration{}
		if err := rows.Scan(
			&reg.ID, &reg.RfpID, &reg.CompanyID, &reg.RegistrantID, &reg.Status, &reg.Reason,
			&reg.DecidedBy, &reg.DecidedAt, &reg.CreatedAt, &reg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
