package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Affiliation is the single record behind every membership concept: the
// primary company link, secondary collaborator memberships, and pending join
// requests are all affiliation rows distinguished by kind. The users table
// additionally denormalizes the primary pair (company_id, company_role)
// because every access check reads it.
type Affiliation struct {
	ID           string
	UserID       string
	CompanyID    string
	Kind         string
	Role         string
	Status       string
	JoinMethod   string
	Message      *string
	DecidedBy    *string
	DecidedAt    *time.Time
	RejectReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	User         *User
}

type AffiliationRepository interface {
	Create(ctx context.Context, aff *Affiliation) error
	FindByID(ctx context.Context, id string) (*Affiliation, error)
	FindByUserAndCompany(ctx context.Context, userID, companyID string) ([]*Affiliation, error)
	FindPendingByUser(ctx context.Context, userID, companyID string) (*Affiliation, error)
	FindPendingByCompany(ctx context.Context, companyID string) ([]*Affiliation, error)
	FindActiveSecondaries(ctx context.Context, userID string) ([]*Affiliation, error)
	FindByUserID(ctx context.Context, userID string) ([]*Affiliation, error)
	FindByCompanyID(ctx context.Context, companyID string) ([]*Affiliation, error)
	Update(ctx context.Context, aff *Affiliation) error
	Delete(ctx context.Context, id string) error
}

type pgAffiliationRepository struct {
	pool *pgxpool.Pool
}

func NewAffiliationRepository(pool *pgxpool.Pool) AffiliationRepository {
	return &pgAffiliationRepository{pool: pool}
}

const affiliationColumns = `id, user_id, company_id, kind, role, status, join_method,
	message, decided_by, decided_at, reject_reason, created_at, updated_at`

func scanAffiliation(row pgx.Row) (*Affiliation, error) {
	a := &Affiliation{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.CompanyID, &a.Kind, &a.Role, &a.Status, &a.JoinMethod,
		&a.Message, &a.DecidedBy, &a.DecidedAt, &a.RejectReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *pgAffiliationRepository) Create(ctx context.Context, aff *Affiliation) error {
	query := `
		INSERT INTO affiliations (user_id, company_id, kind, role, status, join_method, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		aff.UserID, aff.CompanyID, aff.Kind, aff.Role, aff.Status, aff.JoinMethod, aff.Message,
	).Scan(&aff.ID, &aff.CreatedAt, &aff.UpdatedAt)
}

func (r *pgAffiliationRepository) FindByID(ctx context.Context, id string) (*Affiliation, error) {
	query := `SELECT ` + affiliationColumns + ` FROM affiliations WHERE id = $1`
	return scanAffiliation(r.pool.QueryRow(ctx, query, id))
}

func (r *pgAffiliationRepository) FindByUserAndCompany(ctx context.Context, userID, companyID string) ([]*Affiliation, error) {
	query := `
		SELECT ` + affiliationColumns + `
		FROM affiliations WHERE user_id = $1 AND company_id = $2
		ORDER BY created_at
	`
	return r.queryAffiliations(ctx, query, userID, companyID)
}

func (r *pgAffiliationRepository) FindPendingByUser(ctx context.Context, userID, companyID string) (*Affiliation, error) {
	query := `
		SELECT ` + affiliationColumns + `
		FROM affiliations
		WHERE user_id = $1 AND company_id = $2 AND kind = 'pending'
	`
	return scanAffiliation(r.pool.QueryRow(ctx, query, userID, companyID))
}

func (r *pgAffiliationRepository) FindPendingByCompany(ctx context.Context, companyID string) ([]*Affiliation, error) {
	query := `
		SELECT a.id, a.user_id, a.company_id, a.kind, a.role, a.status, a.join_method,
			a.message, a.decided_by, a.decided_at, a.reject_reason, a.created_at, a.updated_at,
			u.id, u.email, u.name, u.role
		FROM affiliations a
		JOIN users u ON u.id = a.user_id
		WHERE a.company_id = $1 AND a.kind = 'pending'
		ORDER BY a.created_at
	`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var affs []*Affiliation
	for rows.Next() {
		a := &Affiliation{User: &User{}}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.CompanyID, &a.Kind, &a.Role, &a.Status, &a.JoinMethod,
			&a.Message, &a.DecidedBy, &a.DecidedAt, &a.RejectReason, &a.CreatedAt, &a.UpdatedAt,
			&a.User.ID, &a.User.Email, &a.User.Name, &a.User.Role,
		); err != nil {
			return nil, err
		}
		affs = append(affs, a)
	}
	return affs, rows.Err()
}

func (r *pgAffiliationRepository) FindActiveSecondaries(ctx context.Context, userID string) ([]*Affiliation, error) {
	query := `
		SELECT ` + affiliationColumns + `
		FROM affiliations
		WHERE user_id = $1 AND kind = 'secondary' AND status = 'active'
		ORDER BY created_at
	`
	return r.queryAffiliations(ctx, query, userID)
}

func (r *pgAffiliationRepository) FindByUserID(ctx context.Context, userID string) ([]*Affiliation, error) {
	query := `SELECT ` + affiliationColumns + ` FROM affiliations WHERE user_id = $1 ORDER BY created_at`
	return r.queryAffiliations(ctx, query, userID)
}

func (r *pgAffiliationRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*Affiliation, error) {
	query := `SELECT ` + affiliationColumns + ` FROM affiliations WHERE company_id = $1 ORDER BY created_at`
	return r.queryAffiliations(ctx, query, companyID)
}

func (r *pgAffiliationRepository) Update(ctx context.Context, aff *Affiliation) error {
	query := `
		UPDATE affiliations
		SET kind = $2, role = $3, status = $4, join_method = $5,
			decided_by = $6, decided_at = $7, reject_reason = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		aff.ID, aff.Kind, aff.Role, aff.Status, aff.JoinMethod,
		aff.DecidedBy, aff.DecidedAt, aff.RejectReason,
	).Scan(&aff.UpdatedAt)
}

func (r *pgAffiliationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM affiliations WHERE id = $1`, id)
	return err
}

func (r *pgAffiliationRepository) queryAffiliations(ctx context.Context, query string, args ...interface{}) ([]*Affiliation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var affs []*Affiliation
	for rows.Next() {
		a := &Affiliation{}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.CompanyID, &a.Kind, &a.Role, &a.Status, &a.JoinMethod,
			&a.Message, &a.DecidedBy, &a.DecidedAt, &a.RejectReason, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		affs = append(affs, a)
	}
	return affs, rows.Err()
}
