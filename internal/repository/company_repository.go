package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Company struct {
	ID                 string
	Name               string
	Description        *string
	Website            *string
	VerificationStatus string
	AutoJoinEnabled    bool
	VerifiedDomain     *string
	BlockedDomains     []string
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id string) (*Company, error)
	FindByName(ctx context.Context, name string) (*Company, error)
	FindAll(ctx context.Context) ([]*Company, error)
	// FindAutoJoinByDomain returns companies with auto-join enabled whose
	// verified domain matches. Blocked-domain filtering happens in the
	// service; the blocklist is a per-company attribute.
	FindAutoJoinByDomain(ctx context.Context, domain string) ([]*Company, error)
	Update(ctx context.Context, company *Company) error
	Delete(ctx context.Context, id string) error
}

type pgCompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &pgCompanyRepository{pool: pool}
}

const companyColumns = `id, name, description, website, verification_status, auto_join_enabled,
	verified_domain, blocked_domains, created_by, created_at, updated_at`

func scanCompany(row pgx.Row) (*Company, error) {
	c := &Company{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Website, &c.VerificationStatus,
		&c.AutoJoinEnabled, &c.VerifiedDomain, &c.BlockedDomains,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCompanyRepository) Create(ctx context.Context, company *Company) error {
	query := `
		INSERT INTO companies (name, description, website, verification_status, auto_join_enabled,
			verified_domain, blocked_domains, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	if company.VerificationStatus == "" {
		company.VerificationStatus = "unverified"
	}
	if company.BlockedDomains == nil {
		company.BlockedDomains = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		company.Name, company.Description, company.Website, company.VerificationStatus,
		company.AutoJoinEnabled, company.VerifiedDomain, company.BlockedDomains, company.CreatedBy,
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
}

func (r *pgCompanyRepository) FindByID(ctx context.Context, id string) (*Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return scanCompany(r.pool.QueryRow(ctx, query, id))
}

func (r *pgCompanyRepository) FindByName(ctx context.Context, name string) (*Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE LOWER(name) = LOWER($1)`
	return scanCompany(r.pool.QueryRow(ctx, query, name))
}

func (r *pgCompanyRepository) FindAll(ctx context.Context) ([]*Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY name`
	return r.queryCompanies(ctx, query)
}

func (r *pgCompanyRepository) FindAutoJoinByDomain(ctx context.Context, domain string) ([]*Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE auto_join_enabled = TRUE AND LOWER(verified_domain) = LOWER($1)
		ORDER BY name
	`
	return r.queryCompanies(ctx, query, domain)
}

func (r *pgCompanyRepository) Update(ctx context.Context, company *Company) error {
	query := `
		UPDATE companies
		SET name = $2, description = $3, website = $4, verification_status = $5,
			auto_join_enabled = $6, verified_domain = $7, blocked_domains = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		company.ID, company.Name, company.Description, company.Website,
		company.VerificationStatus, company.AutoJoinEnabled, company.VerifiedDomain,
		company.BlockedDomains,
	).Scan(&company.UpdatedAt)
}

func (r *pgCompanyRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return err
}

func (r *pgCompanyRepository) queryCompanies(ctx context.Context, query string, args ...interface{}) ([]*Company, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		c := &Company{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.Website, &c.VerificationStatus,
			&c.AutoJoinEnabled, &c.VerifiedDomain, &c.BlockedDomains,
			&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}
