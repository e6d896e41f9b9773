package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Proposal tracks a company's submission against an RFP. One row per
// (rfp, company); re-submitting replaces the previous metadata.
type Proposal struct {
	ID          string
	RfpID       string
	CompanyID   string
	SubmittedBy string
	Status      string
	Summary     *string
	FileKey     *string
	SubmittedAt time.Time
	WithdrawnAt *time.Time
	UpdatedAt   time.Time
}

type ProposalRepository interface {
	Upsert(ctx context.Context, p *Proposal) error
	FindByID(ctx context.Context, id string) (*Proposal, error)
	Find(ctx context.Context, rfpID, companyID string) (*Proposal, error)
	FindByRfpID(ctx context.Context, rfpID string) ([]*Proposal, error)
	FindByCompanyID(ctx context.Context, companyID string) ([]*Proposal, error)
	Update(ctx context.Context, p *Proposal) error
}

type pgProposalRepository struct {
	pool *pgxpool.Pool
}

func NewProposalRepository(pool *pgxpool.Pool) ProposalRepository {
	return &pgProposalRepository{pool: pool}
}

const proposalColumns = `id, rfp_id, company_id, submitted_by, status, summary, file_key,
	submitted_at, withdrawn_at, updated_at`

func scanProposal(row pgx.Row) (*Proposal, error) {
	p := &Proposal{}
	err := row.Scan(
		&p.ID, &p.RfpID, &p.CompanyID, &p.SubmittedBy, &p.Status, &p.Summary, &p.FileKey,
		&p.SubmittedAt, &p.WithdrawnAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProposalRepository) Upsert(ctx context.Context, p *Proposal) error {
	query := `
		INSERT INTO proposals (rfp_id, company_id, submitted_by, status, summary, file_key, submitted_at)
		VALUES ($1, $2, $3, 'submitted', $4, $5, $6)
		ON CONFLICT (rfp_id, company_id) DO UPDATE SET
			submitted_by = EXCLUDED.submitted_by,
			status = 'submitted',
			summary = EXCLUDED.summary,
			file_key = EXCLUDED.file_key,
			submitted_at = EXCLUDED.submitted_at,
			withdrawn_at = NULL,
			updated_at = NOW()
		RETURNING id, status, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		p.RfpID, p.CompanyID, p.SubmittedBy, p.Summary, p.FileKey, p.SubmittedAt,
	).Scan(&p.ID, &p.Status, &p.UpdatedAt)
}

func (r *pgProposalRepository) FindByID(ctx context.Context, id string) (*Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	return scanProposal(r.pool.QueryRow(ctx, query, id))
}

func (r *pgProposalRepository) Find(ctx context.Context, rfpID, companyID string) (*Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE rfp_id = $1 AND company_id = $2`
	return scanProposal(r.pool.QueryRow(ctx, query, rfpID, companyID))
}

func (r *pgProposalRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE rfp_id = $1 ORDER BY submitted_at`
	return r.queryProposals(ctx, query, rfpID)
}

func (r *pgProposalRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE company_id = $1 ORDER BY submitted_at DESC`
	return r.queryProposals(ctx, query, companyID)
}

func (r *pgProposalRepository) Update(ctx context.Context, p *Proposal) error {
	query := `
		UPDATE proposals
		SET status = $2, summary = $3, file_key = $4, withdrawn_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, p.ID, p.Status, p.Summary, p.FileKey, p.WithdrawnAt).
		Scan(&p.UpdatedAt)
}

func (r *pgProposalRepository) queryProposals(ctx context.Context, query string, args ...interface{}) ([]*Proposal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []*Proposal
	for rows.Next() {
		p := &Proposal{}
		if err := rows.Scan(
			&p.ID, &p.RfpID, &p.CompanyID, &p.SubmittedBy, &p.Status, &p.Summary, &p.FileKey,
			&p.SubmittedAt, &p.WithdrawnAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}
