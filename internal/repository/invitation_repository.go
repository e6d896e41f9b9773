package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Invitation invites an email address either into a company (7-day expiry)
// or onto a confidential RFP (30-day expiry, accepted as an access grant).
type Invitation struct {
	ID         string
	Kind       string
	CompanyID  *string
	RfpID      *string
	Email      string
	Role       string
	Token      string
	Status     string
	InvitedBy  string
	Message    *string
	ExpiresAt  time.Time
	AcceptedBy *string
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindPendingByEmail(ctx context.Context, email string) ([]*Invitation, error)
	FindByCompanyID(ctx context.Context, companyID string) ([]*Invitation, error)
	FindByRfpID(ctx context.Context, rfpID string) ([]*Invitation, error)
	Update(ctx context.Context, inv *Invitation) error
	// ExpirePending marks pending invitations past their expiry as expired
	// and reports how many rows changed.
	ExpirePending(ctx context.Context, now time.Time) (int, error)
}

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgInvitationRepository{pool: pool}
}

const invitationColumns = `id, kind, company_id, rfp_id, email, role, token, status,
	invited_by, message, expires_at, accepted_by, accepted_at, created_at, updated_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(
		&inv.ID, &inv.Kind, &inv.CompanyID, &inv.RfpID, &inv.Email, &inv.Role, &inv.Token,
		&inv.Status, &inv.InvitedBy, &inv.Message, &inv.ExpiresAt, &inv.AcceptedBy,
		&inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *pgInvitationRepository) Create(ctx context.Context, inv *Invitation) error {
	query := `
		INSERT INTO invitations (kind, company_id, rfp_id, email, role, token, status,
			invited_by, message, expires_at)
		VALUES ($1, $2, $3, LOWER($4), $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	if inv.Status == "" {
		inv.Status = "pending"
	}
	return r.pool.QueryRow(ctx, query,
		inv.Kind, inv.CompanyID, inv.RfpID, inv.Email, inv.Role, inv.Token,
		inv.Status, inv.InvitedBy, inv.Message, inv.ExpiresAt,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
}

func (r *pgInvitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	return scanInvitation(r.pool.QueryRow(ctx, query, id))
}

func (r *pgInvitationRepository) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`
	return scanInvitation(r.pool.QueryRow(ctx, query, token))
}

func (r *pgInvitationRepository) FindPendingByEmail(ctx context.Context, email string) ([]*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations WHERE LOWER(email) = LOWER($1) AND status = 'pending'
		ORDER BY created_at DESC
	`
	return r.queryInvitations(ctx, query, email)
}

func (r *pgInvitationRepository) FindByCompanyID(ctx context.Context, companyID string) ([]*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE company_id = $1 ORDER BY created_at DESC`
	return r.queryInvitations(ctx, query, companyID)
}

func (r *pgInvitationRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE rfp_id = $1 ORDER BY created_at DESC`
	return r.queryInvitations(ctx, query, rfpID)
}

func (r *pgInvitationRepository) Update(ctx context.Context, inv *Invitation) error {
	query := `
		UPDATE invitations
		SET status = $2, accepted_by = $3, accepted_at = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, inv.ID, inv.Status, inv.AcceptedBy, inv.AcceptedAt).
		Scan(&inv.UpdatedAt)
}

func (r *pgInvitationRepository) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invitations SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgInvitationRepository) queryInvitations(ctx context.Context, query string, args ...interface{}) ([]*Invitation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(
			&inv.ID, &inv.Kind, &inv.CompanyID, &inv.RfpID, &inv.Email, &inv.Role, &inv.Token,
			&inv.Status, &inv.InvitedBy, &inv.Message, &inv.ExpiresAt, &inv.AcceptedBy,
			&inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}
