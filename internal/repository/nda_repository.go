package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NdaRecord is an individual NDA scoped to (rfp, user).
type NdaRecord struct {
	ID                string
	RfpID             string
	UserID            string
	Status            string
	FullName          string
	SignerTitle       *string
	SignerCompany     *string
	Signature         string
	IPAddress         *string
	UserAgent         *string
	SignedAt          time.Time
	CountersignedBy   *string
	CountersignerName *string
	Countersignature  *string
	CountersignedAt   *time.Time
	RejectReason      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CompanyNda is an NDA signed by a company admin on behalf of the whole
// company, scoped to (rfp, company).
type CompanyNda struct {
	ID                string
	RfpID             string
	CompanyID         string
	SignedBy          string
	Status            string
	FullName          string
	SignerTitle       *string
	Signature         string
	IPAddress         *string
	UserAgent         *string
	SignedAt          time.Time
	CountersignedBy   *string
	CountersignerName *string
	Countersignature  *string
	CountersignedAt   *time.Time
	RejectReason      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NDA kinds used in the audit trail.
const (
	NdaKindIndividual = "individual"
	NdaKindCompany    = "company"
)

type NdaTrailEntry struct {
	ID        string
	NdaKind   string
	NdaID     string
	Action    string
	ActorID   string
	Detail    *string
	CreatedAt time.Time
}

type NdaRepository interface {
	// UpsertIndividual inserts a new individual NDA or, on (rfp, user)
	// conflict, resets the existing row back to signed and clears every
	// countersignature field. Re-signing starts a fresh cycle.
	UpsertIndividual(ctx context.Context, nda *NdaRecord) error
	FindIndividual(ctx context.Context, rfpID, userID string) (*NdaRecord, error)
	FindIndividualByID(ctx context.Context, id string) (*NdaRecord, error)
	FindIndividualsByRfp(ctx context.Context, rfpID string) ([]*NdaRecord, error)
	UpdateIndividual(ctx context.Context, nda *NdaRecord) error

	UpsertCompany(ctx context.Context, nda *CompanyNda) error
	FindCompany(ctx context.Context, rfpID, companyID string) (*CompanyNda, error)
	FindCompanyByID(ctx context.Context, id string) (*CompanyNda, error)
	FindCompaniesByRfp(ctx context.Context, rfpID string) ([]*CompanyNda, error)
	UpdateCompany(ctx context.Context, nda *CompanyNda) error

	AppendTrail(ctx context.Context, entry *NdaTrailEntry) error
	FindTrail(ctx context.Context, ndaKind, ndaID string) ([]*NdaTrailEntry, error)
}

type pgNdaRepository struct {
	pool *pgxpool.Pool
}

func NewNdaRepository(pool *pgxpool.Pool) NdaRepository {
	return &pgNdaRepository{pool: pool}
}

const ndaColumns = `id, rfp_id, user_id, status, full_name, signer_title, signer_company,
	signature, ip_address, user_agent, signed_at, countersigned_by, countersigner_name,
	countersignature, countersigned_at, reject_reason, created_at, updated_at`

const companyNdaColumns = `id, rfp_id, company_id, signed_by, status, full_name, signer_title,
	signature, ip_address, user_agent, signed_at, countersigned_by, countersigner_name,
	countersignature, countersigned_at, reject_reason, created_at, updated_at`

func (r *pgNdaRepository) UpsertIndividual(ctx context.Context, nda *NdaRecord) error {
	query := `
		INSERT INTO nda_records (rfp_id, user_id, status, full_name, signer_title, signer_company,
			signature, ip_address, user_agent, signed_at)
		VALUES ($1, $2, 'signed', $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (rfp_id, user_id) DO UPDATE SET
			status = 'signed',
			full_name = EXCLUDED.full_name,
			signer_title = EXCLUDED.signer_title,
			signer_company = EXCLUDED.signer_company,
			signature = EXCLUDED.signature,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			signed_at = EXCLUDED.signed_at,
			countersigned_by = NULL,
			countersigner_name = NULL,
			countersignature = NULL,
			countersigned_at = NULL,
			reject_reason = NULL,
			updated_at = NOW()
		RETURNING id, status, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		nda.RfpID, nda.UserID, nda.FullName, nda.SignerTitle, nda.SignerCompany,
		nda.Signature, nda.IPAddress, nda.UserAgent, nda.SignedAt,
	).Scan(&nda.ID, &nda.Status, &nda.CreatedAt, &nda.UpdatedAt)
}

func scanNda(row pgx.Row) (*NdaRecord, error) {
	nda := &NdaRecord{}
	err := row.Scan(
		&nda.ID, &nda.RfpID, &nda.UserID, &nda.Status, &nda.FullName, &nda.SignerTitle,
		&nda.SignerCompany, &nda.Signature, &nda.IPAddress, &nda.UserAgent, &nda.SignedAt,
		&nda.CountersignedBy, &nda.CountersignerName, &nda.Countersignature,
		&nda.CountersignedAt, &nda.RejectReason, &nda.CreatedAt, &nda.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return nda, nil
}

func (r *pgNdaRepository) FindIndividual(ctx context.Context, rfpID, userID string) (*NdaRecord, error) {
	query := `SELECT ` + ndaColumns + ` FROM nda_records WHERE rfp_id = $1 AND user_id = $2`
	return scanNda(r.pool.QueryRow(ctx, query, rfpID, userID))
}

func (r *pgNdaRepository) FindIndividualByID(ctx context.Context, id string) (*NdaRecord, error) {
	query := `SELECT ` + ndaColumns + ` FROM nda_records WHERE id = $1`
	return scanNda(r.pool.QueryRow(ctx, query, id))
}

func (r *pgNdaRepository) FindIndividualsByRfp(ctx context.Context, rfpID string) ([]*NdaRecord, error) {
	query := `SELECT ` + ndaColumns + ` FROM nda_records WHERE rfp_id = $1 ORDER BY signed_at DESC`
	rows, err := r.pool.Query(ctx, query, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ndas []*NdaRecord
	for rows.Next() {
		nda := &NdaRecord{}
		if err := rows.Scan(
			&nda.ID, &nda.RfpID, &nda.UserID, &nda.Status, &nda.FullName, &nda.SignerTitle,
			&nda.SignerCompany, &nda.Signature, &nda.IPAddress, &nda.UserAgent, &nda.SignedAt,
			&nda.CountersignedBy, &nda.CountersignerName, &nda.Countersignature,
			&nda.CountersignedAt, &nda.RejectReason, &nda.CreatedAt, &nda.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ndas = append(ndas, nda)
	}
	return ndas, rows.Err()
}

func (r *pgNdaRepository) UpdateIndividual(ctx context.Context, nda *NdaRecord) error {
	query := `
		UPDATE nda_records
		SET status = $2, countersigned_by = $3, countersigner_name = $4,
			countersignature = $5, countersigned_at = $6, reject_reason = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		nda.ID, nda.Status, nda.CountersignedBy, nda.CountersignerName,
		nda.Countersignature, nda.CountersignedAt, nda.RejectReason,
	).Scan(&nda.UpdatedAt)
}

func (r *pgNdaRepository) UpsertCompany(ctx context.Context, nda *CompanyNda) error {
	query := `
		INSERT INTO company_ndas (rfp_id, company_id, signed_by, status, full_name, signer_title,
			signature, ip_address, user_agent, signed_at)
		VALUES ($1, $2, $3, 'signed', $4, $5, $6, $7, $8, $9)
		ON CONFLICT (rfp_id, company_id) DO UPDATE SET
			status = 'signed',
			signed_by = EXCLUDED.signed_by,
			full_name = EXCLUDED.full_name,
			signer_title = EXCLUDED.signer_title,
			signature = EXCLUDED.signature,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			signed_at = EXCLUDED.signed_at,
			countersigned_by = NULL,
			countersigner_name = NULL,
			countersignature = NULL,
			countersigned_at = NULL,
			reject_reason = NULL,
			updated_at = NOW()
		RETURNING id, status, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		nda.RfpID, nda.CompanyID, nda.SignedBy, nda.FullName, nda.SignerTitle,
		nda.Signature, nda.IPAddress, nda.UserAgent, nda.SignedAt,
	).Scan(&nda.ID, &nda.Status, &nda.CreatedAt, &nda.UpdatedAt)
}

func scanCompanyNda(row pgx.Row) (*CompanyNda, error) {
	nda := &CompanyNda{}
	err := row.Scan(
		&nda.ID, &nda.RfpID, &nda.CompanyID, &nda.SignedBy, &nda.Status, &nda.FullName,
		&nda.SignerTitle, &nda.Signature, &nda.IPAddress, &nda.UserAgent, &nda.SignedAt,
		&nda.CountersignedBy, &nda.CountersignerName, &nda.Countersignature,
		&nda.CountersignedAt, &nda.RejectReason, &nda.CreatedAt, &nda.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return nda, nil
}

func (r *pgNdaRepository) FindCompany(ctx context.Context, rfpID, companyID string) (*CompanyNda, error) {
	query := `SELECT ` + companyNdaColumns + ` FROM company_ndas WHERE rfp_id = $1 AND company_id = $2`
	return scanCompanyNda(r.pool.QueryRow(ctx, query, rfpID, companyID))
}

func (r *pgNdaRepository) FindCompanyByID(ctx context.Context, id string) (*CompanyNda, error) {
	query := `SELECT ` + companyNdaColumns + ` FROM company_ndas WHERE id = $1`
	return scanCompanyNda(r.pool.QueryRow(ctx, query, id))
}

func (r *pgNdaRepository) FindCompaniesByRfp(ctx context.Context, rfpID string) ([]*CompanyNda, error) {
	query := `SELECT ` + companyNdaColumns + ` FROM company_ndas WHERE rfp_id = $1 ORDER BY signed_at DESC`
	rows, err := r.pool.Query(ctx, query, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ndas []*CompanyNda
	for rows.Next() {
		nda := &CompanyNda{}
		if err := rows.Scan(
			&nda.ID, &nda.RfpID, &nda.CompanyID, &nda.SignedBy, &nda.Status, &nda.FullName,
			&nda.SignerTitle, &nda.Signature, &nda.IPAddress, &nda.UserAgent, &nda.SignedAt,
			&nda.CountersignedBy, &nda.CountersignerName, &nda.Countersignature,
			&nda.CountersignedAt, &nda.RejectReason, &nda.CreatedAt, &nda.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ndas = append(ndas, nda)
	}
	return ndas, rows.Err()
}

func (r *pgNdaRepository) UpdateCompany(ctx context.Context, nda *CompanyNda) error {
	query := `
		UPDATE company_ndas
		SET status = $2, countersigned_by = $3, countersigner_name = $4,
			countersignature = $5, countersigned_at = $6, reject_reason = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		nda.ID, nda.Status, nda.CountersignedBy, nda.CountersignerName,
		nda.Countersignature, nda.CountersignedAt, nda.RejectReason,
	).Scan(&nda.UpdatedAt)
}

func (r *pgNdaRepository) AppendTrail(ctx context.Context, entry *NdaTrailEntry) error {
	query := `
		INSERT INTO nda_trail (nda_kind, nda_id, action, actor_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		entry.NdaKind, entry.NdaID, entry.Action, entry.ActorID, entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgNdaRepository) FindTrail(ctx context.Context, ndaKind, ndaID string) ([]*NdaTrailEntry, error) {
	query := `
		SELECT id, nda_kind, nda_id, action, actor_id, detail, created_at
		FROM nda_trail WHERE nda_kind = $1 AND nda_id = $2
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, ndaKind, ndaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*NdaTrailEntry
	for rows.Next() {
		e := &NdaTrailEntry{}
		if err := rows.Scan(&e.ID, &e.NdaKind, &e.NdaID, &e.Action, &e.ActorID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
