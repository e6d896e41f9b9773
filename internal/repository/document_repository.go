package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Document struct {
	ID               string
	RfpID            string
	Name             string
	FileKey          string
	ContentType      *string
	Size             *int64
	RequiresNda      bool
	RequiresApproval bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	FindByID(ctx context.Context, id string) (*Document, error)
	FindByRfpID(ctx context.Context, rfpID string) ([]*Document, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
}

type pgDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &pgDocumentRepository{pool: pool}
}

const documentColumns = `id, rfp_id, name, file_key, content_type, size,
	requires_nda, requires_approval, created_at, updated_at`

func (r *pgDocumentRepository) Create(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (rfp_id, name, file_key, content_type, size, requires_nda, requires_approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		doc.RfpID, doc.Name, doc.FileKey, doc.ContentType, doc.Size,
		doc.RequiresNda, doc.RequiresApproval,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *pgDocumentRepository) FindByID(ctx context.Context, id string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc := &Document{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.RfpID, &doc.Name, &doc.FileKey, &doc.ContentType, &doc.Size,
		&doc.RequiresNda, &doc.RequiresApproval, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *pgDocumentRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE rfp_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(
			&doc.ID, &doc.RfpID, &doc.Name, &doc.FileKey, &doc.ContentType, &doc.Size,
			&doc.RequiresNda, &doc.RequiresApproval, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *pgDocumentRepository) Update(ctx context.Context, doc *Document) error {
	query := `
		UPDATE documents
		SET name = $2, file_key = $3, content_type = $4, size = $5,
			requires_nda = $6, requires_approval = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		doc.ID, doc.Name, doc.FileKey, doc.ContentType, doc.Size,
		doc.RequiresNda, doc.RequiresApproval,
	).Scan(&doc.UpdatedAt)
}

func (r *pgDocumentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}
