package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Question is a Q&A thread entry on an RFP. Questions are visible to anyone
// who can see the RFP; answers come from the administering organization.
type Question struct {
	ID         string
	RfpID      string
	AuthorID   string
	CompanyID  *string
	Body       string
	Answer     *string
	AnsweredBy *string
	AnsweredAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type QuestionRepository interface {
	Create(ctx context.Context, q *Question) error
	FindByID(ctx context.Context, id string) (*Question, error)
	FindByRfpID(ctx context.Context, rfpID string) ([]*Question, error)
	Update(ctx context.Context, q *Question) error
}

type pgQuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) QuestionRepository {
	return &pgQuestionRepository{pool: pool}
}

const questionColumns = `id, rfp_id, author_id, company_id, body, answer,
	answered_by, answered_at, created_at, updated_at`

func (r *pgQuestionRepository) Create(ctx context.Context, q *Question) error {
	query := `
		INSERT INTO rfp_questions (rfp_id, author_id, company_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query, q.RfpID, q.AuthorID, q.CompanyID, q.Body).
		Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

func (r *pgQuestionRepository) FindByID(ctx context.Context, id string) (*Question, error) {
	query := `SELECT ` + questionColumns + ` FROM rfp_questions WHERE id = $1`
	q := &Question{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.RfpID, &q.AuthorID, &q.CompanyID, &q.Body, &q.Answer,
		&q.AnsweredBy, &q.AnsweredAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *pgQuestionRepository) FindByRfpID(ctx context.Context, rfpID string) ([]*Question, error) {
	query := `SELECT ` + questionColumns + ` FROM rfp_questions WHERE rfp_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		q := &Question{}
		if err := rows.Scan(
			&q.ID, &q.RfpID, &q.AuthorID, &q.CompanyID, &q.Body, &q.Answer,
			&q.AnsweredBy, &q.AnsweredAt, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *pgQuestionRepository) Update(ctx context.Context, q *Question) error {
	query := `
		UPDATE rfp_questions
		SET body = $2, answer = $3, answered_by = $4, answered_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, q.ID, q.Body, q.Answer, q.AnsweredBy, q.AnsweredAt).
		Scan(&q.UpdatedAt)
}
