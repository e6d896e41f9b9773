package service

import (
	"context"
	"strings"
	"time"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// Q&A Service
// ============================================

type QuestionService interface {
	Ask(ctx context.Context, req access.Requester, rfpID, body string) (*repository.Question, error)
	Answer(ctx context.Context, req access.Requester, questionID, answer string) (*repository.Question, error)
	ListByRfp(ctx context.Context, req access.Requester, rfpID string) ([]*repository.Question, error)
}

type questionService struct {
	questionRepo repository.QuestionRepository
	rfpRepo      repository.RfpRepository
	grantRepo    repository.AccessGrantRepository
	notifSvc     *notification.Service
	broadcaster  *socket.Broadcaster
}

func NewQuestionService(
	questionRepo repository.QuestionRepository,
	rfpRepo repository.RfpRepository,
	grantRepo repository.AccessGrantRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) QuestionService {
	return &questionService{
		questionRepo: questionRepo,
		rfpRepo:      rfpRepo,
		grantRepo:    grantRepo,
		notifSvc:     notifSvc,
		broadcaster:  broadcaster,
	}
}

func (s *questionService) visibleRfp(ctx context.Context, req access.Requester, rfpID string) (*repository.Rfp, error) {
	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil || !rfpVisibleTo(ctx, s.grantRepo, req, rfp) {
		return nil, ErrNotFound
	}
	return rfp, nil
}

// Ask opens a question on an open RFP.
func (s *questionService) Ask(ctx context.Context, req access.Requester, rfpID, body string) (*repository.Question, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrInvalidInput
	}
	rfp, err := s.visibleRfp(ctx, req, rfpID)
	if err != nil {
		return nil, err
	}
	if types.EffectiveStatus(rfp.Status, rfp.ClosingDate, time.Now()) == types.RfpClosed {
		return nil, ErrRfpClosed
	}

	q := &repository.Question{
		RfpID:     rfpID,
		AuthorID:  req.UserID,
		CompanyID: req.CompanyID,
		Body:      body,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastQuestionAsked(rfpID, map[string]interface{}{
			"questionId": q.ID,
			"rfpId":      rfpID,
			"body":       q.Body,
		}, req.UserID)
	}
	return q, nil
}

// Answer records the administering side's answer. Admins, reviewers, and the
// RFP's creator may answer; answers can be revised.
func (s *questionService) Answer(ctx context.Context, req access.Requester, questionID, answer string) (*repository.Question, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrInvalidInput
	}
	q, err := s.questionRepo.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNotFound
	}
	rfp, err := s.rfpRepo.FindByID(ctx, q.RfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}
	if req.Role != types.RoleAdmin && req.Role != types.RoleClientReviewer && rfp.CreatedBy != req.UserID {
		return nil, ErrForbidden
	}

	now := time.Now()
	q.Answer = &answer
	q.AnsweredBy = &req.UserID
	q.AnsweredAt = &now
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		s.notifSvc.SendQuestionAnswered(ctx, q.AuthorID, rfp.Title, rfp.ID, q.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastQuestionAnswered(q.RfpID, map[string]interface{}{
			"questionId": q.ID,
			"rfpId":      q.RfpID,
			"answer":     answer,
		}, req.UserID)
	}
	return q, nil
}

func (s *questionService) ListByRfp(ctx context.Context, req access.Requester, rfpID string) ([]*repository.Question, error) {
	if _, err := s.visibleRfp(ctx, req, rfpID); err != nil {
		return nil, err
	}
	return s.questionRepo.FindByRfpID(ctx, rfpID)
}
