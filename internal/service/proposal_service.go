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
// Proposal Service
// ============================================

// ProposalInput is the submission payload. Resubmitting replaces the
// company's existing proposal on the same RFP.
type ProposalInput struct {
	Summary string
	FileKey string
}

type ProposalService interface {
	Submit(ctx context.Context, req access.Requester, rfpID string, input ProposalInput) (*repository.Proposal, error)
	Withdraw(ctx context.Context, req access.Requester, proposalID string) error
	ListByRfp(ctx context.Context, req access.Requester, rfpID string) ([]*repository.Proposal, error)
	ListByCompany(ctx context.Context, req access.Requester, companyID string) ([]*repository.Proposal, error)
}

type proposalService struct {
	proposalRepo repository.ProposalRepository
	rfpRepo      repository.RfpRepository
	companyRepo  repository.CompanyRepository
	grantRepo    repository.AccessGrantRepository
	notifSvc     *notification.Service
	broadcaster  *socket.Broadcaster
}

func NewProposalService(
	proposalRepo repository.ProposalRepository,
	rfpRepo repository.RfpRepository,
	companyRepo repository.CompanyRepository,
	grantRepo repository.AccessGrantRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) ProposalService {
	return &proposalService{
		proposalRepo: proposalRepo,
		rfpRepo:      rfpRepo,
		companyRepo:  companyRepo,
		grantRepo:    grantRepo,
		notifSvc:     notifSvc,
		broadcaster:  broadcaster,
	}
}

// Submit files a proposal for the requester's primary company. The closing
// date is checked against the clock, not the cached status column.
func (s *proposalService) Submit(ctx context.Context, req access.Requester, rfpID string, input ProposalInput) (*repository.Proposal, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}
	if req.CompanyID == nil {
		return nil, ErrNoCompany
	}

	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil || !rfpVisibleTo(ctx, s.grantRepo, req, rfp) {
		return nil, ErrNotFound
	}
	if types.EffectiveStatus(rfp.Status, rfp.ClosingDate, time.Now()) == types.RfpClosed {
		return nil, ErrRfpClosed
	}

	p := &repository.Proposal{
		RfpID:       rfpID,
		CompanyID:   *req.CompanyID,
		SubmittedBy: req.UserID,
		SubmittedAt: time.Now(),
	}
	if summary := strings.TrimSpace(input.Summary); summary != "" {
		p.Summary = &summary
	}
	if input.FileKey != "" {
		p.FileKey = &input.FileKey
	}
	if err := s.proposalRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		companyName := *req.CompanyID
		if company, err := s.companyRepo.FindByID(ctx, *req.CompanyID); err == nil && company != nil {
			companyName = company.Name
		}
		s.notifSvc.SendProposalSubmitted(ctx, rfp.CreatedBy, rfp.Title, rfp.ID, companyName)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastProposalSubmitted(rfpID, map[string]interface{}{
			"proposalId": p.ID,
			"rfpId":      rfpID,
			"companyId":  p.CompanyID,
		}, req.UserID)
	}
	return p, nil
}

// Withdraw retracts a submitted proposal. Any member of the submitting
// company may withdraw it.
func (s *proposalService) Withdraw(ctx context.Context, req access.Requester, proposalID string) error {
	p, err := s.proposalRepo.FindByID(ctx, proposalID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	sameCompany := req.CompanyID != nil && *req.CompanyID == p.CompanyID
	if req.Role != types.RoleAdmin && !sameCompany {
		return ErrForbidden
	}
	if p.Status == types.ProposalWithdrawn {
		return ErrConflict
	}

	now := time.Now()
	p.Status = types.ProposalWithdrawn
	p.WithdrawnAt = &now
	if err := s.proposalRepo.Update(ctx, p); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastProposalWithdrawn(p.RfpID, proposalID, req.UserID)
	}
	return nil
}

// ListByRfp shows all proposals on an RFP to the administering side only.
func (s *proposalService) ListByRfp(ctx context.Context, req access.Requester, rfpID string) ([]*repository.Proposal, error) {
	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}
	if req.Role != types.RoleAdmin && req.Role != types.RoleClientReviewer && rfp.CreatedBy != req.UserID {
		return nil, ErrForbidden
	}
	return s.proposalRepo.FindByRfpID(ctx, rfpID)
}

// ListByCompany shows a company its own submissions.
func (s *proposalService) ListByCompany(ctx context.Context, req access.Requester, companyID string) ([]*repository.Proposal, error) {
	sameCompany := req.CompanyID != nil && *req.CompanyID == companyID
	if req.Role != types.RoleAdmin && !sameCompany {
		return nil, ErrForbidden
	}
	return s.proposalRepo.FindByCompanyID(ctx, companyID)
}
