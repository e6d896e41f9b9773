package service

import (
	"context"
	"log"
	"time"

	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// Interest Registration Service
// ============================================

// RegistrationResult reports whether Register found an existing registration
// instead of creating one. Re-registering is not an error.
type RegistrationResult struct {
	Registration *repository.InterestRegistration `json:"registration"`
	Duplicate    bool                             `json:"duplicate"`
}

type RegistrationService interface {
	Register(ctx context.Context, userID, rfpID string) (*RegistrationResult, error)
	Approve(ctx context.Context, actorID, registrationID string) error
	Reject(ctx context.Context, actorID, registrationID, reason string) error
	ListByRfp(ctx context.Context, actorID, rfpID string) ([]*repository.InterestRegistration, error)
	ListByCompany(ctx context.Context, companyID string) ([]*repository.InterestRegistration, error)
}

type registrationService struct {
	registrationRepo repository.RegistrationRepository
	rfpRepo          repository.RfpRepository
	userRepo         repository.UserRepository
	auditRepo        repository.AuditRepository
	notifSvc         *notification.Service
	broadcaster      *socket.Broadcaster
}

func NewRegistrationService(
	registrationRepo repository.RegistrationRepository,
	rfpRepo repository.RfpRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		rfpRepo:          rfpRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		notifSvc:         notifSvc,
		broadcaster:      broadcaster,
	}
}

func (s *registrationService) audit(ctx context.Context, actorID, action, registrationID string, detail map[string]interface{}) {
	entry := &repository.AuditEntry{
		ActorID:    &actorID,
		Action:     action,
		EntityType: "registration",
		EntityID:   registrationID,
		Detail:     detail,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		log.Printf("[AUDIT] ⚠️  Failed to record %s for registration %s: %v", action, registrationID, err)
	}
}

// Register files interest on behalf of the user's primary company. The RFP
// must still be open by its closing date, whatever the stored status says.
func (s *registrationService) Register(ctx context.Context, userID, rfpID string) (*RegistrationResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.CompanyID == nil {
		return nil, ErrNoCompany
	}

	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil || rfp.Status == types.RfpDraft {
		return nil, ErrNotFound
	}
	if types.EffectiveStatus(rfp.Status, rfp.ClosingDate, time.Now()) == types.RfpClosed {
		return nil, ErrRfpClosed
	}

	existing, err := s.registrationRepo.Find(ctx, rfpID, *user.CompanyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &RegistrationResult{Registration: existing, Duplicate: true}, nil
	}

	reg := &repository.InterestRegistration{
		RfpID:        rfpID,
		CompanyID:    *user.CompanyID,
		RegistrantID: userID,
	}
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		return nil, err
	}
	s.audit(ctx, userID, "interest_registered", reg.ID, map[string]interface{}{
		"rfpId":     rfpID,
		"companyId": *user.CompanyID,
	})

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRegistrationSubmitted(rfpID, map[string]interface{}{
			"registrationId": reg.ID,
			"rfpId":          rfpID,
			"companyId":      reg.CompanyID,
		}, userID)
	}
	return &RegistrationResult{Registration: reg}, nil
}

// Approve grants the registration. Platform admin only.
func (s *registrationService) Approve(ctx context.Context, actorID, registrationID string) error {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return ErrUserNotFound
	}
	if actor.Role != types.RoleAdmin {
		return ErrForbidden
	}

	reg, err := s.registrationRepo.FindByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg == nil {
		return ErrNotFound
	}
	if reg.Status != types.RegistrationPending {
		// A rejected registration stays rejected; the company files again.
		return ErrConflict
	}

	now := time.Now()
	reg.Status = types.RegistrationApproved
	reg.DecidedBy = &actorID
	reg.DecidedAt = &now
	if err := s.registrationRepo.Update(ctx, reg); err != nil {
		return err
	}
	s.audit(ctx, actorID, "registration_approved", registrationID, nil)

	rfp, _ := s.rfpRepo.FindByID(ctx, reg.RfpID)
	title := reg.RfpID
	if rfp != nil {
		title = rfp.Title
	}
	if s.notifSvc != nil {
		// Approval matters to the whole company, not just whoever filed it.
		s.notifSvc.SendCompanyRegistrationApproved(ctx, reg.CompanyID, title, reg.RfpID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRegistrationDecided(reg.CompanyID, map[string]interface{}{
			"registrationId": reg.ID,
			"rfpId":          reg.RfpID,
			"status":         reg.Status,
		})
	}
	return nil
}

// Reject denies the registration with a mandatory reason. Platform admin only.
func (s *registrationService) Reject(ctx context.Context, actorID, registrationID, reason string) error {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return ErrUserNotFound
	}
	if actor.Role != types.RoleAdmin {
		return ErrForbidden
	}
	if reason == "" {
		return ErrInvalidInput
	}

	reg, err := s.registrationRepo.FindByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg == nil {
		return ErrNotFound
	}
	if reg.Status != types.RegistrationPending {
		return ErrConflict
	}

	now := time.Now()
	reg.Status = types.RegistrationRejected
	reg.Reason = &reason
	reg.DecidedBy = &actorID
	reg.DecidedAt = &now
	if err := s.registrationRepo.Update(ctx, reg); err != nil {
		return err
	}
	s.audit(ctx, actorID, "registration_rejected", registrationID, map[string]interface{}{"reason": reason})

	rfp, _ := s.rfpRepo.FindByID(ctx, reg.RfpID)
	title := reg.RfpID
	if rfp != nil {
		title = rfp.Title
	}
	if s.notifSvc != nil {
		// Only the registrant hears about a rejection.
		s.notifSvc.SendRegistrationRejected(ctx, reg.RegistrantID, title, reg.RfpID, reason)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRegistrationDecided(reg.CompanyID, map[string]interface{}{
			"registrationId": reg.ID,
			"rfpId":          reg.RfpID,
			"status":         reg.Status,
		})
	}
	return nil
}

func (s *registrationService) ListByRfp(ctx context.Context, actorID, rfpID string) ([]*repository.InterestRegistration, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}
	if actor.Role != types.RoleAdmin && actor.Role != types.RoleClientReviewer {
		return nil, ErrForbidden
	}
	return s.registrationRepo.FindByRfpID(ctx, rfpID)
}

func (s *registrationService) ListByCompany(ctx context.Context, companyID string) ([]*repository.InterestRegistration, error) {
	return s.registrationRepo.FindByCompanyID(ctx, companyID)
}
