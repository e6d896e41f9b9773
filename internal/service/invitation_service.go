package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rfpdesk/rfp-backend/internal/email"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// Invitation Service
// ============================================

const (
	companyInvitationTTL = 7 * 24 * time.Hour
	rfpInvitationTTL     = 30 * 24 * time.Hour
)

type InvitationService interface {
	CreateCompanyInvitation(ctx context.Context, actorID, companyID, toEmail, role, message string) (*repository.Invitation, error)
	CreateRfpInvitation(ctx context.Context, actorID, rfpID, toEmail, message string) (*repository.Invitation, error)
	Accept(ctx context.Context, userID, token string) (*repository.Invitation, error)
	Cancel(ctx context.Context, actorID, invitationID string) error
	ListByCompany(ctx context.Context, actorID, companyID string) ([]*repository.Invitation, error)
	ListByRfp(ctx context.Context, actorID, rfpID string) ([]*repository.Invitation, error)
	PendingForEmail(ctx context.Context, emailAddr string) ([]*repository.Invitation, error)
}

type invitationService struct {
	invitationRepo repository.InvitationRepository
	companyRepo    repository.CompanyRepository
	rfpRepo        repository.RfpRepository
	userRepo       repository.UserRepository
	grantRepo      repository.AccessGrantRepository
	membership     MembershipService
	emailSvc       *email.Service
	frontendURL    string
}

func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	companyRepo repository.CompanyRepository,
	rfpRepo repository.RfpRepository,
	userRepo repository.UserRepository,
	grantRepo repository.AccessGrantRepository,
	membership MembershipService,
	emailSvc *email.Service,
	frontendURL string,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		companyRepo:    companyRepo,
		rfpRepo:        rfpRepo,
		userRepo:       userRepo,
		grantRepo:      grantRepo,
		membership:     membership,
		emailSvc:       emailSvc,
		frontendURL:    frontendURL,
	}
}

func (s *invitationService) actor(ctx context.Context, actorID string) (*repository.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}
	return actor, nil
}

func (s *invitationService) inviteURL(token string) string {
	return fmt.Sprintf("%s/invitations/%s", strings.TrimRight(s.frontendURL, "/"), token)
}

// CreateCompanyInvitation invites an email address into a company. Company
// admins invite into their own company; platform admins into any.
func (s *invitationService) CreateCompanyInvitation(ctx context.Context, actorID, companyID, toEmail, role, message string) (*repository.Invitation, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	isCompanyAdmin := actor.CompanyID != nil && *actor.CompanyID == companyID &&
		actor.CompanyRole != nil && *actor.CompanyRole == types.CompanyRoleAdmin
	if actor.Role != types.RoleAdmin && !isCompanyAdmin {
		return nil, ErrForbidden
	}

	toEmail = strings.ToLower(strings.TrimSpace(toEmail))
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return nil, ErrInvalidInput
	}
	if role == "" {
		role = types.CompanyRoleMember
	}
	if role != types.CompanyRoleAdmin && role != types.CompanyRoleMember {
		return nil, ErrInvalidInput
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}

	for _, pending := range s.pendingFor(ctx, toEmail) {
		if pending.Kind == types.InvitationKindCompany && pending.CompanyID != nil && *pending.CompanyID == companyID {
			return nil, ErrConflict
		}
	}

	inv := &repository.Invitation{
		Kind:      types.InvitationKindCompany,
		CompanyID: &companyID,
		Email:     toEmail,
		Role:      role,
		Token:     uuid.New().String(),
		InvitedBy: actorID,
		ExpiresAt: time.Now().Add(companyInvitationTTL),
	}
	if message != "" {
		inv.Message = &message
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	if s.emailSvc != nil {
		go func() {
			if err := s.emailSvc.SendCompanyInvitation(toEmail, email.InvitationEmailData{
				TargetName: company.Name,
				InvitedBy:  actor.Name,
				InviteURL:  s.inviteURL(inv.Token),
				ExpiresAt:  inv.ExpiresAt,
			}); err != nil {
				log.Printf("[EMAIL] ⚠️  Failed to send company invitation to %s: %v", toEmail, err)
			}
		}()
	}
	return inv, nil
}

// CreateRfpInvitation invites an email address onto a confidential RFP.
// Acceptance becomes an individual access grant.
func (s *invitationService) CreateRfpInvitation(ctx context.Context, actorID, rfpID, toEmail, message string) (*repository.Invitation, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}
	if actor.Role != types.RoleAdmin && actor.Role != types.RoleClientReviewer && rfp.CreatedBy != actorID {
		return nil, ErrForbidden
	}

	toEmail = strings.ToLower(strings.TrimSpace(toEmail))
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return nil, ErrInvalidInput
	}

	for _, pending := range s.pendingFor(ctx, toEmail) {
		if pending.Kind == types.InvitationKindRfp && pending.RfpID != nil && *pending.RfpID == rfpID {
			return nil, ErrConflict
		}
	}

	inv := &repository.Invitation{
		Kind:      types.InvitationKindRfp,
		RfpID:     &rfpID,
		Email:     toEmail,
		Role:      types.CompanyRoleMember,
		Token:     uuid.New().String(),
		InvitedBy: actorID,
		ExpiresAt: time.Now().Add(rfpInvitationTTL),
	}
	if message != "" {
		inv.Message = &message
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	if s.emailSvc != nil {
		go func() {
			if err := s.emailSvc.SendRfpInvitation(toEmail, email.InvitationEmailData{
				TargetName: rfp.Title,
				InvitedBy:  actor.Name,
				InviteURL:  s.inviteURL(inv.Token),
				ExpiresAt:  inv.ExpiresAt,
			}); err != nil {
				log.Printf("[EMAIL] ⚠️  Failed to send RFP invitation to %s: %v", toEmail, err)
			}
		}()
	}
	return inv, nil
}

// Accept redeems an invitation token for the logged-in user. The accepting
// account's email must match the invited address.
func (s *invitationService) Accept(ctx context.Context, userID, token string) (*repository.Invitation, error) {
	inv, err := s.invitationRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if inv.Status != types.InvitationPending {
		return nil, ErrConflict
	}
	if time.Now().After(inv.ExpiresAt) {
		inv.Status = types.InvitationExpired
		s.invitationRepo.Update(ctx, inv)
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !strings.EqualFold(user.Email, inv.Email) {
		return nil, ErrForbidden
	}

	switch inv.Kind {
	case types.InvitationKindCompany:
		if err := s.membership.JoinViaInvitation(ctx, userID, *inv.CompanyID, inv.Role, inv.InvitedBy); err != nil {
			return nil, err
		}
	case types.InvitationKindRfp:
		grant := &repository.AccessGrant{
			RfpID:     *inv.RfpID,
			UserID:    userID,
			GrantedBy: &inv.InvitedBy,
		}
		if err := s.grantRepo.Create(ctx, grant); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidInput
	}

	now := time.Now()
	inv.Status = types.InvitationAccepted
	inv.AcceptedBy = &userID
	inv.AcceptedAt = &now
	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invitationService) Cancel(ctx context.Context, actorID, invitationID string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	inv, err := s.invitationRepo.FindByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	if actor.Role != types.RoleAdmin && inv.InvitedBy != actorID {
		return ErrForbidden
	}
	if inv.Status != types.InvitationPending {
		return ErrConflict
	}

	inv.Status = types.InvitationCancelled
	return s.invitationRepo.Update(ctx, inv)
}

func (s *invitationService) ListByCompany(ctx context.Context, actorID, companyID string) ([]*repository.Invitation, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	isCompanyAdmin := actor.CompanyID != nil && *actor.CompanyID == companyID &&
		actor.CompanyRole != nil && *actor.CompanyRole == types.CompanyRoleAdmin
	if actor.Role != types.RoleAdmin && !isCompanyAdmin {
		return nil, ErrForbidden
	}
	return s.invitationRepo.FindByCompanyID(ctx, companyID)
}

func (s *invitationService) ListByRfp(ctx context.Context, actorID, rfpID string) ([]*repository.Invitation, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != types.RoleAdmin && actor.Role != types.RoleClientReviewer {
		return nil, ErrForbidden
	}
	return s.invitationRepo.FindByRfpID(ctx, rfpID)
}

func (s *invitationService) PendingForEmail(ctx context.Context, emailAddr string) ([]*repository.Invitation, error) {
	return s.invitationRepo.FindPendingByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
}

func (s *invitationService) pendingFor(ctx context.Context, emailAddr string) []*repository.Invitation {
	pending, err := s.invitationRepo.FindPendingByEmail(ctx, emailAddr)
	if err != nil {
		log.Printf("[INVITATION] ⚠️  Failed to check pending invitations for %s: %v", emailAddr, err)
		return nil
	}
	return pending
}
