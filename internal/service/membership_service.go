package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// Membership Service
// ============================================

type MembershipService interface {
	// Manual join requests
	RequestJoin(ctx context.Context, userID, companyID, message string) (*repository.Affiliation, error)
	PendingRequests(ctx context.Context, actorID, companyID string) ([]*repository.Affiliation, error)
	ApproveJoin(ctx context.Context, approverID, affiliationID, role string) error
	RejectJoin(ctx context.Context, approverID, affiliationID, reason string) error

	// Leaving and admin management
	Leave(ctx context.Context, userID string) error
	AssignCompany(ctx context.Context, adminID, userID, companyID, kind, role string) error
	SetMemberRole(ctx context.Context, actorID, memberID, role string) error

	// Auto-join
	AutoJoin(ctx context.Context, user *repository.User) (*repository.Company, []*repository.Company, error)
	ConfirmAutoJoin(ctx context.Context, userID, companyID string) (*repository.Company, error)

	// Invitation acceptance
	JoinViaInvitation(ctx context.Context, userID, companyID, role, invitedBy string) error

	// Views
	Memberships(ctx context.Context, userID string) ([]*repository.Affiliation, error)
	CompanyMembers(ctx context.Context, companyID string) ([]*repository.User, error)
}

type membershipService struct {
	userRepo        repository.UserRepository
	companyRepo     repository.CompanyRepository
	affiliationRepo repository.AffiliationRepository
	auditRepo       repository.AuditRepository
	identity        IdentityService
	notifSvc        *notification.Service
	broadcaster     *socket.Broadcaster
}

func NewMembershipService(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	affiliationRepo repository.AffiliationRepository,
	auditRepo repository.AuditRepository,
	identity IdentityService,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) MembershipService {
	return &membershipService{
		userRepo:        userRepo,
		companyRepo:     companyRepo,
		affiliationRepo: affiliationRepo,
		auditRepo:       auditRepo,
		identity:        identity,
		notifSvc:        notifSvc,
		broadcaster:     broadcaster,
	}
}

// isCompanyAdmin reports whether the actor administers the company. Platform
// admins always qualify. The check reads the users table directly.
func (s *membershipService) isCompanyAdmin(ctx context.Context, actorID, companyID string) (bool, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, ErrUserNotFound
	}
	if actor.Role == types.RoleAdmin {
		return true, nil
	}
	return actor.CompanyID != nil && *actor.CompanyID == companyID &&
		actor.CompanyRole != nil && *actor.CompanyRole == types.CompanyRoleAdmin, nil
}

func (s *membershipService) audit(ctx context.Context, actorID, action, entityType, entityID string, detail map[string]interface{}) {
	entry := &repository.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		// Audit writes must not fail the transition they describe.
		log.Printf("[Membership] audit append failed: %v", err)
	}
}

// ============================================
// Manual Join Requests
// ============================================

func (s *membershipService) RequestJoin(ctx context.Context, userID, companyID, message string) (*repository.Affiliation, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.CompanyID != nil {
		return nil, fmt.Errorf("%w: leave your current company first", ErrConflict)
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}

	// One open request per user per company.
	existing, err := s.affiliationRepo.FindPendingByUser(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: join request already pending", ErrConflict)
	}

	aff := &repository.Affiliation{
		UserID:     userID,
		CompanyID:  companyID,
		Kind:       types.AffiliationPending,
		Role:       types.CompanyRolePending,
		Status:     types.MembershipActive,
		JoinMethod: types.JoinMethodRequest,
	}
	if message != "" {
		aff.Message = &message
	}
	if err := s.affiliationRepo.Create(ctx, aff); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		s.notifSvc.SendJoinRequested(ctx, companyID, company.Name, user.Name, aff.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastJoinRequestOpened(companyID, map[string]interface{}{
			"requestId": aff.ID,
			"userId":    userID,
			"userName":  user.Name,
		})
	}
	return aff, nil
}

func (s *membershipService) PendingRequests(ctx context.Context, actorID, companyID string) ([]*repository.Affiliation, error) {
	ok, err := s.isCompanyAdmin(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.affiliationRepo.FindPendingByCompany(ctx, companyID)
}

func (s *membershipService) ApproveJoin(ctx context.Context, approverID, affiliationID, role string) error {
	aff, err := s.affiliationRepo.FindByID(ctx, affiliationID)
	if err != nil {
		return err
	}
	if aff == nil || aff.Kind != types.AffiliationPending {
		return ErrNotFound
	}

	ok, err := s.isCompanyAdmin(ctx, approverID, aff.CompanyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	if role == "" {
		role = types.CompanyRoleMember
	}
	if role != types.CompanyRoleAdmin && role != types.CompanyRoleMember {
		return ErrInvalidInput
	}

	// The requester may have joined another company while this sat pending.
	user, err := s.userRepo.FindByID(ctx, aff.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.CompanyID != nil {
		return fmt.Errorf("%w: user already belongs to a company", ErrConflict)
	}

	now := time.Now()
	aff.Kind = types.AffiliationPrimary
	aff.Role = role
	aff.DecidedBy = &approverID
	aff.DecidedAt = &now
	if err := s.affiliationRepo.Update(ctx, aff); err != nil {
		return err
	}
	if err := s.userRepo.SetPrimaryCompany(ctx, aff.UserID, &aff.CompanyID, &role); err != nil {
		return err
	}
	s.identity.Invalidate(ctx, aff.UserID)

	company, _ := s.companyRepo.FindByID(ctx, aff.CompanyID)
	companyName := aff.CompanyID
	if company != nil {
		companyName = company.Name
	}
	if s.notifSvc != nil {
		s.notifSvc.SendJoinApproved(ctx, aff.UserID, companyName, aff.CompanyID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberJoined(aff.CompanyID, map[string]interface{}{
			"userId": aff.UserID,
			"role":   role,
		}, approverID)
	}
	s.audit(ctx, approverID, "join_approved", "affiliation", aff.ID, map[string]interface{}{
		"userId":    aff.UserID,
		"companyId": aff.CompanyID,
		"role":      role,
	})
	return nil
}

func (s *membershipService) RejectJoin(ctx context.Context, approverID, affiliationID, reason string) error {
	aff, err := s.affiliationRepo.FindByID(ctx, affiliationID)
	if err != nil {
		return err
	}
	if aff == nil || aff.Kind != types.AffiliationPending {
		return ErrNotFound
	}

	ok, err := s.isCompanyAdmin(ctx, approverID, aff.CompanyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	// Remove the pending row so the user can request again later.
	if err := s.affiliationRepo.Delete(ctx, aff.ID); err != nil {
		return err
	}

	company, _ := s.companyRepo.FindByID(ctx, aff.CompanyID)
	companyName := aff.CompanyID
	if company != nil {
		companyName = company.Name
	}
	if s.notifSvc != nil {
		s.notifSvc.SendJoinRejected(ctx, aff.UserID, companyName, reason)
	}
	s.audit(ctx, approverID, "join_rejected", "affiliation", aff.ID, map[string]interface{}{
		"userId":    aff.UserID,
		"companyId": aff.CompanyID,
		"reason":    reason,
	})
	return nil
}

// ============================================
// Leaving & Admin Management
// ============================================

func (s *membershipService) Leave(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.CompanyID == nil {
		return ErrNoCompany
	}
	companyID := *user.CompanyID

	// Sole-admin guard: the last admin must transfer adminship first.
	if user.CompanyRole != nil && *user.CompanyRole == types.CompanyRoleAdmin {
		count, err := s.userRepo.CountCompanyAdmins(ctx, companyID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.userRepo.SetPrimaryCompany(ctx, userID, nil, nil); err != nil {
		return err
	}

	affs, err := s.affiliationRepo.FindByUserAndCompany(ctx, userID, companyID)
	if err == nil {
		for _, aff := range affs {
			if aff.Kind == types.AffiliationPrimary {
				s.affiliationRepo.Delete(ctx, aff.ID)
			}
		}
	}
	s.identity.Invalidate(ctx, userID)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberLeft(companyID, userID, userID)
	}
	s.audit(ctx, userID, "left_company", "company", companyID, map[string]interface{}{
		"userId": userID,
	})
	return nil
}

// AssignCompany lets a platform admin place a user into a company directly,
// bypassing the request flow. Always audited.
func (s *membershipService) AssignCompany(ctx context.Context, adminID, userID, companyID, kind, role string) error {
	admin, err := s.userRepo.FindByID(ctx, adminID)
	if err != nil {
		return err
	}
	if admin == nil || admin.Role != types.RoleAdmin {
		return ErrForbidden
	}

	if kind != types.AffiliationPrimary && kind != types.AffiliationSecondary {
		return ErrInvalidInput
	}
	if role == "" {
		role = types.CompanyRoleMember
	}
	if role != types.CompanyRoleAdmin && role != types.CompanyRoleMember {
		return ErrInvalidInput
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return ErrNotFound
	}

	aff := &repository.Affiliation{
		UserID:     userID,
		CompanyID:  companyID,
		Kind:       kind,
		Role:       role,
		Status:     types.MembershipActive,
		JoinMethod: types.JoinMethodAdminAssigned,
		DecidedBy:  &adminID,
	}
	now := time.Now()
	aff.DecidedAt = &now
	if err := s.affiliationRepo.Create(ctx, aff); err != nil {
		return err
	}

	if kind == types.AffiliationPrimary {
		if err := s.userRepo.SetPrimaryCompany(ctx, userID, &companyID, &role); err != nil {
			return err
		}
	}
	s.identity.Invalidate(ctx, userID)

	if s.notifSvc != nil {
		s.notifSvc.SendCompanyAssigned(ctx, userID, company.Name, companyID, role)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberJoined(companyID, map[string]interface{}{
			"userId": userID,
			"role":   role,
			"kind":   kind,
		}, adminID)
	}
	s.audit(ctx, adminID, "admin_assigned", "affiliation", aff.ID, map[string]interface{}{
		"userId":    userID,
		"companyId": companyID,
		"kind":      kind,
		"role":      role,
	})
	return nil
}

// SetMemberRole promotes or demotes a primary member within the actor's
// company. Demoting the last admin is refused.
func (s *membershipService) SetMemberRole(ctx context.Context, actorID, memberID, role string) error {
	if role != types.CompanyRoleAdmin && role != types.CompanyRoleMember {
		return ErrInvalidInput
	}

	member, err := s.userRepo.FindByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil || member.CompanyID == nil {
		return ErrNotFound
	}
	companyID := *member.CompanyID

	ok, err := s.isCompanyAdmin(ctx, actorID, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	if role == types.CompanyRoleMember &&
		member.CompanyRole != nil && *member.CompanyRole == types.CompanyRoleAdmin {
		count, err := s.userRepo.CountCompanyAdmins(ctx, companyID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.userRepo.SetPrimaryCompany(ctx, memberID, &companyID, &role); err != nil {
		return err
	}
	affs, err := s.affiliationRepo.FindByUserAndCompany(ctx, memberID, companyID)
	if err == nil {
		for _, aff := range affs {
			if aff.Kind == types.AffiliationPrimary {
				aff.Role = role
				s.affiliationRepo.Update(ctx, aff)
			}
		}
	}
	s.identity.Invalidate(ctx, memberID)

	s.audit(ctx, actorID, "member_role_changed", "user", memberID, map[string]interface{}{
		"companyId": companyID,
		"role":      role,
	})
	return nil
}

// ============================================
// Auto-Join
// ============================================

// AutoJoin runs at signup. Consumer email domains never match. A single
// verified-domain company joins the user immediately as a member; multiple
// matches are returned as candidates for explicit choice.
func (s *membershipService) AutoJoin(ctx context.Context, user *repository.User) (*repository.Company, []*repository.Company, error) {
	domain := types.EmailDomain(user.Email)
	if domain == "" || types.IsConsumerEmailDomain(domain) {
		return nil, nil, nil
	}

	matches, err := s.companyRepo.FindAutoJoinByDomain(ctx, domain)
	if err != nil {
		return nil, nil, err
	}

	var candidates []*repository.Company
	for _, c := range matches {
		if companyBlocksDomain(c, domain) {
			continue
		}
		candidates = append(candidates, c)
	}

	switch len(candidates) {
	case 0:
		return nil, nil, nil
	case 1:
		company := candidates[0]
		if err := s.autoJoinInto(ctx, user, company); err != nil {
			return nil, nil, err
		}
		return company, nil, nil
	default:
		return nil, candidates, nil
	}
}

// ConfirmAutoJoin completes the multi-candidate path: the user picks one of
// the companies their domain matched.
func (s *membershipService) ConfirmAutoJoin(ctx context.Context, userID, companyID string) (*repository.Company, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.CompanyID != nil {
		return nil, fmt.Errorf("%w: already a member of a company", ErrConflict)
	}

	domain := types.EmailDomain(user.Email)
	if domain == "" || types.IsConsumerEmailDomain(domain) {
		return nil, ErrForbidden
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}
	if !company.AutoJoinEnabled || company.VerifiedDomain == nil ||
		!equalDomain(*company.VerifiedDomain, domain) || companyBlocksDomain(company, domain) {
		return nil, ErrForbidden
	}

	if err := s.autoJoinInto(ctx, user, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *membershipService) autoJoinInto(ctx context.Context, user *repository.User, company *repository.Company) error {
	role := types.CompanyRoleMember
	aff := &repository.Affiliation{
		UserID:     user.ID,
		CompanyID:  company.ID,
		Kind:       types.AffiliationPrimary,
		Role:       role,
		Status:     types.MembershipActive,
		JoinMethod: types.JoinMethodAutoJoined,
	}
	if err := s.affiliationRepo.Create(ctx, aff); err != nil {
		return err
	}
	if err := s.userRepo.SetPrimaryCompany(ctx, user.ID, &company.ID, &role); err != nil {
		return err
	}
	s.identity.Invalidate(ctx, user.ID)

	s.audit(ctx, user.ID, "auto_joined", "affiliation", aff.ID, map[string]interface{}{
		"userId":    user.ID,
		"companyId": company.ID,
		"domain":    types.EmailDomain(user.Email),
	})
	if s.notifSvc != nil {
		s.notifSvc.SendAutoJoined(ctx, user.ID, user.Name, company.Name, company.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberJoined(company.ID, map[string]interface{}{
			"userId": user.ID,
			"role":   role,
			"kind":   types.AffiliationPrimary,
		}, user.ID)
	}
	return nil
}

// JoinViaInvitation places an invited user into a company as their primary
// affiliation. The invitation flow has already validated the token; this only
// enforces that the user is still companyless.
func (s *membershipService) JoinViaInvitation(ctx context.Context, userID, companyID, role, invitedBy string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.CompanyID != nil {
		return fmt.Errorf("%w: already a member of a company", ErrConflict)
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return ErrNotFound
	}

	if role != types.CompanyRoleAdmin && role != types.CompanyRoleMember {
		role = types.CompanyRoleMember
	}
	now := time.Now()
	aff := &repository.Affiliation{
		UserID:     userID,
		CompanyID:  companyID,
		Kind:       types.AffiliationPrimary,
		Role:       role,
		Status:     types.MembershipActive,
		JoinMethod: types.JoinMethodInvite,
		DecidedBy:  &invitedBy,
		DecidedAt:  &now,
	}
	if err := s.affiliationRepo.Create(ctx, aff); err != nil {
		return err
	}
	if err := s.userRepo.SetPrimaryCompany(ctx, userID, &companyID, &role); err != nil {
		return err
	}
	s.identity.Invalidate(ctx, userID)

	s.audit(ctx, userID, "joined_via_invitation", "affiliation", aff.ID, map[string]interface{}{
		"userId":    userID,
		"companyId": companyID,
		"invitedBy": invitedBy,
	})
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberJoined(companyID, map[string]interface{}{
			"userId": userID,
			"role":   role,
			"kind":   types.AffiliationPrimary,
		}, userID)
	}
	return nil
}

func companyBlocksDomain(c *repository.Company, domain string) bool {
	for _, blocked := range c.BlockedDomains {
		if equalDomain(blocked, domain) {
			return true
		}
	}
	return false
}

func equalDomain(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ============================================
// Views
// ============================================

func (s *membershipService) Memberships(ctx context.Context, userID string) ([]*repository.Affiliation, error) {
	return s.affiliationRepo.FindByUserID(ctx, userID)
}

func (s *membershipService) CompanyMembers(ctx context.Context, companyID string) ([]*repository.User, error) {
	return s.userRepo.FindByPrimaryCompany(ctx, companyID)
}
