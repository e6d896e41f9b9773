package service

import (
	"context"
	"log"
	"strings"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// Company Service
// ============================================

// CompanyInput is the create/update payload for a company profile.
type CompanyInput struct {
	Name        string
	Description *string
	Website     *string
}

// DomainSettingsInput updates the auto-join configuration of a company.
type DomainSettingsInput struct {
	AutoJoinEnabled bool
	VerifiedDomain  *string
	BlockedDomains  []string
}

type CompanyService interface {
	Create(ctx context.Context, actorID string, input CompanyInput) (*repository.Company, error)
	Get(ctx context.Context, id string) (*repository.Company, error)
	List(ctx context.Context) ([]*repository.Company, error)
	Update(ctx context.Context, actorID, companyID string, input CompanyInput) (*repository.Company, error)
	SetVerificationStatus(ctx context.Context, actorID, companyID, status string) error
	SetDomainSettings(ctx context.Context, actorID, companyID string, input DomainSettingsInput) (*repository.Company, error)
	Delete(ctx context.Context, actorID, companyID string) error
}

type companyService struct {
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
}

func NewCompanyService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
	}
}

func (s *companyService) audit(ctx context.Context, actorID, action, companyID string, detail map[string]interface{}) {
	entry := &repository.AuditEntry{
		ActorID:    &actorID,
		Action:     action,
		EntityType: "company",
		EntityID:   companyID,
		Detail:     detail,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		log.Printf("[AUDIT] ⚠️  Failed to record %s for company %s: %v", action, companyID, err)
	}
}

// actor loads the acting user, or ErrUserNotFound.
func (s *companyService) actor(ctx context.Context, actorID string) (*repository.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}
	return actor, nil
}

// canManage reports whether the actor may edit a company profile: platform
// admins always, company admins for their own primary company.
func (s *companyService) canManage(actor *repository.User, companyID string) bool {
	if actor.Role == types.RoleAdmin {
		return true
	}
	return actor.CompanyID != nil && *actor.CompanyID == companyID &&
		actor.CompanyRole != nil && *actor.CompanyRole == types.CompanyRoleAdmin
}

func (s *companyService) Create(ctx context.Context, actorID string, input CompanyInput) (*repository.Company, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrInvalidInput
	}
	existing, err := s.companyRepo.FindByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	company := &repository.Company{
		Name:               input.Name,
		Description:        input.Description,
		Website:            input.Website,
		VerificationStatus: "unverified",
		CreatedBy:          actorID,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}
	s.audit(ctx, actorID, "company_created", company.ID, map[string]interface{}{"name": company.Name})
	return company, nil
}

func (s *companyService) Get(ctx context.Context, id string) (*repository.Company, error) {
	company, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}
	return company, nil
}

func (s *companyService) List(ctx context.Context) ([]*repository.Company, error) {
	return s.companyRepo.FindAll(ctx)
}

func (s *companyService) Update(ctx context.Context, actorID, companyID string, input CompanyInput) (*repository.Company, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, companyID) {
		return nil, ErrForbidden
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}

	if name := strings.TrimSpace(input.Name); name != "" && !strings.EqualFold(name, company.Name) {
		existing, err := s.companyRepo.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != companyID {
			return nil, ErrConflict
		}
		company.Name = name
	}
	if input.Description != nil {
		company.Description = input.Description
	}
	if input.Website != nil {
		company.Website = input.Website
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	s.audit(ctx, actorID, "company_updated", companyID, nil)
	return company, nil
}

// SetVerificationStatus is a platform-admin operation. Verification is a
// prerequisite for enabling domain auto-join.
func (s *companyService) SetVerificationStatus(ctx context.Context, actorID, companyID, status string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != types.RoleAdmin {
		return ErrForbidden
	}
	switch status {
	case "unverified", "verified", "rejected":
	default:
		return ErrInvalidInput
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return ErrNotFound
	}

	previous := company.VerificationStatus
	company.VerificationStatus = status
	if status != "verified" {
		// Auto-join is only honored for verified companies.
		company.AutoJoinEnabled = false
	}
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return err
	}
	s.audit(ctx, actorID, "company_verification_changed", companyID, map[string]interface{}{
		"from": previous,
		"to":   status,
	})
	return nil
}

func (s *companyService) SetDomainSettings(ctx context.Context, actorID, companyID string, input DomainSettingsInput) (*repository.Company, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, companyID) {
		return nil, ErrForbidden
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}

	var domain *string
	if input.VerifiedDomain != nil {
		d := strings.ToLower(strings.TrimSpace(*input.VerifiedDomain))
		if d != "" {
			if types.IsConsumerEmailDomain(d) {
				return nil, ErrInvalidInput
			}
			domain = &d
		}
	}
	if input.AutoJoinEnabled {
		if company.VerificationStatus != "verified" {
			return nil, ErrForbidden
		}
		if domain == nil {
			return nil, ErrInvalidInput
		}
	}

	blocked := make([]string, 0, len(input.BlockedDomains))
	for _, b := range input.BlockedDomains {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			blocked = append(blocked, b)
		}
	}

	company.AutoJoinEnabled = input.AutoJoinEnabled
	company.VerifiedDomain = domain
	company.BlockedDomains = blocked
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	s.audit(ctx, actorID, "company_domain_settings_changed", companyID, map[string]interface{}{
		"autoJoinEnabled": input.AutoJoinEnabled,
		"verifiedDomain":  company.VerifiedDomain,
	})
	return company, nil
}

func (s *companyService) Delete(ctx context.Context, actorID, companyID string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != types.RoleAdmin {
		return ErrForbidden
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return ErrNotFound
	}
	if err := s.companyRepo.Delete(ctx, companyID); err != nil {
		return err
	}
	s.audit(ctx, actorID, "company_deleted", companyID, map[string]interface{}{"name": company.Name})
	return nil
}
