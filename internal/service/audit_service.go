package service

import (
	"context"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// Audit Service
// ============================================

const defaultAuditLimit = 100

// AuditService exposes the append-only audit log to platform admins. Writes
// go through the owning services; this is read-side only.
type AuditService interface {
	Recent(ctx context.Context, actorID string, limit int) ([]*repository.AuditEntry, error)
	ByEntity(ctx context.Context, actorID, entityType, entityID string) ([]*repository.AuditEntry, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	userRepo  repository.UserRepository
}

func NewAuditService(auditRepo repository.AuditRepository, userRepo repository.UserRepository) AuditService {
	return &auditService{auditRepo: auditRepo, userRepo: userRepo}
}

func (s *auditService) requireAdmin(ctx context.Context, actorID string) error {
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
	return nil
}

func (s *auditService) Recent(ctx context.Context, actorID string, limit int) ([]*repository.AuditEntry, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = defaultAuditLimit
	}
	return s.auditRepo.FindRecent(ctx, limit)
}

func (s *auditService) ByEntity(ctx context.Context, actorID, entityType, entityID string) ([]*repository.AuditEntry, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if entityType == "" || entityID == "" {
		return nil, ErrInvalidInput
	}
	return s.auditRepo.FindByEntity(ctx, entityType, entityID)
}
