package service

import (
	"context"
	"time"

	"github.com/rfpdesk/rfp-backend/internal/db"
	"github.com/rfpdesk/rfp-backend/internal/repository"
)

// ============================================
// Identity Service
// ============================================

// Identity is a resolved view of who a user is: platform role, primary
// company pair, and active collaborator memberships.
type Identity struct {
	UserID      string                    `json:"userId"`
	Name        string                    `json:"name"`
	Email       string                    `json:"email"`
	Role        string                    `json:"role"`
	CompanyID   *string                   `json:"companyId,omitempty"`
	CompanyRole *string                   `json:"companyRole,omitempty"`
	Secondary   []*repository.Affiliation `json:"secondaryMemberships,omitempty"`
}

// IdentityService resolves user identity through a direct users-table lookup.
// It deliberately never consults any access-controlled query: resolving "is
// this user an admin" must not depend on a predicate that itself needs an
// admin check.
type IdentityService interface {
	Resolve(ctx context.Context, userID string) (*Identity, error)
	Invalidate(ctx context.Context, userID string)
}

type identityService struct {
	userRepo        repository.UserRepository
	affiliationRepo repository.AffiliationRepository
	redis           *db.RedisDB
}

const identityCacheTTL = 5 * time.Minute

func NewIdentityService(userRepo repository.UserRepository, affiliationRepo repository.AffiliationRepository, redis *db.RedisDB) IdentityService {
	return &identityService{
		userRepo:        userRepo,
		affiliationRepo: affiliationRepo,
		redis:           redis,
	}
}

func (s *identityService) Resolve(ctx context.Context, userID string) (*Identity, error) {
	if s.redis != nil {
		var cached Identity
		if err := s.redis.GetIdentity(ctx, userID, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	secondaries, err := s.affiliationRepo.FindActiveSecondaries(ctx, userID)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		CompanyID:   user.CompanyID,
		CompanyRole: user.CompanyRole,
		Secondary:   secondaries,
	}

	if s.redis != nil {
		// Best effort; a cold cache just means another lookup.
		_ = s.redis.SetIdentity(ctx, userID, identity, identityCacheTTL)
	}

	return identity, nil
}

func (s *identityService) Invalidate(ctx context.Context, userID string) {
	if s.redis != nil {
		_ = s.redis.DeleteIdentity(ctx, userID)
	}
}
