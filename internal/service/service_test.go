package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/config"
	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// fixture wires every service over in-memory repositories. No broadcaster,
// no email, no redis: the paths under test guard those as optional.
type fixture struct {
	repos    *repository.Repositories
	cfg      *config.Config
	services *Services
}

func newFixture() *fixture {
	repos := repository.NewMemoryRepositories()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     24,
		RefreshExpiry: 7,
		FrontendURL:   "http://localhost:5173",
	}
	notifSvc := notification.NewService(repos.NotificationRepo, repos.UserRepo)
	services := NewServices(&ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		NotifSvc: notifSvc,
	})
	return &fixture{repos: repos, cfg: cfg, services: services}
}

func (f *fixture) createUser(t *testing.T, name, email, role string) *repository.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &repository.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	require.NoError(t, f.repos.UserRepo.Create(context.Background(), user))
	return user
}

func (f *fixture) createCompany(t *testing.T, name, createdBy string) *repository.Company {
	t.Helper()
	company := &repository.Company{
		Name:               name,
		VerificationStatus: "verified",
		CreatedBy:          createdBy,
	}
	require.NoError(t, f.repos.CompanyRepo.Create(context.Background(), company))
	return company
}

// linkPrimary makes the user a primary member of the company, mirroring what
// the join flows do.
func (f *fixture) linkPrimary(t *testing.T, user *repository.User, company *repository.Company, role string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.repos.AffiliationRepo.Create(ctx, &repository.Affiliation{
		UserID:     user.ID,
		CompanyID:  company.ID,
		Kind:       types.AffiliationPrimary,
		Role:       role,
		Status:     types.MembershipActive,
		JoinMethod: types.JoinMethodFounder,
	}))
	require.NoError(t, f.repos.UserRepo.SetPrimaryCompany(ctx, user.ID, &company.ID, &role))
	user.CompanyID = &company.ID
	user.CompanyRole = &role
}

func (f *fixture) createRfp(t *testing.T, visibility, status string, closing *time.Time) *repository.Rfp {
	t.Helper()
	rfp := &repository.Rfp{
		Title:       "Warehouse Automation Program",
		Visibility:  visibility,
		Status:      status,
		ClosingDate: closing,
		CreatedBy:   "owner-1",
	}
	require.NoError(t, f.repos.RfpRepo.Create(context.Background(), rfp))
	return rfp
}

func requesterFor(user *repository.User) access.Requester {
	return access.Requester{
		UserID:      user.ID,
		Role:        user.Role,
		CompanyID:   user.CompanyID,
		CompanyRole: user.CompanyRole,
	}
}

func timePtr(v time.Time) *time.Time {
	return &v
}
