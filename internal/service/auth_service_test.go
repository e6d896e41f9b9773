package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestRegisterValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := map[string]struct {
		name, email, password string
	}{
		"missing name":   {"", "a@example.com", "password123"},
		"missing email":  {"Ana", "", "password123"},
		"short password": {"Ana", "a@example.com", "short"},
	}
	for label, tc := range cases {
		t.Run(label, func(t *testing.T) {
			_, err := f.services.Auth.Register(ctx, tc.name, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.services.Auth.Register(ctx, "Ana", "ana@example.com", "password123")
	require.NoError(t, err)

	_, err = f.services.Auth.Register(ctx, "Other Ana", "ana@example.com", "password456")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.services.Auth.Register(ctx, "Ana", "ana@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, types.RoleBidder, result.User.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Nil(t, result.AutoJoined)

	login, err := f.services.Auth.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	_, err = f.services.Auth.Login(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.services.Auth.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenRotation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.services.Auth.Register(ctx, "Ana", "ana@example.com", "password123")
	require.NoError(t, err)

	access, refreshed, err := f.services.Auth.RefreshToken(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, result.RefreshToken, refreshed)

	// The consumed token is gone.
	_, _, err = f.services.Auth.RefreshToken(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The rotated one still works.
	_, _, err = f.services.Auth.RefreshToken(ctx, refreshed)
	require.NoError(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.services.Auth.Register(ctx, "Ana", "ana@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, f.services.Auth.Logout(ctx, result.RefreshToken))

	_, _, err = f.services.Auth.RefreshToken(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCarriesCompanyClaims(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	company := f.createCompany(t, "Acme Construction", admin.ID)
	company.AutoJoinEnabled = true
	domain := "acme.example"
	company.VerifiedDomain = &domain
	require.NoError(t, f.repos.CompanyRepo.Update(ctx, company))

	result, err := f.services.Auth.Register(ctx, "Dana", "dana@acme.example", "password123")
	require.NoError(t, err)
	require.NotNil(t, result.AutoJoined)
	assert.Equal(t, company.ID, result.AutoJoined.ID)

	token, err := f.services.Auth.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, result.User.ID, claims["sub"])
	assert.Equal(t, types.RoleBidder, claims["role"])
	assert.Equal(t, company.ID, claims["company_id"])
	assert.Equal(t, types.CompanyRoleMember, claims["company_role"])
}

func TestAutoJoinSkipsConsumerDomains(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	company := f.createCompany(t, "Gmail Imposters Inc", admin.ID)
	company.AutoJoinEnabled = true
	domain := "gmail.com"
	company.VerifiedDomain = &domain
	require.NoError(t, f.repos.CompanyRepo.Update(ctx, company))

	result, err := f.services.Auth.Register(ctx, "Bo", "bo@gmail.com", "password123")
	require.NoError(t, err)
	assert.Nil(t, result.AutoJoined)
	assert.Nil(t, result.User.CompanyID)
}

func TestAutoJoinMultipleCandidates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	domain := "acme.example"
	for _, name := range []string{"Acme East", "Acme West"} {
		c := f.createCompany(t, name, admin.ID)
		c.AutoJoinEnabled = true
		c.VerifiedDomain = &domain
		require.NoError(t, f.repos.CompanyRepo.Update(ctx, c))
	}

	result, err := f.services.Auth.Register(ctx, "Dana", "dana@acme.example", "password123")
	require.NoError(t, err)
	assert.Nil(t, result.AutoJoined)
	assert.Len(t, result.AutoJoinCandidates, 2)
	assert.Nil(t, result.User.CompanyID)

	// The user picks one explicitly.
	chosen, err := f.services.Membership.ConfirmAutoJoin(ctx, result.User.ID, result.AutoJoinCandidates[0].ID)
	require.NoError(t, err)

	user, err := f.repos.UserRepo.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	require.NotNil(t, user.CompanyID)
	assert.Equal(t, chosen.ID, *user.CompanyID)
}

func TestAutoJoinRespectsBlockedDomains(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	company := f.createCompany(t, "Acme Construction", admin.ID)
	company.AutoJoinEnabled = true
	domain := "acme.example"
	company.VerifiedDomain = &domain
	company.BlockedDomains = []string{"acme.example"}
	require.NoError(t, f.repos.CompanyRepo.Update(ctx, company))

	result, err := f.services.Auth.Register(ctx, "Dana", "dana@acme.example", "password123")
	require.NoError(t, err)
	assert.Nil(t, result.AutoJoined)
	assert.Empty(t, result.AutoJoinCandidates)
}
