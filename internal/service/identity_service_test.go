package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestResolveIdentity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	acme := f.createCompany(t, "Acme Construction", user.ID)
	f.linkPrimary(t, user, acme, types.CompanyRoleMember)

	borealis := f.createCompany(t, "Borealis Systems", user.ID)
	require.NoError(t, f.repos.AffiliationRepo.Create(ctx, &repository.Affiliation{
		UserID:     user.ID,
		CompanyID:  borealis.ID,
		Kind:       types.AffiliationSecondary,
		Role:       types.CompanyRoleMember,
		Status:     types.MembershipActive,
		JoinMethod: types.JoinMethodAdminAssigned,
	}))

	identity, err := f.services.Identity.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, types.RoleBidder, identity.Role)
	require.NotNil(t, identity.CompanyID)
	assert.Equal(t, acme.ID, *identity.CompanyID)
	require.Len(t, identity.Secondary, 1)
	assert.Equal(t, borealis.ID, identity.Secondary[0].CompanyID)

	_, err = f.services.Identity.Resolve(ctx, "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveIdentityWithoutCompany(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user := f.createUser(t, "Solo", "solo@elsewhere.example", types.RoleBidder)

	identity, err := f.services.Identity.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, identity.CompanyID)
	assert.Nil(t, identity.CompanyRole)
	assert.Empty(t, identity.Secondary)
}
