package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestJoinRequestApproveFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	applicant := f.createUser(t, "Dana", "dana@elsewhere.example", types.RoleBidder)

	aff, err := f.services.Membership.RequestJoin(ctx, applicant.ID, company.ID, "worked with you before")
	require.NoError(t, err)
	assert.Equal(t, types.AffiliationPending, aff.Kind)

	// Duplicate request while one is pending.
	_, err = f.services.Membership.RequestJoin(ctx, applicant.ID, company.ID, "")
	assert.ErrorIs(t, err, ErrConflict)

	// Outsiders cannot see or decide requests.
	outsider := f.createUser(t, "Out Sider", "out@elsewhere.example", types.RoleBidder)
	_, err = f.services.Membership.PendingRequests(ctx, outsider.ID, company.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	err = f.services.Membership.ApproveJoin(ctx, outsider.ID, aff.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	pending, err := f.services.Membership.PendingRequests(ctx, founder.ID, company.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, f.services.Membership.ApproveJoin(ctx, founder.ID, aff.ID, ""))

	joined, err := f.repos.UserRepo.FindByID(ctx, applicant.ID)
	require.NoError(t, err)
	require.NotNil(t, joined.CompanyID)
	assert.Equal(t, company.ID, *joined.CompanyID)
	assert.Equal(t, types.CompanyRoleMember, *joined.CompanyRole)

	// Approving again finds no pending row.
	err = f.services.Membership.ApproveJoin(ctx, founder.ID, aff.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJoinRequestRejectAllowsRetry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)
	applicant := f.createUser(t, "Dana", "dana@elsewhere.example", types.RoleBidder)

	aff, err := f.services.Membership.RequestJoin(ctx, applicant.ID, company.ID, "")
	require.NoError(t, err)
	require.NoError(t, f.services.Membership.RejectJoin(ctx, founder.ID, aff.ID, "unknown contractor"))

	// The rejected row is gone, so a fresh request is allowed.
	_, err = f.services.Membership.RequestJoin(ctx, applicant.ID, company.ID, "second attempt")
	require.NoError(t, err)
}

func TestRequestJoinWhileAffiliated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	acme := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, acme, types.CompanyRoleAdmin)
	other := f.createCompany(t, "Borealis Systems", founder.ID)

	_, err := f.services.Membership.RequestJoin(ctx, founder.ID, other.ID, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLeaveLastAdminGuard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	member := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	f.linkPrimary(t, member, company, types.CompanyRoleMember)

	// The sole admin cannot walk out.
	assert.ErrorIs(t, f.services.Membership.Leave(ctx, founder.ID), ErrLastAdmin)

	// Promote the member, then leaving succeeds.
	require.NoError(t, f.services.Membership.SetMemberRole(ctx, founder.ID, member.ID, types.CompanyRoleAdmin))
	require.NoError(t, f.services.Membership.Leave(ctx, founder.ID))

	left, err := f.repos.UserRepo.FindByID(ctx, founder.ID)
	require.NoError(t, err)
	assert.Nil(t, left.CompanyID)

	// A plain member leaves freely.
	require.NoError(t, f.services.Membership.Leave(ctx, member.ID))
}

func TestSetMemberRoleLastAdminDemotion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	err := f.services.Membership.SetMemberRole(ctx, founder.ID, founder.ID, types.CompanyRoleMember)
	assert.ErrorIs(t, err, ErrLastAdmin)

	err = f.services.Membership.SetMemberRole(ctx, founder.ID, founder.ID, "owner")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssignCompanyRequiresPlatformAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	bidder := f.createUser(t, "Dana", "dana@elsewhere.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", admin.ID)

	err := f.services.Membership.AssignCompany(ctx, bidder.ID, bidder.ID, company.ID, types.AffiliationPrimary, "")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.services.Membership.AssignCompany(ctx, admin.ID, bidder.ID, company.ID, types.AffiliationPrimary, types.CompanyRoleAdmin))

	assigned, err := f.repos.UserRepo.FindByID(ctx, bidder.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.CompanyID)
	assert.Equal(t, company.ID, *assigned.CompanyID)
	assert.Equal(t, types.CompanyRoleAdmin, *assigned.CompanyRole)

	trail, err := f.repos.AuditRepo.FindRecent(ctx, 10)
	require.NoError(t, err)
	var assignedEntry bool
	for _, entry := range trail {
		if entry.Action == "admin_assigned" {
			assignedEntry = true
			require.NotNil(t, entry.ActorID)
			assert.Equal(t, admin.ID, *entry.ActorID)
			assert.Equal(t, "affiliation", entry.EntityType)
		}
	}
	assert.True(t, assignedEntry, "expected an admin_assigned audit entry")
}

func TestAssignCompanySecondaryKeepsPrimary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	user := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	acme := f.createCompany(t, "Acme Construction", admin.ID)
	borealis := f.createCompany(t, "Borealis Systems", admin.ID)
	f.linkPrimary(t, user, acme, types.CompanyRoleMember)

	require.NoError(t, f.services.Membership.AssignCompany(ctx, admin.ID, user.ID, borealis.ID, types.AffiliationSecondary, ""))

	after, err := f.repos.UserRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, after.CompanyID)
	assert.Equal(t, acme.ID, *after.CompanyID)

	memberships, err := f.services.Membership.Memberships(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)
}

func TestJoinViaInvitationRequiresCompanyless(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	company := f.createCompany(t, "Acme Construction", admin.ID)
	user := f.createUser(t, "Dana", "dana@elsewhere.example", types.RoleBidder)

	require.NoError(t, f.services.Membership.JoinViaInvitation(ctx, user.ID, company.ID, types.CompanyRoleMember, admin.ID))

	joined, err := f.repos.UserRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, joined.CompanyID)
	assert.Equal(t, company.ID, *joined.CompanyID)

	// A second invitation cannot double-place the user.
	err = f.services.Membership.JoinViaInvitation(ctx, user.ID, company.ID, types.CompanyRoleMember, admin.ID)
	assert.ErrorIs(t, err, ErrConflict)
}
