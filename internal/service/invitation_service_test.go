package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestCreateCompanyInvitation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)
	outsider := f.createUser(t, "Out Sider", "out@elsewhere.example", types.RoleBidder)

	_, err := f.services.Invitation.CreateCompanyInvitation(ctx, outsider.ID, company.ID, "dana@elsewhere.example", "", "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.services.Invitation.CreateCompanyInvitation(ctx, founder.ID, company.ID, "not-an-email", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	inv, err := f.services.Invitation.CreateCompanyInvitation(ctx, founder.ID, company.ID, "Dana@Elsewhere.example", "", "come aboard")
	require.NoError(t, err)
	assert.Equal(t, types.InvitationKindCompany, inv.Kind)
	assert.Equal(t, "dana@elsewhere.example", inv.Email)
	assert.Equal(t, types.CompanyRoleMember, inv.Role)
	assert.NotEmpty(t, inv.Token)
	assert.WithinDuration(t, time.Now().Add(companyInvitationTTL), inv.ExpiresAt, time.Minute)

	// One pending invitation per email per company.
	_, err = f.services.Invitation.CreateCompanyInvitation(ctx, founder.ID, company.ID, "dana@elsewhere.example", "", "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAcceptCompanyInvitation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	invitee := f.createUser(t, "Dana", "dana@elsewhere.example", types.RoleBidder)
	imposter := f.createUser(t, "Imposter", "imposter@elsewhere.example", types.RoleBidder)

	inv, err := f.services.Invitation.CreateCompanyInvitation(ctx, founder.ID, company.ID, "dana@elsewhere.example", types.CompanyRoleAdmin, "")
	require.NoError(t, err)

	// Only the invited address may redeem the token.
	_, err = f.services.Invitation.Accept(ctx, imposter.ID, inv.Token)
	assert.ErrorIs(t, err, ErrForbidden)

	accepted, err := f.services.Invitation.Accept(ctx, invitee.ID, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, types.InvitationAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedBy)
	assert.Equal(t, invitee.ID, *accepted.AcceptedBy)

	joined, err := f.repos.UserRepo.FindByID(ctx, invitee.ID)
	require.NoError(t, err)
	require.NotNil(t, joined.CompanyID)
	assert.Equal(t, company.ID, *joined.CompanyID)
	assert.Equal(t, types.CompanyRoleAdmin, *joined.CompanyRole)

	// The token is single-use.
	_, err = f.services.Invitation.Accept(ctx, invitee.ID, inv.Token)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.services.Invitation.Accept(ctx, invitee.ID, "bogus-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptExpiredInvitation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)
	invitee := f.createUser(t, "Dana", "dana@elsewhere.example", types.RoleBidder)

	inv, err := f.services.Invitation.CreateCompanyInvitation(ctx, founder.ID, company.ID, "dana@elsewhere.example", "", "")
	require.NoError(t, err)

	// Age the invitation past its TTL.
	inv.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, f.repos.InvitationRepo.Update(ctx, inv))

	_, err = f.services.Invitation.Accept(ctx, invitee.ID, inv.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	stale, err := f.repos.InvitationRepo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, types.InvitationExpired, stale.Status)
}

func TestAcceptRfpInvitationCreatesGrant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	invitee := f.createUser(t, "Dana", "dana@elsewhere.example", types.RoleBidder)
	rfp := f.createRfp(t, types.VisibilityConfidential, types.RfpActive, nil)

	inv, err := f.services.Invitation.CreateRfpInvitation(ctx, reviewer.ID, rfp.ID, "dana@elsewhere.example", "")
	require.NoError(t, err)
	assert.Equal(t, types.InvitationKindRfp, inv.Kind)
	assert.WithinDuration(t, time.Now().Add(rfpInvitationTTL), inv.ExpiresAt, time.Minute)

	_, err = f.services.Invitation.Accept(ctx, invitee.ID, inv.Token)
	require.NoError(t, err)

	grant, err := f.repos.AccessGrantRepo.Find(ctx, rfp.ID, invitee.ID)
	require.NoError(t, err)
	require.NotNil(t, grant)
	require.NotNil(t, grant.GrantedBy)
	assert.Equal(t, reviewer.ID, *grant.GrantedBy)
}

func TestCancelInvitation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)
	outsider := f.createUser(t, "Out Sider", "out@elsewhere.example", types.RoleBidder)

	inv, err := f.services.Invitation.CreateCompanyInvitation(ctx, founder.ID, company.ID, "dana@elsewhere.example", "", "")
	require.NoError(t, err)

	err = f.services.Invitation.Cancel(ctx, outsider.ID, inv.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.services.Invitation.Cancel(ctx, founder.ID, inv.ID))

	cancelled, err := f.repos.InvitationRepo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, types.InvitationCancelled, cancelled.Status)

	err = f.services.Invitation.Cancel(ctx, founder.ID, inv.ID)
	assert.ErrorIs(t, err, ErrConflict)
}
