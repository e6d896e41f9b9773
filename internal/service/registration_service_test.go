package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestRegisterInterest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))

	result, err := f.services.Registration.Register(ctx, bidder.ID, rfp.ID)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, types.RegistrationPending, result.Registration.Status)
	assert.Equal(t, company.ID, result.Registration.CompanyID)

	// Registering again is a no-op, not an error.
	again, err := f.services.Registration.Register(ctx, bidder.ID, rfp.ID)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, result.Registration.ID, again.Registration.ID)
}

func TestRegisterInterestGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	solo := f.createUser(t, "Solo", "solo@elsewhere.example", types.RoleBidder)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)

	open := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))
	draft := f.createRfp(t, types.VisibilityPublic, types.RfpDraft, nil)
	// Stored status says active, but the closing date has passed.
	expired := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(-time.Hour)))

	_, err := f.services.Registration.Register(ctx, solo.ID, open.ID)
	assert.ErrorIs(t, err, ErrNoCompany)

	_, err = f.services.Registration.Register(ctx, bidder.ID, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.services.Registration.Register(ctx, bidder.ID, expired.ID)
	assert.ErrorIs(t, err, ErrRfpClosed)

	_, err = f.services.Registration.Register(ctx, bidder.ID, "no-such-rfp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrationApproveIsAdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	colleague := f.createUser(t, "Sam", "sam@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)
	f.linkPrimary(t, colleague, company, types.CompanyRoleMember)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))

	result, err := f.services.Registration.Register(ctx, bidder.ID, rfp.ID)
	require.NoError(t, err)

	// Neither bidders nor reviewers decide registrations.
	err = f.services.Registration.Approve(ctx, bidder.ID, result.Registration.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	err = f.services.Registration.Approve(ctx, reviewer.ID, result.Registration.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.services.Registration.Approve(ctx, admin.ID, result.Registration.ID))

	regs, err := f.services.Registration.ListByRfp(ctx, admin.ID, rfp.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, types.RegistrationApproved, regs[0].Status)
	require.NotNil(t, regs[0].DecidedBy)
	assert.Equal(t, admin.ID, *regs[0].DecidedBy)

	// Approval fans out to every primary member of the company.
	for _, member := range []string{bidder.ID, colleague.ID} {
		rows, err := f.repos.NotificationRepo.FindByUserID(ctx, member, false)
		require.NoError(t, err)
		var approved bool
		for _, n := range rows {
			if n.Type == notification.TypeRegistrationApproved {
				approved = true
			}
		}
		assert.True(t, approved, "expected member %s to be notified", member)
	}

	// Decided registrations stay decided.
	err = f.services.Registration.Approve(ctx, admin.ID, result.Registration.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegistrationRejectIsAdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))

	result, err := f.services.Registration.Register(ctx, bidder.ID, rfp.ID)
	require.NoError(t, err)

	// Reviewers read registrations but never decide them.
	err = f.services.Registration.Reject(ctx, reviewer.ID, result.Registration.ID, "incomplete paperwork")
	assert.ErrorIs(t, err, ErrForbidden)

	// A reason is mandatory.
	err = f.services.Registration.Reject(ctx, admin.ID, result.Registration.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.services.Registration.Reject(ctx, admin.ID, result.Registration.ID, "incomplete paperwork"))

	regs, err := f.services.Registration.ListByCompany(ctx, company.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, types.RegistrationRejected, regs[0].Status)
	require.NotNil(t, regs[0].Reason)
	assert.Equal(t, "incomplete paperwork", *regs[0].Reason)

	// A rejected registration never flips back.
	err = f.services.Registration.Approve(ctx, admin.ID, result.Registration.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegistrationListGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))

	_, err := f.services.Registration.Register(ctx, bidder.ID, rfp.ID)
	require.NoError(t, err)

	_, err = f.services.Registration.ListByRfp(ctx, bidder.ID, rfp.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
