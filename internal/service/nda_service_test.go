package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func signInput() SignNdaInput {
	return SignNdaInput{
		FullName:  "Dana Whitfield",
		Signature: "Dana Whitfield",
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
	}
}

func TestSignIndividualValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)

	cases := map[string]SignNdaInput{
		"missing name":      {Signature: "sig"},
		"missing signature": {FullName: "Dana"},
	}
	for label, input := range cases {
		t.Run(label, func(t *testing.T) {
			_, err := f.services.Nda.SignIndividual(ctx, bidder.ID, rfp.ID, input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := f.services.Nda.SignIndividual(ctx, bidder.ID, "no-such-rfp", signInput())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNdaSignCountersignFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)

	nda, err := f.services.Nda.SignIndividual(ctx, bidder.ID, rfp.ID, signInput())
	require.NoError(t, err)
	assert.Equal(t, types.NdaSigned, nda.Status)

	// Bidders cannot countersign.
	err = f.services.Nda.Countersign(ctx, bidder.ID, repository.NdaKindIndividual, nda.ID, "Riley Chan", "Riley Chan")
	assert.ErrorIs(t, err, ErrForbidden)

	// The countersignature payload is mandatory.
	err = f.services.Nda.Countersign(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.services.Nda.Countersign(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID, "Riley Chan", "Riley Chan"))

	approved, err := f.repos.NdaRepo.FindIndividualByID(ctx, nda.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NdaApproved, approved.Status)
	require.NotNil(t, approved.CountersignedBy)
	assert.Equal(t, reviewer.ID, *approved.CountersignedBy)
	assert.NotNil(t, approved.CountersignedAt)

	// An approved NDA cannot be countersigned or rejected again.
	err = f.services.Nda.Countersign(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID, "Riley Chan", "Riley Chan")
	assert.ErrorIs(t, err, ErrConflict)
	err = f.services.Nda.Reject(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID, "too late")
	assert.ErrorIs(t, err, ErrConflict)

	trail, err := f.services.Nda.Trail(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "signed", trail[0].Action)
	assert.Equal(t, "countersigned", trail[1].Action)
}

func TestNdaRejectAndResign(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)

	nda, err := f.services.Nda.SignIndividual(ctx, bidder.ID, rfp.ID, signInput())
	require.NoError(t, err)

	// Rejection needs a reason.
	err = f.services.Nda.Reject(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.services.Nda.Reject(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID, "signature illegible"))

	rejected, err := f.repos.NdaRepo.FindIndividualByID(ctx, nda.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NdaRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)
	assert.Equal(t, "signature illegible", *rejected.RejectReason)

	// Re-signing resets the record to signed and clears the rejection.
	resigned, err := f.services.Nda.SignIndividual(ctx, bidder.ID, rfp.ID, signInput())
	require.NoError(t, err)
	assert.Equal(t, nda.ID, resigned.ID)
	assert.Equal(t, types.NdaSigned, resigned.Status)
	assert.Nil(t, resigned.RejectReason)
	assert.Nil(t, resigned.CountersignedAt)

	trail, err := f.services.Nda.Trail(ctx, reviewer.ID, repository.NdaKindIndividual, nda.ID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, []string{"signed", "rejected", "signed"}, []string{trail[0].Action, trail[1].Action, trail[2].Action})
}

func TestSignCompanyRequiresCompanyAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	member := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	f.linkPrimary(t, member, company, types.CompanyRoleMember)

	solo := f.createUser(t, "Solo", "solo@elsewhere.example", types.RoleBidder)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)

	_, err := f.services.Nda.SignCompany(ctx, solo.ID, rfp.ID, signInput())
	assert.ErrorIs(t, err, ErrNoCompany)

	_, err = f.services.Nda.SignCompany(ctx, member.ID, rfp.ID, signInput())
	assert.ErrorIs(t, err, ErrForbidden)

	nda, err := f.services.Nda.SignCompany(ctx, founder.ID, rfp.ID, signInput())
	require.NoError(t, err)
	assert.Equal(t, company.ID, nda.CompanyID)
	assert.Equal(t, founder.ID, nda.SignedBy)
	assert.Equal(t, types.NdaSigned, nda.Status)
}

func TestNdaListByRfpGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)

	_, err := f.services.Nda.SignIndividual(ctx, founder.ID, rfp.ID, signInput())
	require.NoError(t, err)
	_, err = f.services.Nda.SignCompany(ctx, founder.ID, rfp.ID, signInput())
	require.NoError(t, err)

	_, _, err = f.services.Nda.ListByRfp(ctx, founder.ID, rfp.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	individuals, companies, err := f.services.Nda.ListByRfp(ctx, reviewer.ID, rfp.ID)
	require.NoError(t, err)
	assert.Len(t, individuals, 1)
	assert.Len(t, companies, 1)
}

func TestNdaCountersignUnknownKind(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)

	err := f.services.Nda.Countersign(ctx, reviewer.ID, "corporate", "some-id", "Riley", "Riley")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
