package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestSubmitProposalGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	solo := f.createUser(t, "Solo", "solo@elsewhere.example", types.RoleBidder)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)

	open := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))
	expired := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(-time.Hour)))
	confidential := f.createRfp(t, types.VisibilityConfidential, types.RfpActive, nil)

	_, err := f.services.Proposal.Submit(ctx, access.Requester{}, open.ID, ProposalInput{Summary: "bid"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.services.Proposal.Submit(ctx, requesterFor(solo), open.ID, ProposalInput{Summary: "bid"})
	assert.ErrorIs(t, err, ErrNoCompany)

	_, err = f.services.Proposal.Submit(ctx, requesterFor(bidder), expired.ID, ProposalInput{Summary: "bid"})
	assert.ErrorIs(t, err, ErrRfpClosed)

	// A confidential RFP the bidder cannot see behaves like a missing one.
	_, err = f.services.Proposal.Submit(ctx, requesterFor(bidder), confidential.ID, ProposalInput{Summary: "bid"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitProposalUpserts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))

	first, err := f.services.Proposal.Submit(ctx, requesterFor(bidder), rfp.ID, ProposalInput{Summary: "initial bid"})
	require.NoError(t, err)
	assert.Equal(t, types.ProposalSubmitted, first.Status)
	assert.Equal(t, company.ID, first.CompanyID)

	// Resubmitting replaces the company's proposal in place.
	second, err := f.services.Proposal.Submit(ctx, requesterFor(bidder), rfp.ID, ProposalInput{Summary: "revised bid", FileKey: "proposals/v2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Summary)
	assert.Equal(t, "revised bid", *second.Summary)

	all, err := f.repos.ProposalRepo.FindByRfpID(ctx, rfp.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestWithdrawProposal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	acme := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, acme, types.CompanyRoleMember)

	rival := f.createUser(t, "Omar", "omar@borealis.example", types.RoleBidder)
	borealis := f.createCompany(t, "Borealis Systems", rival.ID)
	f.linkPrimary(t, rival, borealis, types.CompanyRoleMember)

	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))
	p, err := f.services.Proposal.Submit(ctx, requesterFor(bidder), rfp.ID, ProposalInput{Summary: "bid"})
	require.NoError(t, err)

	// Another company cannot touch it.
	err = f.services.Proposal.Withdraw(ctx, requesterFor(rival), p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.services.Proposal.Withdraw(ctx, requesterFor(bidder), p.ID))

	withdrawn, err := f.repos.ProposalRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalWithdrawn, withdrawn.Status)
	assert.NotNil(t, withdrawn.WithdrawnAt)

	err = f.services.Proposal.Withdraw(ctx, requesterFor(bidder), p.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProposalListGates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	acme := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, acme, types.CompanyRoleMember)

	rival := f.createUser(t, "Omar", "omar@borealis.example", types.RoleBidder)
	borealis := f.createCompany(t, "Borealis Systems", rival.ID)
	f.linkPrimary(t, rival, borealis, types.CompanyRoleMember)

	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(48*time.Hour)))
	_, err := f.services.Proposal.Submit(ctx, requesterFor(bidder), rfp.ID, ProposalInput{Summary: "bid"})
	require.NoError(t, err)

	// Bidders never see the full proposal list on an RFP.
	_, err = f.services.Proposal.ListByRfp(ctx, requesterFor(bidder), rfp.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	proposals, err := f.services.Proposal.ListByRfp(ctx, requesterFor(reviewer), rfp.ID)
	require.NoError(t, err)
	assert.Len(t, proposals, 1)

	// A company sees only its own submissions.
	_, err = f.services.Proposal.ListByCompany(ctx, requesterFor(rival), acme.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	own, err := f.services.Proposal.ListByCompany(ctx, requesterFor(bidder), acme.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)
}
