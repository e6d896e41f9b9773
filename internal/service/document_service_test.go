package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func (f *fixture) createDocument(t *testing.T, rfpID, name string, requiresNda, requiresApproval bool) *repository.Document {
	t.Helper()
	doc := &repository.Document{
		RfpID:            rfpID,
		Name:             name,
		FileKey:          "rfps/" + rfpID + "/" + name,
		RequiresNda:      requiresNda,
		RequiresApproval: requiresApproval,
	}
	require.NoError(t, f.repos.DocumentRepo.Create(context.Background(), doc))
	return doc
}

func TestDocumentListDecisions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)

	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)
	f.createDocument(t, rfp.ID, "overview.pdf", false, false)
	f.createDocument(t, rfp.ID, "drawings.pdf", true, false)

	views, err := f.services.Document.ListForRequester(ctx, requesterFor(bidder), rfp.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byName := map[string]*DocumentView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.True(t, byName["overview.pdf"].Access.Allowed)
	assert.Equal(t, access.ReasonNoRestriction, byName["overview.pdf"].Access.Reason)
	assert.False(t, byName["drawings.pdf"].Access.Allowed)
	assert.Equal(t, access.ReasonNdaRequired, byName["drawings.pdf"].Access.Reason)
}

func TestDocumentListHiddenRfp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	confidential := f.createRfp(t, types.VisibilityConfidential, types.RfpActive, nil)
	f.createDocument(t, confidential.ID, "secret.pdf", false, false)

	// The document list never confirms a hidden RFP exists.
	_, err := f.services.Document.ListForRequester(ctx, requesterFor(bidder), confidential.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadDenied(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", bidder.ID)
	f.linkPrimary(t, bidder, company, types.CompanyRoleMember)

	public := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)
	restricted := f.createDocument(t, public.ID, "drawings.pdf", true, false)

	confidential := f.createRfp(t, types.VisibilityConfidential, types.RfpActive, nil)
	hidden := f.createDocument(t, confidential.ID, "secret.pdf", false, false)

	_, err := f.services.Document.Download(ctx, requesterFor(bidder), restricted.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Documents on hidden RFPs look like misses, not denials.
	_, err = f.services.Document.Download(ctx, requesterFor(bidder), hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.services.Document.Download(ctx, requesterFor(bidder), "no-such-document")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFlagsPermissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)
	doc := f.createDocument(t, rfp.ID, "overview.pdf", false, false)

	_, err := f.services.Document.UpdateFlags(ctx, requesterFor(bidder), doc.ID, true, true)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.services.Document.UpdateFlags(ctx, requesterFor(reviewer), doc.ID, true, true)
	require.NoError(t, err)
	assert.True(t, updated.RequiresNda)
	assert.True(t, updated.RequiresApproval)
}

func TestDocumentDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)
	doc := f.createDocument(t, rfp.ID, "overview.pdf", false, false)

	assert.ErrorIs(t, f.services.Document.Delete(ctx, requesterFor(bidder), doc.ID), ErrForbidden)
	require.NoError(t, f.services.Document.Delete(ctx, requesterFor(reviewer), doc.ID))

	gone, err := f.repos.DocumentRepo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
