package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestRfpLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)

	// Bidders cannot create RFPs.
	_, err := f.services.Rfp.Create(ctx, requesterFor(bidder), RfpInput{Title: "Nope"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.services.Rfp.Create(ctx, requesterFor(reviewer), RfpInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	closing := time.Now().Add(72 * time.Hour)
	created, err := f.services.Rfp.Create(ctx, requesterFor(reviewer), RfpInput{
		Title:       "Regional Office Fit-Out",
		Visibility:  types.VisibilityPublic,
		ClosingDate: &closing,
		Categories:  []string{"construction"},
		Budget:      decimal.NewNullDecimal(decimal.NewFromInt(250000)),
	})
	require.NoError(t, err)
	assert.Equal(t, types.RfpDraft, created.Status)
	assert.Equal(t, types.RfpDraft, created.EffectiveStatus)

	published, err := f.services.Rfp.Publish(ctx, requesterFor(reviewer), created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RfpActive, published.Status)
	assert.NotNil(t, published.PublishedAt)

	// Publishing twice is a state conflict.
	_, err = f.services.Rfp.Publish(ctx, requesterFor(reviewer), created.ID)
	assert.ErrorIs(t, err, ErrConflict)

	closed, err := f.services.Rfp.Close(ctx, requesterFor(reviewer), created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RfpClosed, closed.Status)

	// Closing an already-closed RFP is harmless.
	again, err := f.services.Rfp.Close(ctx, requesterFor(reviewer), created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RfpClosed, again.Status)
}

func TestPublishPastClosingDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	closing := time.Now().Add(-time.Hour)
	created, err := f.services.Rfp.Create(ctx, requesterFor(reviewer), RfpInput{
		Title:       "Stale Tender",
		ClosingDate: &closing,
	})
	require.NoError(t, err)

	_, err = f.services.Rfp.Publish(ctx, requesterFor(reviewer), created.ID)
	assert.ErrorIs(t, err, ErrRfpClosed)
}

func TestEffectiveStatusDerivedFromClock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	// Stored as active, but the deadline has passed.
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(-time.Hour)))

	got, err := f.services.Rfp.Get(ctx, requesterFor(admin), rfp.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RfpActive, got.Rfp.Status)
	assert.Equal(t, types.RfpClosed, got.EffectiveStatus)
}

func TestRfpVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)

	public := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)
	confidential := f.createRfp(t, types.VisibilityConfidential, types.RfpActive, nil)
	draft := f.createRfp(t, types.VisibilityPublic, types.RfpDraft, nil)

	cases := map[string]struct {
		req  access.Requester
		want int
	}{
		"admin sees everything":            {requesterFor(admin), 3},
		"reviewer sees no drafts":          {requesterFor(reviewer), 2},
		"bidder sees public active only":   {requesterFor(bidder), 1},
		"anonymous sees public active too": {access.Requester{}, 1},
	}
	for label, tc := range cases {
		t.Run(label, func(t *testing.T) {
			views, err := f.services.Rfp.List(ctx, tc.req)
			require.NoError(t, err)
			assert.Len(t, views, tc.want)
		})
	}

	// Fetching a hidden RFP directly looks like a miss.
	_, err := f.services.Rfp.Get(ctx, requesterFor(bidder), confidential.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.services.Rfp.Get(ctx, requesterFor(bidder), draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.services.Rfp.Get(ctx, requesterFor(bidder), public.ID)
	require.NoError(t, err)
}

func TestRfpVisibleToGrantHolder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	rival := f.createUser(t, "Robin", "robin@borealis.example", types.RoleBidder)
	confidential := f.createRfp(t, types.VisibilityConfidential, types.RfpActive, nil)

	require.NoError(t, f.repos.AccessGrantRepo.Create(ctx, &repository.AccessGrant{
		RfpID:  confidential.ID,
		UserID: bidder.ID,
		Status: "approved",
	}))

	// The grant holder sees the confidential RFP in listings and directly.
	views, err := f.services.Rfp.List(ctx, requesterFor(bidder))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, confidential.ID, views[0].ID)

	got, err := f.services.Rfp.Get(ctx, requesterFor(bidder), confidential.ID)
	require.NoError(t, err)
	assert.Equal(t, confidential.ID, got.ID)

	// Without a grant the RFP stays a miss.
	_, err = f.services.Rfp.Get(ctx, requesterFor(rival), confidential.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	views, err = f.services.Rfp.List(ctx, requesterFor(rival))
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestRfpUpdatePermissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)

	created, err := f.services.Rfp.Create(ctx, requesterFor(reviewer), RfpInput{Title: "Original Title"})
	require.NoError(t, err)

	_, err = f.services.Rfp.Update(ctx, requesterFor(bidder), created.ID, RfpInput{Title: "Hijacked"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.services.Rfp.Update(ctx, requesterFor(reviewer), created.ID, RfpInput{Title: "Revised Title"})
	require.NoError(t, err)
	assert.Equal(t, "Revised Title", updated.Title)

	_, err = f.services.Rfp.Update(ctx, requesterFor(reviewer), created.ID, RfpInput{Visibility: "secret"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRfpDeleteIsAdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	reviewer := f.createUser(t, "Riley", "riley@rfpdesk.io", types.RoleClientReviewer)
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)

	assert.ErrorIs(t, f.services.Rfp.Delete(ctx, requesterFor(reviewer), rfp.ID), ErrForbidden)
	require.NoError(t, f.services.Rfp.Delete(ctx, requesterFor(admin), rfp.ID))
	assert.ErrorIs(t, f.services.Rfp.Delete(ctx, requesterFor(admin), rfp.ID), ErrNotFound)
}

func TestReconcileExpired(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	expired := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(-time.Hour)))
	open := f.createRfp(t, types.VisibilityPublic, types.RfpActive, timePtr(time.Now().Add(time.Hour)))
	undated := f.createRfp(t, types.VisibilityPublic, types.RfpActive, nil)

	closed, err := f.services.Rfp.ReconcileExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	reloaded, err := f.repos.RfpRepo.FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RfpClosed, reloaded.Status)

	for _, id := range []string{open.ID, undated.ID} {
		r, err := f.repos.RfpRepo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.RfpActive, r.Status)
	}

	// A second run finds nothing left to flip.
	closed, err = f.services.Rfp.ReconcileExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}
