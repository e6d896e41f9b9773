package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func (f *fixture) createNotification(t *testing.T, userID, title string) *repository.Notification {
	t.Helper()
	n := &repository.Notification{
		UserID:  userID,
		Type:    "rfp_published",
		Title:   title,
		Message: "A new RFP is open for bids",
	}
	require.NoError(t, f.repos.NotificationRepo.Create(context.Background(), n))
	return n
}

func TestNotificationReadFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	first := f.createNotification(t, user.ID, "First")
	f.createNotification(t, user.ID, "Second")

	counts, err := f.services.Notification.Counts(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 2, counts.Unread)

	require.NoError(t, f.services.Notification.MarkAsRead(ctx, user.ID, first.ID))

	counts, err = f.services.Notification.Counts(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Unread)

	unread, err := f.services.Notification.List(ctx, user.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Second", unread[0].Title)

	require.NoError(t, f.services.Notification.MarkAllAsRead(ctx, user.ID))

	counts, err = f.services.Notification.Counts(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Unread)
}

func TestNotificationOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	owner := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	other := f.createUser(t, "Omar", "omar@borealis.example", types.RoleBidder)
	n := f.createNotification(t, owner.ID, "Private")

	assert.ErrorIs(t, f.services.Notification.MarkAsRead(ctx, other.ID, n.ID), ErrForbidden)
	assert.ErrorIs(t, f.services.Notification.Delete(ctx, other.ID, n.ID), ErrForbidden)
	assert.ErrorIs(t, f.services.Notification.Delete(ctx, owner.ID, "no-such-id"), ErrNotFound)

	require.NoError(t, f.services.Notification.Delete(ctx, owner.ID, n.ID))

	counts, err := f.services.Notification.Counts(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total)
}

func TestDeleteAllNotifications(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)
	other := f.createUser(t, "Omar", "omar@borealis.example", types.RoleBidder)
	f.createNotification(t, user.ID, "One")
	f.createNotification(t, user.ID, "Two")
	kept := f.createNotification(t, other.ID, "Keep")

	require.NoError(t, f.services.Notification.DeleteAll(ctx, user.ID))

	counts, err := f.services.Notification.Counts(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total)

	// Other users' notifications are untouched.
	remaining, err := f.services.Notification.List(ctx, other.ID, false)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}
