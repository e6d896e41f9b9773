package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

func (f *fixture) appendAudit(t *testing.T, actorID, action, entityType, entityID string) {
	t.Helper()
	entry := &repository.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	require.NoError(t, f.repos.AuditRepo.Append(context.Background(), entry))
}

func TestAuditRecentIsAdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	bidder := f.createUser(t, "Dana", "dana@acme.example", types.RoleBidder)

	f.appendAudit(t, admin.ID, "rfp_published", "rfp", "rfp-1")
	f.appendAudit(t, admin.ID, "rfp_closed", "rfp", "rfp-1")

	_, err := f.services.Audit.Recent(ctx, bidder.ID, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	entries, err := f.services.Audit.Recent(ctx, admin.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rfp_closed", entries[0].Action)
}

func TestAuditRecentClampsLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	f.appendAudit(t, admin.ID, "company_verified", "company", "co-1")

	for _, limit := range []int{0, -5, 501} {
		entries, err := f.services.Audit.Recent(ctx, admin.ID, limit)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	}
}

func TestAuditByEntity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	f.appendAudit(t, admin.ID, "nda_countersigned", "nda", "nda-1")
	f.appendAudit(t, admin.ID, "nda_rejected", "nda", "nda-2")
	f.appendAudit(t, admin.ID, "rfp_published", "rfp", "rfp-1")

	entries, err := f.services.Audit.ByEntity(ctx, admin.ID, "nda", "nda-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nda_countersigned", entries[0].Action)

	_, err = f.services.Audit.ByEntity(ctx, admin.ID, "", "nda-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.services.Audit.ByEntity(ctx, admin.ID, "nda", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
