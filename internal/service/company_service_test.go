package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/types"
)

func TestCreateCompany(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)

	company, err := f.services.Company.Create(ctx, founder.ID, CompanyInput{Name: "Acme Construction"})
	require.NoError(t, err)
	assert.Equal(t, types.CompanyUnverified, company.VerificationStatus)
	assert.Equal(t, founder.ID, company.CreatedBy)
	assert.False(t, company.AutoJoinEnabled)

	_, err = f.services.Company.Create(ctx, founder.ID, CompanyInput{Name: "Acme Construction"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.services.Company.Create(ctx, founder.ID, CompanyInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateCompanyPermissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)
	outsider := f.createUser(t, "Out Sider", "out@elsewhere.example", types.RoleBidder)

	_, err := f.services.Company.Update(ctx, outsider.ID, company.ID, CompanyInput{Name: "Hijacked"})
	assert.ErrorIs(t, err, ErrForbidden)

	desc := "General contractor"
	updated, err := f.services.Company.Update(ctx, founder.ID, company.ID, CompanyInput{Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)
}

func TestSetVerificationStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	// Even the company's own admin cannot verify it.
	err := f.services.Company.SetVerificationStatus(ctx, founder.ID, company.ID, types.CompanyVerified)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.services.Company.SetVerificationStatus(ctx, admin.ID, company.ID, "golden")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.services.Company.SetVerificationStatus(ctx, admin.ID, company.ID, types.CompanyVerified))

	verified, err := f.services.Company.Get(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CompanyVerified, verified.VerificationStatus)
}

func TestRevokingVerificationDisablesAutoJoin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	domain := "acme.example"
	_, err := f.services.Company.SetDomainSettings(ctx, founder.ID, company.ID, DomainSettingsInput{
		AutoJoinEnabled: true,
		VerifiedDomain:  &domain,
	})
	require.NoError(t, err)

	require.NoError(t, f.services.Company.SetVerificationStatus(ctx, admin.ID, company.ID, types.CompanyRejected))

	after, err := f.services.Company.Get(ctx, company.ID)
	require.NoError(t, err)
	assert.False(t, after.AutoJoinEnabled)
}

func TestSetDomainSettings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	// Consumer domains can never be claimed.
	consumer := "gmail.com"
	_, err := f.services.Company.SetDomainSettings(ctx, founder.ID, company.ID, DomainSettingsInput{
		VerifiedDomain: &consumer,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Auto-join needs a domain to match against.
	_, err = f.services.Company.SetDomainSettings(ctx, founder.ID, company.ID, DomainSettingsInput{
		AutoJoinEnabled: true,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	domain := "ACME.example"
	updated, err := f.services.Company.SetDomainSettings(ctx, founder.ID, company.ID, DomainSettingsInput{
		AutoJoinEnabled: true,
		VerifiedDomain:  &domain,
		BlockedDomains:  []string{"Contractors.ACME.example"},
	})
	require.NoError(t, err)
	assert.True(t, updated.AutoJoinEnabled)
	assert.Equal(t, []string{"contractors.acme.example"}, updated.BlockedDomains)
}

func TestAutoJoinRequiresVerifiedCompany(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company, err := f.services.Company.Create(ctx, founder.ID, CompanyInput{Name: "Acme Construction"})
	require.NoError(t, err)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	domain := "acme.example"
	_, err = f.services.Company.SetDomainSettings(ctx, founder.ID, company.ID, DomainSettingsInput{
		AutoJoinEnabled: true,
		VerifiedDomain:  &domain,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteCompanyIsAdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.createUser(t, "Platform Admin", "root@rfpdesk.io", types.RoleAdmin)
	founder := f.createUser(t, "Fay Founder", "fay@acme.example", types.RoleBidder)
	company := f.createCompany(t, "Acme Construction", founder.ID)
	f.linkPrimary(t, founder, company, types.CompanyRoleAdmin)

	assert.ErrorIs(t, f.services.Company.Delete(ctx, founder.ID, company.ID), ErrForbidden)
	require.NoError(t, f.services.Company.Delete(ctx, admin.ID, company.ID))

	_, err := f.services.Company.Get(ctx, company.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
