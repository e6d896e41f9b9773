package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

type evalFixture struct {
	repos     *repository.Repositories
	evaluator *Evaluator
}

func newEvalFixture() *evalFixture {
	repos := repository.NewMemoryRepositories()
	return &evalFixture{
		repos:     repos,
		evaluator: NewEvaluator(repos.NdaRepo, repos.RegistrationRepo, repos.AccessGrantRepo),
	}
}

func (f *evalFixture) createRfp(t *testing.T, visibility, status string) *repository.Rfp {
	t.Helper()
	rfp := &repository.Rfp{
		Title:      "Data Center Buildout",
		Visibility: visibility,
		Status:     status,
		CreatedBy:  "owner-1",
	}
	require.NoError(t, f.repos.RfpRepo.Create(context.Background(), rfp))
	return rfp
}

func (f *evalFixture) createDoc(t *testing.T, rfpID string, requiresNda, requiresApproval bool) *repository.Document {
	t.Helper()
	doc := &repository.Document{
		RfpID:            rfpID,
		Name:             "requirements.pdf",
		FileKey:          "docs/requirements.pdf",
		RequiresNda:      requiresNda,
		RequiresApproval: requiresApproval,
	}
	require.NoError(t, f.repos.DocumentRepo.Create(context.Background(), doc))
	return doc
}

func TestEvaluatorAdminOverride(t *testing.T) {
	f := newEvalFixture()
	rfp := f.createRfp(t, types.VisibilityConfidential, types.RfpDraft)
	doc := f.createDoc(t, rfp.ID, true, true)

	admin := Requester{UserID: "admin-1", Role: types.RoleAdmin}
	decision, err := f.evaluator.CanAccessDocument(context.Background(), admin, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonAdminOverride, decision.Reason)
}

func TestEvaluatorAnonymousPublicUnrestricted(t *testing.T) {
	f := newEvalFixture()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive)
	doc := f.createDoc(t, rfp.ID, false, false)

	decision, err := f.evaluator.CanAccessDocument(context.Background(), Requester{}, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonNoRestriction, decision.Reason)
}

func TestEvaluatorDraftHiddenFromNonAdmins(t *testing.T) {
	f := newEvalFixture()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpDraft)
	doc := f.createDoc(t, rfp.ID, false, false)

	for name, req := range map[string]Requester{
		"anonymous": {},
		"bidder":    {UserID: "user-1", Role: types.RoleBidder},
		"reviewer":  {UserID: "user-2", Role: types.RoleClientReviewer},
	} {
		decision, err := f.evaluator.CanAccessDocument(context.Background(), req, rfp, doc)
		require.NoError(t, err, name)
		assert.False(t, decision.Allowed, name)
		assert.Equal(t, ReasonRfpNotVisible, decision.Reason, name)
	}
}

func TestEvaluatorConfidentialRequiresGrant(t *testing.T) {
	f := newEvalFixture()
	ctx := context.Background()
	rfp := f.createRfp(t, types.VisibilityConfidential, types.RfpActive)
	doc := f.createDoc(t, rfp.ID, false, false)

	bidder := Requester{UserID: "user-1", Role: types.RoleBidder}
	decision, err := f.evaluator.CanAccessDocument(ctx, bidder, rfp, doc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRfpNotVisible, decision.Reason)

	require.NoError(t, f.repos.AccessGrantRepo.Create(ctx, &repository.AccessGrant{
		RfpID:  rfp.ID,
		UserID: "user-1",
	}))
	decision, err = f.evaluator.CanAccessDocument(ctx, bidder, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonNoRestriction, decision.Reason)

	// Reviewers see confidential RFPs without an individual grant.
	reviewer := Requester{UserID: "user-2", Role: types.RoleClientReviewer}
	decision, err = f.evaluator.CanAccessDocument(ctx, reviewer, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestEvaluatorNdaGating(t *testing.T) {
	f := newEvalFixture()
	ctx := context.Background()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive)
	doc := f.createDoc(t, rfp.ID, true, false)

	user := Requester{UserID: "user-1", Role: types.RoleBidder}
	decision, err := f.evaluator.CanAccessDocument(ctx, user, rfp, doc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNdaRequired, decision.Reason)

	// Signing flips access immediately; countersigning must not regress it.
	nda := &repository.NdaRecord{RfpID: rfp.ID, UserID: "user-1", FullName: "User One", Signature: "sig"}
	require.NoError(t, f.repos.NdaRepo.UpsertIndividual(ctx, nda))

	decision, err = f.evaluator.CanAccessDocument(ctx, user, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonConditionsMet, decision.Reason)

	nda.Status = types.NdaApproved
	require.NoError(t, f.repos.NdaRepo.UpdateIndividual(ctx, nda))
	decision, err = f.evaluator.CanAccessDocument(ctx, user, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// A rejected NDA no longer satisfies the gate.
	nda.Status = types.NdaRejected
	require.NoError(t, f.repos.NdaRepo.UpdateIndividual(ctx, nda))
	decision, err = f.evaluator.CanAccessDocument(ctx, user, rfp, doc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNdaRequired, decision.Reason)
}

func TestEvaluatorCompanyNdaCoversMembers(t *testing.T) {
	f := newEvalFixture()
	ctx := context.Background()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive)
	doc := f.createDoc(t, rfp.ID, true, false)

	companyID := "company-1"
	member := Requester{UserID: "user-1", Role: types.RoleBidder, CompanyID: &companyID}

	require.NoError(t, f.repos.NdaRepo.UpsertCompany(ctx, &repository.CompanyNda{
		RfpID:     rfp.ID,
		CompanyID: companyID,
		SignedBy:  "company-admin",
		FullName:  "Company Admin",
		Signature: "sig",
	}))

	decision, err := f.evaluator.CanAccessDocument(ctx, member, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// A user outside the company gets nothing from it.
	outsider := Requester{UserID: "user-2", Role: types.RoleBidder}
	decision, err = f.evaluator.CanAccessDocument(ctx, outsider, rfp, doc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNdaRequired, decision.Reason)
}

func TestEvaluatorApprovalGating(t *testing.T) {
	f := newEvalFixture()
	ctx := context.Background()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive)
	doc := f.createDoc(t, rfp.ID, true, true)

	companyID := "company-1"
	member := Requester{UserID: "user-1", Role: types.RoleBidder, CompanyID: &companyID}

	// NDA alone does not satisfy a document that also requires approval.
	require.NoError(t, f.repos.NdaRepo.UpsertIndividual(ctx, &repository.NdaRecord{
		RfpID: rfp.ID, UserID: "user-1", FullName: "User One", Signature: "sig",
	}))
	decision, err := f.evaluator.CanAccessDocument(ctx, member, rfp, doc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonApprovalRequired, decision.Reason)

	// A pending registration is not enough.
	reg := &repository.InterestRegistration{RfpID: rfp.ID, CompanyID: companyID, RegistrantID: "user-1"}
	require.NoError(t, f.repos.RegistrationRepo.Create(ctx, reg))
	decision, err = f.evaluator.CanAccessDocument(ctx, member, rfp, doc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonApprovalRequired, decision.Reason)

	reg.Status = types.RegistrationApproved
	require.NoError(t, f.repos.RegistrationRepo.Update(ctx, reg))
	decision, err = f.evaluator.CanAccessDocument(ctx, member, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonConditionsMet, decision.Reason)
}

func TestEvaluatorIndividualGrantSatisfiesApproval(t *testing.T) {
	f := newEvalFixture()
	ctx := context.Background()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive)
	doc := f.createDoc(t, rfp.ID, false, true)

	user := Requester{UserID: "user-1", Role: types.RoleBidder}
	decision, err := f.evaluator.CanAccessDocument(ctx, user, rfp, doc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonApprovalRequired, decision.Reason)

	require.NoError(t, f.repos.AccessGrantRepo.Create(ctx, &repository.AccessGrant{
		RfpID:  rfp.ID,
		UserID: "user-1",
	}))
	decision, err = f.evaluator.CanAccessDocument(ctx, user, rfp, doc)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonConditionsMet, decision.Reason)
}

func TestEvaluatorAnonymousNeverPassesRestrictedDocs(t *testing.T) {
	f := newEvalFixture()
	ctx := context.Background()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive)

	ndaDoc := f.createDoc(t, rfp.ID, true, false)
	approvalDoc := f.createDoc(t, rfp.ID, false, true)

	decision, err := f.evaluator.CanAccessDocument(ctx, Requester{}, rfp, ndaDoc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNdaRequired, decision.Reason)

	decision, err = f.evaluator.CanAccessDocument(ctx, Requester{}, rfp, approvalDoc)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonApprovalRequired, decision.Reason)
}

func TestEvaluatorBatchListing(t *testing.T) {
	f := newEvalFixture()
	ctx := context.Background()
	rfp := f.createRfp(t, types.VisibilityPublic, types.RfpActive)

	docs := []*repository.Document{
		f.createDoc(t, rfp.ID, false, false),
		f.createDoc(t, rfp.ID, true, false),
		f.createDoc(t, rfp.ID, false, true),
	}

	user := Requester{UserID: "user-1", Role: types.RoleBidder}
	require.NoError(t, f.repos.NdaRepo.UpsertIndividual(ctx, &repository.NdaRecord{
		RfpID: rfp.ID, UserID: "user-1", FullName: "User One", Signature: "sig",
	}))

	decisions, err := f.evaluator.EvaluateAll(ctx, user, rfp, docs)
	require.NoError(t, err)
	require.Len(t, decisions, 3)
	assert.Equal(t, Decision{Allowed: true, Reason: ReasonNoRestriction}, decisions[0])
	assert.Equal(t, Decision{Allowed: true, Reason: ReasonConditionsMet}, decisions[1])
	assert.Equal(t, Decision{Allowed: false, Reason: ReasonApprovalRequired}, decisions[2])
}
