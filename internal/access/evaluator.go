// Package access implements the document access evaluator. Every document
// read, list render and download goes through a Decision produced here; the
// storage layer asks the same question again before presigning a download, so
// a metadata-only check can never leak bytes.
package access

import (
	"context"
	"fmt"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// Decision reasons. Denials are ordinary results, not errors.
const (
	ReasonAdminOverride    = "admin_override"
	ReasonRfpNotVisible    = "rfp_not_visible"
	ReasonNoRestriction    = "no_restriction"
	ReasonNdaRequired      = "nda_required"
	ReasonApprovalRequired = "approval_required"
	ReasonConditionsMet    = "conditions_met"
)

// Requester identifies who is asking. A zero UserID means an anonymous
// (unauthenticated) request. Role and company fields come from the session
// claims, never from a query that is itself access-controlled.
type Requester struct {
	UserID      string
	Role        string
	CompanyID   *string
	CompanyRole *string
}

// Anonymous reports whether the requester is unauthenticated.
func (r Requester) Anonymous() bool {
	return r.UserID == ""
}

// Decision is the result of evaluating one document for one requester.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Evaluator loads the per-requester state needed to decide document access.
type Evaluator struct {
	ndaRepo   repository.NdaRepository
	regRepo   repository.RegistrationRepository
	grantRepo repository.AccessGrantRepository
}

func NewEvaluator(ndaRepo repository.NdaRepository, regRepo repository.RegistrationRepository, grantRepo repository.AccessGrantRepository) *Evaluator {
	return &Evaluator{
		ndaRepo:   ndaRepo,
		regRepo:   regRepo,
		grantRepo: grantRepo,
	}
}

// Snapshot is the requester's access state against one RFP, loaded once and
// then consulted per document. Listing a 50-document RFP costs the same three
// lookups as checking a single download.
type Snapshot struct {
	Requester Requester
	Rfp       *repository.Rfp

	hasNda      bool
	hasApproval bool
	hasGrant    bool
}

// Snapshot resolves the requester's NDA, registration and grant state for the
// given RFP. Anonymous requesters skip all lookups.
func (e *Evaluator) Snapshot(ctx context.Context, req Requester, rfp *repository.Rfp) (*Snapshot, error) {
	if rfp == nil {
		return nil, fmt.Errorf("access: snapshot requires a resolved rfp")
	}
	snap := &Snapshot{Requester: req, Rfp: rfp}
	if req.Anonymous() {
		return snap, nil
	}

	nda, err := e.ndaRepo.FindIndividual(ctx, rfp.ID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("access: load individual nda: %w", err)
	}
	if ndaSatisfies(nda) {
		snap.hasNda = true
	}

	grant, err := e.grantRepo.Find(ctx, rfp.ID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("access: load access grant: %w", err)
	}
	if grant != nil && grant.Status == "approved" {
		snap.hasGrant = true
	}

	if req.CompanyID != nil {
		if !snap.hasNda {
			companyNda, err := e.ndaRepo.FindCompany(ctx, rfp.ID, *req.CompanyID)
			if err != nil {
				return nil, fmt.Errorf("access: load company nda: %w", err)
			}
			if companyNdaSatisfies(companyNda) {
				snap.hasNda = true
			}
		}
		reg, err := e.regRepo.Find(ctx, rfp.ID, *req.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("access: load interest registration: %w", err)
		}
		if reg != nil && reg.Status == types.RegistrationApproved {
			snap.hasApproval = true
		}
	}
	// An approved individual grant also satisfies the approval requirement.
	if snap.hasGrant {
		snap.hasApproval = true
	}
	return snap, nil
}

// Decide evaluates one document against the snapshot. Pure: no I/O, safe to
// call for every row of a listing.
func (s *Snapshot) Decide(doc *repository.Document) Decision {
	if s.Requester.Role == types.RoleAdmin {
		return Decision{Allowed: true, Reason: ReasonAdminOverride}
	}
	if !s.rfpVisible() {
		return Decision{Allowed: false, Reason: ReasonRfpNotVisible}
	}
	if !doc.RequiresNda && !doc.RequiresApproval {
		return Decision{Allowed: true, Reason: ReasonNoRestriction}
	}
	// Both flags set means both conditions must hold.
	if doc.RequiresNda && !s.hasNda {
		return Decision{Allowed: false, Reason: ReasonNdaRequired}
	}
	if doc.RequiresApproval && !s.hasApproval {
		return Decision{Allowed: false, Reason: ReasonApprovalRequired}
	}
	return Decision{Allowed: true, Reason: ReasonConditionsMet}
}

// rfpVisible applies RFP-level visibility before any document flag is
// considered. Drafts are admin-only; admins never reach this check.
func (s *Snapshot) rfpVisible() bool {
	if s.Rfp.Status == types.RfpDraft {
		return false
	}
	if s.Rfp.Visibility == types.VisibilityConfidential {
		if s.Requester.Anonymous() {
			return false
		}
		if s.Requester.UserID == s.Rfp.CreatedBy {
			return true
		}
		if s.Requester.Role == types.RoleClientReviewer {
			return true
		}
		return s.hasGrant
	}
	return true
}

// CanAccessDocument decides a single document fetch.
func (e *Evaluator) CanAccessDocument(ctx context.Context, req Requester, rfp *repository.Rfp, doc *repository.Document) (Decision, error) {
	snap, err := e.Snapshot(ctx, req, rfp)
	if err != nil {
		return Decision{}, err
	}
	return snap.Decide(doc), nil
}

// EvaluateAll decides a whole document listing in one pass.
func (e *Evaluator) EvaluateAll(ctx context.Context, req Requester, rfp *repository.Rfp, docs []*repository.Document) ([]Decision, error) {
	snap, err := e.Snapshot(ctx, req, rfp)
	if err != nil {
		return nil, err
	}
	decisions := make([]Decision, len(docs))
	for i, doc := range docs {
		decisions[i] = snap.Decide(doc)
	}
	return decisions, nil
}

func ndaSatisfies(nda *repository.NdaRecord) bool {
	return nda != nil && (nda.Status == types.NdaSigned || nda.Status == types.NdaApproved)
}

func companyNdaSatisfies(nda *repository.CompanyNda) bool {
	return nda != nil && (nda.Status == types.NdaSigned || nda.Status == types.NdaApproved)
}
