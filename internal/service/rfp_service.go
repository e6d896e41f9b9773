package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rfpdesk/rfp-backend/internal/access"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// RFP Service
// ============================================

// RfpInput is the create/update payload for an RFP.
type RfpInput struct {
	Title       string
	Description *string
	Visibility  string
	ClosingDate *time.Time
	Categories  []string
	Budget      decimal.NullDecimal
}

// RfpView is an RFP with its derived status. The stored status column is a
// cache; reads always go through here.
type RfpView struct {
	*repository.Rfp
	EffectiveStatus string `json:"effectiveStatus"`
}

type RfpService interface {
	Create(ctx context.Context, req access.Requester, input RfpInput) (*RfpView, error)
	Get(ctx context.Context, req access.Requester, id string) (*RfpView, error)
	List(ctx context.Context, req access.Requester) ([]*RfpView, error)
	Update(ctx context.Context, req access.Requester, id string, input RfpInput) (*RfpView, error)
	Publish(ctx context.Context, req access.Requester, id string) (*RfpView, error)
	Close(ctx context.Context, req access.Requester, id string) (*RfpView, error)
	Delete(ctx context.Context, req access.Requester, id string) error
	// ReconcileExpired flips the stored status of past-deadline RFPs to
	// closed. Run periodically; reads never depend on it.
	ReconcileExpired(ctx context.Context, now time.Time) (int, error)
}

type rfpService struct {
	rfpRepo     repository.RfpRepository
	grantRepo   repository.AccessGrantRepository
	auditRepo   repository.AuditRepository
	broadcaster *socket.Broadcaster
}

func NewRfpService(
	rfpRepo repository.RfpRepository,
	grantRepo repository.AccessGrantRepository,
	auditRepo repository.AuditRepository,
	broadcaster *socket.Broadcaster,
) RfpService {
	return &rfpService{
		rfpRepo:     rfpRepo,
		grantRepo:   grantRepo,
		auditRepo:   auditRepo,
		broadcaster: broadcaster,
	}
}

func (s *rfpService) audit(ctx context.Context, actorID, action, rfpID string, detail map[string]interface{}) {
	entry := &repository.AuditEntry{
		ActorID:    &actorID,
		Action:     action,
		EntityType: "rfp",
		EntityID:   rfpID,
		Detail:     detail,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		log.Printf("[AUDIT] ⚠️  Failed to record %s for rfp %s: %v", action, rfpID, err)
	}
}

func view(rfp *repository.Rfp) *RfpView {
	return &RfpView{
		Rfp:             rfp,
		EffectiveStatus: types.EffectiveStatus(rfp.Status, rfp.ClosingDate, time.Now()),
	}
}

// canManage covers create/update/publish/close: platform admins and client
// reviewers. Updates additionally allow the RFP's creator.
func canManageRfps(req access.Requester) bool {
	return req.Role == types.RoleAdmin || req.Role == types.RoleClientReviewer
}

// visibleInListing reports whether an RFP shows up in a listing for the
// requester without consulting the grant table. Drafts are admin-only;
// confidential RFPs show to reviewers and the creator.
func visibleInListing(req access.Requester, rfp *repository.Rfp) bool {
	if req.Role == types.RoleAdmin {
		return true
	}
	if rfp.Status == types.RfpDraft {
		return false
	}
	if rfp.Visibility == types.VisibilityConfidential {
		return req.Role == types.RoleClientReviewer || (!req.Anonymous() && rfp.CreatedBy == req.UserID)
	}
	return true
}

// rfpVisibleTo extends visibleInListing with the grant table: an approved
// individual grant makes a non-draft confidential RFP visible to its holder,
// matching what the document evaluator already allows.
func rfpVisibleTo(ctx context.Context, grantRepo repository.AccessGrantRepository, req access.Requester, rfp *repository.Rfp) bool {
	if visibleInListing(req, rfp) {
		return true
	}
	if rfp.Status == types.RfpDraft || rfp.Visibility != types.VisibilityConfidential || req.Anonymous() {
		return false
	}
	grant, err := grantRepo.Find(ctx, rfp.ID, req.UserID)
	if err != nil {
		log.Printf("[RFP] ⚠️  Grant lookup failed for rfp %s user %s: %v", rfp.ID, req.UserID, err)
		return false
	}
	return grant != nil && grant.Status == "approved"
}

func (s *rfpService) visibleTo(ctx context.Context, req access.Requester, rfp *repository.Rfp) bool {
	return rfpVisibleTo(ctx, s.grantRepo, req, rfp)
}

func (s *rfpService) Create(ctx context.Context, req access.Requester, input RfpInput) (*RfpView, error) {
	if !canManageRfps(req) {
		return nil, ErrForbidden
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, ErrInvalidInput
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = types.VisibilityPublic
	}
	if visibility != types.VisibilityPublic && visibility != types.VisibilityConfidential {
		return nil, ErrInvalidInput
	}

	rfp := &repository.Rfp{
		Title:       input.Title,
		Description: input.Description,
		Visibility:  visibility,
		Status:      types.RfpDraft,
		ClosingDate: input.ClosingDate,
		Categories:  input.Categories,
		Budget:      input.Budget,
		CreatedBy:   req.UserID,
	}
	if err := s.rfpRepo.Create(ctx, rfp); err != nil {
		return nil, err
	}
	s.audit(ctx, req.UserID, "rfp_created", rfp.ID, map[string]interface{}{"title": rfp.Title})
	return view(rfp), nil
}

func (s *rfpService) Get(ctx context.Context, req access.Requester, id string) (*RfpView, error) {
	rfp, err := s.rfpRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfp == nil || !s.visibleTo(ctx, req, rfp) {
		// Hidden RFPs are indistinguishable from missing ones.
		return nil, ErrNotFound
	}
	return view(rfp), nil
}

func (s *rfpService) List(ctx context.Context, req access.Requester) ([]*RfpView, error) {
	rfps, err := s.rfpRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*RfpView, 0, len(rfps))
	for _, rfp := range rfps {
		if s.visibleTo(ctx, req, rfp) {
			views = append(views, view(rfp))
		}
	}
	return views, nil
}

func (s *rfpService) Update(ctx context.Context, req access.Requester, id string, input RfpInput) (*RfpView, error) {
	rfp, err := s.rfpRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}
	if !canManageRfps(req) && rfp.CreatedBy != req.UserID {
		return nil, ErrForbidden
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		rfp.Title = title
	}
	if input.Description != nil {
		rfp.Description = input.Description
	}
	if input.Visibility != "" {
		if input.Visibility != types.VisibilityPublic && input.Visibility != types.VisibilityConfidential {
			return nil, ErrInvalidInput
		}
		rfp.Visibility = input.Visibility
	}
	if input.ClosingDate != nil {
		rfp.ClosingDate = input.ClosingDate
	}
	if input.Categories != nil {
		rfp.Categories = input.Categories
	}
	if input.Budget.Valid {
		rfp.Budget = input.Budget
	}

	if err := s.rfpRepo.Update(ctx, rfp); err != nil {
		return nil, err
	}
	s.audit(ctx, req.UserID, "rfp_updated", id, nil)

	if s.broadcaster != nil && rfp.Status != types.RfpDraft {
		s.broadcaster.BroadcastRfpUpdated(id, map[string]interface{}{
			"rfpId": id,
			"title": rfp.Title,
		}, req.UserID)
	}
	return view(rfp), nil
}

// Publish moves a draft to active and stamps the publication time.
func (s *rfpService) Publish(ctx context.Context, req access.Requester, id string) (*RfpView, error) {
	if !canManageRfps(req) {
		return nil, ErrForbidden
	}
	rfp, err := s.rfpRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}
	if rfp.Status != types.RfpDraft {
		return nil, ErrConflict
	}
	if rfp.ClosingDate != nil && rfp.ClosingDate.Before(time.Now()) {
		return nil, ErrRfpClosed
	}

	now := time.Now()
	rfp.Status = types.RfpActive
	rfp.PublishedAt = &now
	if err := s.rfpRepo.Update(ctx, rfp); err != nil {
		return nil, err
	}
	s.audit(ctx, req.UserID, "rfp_published", id, nil)

	if s.broadcaster != nil && rfp.Visibility == types.VisibilityPublic {
		s.broadcaster.BroadcastRfpPublished(map[string]interface{}{
			"rfpId": id,
			"title": rfp.Title,
		})
	}
	return view(rfp), nil
}

func (s *rfpService) Close(ctx context.Context, req access.Requester, id string) (*RfpView, error) {
	if !canManageRfps(req) {
		return nil, ErrForbidden
	}
	rfp, err := s.rfpRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}
	if rfp.Status == types.RfpClosed {
		return view(rfp), nil
	}

	rfp.Status = types.RfpClosed
	if err := s.rfpRepo.Update(ctx, rfp); err != nil {
		return nil, err
	}
	s.audit(ctx, req.UserID, "rfp_closed", id, nil)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRfpClosed(id)
	}
	return view(rfp), nil
}

func (s *rfpService) Delete(ctx context.Context, req access.Requester, id string) error {
	if req.Role != types.RoleAdmin {
		return ErrForbidden
	}
	rfp, err := s.rfpRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rfp == nil {
		return ErrNotFound
	}
	if err := s.rfpRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, req.UserID, "rfp_deleted", id, map[string]interface{}{"title": rfp.Title})
	return nil
}

func (s *rfpService) ReconcileExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.rfpRepo.FindExpiredOpen(ctx, now)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, rfp := range expired {
		if err := s.rfpRepo.UpdateStatus(ctx, rfp.ID, types.RfpClosed); err != nil {
			log.Printf("[CRON] ⚠️  Failed to close expired RFP %s: %v", rfp.ID, err)
			continue
		}
		closed++
		if s.broadcaster != nil {
			s.broadcaster.BroadcastRfpClosed(rfp.ID)
		}
	}
	return closed, nil
}
