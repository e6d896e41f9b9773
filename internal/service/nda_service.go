package service

import (
	"context"
	"time"

	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/types"
)

// ============================================
// NDA Service
// ============================================

// SignNdaInput carries the signature payload captured at signing time.
type SignNdaInput struct {
	FullName      string
	SignerTitle   string
	SignerCompany string
	Signature     string
	IPAddress     string
	UserAgent     string
}

type NdaService interface {
	SignIndividual(ctx context.Context, userID, rfpID string, input SignNdaInput) (*repository.NdaRecord, error)
	SignCompany(ctx context.Context, userID, rfpID string, input SignNdaInput) (*repository.CompanyNda, error)
	Countersign(ctx context.Context, actorID, ndaKind, ndaID, countersignerName, countersignature string) error
	Reject(ctx context.Context, actorID, ndaKind, ndaID, reason string) error
	ListByRfp(ctx context.Context, actorID, rfpID string) ([]*repository.NdaRecord, []*repository.CompanyNda, error)
	Trail(ctx context.Context, actorID, ndaKind, ndaID string) ([]*repository.NdaTrailEntry, error)
}

type ndaService struct {
	ndaRepo     repository.NdaRepository
	rfpRepo     repository.RfpRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	notifSvc    *notification.Service
	broadcaster *socket.Broadcaster
}

func NewNdaService(
	ndaRepo repository.NdaRepository,
	rfpRepo repository.RfpRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) NdaService {
	return &ndaService{
		ndaRepo:     ndaRepo,
		rfpRepo:     rfpRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		notifSvc:    notifSvc,
		broadcaster: broadcaster,
	}
}

// isReviewer reports whether the actor may countersign or reject NDAs.
func (s *ndaService) isReviewer(ctx context.Context, actorID string) (bool, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, ErrUserNotFound
	}
	return actor.Role == types.RoleAdmin || actor.Role == types.RoleClientReviewer, nil
}

func (s *ndaService) trail(ctx context.Context, ndaKind, ndaID, action, actorID, detail string) {
	entry := &repository.NdaTrailEntry{
		NdaKind: ndaKind,
		NdaID:   ndaID,
		Action:  action,
		ActorID: actorID,
	}
	if detail != "" {
		entry.Detail = &detail
	}
	s.ndaRepo.AppendTrail(ctx, entry)
}

// SignIndividual creates or re-signs an individual NDA. Re-signing resets a
// rejected record back to signed and clears the old countersignature.
func (s *ndaService) SignIndividual(ctx context.Context, userID, rfpID string, input SignNdaInput) (*repository.NdaRecord, error) {
	if input.FullName == "" || input.Signature == "" {
		return nil, ErrInvalidInput
	}
	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}

	nda := &repository.NdaRecord{
		RfpID:     rfpID,
		UserID:    userID,
		FullName:  input.FullName,
		Signature: input.Signature,
		SignedAt:  time.Now(),
	}
	if input.SignerTitle != "" {
		nda.SignerTitle = &input.SignerTitle
	}
	if input.SignerCompany != "" {
		nda.SignerCompany = &input.SignerCompany
	}
	if input.IPAddress != "" {
		nda.IPAddress = &input.IPAddress
	}
	if input.UserAgent != "" {
		nda.UserAgent = &input.UserAgent
	}

	if err := s.ndaRepo.UpsertIndividual(ctx, nda); err != nil {
		return nil, err
	}
	s.trail(ctx, repository.NdaKindIndividual, nda.ID, "signed", userID, "")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastNdaSigned(rfpID, map[string]interface{}{
			"ndaId":  nda.ID,
			"rfpId":  rfpID,
			"userId": userID,
			"kind":   repository.NdaKindIndividual,
		}, userID)
	}
	return nda, nil
}

// SignCompany signs on behalf of the signer's primary company. Restricted to
// the company's primary admin.
func (s *ndaService) SignCompany(ctx context.Context, userID, rfpID string, input SignNdaInput) (*repository.CompanyNda, error) {
	if input.FullName == "" || input.Signature == "" {
		return nil, ErrInvalidInput
	}
	signer, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, ErrUserNotFound
	}
	if signer.CompanyID == nil {
		return nil, ErrNoCompany
	}
	if signer.CompanyRole == nil || *signer.CompanyRole != types.CompanyRoleAdmin {
		return nil, ErrForbidden
	}

	rfp, err := s.rfpRepo.FindByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, ErrNotFound
	}

	nda := &repository.CompanyNda{
		RfpID:     rfpID,
		CompanyID: *signer.CompanyID,
		SignedBy:  userID,
		FullName:  input.FullName,
		Signature: input.Signature,
		SignedAt:  time.Now(),
	}
	if input.SignerTitle != "" {
		nda.SignerTitle = &input.SignerTitle
	}
	if input.IPAddress != "" {
		nda.IPAddress = &input.IPAddress
	}
	if input.UserAgent != "" {
		nda.UserAgent = &input.UserAgent
	}

	if err := s.ndaRepo.UpsertCompany(ctx, nda); err != nil {
		return nil, err
	}
	s.trail(ctx, repository.NdaKindCompany, nda.ID, "signed", userID, "")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastNdaSigned(rfpID, map[string]interface{}{
			"ndaId":     nda.ID,
			"rfpId":     rfpID,
			"companyId": nda.CompanyID,
			"kind":      repository.NdaKindCompany,
		}, userID)
	}
	return nda, nil
}

// Countersign moves a signed NDA to approved. Admin or client_reviewer only.
func (s *ndaService) Countersign(ctx context.Context, actorID, ndaKind, ndaID, countersignerName, countersignature string) error {
	ok, err := s.isReviewer(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	if countersignerName == "" || countersignature == "" {
		return ErrInvalidInput
	}
	now := time.Now()

	switch ndaKind {
	case repository.NdaKindIndividual:
		nda, err := s.ndaRepo.FindIndividualByID(ctx, ndaID)
		if err != nil {
			return err
		}
		if nda == nil {
			return ErrNotFound
		}
		if nda.Status != types.NdaSigned {
			return ErrConflict
		}
		nda.Status = types.NdaApproved
		nda.CountersignedBy = &actorID
		nda.CountersignerName = &countersignerName
		nda.Countersignature = &countersignature
		nda.CountersignedAt = &now
		if err := s.ndaRepo.UpdateIndividual(ctx, nda); err != nil {
			return err
		}
		s.trail(ctx, ndaKind, ndaID, "countersigned", actorID, "")

		rfp, _ := s.rfpRepo.FindByID(ctx, nda.RfpID)
		title := nda.RfpID
		if rfp != nil {
			title = rfp.Title
		}
		if s.notifSvc != nil {
			s.notifSvc.SendNdaApproved(ctx, nda.UserID, title, nda.RfpID, nda.ID)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastNdaCountersigned(nda.RfpID, nil, map[string]interface{}{
				"ndaId":  nda.ID,
				"rfpId":  nda.RfpID,
				"userId": nda.UserID,
				"status": nda.Status,
			})
		}
		return nil

	case repository.NdaKindCompany:
		nda, err := s.ndaRepo.FindCompanyByID(ctx, ndaID)
		if err != nil {
			return err
		}
		if nda == nil {
			return ErrNotFound
		}
		if nda.Status != types.NdaSigned {
			return ErrConflict
		}
		nda.Status = types.NdaApproved
		nda.CountersignedBy = &actorID
		nda.CountersignerName = &countersignerName
		nda.Countersignature = &countersignature
		nda.CountersignedAt = &now
		if err := s.ndaRepo.UpdateCompany(ctx, nda); err != nil {
			return err
		}
		s.trail(ctx, ndaKind, ndaID, "countersigned", actorID, "")

		rfp, _ := s.rfpRepo.FindByID(ctx, nda.RfpID)
		title := nda.RfpID
		if rfp != nil {
			title = rfp.Title
		}
		if s.notifSvc != nil {
			// Fans out to every primary member of the signing company.
			s.notifSvc.SendCompanyNdaApproved(ctx, nda.CompanyID, title, nda.RfpID, nda.ID)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastNdaCountersigned(nda.RfpID, &nda.CompanyID, map[string]interface{}{
				"ndaId":     nda.ID,
				"rfpId":     nda.RfpID,
				"companyId": nda.CompanyID,
				"status":    nda.Status,
			})
		}
		return nil

	default:
		return ErrInvalidInput
	}
}

// Reject moves a signed NDA to rejected with a mandatory reason.
func (s *ndaService) Reject(ctx context.Context, actorID, ndaKind, ndaID, reason string) error {
	ok, err := s.isReviewer(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	if reason == "" {
		return ErrInvalidInput
	}

	switch ndaKind {
	case repository.NdaKindIndividual:
		nda, err := s.ndaRepo.FindIndividualByID(ctx, ndaID)
		if err != nil {
			return err
		}
		if nda == nil {
			return ErrNotFound
		}
		if nda.Status != types.NdaSigned {
			return ErrConflict
		}
		nda.Status = types.NdaRejected
		nda.RejectReason = &reason
		if err := s.ndaRepo.UpdateIndividual(ctx, nda); err != nil {
			return err
		}
		s.trail(ctx, ndaKind, ndaID, "rejected", actorID, reason)

		rfp, _ := s.rfpRepo.FindByID(ctx, nda.RfpID)
		title := nda.RfpID
		if rfp != nil {
			title = rfp.Title
		}
		if s.notifSvc != nil {
			s.notifSvc.SendNdaRejected(ctx, nda.UserID, title, nda.RfpID, reason)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastNdaRejected(nda.UserID, map[string]interface{}{
				"ndaId":  nda.ID,
				"rfpId":  nda.RfpID,
				"reason": reason,
			})
		}
		return nil

	case repository.NdaKindCompany:
		nda, err := s.ndaRepo.FindCompanyByID(ctx, ndaID)
		if err != nil {
			return err
		}
		if nda == nil {
			return ErrNotFound
		}
		if nda.Status != types.NdaSigned {
			return ErrConflict
		}
		nda.Status = types.NdaRejected
		nda.RejectReason = &reason
		if err := s.ndaRepo.UpdateCompany(ctx, nda); err != nil {
			return err
		}
		s.trail(ctx, ndaKind, ndaID, "rejected", actorID, reason)

		rfp, _ := s.rfpRepo.FindByID(ctx, nda.RfpID)
		title := nda.RfpID
		if rfp != nil {
			title = rfp.Title
		}
		if s.notifSvc != nil {
			// The original signer is notified, not the whole company.
			s.notifSvc.SendNdaRejected(ctx, nda.SignedBy, title, nda.RfpID, reason)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastNdaRejected(nda.SignedBy, map[string]interface{}{
				"ndaId":  nda.ID,
				"rfpId":  nda.RfpID,
				"reason": reason,
			})
		}
		return nil

	default:
		return ErrInvalidInput
	}
}

// ListByRfp lists all NDAs on an RFP for review.
func (s *ndaService) ListByRfp(ctx context.Context, actorID, rfpID string) ([]*repository.NdaRecord, []*repository.CompanyNda, error) {
	ok, err := s.isReviewer(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrForbidden
	}

	individuals, err := s.ndaRepo.FindIndividualsByRfp(ctx, rfpID)
	if err != nil {
		return nil, nil, err
	}
	companies, err := s.ndaRepo.FindCompaniesByRfp(ctx, rfpID)
	if err != nil {
		return nil, nil, err
	}
	return individuals, companies, nil
}

// Trail returns the audit trail of a single NDA.
func (s *ndaService) Trail(ctx context.Context, actorID, ndaKind, ndaID string) ([]*repository.NdaTrailEntry, error) {
	ok, err := s.isReviewer(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.ndaRepo.FindTrail(ctx, ndaKind, ndaID)
}
