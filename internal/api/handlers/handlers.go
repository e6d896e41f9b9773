package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	Company      *CompanyHandler
	Membership   *MembershipHandler
	Rfp          *RfpHandler
	Document     *DocumentHandler
	Nda          *NdaHandler
	Registration *RegistrationHandler
	Invitation   *InvitationHandler
	Notification *NotificationHandler
	Question     *QuestionHandler
	Proposal     *ProposalHandler
	Audit        *AuditHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth, identityService: services.Identity},
		Company:      &CompanyHandler{companyService: services.Company},
		Membership:   &MembershipHandler{membershipService: services.Membership},
		Rfp:          &RfpHandler{rfpService: services.Rfp},
		Document:     &DocumentHandler{documentService: services.Document},
		Nda:          &NdaHandler{ndaService: services.Nda},
		Registration: &RegistrationHandler{registrationService: services.Registration},
		Invitation:   &InvitationHandler{invitationService: services.Invitation},
		Notification: &NotificationHandler{notificationService: services.Notification},
		Question:     &QuestionHandler{questionService: services.Question},
		Proposal:     &ProposalHandler{proposalService: services.Proposal},
		Audit:        &AuditHandler{auditService: services.Audit},
	}
}

// respondError maps service sentinel errors onto HTTP statuses. Unrecognized
// errors become a generic 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Document access denied"})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, service.ErrLastAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": "A company must keep at least one admin"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRfpClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "RFP is closed"})
	case errors.Is(err, service.ErrNoCompany):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "A primary company membership is required"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
	c.Error(err)
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		CompanyID:   u.CompanyID,
		CompanyRole: u.CompanyRole,
		CreatedAt:   u.CreatedAt,
	}
}

func toCompanyResponse(company *repository.Company) models.CompanyResponse {
	return models.CompanyResponse{
		ID:                 company.ID,
		Name:               company.Name,
		Description:        company.Description,
		Website:            company.Website,
		VerificationStatus: company.VerificationStatus,
		AutoJoinEnabled:    company.AutoJoinEnabled,
		VerifiedDomain:     company.VerifiedDomain,
		BlockedDomains:     safeStringSlice(company.BlockedDomains),
		CreatedAt:          company.CreatedAt,
	}
}

func toAffiliationResponse(aff *repository.Affiliation) models.AffiliationResponse {
	return models.AffiliationResponse{
		ID:         aff.ID,
		UserID:     aff.UserID,
		CompanyID:  aff.CompanyID,
		Kind:       aff.Kind,
		Role:       aff.Role,
		Status:     aff.Status,
		JoinMethod: aff.JoinMethod,
		Message:    aff.Message,
		DecidedBy:  aff.DecidedBy,
		DecidedAt:  aff.DecidedAt,
		CreatedAt:  aff.CreatedAt,
	}
}

func toRfpResponse(v *service.RfpView) models.RfpResponse {
	return models.RfpResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Visibility:  v.Visibility,
		Status:      v.EffectiveStatus,
		ClosingDate: v.ClosingDate,
		Categories:  safeStringSlice(v.Categories),
		Budget:      v.Budget,
		CreatedBy:   v.CreatedBy,
		PublishedAt: v.PublishedAt,
		CreatedAt:   v.CreatedAt,
	}
}

func toDocumentResponse(doc *repository.Document) models.DocumentResponse {
	return models.DocumentResponse{
		ID:               doc.ID,
		RfpID:            doc.RfpID,
		Name:             doc.Name,
		ContentType:      doc.ContentType,
		Size:             doc.Size,
		RequiresNda:      doc.RequiresNda,
		RequiresApproval: doc.RequiresApproval,
		CreatedAt:        doc.CreatedAt,
	}
}

func toNdaResponse(nda *repository.NdaRecord) models.NdaResponse {
	return models.NdaResponse{
		ID:                nda.ID,
		RfpID:             nda.RfpID,
		UserID:            nda.UserID,
		Status:            nda.Status,
		FullName:          nda.FullName,
		SignerTitle:       nda.SignerTitle,
		SignerCompany:     nda.SignerCompany,
		SignedAt:          nda.SignedAt,
		CountersignerName: nda.CountersignerName,
		CountersignedAt:   nda.CountersignedAt,
		RejectReason:      nda.RejectReason,
	}
}

func toCompanyNdaResponse(nda *repository.CompanyNda) models.NdaResponse {
	return models.NdaResponse{
		ID:                nda.ID,
		RfpID:             nda.RfpID,
		CompanyID:         nda.CompanyID,
		SignedBy:          nda.SignedBy,
		Status:            nda.Status,
		FullName:          nda.FullName,
		SignerTitle:       nda.SignerTitle,
		SignedAt:          nda.SignedAt,
		CountersignerName: nda.CountersignerName,
		CountersignedAt:   nda.CountersignedAt,
		RejectReason:      nda.RejectReason,
	}
}

func toRegistrationResponse(reg *repository.InterestRegistration) models.RegistrationResponse {
	return models.RegistrationResponse{
		ID:           reg.ID,
		RfpID:        reg.RfpID,
		CompanyID:    reg.CompanyID,
		RegistrantID: reg.RegistrantID,
		Status:       reg.Status,
		Reason:       reg.Reason,
		DecidedBy:    reg.DecidedBy,
		DecidedAt:    reg.DecidedAt,
		CreatedAt:    reg.CreatedAt,
	}
}

func toInvitationResponse(inv *repository.Invitation) models.InvitationResponse {
	return models.InvitationResponse{
		ID:         inv.ID,
		Kind:       inv.Kind,
		CompanyID:  inv.CompanyID,
		RfpID:      inv.RfpID,
		Email:      inv.Email,
		Role:       inv.Role,
		Status:     inv.Status,
		InvitedBy:  inv.InvitedBy,
		Message:    inv.Message,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
		CreatedAt:  inv.CreatedAt,
	}
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

func toQuestionResponse(q *repository.Question) models.QuestionResponse {
	return models.QuestionResponse{
		ID:         q.ID,
		RfpID:      q.RfpID,
		AuthorID:   q.AuthorID,
		CompanyID:  q.CompanyID,
		Body:       q.Body,
		Answer:     q.Answer,
		AnsweredBy: q.AnsweredBy,
		AnsweredAt: q.AnsweredAt,
		CreatedAt:  q.CreatedAt,
	}
}

func toProposalResponse(p *repository.Proposal) models.ProposalResponse {
	return models.ProposalResponse{
		ID:          p.ID,
		RfpID:       p.RfpID,
		CompanyID:   p.CompanyID,
		SubmittedBy: p.SubmittedBy,
		Status:      p.Status,
		Summary:     p.Summary,
		FileKey:     p.FileKey,
		SubmittedAt: p.SubmittedAt,
		WithdrawnAt: p.WithdrawnAt,
	}
}

func toAuditEntryResponse(entry *repository.AuditEntry) models.AuditEntryResponse {
	return models.AuditEntryResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     entry.Detail,
		CreatedAt:  entry.CreatedAt,
	}
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
