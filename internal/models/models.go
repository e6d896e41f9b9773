package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rfpdesk/rfp-backend/internal/access"
)

// ============================================
// Auth
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CompanyID   *string   `json:"companyId,omitempty"`
	CompanyRole *string   `json:"companyRole,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User               UserResponse      `json:"user"`
	AccessToken        string            `json:"accessToken"`
	RefreshToken       string            `json:"refreshToken"`
	AutoJoined         *CompanyResponse  `json:"autoJoined,omitempty"`
	AutoJoinCandidates []CompanyResponse `json:"autoJoinCandidates,omitempty"`
}

// ============================================
// Companies & Membership
// ============================================

type CreateCompanyRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
}

type UpdateCompanyRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
}

type DomainSettingsRequest struct {
	AutoJoinEnabled bool     `json:"autoJoinEnabled"`
	VerifiedDomain  *string  `json:"verifiedDomain"`
	BlockedDomains  []string `json:"blockedDomains"`
}

type VerificationRequest struct {
	Status string `json:"status" binding:"required"`
}

type CompanyResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        *string   `json:"description,omitempty"`
	Website            *string   `json:"website,omitempty"`
	VerificationStatus string    `json:"verificationStatus"`
	AutoJoinEnabled    bool      `json:"autoJoinEnabled"`
	VerifiedDomain     *string   `json:"verifiedDomain,omitempty"`
	BlockedDomains     []string  `json:"blockedDomains"`
	CreatedAt          time.Time `json:"createdAt"`
}

type JoinRequestRequest struct {
	CompanyID string `json:"companyId" binding:"required"`
	Message   string `json:"message"`
}

type ApproveJoinRequest struct {
	Role string `json:"role"`
}

type RejectJoinRequest struct {
	Reason string `json:"reason"`
}

type AssignCompanyRequest struct {
	UserID    string `json:"userId" binding:"required"`
	CompanyID string `json:"companyId" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	Role      string `json:"role"`
}

type SetMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type ConfirmAutoJoinRequest struct {
	CompanyID string `json:"companyId" binding:"required"`
}

type AffiliationResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	CompanyID  string     `json:"companyId"`
	Kind       string     `json:"kind"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	JoinMethod string     `json:"joinMethod"`
	Message    *string    `json:"message,omitempty"`
	DecidedBy  *string    `json:"decidedBy,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ============================================
// RFPs
// ============================================

type CreateRfpRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description *string             `json:"description"`
	Visibility  string              `json:"visibility"`
	ClosingDate *time.Time          `json:"closingDate"`
	Categories  []string            `json:"categories"`
	Budget      decimal.NullDecimal `json:"budget"`
}

type UpdateRfpRequest struct {
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Visibility  string              `json:"visibility"`
	ClosingDate *time.Time          `json:"closingDate"`
	Categories  []string            `json:"categories"`
	Budget      decimal.NullDecimal `json:"budget"`
}

type RfpResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Visibility  string              `json:"visibility"`
	Status      string              `json:"status"`
	ClosingDate *time.Time          `json:"closingDate,omitempty"`
	Categories  []string            `json:"categories"`
	Budget      decimal.NullDecimal `json:"budget"`
	CreatedBy   string              `json:"createdBy"`
	PublishedAt *time.Time          `json:"publishedAt,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ============================================
// Documents
// ============================================

type DocumentFlagsRequest struct {
	RequiresNda      bool `json:"requiresNda"`
	RequiresApproval bool `json:"requiresApproval"`
}

type DocumentResponse struct {
	ID               string           `json:"id"`
	RfpID            string           `json:"rfpId"`
	Name             string           `json:"name"`
	ContentType      *string          `json:"contentType,omitempty"`
	Size             *int64           `json:"size,omitempty"`
	RequiresNda      bool             `json:"requiresNda"`
	RequiresApproval bool             `json:"requiresApproval"`
	Access           *access.Decision `json:"access,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type DownloadResponse struct {
	URL string `json:"url"`
}

// ============================================
// NDAs
// ============================================

type SignNdaRequest struct {
	FullName      string `json:"fullName" binding:"required"`
	SignerTitle   string `json:"signerTitle"`
	SignerCompany string `json:"signerCompany"`
	Signature     string `json:"signature" binding:"required"`
}

type CountersignRequest struct {
	CountersignerName string `json:"countersignerName" binding:"required"`
	Countersignature  string `json:"countersignature" binding:"required"`
}

type RejectNdaRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type NdaResponse struct {
	ID                string     `json:"id"`
	RfpID             string     `json:"rfpId"`
	UserID            string     `json:"userId,omitempty"`
	CompanyID         string     `json:"companyId,omitempty"`
	SignedBy          string     `json:"signedBy,omitempty"`
	Status            string     `json:"status"`
	FullName          string     `json:"fullName"`
	SignerTitle       *string    `json:"signerTitle,omitempty"`
	SignerCompany     *string    `json:"signerCompany,omitempty"`
	SignedAt          time.Time  `json:"signedAt"`
	CountersignerName *string    `json:"countersignerName,omitempty"`
	CountersignedAt   *time.Time `json:"countersignedAt,omitempty"`
	RejectReason      *string    `json:"rejectReason,omitempty"`
}

type NdaTrailResponse struct {
	ID        string    `json:"id"`
	NdaKind   string    `json:"ndaKind"`
	NdaID     string    `json:"ndaId"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actorId"`
	Detail    *string   `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================
// Interest Registrations
// ============================================

type RejectRegistrationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RegistrationResponse struct {
	ID           string     `json:"id"`
	RfpID        string     `json:"rfpId"`
	CompanyID    string     `json:"companyId"`
	RegistrantID string     `json:"registrantId"`
	Status       string     `json:"status"`
	Reason       *string    `json:"reason,omitempty"`
	DecidedBy    *string    `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	Duplicate    bool       `json:"duplicate,omitempty"`
}

// ============================================
// Invitations
// ============================================

type CreateCompanyInvitationRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

type CreateRfpInvitationRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message"`
}

type InvitationResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	CompanyID  *string    `json:"companyId,omitempty"`
	RfpID      *string    `json:"rfpId,omitempty"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	InvitedBy  string     `json:"invitedBy"`
	Message    *string    `json:"message,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ============================================
// Notifications
// ============================================

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ============================================
// Q&A
// ============================================

type AskQuestionRequest struct {
	Body string `json:"body" binding:"required"`
}

type AnswerQuestionRequest struct {
	Answer string `json:"answer" binding:"required"`
}

type QuestionResponse struct {
	ID         string     `json:"id"`
	RfpID      string     `json:"rfpId"`
	AuthorID   string     `json:"authorId"`
	CompanyID  *string    `json:"companyId,omitempty"`
	Body       string     `json:"body"`
	Answer     *string    `json:"answer,omitempty"`
	AnsweredBy *string    `json:"answeredBy,omitempty"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ============================================
// Proposals
// ============================================

type SubmitProposalRequest struct {
	Summary string `json:"summary"`
	FileKey string `json:"fileKey"`
}

type ProposalResponse struct {
	ID          string     `json:"id"`
	RfpID       string     `json:"rfpId"`
	CompanyID   string     `json:"companyId"`
	SubmittedBy string     `json:"submittedBy"`
	Status      string     `json:"status"`
	Summary     *string    `json:"summary,omitempty"`
	FileKey     *string    `json:"fileKey,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
	WithdrawnAt *time.Time `json:"withdrawnAt,omitempty"`
}

// ============================================
// Audit
// ============================================

type AuditEntryResponse struct {
	ID         string                 `json:"id"`
	ActorID    *string                `json:"actorId,omitempty"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}
