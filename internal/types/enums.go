package types

import "time"

// Platform roles
const (
	RoleAdmin          = "admin"
	RoleClientReviewer = "client_reviewer"
	RoleBidder         = "bidder"
)

// Company roles (primary affiliation)
const (
	CompanyRoleAdmin   = "admin"
	CompanyRoleMember  = "member"
	CompanyRolePending = "pending"
)

// Affiliation kinds
const (
	AffiliationPrimary   = "primary"
	AffiliationSecondary = "secondary"
	AffiliationPending   = "pending"
)

// Affiliation join methods
const (
	JoinMethodRequest       = "request"
	JoinMethodInvite        = "invite"
	JoinMethodAdminAssigned = "admin_assigned"
	JoinMethodAutoJoined    = "auto_joined"
	JoinMethodFounder       = "founder"
)

// RFP status values
const (
	RfpDraft  = "draft"
	RfpActive = "active"
	RfpClosed = "closed"
)

// RFP visibility values
const (
	VisibilityPublic       = "public"
	VisibilityConfidential = "confidential"
)

// NDA status values
const (
	NdaSigned   = "signed"
	NdaApproved = "approved"
	NdaRejected = "rejected"
)

// Interest registration status values
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Company verification status values
const (
	CompanyUnverified = "unverified"
	CompanyPending    = "pending"
	CompanyVerified   = "verified"
	CompanyRejected   = "rejected"
)

// Invitation status values
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationCancelled = "cancelled"
	InvitationExpired   = "expired"
)

// Invitation kinds
const (
	InvitationKindCompany = "company"
	InvitationKindRfp     = "rfp"
)

// Proposal status values
const (
	ProposalSubmitted = "submitted"
	ProposalWithdrawn = "withdrawn"
)

// Membership status values (secondary/collaborator affiliations)
const (
	MembershipActive   = "active"
	MembershipInactive = "inactive"
)

var ValidRfpStatuses = []string{RfpDraft, RfpActive, RfpClosed}

var ValidVisibilities = []string{VisibilityPublic, VisibilityConfidential}

var ValidPlatformRoles = []string{RoleAdmin, RoleClientReviewer, RoleBidder}

func IsValidRfpStatus(status string) bool {
	for _, s := range ValidRfpStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidVisibility(v string) bool {
	for _, s := range ValidVisibilities {
		if s == v {
			return true
		}
	}
	return false
}

func IsValidPlatformRole(role string) bool {
	for _, r := range ValidPlatformRoles {
		if r == role {
			return true
		}
	}
	return false
}

// EffectiveStatus derives the display status of an RFP from its stored status
// and closing date. The stored status is a cache: an RFP whose closing date
// has passed is closed no matter what the row says, even if no reconciliation
// job has run yet. Read paths must always go through this function.
func EffectiveStatus(status string, closingDate *time.Time, now time.Time) string {
	if status == RfpClosed {
		return RfpClosed
	}
	if closingDate != nil && closingDate.Before(now) {
		return RfpClosed
	}
	return status
}
