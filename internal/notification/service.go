package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/socket"
)

// Notification types
const (
	TypeNdaApproved          = "NDA_APPROVED"
	TypeNdaRejected          = "NDA_REJECTED"
	TypeRegistrationApproved = "REGISTRATION_APPROVED"
	TypeRegistrationRejected = "REGISTRATION_REJECTED"
	TypeJoinApproved         = "JOIN_APPROVED"
	TypeJoinRejected         = "JOIN_REJECTED"
	TypeJoinRequested        = "JOIN_REQUESTED"
	TypeCompanyAssigned      = "COMPANY_ASSIGNED"
	TypeAutoJoined           = "AUTO_JOINED"
	TypeRfpClosingSoon       = "RFP_CLOSING_SOON"
	TypeQuestionAnswered     = "QUESTION_ANSWERED"
	TypeProposalSubmitted    = "PROPOSAL_SUBMITTED"
	TypeInvitation           = "INVITATION"
)

// Service creates notification rows and pushes them over WebSocket. A failed
// push never fails the calling state transition; the row is already committed
// and will surface on the next poll.
type Service struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	broadcaster      *socket.Broadcaster
}

// NewService creates a new notification service
func NewService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

func (s *Service) SetBroadcaster(b *socket.Broadcaster) {
	s.broadcaster = b
}

// ============================================
// WebSocket Helper
// ============================================

// sendWebSocketNotification sends real-time notification via WebSocket
func (s *Service) sendWebSocketNotification(notification *repository.Notification) {
	if s.broadcaster == nil || notification == nil {
		return
	}

	s.broadcaster.SendNotification(notification.UserID, map[string]interface{}{
		"id":        notification.ID,
		"type":      notification.Type,
		"title":     notification.Title,
		"message":   notification.Message,
		"data":      notification.Data,
		"read":      notification.Read,
		"createdAt": notification.CreatedAt,
	})
}

// notify persists one notification and pushes it.
func (s *Service) notify(ctx context.Context, userID, nType, title, message string, data map[string]interface{}) error {
	if userID == "" {
		return nil // Skip if no user to notify
	}
	notification := &repository.Notification{
		UserID:  userID,
		Type:    nType,
		Title:   title,
		Message: message,
		Read:    false,
		Data:    data,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}
	s.sendWebSocketNotification(notification)
	return nil
}

// notifyMany fans one notification out to several users, skipping the actor.
func (s *Service) notifyMany(ctx context.Context, userIDs []string, actorID, nType, title, message string, data map[string]interface{}) error {
	var errs []error
	for _, userID := range userIDs {
		if userID == "" || userID == actorID {
			continue
		}
		if err := s.notify(ctx, userID, nType, title, message, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ============================================
// NDA Notifications
// ============================================

// SendNdaApproved notifies a signer that their individual NDA was countersigned
func (s *Service) SendNdaApproved(ctx context.Context, userID, rfpTitle, rfpID, ndaID string) error {
	return s.notify(ctx, userID, TypeNdaApproved,
		"NDA Approved",
		fmt.Sprintf("Your NDA for %s has been countersigned. Protected documents are now available.", rfpTitle),
		map[string]interface{}{
			"rfpId":  rfpID,
			"ndaId":  ndaID,
			"action": "view_rfp",
		})
}

// SendCompanyNdaApproved fans the countersignature out to all primary members
// of the signing company
func (s *Service) SendCompanyNdaApproved(ctx context.Context, companyID, rfpTitle, rfpID, ndaID string) error {
	members, err := s.userRepo.FindByPrimaryCompany(ctx, companyID)
	if err != nil {
		return err
	}
	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.ID)
	}
	return s.notifyMany(ctx, userIDs, "", TypeNdaApproved,
		"Company NDA Approved",
		fmt.Sprintf("Your company's NDA for %s has been countersigned.", rfpTitle),
		map[string]interface{}{
			"rfpId":     rfpID,
			"ndaId":     ndaID,
			"companyId": companyID,
			"action":    "view_rfp",
		})
}

// SendNdaRejected notifies the original signer only
func (s *Service) SendNdaRejected(ctx context.Context, userID, rfpTitle, rfpID, reason string) error {
	msg := fmt.Sprintf("Your NDA for %s was rejected.", rfpTitle)
	if reason != "" {
		msg = fmt.Sprintf("Your NDA for %s was rejected: %s", rfpTitle, reason)
	}
	return s.notify(ctx, userID, TypeNdaRejected, "NDA Rejected", msg,
		map[string]interface{}{
			"rfpId":  rfpID,
			"reason": reason,
			"action": "view_rfp",
		})
}

// ============================================
// Registration Notifications
// ============================================

// SendCompanyRegistrationApproved fans the approval out to all primary
// members of the registering company
func (s *Service) SendCompanyRegistrationApproved(ctx context.Context, companyID, rfpTitle, rfpID string) error {
	members, err := s.userRepo.FindByPrimaryCompany(ctx, companyID)
	if err != nil {
		return err
	}
	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.ID)
	}
	return s.notifyMany(ctx, userIDs, "", TypeRegistrationApproved,
		"Interest Registration Approved",
		fmt.Sprintf("Your company's interest in %s has been approved.", rfpTitle),
		map[string]interface{}{
			"rfpId":     rfpID,
			"companyId": companyID,
			"action":    "view_rfp",
		})
}

// SendRegistrationRejected notifies the original registrant only, never the
// whole company
func (s *Service) SendRegistrationRejected(ctx context.Context, registrantID, rfpTitle, rfpID, reason string) error {
	return s.notify(ctx, registrantID, TypeRegistrationRejected,
		"Interest Registration Rejected",
		fmt.Sprintf("Your company's interest in %s was rejected: %s", rfpTitle, reason),
		map[string]interface{}{
			"rfpId":  rfpID,
			"reason": reason,
			"action": "view_rfp",
		})
}

// ============================================
// Membership Notifications
// ============================================

// SendJoinRequested notifies company admins of a pending join request
func (s *Service) SendJoinRequested(ctx context.Context, companyID, companyName, requesterName, requestID string) error {
	admins, err := s.userRepo.FindCompanyAdmins(ctx, companyID)
	if err != nil {
		return err
	}
	userIDs := make([]string, 0, len(admins))
	for _, a := range admins {
		userIDs = append(userIDs, a.ID)
	}
	return s.notifyMany(ctx, userIDs, "", TypeJoinRequested,
		"New Join Request",
		fmt.Sprintf("%s has requested to join %s", requesterName, companyName),
		map[string]interface{}{
			"companyId": companyID,
			"requestId": requestID,
			"action":    "review_join_request",
		})
}

// SendJoinApproved notifies the requester
func (s *Service) SendJoinApproved(ctx context.Context, userID, companyName, companyID string) error {
	return s.notify(ctx, userID, TypeJoinApproved,
		"Join Request Approved",
		fmt.Sprintf("You are now a member of %s", companyName),
		map[string]interface{}{
			"companyId": companyID,
			"action":    "view_company",
		})
}

// SendJoinRejected notifies the requester with the reason
func (s *Service) SendJoinRejected(ctx context.Context, userID, companyName, reason string) error {
	msg := fmt.Sprintf("Your request to join %s was declined.", companyName)
	if reason != "" {
		msg = fmt.Sprintf("Your request to join %s was declined: %s", companyName, reason)
	}
	return s.notify(ctx, userID, TypeJoinRejected, "Join Request Declined", msg,
		map[string]interface{}{"reason": reason})
}

// SendCompanyAssigned notifies a user assigned to a company by a platform admin
func (s *Service) SendCompanyAssigned(ctx context.Context, userID, companyName, companyID, role string) error {
	return s.notify(ctx, userID, TypeCompanyAssigned,
		"Company Assignment",
		fmt.Sprintf("An administrator assigned you to %s as %s", companyName, role),
		map[string]interface{}{
			"companyId": companyID,
			"role":      role,
			"action":    "view_company",
		})
}

// SendAutoJoined notifies the user and the company's admins after an auto-join
func (s *Service) SendAutoJoined(ctx context.Context, userID, userName, companyName, companyID string) error {
	if err := s.notify(ctx, userID, TypeAutoJoined,
		"Joined Company",
		fmt.Sprintf("You have been added to %s based on your email domain", companyName),
		map[string]interface{}{
			"companyId": companyID,
			"action":    "view_company",
		}); err != nil {
		return err
	}

	admins, err := s.userRepo.FindCompanyAdmins(ctx, companyID)
	if err != nil {
		return err
	}
	userIDs := make([]string, 0, len(admins))
	for _, a := range admins {
		userIDs = append(userIDs, a.ID)
	}
	return s.notifyMany(ctx, userIDs, userID, TypeAutoJoined,
		"New Member Auto-Joined",
		fmt.Sprintf("%s joined %s via verified email domain", userName, companyName),
		map[string]interface{}{
			"companyId": companyID,
			"userId":    userID,
		})
}

// ============================================
// RFP Notifications
// ============================================

// SendRfpClosingSoon reminds a user that an RFP they registered for closes soon
func (s *Service) SendRfpClosingSoon(ctx context.Context, userID, rfpTitle, rfpID string, hoursLeft int) error {
	return s.notify(ctx, userID, TypeRfpClosingSoon,
		"RFP Closing Soon",
		fmt.Sprintf("%s closes in %d hours", rfpTitle, hoursLeft),
		map[string]interface{}{
			"rfpId":  rfpID,
			"action": "view_rfp",
		})
}

// SendQuestionAnswered notifies the question author
func (s *Service) SendQuestionAnswered(ctx context.Context, authorID, rfpTitle, rfpID, questionID string) error {
	return s.notify(ctx, authorID, TypeQuestionAnswered,
		"Question Answered",
		fmt.Sprintf("Your question on %s has been answered", rfpTitle),
		map[string]interface{}{
			"rfpId":      rfpID,
			"questionId": questionID,
			"action":     "view_rfp",
		})
}

// SendProposalSubmitted notifies the RFP owner of a new proposal
func (s *Service) SendProposalSubmitted(ctx context.Context, ownerID, rfpTitle, rfpID, companyName string) error {
	return s.notify(ctx, ownerID, TypeProposalSubmitted,
		"Proposal Submitted",
		fmt.Sprintf("%s submitted a proposal for %s", companyName, rfpTitle),
		map[string]interface{}{
			"rfpId":  rfpID,
			"action": "view_proposals",
		})
}

// ============================================
// Unread Count Push
// ============================================

// PushUnreadCount pushes the current notification counters to a user
func (s *Service) PushUnreadCount(ctx context.Context, userID string) {
	if s.broadcaster == nil {
		return
	}
	total, unread, err := s.notificationRepo.CountByUserID(ctx, userID)
	if err != nil {
		return
	}
	s.broadcaster.SendNotificationCount(userID, total, unread)
}
