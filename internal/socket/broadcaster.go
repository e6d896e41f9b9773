package socket

import (
	"fmt"
	"log"
)

// Broadcaster provides high-level methods for broadcasting events
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func rfpRoom(rfpID string) string         { return fmt.Sprintf("rfp:%s", rfpID) }
func companyRoom(companyID string) string { return fmt.Sprintf("company:%s", companyID) }

// ============================================
// Notification Broadcasting
// ============================================

// SendNotification sends a notification to a specific user
func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNotification, notification)
}

// SendNotificationCount updates notification count for a user
func (b *Broadcaster) SendNotificationCount(userID string, total, unread int) {
	b.hub.SendToUser(userID, MessageNotificationCount, map[string]interface{}{
		"total":  total,
		"unread": unread,
	})
}

// ============================================
// NDA Broadcasting
// ============================================

// BroadcastNdaSigned notifies RFP watchers that an NDA was signed
func (b *Broadcaster) BroadcastNdaSigned(rfpID string, nda map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageNdaSigned, nda, excludeUserID)
}

// BroadcastNdaCountersigned notifies the signer (and their company room for
// company NDAs) that the NDA was approved
func (b *Broadcaster) BroadcastNdaCountersigned(rfpID string, companyID *string, payload map[string]interface{}) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageNdaCountersigned, payload, "")
	if companyID != nil {
		b.hub.SendToRoom(companyRoom(*companyID), MessageNdaCountersigned, payload, "")
	}
}

// BroadcastNdaRejected notifies the signer that the NDA was rejected
func (b *Broadcaster) BroadcastNdaRejected(userID string, payload map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNdaRejected, payload)
}

// ============================================
// Registration Broadcasting
// ============================================

// BroadcastRegistrationSubmitted notifies RFP owners of a new interest registration
func (b *Broadcaster) BroadcastRegistrationSubmitted(rfpID string, registration map[string]interface{}, excludeUserID string) {
	log.Printf("📡 BroadcastRegistrationSubmitted: rfp=%s, exclude=%s", rfpID, excludeUserID)
	b.hub.SendToRoom(rfpRoom(rfpID), MessageRegistrationSubmitted, registration, excludeUserID)
}

// BroadcastRegistrationDecided notifies the registering company of the decision
func (b *Broadcaster) BroadcastRegistrationDecided(companyID string, registration map[string]interface{}) {
	b.hub.SendToRoom(companyRoom(companyID), MessageRegistrationDecided, registration, "")
}

// ============================================
// RFP Broadcasting
// ============================================

// BroadcastRfpPublished broadcasts an RFP going live to all connected clients
func (b *Broadcaster) BroadcastRfpPublished(rfp map[string]interface{}) {
	log.Printf("📡 BroadcastRfpPublished: rfpId=%v", rfp["id"])
	b.hub.SendToRoom(rfpRoom(fmt.Sprintf("%v", rfp["id"])), MessageRfpPublished, rfp, "")
}

// BroadcastRfpClosed notifies RFP watchers that the RFP closed
func (b *Broadcaster) BroadcastRfpClosed(rfpID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageRfpClosed, map[string]interface{}{
		"rfpId":  rfpID,
		"status": "closed",
	}, "")
}

// BroadcastRfpUpdated broadcasts RFP changes to watchers
func (b *Broadcaster) BroadcastRfpUpdated(rfpID string, rfp map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageRfpUpdated, rfp, excludeUserID)
}

// BroadcastDocumentAdded notifies RFP watchers of a new document
func (b *Broadcaster) BroadcastDocumentAdded(rfpID string, doc map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageDocumentAdded, doc, excludeUserID)
}

// BroadcastDocumentRemoved notifies RFP watchers that a document was removed
func (b *Broadcaster) BroadcastDocumentRemoved(rfpID, documentID string, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageDocumentRemoved, map[string]interface{}{
		"rfpId":      rfpID,
		"documentId": documentID,
	}, excludeUserID)
}

// ============================================
// Q&A Broadcasting
// ============================================

// BroadcastQuestionAsked notifies RFP watchers of a new question
func (b *Broadcaster) BroadcastQuestionAsked(rfpID string, question map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageQuestionAsked, question, excludeUserID)
}

// BroadcastQuestionAnswered notifies RFP watchers that a question got an answer
func (b *Broadcaster) BroadcastQuestionAnswered(rfpID string, question map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageQuestionAnswered, question, excludeUserID)
}

// ============================================
// Proposal Broadcasting
// ============================================

// BroadcastProposalSubmitted notifies RFP owners of a submitted proposal
func (b *Broadcaster) BroadcastProposalSubmitted(rfpID string, proposal map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageProposalSubmitted, proposal, excludeUserID)
}

// BroadcastProposalWithdrawn notifies RFP owners of a withdrawn proposal
func (b *Broadcaster) BroadcastProposalWithdrawn(rfpID, proposalID string, excludeUserID string) {
	b.hub.SendToRoom(rfpRoom(rfpID), MessageProposalWithdrawn, map[string]interface{}{
		"rfpId":      rfpID,
		"proposalId": proposalID,
	}, excludeUserID)
}

// ============================================
// Company Membership Broadcasting
// ============================================

// BroadcastMemberJoined broadcasts a membership change to company members
func (b *Broadcaster) BroadcastMemberJoined(companyID string, member map[string]interface{}, excludeUserID string) {
	log.Printf("📡 BroadcastMemberJoined: company=%s, exclude=%s", companyID, excludeUserID)
	b.hub.SendToRoom(companyRoom(companyID), MessageMemberJoined, member, excludeUserID)
}

// BroadcastMemberLeft broadcasts a member leaving to company members
func (b *Broadcaster) BroadcastMemberLeft(companyID, userID string, excludeUserID string) {
	b.hub.SendToRoom(companyRoom(companyID), MessageMemberLeft, map[string]interface{}{
		"companyId": companyID,
		"userId":    userID,
	}, excludeUserID)
}

// BroadcastJoinRequestOpened notifies company admins of a new join request
func (b *Broadcaster) BroadcastJoinRequestOpened(companyID string, request map[string]interface{}) {
	b.hub.SendToRoom(companyRoom(companyID), MessageJoinRequestOpened, request, "")
}

// ============================================
// Direct User Messaging
// ============================================

// SendToUsers sends a message to multiple specific users
func (b *Broadcaster) SendToUsers(userIDs []string, msgType MessageType, payload map[string]interface{}) {
	for _, userID := range userIDs {
		b.hub.SendToUser(userID, msgType, payload)
	}
}
