package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// Membership Handler
// ============================================

type MembershipHandler struct {
	membershipService service.MembershipService
}

// RequestJoin - Ask to join a company
// POST /memberships/requests
func (h *MembershipHandler) RequestJoin(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.JoinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	aff, err := h.membershipService.RequestJoin(c.Request.Context(), userID, req.CompanyID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAffiliationResponse(aff))
}

// PendingRequests - List a company's pending join requests
// GET /companies/:id/join-requests
func (h *MembershipHandler) PendingRequests(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	requests, err := h.membershipService.PendingRequests(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.AffiliationResponse, len(requests))
	for i, aff := range requests {
		response[i] = toAffiliationResponse(aff)
	}

	c.JSON(http.StatusOK, response)
}

// ApproveJoin - Approve a pending join request
// POST /memberships/requests/:id/approve
func (h *MembershipHandler) ApproveJoin(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ApproveJoinRequest
	c.ShouldBindJSON(&req)

	if err := h.membershipService.ApproveJoin(c.Request.Context(), userID, c.Param("id"), req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Join request approved"})
}

// RejectJoin - Reject a pending join request
// POST /memberships/requests/:id/reject
func (h *MembershipHandler) RejectJoin(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.RejectJoinRequest
	c.ShouldBindJSON(&req)

	if err := h.membershipService.RejectJoin(c.Request.Context(), userID, c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Join request rejected"})
}

// Leave - Leave the primary company
// POST /memberships/leave
func (h *MembershipHandler) Leave(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.membershipService.Leave(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left company"})
}

// AssignCompany - Admin-assign a user to a company
// POST /memberships/assign
func (h *MembershipHandler) AssignCompany(c *gin.Context) {
	adminID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.AssignCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.membershipService.AssignCompany(c.Request.Context(), adminID, req.UserID, req.CompanyID, req.Kind, req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Company assigned"})
}

// SetMemberRole - Promote or demote a member
// PATCH /memberships/members/:id/role
func (h *MembershipHandler) SetMemberRole(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SetMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.membershipService.SetMemberRole(c.Request.Context(), userID, c.Param("id"), req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member role updated"})
}

// ConfirmAutoJoin - Pick one of multiple domain-matched companies
// POST /memberships/auto-join/confirm
func (h *MembershipHandler) ConfirmAutoJoin(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ConfirmAutoJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.membershipService.ConfirmAutoJoin(c.Request.Context(), userID, req.CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCompanyResponse(company))
}

// MyMemberships - List the caller's affiliations
// GET /memberships/my
func (h *MembershipHandler) MyMemberships(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	affs, err := h.membershipService.Memberships(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.AffiliationResponse, len(affs))
	for i, aff := range affs {
		response[i] = toAffiliationResponse(aff)
	}

	c.JSON(http.StatusOK, response)
}

// CompanyMembers - List a company's primary members
// GET /companies/:id/members
func (h *MembershipHandler) CompanyMembers(c *gin.Context) {
	members, err := h.membershipService.CompanyMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.UserResponse, len(members))
	for i, member := range members {
		response[i] = toUserResponse(member)
	}

	c.JSON(http.StatusOK, response)
}
