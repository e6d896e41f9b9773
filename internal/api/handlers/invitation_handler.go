package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// Invitation Handler
// ============================================

type InvitationHandler struct {
	invitationService service.InvitationService
}

// CreateCompanyInvitation - Invite an email address into a company
// POST /companies/:id/invitations
func (h *InvitationHandler) CreateCompanyInvitation(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateCompanyInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.invitationService.CreateCompanyInvitation(c.Request.Context(), userID, c.Param("id"), req.Email, req.Role, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(inv))
}

// CreateRfpInvitation - Invite an email address onto a confidential RFP
// POST /rfps/:id/invitations
func (h *InvitationHandler) CreateRfpInvitation(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateRfpInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.invitationService.CreateRfpInvitation(c.Request.Context(), userID, c.Param("id"), req.Email, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(inv))
}

// Accept - Redeem an invitation token
// POST /invitations/:token/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	inv, err := h.invitationService.Accept(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvitationResponse(inv))
}

// Cancel - Cancel a pending invitation
// POST /invitations/:id/cancel
func (h *InvitationHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.invitationService.Cancel(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation cancelled"})
}

// ListByCompany - List a company's invitations
// GET /companies/:id/invitations
func (h *InvitationHandler) ListByCompany(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListByCompany(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationResponse(inv)
	}

	c.JSON(http.StatusOK, response)
}

// ListByRfp - List an RFP's invitations
// GET /rfps/:id/invitations
func (h *InvitationHandler) ListByRfp(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListByRfp(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationResponse(inv)
	}

	c.JSON(http.StatusOK, response)
}
