package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// Interest Registration Handler
// ============================================

type RegistrationHandler struct {
	registrationService service.RegistrationService
}

// Register - Register company interest in an RFP
// POST /rfps/:id/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	result, err := h.registrationService.Register(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := toRegistrationResponse(result.Registration)
	response.Duplicate = result.Duplicate
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, response)
}

// Approve - Approve a pending registration
// POST /registrations/:id/approve
func (h *RegistrationHandler) Approve(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.registrationService.Approve(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration approved"})
}

// Reject - Reject a pending registration with a reason
// POST /registrations/:id/reject
func (h *RegistrationHandler) Reject(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.RejectRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registrationService.Reject(c.Request.Context(), userID, c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration rejected"})
}

// ListByRfp - List registrations on an RFP for review
// GET /rfps/:id/registrations
func (h *RegistrationHandler) ListByRfp(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	registrations, err := h.registrationService.ListByRfp(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.RegistrationResponse, len(registrations))
	for i, reg := range registrations {
		response[i] = toRegistrationResponse(reg)
	}

	c.JSON(http.StatusOK, response)
}

// ListByCompany - List a company's registrations
// GET /companies/:id/registrations
func (h *RegistrationHandler) ListByCompany(c *gin.Context) {
	registrations, err := h.registrationService.ListByCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.RegistrationResponse, len(registrations))
	for i, reg := range registrations {
		response[i] = toRegistrationResponse(reg)
	}

	c.JSON(http.StatusOK, response)
}
