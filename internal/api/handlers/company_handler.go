package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// Company Handler
// ============================================

type CompanyHandler struct {
	companyService service.CompanyService
}

// List - List all companies
// GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.companyService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.CompanyResponse, len(companies))
	for i, company := range companies {
		response[i] = toCompanyResponse(company)
	}

	c.JSON(http.StatusOK, response)
}

// Create - Create a new company
// POST /companies
func (h *CompanyHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.companyService.Create(c.Request.Context(), userID, service.CompanyInput{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCompanyResponse(company))
}

// Get - Get a company by ID
// GET /companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.companyService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCompanyResponse(company))
}

// Update - Update a company profile
// PUT /companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.companyService.Update(c.Request.Context(), userID, c.Param("id"), service.CompanyInput{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCompanyResponse(company))
}

// SetVerification - Set company verification status
// PATCH /companies/:id/verification
func (h *CompanyHandler) SetVerification(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.companyService.SetVerificationStatus(c.Request.Context(), userID, c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification status updated"})
}

// SetDomainSettings - Configure domain auto-join
// PUT /companies/:id/domain-settings
func (h *CompanyHandler) SetDomainSettings(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.DomainSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.companyService.SetDomainSettings(c.Request.Context(), userID, c.Param("id"), service.DomainSettingsInput{
		AutoJoinEnabled: req.AutoJoinEnabled,
		VerifiedDomain:  req.VerifiedDomain,
		BlockedDomains:  req.BlockedDomains,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCompanyResponse(company))
}

// Delete - Delete a company
// DELETE /companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.companyService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Company deleted"})
}
