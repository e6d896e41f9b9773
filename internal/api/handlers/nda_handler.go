package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// NDA Handler
// ============================================

type NdaHandler struct {
	ndaService service.NdaService
}

func signInput(c *gin.Context, req models.SignNdaRequest) service.SignNdaInput {
	return service.SignNdaInput{
		FullName:      req.FullName,
		SignerTitle:   req.SignerTitle,
		SignerCompany: req.SignerCompany,
		Signature:     req.Signature,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	}
}

// SignIndividual - Sign an NDA for yourself
// POST /rfps/:id/nda/sign
func (h *NdaHandler) SignIndividual(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SignNdaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nda, err := h.ndaService.SignIndividual(c.Request.Context(), userID, c.Param("id"), signInput(c, req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toNdaResponse(nda))
}

// SignCompany - Sign an NDA on behalf of your company
// POST /rfps/:id/nda/sign-company
func (h *NdaHandler) SignCompany(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SignNdaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nda, err := h.ndaService.SignCompany(c.Request.Context(), userID, c.Param("id"), signInput(c, req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCompanyNdaResponse(nda))
}

// Countersign - Approve a signed NDA
// POST /ndas/:kind/:id/countersign
func (h *NdaHandler) Countersign(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CountersignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.ndaService.Countersign(c.Request.Context(), userID, c.Param("kind"), c.Param("id"), req.CountersignerName, req.Countersignature)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "NDA countersigned"})
}

// Reject - Reject a signed NDA
// POST /ndas/:kind/:id/reject
func (h *NdaHandler) Reject(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.RejectNdaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ndaService.Reject(c.Request.Context(), userID, c.Param("kind"), c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "NDA rejected"})
}

// ListByRfp - List all NDAs on an RFP for review
// GET /rfps/:id/ndas
func (h *NdaHandler) ListByRfp(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	individuals, companies, err := h.ndaService.ListByRfp(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	individualResponses := make([]models.NdaResponse, len(individuals))
	for i, nda := range individuals {
		individualResponses[i] = toNdaResponse(nda)
	}
	companyResponses := make([]models.NdaResponse, len(companies))
	for i, nda := range companies {
		companyResponses[i] = toCompanyNdaResponse(nda)
	}

	c.JSON(http.StatusOK, gin.H{
		"individual": individualResponses,
		"company":    companyResponses,
	})
}

// Trail - List the audit trail of an NDA
// GET /ndas/:kind/:id/trail
func (h *NdaHandler) Trail(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	entries, err := h.ndaService.Trail(c.Request.Context(), userID, c.Param("kind"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.NdaTrailResponse, len(entries))
	for i, e := range entries {
		response[i] = models.NdaTrailResponse{
			ID:        e.ID,
			NdaKind:   e.NdaKind,
			NdaID:     e.NdaID,
			Action:    e.Action,
			ActorID:   e.ActorID,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, response)
}
