package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// Proposal Handler
// ============================================

type ProposalHandler struct {
	proposalService service.ProposalService
}

// Submit - Submit or replace a proposal
// POST /rfps/:id/proposals
func (h *ProposalHandler) Submit(c *gin.Context) {
	var req models.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.proposalService.Submit(c.Request.Context(), middleware.GetRequester(c), c.Param("id"), service.ProposalInput{
		Summary: req.Summary,
		FileKey: req.FileKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProposalResponse(p))
}

// Withdraw - Withdraw a submitted proposal
// POST /proposals/:id/withdraw
func (h *ProposalHandler) Withdraw(c *gin.Context) {
	if err := h.proposalService.Withdraw(c.Request.Context(), middleware.GetRequester(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Proposal withdrawn"})
}

// ListByRfp - List an RFP's proposals for the administering side
// GET /rfps/:id/proposals
func (h *ProposalHandler) ListByRfp(c *gin.Context) {
	proposals, err := h.proposalService.ListByRfp(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.ProposalResponse, len(proposals))
	for i, p := range proposals {
		response[i] = toProposalResponse(p)
	}

	c.JSON(http.StatusOK, response)
}

// ListByCompany - List a company's own proposals
// GET /companies/:id/proposals
func (h *ProposalHandler) ListByCompany(c *gin.Context) {
	proposals, err := h.proposalService.ListByCompany(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.ProposalResponse, len(proposals))
	for i, p := range proposals {
		response[i] = toProposalResponse(p)
	}

	c.JSON(http.StatusOK, response)
}
