package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// RFP Handler
// ============================================

type RfpHandler struct {
	rfpService service.RfpService
}

// List - List RFPs visible to the requester
// GET /rfps
func (h *RfpHandler) List(c *gin.Context) {
	views, err := h.rfpService.List(c.Request.Context(), middleware.GetRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.RfpResponse, len(views))
	for i, v := range views {
		response[i] = toRfpResponse(v)
	}

	c.JSON(http.StatusOK, response)
}

// Create - Create a draft RFP
// POST /rfps
func (h *RfpHandler) Create(c *gin.Context) {
	var req models.CreateRfpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.rfpService.Create(c.Request.Context(), middleware.GetRequester(c), service.RfpInput{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		ClosingDate: req.ClosingDate,
		Categories:  req.Categories,
		Budget:      req.Budget,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRfpResponse(v))
}

// Get - Get an RFP by ID
// GET /rfps/:id
func (h *RfpHandler) Get(c *gin.Context) {
	v, err := h.rfpService.Get(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRfpResponse(v))
}

// Update - Update an RFP
// PUT /rfps/:id
func (h *RfpHandler) Update(c *gin.Context) {
	var req models.UpdateRfpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.rfpService.Update(c.Request.Context(), middleware.GetRequester(c), c.Param("id"), service.RfpInput{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		ClosingDate: req.ClosingDate,
		Categories:  req.Categories,
		Budget:      req.Budget,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRfpResponse(v))
}

// Publish - Publish a draft RFP
// POST /rfps/:id/publish
func (h *RfpHandler) Publish(c *gin.Context) {
	v, err := h.rfpService.Publish(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRfpResponse(v))
}

// Close - Close an RFP ahead of its deadline
// POST /rfps/:id/close
func (h *RfpHandler) Close(c *gin.Context) {
	v, err := h.rfpService.Close(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRfpResponse(v))
}

// Delete - Delete an RFP
// DELETE /rfps/:id
func (h *RfpHandler) Delete(c *gin.Context) {
	if err := h.rfpService.Delete(c.Request.Context(), middleware.GetRequester(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "RFP deleted"})
}
