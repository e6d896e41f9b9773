package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// Audit Handler
// ============================================

type AuditHandler struct {
	auditService service.AuditService
}

// Recent - List the most recent audit entries
// GET /audit?limit=100
func (h *AuditHandler) Recent(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.auditService.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.AuditEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = toAuditEntryResponse(entry)
	}

	c.JSON(http.StatusOK, response)
}

// ByEntity - List audit entries for one entity
// GET /audit/:entityType/:entityId
func (h *AuditHandler) ByEntity(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	entries, err := h.auditService.ByEntity(c.Request.Context(), userID, c.Param("entityType"), c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.AuditEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = toAuditEntryResponse(entry)
	}

	c.JSON(http.StatusOK, response)
}
