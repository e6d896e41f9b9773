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
// Document Handler
// ============================================

type DocumentHandler struct {
	documentService service.DocumentService
}

// Upload - Attach a document to an RFP (multipart form)
// POST /rfps/:id/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}
	requiresNda, _ := strconv.ParseBool(c.PostForm("requiresNda"))
	requiresApproval, _ := strconv.ParseBool(c.PostForm("requiresApproval"))

	doc, err := h.documentService.Add(c.Request.Context(), middleware.GetRequester(c), c.Param("id"), service.DocumentInput{
		Name:             name,
		ContentType:      fileHeader.Header.Get("Content-Type"),
		Size:             fileHeader.Size,
		RequiresNda:      requiresNda,
		RequiresApproval: requiresApproval,
		Body:             file,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

// List - List an RFP's documents with the caller's access decisions
// GET /rfps/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	views, err := h.documentService.ListForRequester(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.DocumentResponse, len(views))
	for i, v := range views {
		resp := toDocumentResponse(v.Document)
		decision := v.Access
		resp.Access = &decision
		response[i] = resp
	}

	c.JSON(http.StatusOK, response)
}

// Download - Get a presigned download URL
// GET /documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	url, err := h.documentService.Download(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DownloadResponse{URL: url})
}

// UpdateFlags - Change a document's access requirements
// PATCH /documents/:id/flags
func (h *DocumentHandler) UpdateFlags(c *gin.Context) {
	var req models.DocumentFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.documentService.UpdateFlags(c.Request.Context(), middleware.GetRequester(c), c.Param("id"), req.RequiresNda, req.RequiresApproval)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

// Delete - Remove a document
// DELETE /documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), middleware.GetRequester(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}
