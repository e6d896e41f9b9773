package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/models"
	"github.com/rfpdesk/rfp-backend/internal/service"
)

// ============================================
// Q&A Handler
// ============================================

type QuestionHandler struct {
	questionService service.QuestionService
}

// Ask - Open a question on an RFP
// POST /rfps/:id/questions
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req models.AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.questionService.Ask(c.Request.Context(), middleware.GetRequester(c), c.Param("id"), req.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toQuestionResponse(q))
}

// Answer - Answer a question
// POST /questions/:id/answer
func (h *QuestionHandler) Answer(c *gin.Context) {
	var req models.AnswerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.questionService.Answer(c.Request.Context(), middleware.GetRequester(c), c.Param("id"), req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuestionResponse(q))
}

// ListByRfp - List an RFP's Q&A thread
// GET /rfps/:id/questions
func (h *QuestionHandler) ListByRfp(c *gin.Context) {
	questions, err := h.questionService.ListByRfp(c.Request.Context(), middleware.GetRequester(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.QuestionResponse, len(questions))
	for i, q := range questions {
		response[i] = toQuestionResponse(q)
	}

	c.JSON(http.StatusOK, response)
}
