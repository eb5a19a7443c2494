package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostEvaluation records the closing rating and comment and ends the
// session.
func (h *Handler) PostEvaluation(c *gin.Context) {
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request: %w", err))
		return
	}

	closing, err := h.orchestrator.SubmitEvaluation(c.Request.Context(), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, evaluationResponse{
		Success: true,
		Message: toMessageDTO(*closing),
	})
}
