package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Transcribe converts a base64-encoded recording into text.
func (h *Handler) Transcribe(c *gin.Context) {
	var req transcribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request: %w", err))
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid audio encoding: %w", err))
		return
	}

	text, err := h.transcribe.Transcribe(c.Request.Context(), audio)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, transcribeResponse{Success: true, Text: text})
}
