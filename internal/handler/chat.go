package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planner-labs/briefing/internal/service"
)

// PostMessage handles one user turn: text plus optional base64 audio and
// file attachments.
func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request: %w", err))
		return
	}

	var audio []byte
	if req.Audio != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid audio encoding: %w", err))
			return
		}
		audio = decoded
	}

	files := make([]service.Attachment, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid file encoding for %s: %w", f.Name, err))
			return
		}
		files = append(files, service.Attachment{
			Name:        f.Name,
			ContentType: f.ContentType,
			Data:        data,
		})
	}

	result, err := h.orchestrator.HandleUserTurn(c.Request.Context(), c.Param("id"), req.Message, audio, files)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, postMessageResponse{
		Success:   true,
		Message:   toMessageDTO(result.Reply),
		Progress:  result.Progress,
		Completed: result.Completed,
		SaveState: result.SaveState,
	})
}
