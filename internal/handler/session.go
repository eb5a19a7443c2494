package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StartSession mints a fresh session and returns the greeting turn.
func (h *Handler) StartSession(c *gin.Context) {
	conv, err := h.orchestrator.StartSession(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, startSessionResponse{
		Success:   true,
		SessionID: conv.SessionID,
		Message:   toMessageDTO(conv.Messages[0]),
	})
}

// GetSnapshot restores a session for a reloading widget: messages,
// progress and the save-status indicator state.
func (h *Handler) GetSnapshot(c *gin.Context) {
	snap, err := h.orchestrator.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	saveState, lastSave := h.persistence.Status()
	resp := snapshotResponse{
		Success:   true,
		SessionID: snap.SessionID,
		Messages:  toMessageDTOs(snap.Messages),
		Progress:  snap.Progress,
		Status:    string(snap.Collected.Status),
		SaveState: saveState,
	}
	if !lastSave.IsZero() {
		resp.LastSaveAt = &lastSave
	}
	c.JSON(http.StatusOK, resp)
}
