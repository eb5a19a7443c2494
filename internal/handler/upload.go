package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Upload stores one multipart file in object storage and returns its
// public URL. The session id comes from the form so uploads are grouped
// per session in the bucket.
func (h *Handler) Upload(c *gin.Context) {
	sessionID := c.PostForm("session_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("missing file: %w", err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		fail(c, fmt.Errorf("open file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(c, fmt.Errorf("read file: %w", err))
		return
	}

	url, err := h.storage.Upload(c.Request.Context(), sessionID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{Success: true, URL: url})
}
