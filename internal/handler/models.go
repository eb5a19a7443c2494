package handler

import (
	"time"

	"github.com/planner-labs/briefing/internal/domain"
	"github.com/planner-labs/briefing/internal/service"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Files     []string  `json:"files,omitempty"`
	HasAudio  bool      `json:"has_audio,omitempty"`
}

func toMessageDTO(m domain.Message) messageDTO {
	return messageDTO{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Files:     m.Files,
		HasAudio:  m.HasAudio,
	}
}

func toMessageDTOs(messages []domain.Message) []messageDTO {
	out := make([]messageDTO, len(messages))
	for i, m := range messages {
		out[i] = toMessageDTO(m)
	}
	return out
}

type startSessionResponse struct {
	Success   bool       `json:"success"`
	SessionID string     `json:"session_id"`
	Message   messageDTO `json:"message"`
}

type snapshotResponse struct {
	Success    bool              `json:"success"`
	SessionID  string            `json:"session_id"`
	Messages   []messageDTO      `json:"messages"`
	Progress   int               `json:"progress"`
	Status     string            `json:"status"`
	SaveState  service.SaveState `json:"save_state"`
	LastSaveAt *time.Time        `json:"last_save_at,omitempty"`
}

type attachmentRequest struct {
	Name        string `json:"name" binding:"required"`
	ContentType string `json:"content_type"`
	Data        string `json:"data" binding:"required"` // base64
}

type postMessageRequest struct {
	Message string              `json:"message"`
	Audio   string              `json:"audio"` // base64-encoded recording
	Files   []attachmentRequest `json:"files"`
}

type postMessageResponse struct {
	Success   bool              `json:"success"`
	Message   messageDTO        `json:"message"`
	Progress  int               `json:"progress"`
	Completed bool              `json:"completed"`
	SaveState service.SaveState `json:"save_state"`
}

type transcribeRequest struct {
	Audio string `json:"audio" binding:"required"` // base64
}

type transcribeResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

type evaluationRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type evaluationResponse struct {
	Success bool       `json:"success"`
	Message messageDTO `json:"message"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}
