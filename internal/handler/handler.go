package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
	"github.com/planner-labs/briefing/internal/middleware"
	"github.com/planner-labs/briefing/internal/service"
)

// Handler holds all dependencies needed by the widget API endpoints.
type Handler struct {
	cfg          *config.Config
	orchestrator *service.Orchestrator
	persistence  *service.PersistenceService
	transcribe   *service.TranscriptionService
	storage      *service.StorageService
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg          *config.Config
	Orchestrator *service.Orchestrator
	Persistence  *service.PersistenceService
	Transcribe   *service.TranscriptionService
	Storage      *service.StorageService
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:          deps.Cfg,
		orchestrator: deps.Orchestrator,
		persistence:  deps.Persistence,
		transcribe:   deps.Transcribe,
		storage:      deps.Storage,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	api.POST("/sessions", h.StartSession)
	api.GET("/sessions/:id", h.GetSnapshot)
	api.POST("/sessions/:id/messages", middleware.RateLimit(config.ChatRateLimit), h.PostMessage)
	api.POST("/sessions/:id/evaluation", h.PostEvaluation)
	api.POST("/transcribe", h.Transcribe)
	api.POST("/uploads", h.Upload)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// badRequest writes the error envelope for malformed request payloads.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Success: false, Error: err.Error()})
}

// fail writes the uniform error envelope, mapping domain errors onto
// status codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidSessionID),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrAudioTooLarge):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrBriefingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionCompleted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	}
	c.JSON(status, errorResponse{Success: false, Error: err.Error()})
}
