package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/repository"
)

// SessionService mints, validates and clears session identifiers. It owns
// exactly one key in the local store (the current session id) and does no
// network I/O.
type SessionService struct {
	store *repository.SnapshotStore
}

func NewSessionService(store *repository.SnapshotStore) *SessionService {
	return &SessionService{store: store}
}

// Generate returns a new collision-resistant session id. uuid draws from
// crypto/rand; the timestamp + double base-36 fallback only runs when the
// system entropy source fails.
func (s *SessionService) Generate() string {
	now := time.Now().UnixMilli()
	if id, err := uuid.NewRandom(); err == nil {
		return fmt.Sprintf("%s%d_%s", config.SessionIDPrefix, now,
			strings.ReplaceAll(id.String(), "-", ""))
	}
	r1 := strconv.FormatInt(rand.Int63(), 36)
	r2 := strconv.FormatInt(rand.Int63(), 36)
	return fmt.Sprintf("%s%d_%s%s", config.SessionIDPrefix, now, r1, r2)
}

// Initialize mints a fresh session id and stores it under the fixed key.
// A previously stored id is deliberately not reused: every widget
// activation starts a new briefing attempt.
func (s *SessionService) Initialize(ctx context.Context) (string, error) {
	id := s.Generate()
	if !s.Validate(id) {
		// Should not happen; regenerate once rather than fail the widget.
		id = s.Generate()
	}
	if err := s.store.SetCurrentSession(ctx, id); err != nil {
		return "", fmt.Errorf("initialize session: %w", err)
	}
	slog.Info("session initialized", "session_id", id)
	return id, nil
}

// Validate checks the minimal id shape: non-empty, longer than the
// minimum, and carrying the session marker.
func (s *SessionService) Validate(id string) bool {
	return id != "" &&
		len(id) > config.MinSessionIDLen &&
		strings.Contains(id, config.SessionIDPrefix)
}

// Clear removes the stored session id.
func (s *SessionService) Clear(ctx context.Context) {
	s.store.ClearCurrentSession(ctx)
}
