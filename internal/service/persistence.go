package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
)

// briefingStore is the slice of the repository the engine writes through.
type briefingStore interface {
	Exists(ctx context.Context, sessionID string) (bool, time.Time, error)
	Insert(ctx context.Context, b *domain.Briefing, log []domain.LogEntry) error
	Update(ctx context.Context, b *domain.Briefing, log []domain.LogEntry) error
}

type backupStore interface {
	WriteBackup(ctx context.Context, b *domain.Briefing)
}

type sessionValidator interface {
	Validate(id string) bool
}

type analyzer interface {
	Analyze(ctx context.Context, messages []domain.Message) (*AnalysisResult, error)
}

// SaveState mirrors the widget's save-status indicator.
type SaveState string

const (
	SaveIdle    SaveState = "idle"
	SaveSaving  SaveState = "saving"
	SaveSuccess SaveState = "success"
	SaveError   SaveState = "error"
)

// PersistenceService keeps a best-effort, idempotent mirror of the
// briefing in the remote store. Writes for one session are serialized
// behind a per-session lock so the existence-check-then-write sequence
// never interleaves within this process; cross-process races remain
// possible and surface as duplicate-key errors, which are retried until
// the loser converges to an update.
type PersistenceService struct {
	repo     briefingStore
	backups  backupStore
	sessions sessionValidator
	analysis analyzer

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	stateMu   sync.RWMutex
	saveState SaveState
	lastSave  time.Time

	maxAttempts int
	retryBase   time.Duration
	retryMax    time.Duration
}

func NewPersistenceService(repo briefingStore, backups backupStore, sessions sessionValidator, analysis analyzer) *PersistenceService {
	return &PersistenceService{
		repo:        repo,
		backups:     backups,
		sessions:    sessions,
		analysis:    analysis,
		locks:       make(map[string]*sync.Mutex),
		saveState:   SaveIdle,
		maxAttempts: config.MaxSaveAttempts,
		retryBase:   config.SaveRetryBase,
		retryMax:    config.SaveRetryMaxWait,
	}
}

// Persist upserts the briefing keyed by session id. It returns whether
// the remote write succeeded; it never returns an error, because remote
// persistence must not block the conversation. On exhaustion the latest
// state survives in the local backup table.
func (s *PersistenceService) Persist(ctx context.Context, b *domain.Briefing, log []domain.LogEntry) bool {
	if !s.sessions.Validate(b.SessionID) {
		slog.Error("refusing to persist briefing with invalid session id", "session_id", b.SessionID)
		return false
	}

	lock := s.sessionLock(b.SessionID)
	lock.Lock()
	defer lock.Unlock()

	s.setState(SaveSaving)

	attempt := 0
	err := withRetry(ctx, s.maxAttempts, s.retryBase, s.retryMax, func() error {
		attempt++
		attemptErr := s.upsert(ctx, b, log)
		// Keep a local copy of the latest state on every attempt.
		s.backups.WriteBackup(ctx, b)
		if attemptErr != nil {
			slog.Warn("briefing save attempt failed",
				"session_id", b.SessionID,
				"attempt", attempt,
				"max_attempts", s.maxAttempts,
				"error", attemptErr,
			)
		}
		return attemptErr
	})
	if err != nil {
		s.setState(SaveError)
		slog.Error("briefing save exhausted retries", "session_id", b.SessionID, "error", err)
		return false
	}

	s.setState(SaveSuccess)
	slog.Info("briefing saved", "session_id", b.SessionID, "attempts", attempt, "status", b.Status)
	return true
}

// upsert runs the existence-check-then-write sequence once. A lost insert
// race (duplicate key) comes back as a plain error so the retry policy
// reruns the sequence, which then takes the update branch.
func (s *PersistenceService) upsert(ctx context.Context, b *domain.Briefing, log []domain.LogEntry) error {
	exists, createdAt, err := s.repo.Exists(ctx, b.SessionID)
	if err != nil {
		return fmt.Errorf("existence check: %w", err)
	}
	if exists {
		b.CreatedAt = createdAt
		return s.repo.Update(ctx, b, log)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	return s.repo.Insert(ctx, b, log)
}

// SaveConversation mirrors the running conversation: the canonical
// message log is serialized to the remote log shape and the briefing is
// persisted as in_progress (completed briefings keep their status).
func (s *PersistenceService) SaveConversation(ctx context.Context, b *domain.Briefing, messages []domain.Message) bool {
	if b.Status == "" {
		b.Status = domain.StatusInProgress
	}
	return s.Persist(ctx, b, domain.ToLog(messages))
}

// SaveEvaluation records the closing rating and comment and marks the
// session completed.
func (s *PersistenceService) SaveEvaluation(ctx context.Context, b *domain.Briefing, messages []domain.Message, rating int, comment string) bool {
	b.EvaluationRating = rating
	b.EvaluationComment = comment
	b.Status = domain.StatusCompleted
	return s.Persist(ctx, b, domain.ToLog(messages))
}

// AnalyzeAndSave runs the authoritative extraction pass and persists the
// result with status completed. When the analysis collaborator fails, the
// conversation log is still persisted as completed with an explanatory
// note, so a session never stays in_progress because of an analysis
// error.
func (s *PersistenceService) AnalyzeAndSave(ctx context.Context, b *domain.Briefing, messages []domain.Message) bool {
	result, err := s.analysis.Analyze(ctx, messages)
	if err != nil {
		slog.Error("final analysis failed, saving fallback", "session_id", b.SessionID, "error", err)
		b.AdditionalInfo = fmt.Sprintf("Erro na análise automática: %v", err)
		b.Status = domain.StatusCompleted
		return s.Persist(ctx, b, domain.ToLog(messages))
	}

	result.ApplyTo(b)
	b.Status = domain.StatusCompleted
	return s.Persist(ctx, b, domain.ToLog(messages))
}

// Status reports the engine's last save state for the widget indicator.
func (s *PersistenceService) Status() (SaveState, time.Time) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.saveState, s.lastSave
}

func (s *PersistenceService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// ReleaseSession drops the per-session lock entry once a session is
// finished, keeping the lock map from growing unbounded.
func (s *PersistenceService) ReleaseSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, sessionID)
}

func (s *PersistenceService) setState(state SaveState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.saveState = state
	if state == SaveSuccess {
		s.lastSave = time.Now()
	}
}
