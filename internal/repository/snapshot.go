package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/planner-labs/briefing/internal/domain"
)

const currentSessionKey = "current_briefing_session_id"

// SnapshotStore is the service-local mirror of the widget's browser
// storage: per-session conversation snapshots with staleness expiry, the
// current-session key, and timestamped briefing backups kept when remote
// writes fail.
type SnapshotStore struct {
	db        *sql.DB
	retention time.Duration
}

func OpenSnapshotStore(path string, retention time.Duration) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping snapshot database: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			session_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			last_activity INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS backups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backups_session ON backups(session_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create snapshot tables: %w", err)
		}
	}

	return &SnapshotStore{db: db, retention: retention}, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save merges the given snapshot fields into the stored one for the
// session and stamps last_activity. Failures are logged, never surfaced:
// snapshot persistence is best-effort by contract.
func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) {
	existing := s.read(ctx, snap.SessionID)
	merged := snap
	if existing != nil {
		if merged.Messages == nil {
			merged.Messages = existing.Messages
		}
		if merged.Collected == nil {
			merged.Collected = existing.Collected
		}
		if merged.Progress == 0 {
			merged.Progress = existing.Progress
		}
	}
	merged.SessionID = snap.SessionID
	merged.LastActivity = time.Now()

	payload, err := json.Marshal(merged)
	if err != nil {
		slog.Error("marshal snapshot", "session_id", snap.SessionID, "error", err)
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (session_id, payload, last_activity)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			payload = excluded.payload,
			last_activity = excluded.last_activity`,
		merged.SessionID, string(payload), merged.LastActivity.UnixMilli(),
	)
	if err != nil {
		slog.Error("save snapshot", "session_id", snap.SessionID, "error", err)
	}
}

// Load returns the stored snapshot, or nil when none exists, the stored
// one is older than the retention window (it is then discarded), or its
// session id does not match the requested one.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) *domain.Snapshot {
	snap := s.read(ctx, sessionID)
	if snap == nil {
		return nil
	}
	if time.Since(snap.LastActivity) > s.retention {
		slog.Info("discarding stale snapshot", "session_id", sessionID)
		s.Clear(ctx, sessionID)
		return nil
	}
	if snap.SessionID != sessionID {
		slog.Warn("snapshot session mismatch", "want", sessionID, "got", snap.SessionID)
		return nil
	}
	return snap
}

func (s *SnapshotStore) Clear(ctx context.Context, sessionID string) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE session_id = ?`, sessionID); err != nil {
		slog.Error("clear snapshot", "session_id", sessionID, "error", err)
	}
}

// WriteBackup keeps a timestamped full copy of the briefing so the latest
// state survives even when every remote write attempt fails.
func (s *SnapshotStore) WriteBackup(ctx context.Context, b *domain.Briefing) {
	payload, err := json.Marshal(b)
	if err != nil {
		slog.Error("marshal backup", "session_id", b.SessionID, "error", err)
		return
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO backups (session_id, payload, created_at)
		VALUES (?, ?, ?)`,
		b.SessionID, string(payload), time.Now().UnixMilli(),
	); err != nil {
		slog.Error("write backup", "session_id", b.SessionID, "error", err)
	}
}

// LatestBackup returns the most recent backup payload for the session,
// or nil when there is none.
func (s *SnapshotStore) LatestBackup(ctx context.Context, sessionID string) *domain.Briefing {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM backups
		WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		sessionID,
	).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("read backup", "session_id", sessionID, "error", err)
		}
		return nil
	}
	var b domain.Briefing
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		slog.Error("decode backup", "session_id", sessionID, "error", err)
		return nil
	}
	return &b
}

// SetCurrentSession stores the active session id under the fixed key.
func (s *SnapshotStore) SetCurrentSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		currentSessionKey, sessionID,
	)
	if err != nil {
		return fmt.Errorf("store current session: %w", err)
	}
	return nil
}

// CurrentSession returns the stored session id, or empty when none.
func (s *SnapshotStore) CurrentSession(ctx context.Context) string {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, currentSessionKey,
	).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("read current session", "error", err)
		}
		return ""
	}
	return value
}

// ClearCurrentSession removes the stored session id key.
func (s *SnapshotStore) ClearCurrentSession(ctx context.Context) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key = ?`, currentSessionKey); err != nil {
		slog.Error("clear current session", "error", err)
	}
}

func (s *SnapshotStore) read(ctx context.Context, sessionID string) *domain.Snapshot {
	var payload string
	var lastActivity int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, last_activity FROM snapshots WHERE session_id = ?`,
		sessionID,
	).Scan(&payload, &lastActivity)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("read snapshot", "session_id", sessionID, "error", err)
		}
		return nil
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		slog.Error("decode snapshot", "session_id", sessionID, "error", err)
		return nil
	}
	snap.LastActivity = time.UnixMilli(lastActivity)
	return &snap
}
