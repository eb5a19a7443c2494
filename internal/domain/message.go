package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the briefing conversation. Messages are
// append-only: once added to a session's log they are never mutated.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Files     []string  `json:"files,omitempty"`
	HasAudio  bool      `json:"has_audio,omitempty"`
}

// LogEntry is the denormalized shape of a message stored in the remote
// conversation log columns. Derived from Message at the serialization
// boundary; never kept as a second in-memory copy.
type LogEntry struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp"`
	Files     []string `json:"files"`
	HasAudio  bool     `json:"hasAudio"`
}

// ToLog serializes the canonical message log into the remote shape.
func ToLog(messages []Message) []LogEntry {
	entries := make([]LogEntry, len(messages))
	for i, m := range messages {
		files := m.Files
		if files == nil {
			files = []string{}
		}
		entries[i] = LogEntry{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
			Files:     files,
			HasAudio:  m.HasAudio,
		}
	}
	return entries
}

// Snapshot is the locally cached copy of one session's state, used to
// survive widget reloads without a network round trip.
type Snapshot struct {
	SessionID    string    `json:"sessionId"`
	Messages     []Message `json:"messages"`
	Collected    *Briefing `json:"collectedData"`
	Progress     int       `json:"progress"`
	LastActivity time.Time `json:"lastActivity"`
}
