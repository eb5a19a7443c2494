package config

import "time"

const (
	// Remote save retry policy
	MaxSaveAttempts  = 3
	SaveRetryBase    = 1 * time.Second
	SaveRetryMaxWait = 8 * time.Second

	// Snapshot retention
	SnapshotRetention = 7 * 24 * time.Hour

	// Session id shape
	SessionIDPrefix = "session_"
	MinSessionIDLen = 10

	// Request timeouts
	ChatRequestTimeout          = 60 * time.Second
	TranscriptionRequestTimeout = 30 * time.Second
	UploadRequestTimeout        = 30 * time.Second

	// Audio limits
	MaxAudioBytes = 25 * 1024 * 1024

	// Transcription cache
	TranscriptionCacheTTL = 10 * time.Minute

	// Rate limit for chat turns (per session, per minute)
	ChatRateLimit = 12

	// Terminal marker the assistant is prompted to emit when every
	// briefing topic has been covered.
	TerminalMarker = "Consegui todas as informações necessárias"

	// Graceful shutdown
	ShutdownTimeout = 10 * time.Second
)
