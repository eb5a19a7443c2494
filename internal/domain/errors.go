package domain

import "errors"

var (
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrSessionNotFound  = errors.New("session not found")
	ErrBriefingNotFound = errors.New("briefing not found")
	ErrDuplicateSession = errors.New("duplicate session id")
	ErrSessionCompleted = errors.New("session already completed")
	ErrEmptyMessage     = errors.New("empty message")
	ErrAudioTooLarge    = errors.New("audio file too large")
	ErrTranscription    = errors.New("transcription failed")
	ErrUploadFailed     = errors.New("file upload failed")
	ErrRateLimited      = errors.New("too many requests")
)
