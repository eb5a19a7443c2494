package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/cenkalti/backoff/v4"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
)

// TranscriptionService sends recorded audio to the hosted speech-to-text
// collaborator. The audio container is sniffed from magic bytes so the
// best matching MIME type is sent regardless of what the recording client
// produced.
type TranscriptionService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	cache      *TranscriptionCache
}

func NewTranscriptionService(cfg *config.Config) *TranscriptionService {
	return &TranscriptionService{
		apiKey:     cfg.OpenAIKey,
		baseURL:    cfg.ChatBaseURL,
		model:      cfg.TranscriptionModel,
		httpClient: &http.Client{Timeout: config.TranscriptionRequestTimeout},
		cache:      NewTranscriptionCache(config.TranscriptionCacheTTL),
	}
}

// Transcribe returns the text of the recording. Identical audio bytes are
// served from the cache; transient failures are retried under the shared
// policy.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.ErrTranscription
	}
	if len(audio) > config.MaxAudioBytes {
		return "", domain.ErrAudioTooLarge
	}

	if text, ok := s.cache.Get(audio); ok {
		return text, nil
	}

	mimeType, fileName := SniffAudioFormat(audio)

	var text string
	err := withRetry(ctx, config.MaxSaveAttempts, config.SaveRetryBase, config.SaveRetryMaxWait, func() error {
		var attemptErr error
		text, attemptErr = s.transcribeOnce(ctx, audio, mimeType, fileName)
		return attemptErr
	})
	if err != nil {
		return "", err
	}

	s.cache.Set(audio, text)
	return text, nil
}

func (s *TranscriptionService) transcribeOnce(ctx context.Context, audio []byte, mimeType, fileName string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create form part: %w", err))
	}
	if _, err := part.Write(audio); err != nil {
		return "", backoff.Permanent(fmt.Errorf("write audio part: %w", err))
	}
	if err := writer.WriteField("model", s.model); err != nil {
		return "", backoff.Permanent(fmt.Errorf("write model field: %w", err))
	}
	if err := writer.Close(); err != nil {
		return "", backoff.Permanent(fmt.Errorf("close form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create transcription request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Network failure or timeout: retryable.
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("transcription status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", backoff.Permanent(fmt.Errorf("transcription rejected: %d: %s", resp.StatusCode, body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", backoff.Permanent(fmt.Errorf("parse transcription response: %w", err))
	}
	return result.Text, nil
}

// SniffAudioFormat detects the audio container from its magic bytes and
// returns the MIME type and a file name for the upload. Unrecognized data
// is sent as WAV, matching the recorder's most common fallback.
func SniffAudioFormat(data []byte) (mimeType, fileName string) {
	switch {
	case len(data) > 4 && data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3:
		return "audio/webm", "audio.webm"
	case len(data) > 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "audio/wav", "audio.wav"
	case len(data) > 4 && bytes.Equal(data[:4], []byte("OggS")):
		return "audio/ogg", "audio.ogg"
	case len(data) > 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return "audio/mp4", "audio.mp4"
	default:
		return "audio/wav", "audio.wav"
	}
}
