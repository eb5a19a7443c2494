package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
)

// StorageService uploads attachments to the hosted object store and
// returns their public URLs. It is a thin wrapper: one PUT-style POST per
// file, no multipart chunking.
type StorageService struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

func NewStorageService(cfg *config.Config) *StorageService {
	return &StorageService{
		baseURL:    cfg.StorageURL,
		apiKey:     cfg.StorageKey,
		bucket:     cfg.StorageBucket,
		httpClient: &http.Client{Timeout: config.UploadRequestTimeout},
	}
}

// Enabled reports whether an object store endpoint is configured. Without
// one, uploads are skipped and the conversation carries on text-only.
func (s *StorageService) Enabled() bool {
	return s.baseURL != ""
}

// Upload stores one file under sessionID/<timestamp>_<name> and returns
// its public URL.
func (s *StorageService) Upload(ctx context.Context, sessionID, fileName, contentType string, data []byte) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("object storage not configured: %w", domain.ErrUploadFailed)
	}

	objectPath := fmt.Sprintf("%s/%d_%s", sessionID, time.Now().UnixMilli(), url.PathEscape(fileName))
	uploadURL := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload rejected: %d: %s", resp.StatusCode, body)
	}

	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}
