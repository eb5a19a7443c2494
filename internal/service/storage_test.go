package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-labs/briefing/internal/domain"
)

func newTestStorageService(url string) *StorageService {
	return &StorageService{
		baseURL:    url,
		apiKey:     "storage-key",
		bucket:     "client-files",
		httpClient: &http.Client{Timeout: time.Second},
	}
}

func TestStorageDisabledWithoutEndpoint(t *testing.T) {
	svc := newTestStorageService("")
	assert.False(t, svc.Enabled())

	_, err := svc.Upload(context.Background(), "session_1700000000000_a", "logo.png", "image/png", []byte{1})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestStorageUpload(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		assert.Equal(t, "Bearer storage-key", r.Header.Get("Authorization"))
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestStorageService(server.URL)
	url, err := svc.Upload(context.Background(), "session_1700000000000_a", "logo.png", "image/png", []byte("png bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/object/client-files/"))
	assert.Contains(t, gotPath, "logo.png")
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, "png bytes", string(gotBody))

	assert.Contains(t, url, server.URL+"/object/public/client-files/session_1700000000000_a/")
	assert.True(t, strings.HasSuffix(url, "_logo.png"))
}

func TestStorageUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestStorageService(server.URL)
	_, err := svc.Upload(context.Background(), "session_1700000000000_a", "logo.png", "", []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload rejected")
}
