package service

import (
	"crypto/sha256"
	"sync"
	"time"
)

type cachedTranscription struct {
	text     string
	cachedAt time.Time
}

// TranscriptionCache avoids re-transcribing identical audio, keyed by a
// content hash of the raw bytes.
type TranscriptionCache struct {
	mu      sync.RWMutex
	entries map[[32]byte]cachedTranscription
	ttl     time.Duration
}

func NewTranscriptionCache(ttl time.Duration) *TranscriptionCache {
	return &TranscriptionCache{
		entries: make(map[[32]byte]cachedTranscription),
		ttl:     ttl,
	}
}

func (c *TranscriptionCache) Get(audio []byte) (string, bool) {
	key := sha256.Sum256(audio)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.cachedAt) > c.ttl {
		return "", false
	}
	return entry.text, true
}

func (c *TranscriptionCache) Set(audio []byte, text string) {
	key := sha256.Sum256(audio)

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entry := range c.entries {
		if time.Since(entry.cachedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cachedTranscription{text: text, cachedAt: time.Now()}
}
