package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimit caps requests per client key per minute. Keys are the session
// id when present (route param), otherwise the client IP. Counts live in
// memory; this only protects one process, which matches the rest of the
// per-process guarantees of the service.
func RateLimit(perMinute int) gin.HandlerFunc {
	var mu sync.Mutex
	type window struct {
		start time.Time
		count int
	}
	windows := make(map[string]*window)

	return func(c *gin.Context) {
		key := c.Param("id")
		if key == "" {
			key = c.ClientIP()
		}

		mu.Lock()
		w, ok := windows[key]
		now := time.Now()
		if !ok || now.Sub(w.start) > time.Minute {
			w = &window{start: now}
			windows[key] = w
		}
		w.count++
		over := w.count > perMinute
		// Drop stale windows opportunistically.
		if len(windows) > 1024 {
			for k, win := range windows {
				if now.Sub(win.start) > time.Minute {
					delete(windows, k)
				}
			}
		}
		mu.Unlock()

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests",
			})
			return
		}
		c.Next()
	}
}
