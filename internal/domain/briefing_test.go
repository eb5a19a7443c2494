package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependent(t *testing.T) {
	b := &Briefing{
		SessionID:     "session_1700000000000_a",
		UserName:      "Ana",
		UploadedFiles: []string{"one"},
	}

	c := b.Clone()
	c.UserName = "Bia"
	c.UploadedFiles = append(c.UploadedFiles, "two")

	assert.Equal(t, "Ana", b.UserName)
	assert.Equal(t, []string{"one"}, b.UploadedFiles)
}

func TestCompleted(t *testing.T) {
	b := &Briefing{}
	assert.False(t, b.Completed())
	b.Status = StatusInProgress
	assert.False(t, b.Completed())
	b.Status = StatusCompleted
	assert.True(t, b.Completed())
}

func TestToLog(t *testing.T) {
	when := time.Date(2025, 3, 1, 15, 30, 0, 0, time.FixedZone("BRT", -3*3600))
	entries := ToLog([]Message{
		{Role: RoleAssistant, Content: "Olá!", Timestamp: when},
		{Role: RoleUser, Content: "oi", Timestamp: when, Files: []string{"a.png"}, HasAudio: true},
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "assistant", entries[0].Role)
	assert.Equal(t, "2025-03-01T18:30:00Z", entries[0].Timestamp, "timestamps are normalized to UTC")
	assert.NotNil(t, entries[0].Files, "files serialize as an empty array, never null")
	assert.Empty(t, entries[0].Files)
	assert.Equal(t, []string{"a.png"}, entries[1].Files)
	assert.True(t, entries[1].HasAudio)
}
