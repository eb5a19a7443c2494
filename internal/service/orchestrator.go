package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
	"github.com/planner-labs/briefing/internal/repository"
)

type ConversationState string

const (
	StateInitializing           ConversationState = "initializing"
	StateAwaitingUserInput      ConversationState = "awaiting_user_input"
	StateAwaitingAssistantReply ConversationState = "awaiting_assistant_reply"
	StateEvaluating             ConversationState = "evaluating"
	StateCompleted              ConversationState = "completed"
)

// Conversation is the in-memory state of one briefing session. The
// orchestrator is its sole writer: messages are append-only and the
// collected briefing is only mutated between turns.
type Conversation struct {
	SessionID string
	State     ConversationState
	Messages  []domain.Message
	Collected *domain.Briefing

	mu sync.Mutex
}

type chatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

type transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type uploader interface {
	Enabled() bool
	Upload(ctx context.Context, sessionID, fileName, contentType string, data []byte) (string, error)
}

// Attachment is a file the widget sends along with a user turn, not yet
// uploaded to object storage.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// TurnResult is what one user turn produces for the widget.
type TurnResult struct {
	Reply     domain.Message
	Progress  int
	Completed bool
	SaveState SaveState
}

// Orchestrator drives the turn-by-turn briefing conversation and wires
// the session identity, snapshot store, persistence engine and external
// collaborators together.
type Orchestrator struct {
	sessions    *SessionService
	snapshots   *repository.SnapshotStore
	persistence *PersistenceService
	chat        chatCompleter
	transcribe  transcriber
	storage     uploader

	mu            sync.Mutex
	conversations map[string]*Conversation
}

func NewOrchestrator(
	sessions *SessionService,
	snapshots *repository.SnapshotStore,
	persistence *PersistenceService,
	chat chatCompleter,
	transcribe transcriber,
	storage uploader,
) *Orchestrator {
	return &Orchestrator{
		sessions:      sessions,
		snapshots:     snapshots,
		persistence:   persistence,
		chat:          chat,
		transcribe:    transcribe,
		storage:       storage,
		conversations: make(map[string]*Conversation),
	}
}

// StartSession mints a fresh session and seeds the conversation with the
// fixed assistant greeting.
func (o *Orchestrator) StartSession(ctx context.Context) (*Conversation, error) {
	sessionID, err := o.sessions.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conv := &Conversation{
		SessionID: sessionID,
		State:     StateAwaitingUserInput,
		Messages: []domain.Message{{
			ID:        newMessageID(),
			Role:      domain.RoleAssistant,
			Content:   domain.Greeting,
			Timestamp: now,
		}},
		Collected: &domain.Briefing{
			SessionID: sessionID,
			Status:    domain.StatusInProgress,
			CreatedAt: now,
		},
	}

	o.mu.Lock()
	o.conversations[sessionID] = conv
	o.mu.Unlock()

	o.saveSnapshot(ctx, conv)
	return conv, nil
}

// Resume returns the live conversation for the session, restoring it from
// the local snapshot when the process no longer holds it in memory. Per
// the snapshot contract, only snapshots with more than one message are
// restored; anything else starts over.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string) (*Conversation, error) {
	if !o.sessions.Validate(sessionID) {
		return nil, domain.ErrInvalidSessionID
	}

	o.mu.Lock()
	if conv, ok := o.conversations[sessionID]; ok {
		o.mu.Unlock()
		return conv, nil
	}
	o.mu.Unlock()

	snap := o.snapshots.Load(ctx, sessionID)
	if snap == nil || len(snap.Messages) <= 1 {
		return nil, domain.ErrSessionNotFound
	}

	collected := snap.Collected
	if collected == nil {
		collected = &domain.Briefing{
			SessionID: sessionID,
			Status:    domain.StatusInProgress,
			CreatedAt: time.Now(),
		}
	}

	conv := &Conversation{
		SessionID: sessionID,
		State:     StateAwaitingUserInput,
		Messages:  snap.Messages,
		Collected: collected,
	}
	if collected.Completed() {
		conv.State = StateCompleted
	}

	o.mu.Lock()
	o.conversations[sessionID] = conv
	o.mu.Unlock()

	slog.Info("conversation restored from snapshot",
		"session_id", sessionID, "messages", len(conv.Messages))
	return conv, nil
}

// HandleUserTurn processes one user turn: transcribes audio, uploads
// attachments, appends the user message, asks the chat collaborator for
// the reply and watches it for the terminal marker. Collaborator failures
// degrade to an apology turn; persistence failures never block the turn.
func (o *Orchestrator) HandleUserTurn(ctx context.Context, sessionID, text string, audio []byte, files []Attachment) (*TurnResult, error) {
	conv, err := o.Resume(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	switch conv.State {
	case StateCompleted:
		return nil, domain.ErrSessionCompleted
	case StateEvaluating:
		return nil, domain.ErrSessionCompleted
	}

	hasAudio := len(audio) > 0
	if hasAudio {
		transcript, err := o.transcribe.Transcribe(ctx, audio)
		if err != nil {
			slog.Error("transcription failed", "session_id", sessionID, "error", err)
			return o.apologyTurn(ctx, conv), nil
		}
		if text != "" {
			text = text + "\n" + transcript
		} else {
			text = transcript
		}
	}

	if strings.TrimSpace(text) == "" && len(files) == 0 {
		return nil, domain.ErrEmptyMessage
	}

	fileNames := o.uploadAttachments(ctx, conv, files)
	content := annotateContent(text, fileNames, hasAudio)

	conv.State = StateAwaitingAssistantReply
	conv.Messages = append(conv.Messages, domain.Message{
		ID:        newMessageID(),
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
		Files:     fileNames,
		HasAudio:  hasAudio,
	})

	ExtractFields(text, conv.Collected)

	o.persistence.SaveConversation(ctx, conv.Collected, conv.Messages)
	o.saveSnapshot(ctx, conv)

	reply, err := o.chat.Complete(ctx, o.chatHistory(conv))
	if err != nil {
		slog.Error("chat completion failed", "session_id", sessionID, "error", err)
		return o.apologyTurn(ctx, conv), nil
	}

	assistantMsg := domain.Message{
		ID:        newMessageID(),
		Role:      domain.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	}
	conv.Messages = append(conv.Messages, assistantMsg)

	completed := strings.Contains(reply, config.TerminalMarker)
	if completed {
		// Authoritative extraction before the evaluation phase.
		o.persistence.AnalyzeAndSave(ctx, conv.Collected, conv.Messages)
		conv.State = StateEvaluating
	} else {
		o.persistence.SaveConversation(ctx, conv.Collected, conv.Messages)
		conv.State = StateAwaitingUserInput
	}
	o.saveSnapshot(ctx, conv)

	state, _ := o.persistence.Status()
	return &TurnResult{
		Reply:     assistantMsg,
		Progress:  Progress(conv.Collected),
		Completed: completed,
		SaveState: state,
	}, nil
}

// SubmitEvaluation closes the session: the rating and comment are
// persisted with status completed, the closing message is appended, and
// the local snapshot and session identity are cleared.
func (o *Orchestrator) SubmitEvaluation(ctx context.Context, sessionID string, rating int, comment string) (*domain.Message, error) {
	conv, err := o.Resume(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	if conv.State == StateCompleted {
		return nil, domain.ErrSessionCompleted
	}

	o.persistence.SaveEvaluation(ctx, conv.Collected, conv.Messages, rating, comment)

	closing := domain.Message{
		ID:        newMessageID(),
		Role:      domain.RoleAssistant,
		Content:   domain.ClosingMessage,
		Timestamp: time.Now(),
	}
	conv.Messages = append(conv.Messages, closing)
	conv.State = StateCompleted

	o.snapshots.Clear(ctx, sessionID)
	o.sessions.Clear(ctx)
	o.persistence.ReleaseSession(sessionID)

	slog.Info("session completed", "session_id", sessionID, "rating", rating)
	return &closing, nil
}

// Snapshot returns the widget-facing view of the session for restore.
func (o *Orchestrator) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	conv, err := o.Resume(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	return &domain.Snapshot{
		SessionID:    conv.SessionID,
		Messages:     conv.Messages,
		Collected:    conv.Collected.Clone(),
		Progress:     Progress(conv.Collected),
		LastActivity: time.Now(),
	}, nil
}

// uploadAttachments pushes each file to object storage, appending the
// resulting URLs to the briefing. A failed upload is logged and that file
// skipped; it never fails the turn.
func (o *Orchestrator) uploadAttachments(ctx context.Context, conv *Conversation, files []Attachment) []string {
	if len(files) == 0 {
		return nil
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
		if !o.storage.Enabled() {
			continue
		}
		url, err := o.storage.Upload(ctx, conv.SessionID, f.Name, f.ContentType, f.Data)
		if err != nil {
			slog.Error("file upload failed, skipping",
				"session_id", conv.SessionID, "file", f.Name, "error", err)
			continue
		}
		conv.Collected.UploadedFiles = append(conv.Collected.UploadedFiles, url)
	}
	return names
}

// apologyTurn appends the generic apology assistant message and puts the
// conversation back into AwaitingUserInput so the user can retry.
func (o *Orchestrator) apologyTurn(ctx context.Context, conv *Conversation) *TurnResult {
	msg := domain.Message{
		ID:        newMessageID(),
		Role:      domain.RoleAssistant,
		Content:   domain.ApologyMessage,
		Timestamp: time.Now(),
	}
	conv.Messages = append(conv.Messages, msg)
	conv.State = StateAwaitingUserInput
	o.saveSnapshot(ctx, conv)

	state, _ := o.persistence.Status()
	return &TurnResult{
		Reply:     msg,
		Progress:  Progress(conv.Collected),
		SaveState: state,
	}
}

func (o *Orchestrator) saveSnapshot(ctx context.Context, conv *Conversation) {
	o.snapshots.Save(ctx, &domain.Snapshot{
		SessionID: conv.SessionID,
		Messages:  conv.Messages,
		Collected: conv.Collected.Clone(),
		Progress:  Progress(conv.Collected),
	})
}

// chatHistory maps the canonical log onto the completion request, with
// the fixed system prompt up front.
func (o *Orchestrator) chatHistory(conv *Conversation) []ChatMessage {
	messages := make([]ChatMessage, 0, len(conv.Messages)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: domain.SystemPrompt})
	for _, m := range conv.Messages {
		messages = append(messages, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return messages
}

// annotateContent appends the synthetic file and audio annotations the
// completion collaborator is prompted to acknowledge.
func annotateContent(text string, fileNames []string, hasAudio bool) string {
	content := text
	if len(fileNames) > 0 {
		content = fmt.Sprintf("%s\n\n[Arquivos enviados: %s]", content, strings.Join(fileNames, ", "))
	}
	if hasAudio {
		content += "\n\n[Mensagem de áudio transcrita]"
	}
	return strings.TrimSpace(content)
}

func newMessageID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
