package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
	"github.com/planner-labs/briefing/internal/repository"
)

type scriptedChat struct {
	replies []string
	err     error
	calls   int
}

func (s *scriptedChat) Complete(_ context.Context, _ []ChatMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubUploader struct {
	enabled bool
	err     error
	names   []string
}

func (s *stubUploader) Enabled() bool { return s.enabled }

func (s *stubUploader) Upload(_ context.Context, sessionID, fileName, _ string, _ []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.names = append(s.names, fileName)
	return "https://files.example/" + sessionID + "/" + fileName, nil
}

type orchestratorRig struct {
	orchestrator *Orchestrator
	repo         *fakeBriefingRepo
	store        *repository.SnapshotStore
	sessions     *SessionService
	persistence  *PersistenceService
	analysis     *stubAnalyzer
}

func newOrchestratorRig(t *testing.T, chat *scriptedChat, tr *stubTranscriber, up *stubUploader) *orchestratorRig {
	t.Helper()

	store, err := repository.OpenSnapshotStore(filepath.Join(t.TempDir(), "snapshots.db"), config.SnapshotRetention)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repo := newFakeBriefingRepo()
	sessions := NewSessionService(store)
	analysis := &stubAnalyzer{result: &AnalysisResult{}}

	persistence := NewPersistenceService(repo, store, sessions, analysis)
	persistence.retryBase = 2 * time.Millisecond
	persistence.retryMax = 10 * time.Millisecond

	return &orchestratorRig{
		orchestrator: NewOrchestrator(sessions, store, persistence, chat, tr, up),
		repo:         repo,
		store:        store,
		sessions:     sessions,
		persistence:  persistence,
		analysis:     analysis,
	}
}

func TestStartSessionSeedsGreeting(t *testing.T) {
	rig := newOrchestratorRig(t, &scriptedChat{}, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	assert.True(t, rig.sessions.Validate(conv.SessionID))
	assert.Equal(t, StateAwaitingUserInput, conv.State)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, conv.Messages[0].Role)
	assert.Equal(t, domain.Greeting, conv.Messages[0].Content)

	snap := rig.store.Load(context.Background(), conv.SessionID)
	require.NotNil(t, snap, "the fresh session is snapshotted immediately")
	assert.Len(t, snap.Messages, 1)
}

func TestHandleUserTurnAppendsAndExtracts(t *testing.T) {
	chat := &scriptedChat{replies: []string{"Perfeito, Ana! Qual o nome da sua empresa?"}}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	result, err := rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID,
		"Meu nome é Ana Silva, meu whatsapp é 11999998888", nil, nil)
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.Equal(t, chat.replies[0], result.Reply.Content)
	assert.Equal(t, 17, result.Progress, "name and whatsapp are 2 of 12 fields")
	assert.Equal(t, SaveSuccess, result.SaveState)

	assert.Len(t, conv.Messages, 3, "greeting, user turn, assistant reply")
	assert.Equal(t, StateAwaitingUserInput, conv.State)
	assert.Equal(t, "Ana Silva", conv.Collected.UserName)
	assert.Equal(t, "11999998888", conv.Collected.UserWhatsApp)

	row, ok := rig.repo.row(conv.SessionID)
	require.True(t, ok, "the turn is mirrored remotely")
	assert.Equal(t, domain.StatusInProgress, row.Status)
	assert.Equal(t, 3, rig.repo.logLens[conv.SessionID])
}

func TestHandleUserTurnRejectsEmptyMessage(t *testing.T) {
	rig := newOrchestratorRig(t, &scriptedChat{replies: []string{"oi"}}, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	_, err = rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID, "   ", nil, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestTerminalMarkerCompletesBriefing(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		"Obrigado! " + config.TerminalMarker + " Como você avalia nosso atendimento?",
	}}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, &stubUploader{})
	company := "Acme Digital"
	rig.analysis.result = &AnalysisResult{CompanyName: &company}

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	result, err := rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID,
		"a empresa se chama Acme", nil, nil)
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, StateEvaluating, conv.State)
	assert.Equal(t, 1, rig.analysis.calls, "the authoritative analysis runs exactly once")
	assert.Equal(t, "Acme Digital", conv.Collected.CompanyName, "analysis overwrites the incremental guess")

	row, ok := rig.repo.row(conv.SessionID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, row.Status)

	_, err = rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID, "mais uma coisa", nil, nil)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted, "no further turns while evaluating")
}

func TestSubmitEvaluationClosesSession(t *testing.T) {
	chat := &scriptedChat{replies: []string{config.TerminalMarker}}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)
	_, err = rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID, "pronto", nil, nil)
	require.NoError(t, err)

	closing, err := rig.orchestrator.SubmitEvaluation(context.Background(), conv.SessionID, 5, "excelente")
	require.NoError(t, err)
	assert.Equal(t, domain.ClosingMessage, closing.Content)
	assert.Equal(t, StateCompleted, conv.State)

	row, ok := rig.repo.row(conv.SessionID)
	require.True(t, ok)
	assert.Equal(t, 5, row.EvaluationRating)
	assert.Equal(t, "excelente", row.EvaluationComment)
	assert.Equal(t, domain.StatusCompleted, row.Status)

	assert.Nil(t, rig.store.Load(context.Background(), conv.SessionID), "the local snapshot is cleared")
	assert.Empty(t, rig.store.CurrentSession(context.Background()))

	_, err = rig.orchestrator.SubmitEvaluation(context.Background(), conv.SessionID, 4, "de novo")
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestAudioTurnIsTranscribed(t *testing.T) {
	chat := &scriptedChat{replies: []string{"Olá! Pode me contar mais?"}}
	tr := &stubTranscriber{text: "ola"}
	rig := newOrchestratorRig(t, chat, tr, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	result, err := rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID,
		"", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, tr.calls)

	userMsg := conv.Messages[1]
	assert.Equal(t, domain.RoleUser, userMsg.Role)
	assert.True(t, userMsg.HasAudio)
	assert.Contains(t, userMsg.Content, "ola")
	assert.Contains(t, userMsg.Content, "[Mensagem de áudio transcrita]")
	assert.False(t, result.Completed)
}

func TestTranscriptionFailureDegradesToApology(t *testing.T) {
	chat := &scriptedChat{replies: []string{"nunca chega aqui"}}
	tr := &stubTranscriber{err: errors.New("service down")}
	rig := newOrchestratorRig(t, chat, tr, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	result, err := rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID,
		"", []byte{0x01, 0x02, 0x03}, nil)
	require.NoError(t, err, "a collaborator failure is not a turn failure")

	assert.Equal(t, domain.ApologyMessage, result.Reply.Content)
	assert.Equal(t, StateAwaitingUserInput, conv.State)
	assert.Zero(t, chat.calls, "the chat collaborator is never asked")
}

func TestChatFailureDegradesToApology(t *testing.T) {
	chat := &scriptedChat{err: errors.New("upstream 500")}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	result, err := rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID, "olá", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ApologyMessage, result.Reply.Content)
	assert.Equal(t, StateAwaitingUserInput, conv.State, "the user can retry the turn")
}

func TestAttachmentsUploadedAndAnnotated(t *testing.T) {
	chat := &scriptedChat{replies: []string{"Recebi o arquivo, obrigado!"}}
	up := &stubUploader{enabled: true}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, up)

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	_, err = rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID,
		"segue nosso logo", nil, []Attachment{{Name: "logo.png", ContentType: "image/png", Data: []byte{1}}})
	require.NoError(t, err)

	assert.Equal(t, []string{"logo.png"}, up.names)
	require.Len(t, conv.Collected.UploadedFiles, 1)
	assert.Contains(t, conv.Collected.UploadedFiles[0], "logo.png")
	assert.Contains(t, conv.Messages[1].Content, "[Arquivos enviados: logo.png]")
}

func TestUploadFailureSkipsFileButKeepsTurn(t *testing.T) {
	chat := &scriptedChat{replies: []string{"ok"}}
	up := &stubUploader{enabled: true, err: errors.New("bucket gone")}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, up)

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	result, err := rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID,
		"segue o arquivo", nil, []Attachment{{Name: "doc.pdf", Data: []byte{1}}})
	require.NoError(t, err)

	assert.Empty(t, conv.Collected.UploadedFiles)
	assert.Equal(t, "ok", result.Reply.Content)
}

func TestResumeRestoresFromSnapshot(t *testing.T) {
	chat := &scriptedChat{replies: []string{"Qual o nome da empresa?"}}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)
	_, err = rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID, "meu nome é Ana Silva", nil, nil)
	require.NoError(t, err)

	// A new orchestrator over the same stores stands in for a process
	// restart.
	restarted := NewOrchestrator(rig.sessions, rig.store, rig.persistence,
		chat, &stubTranscriber{}, &stubUploader{})

	resumed, err := restarted.Resume(context.Background(), conv.SessionID)
	require.NoError(t, err)
	assert.Len(t, resumed.Messages, 3)
	assert.Equal(t, "Ana Silva", resumed.Collected.UserName)
	assert.Equal(t, StateAwaitingUserInput, resumed.State)
}

func TestResumeRefusesGreetingOnlySnapshot(t *testing.T) {
	rig := newOrchestratorRig(t, &scriptedChat{}, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)

	restarted := NewOrchestrator(rig.sessions, rig.store, rig.persistence,
		&scriptedChat{}, &stubTranscriber{}, &stubUploader{})

	_, err = restarted.Resume(context.Background(), conv.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "single-message snapshots start over")
}

func TestResumeValidation(t *testing.T) {
	rig := newOrchestratorRig(t, &scriptedChat{}, &stubTranscriber{}, &stubUploader{})

	_, err := rig.orchestrator.Resume(context.Background(), "short")
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)

	_, err = rig.orchestrator.Resume(context.Background(), "session_1700000000000_missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSnapshotReportsProgress(t *testing.T) {
	chat := &scriptedChat{replies: []string{"Qual o nome da empresa?"}}
	rig := newOrchestratorRig(t, chat, &stubTranscriber{}, &stubUploader{})

	conv, err := rig.orchestrator.StartSession(context.Background())
	require.NoError(t, err)
	_, err = rig.orchestrator.HandleUserTurn(context.Background(), conv.SessionID,
		"Meu nome é Ana Silva, meu whatsapp é 11999998888", nil, nil)
	require.NoError(t, err)

	snap, err := rig.orchestrator.Snapshot(context.Background(), conv.SessionID)
	require.NoError(t, err)
	assert.Equal(t, conv.SessionID, snap.SessionID)
	assert.Equal(t, 17, snap.Progress)
	assert.Len(t, snap.Messages, 3)
}
