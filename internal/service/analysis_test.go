package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
)

func TestParseAnalysisResponsePlainJSON(t *testing.T) {
	result, err := ParseAnalysisResponse(`{"company_name": "Acme", "user_name": null}`)
	require.NoError(t, err)
	require.NotNil(t, result.CompanyName)
	assert.Equal(t, "Acme", *result.CompanyName)
	assert.Nil(t, result.UserName)
}

func TestParseAnalysisResponseMarkdownWrapped(t *testing.T) {
	result, err := ParseAnalysisResponse("```json\n{\"company_name\": \"Acme\"}\n```")
	require.NoError(t, err)
	require.NotNil(t, result.CompanyName)
	assert.Equal(t, "Acme", *result.CompanyName)
	assert.Nil(t, result.Mission)
	assert.Nil(t, result.UserWhatsApp)
}

func TestParseAnalysisResponseEmbeddedObject(t *testing.T) {
	result, err := ParseAnalysisResponse("Aqui está o resultado:\n{\"mission\": \"crescer\"}\nEspero ter ajudado!")
	require.NoError(t, err)
	require.NotNil(t, result.Mission)
	assert.Equal(t, "crescer", *result.Mission)
}

func TestParseAnalysisResponseGarbage(t *testing.T) {
	_, err := ParseAnalysisResponse("desculpe, não consegui analisar a conversa")
	assert.Error(t, err)
}

type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) CompleteWithModel(_ context.Context, _ string, _ []ChatMessage, _ *float64) (string, error) {
	return s.reply, s.err
}

func TestAnalyzeMalformedResponseFallsBackToNullFields(t *testing.T) {
	svc := NewAnalysisService(&stubCompleter{reply: "not json at all"}, &config.Config{AnalysisModel: "m"})

	result, err := svc.Analyze(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "oi"},
	})
	require.NoError(t, err)
	assert.Nil(t, result.CompanyName)
	require.NotNil(t, result.AdditionalInfo)
	assert.Contains(t, *result.AdditionalInfo, "Erro no parse automático")
}

func TestAnalyzeCollaboratorError(t *testing.T) {
	svc := NewAnalysisService(&stubCompleter{err: errors.New("boom")}, &config.Config{AnalysisModel: "m"})

	_, err := svc.Analyze(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "oi"},
	})
	assert.Error(t, err)
}

func TestAnalysisResultApplyToOverwrites(t *testing.T) {
	b := &domain.Briefing{UserName: "Extraído Antes", UserWhatsApp: "000"}
	name := "Ana Silva"
	phone := "(11) 99999-8888"
	result := &AnalysisResult{UserName: &name, UserWhatsApp: &phone}

	result.ApplyTo(b)

	assert.Equal(t, "Ana Silva", b.UserName, "analysis output is authoritative")
	assert.Equal(t, "11999998888", b.UserWhatsApp, "whatsapp reduced to digits")
}
