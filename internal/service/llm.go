package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/planner-labs/briefing/internal/config"
)

// ChatService talks to an OpenAI-compatible chat-completion endpoint. The
// briefing intelligence lives entirely behind this call; the service only
// ships the system prompt plus the message log and reads back one reply.
type ChatService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewChatService(cfg *config.Config) *ChatService {
	return &ChatService{
		apiKey:     cfg.OpenAIKey,
		baseURL:    cfg.ChatBaseURL,
		model:      cfg.ChatModel,
		httpClient: &http.Client{Timeout: config.ChatRequestTimeout},
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the assistant reply.
// Timeouts and 429/5xx answers are retried once under the shared policy;
// other 4xx rejections are terminal.
func (s *ChatService) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return s.complete(ctx, s.model, messages, nil)
}

// CompleteWithModel is Complete with an explicit model and temperature,
// used by the analysis pass.
func (s *ChatService) CompleteWithModel(ctx context.Context, model string, messages []ChatMessage, temperature *float64) (string, error) {
	return s.complete(ctx, model, messages, temperature)
}

func (s *ChatService) complete(ctx context.Context, model string, messages []ChatMessage, temperature *float64) (string, error) {
	var reply string
	err := withRetry(ctx, 2, config.SaveRetryBase, config.SaveRetryMaxWait, func() error {
		var attemptErr error
		reply, attemptErr = s.completeOnce(ctx, model, messages, temperature)
		return attemptErr
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (s *ChatService) completeOnce(ctx context.Context, model string, messages []ChatMessage, temperature *float64) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("marshal chat request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Network failure or timeout: retryable.
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("chat completion status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", backoff.Permanent(fmt.Errorf("chat completion rejected: %d: %s", resp.StatusCode, body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", backoff.Permanent(fmt.Errorf("parse chat response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return "", backoff.Permanent(fmt.Errorf("chat completion returned no choices"))
	}
	return chatResp.Choices[0].Message.Content, nil
}
