package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/domain"
)

// completer is the slice of ChatService the analysis pass needs.
type completer interface {
	CompleteWithModel(ctx context.Context, model string, messages []ChatMessage, temperature *float64) (string, error)
}

// AnalysisService runs the final structured extraction over the finished
// conversation. Its output is authoritative: unlike the incremental
// extraction helper it overwrites every scalar briefing field.
type AnalysisService struct {
	llm   completer
	model string
}

func NewAnalysisService(llm completer, cfg *config.Config) *AnalysisService {
	return &AnalysisService{llm: llm, model: cfg.AnalysisModel}
}

// AnalysisResult mirrors the flat JSON object the collaborator is
// prompted to return. Nil means the field was not mentioned.
type AnalysisResult struct {
	UserName          *string `json:"user_name"`
	UserWhatsApp      *string `json:"user_whatsapp"`
	CompanyName       *string `json:"company_name"`
	Slogan            *string `json:"slogan"`
	Mission           *string `json:"mission"`
	Vision            *string `json:"vision"`
	Values            *string `json:"values"`
	Description       *string `json:"description"`
	Differentials     *string `json:"differentials"`
	ProductsServices  *string `json:"products_services"`
	TargetAudience    *string `json:"target_audience"`
	SocialProof       *string `json:"social_proof"`
	DesignPreferences *string `json:"design_preferences"`
	ContactInfo       *string `json:"contact_info"`
	WebsiteObjective  *string `json:"website_objective"`
	AdditionalInfo    *string `json:"additional_info"`
}

// Analyze sends the user side of the conversation to the collaborator and
// parses its JSON answer. A malformed answer degrades to an all-null
// result carrying a diagnostic note instead of failing the save.
func (s *AnalysisService) Analyze(ctx context.Context, messages []domain.Message) (*AnalysisResult, error) {
	var parts []string
	for _, m := range messages {
		if m.Role == domain.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	conversation := strings.Join(parts, "\n\n")

	temperature := 0.1
	reply, err := s.llm.CompleteWithModel(ctx, s.model, []ChatMessage{
		{Role: "system", Content: domain.AnalysisSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(domain.AnalysisPromptTemplate, conversation)},
	}, &temperature)
	if err != nil {
		return nil, fmt.Errorf("analysis completion: %w", err)
	}

	result, err := ParseAnalysisResponse(reply)
	if err != nil {
		slog.Error("analysis response unparseable, using null field set", "error", err)
		note := fmt.Sprintf("Erro no parse automático. Dados brutos: %s", truncate(reply, 500))
		return &AnalysisResult{AdditionalInfo: &note}, nil
	}
	return result, nil
}

// ParseAnalysisResponse defensively repairs the collaborator output:
// markdown code fences are stripped and, failing a direct parse, the
// first {...} block is extracted before giving up.
func ParseAnalysisResponse(text string) (*AnalysisResult, error) {
	cleaned := stripCodeFences(text)

	var result AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return &result, nil
	}

	match := jsonObjectPattern.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in analysis response")
	}
	match = stripCodeFences(match)
	if err := json.Unmarshal([]byte(match), &result); err != nil {
		return nil, fmt.Errorf("parse extracted JSON: %w", err)
	}
	return &result, nil
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ApplyTo writes the analysis output onto the briefing. The collaborator
// is authoritative, so present fields overwrite existing values; the
// WhatsApp number is reduced to digits.
func (r *AnalysisResult) ApplyTo(b *domain.Briefing) {
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	assign(&b.UserName, r.UserName)
	if r.UserWhatsApp != nil {
		b.UserWhatsApp = nonDigits.ReplaceAllString(*r.UserWhatsApp, "")
	}
	assign(&b.CompanyName, r.CompanyName)
	assign(&b.Slogan, r.Slogan)
	assign(&b.Mission, r.Mission)
	assign(&b.Vision, r.Vision)
	assign(&b.Values, r.Values)
	assign(&b.Description, r.Description)
	assign(&b.Differentials, r.Differentials)
	assign(&b.ProductsServices, r.ProductsServices)
	assign(&b.TargetAudience, r.TargetAudience)
	assign(&b.SocialProof, r.SocialProof)
	assign(&b.DesignPreferences, r.DesignPreferences)
	assign(&b.ContactInfo, r.ContactInfo)
	assign(&b.WebsiteObjective, r.WebsiteObjective)
	assign(&b.AdditionalInfo, r.AdditionalInfo)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
