package service

import (
	"math"
	"regexp"
	"strings"

	"github.com/planner-labs/briefing/internal/domain"
)

// Best-effort incremental extraction from free-text user messages. This is
// advisory only: it drives the progress indicator between turns. The
// authoritative field population happens in the final analysis pass, which
// may overwrite anything set here.

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:meu nome é|me chamo|sou o|sou a|eu sou|my name is|i am|i'm)\s+([A-Za-zÀ-ÿ]+(?:\s+[A-Za-zÀ-ÿ]+){0,4})`),
	regexp.MustCompile(`(?i)(?:nome|name)\s*[:\-]\s*([A-Za-zÀ-ÿ]+(?:\s+[A-Za-zÀ-ÿ]+){0,4})`),
}

var whatsappPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:whatsapp|telefone|celular|número|zap|phone)\D{0,20}(\+?\d[\d\s().-]{7,18}\d)`),
	regexp.MustCompile(`(\(?\d{2}\)?\s?\d{4,5}[-\s]?\d{4})`),
}

var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:empresa|negócio|companhia|company)\s+(?:se chama|é chamada de|é|chamada|is called|is named)\s+([A-Za-zÀ-ÿ0-9&][A-Za-zÀ-ÿ0-9&\s]{1,49})`),
	regexp.MustCompile(`(?i)(?:nome da empresa|company name)\s*(?:é|is|:)?\s*([A-Za-zÀ-ÿ0-9&][A-Za-zÀ-ÿ0-9&\s]{1,49})`),
}

var (
	nonDigits     = regexp.MustCompile(`\D`)
	sentenceSplit = regexp.MustCompile(`[.!?\n]+`)
)

// keywordFields maps briefing fields to the trigger keywords of the
// sentence-level extraction, probed in this order.
var keywordFields = []struct {
	set      func(*domain.Briefing, string)
	get      func(*domain.Briefing) string
	keywords []string
}{
	{
		set:      func(b *domain.Briefing, v string) { b.Mission = v },
		get:      func(b *domain.Briefing) string { return b.Mission },
		keywords: []string{"missão", "propósito", "mission", "purpose"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.Vision = v },
		get:      func(b *domain.Briefing) string { return b.Vision },
		keywords: []string{"visão", "vision"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.Values = v },
		get:      func(b *domain.Briefing) string { return b.Values },
		keywords: []string{"valores", "princípios", "values"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.Slogan = v },
		get:      func(b *domain.Briefing) string { return b.Slogan },
		keywords: []string{"slogan", "lema", "tagline"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.ProductsServices = v },
		get:      func(b *domain.Briefing) string { return b.ProductsServices },
		keywords: []string{"produto", "serviço", "oferec", "product", "service", "offer"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.Differentials = v },
		get:      func(b *domain.Briefing) string { return b.Differentials },
		keywords: []string{"diferencial", "vantagem", "destaque", "advantage"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.TargetAudience = v },
		get:      func(b *domain.Briefing) string { return b.TargetAudience },
		keywords: []string{"público", "cliente ideal", "target", "audiência", "audience"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.SocialProof = v },
		get:      func(b *domain.Briefing) string { return b.SocialProof },
		keywords: []string{"depoimento", "case", "sucesso", "certificação", "testimonial"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.DesignPreferences = v },
		get:      func(b *domain.Briefing) string { return b.DesignPreferences },
		keywords: []string{"design", "estilo", "visual", "cores", "paleta", "style", "color"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.ContactInfo = v },
		get:      func(b *domain.Briefing) string { return b.ContactInfo },
		keywords: []string{"contato", "email", "endereço", "contact", "address"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.WebsiteObjective = v },
		get:      func(b *domain.Briefing) string { return b.WebsiteObjective },
		keywords: []string{"objetivo", "meta", "finalidade", "objective", "goal"},
	},
	{
		set:      func(b *domain.Briefing, v string) { b.AdditionalInfo = v },
		get:      func(b *domain.Briefing) string { return b.AdditionalInfo },
		keywords: []string{"adicional", "extra", "importante"},
	},
}

// ExtractFields fills still-empty briefing fields from one user message.
// First-write-wins: a field that already holds a value is never touched.
// Pure with respect to I/O; mutates only the given briefing.
func ExtractFields(message string, b *domain.Briefing) {
	if b.UserName == "" {
		if name := matchFirst(namePatterns, message); name != "" {
			b.UserName = strings.TrimSpace(name)
		}
	}
	if b.UserWhatsApp == "" {
		if raw := matchFirst(whatsappPatterns, message); raw != "" {
			digits := nonDigits.ReplaceAllString(raw, "")
			if len(digits) >= 10 {
				b.UserWhatsApp = digits
			}
		}
	}
	if b.CompanyName == "" {
		if name := matchFirst(companyPatterns, message); name != "" {
			b.CompanyName = strings.TrimSpace(name)
		}
	}
	for _, f := range keywordFields {
		if f.get(b) != "" {
			continue
		}
		if v := extractSentences(message, f.keywords); v != "" {
			f.set(b, v)
		}
	}
}

// Progress returns how much of the required field list is filled, 0-100.
func Progress(b *domain.Briefing) int {
	fields := b.RequiredFields()
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return int(math.Round(float64(filled) / float64(len(fields)) * 100))
}

func matchFirst(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// extractSentences returns the sentences of the message that mention any
// of the keywords, joined back together.
func extractSentences(text string, keywords []string) string {
	sentences := sentenceSplit.Split(text, -1)
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}

	var relevant []string
	for _, sentence := range sentences {
		ls := strings.ToLower(sentence)
		for _, k := range lower {
			if strings.Contains(ls, k) {
				relevant = append(relevant, strings.TrimSpace(sentence))
				break
			}
		}
	}
	return strings.Join(relevant, ". ")
}
