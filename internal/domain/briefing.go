package domain

import "time"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Briefing is the collected business-fact record for one session, mirrored
// to the client_briefings table. Empty string means "not collected yet";
// the repository maps empty fields to NULL at the boundary.
type Briefing struct {
	SessionID string

	UserName          string
	UserWhatsApp      string
	CompanyName       string
	Slogan            string
	Mission           string
	Vision            string
	Values            string
	Description       string
	Differentials     string
	ProductsServices  string
	TargetAudience    string
	SocialProof       string
	DesignPreferences string
	ContactInfo       string
	WebsiteObjective  string
	AdditionalInfo    string

	UploadedFiles []string

	EvaluationRating  int
	EvaluationComment string

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequiredFields lists the briefing fields that drive the progress
// indicator, in the order the conversation collects them.
func (b *Briefing) RequiredFields() []string {
	return []string{
		b.UserName,
		b.UserWhatsApp,
		b.CompanyName,
		b.Mission,
		b.Vision,
		b.Values,
		b.ProductsServices,
		b.TargetAudience,
		b.SocialProof,
		b.DesignPreferences,
		b.ContactInfo,
		b.WebsiteObjective,
	}
}

// Completed reports whether the briefing reached its terminal status.
// Status is monotonic: once completed it never reverts.
func (b *Briefing) Completed() bool {
	return b.Status == StatusCompleted
}

func (b *Briefing) Clone() *Briefing {
	c := *b
	c.UploadedFiles = append([]string(nil), b.UploadedFiles...)
	return &c
}
