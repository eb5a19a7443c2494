package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planner-labs/briefing/internal/domain"
)

// BriefingRepository owns all access to the client_briefings table. The
// remote conversation log columns (conversation_log and the legacy
// historico_conversa duplicate) are both derived from the canonical
// message log at this boundary.
type BriefingRepository struct {
	db *pgxpool.Pool
}

func NewBriefingRepository(db *pgxpool.Pool) *BriefingRepository {
	return &BriefingRepository{db: db}
}

// Exists reports whether a row for the session id is present, returning
// its created_at so updates can preserve it.
func (r *BriefingRepository) Exists(ctx context.Context, sessionID string) (bool, time.Time, error) {
	var createdAt time.Time
	err := r.db.QueryRow(ctx,
		`SELECT created_at FROM client_briefings WHERE session_id = $1`,
		sessionID,
	).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("check briefing: %w", err)
	}
	return true, createdAt, nil
}

// Insert creates the row for a new session. A unique violation on
// session_id is surfaced as domain.ErrDuplicateSession so callers can
// treat a lost insert race as retryable.
func (r *BriefingRepository) Insert(ctx context.Context, b *domain.Briefing, log []domain.LogEntry) error {
	logJSON, filesJSON, err := marshalLogFields(b, log)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO client_briefings (
			session_id, user_name, user_whatsapp, company_name, slogan,
			mission, vision, "values", description, differentials,
			products_services, target_audience, social_proof,
			design_preferences, contact_info, website_objective,
			additional_info, uploaded_files, conversation_log,
			historico_conversa, evaluation_rating, evaluation_comment,
			status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $19, $20, $21, $22, $23, now()
		)`,
		b.SessionID,
		nullIfEmpty(b.UserName),
		nullIfEmpty(b.UserWhatsApp),
		nullIfEmpty(b.CompanyName),
		nullIfEmpty(b.Slogan),
		nullIfEmpty(b.Mission),
		nullIfEmpty(b.Vision),
		nullIfEmpty(b.Values),
		nullIfEmpty(b.Description),
		nullIfEmpty(b.Differentials),
		nullIfEmpty(b.ProductsServices),
		nullIfEmpty(b.TargetAudience),
		nullIfEmpty(b.SocialProof),
		nullIfEmpty(b.DesignPreferences),
		nullIfEmpty(b.ContactInfo),
		nullIfEmpty(b.WebsiteObjective),
		nullIfEmpty(b.AdditionalInfo),
		filesJSON,
		logJSON,
		nullIfZero(b.EvaluationRating),
		nullIfEmpty(b.EvaluationComment),
		string(b.Status),
		b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert briefing %s: %w", b.SessionID, domain.ErrDuplicateSession)
		}
		return fmt.Errorf("insert briefing: %w", err)
	}
	return nil
}

// Update overwrites the row with the full current field set. Status is
// monotonic: a row that already reached 'completed' never reverts to
// 'in_progress'.
func (r *BriefingRepository) Update(ctx context.Context, b *domain.Briefing, log []domain.LogEntry) error {
	logJSON, filesJSON, err := marshalLogFields(b, log)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE client_briefings SET
			user_name = $2, user_whatsapp = $3, company_name = $4,
			slogan = $5, mission = $6, vision = $7, "values" = $8,
			description = $9, differentials = $10, products_services = $11,
			target_audience = $12, social_proof = $13,
			design_preferences = $14, contact_info = $15,
			website_objective = $16, additional_info = $17,
			uploaded_files = $18, conversation_log = $19,
			historico_conversa = $19, evaluation_rating = $20,
			evaluation_comment = $21,
			status = CASE WHEN status = 'completed' THEN status ELSE $22 END,
			updated_at = now()
		WHERE session_id = $1`,
		b.SessionID,
		nullIfEmpty(b.UserName),
		nullIfEmpty(b.UserWhatsApp),
		nullIfEmpty(b.CompanyName),
		nullIfEmpty(b.Slogan),
		nullIfEmpty(b.Mission),
		nullIfEmpty(b.Vision),
		nullIfEmpty(b.Values),
		nullIfEmpty(b.Description),
		nullIfEmpty(b.Differentials),
		nullIfEmpty(b.ProductsServices),
		nullIfEmpty(b.TargetAudience),
		nullIfEmpty(b.SocialProof),
		nullIfEmpty(b.DesignPreferences),
		nullIfEmpty(b.ContactInfo),
		nullIfEmpty(b.WebsiteObjective),
		nullIfEmpty(b.AdditionalInfo),
		filesJSON,
		logJSON,
		nullIfZero(b.EvaluationRating),
		nullIfEmpty(b.EvaluationComment),
		string(b.Status),
	)
	if err != nil {
		return fmt.Errorf("update briefing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update briefing %s: %w", b.SessionID, domain.ErrBriefingNotFound)
	}
	return nil
}

// GetBySessionID loads the stored briefing, mainly for diagnostics and
// tests against a real database.
func (r *BriefingRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Briefing, error) {
	var (
		b        domain.Briefing
		scalars  [16]*string
		rating   *int
		comment  *string
		status   string
		filesRaw []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT session_id, user_name, user_whatsapp, company_name, slogan,
			mission, vision, "values", description, differentials,
			products_services, target_audience, social_proof,
			design_preferences, contact_info, website_objective,
			additional_info, uploaded_files, evaluation_rating,
			evaluation_comment, status, created_at, updated_at
		FROM client_briefings WHERE session_id = $1`,
		sessionID,
	).Scan(
		&b.SessionID,
		&scalars[0], &scalars[1], &scalars[2], &scalars[3], &scalars[4],
		&scalars[5], &scalars[6], &scalars[7], &scalars[8], &scalars[9],
		&scalars[10], &scalars[11], &scalars[12], &scalars[13], &scalars[14],
		&scalars[15],
		&filesRaw, &rating, &comment, &status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBriefingNotFound
		}
		return nil, fmt.Errorf("get briefing: %w", err)
	}

	dst := []*string{
		&b.UserName, &b.UserWhatsApp, &b.CompanyName, &b.Slogan,
		&b.Mission, &b.Vision, &b.Values, &b.Description,
		&b.Differentials, &b.ProductsServices, &b.TargetAudience,
		&b.SocialProof, &b.DesignPreferences, &b.ContactInfo,
		&b.WebsiteObjective, &b.AdditionalInfo,
	}
	for i, s := range scalars {
		if s != nil {
			*dst[i] = *s
		}
	}
	if rating != nil {
		b.EvaluationRating = *rating
	}
	if comment != nil {
		b.EvaluationComment = *comment
	}
	b.Status = domain.Status(status)
	if len(filesRaw) > 0 {
		if err := json.Unmarshal(filesRaw, &b.UploadedFiles); err != nil {
			return nil, fmt.Errorf("decode uploaded files: %w", err)
		}
	}
	return &b, nil
}

func marshalLogFields(b *domain.Briefing, log []domain.LogEntry) ([]byte, []byte, error) {
	if log == nil {
		log = []domain.LogEntry{}
	}
	logJSON, err := json.Marshal(log)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal conversation log: %w", err)
	}
	files := b.UploadedFiles
	if files == nil {
		files = []string{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal uploaded files: %w", err)
	}
	return logJSON, filesJSON, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
