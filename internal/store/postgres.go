// Package store holds the persistence adapters behind the recommendation core.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Submission is one stored onboarding answer set.
type Submission struct {
	ID          string
	UserID      string
	Answers     map[string]any
	SubmittedAt time.Time
}

// PostgresRepository reads and writes onboarding submissions and the catalog
// tables.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertSubmissionSQL = `
	INSERT INTO onboarding_submissions (id, user_id, answers, submitted_at)
	VALUES ($1, $2, $3, $4)`

// SaveSubmission appends a new submission. Earlier rows are kept for audit and
// are superseded by submitted_at ordering.
func (r *PostgresRepository) SaveSubmission(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return apperrors.NewValidationError("answers", fmt.Sprintf("answers are not serializable: %v", err))
	}

	if _, err := r.db.ExecContext(ctx, insertSubmissionSQL, sub.ID, sub.UserID, answers, sub.SubmittedAt); err != nil {
		return wrapDBError("save_submission", err)
	}
	return nil
}

const latestSubmissionSQL = `
	SELECT id, answers, submitted_at
	FROM onboarding_submissions
	WHERE user_id = $1
	ORDER BY submitted_at DESC, id DESC
	LIMIT 1`

// LatestSubmission returns the newest submission of a user.
func (r *PostgresRepository) LatestSubmission(ctx context.Context, userID string) (*Submission, error) {
	sub := Submission{UserID: userID}
	var raw []byte

	err := r.db.QueryRowContext(ctx, latestSubmissionSQL, userID).Scan(&sub.ID, &raw, &sub.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewProfileMissingError(userID)
	}
	if err != nil {
		return nil, wrapDBError("latest_submission", err)
	}

	if err := json.Unmarshal(raw, &sub.Answers); err != nil {
		return nil, apperrors.NewStoreFailedError("latest_submission", fmt.Errorf("decode answers: %w", err))
	}
	return &sub, nil
}

const catalogSnapshotSQL = `
	SELECT s.id, s.merchant_id, s.name, s.price_cents, s.duration_minutes, s.category,
	       COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}'),
	       COALESCE(array_agg(t.category ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
	FROM services s
	LEFT JOIN service_tags st ON st.service_id = s.id
	LEFT JOIN tags t ON t.id = st.tag_id
	WHERE s.active = true
	GROUP BY s.id
	ORDER BY s.id`

// CatalogSnapshot loads every active service with its tags.
func (r *PostgresRepository) CatalogSnapshot(ctx context.Context) ([]models.Service, error) {
	rows, err := r.db.QueryContext(ctx, catalogSnapshotSQL)
	if err != nil {
		return nil, wrapDBError("catalog_snapshot", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var svc models.Service
		var name sql.NullString
		var tagNames, tagCategories []string

		if err := rows.Scan(&svc.ID, &svc.MerchantID, &name, &svc.PriceCents, &svc.DurationMinutes,
			&svc.Category, pq.Array(&tagNames), pq.Array(&tagCategories)); err != nil {
			return nil, wrapDBError("catalog_snapshot", err)
		}
		svc.Name = name.String
		for i, tag := range tagNames {
			category := ""
			if i < len(tagCategories) {
				category = tagCategories[i]
			}
			svc.Tags = append(svc.Tags, models.Tag{Name: tag, Category: models.TagCategory(category)})
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("catalog_snapshot", err)
	}
	return services, nil
}

const activeMerchantsSQL = `
	SELECT id, name FROM merchants WHERE active = true ORDER BY id`

// Merchants lists active merchants. Trust scores live in the trust store.
func (r *PostgresRepository) Merchants(ctx context.Context) ([]models.Merchant, error) {
	rows, err := r.db.QueryContext(ctx, activeMerchantsSQL)
	if err != nil {
		return nil, wrapDBError("merchants", err)
	}
	defer rows.Close()

	var merchants []models.Merchant
	for rows.Next() {
		var m models.Merchant
		var name sql.NullString
		if err := rows.Scan(&m.ID, &name); err != nil {
			return nil, wrapDBError("merchants", err)
		}
		m.Name = name.String
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("merchants", err)
	}
	return merchants, nil
}

func wrapDBError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewStoreTimeoutError(op, err)
	}
	return apperrors.NewStoreFailedError(op, err)
}
