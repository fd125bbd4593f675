package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const preferenceKeyPrefix = "preference:profile:"

// SubmissionRepository is satisfied by *PostgresRepository.
type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, sub *Submission) error
	LatestSubmission(ctx context.Context, userID string) (*Submission, error)
}

// PreferenceBuilder is satisfied by *profile.Builder.
type PreferenceBuilder interface {
	Build(userID string, answers map[string]any) (models.Preference, error)
}

// PreferenceStore derives preferences from the latest stored submission and
// caches them in Redis. The cache only ever holds a value built from the
// newest submission, since every save invalidates it.
type PreferenceStore struct {
	repo    SubmissionRepository
	builder PreferenceBuilder
	rdb     *redis.Client
	ttl     time.Duration
	logger  logger.Logger
}

func NewPreferenceStore(repo SubmissionRepository, builder PreferenceBuilder, rdb *redis.Client, ttl time.Duration, log logger.Logger) *PreferenceStore {
	return &PreferenceStore{
		repo:    repo,
		builder: builder,
		rdb:     rdb,
		ttl:     ttl,
		logger:  log.WithFields(map[string]interface{}{"component": "preference-store"}),
	}
}

func preferenceKey(userID string) string {
	return preferenceKeyPrefix + userID
}

// GetPreference returns the cached preference or rebuilds it from the latest
// submission. A PROFILE_MISSING error is returned unchanged.
func (s *PreferenceStore) GetPreference(ctx context.Context, userID string) (models.Preference, error) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, preferenceKey(userID)).Result()
		switch {
		case err == nil:
			var pref models.Preference
			if jsonErr := json.Unmarshal([]byte(val), &pref); jsonErr == nil {
				return pref, nil
			}
			s.logger.Warn("Discarding undecodable cached preference", map[string]interface{}{"userId": userID})
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("Preference cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}

	sub, err := s.repo.LatestSubmission(ctx, userID)
	if err != nil {
		return models.Preference{}, err
	}
	pref, err := s.builder.Build(userID, sub.Answers)
	if err != nil {
		return models.Preference{}, err
	}
	pref.SubmittedAt = sub.SubmittedAt

	s.cache(ctx, pref)
	return pref, nil
}

// Submit stores a new submission and replaces the cached preference. The
// preference must have been built from answers; it is stamped with the time
// the submission was saved.
func (s *PreferenceStore) Submit(ctx context.Context, userID string, answers map[string]any, pref models.Preference) (*Submission, error) {
	sub := &Submission{UserID: userID, Answers: answers}
	if err := s.repo.SaveSubmission(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Preference cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return sub, nil
	}
	pref.SubmittedAt = sub.SubmittedAt
	s.cache(ctx, pref)
	return sub, nil
}

// Invalidate drops the cached preference of a user.
func (s *PreferenceStore) Invalidate(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, preferenceKey(userID)).Err()
}

func (s *PreferenceStore) cache(ctx context.Context, pref models.Preference) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(pref)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, preferenceKey(pref.UserID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("Preference cache write failed", map[string]interface{}{
			"userId": pref.UserID,
			"error":  err.Error(),
		})
	}
}
