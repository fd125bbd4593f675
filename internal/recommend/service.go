// Package recommend orchestrates one recommendation request: profile lookup,
// candidate fetch, scoring and ranking.
package recommend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/matching"
	"beauty-workers/internal/models"
	"beauty-workers/internal/ranking"

	"github.com/google/uuid"
)

// Error values surfaced to the caller.
const (
	ErrorProfileMissing     = "profile_missing"
	ErrorCatalogUnavailable = "catalog_unavailable"
	ErrorInternal           = "internal_error"
)

// PreferenceSource returns the latest preference of a user, or an error
// carrying PROFILE_MISSING when the user never completed onboarding.
type PreferenceSource interface {
	GetPreference(ctx context.Context, userID string) (models.Preference, error)
}

// CandidateSource is satisfied by *catalog.Index.
type CandidateSource interface {
	CandidatesFor(pref models.Preference) ([]models.Service, error)
}

// TrustReader is satisfied by *trust.Engine.
type TrustReader interface {
	Scores(ctx context.Context, merchantIDs []string) (map[string]float64, error)
}

type Request struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit,omitempty"`
}

type Response struct {
	Success         bool                 `json:"success"`
	RequestID       string               `json:"requestId"`
	Recommendations []models.MatchResult `json:"recommendations"`
	Error           string               `json:"error,omitempty"`
}

type Config struct {
	PageSize     int
	StoreTimeout time.Duration
}

type Service struct {
	preferences PreferenceSource
	catalog     CandidateSource
	trust       TrustReader
	matcher     *matching.Engine
	config      Config
	logger      logger.Logger
}

func NewService(prefs PreferenceSource, catalog CandidateSource, trust TrustReader, matcher *matching.Engine, cfg Config, log logger.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = ranking.DefaultLimit
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 2 * time.Second
	}
	return &Service{
		preferences: prefs,
		catalog:     catalog,
		trust:       trust,
		matcher:     matcher,
		config:      cfg,
		logger:      log.WithFields(map[string]interface{}{"component": "recommend"}),
	}
}

// Recommend always returns a Response. The error is non-nil only for
// failures the caller should treat as infrastructure problems; a missing
// profile is reported through the Response alone.
func (s *Service) Recommend(ctx context.Context, req Request) (*Response, error) {
	resp := &Response{
		RequestID:       uuid.NewString(),
		Recommendations: []models.MatchResult{},
	}
	log := s.logger.WithFields(map[string]interface{}{
		"requestId": resp.RequestID,
		"userId":    req.UserID,
	})

	if strings.TrimSpace(req.UserID) == "" {
		resp.Error = ErrorInternal
		return resp, apperrors.NewValidationError("userId", "userId is required")
	}

	pref, err := s.loadPreference(ctx, req.UserID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeProfileMissing) {
			log.Info("No preference profile, onboarding required", nil)
			resp.Error = ErrorProfileMissing
			return resp, nil
		}
		log.WithError(err).Error("Failed to load preference profile", nil)
		resp.Error = ErrorInternal
		return resp, err
	}

	candidates, err := s.catalog.CandidatesFor(pref)
	if err != nil {
		log.WithError(err).Error("Catalog unavailable", nil)
		resp.Error = ErrorCatalogUnavailable
		return resp, apperrors.NewCatalogUnavailableError(err)
	}

	scores, err := s.loadTrust(ctx, candidates)
	if err != nil {
		log.WithError(err).Error("Failed to read trust scores", nil)
		resp.Error = ErrorCatalogUnavailable
		return resp, err
	}

	matches, err := s.matcher.Match(ctx, pref, candidates, scores)
	if err != nil {
		resp.Error = ErrorInternal
		if errors.Is(err, context.DeadlineExceeded) {
			return resp, apperrors.NewStoreTimeoutError("match", err)
		}
		return resp, apperrors.NewInternalError(err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.config.PageSize
	}
	resp.Recommendations = ranking.Rank(matches, limit)
	resp.Success = true

	log.Info("Recommendations generated", map[string]interface{}{
		"candidates": len(candidates),
		"eligible":   len(matches),
		"returned":   len(resp.Recommendations),
	})
	return resp, nil
}

func (s *Service) loadPreference(ctx context.Context, userID string) (models.Preference, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	pref, err := s.preferences.GetPreference(readCtx, userID)
	if err == nil {
		return pref, nil
	}
	if _, ok := apperrors.AsStandard(err); ok {
		return models.Preference{}, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.Preference{}, apperrors.NewStoreTimeoutError("get_preference", err)
	}
	return models.Preference{}, apperrors.NewStoreFailedError("get_preference", err)
}

func (s *Service) loadTrust(ctx context.Context, candidates []models.Service) (map[string]float64, error) {
	if len(candidates) == 0 {
		return map[string]float64{}, nil
	}

	seen := make(map[string]struct{}, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, svc := range candidates {
		if _, dup := seen[svc.MerchantID]; dup {
			continue
		}
		seen[svc.MerchantID] = struct{}{}
		ids = append(ids, svc.MerchantID)
	}
	sort.Strings(ids)

	readCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	scores, err := s.trust.Scores(readCtx, ids)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(readCtx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewStoreTimeoutError("trust_scores", err)
		}
		if _, ok := apperrors.AsStandard(err); ok {
			return nil, err
		}
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	return scores, nil
}
