// Package trust maintains the bounded, idempotent merchant trust score.
package trust

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"beauty-workers/internal/common/config"
	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/models"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Config holds the delta rules and the retry policy for conflicting commits.
type Config struct {
	BaseScore      float64
	RatingDeltas   map[int]float64
	HardSellDelta  float64
	Floor          float64
	MaxAttempts    int
	InitialBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseScore:      100,
		RatingDeltas:   map[int]float64{5: 5},
		HardSellDelta:  -10,
		Floor:          50,
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
	}
}

// ConfigFrom maps the trust section of the application config. The floor is
// shared with matching so that notifications fire on the same boundary that
// excludes services.
func ConfigFrom(cfg config.TrustConfig, floor float64) Config {
	deltas := make(map[int]float64, len(cfg.RatingDeltas))
	for rating, delta := range cfg.RatingDeltas {
		deltas[rating] = delta
	}
	return Config{
		BaseScore:      cfg.BaseScore,
		RatingDeltas:   deltas,
		HardSellDelta:  cfg.HardSellDelta,
		Floor:          floor,
		MaxAttempts:    cfg.MaxRetries,
		InitialBackoff: time.Duration(cfg.InitialBackoff) * time.Millisecond,
	}
}

// Outcome describes the effect of one event application.
type Outcome struct {
	MerchantID    string
	PreviousScore float64
	Score         float64
	Applied       bool
}

// Engine applies trust events through a Store.
type Engine struct {
	store    Store
	notifier Notifier
	config   Config
	logger   logger.Logger
}

// NewEngine wires the engine. A nil notifier disables floor-crossing alerts.
func NewEngine(store Store, notifier Notifier, cfg Config, log logger.Logger) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		config:   cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "trust-engine"}),
	}
}

// Register creates the merchant at the base score. Registering an existing
// merchant leaves its score untouched.
func (e *Engine) Register(ctx context.Context, merchantID string) (float64, error) {
	if strings.TrimSpace(merchantID) == "" {
		return 0, apperrors.NewValidationError("merchantId", "merchantId is required")
	}
	created, err := e.store.Register(ctx, merchantID, clamp(e.config.BaseScore))
	if err != nil {
		return 0, storeError("register", err)
	}
	if created {
		e.logger.Info("Merchant registered", map[string]interface{}{
			"merchantId": merchantID,
			"trustScore": e.config.BaseScore,
		})
	}
	return e.Score(ctx, merchantID)
}

// Score returns the current score of a registered merchant.
func (e *Engine) Score(ctx context.Context, merchantID string) (float64, error) {
	state, err := e.store.Load(ctx, merchantID)
	if err != nil {
		if errors.Is(err, ErrMerchantNotFound) {
			return 0, apperrors.NewMerchantNotFoundError(merchantID)
		}
		return 0, storeError("load", err)
	}
	return state.Score, nil
}

// Scores returns the scores of the known merchants among ids. Unknown ids are
// absent from the result.
func (e *Engine) Scores(ctx context.Context, merchantIDs []string) (map[string]float64, error) {
	scores, err := e.store.Scores(ctx, merchantIDs)
	if err != nil {
		return nil, storeError("scores", err)
	}
	return scores, nil
}

// Apply applies an event and returns the merchant's resulting score.
func (e *Engine) Apply(ctx context.Context, event models.TrustEvent) (float64, error) {
	outcome, err := e.ApplyEvent(ctx, event)
	if err != nil {
		return 0, err
	}
	return outcome.Score, nil
}

// ApplyEvent applies an event at most once per merchant. A conflicting commit
// is retried with exponential backoff up to MaxAttempts attempts in total.
func (e *Engine) ApplyEvent(ctx context.Context, event models.TrustEvent) (Outcome, error) {
	if event == nil {
		return Outcome{}, apperrors.NewInvalidInputError("trust event is required")
	}
	delta, err := e.Delta(event)
	if err != nil {
		return Outcome{}, err
	}

	merchantID := event.Merchant()
	log := e.logger.WithFields(map[string]interface{}{
		"merchantId": merchantID,
		"eventId":    event.EventID(),
		"eventType":  string(event.Type()),
	})

	var lastErr error
	for attempt := 0; attempt < e.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := e.backoff(ctx, attempt); err != nil {
				return Outcome{}, apperrors.NewStoreTimeoutError("apply", err)
			}
		}

		outcome, err := e.tryApply(ctx, merchantID, event.EventID(), delta)
		if err == nil {
			if outcome.Applied {
				log.Info("Trust event applied", map[string]interface{}{
					"previousScore": outcome.PreviousScore,
					"trustScore":    outcome.Score,
					"attempt":       attempt + 1,
				})
				e.notifyCrossing(ctx, log, event, outcome)
			} else {
				log.Debug("Duplicate trust event ignored", map[string]interface{}{
					"trustScore": outcome.Score,
				})
			}
			return outcome, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Outcome{}, err
		}

		lastErr = err
		log.Warn("Trust commit conflict, retrying", map[string]interface{}{
			"attempt": attempt + 1,
		})
	}

	return Outcome{}, apperrors.NewConcurrencyConflictError(merchantID, e.config.MaxAttempts, lastErr)
}

func (e *Engine) tryApply(ctx context.Context, merchantID, eventID string, delta float64) (Outcome, error) {
	state, err := e.store.Load(ctx, merchantID)
	if err != nil {
		if errors.Is(err, ErrMerchantNotFound) {
			return Outcome{}, apperrors.NewMerchantNotFoundError(merchantID)
		}
		return Outcome{}, storeError("load", err)
	}

	applied, err := e.store.Applied(ctx, merchantID, eventID)
	if err != nil {
		return Outcome{}, storeError("applied", err)
	}
	if applied {
		return Outcome{MerchantID: merchantID, PreviousScore: state.Score, Score: state.Score}, nil
	}

	next := clamp(state.Score + delta)
	if err := e.store.Commit(ctx, merchantID, state.Version, next, eventID); err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			return Outcome{}, ErrConflict
		case errors.Is(err, ErrMerchantNotFound):
			return Outcome{}, apperrors.NewMerchantNotFoundError(merchantID)
		default:
			return Outcome{}, storeError("commit", err)
		}
	}

	return Outcome{MerchantID: merchantID, PreviousScore: state.Score, Score: next, Applied: true}, nil
}

// Delta returns the score adjustment of an event, validating its fields.
func (e *Engine) Delta(event models.TrustEvent) (float64, error) {
	if strings.TrimSpace(event.EventID()) == "" {
		return 0, apperrors.NewValidationError("id", "event id is required")
	}
	if strings.TrimSpace(event.Merchant()) == "" {
		return 0, apperrors.NewValidationError("merchantId", "merchantId is required")
	}

	switch ev := event.(type) {
	case models.ReviewEvent:
		return e.reviewDelta(ev.Rating)
	case *models.ReviewEvent:
		return e.reviewDelta(ev.Rating)
	case models.HardSellReportEvent, *models.HardSellReportEvent:
		return e.config.HardSellDelta, nil
	default:
		return 0, apperrors.NewValidationError("type", fmt.Sprintf("unsupported trust event type %q", event.Type()))
	}
}

func (e *Engine) reviewDelta(rating int) (float64, error) {
	if rating < 1 || rating > 5 {
		return 0, apperrors.NewValidationError("rating", fmt.Sprintf("rating must be within 1..5, got %d", rating))
	}
	return e.config.RatingDeltas[rating], nil
}

func (e *Engine) backoff(ctx context.Context, attempt int) error {
	delay := e.config.InitialBackoff * time.Duration(1<<(attempt-1))
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) notifyCrossing(ctx context.Context, log logger.Logger, event models.TrustEvent, outcome Outcome) {
	floor := e.config.Floor
	wasEligible := outcome.PreviousScore >= floor
	isEligible := outcome.Score >= floor
	if wasEligible == isEligible {
		return
	}

	crossing := FloorCrossing{
		MerchantID:    outcome.MerchantID,
		EventID:       event.EventID(),
		PreviousScore: Display(outcome.PreviousScore),
		Score:         Display(outcome.Score),
		Floor:         floor,
		Direction:     DirectionBelow,
	}
	if isEligible {
		crossing.Direction = DirectionAbove
	}

	if err := e.notifier.NotifyFloorCrossed(ctx, crossing); err != nil {
		log.WithError(err).Error("Trust floor notification failed", map[string]interface{}{
			"direction": string(crossing.Direction),
		})
	}
}

// Display rounds a score to one decimal for presentation.
func Display(score float64) float64 {
	return math.Round(score*10) / 10
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewStoreTimeoutError(op, err)
	}
	return apperrors.NewStoreFailedError(op, err)
}
