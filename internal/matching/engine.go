// Package matching scores catalog services against a preference profile.
package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	minScore = 0.0
	maxScore = 100.0
)

// Engine is stateless across calls apart from its configuration.
type Engine struct {
	config Config
	logger logger.Logger
}

func NewEngine(cfg Config, log logger.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Engine{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "matching-engine"}),
	}
}

// TrustFloor returns the configured eligibility cutoff.
func (e *Engine) TrustFloor() float64 {
	return e.config.TrustFloor
}

// Score computes the integer match score of one service and the factors that
// contributed to it, strongest first.
func (e *Engine) Score(pref models.Preference, svc models.Service, trust float64) (int, []models.Factor) {
	overlap := overlapFactor(pref, svc)
	overlap.Contribution = e.config.OverlapWeight * overlap.SubScore

	budget := models.Factor{
		Kind:       models.FactorBudget,
		SubScore:   BudgetFit(pref.BudgetBand, svc.PriceCents),
		Label:      "budget fit",
		BudgetBand: pref.BudgetBand,
	}
	budget.Contribution = e.config.BudgetWeight * budget.SubScore

	trustSub := clamp(trust)
	trustFactor := models.Factor{
		Kind:       models.FactorTrust,
		SubScore:   trustSub,
		Label:      "merchant trust",
		TrustScore: trustSub,
	}
	trustFactor.Contribution = e.config.TrustWeight * trustSub

	total := overlap.Contribution + budget.Contribution + trustFactor.Contribution
	score := int(clamp(math.Round(total)))

	return score, topFactors([]models.Factor{overlap, budget, trustFactor}, 3)
}

// Match drops services below the trust floor, then scores the remainder
// concurrently. Results keep the candidate order; ranking happens later.
func (e *Engine) Match(ctx context.Context, pref models.Preference, candidates []models.Service, trustScores map[string]float64) ([]models.MatchResult, error) {
	start := time.Now()

	eligible := make([]models.Service, 0, len(candidates))
	var belowFloor, unknownTrust int
	for _, svc := range candidates {
		trust, ok := trustScores[svc.MerchantID]
		switch {
		case !ok:
			unknownTrust++
		case trust < e.config.TrustFloor:
			belowFloor++
		default:
			eligible = append(eligible, svc)
		}
	}

	results := make([]models.MatchResult, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	for i, svc := range eligible {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trust := trustScores[svc.MerchantID]
			score, factors := e.Score(pref, svc, trust)
			results[i] = models.MatchResult{
				ServiceID:       svc.ID,
				MerchantID:      svc.MerchantID,
				Score:           score,
				PriceCents:      svc.PriceCents,
				DurationMinutes: svc.DurationMinutes,
				TrustScore:      trust,
				Factors:         factors,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Debug("Candidates scored", map[string]interface{}{
		"userId":       pref.UserID,
		"candidates":   len(candidates),
		"scored":       len(results),
		"belowFloor":   belowFloor,
		"unknownTrust": unknownTrust,
		"durationMs":   time.Since(start).Milliseconds(),
	})

	return results, nil
}

func overlapFactor(pref models.Preference, svc models.Service) models.Factor {
	f := models.Factor{Kind: models.FactorOverlap, Label: "concern and style overlap"}

	wanted := len(pref.ConcernTags) + len(pref.StyleTags)
	for name := range pref.StyleTags {
		// A tag present in both sets counts once.
		if pref.ConcernTags.Has(name) {
			wanted--
		}
	}
	if wanted == 0 {
		f.SubScore = maxScore
		return f
	}

	have := svc.TagNames()
	for _, name := range pref.ConcernTags.Sorted() {
		if have.Has(name) {
			f.MatchedConcerns = append(f.MatchedConcerns, name)
		}
	}
	for _, name := range pref.StyleTags.Sorted() {
		if have.Has(name) && !pref.ConcernTags.Has(name) {
			f.MatchedStyles = append(f.MatchedStyles, name)
		}
	}

	matched := len(f.MatchedConcerns) + len(f.MatchedStyles)
	f.SubScore = clamp(float64(matched) / float64(wanted) * maxScore)
	return f
}

// BudgetFit is 100 for a price inside the band, bounds inclusive, and falls
// linearly to 0 one band width outside either edge. An unspecified band
// never penalizes.
func BudgetFit(band models.BudgetBand, priceCents int64) float64 {
	if band == models.BudgetUnspecified {
		return maxScore
	}
	low, high, bounded := band.Range()

	var distance int64
	switch {
	case priceCents < low:
		distance = low - priceCents
	case bounded && priceCents > high:
		distance = priceCents - high
	}
	if distance == 0 {
		return maxScore
	}

	fit := maxScore * (1 - float64(distance)/float64(models.BudgetBandWidthCents))
	return clamp(fit)
}

// topFactors orders by contribution, keeping the declaration order of kinds
// on ties, and drops factors that contributed nothing.
func topFactors(factors []models.Factor, n int) []models.Factor {
	sorted := append([]models.Factor(nil), factors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Contribution != sorted[j].Contribution {
			return sorted[i].Contribution > sorted[j].Contribution
		}
		return sorted[i].Kind < sorted[j].Kind
	})

	out := make([]models.Factor, 0, n)
	for _, f := range sorted {
		if len(out) == n {
			break
		}
		if f.Contribution <= 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return minScore
	}
	return math.Max(minScore, math.Min(maxScore, v))
}
