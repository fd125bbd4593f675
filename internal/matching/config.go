package matching

import (
	"fmt"
	"math"

	"beauty-workers/internal/common/config"
)

// Config holds the weighted linear model parameters.
type Config struct {
	OverlapWeight float64
	BudgetWeight  float64
	TrustWeight   float64
	TrustFloor    float64
	Workers       int
}

// DefaultConfig returns the production weights: 0.5 overlap, 0.25 budget,
// 0.25 trust, with a trust floor of 50.
func DefaultConfig() Config {
	return Config{
		OverlapWeight: 0.5,
		BudgetWeight:  0.25,
		TrustWeight:   0.25,
		TrustFloor:    50,
		Workers:       8,
	}
}

// ConfigFrom maps the matching section of the application config.
func ConfigFrom(cfg config.MatchingConfig) Config {
	out := Config{
		OverlapWeight: cfg.OverlapWeight,
		BudgetWeight:  cfg.BudgetWeight,
		TrustWeight:   cfg.TrustWeight,
		TrustFloor:    cfg.TrustFloor,
		Workers:       cfg.ScoringWorkers,
	}
	if out.Workers <= 0 {
		out.Workers = DefaultConfig().Workers
	}
	return out
}

// Validate checks the weights form a convex combination.
func (c Config) Validate() error {
	if c.OverlapWeight < 0 || c.BudgetWeight < 0 || c.TrustWeight < 0 {
		return fmt.Errorf("matching weights must not be negative")
	}
	if sum := c.OverlapWeight + c.BudgetWeight + c.TrustWeight; math.Abs(sum-1) > 0.001 {
		return fmt.Errorf("matching weights must sum to 1, got %.3f", sum)
	}
	if c.TrustFloor < 0 || c.TrustFloor > 100 {
		return fmt.Errorf("trust floor must be within [0,100], got %.1f", c.TrustFloor)
	}
	return nil
}
