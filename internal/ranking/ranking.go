// Package ranking orders match results and renders their explanations.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"beauty-workers/internal/models"
)

// DefaultLimit is the page size used when the caller gives none.
const DefaultLimit = 6

const (
	highTrustThreshold = 90.0
	trustedThreshold   = 70.0
)

// Rank sorts results by score, then merchant trust, then price, then service
// id, truncates to limit and fills in Reasons for the kept results. The input
// slice is not modified.
func Rank(results []models.MatchResult, limit int) []models.MatchResult {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := make([]models.MatchResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Reasons = Explain(ranked[i].Factors)
	}
	return ranked
}

func less(a, b models.MatchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TrustScore != b.TrustScore {
		return a.TrustScore > b.TrustScore
	}
	if a.PriceCents != b.PriceCents {
		return a.PriceCents < b.PriceCents
	}
	return a.ServiceID < b.ServiceID
}

// Explain templates one reason per factor, keeping the factor order.
func Explain(factors []models.Factor) []string {
	reasons := make([]string, 0, len(factors))
	for _, f := range factors {
		if reason := explainFactor(f); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}

func explainFactor(f models.Factor) string {
	switch f.Kind {
	case models.FactorOverlap:
		return explainOverlap(f)
	case models.FactorBudget:
		return explainBudget(f)
	case models.FactorTrust:
		return explainTrust(f.TrustScore)
	default:
		return ""
	}
}

func explainOverlap(f models.Factor) string {
	switch {
	case len(f.MatchedConcerns) > 0 && len(f.MatchedStyles) > 0:
		return fmt.Sprintf("Matches your %s concerns and %s style",
			joinTags(f.MatchedConcerns), joinTags(f.MatchedStyles))
	case len(f.MatchedConcerns) > 0:
		return fmt.Sprintf("Matches your %s concerns", joinTags(f.MatchedConcerns))
	case len(f.MatchedStyles) > 0:
		return fmt.Sprintf("Matches your %s style", joinTags(f.MatchedStyles))
	default:
		return "Suits any concern or style"
	}
}

func explainBudget(f models.Factor) string {
	if f.BudgetBand == models.BudgetUnspecified {
		return "Fits any budget"
	}
	if f.SubScore >= 100 {
		return fmt.Sprintf("Within your %s budget", f.BudgetBand.Label())
	}
	return fmt.Sprintf("Close to your %s budget", f.BudgetBand.Label())
}

func explainTrust(score float64) string {
	shown := int(math.Round(score))
	switch {
	case score >= highTrustThreshold:
		return fmt.Sprintf("Highly trusted provider (%d/100)", shown)
	case score >= trustedThreshold:
		return fmt.Sprintf("Trusted provider (%d/100)", shown)
	default:
		return fmt.Sprintf("Provider trust score %d/100", shown)
	}
}

// joinTags renders tag names as "dry-hair and damaged-hair" or
// "a, b and c".
func joinTags(tags []string) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = strings.ReplaceAll(t, "_", "-")
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
