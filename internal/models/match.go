// internal/models/match.go
package models

// FactorKind identifies a sub-score of the matching model. The declaration
// order is the tie-break order between factors.
type FactorKind int

const (
	FactorOverlap FactorKind = iota
	FactorBudget
	FactorTrust
)

func (k FactorKind) String() string {
	switch k {
	case FactorOverlap:
		return "overlap"
	case FactorBudget:
		return "budget"
	case FactorTrust:
		return "trust"
	default:
		return "unknown"
	}
}

// Factor is one weighted sub-score that contributed to a match.
type Factor struct {
	Kind         FactorKind `json:"kind"`
	SubScore     float64    `json:"subScore"`
	Contribution float64    `json:"contribution"`
	Label        string     `json:"label"`

	// Details used to template explanations.
	MatchedConcerns []string   `json:"matchedConcerns,omitempty"`
	MatchedStyles   []string   `json:"matchedStyles,omitempty"`
	BudgetBand      BudgetBand `json:"budgetBand,omitempty"`
	TrustScore      float64    `json:"trustScore,omitempty"`
}

// MatchResult lives for a single recommendation request.
type MatchResult struct {
	ServiceID       string   `json:"serviceId"`
	MerchantID      string   `json:"merchantId"`
	Score           int      `json:"score"`
	Reasons         []string `json:"reasons"`
	PriceCents      int64    `json:"priceCents"`
	DurationMinutes int      `json:"durationMinutes"`

	TrustScore float64  `json:"-"`
	Factors    []Factor `json:"-"`
}
