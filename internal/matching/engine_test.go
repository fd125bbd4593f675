package matching

import (
	"context"
	"fmt"
	"testing"

	"beauty-workers/internal/common/config"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(DefaultConfig(), logger.NewTestLogger(t))
}

func dryHairPreference() models.Preference {
	return models.Preference{
		UserID:           "user-1",
		ServiceTypeFocus: models.FocusHair,
		ConcernTags:      models.NewTagSet("dry_hair", "damaged_hair"),
		StyleTags:        models.NewTagSet(),
		BudgetBand:       models.Budget50To100,
	}
}

func service(id, merchantID string, price int64, tags ...string) models.Service {
	svc := models.Service{
		ID:              id,
		MerchantID:      merchantID,
		PriceCents:      price,
		DurationMinutes: 60,
		Category:        models.ServiceCategoryHair,
	}
	for _, tag := range tags {
		svc.Tags = append(svc.Tags, models.Tag{Name: tag, Category: models.CategoryHairConcern})
	}
	return svc
}

// ==========================
// Score
// ==========================

func TestScore_FullMatch(t *testing.T) {
	e := newTestEngine(t)

	score, factors := e.Score(dryHairPreference(), service("A", "m1", 8500, "dry_hair", "damaged_hair"), 96)

	assert.Equal(t, 99, score)
	require.Len(t, factors, 3)
	assert.Equal(t, models.FactorOverlap, factors[0].Kind)
	assert.Equal(t, []string{"damaged_hair", "dry_hair"}, factors[0].MatchedConcerns)
	assert.Equal(t, models.FactorBudget, factors[1].Kind)
	assert.Equal(t, models.FactorTrust, factors[2].Kind)
}

func TestScore_NoOverlapBoundaryPrice(t *testing.T) {
	e := newTestEngine(t)

	score, factors := e.Score(dryHairPreference(), service("B", "m2", 10000, "acne"), 80)

	assert.Equal(t, 45, score)
	require.Len(t, factors, 2, "zero overlap contribution is omitted")
	assert.Equal(t, models.FactorBudget, factors[0].Kind)
	assert.Equal(t, models.FactorTrust, factors[1].Kind)
}

func TestScore_NoPreferenceTagsMeansFullOverlap(t *testing.T) {
	e := newTestEngine(t)
	pref := models.Preference{BudgetBand: models.BudgetUnspecified}

	score, factors := e.Score(pref, service("C", "m1", 30000), 100)

	assert.Equal(t, 100, score)
	require.NotEmpty(t, factors)
	assert.Equal(t, models.FactorOverlap, factors[0].Kind)
	assert.Equal(t, 100.0, factors[0].SubScore)
}

func TestScore_ServiceWithoutTagsStillRanks(t *testing.T) {
	e := newTestEngine(t)

	score, _ := e.Score(dryHairPreference(), service("D", "m1", 7000), 100)

	assert.Equal(t, 50, score)
}

func TestScore_StyleAndConcernCountedOnce(t *testing.T) {
	e := newTestEngine(t)
	pref := models.Preference{
		ConcernTags: models.NewTagSet("dry_hair"),
		StyleTags:   models.NewTagSet("natural", "dry_hair"),
	}
	svc := service("E", "m1", 0, "dry_hair")
	svc.Tags = append(svc.Tags, models.Tag{Name: "natural", Category: models.CategoryStylePreference})

	_, factors := e.Score(pref, svc, 100)

	require.NotEmpty(t, factors)
	assert.Equal(t, 100.0, factors[0].SubScore)
	assert.Equal(t, []string{"dry_hair"}, factors[0].MatchedConcerns)
	assert.Equal(t, []string{"natural"}, factors[0].MatchedStyles)
}

func TestScore_TieBreakFollowsFactorOrder(t *testing.T) {
	e := newTestEngine(t)
	pref := models.Preference{
		ConcernTags: models.NewTagSet("dry_hair", "damaged_hair"),
		BudgetBand:  models.Budget50To100,
	}

	// overlap 50*0.5 = 25, budget 100*0.25 = 25, trust 100*0.25 = 25
	_, factors := e.Score(pref, service("F", "m1", 6000, "dry_hair"), 100)

	require.Len(t, factors, 3)
	assert.Equal(t, models.FactorOverlap, factors[0].Kind)
	assert.Equal(t, models.FactorBudget, factors[1].Kind)
	assert.Equal(t, models.FactorTrust, factors[2].Kind)
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	e := newTestEngine(t)
	prefs := []models.Preference{
		dryHairPreference(),
		{},
		{ConcernTags: models.NewTagSet("acne"), BudgetBand: models.BudgetOver200},
		{StyleTags: models.NewTagSet("bold"), BudgetBand: models.BudgetUnder50},
	}
	prices := []int64{0, 2500, 5000, 9999, 15000, 25000, 1000000}
	trusts := []float64{-20, 0, 49.9, 50, 75.5, 100, 140}

	for _, pref := range prefs {
		for _, price := range prices {
			for _, trust := range trusts {
				score, _ := e.Score(pref, service("G", "m1", price, "acne", "dry_hair"), trust)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	}
}

// ==========================
// Budget fit
// ==========================

func TestBudgetFit(t *testing.T) {
	tests := []struct {
		name  string
		band  models.BudgetBand
		price int64
		want  float64
	}{
		{"inside", models.Budget50To100, 7500, 100},
		{"lower bound inclusive", models.Budget50To100, 5000, 100},
		{"upper bound inclusive", models.Budget50To100, 10000, 100},
		{"half band above", models.Budget50To100, 12500, 50},
		{"half band below", models.Budget50To100, 2500, 50},
		{"full band above", models.Budget50To100, 15000, 0},
		{"far above", models.Budget50To100, 90000, 0},
		{"open top band", models.BudgetOver200, 500000, 100},
		{"below open top band", models.BudgetOver200, 17500, 50},
		{"unspecified", models.BudgetUnspecified, 123456, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BudgetFit(tt.band, tt.price), 0.0001)
		})
	}
}

func TestBudgetFit_MonotonicOutsideBand(t *testing.T) {
	e := newTestEngine(t)
	pref := dryHairPreference()

	prev := 101
	for price := int64(10000); price <= 30000; price += 250 {
		score, _ := e.Score(pref, service("H", "m1", price, "dry_hair"), 80)
		assert.LessOrEqual(t, score, prev, "price %d", price)
		prev = score
	}

	prev = 101
	for price := int64(5000); price >= 0; price -= 250 {
		score, _ := e.Score(pref, service("H", "m1", price, "dry_hair"), 80)
		assert.LessOrEqual(t, score, prev, "price %d", price)
		prev = score
	}
}

// ==========================
// Match
// ==========================

func TestMatch_ExcludesBelowFloorAndUnknownTrust(t *testing.T) {
	e := newTestEngine(t)
	candidates := []models.Service{
		service("s1", "trusted", 8000, "dry_hair"),
		service("s2", "pushy", 8000, "dry_hair", "damaged_hair"),
		service("s3", "unknown", 8000, "dry_hair"),
		service("s4", "edge", 8000),
	}
	trust := map[string]float64{"trusted": 95, "pushy": 40, "edge": 50}

	results, err := e.Match(context.Background(), dryHairPreference(), candidates, trust)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "s1", results[0].ServiceID)
	assert.Equal(t, "s4", results[1].ServiceID)
	assert.Equal(t, 95.0, results[0].TrustScore)
	for _, r := range results {
		assert.NotEqual(t, "pushy", r.MerchantID)
	}
}

func TestMatch_ManyCandidatesDeterministic(t *testing.T) {
	e := NewEngine(Config{OverlapWeight: 0.5, BudgetWeight: 0.25, TrustWeight: 0.25, TrustFloor: 50, Workers: 4}, logger.NewNoOpLogger())
	var candidates []models.Service
	trust := map[string]float64{}
	for i := 0; i < 200; i++ {
		merchant := fmt.Sprintf("m%d", i%10)
		trust[merchant] = float64(50 + i%10*5)
		candidates = append(candidates, service(fmt.Sprintf("s%03d", i), merchant, int64(i*100), "dry_hair"))
	}

	first, err := e.Match(context.Background(), dryHairPreference(), candidates, trust)
	require.NoError(t, err)
	second, err := e.Match(context.Background(), dryHairPreference(), candidates, trust)
	require.NoError(t, err)

	require.Len(t, first, 200)
	assert.Equal(t, first, second)
}

func TestMatch_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Match(ctx, dryHairPreference(), []models.Service{service("s1", "m1", 8000)}, map[string]float64{"m1": 90})

	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Config
// ==========================

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.MatchingConfig{
		OverlapWeight: 0.6,
		BudgetWeight:  0.2,
		TrustWeight:   0.2,
		TrustFloor:    60,
	})

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 60.0, cfg.TrustFloor)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	bad := DefaultConfig()
	bad.TrustWeight = 0.5
	assert.Error(t, bad.Validate())

	neg := DefaultConfig()
	neg.OverlapWeight = -0.5
	neg.BudgetWeight = 1.25
	assert.Error(t, neg.Validate())

	floor := DefaultConfig()
	floor.TrustFloor = 101
	assert.Error(t, floor.Validate())
}
