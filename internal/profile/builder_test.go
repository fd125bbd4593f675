package profile

import (
	"testing"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestBuilder(t *testing.T) *Builder {
	return NewBuilder(nil, logger.NewTestLogger(t))
}

// ==========================
// Build
// ==========================

func TestBuild_HairFocusPrunesFacialAnswers(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-1", map[string]any{
		"service_type":      "hair",
		"hair_concerns":     []any{"dry_hair", "frizzy hair"},
		"facial_concerns":   []any{"acne"},
		"style_preferences": "natural, low-maintenance",
		"budget":            "50-100",
	})

	require.NoError(t, err)
	assert.Equal(t, models.FocusHair, pref.ServiceTypeFocus)
	assert.Equal(t, []string{"dry_hair", "frizzy_hair"}, pref.ConcernTags.Sorted())
	assert.False(t, pref.ConcernTags.Has("acne"), "facial concern must be pruned for hair focus")
	assert.Equal(t, []string{"low_maintenance", "natural"}, pref.StyleTags.Sorted())
	assert.Equal(t, models.Budget50To100, pref.BudgetBand)
	assert.Equal(t, "user-1", pref.UserID)
	assert.True(t, pref.SubmittedAt.IsZero(), "submission time is stamped on save")
}

func TestBuild_Deterministic(t *testing.T) {
	b := newTestBuilder(t)

	first, err := b.Build("user-1", map[string]any{
		"service_type":          "multiple",
		"hair_concerns":         []any{"dry_hair", "damaged_hair"},
		"facial_concerns":       "acne, redness",
		"style_preferences":     []any{"natural", "bold"},
		"budget":                "$120",
		"hard_sell_sensitivity": "high",
	})
	require.NoError(t, err)

	second, err := b.Build("user-1", map[string]any{
		"hard_sell_sensitivity": "high",
		"budget":                "$120",
		"style_preferences":     []any{"bold", "natural"},
		"facial_concerns":       "redness, acne",
		"hair_concerns":         []any{"damaged_hair", "dry_hair"},
		"service_type":          "multiple",
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_MultipleFocusKeepsBothConcernSets(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-2", map[string]any{
		"service_type":    "Multiple",
		"hair_concerns":   []string{"split_ends"},
		"facial_concerns": []string{"aging", "redness"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.FocusMultiple, pref.ServiceTypeFocus)
	assert.Equal(t, []string{"aging", "redness", "split_ends"}, pref.ConcernTags.Sorted())
}

func TestBuild_UnansweredParentKeepsChildVisible(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-3", map[string]any{
		"hair_concerns":   []any{"oily_scalp"},
		"facial_concerns": []any{"acne"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.FocusUnspecified, pref.ServiceTypeFocus)
	assert.Equal(t, []string{"acne", "oily_scalp"}, pref.ConcernTags.Sorted())
}

func TestBuild_EmptyAnswersYieldUnspecifiedProfile(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-4", map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, models.FocusUnspecified, pref.ServiceTypeFocus)
	assert.Empty(t, pref.ConcernTags)
	assert.Empty(t, pref.StyleTags)
	assert.Equal(t, models.BudgetUnspecified, pref.BudgetBand)
	assert.Equal(t, models.FrequencyUnspecified, pref.Frequency)
	assert.Equal(t, models.LifestyleUnspecified, pref.Lifestyle)
	assert.Equal(t, models.SensitivityUnspecified, pref.HardSellSensitivity)
}

func TestBuild_UnknownTagsDropped(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-5", map[string]any{
		"service_type":      "facial",
		"facial_concerns":   []any{"acne", "glitter_skin", 42},
		"style_preferences": []any{"bold", "neon"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"acne"}, pref.ConcernTags.Sorted())
	assert.Equal(t, []string{"bold"}, pref.StyleTags.Sorted())
}

func TestBuild_ScalarAnswers(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-6", map[string]any{
		"frequency":             "Every two weeks",
		"lifestyle":             "busy professional",
		"hard_sell_sensitivity": "high",
		"budget":                "$75",
	})

	require.NoError(t, err)
	assert.Equal(t, models.FrequencyBiweekly, pref.Frequency)
	assert.Equal(t, models.LifestyleBusy, pref.Lifestyle)
	assert.Equal(t, models.SensitivityHigh, pref.HardSellSensitivity)
	assert.Equal(t, models.Budget50To100, pref.BudgetBand)
}

func TestBuild_MalformedOptionalFieldsDropped(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-7", map[string]any{
		"service_type":          "hair",
		"hair_concerns":         map[string]any{"x": 1},
		"budget":                true,
		"frequency":             12,
		"hard_sell_sensitivity": "whatever",
	})

	require.NoError(t, err)
	assert.Empty(t, pref.ConcernTags)
	assert.Equal(t, models.BudgetUnspecified, pref.BudgetBand)
	assert.Equal(t, models.FrequencyUnspecified, pref.Frequency)
	assert.Equal(t, models.SensitivityUnspecified, pref.HardSellSensitivity)
}

func TestBuild_ServiceTypeWrongTypeRejected(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build("user-8", map[string]any{"service_type": []any{"hair"}})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestBuild_MissingUserIDRejected(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build("  ", map[string]any{"service_type": "hair"})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestBuild_UnknownServiceTypeIsUnspecified(t *testing.T) {
	b := newTestBuilder(t)

	pref, err := b.Build("user-9", map[string]any{
		"service_type":  "nails",
		"hair_concerns": []any{"dry_hair"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.FocusUnspecified, pref.ServiceTypeFocus)
	// An unrecognized parent value still hides the branch.
	assert.Empty(t, pref.ConcernTags)
}

// ==========================
// Questionnaire
// ==========================

func TestVisibleQuestions(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]any
		visible []string
		hidden  []string
	}{
		{
			name:    "no answers",
			answers: map[string]any{},
			visible: []string{QuestionHairConcerns, QuestionFacialConcerns, QuestionBudget},
		},
		{
			name:    "hair",
			answers: map[string]any{"service_type": "hair"},
			visible: []string{QuestionHairConcerns, QuestionStylePreferences},
			hidden:  []string{QuestionFacialConcerns},
		},
		{
			name:    "facial alias",
			answers: map[string]any{"service_type": "Skincare"},
			visible: []string{QuestionFacialConcerns},
			hidden:  []string{QuestionHairConcerns},
		},
		{
			name:    "brows and lashes",
			answers: map[string]any{"service_type": "Brows & Lashes"},
			visible: []string{QuestionBudget},
			hidden:  []string{QuestionHairConcerns, QuestionFacialConcerns},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, id := range tt.visible {
				assert.True(t, IsVisible(Questionnaire, tt.answers, id), id)
			}
			for _, id := range tt.hidden {
				assert.False(t, IsVisible(Questionnaire, tt.answers, id), id)
			}
		})
	}
}

func TestVisibleQuestions_HiddenParentHidesChild(t *testing.T) {
	questions := []Question{
		{ID: "a"},
		{ID: "b", DependsOn: &Dependency{QuestionID: "a", AllowedValues: []string{"yes"}}},
		{ID: "c", DependsOn: &Dependency{QuestionID: "b", AllowedValues: []string{"yes"}}},
	}

	visible := VisibleQuestions(questions, map[string]any{"a": "no"})

	require.Len(t, visible, 1)
	assert.Equal(t, "a", visible[0].ID)
}

// ==========================
// Budget parsing
// ==========================

func TestParseBudget(t *testing.T) {
	tests := []struct {
		raw  string
		want models.BudgetBand
		ok   bool
	}{
		{"<50", models.BudgetUnder50, true},
		{"under $50", models.BudgetUnder50, true},
		{"50-100", models.Budget50To100, true},
		{"$100 – $150", models.Budget100To150, true},
		{"150-200", models.Budget150To200, true},
		{"200+", models.BudgetOver200, true},
		{">200", models.BudgetOver200, true},
		{"$75", models.Budget50To100, true},
		{"100", models.Budget100To150, true},
		{"$1,000", models.BudgetOver200, true},
		{"60-80", models.Budget50To100, true},
		{"", models.BudgetUnspecified, false},
		{"cheap", models.BudgetUnspecified, false},
		{"100-50", models.BudgetUnspecified, false},
		{"nan", models.BudgetUnspecified, false},
		{"inf", models.BudgetUnspecified, false},
		{"Infinity", models.BudgetUnspecified, false},
		{"50-inf", models.BudgetUnspecified, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseBudget(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "dry_hair", normalizeToken("  Dry Hair "))
	assert.Equal(t, "low_maintenance", normalizeToken("low-maintenance"))
	assert.Equal(t, "brows_lashes", normalizeToken("Brows & Lashes"))
	assert.Equal(t, "", normalizeToken(" -- "))
}

func TestDefaultVocabulary_Tags(t *testing.T) {
	tags := DefaultVocabulary().Tags()

	seen := make(map[models.Tag]bool)
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %v", tag)
		seen[tag] = true
	}
	assert.True(t, seen[models.Tag{Name: "acne", Category: models.CategoryFacialConcern}])
	assert.True(t, seen[models.Tag{Name: "natural", Category: models.CategoryStylePreference}])
}
