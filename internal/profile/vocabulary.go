package profile

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"beauty-workers/internal/models"
)

// Vocabulary lists the tag names accepted for each tag category.
type Vocabulary map[models.TagCategory]models.TagSet

// DefaultVocabulary is the tag catalog used by the onboarding questionnaire.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		models.CategoryHairConcern: models.NewTagSet(
			"dry_hair", "damaged_hair", "frizzy_hair", "thinning_hair",
			"oily_scalp", "color_treated", "curly_hair", "split_ends",
		),
		models.CategoryFacialConcern: models.NewTagSet(
			"acne", "aging", "dryness", "sensitivity",
			"hyperpigmentation", "dullness", "large_pores", "redness",
		),
		models.CategoryStylePreference: models.NewTagSet(
			"natural", "bold", "classic", "trendy",
			"low_maintenance", "glamorous", "minimalist",
		),
	}
}

// Tags flattens the vocabulary into Tag values.
func (v Vocabulary) Tags() []models.Tag {
	var out []models.Tag
	for _, category := range []models.TagCategory{
		models.CategoryHairConcern, models.CategoryFacialConcern, models.CategoryStylePreference,
	} {
		for _, name := range v[category].Sorted() {
			out = append(out, models.Tag{Name: name, Category: category})
		}
	}
	return out
}

var focusAliases = map[string]models.ServiceTypeFocus{
	"hair":             models.FocusHair,
	"haircare":         models.FocusHair,
	"facial":           models.FocusFacial,
	"facials":          models.FocusFacial,
	"skin":             models.FocusFacial,
	"skincare":         models.FocusFacial,
	"brows_lashes":     models.FocusBrowsLashes,
	"brows_and_lashes": models.FocusBrowsLashes,
	"brows":            models.FocusBrowsLashes,
	"lashes":           models.FocusBrowsLashes,
	"multiple":         models.FocusMultiple,
	"all":              models.FocusMultiple,
	"everything":       models.FocusMultiple,
}

var frequencyAliases = map[string]models.Frequency{
	"weekly":          models.FrequencyWeekly,
	"every_week":      models.FrequencyWeekly,
	"biweekly":        models.FrequencyBiweekly,
	"bi_weekly":       models.FrequencyBiweekly,
	"every_two_weeks": models.FrequencyBiweekly,
	"monthly":         models.FrequencyMonthly,
	"every_month":     models.FrequencyMonthly,
	"quarterly":       models.FrequencyQuarterly,
	"every_3_months":  models.FrequencyQuarterly,
	"occasionally":    models.FrequencyOccasionally,
	"rarely":          models.FrequencyOccasionally,
	"special_events":  models.FrequencyOccasionally,
}

var lifestyleAliases = map[string]models.Lifestyle{
	"busy_professional": models.LifestyleBusy,
	"busy":              models.LifestyleBusy,
	"professional":      models.LifestyleBusy,
	"active":            models.LifestyleActive,
	"athletic":          models.LifestyleActive,
	"student":           models.LifestyleStudent,
	"parent":            models.LifestyleParent,
	"busy_parent":       models.LifestyleParent,
	"relaxed":           models.LifestyleRelaxed,
	"laid_back":         models.LifestyleRelaxed,
}

var sensitivityAliases = map[string]models.HardSellSensitivity{
	"not_at_all": models.SensitivityNone,
	"mild":       models.SensitivityLow,
	"slightly":   models.SensitivityLow,
	"somewhat":   models.SensitivityModerate,
	"very":       models.SensitivityHigh,
	"extremely":  models.SensitivityExtreme,
}

var budgetAliases = map[string]models.BudgetBand{
	"<50":         models.BudgetUnder50,
	"under50":     models.BudgetUnder50,
	"lessthan50":  models.BudgetUnder50,
	"0-50":        models.BudgetUnder50,
	"50-100":      models.Budget50To100,
	"50to100":     models.Budget50To100,
	"100-150":     models.Budget100To150,
	"100to150":    models.Budget100To150,
	"150-200":     models.Budget150To200,
	"150to200":    models.Budget150To200,
	">200":        models.BudgetOver200,
	"200+":        models.BudgetOver200,
	"over200":     models.BudgetOver200,
	"200plus":     models.BudgetOver200,
	"morethan200": models.BudgetOver200,
}

// normalizeToken lowercases s and collapses every run of characters other
// than letters and digits into a single underscore.
func normalizeToken(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ParseBudget maps a bucket id or free-text amount onto a BudgetBand.
// Free-text dollar amounts use half-open bands, so "$100" lands in 100-150.
func ParseBudget(raw string) (models.BudgetBand, bool) {
	compact := strings.ToLower(strings.TrimSpace(raw))
	for _, cut := range []string{"$", " ", "_", ",", "usd", "dollars"} {
		compact = strings.ReplaceAll(compact, cut, "")
	}
	compact = strings.ReplaceAll(compact, "–", "-")
	if compact == "" {
		return models.BudgetUnspecified, false
	}
	if band, ok := budgetAliases[compact]; ok {
		return band, true
	}

	if lo, hi, found := strings.Cut(compact, "-"); found {
		low, errLo := strconv.ParseFloat(lo, 64)
		high, errHi := strconv.ParseFloat(hi, 64)
		if errLo != nil || errHi != nil || !finite(low) || !finite(high) || high < low {
			return models.BudgetUnspecified, false
		}
		return bandForDollars((low + high) / 2), true
	}

	amount, err := strconv.ParseFloat(strings.TrimSuffix(compact, "+"), 64)
	if err != nil || !finite(amount) || amount < 0 {
		return models.BudgetUnspecified, false
	}
	if strings.HasSuffix(compact, "+") && amount >= 200 {
		return models.BudgetOver200, true
	}
	return bandForDollars(amount), true
}

// finite rejects the "nan" and "inf" spellings ParseFloat accepts.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func bandForDollars(amount float64) models.BudgetBand {
	switch {
	case amount < 50:
		return models.BudgetUnder50
	case amount < 100:
		return models.Budget50To100
	case amount < 150:
		return models.Budget100To150
	case amount < 200:
		return models.Budget150To200
	default:
		return models.BudgetOver200
	}
}
