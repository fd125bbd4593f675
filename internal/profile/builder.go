// Package profile turns raw onboarding answers into a canonical Preference.
package profile

import (
	"fmt"
	"strings"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/models"
)

// Builder normalizes questionnaire answers. It holds no per-user state and is
// safe for concurrent use.
type Builder struct {
	questions  []Question
	vocabulary Vocabulary
	logger     logger.Logger
}

// NewBuilder creates a Builder over the default questionnaire.
func NewBuilder(vocabulary Vocabulary, log logger.Logger) *Builder {
	if vocabulary == nil {
		vocabulary = DefaultVocabulary()
	}
	return &Builder{
		questions:  Questionnaire,
		vocabulary: vocabulary,
		logger:     log.WithFields(map[string]interface{}{"component": "profile-builder"}),
	}
}

// Build derives a Preference from one submission. The same answers always
// yield the same Preference; SubmittedAt is left zero for the store to stamp.
// Answers to hidden questions and unknown tags are dropped with a warning.
// Only a service_type answer of the wrong type is rejected, since visibility
// of the rest depends on it.
func (b *Builder) Build(userID string, answers map[string]any) (models.Preference, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Preference{}, apperrors.NewValidationError("userId", "userId is required")
	}

	pref := models.Preference{
		UserID:              userID,
		ServiceTypeFocus:    models.FocusUnspecified,
		ConcernTags:         models.NewTagSet(),
		StyleTags:           models.NewTagSet(),
		BudgetBand:          models.BudgetUnspecified,
		Frequency:           models.FrequencyUnspecified,
		Lifestyle:           models.LifestyleUnspecified,
		HardSellSensitivity: models.SensitivityUnspecified,
	}

	focus, err := b.parseFocus(answers[QuestionServiceType])
	if err != nil {
		return models.Preference{}, err
	}
	pref.ServiceTypeFocus = focus

	visible := make(map[string]bool, len(b.questions))
	for _, q := range VisibleQuestions(b.questions, answers) {
		visible[q.ID] = true
	}
	for id := range answers {
		if !visible[id] {
			b.logger.Warn("Dropping answer to hidden or unknown question", map[string]interface{}{
				"userId":     userID,
				"questionId": id,
			})
		}
	}

	if visible[QuestionHairConcerns] {
		b.addTags(pref.ConcernTags, QuestionHairConcerns, answers[QuestionHairConcerns], models.CategoryHairConcern)
	}
	if visible[QuestionFacialConcerns] {
		b.addTags(pref.ConcernTags, QuestionFacialConcerns, answers[QuestionFacialConcerns], models.CategoryFacialConcern)
	}
	b.addTags(pref.StyleTags, QuestionStylePreferences, answers[QuestionStylePreferences], models.CategoryStylePreference)

	pref.BudgetBand = b.parseBudget(answers[QuestionBudget])

	if value, ok := b.scalar(QuestionFrequency, answers[QuestionFrequency]); ok {
		if freq, known := frequencyAliases[value]; known {
			pref.Frequency = freq
		} else {
			b.warnUnknown(QuestionFrequency, value)
		}
	}

	if value, ok := b.scalar(QuestionLifestyle, answers[QuestionLifestyle]); ok {
		if style, known := lifestyleAliases[value]; known {
			pref.Lifestyle = style
		} else {
			b.warnUnknown(QuestionLifestyle, value)
		}
	}

	if value, ok := b.scalar(QuestionHardSellSensitivity, answers[QuestionHardSellSensitivity]); ok {
		if level, known := models.ParseHardSellSensitivity(value); known {
			pref.HardSellSensitivity = level
		} else if level, known := sensitivityAliases[value]; known {
			pref.HardSellSensitivity = level
		} else {
			b.warnUnknown(QuestionHardSellSensitivity, value)
		}
	}

	b.logger.Debug("Preference profile built", map[string]interface{}{
		"userId":       userID,
		"focus":        string(pref.ServiceTypeFocus),
		"concernCount": len(pref.ConcernTags),
		"styleCount":   len(pref.StyleTags),
		"budgetBand":   pref.BudgetBand.String(),
	})

	return pref, nil
}

func (b *Builder) parseFocus(raw any) (models.ServiceTypeFocus, error) {
	if raw == nil {
		return models.FocusUnspecified, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", apperrors.NewValidationError(QuestionServiceType,
			fmt.Sprintf("expected a string answer, got %T", raw))
	}
	token := normalizeToken(s)
	if token == "" {
		return models.FocusUnspecified, nil
	}
	if focus, known := focusAliases[token]; known {
		return focus, nil
	}
	b.warnUnknown(QuestionServiceType, token)
	return models.FocusUnspecified, nil
}

func (b *Builder) parseBudget(raw any) models.BudgetBand {
	switch v := raw.(type) {
	case nil:
		return models.BudgetUnspecified
	case string:
		band, ok := ParseBudget(v)
		if !ok && strings.TrimSpace(v) != "" {
			b.warnUnknown(QuestionBudget, v)
		}
		return band
	case float64:
		if v >= 0 {
			return bandForDollars(v)
		}
	case int:
		if v >= 0 {
			return bandForDollars(float64(v))
		}
	}
	b.warnMalformed(QuestionBudget, raw)
	return models.BudgetUnspecified
}

// scalar returns the normalized single-value answer, or false when the answer
// is missing, empty or of the wrong type.
func (b *Builder) scalar(questionID string, raw any) (string, bool) {
	if raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		b.warnMalformed(questionID, raw)
		return "", false
	}
	token := normalizeToken(s)
	return token, token != ""
}

func (b *Builder) addTags(dst models.TagSet, questionID string, raw any, category models.TagCategory) {
	known := b.vocabulary[category]
	for _, value := range b.multiValues(questionID, raw) {
		token := normalizeToken(value)
		if token == "" {
			continue
		}
		if !known.Has(token) {
			b.logger.Warn("Dropping unknown tag", map[string]interface{}{
				"questionId": questionID,
				"tag":        token,
				"category":   string(category),
			})
			continue
		}
		dst[token] = struct{}{}
	}
}

// multiValues accepts a list of strings or a comma separated string.
func (b *Builder) multiValues(questionID string, raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return strings.Split(v, ",")
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				b.warnMalformed(questionID, item)
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		b.warnMalformed(questionID, raw)
		return nil
	}
}

func (b *Builder) warnUnknown(questionID, value string) {
	b.logger.Warn("Unrecognized answer value, treating as unspecified", map[string]interface{}{
		"questionId": questionID,
		"value":      value,
	})
}

func (b *Builder) warnMalformed(questionID string, raw any) {
	b.logger.Warn("Malformed answer dropped", map[string]interface{}{
		"questionId": questionID,
		"type":       fmt.Sprintf("%T", raw),
	})
}
