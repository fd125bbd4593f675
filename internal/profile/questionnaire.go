package profile

import "strings"

// Question ids of the onboarding questionnaire.
const (
	QuestionServiceType         = "service_type"
	QuestionHairConcerns        = "hair_concerns"
	QuestionFacialConcerns      = "facial_concerns"
	QuestionStylePreferences    = "style_preferences"
	QuestionBudget              = "budget"
	QuestionFrequency           = "frequency"
	QuestionLifestyle           = "lifestyle"
	QuestionHardSellSensitivity = "hard_sell_sensitivity"
)

// Dependency makes a question visible only when the parent question was
// answered with one of AllowedValues.
type Dependency struct {
	QuestionID    string
	AllowedValues []string
}

// Question is one row of the declarative questionnaire.
type Question struct {
	ID         string
	MultiValue bool
	DependsOn  *Dependency
}

// Questionnaire is the ordered rule table. Parents come before children.
var Questionnaire = []Question{
	{ID: QuestionServiceType},
	{ID: QuestionHairConcerns, MultiValue: true, DependsOn: &Dependency{
		QuestionID:    QuestionServiceType,
		AllowedValues: []string{"hair", "multiple"},
	}},
	{ID: QuestionFacialConcerns, MultiValue: true, DependsOn: &Dependency{
		QuestionID:    QuestionServiceType,
		AllowedValues: []string{"facial", "multiple"},
	}},
	{ID: QuestionStylePreferences, MultiValue: true},
	{ID: QuestionBudget},
	{ID: QuestionFrequency},
	{ID: QuestionLifestyle},
	{ID: QuestionHardSellSensitivity},
}

// VisibleQuestions filters the table against the answers given so far.
// A dependent question stays visible while its parent is unanswered and is
// hidden once the parent holds a value outside AllowedValues, or when the
// parent is itself hidden.
func VisibleQuestions(questions []Question, answers map[string]any) []Question {
	visible := make([]Question, 0, len(questions))
	shown := make(map[string]bool, len(questions))

	for _, q := range questions {
		if q.DependsOn == nil || dependencySatisfied(q.DependsOn, answers, shown) {
			visible = append(visible, q)
			shown[q.ID] = true
		}
	}
	return visible
}

// IsVisible reports whether questionID survives VisibleQuestions.
func IsVisible(questions []Question, answers map[string]any, questionID string) bool {
	for _, q := range VisibleQuestions(questions, answers) {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func dependencySatisfied(dep *Dependency, answers map[string]any, shown map[string]bool) bool {
	if !shown[dep.QuestionID] {
		return false
	}

	raw, ok := answers[dep.QuestionID].(string)
	if !ok {
		// Unanswered or not a scalar: nothing to branch on yet.
		return true
	}
	value := normalizeToken(raw)
	if value == "" {
		return true
	}
	if alias, ok := focusAliases[value]; ok {
		value = string(alias)
	}

	for _, allowed := range dep.AllowedValues {
		if strings.EqualFold(value, allowed) {
			return true
		}
	}
	return false
}
