// internal/models/preference.go
package models

import (
	"fmt"
	"sort"
	"time"
)

// ServiceTypeFocus is the service area a user is primarily shopping for.
type ServiceTypeFocus string

const (
	FocusUnspecified ServiceTypeFocus = "unspecified"
	FocusHair        ServiceTypeFocus = "hair"
	FocusFacial      ServiceTypeFocus = "facial"
	FocusBrowsLashes ServiceTypeFocus = "brows_lashes"
	FocusMultiple    ServiceTypeFocus = "multiple"
)

// IsBroad reports whether the focus spans the whole catalog.
func (f ServiceTypeFocus) IsBroad() bool {
	return f == FocusMultiple || f == FocusUnspecified || f == ""
}

// BudgetBand is an ordered price bucket. The zero value is unspecified.
type BudgetBand int

const (
	BudgetUnspecified BudgetBand = iota
	BudgetUnder50
	Budget50To100
	Budget100To150
	Budget150To200
	BudgetOver200
)

// BudgetBandWidthCents is the width of one bounded band.
const BudgetBandWidthCents = 5000

var budgetBandNames = map[BudgetBand]string{
	BudgetUnspecified: "unspecified",
	BudgetUnder50:     "<50",
	Budget50To100:     "50-100",
	Budget100To150:    "100-150",
	Budget150To200:    "150-200",
	BudgetOver200:     ">200",
}

func (b BudgetBand) String() string {
	if name, ok := budgetBandNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BudgetBand(%d)", int(b))
}

// Range returns the inclusive cents bounds of the band. bounded is false for
// the open-ended top band, whose max is meaningless.
func (b BudgetBand) Range() (minCents, maxCents int64, bounded bool) {
	switch b {
	case BudgetUnder50:
		return 0, 5000, true
	case Budget50To100:
		return 5000, 10000, true
	case Budget100To150:
		return 10000, 15000, true
	case Budget150To200:
		return 15000, 20000, true
	case BudgetOver200:
		return 20000, 0, false
	default:
		return 0, 0, false
	}
}

// Label renders the band for explanation text, e.g. "$50–100".
func (b BudgetBand) Label() string {
	switch b {
	case BudgetUnder50:
		return "under $50"
	case Budget50To100:
		return "$50–100"
	case Budget100To150:
		return "$100–150"
	case Budget150To200:
		return "$150–200"
	case BudgetOver200:
		return "$200+"
	default:
		return "any"
	}
}

func (b BudgetBand) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BudgetBand) UnmarshalText(text []byte) error {
	for band, name := range budgetBandNames {
		if name == string(text) {
			*b = band
			return nil
		}
	}
	return fmt.Errorf("unknown budget band %q", string(text))
}

// Frequency is how often the user books services.
type Frequency string

const (
	FrequencyUnspecified  Frequency = "unspecified"
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiweekly     Frequency = "biweekly"
	FrequencyMonthly      Frequency = "monthly"
	FrequencyQuarterly    Frequency = "quarterly"
	FrequencyOccasionally Frequency = "occasionally"
)

// Lifestyle is the self-described lifestyle answer.
type Lifestyle string

const (
	LifestyleUnspecified Lifestyle = "unspecified"
	LifestyleBusy        Lifestyle = "busy_professional"
	LifestyleActive      Lifestyle = "active"
	LifestyleStudent     Lifestyle = "student"
	LifestyleParent      Lifestyle = "parent"
	LifestyleRelaxed     Lifestyle = "relaxed"
)

// HardSellSensitivity is an ordered aversion to sales pressure.
type HardSellSensitivity int

const (
	SensitivityUnspecified HardSellSensitivity = iota
	SensitivityNone
	SensitivityLow
	SensitivityModerate
	SensitivityHigh
	SensitivityExtreme
)

var sensitivityNames = map[HardSellSensitivity]string{
	SensitivityUnspecified: "unspecified",
	SensitivityNone:        "none",
	SensitivityLow:         "low",
	SensitivityModerate:    "moderate",
	SensitivityHigh:        "high",
	SensitivityExtreme:     "extreme",
}

func (s HardSellSensitivity) String() string {
	if name, ok := sensitivityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("HardSellSensitivity(%d)", int(s))
}

func (s HardSellSensitivity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *HardSellSensitivity) UnmarshalText(text []byte) error {
	for level, name := range sensitivityNames {
		if name == string(text) {
			*s = level
			return nil
		}
	}
	return fmt.Errorf("unknown hard-sell sensitivity %q", string(text))
}

// ParseHardSellSensitivity maps an answer onto the ordered enum.
func ParseHardSellSensitivity(v string) (HardSellSensitivity, bool) {
	for level, name := range sensitivityNames {
		if level != SensitivityUnspecified && name == v {
			return level, true
		}
	}
	return SensitivityUnspecified, false
}

// TagSet is a set of tag names.
type TagSet map[string]struct{}

// NewTagSet builds a set from names, dropping duplicates and empty names.
func NewTagSet(names ...string) TagSet {
	s := make(TagSet, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s TagSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set holding the names of both sets.
func (s TagSet) Union(other TagSet) TagSet {
	out := make(TagSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return marshalStrings(s.Sorted())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	names, err := unmarshalStrings(data)
	if err != nil {
		return err
	}
	*s = NewTagSet(names...)
	return nil
}

// Preference is the canonical profile derived from one onboarding submission.
// It is never mutated; a later submission supersedes it.
type Preference struct {
	UserID              string              `json:"userId"`
	ServiceTypeFocus    ServiceTypeFocus    `json:"serviceTypeFocus"`
	ConcernTags         TagSet              `json:"concernTags"`
	StyleTags           TagSet              `json:"styleTags"`
	BudgetBand          BudgetBand          `json:"budgetBand"`
	Frequency           Frequency           `json:"frequency"`
	Lifestyle           Lifestyle           `json:"lifestyle"`
	HardSellSensitivity HardSellSensitivity `json:"hardSellSensitivity"`
	SubmittedAt         time.Time           `json:"submittedAt,omitempty"`
}

// AllTags returns concern and style tags together.
func (p Preference) AllTags() TagSet {
	return p.ConcernTags.Union(p.StyleTags)
}
