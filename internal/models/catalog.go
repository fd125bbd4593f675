// internal/models/catalog.go
package models

import "encoding/json"

// TagCategory groups tags by the question they answer.
type TagCategory string

const (
	CategoryHairConcern     TagCategory = "hair_concern"
	CategoryFacialConcern   TagCategory = "facial_concern"
	CategoryStylePreference TagCategory = "style_preference"
)

// Tag is unique by (Name, Category).
type Tag struct {
	Name     string      `json:"name"`
	Category TagCategory `json:"category"`
}

// Service categories mirror the non-broad ServiceTypeFocus values.
const (
	ServiceCategoryHair        = "hair"
	ServiceCategoryFacial      = "facial"
	ServiceCategoryBrowsLashes = "brows_lashes"
)

// Service is one bookable offering of a merchant.
type Service struct {
	ID              string `json:"id"`
	MerchantID      string `json:"merchantId"`
	Name            string `json:"name,omitempty"`
	PriceCents      int64  `json:"priceCents"`
	DurationMinutes int    `json:"durationMinutes"`
	Category        string `json:"category"`
	Tags            []Tag  `json:"tags"`
}

// TagNames returns the service's tag names as a set.
func (s Service) TagNames() TagSet {
	set := make(TagSet, len(s.Tags))
	for _, t := range s.Tags {
		if t.Name != "" {
			set[t.Name] = struct{}{}
		}
	}
	return set
}

// Clone returns a deep copy so callers cannot mutate shared tag slices.
func (s Service) Clone() Service {
	out := s
	if s.Tags != nil {
		out.Tags = append([]Tag(nil), s.Tags...)
	}
	return out
}

// Merchant carries the trust score consumed by matching.
type Merchant struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	TrustScore float64 `json:"trustScore"`
}

func marshalStrings(v []string) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalStrings(data []byte) ([]string, error) {
	var v []string
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
