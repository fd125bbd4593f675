package trust

import "context"

// Direction says which way a score crossed the floor.
type Direction string

const (
	DirectionBelow Direction = "below"
	DirectionAbove Direction = "above"
)

// FloorCrossing is emitted when an event moves a merchant across the trust
// floor that gates recommendation eligibility.
type FloorCrossing struct {
	MerchantID    string    `json:"merchantId"`
	EventID       string    `json:"eventId"`
	PreviousScore float64   `json:"previousScore"`
	Score         float64   `json:"trustScore"`
	Floor         float64   `json:"floor"`
	Direction     Direction `json:"direction"`
}

// Notifier delivers floor-crossing alerts.
type Notifier interface {
	NotifyFloorCrossed(ctx context.Context, crossing FloorCrossing) error
}

// NopNotifier discards alerts.
type NopNotifier struct{}

func (NopNotifier) NotifyFloorCrossed(context.Context, FloorCrossing) error { return nil }
