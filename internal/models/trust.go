// internal/models/trust.go
package models

import "time"

// TrustEventType discriminates the events the trust engine accepts.
type TrustEventType string

const (
	EventTypeReview         TrustEventType = "review"
	EventTypeHardSellReport TrustEventType = "hard_sell_report"
)

// TrustEvent is an immutable fact that may adjust a merchant's trust score.
type TrustEvent interface {
	EventID() string
	Merchant() string
	Type() TrustEventType
}

// ReviewEvent is a customer rating of a merchant.
type ReviewEvent struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchantId"`
	Rating     int       `json:"rating"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e ReviewEvent) EventID() string      { return e.ID }
func (e ReviewEvent) Merchant() string     { return e.MerchantID }
func (e ReviewEvent) Type() TrustEventType { return EventTypeReview }

// HardSellReportEvent records unwanted sales pressure reported by a customer.
type HardSellReportEvent struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchantId"`
	ReporterID string    `json:"reporterId"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e HardSellReportEvent) EventID() string      { return e.ID }
func (e HardSellReportEvent) Merchant() string     { return e.MerchantID }
func (e HardSellReportEvent) Type() TrustEventType { return EventTypeHardSellReport }
