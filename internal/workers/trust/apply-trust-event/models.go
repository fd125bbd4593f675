package applytrustevent

import (
	"time"

	"beauty-workers/internal/models"
)

type Input struct {
	Type       models.TrustEventType `json:"type"`
	ID         string                `json:"id"`
	MerchantID string                `json:"merchantId"`
	Rating     int                   `json:"rating,omitempty"`
	ReporterID string                `json:"reporterId,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Event converts the job input into the trust event it describes.
func (in *Input) Event() models.TrustEvent {
	switch in.Type {
	case models.EventTypeReview:
		return models.ReviewEvent{ID: in.ID, MerchantID: in.MerchantID, Rating: in.Rating, Timestamp: in.Timestamp}
	default:
		return models.HardSellReportEvent{ID: in.ID, MerchantID: in.MerchantID, ReporterID: in.ReporterID, Timestamp: in.Timestamp}
	}
}

type Output struct {
	MerchantID string  `json:"merchantId"`
	TrustScore float64 `json:"trustScore"`
	Applied    bool    `json:"applied"`
}

const inputSchema = `{
	"type": "object",
	"required": ["type", "id", "merchantId", "timestamp"],
	"properties": {
		"type": {"type": "string", "enum": ["review", "hard_sell_report"]},
		"id": {"type": "string", "minLength": 1},
		"merchantId": {"type": "string", "minLength": 1},
		"rating": {"type": "integer", "minimum": 1, "maximum": 5},
		"reporterId": {"type": "string"},
		"timestamp": {"type": "string", "format": "date-time"}
	},
	"if": {"properties": {"type": {"const": "review"}}},
	"then": {"required": ["rating"]}
}`
