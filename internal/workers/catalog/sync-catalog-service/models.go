package synccatalogservice

import "beauty-workers/internal/models"

const (
	ActionUpsert = "upsert"
	ActionRemove = "remove"
)

type Input struct {
	Action  string         `json:"action"`
	Service models.Service `json:"service"`
}

type Output struct {
	ServiceID string `json:"serviceId"`
	Action    string `json:"action"`

	// Changed is false for a remove of a service the index never held.
	Changed      bool `json:"changed"`
	IndexedTotal int  `json:"indexedTotal"`
}

const inputSchema = `{
	"type": "object",
	"required": ["action", "service"],
	"properties": {
		"action": {"type": "string", "enum": ["upsert", "remove"]},
		"service": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": "string", "minLength": 1},
				"merchantId": {"type": "string"},
				"priceCents": {"type": "integer", "minimum": 0},
				"durationMinutes": {"type": "integer", "minimum": 0},
				"category": {"type": "string"},
				"tags": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["name", "category"],
						"properties": {
							"name": {"type": "string"},
							"category": {"type": "string", "enum": ["hair_concern", "facial_concern", "style_preference"]}
						}
					}
				}
			}
		}
	}
}`
