package generaterecommendations

import "beauty-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit,omitempty"`
}

type Output struct {
	Success         bool                 `json:"success"`
	RequestID       string               `json:"requestId"`
	Recommendations []models.MatchResult `json:"recommendations"`
	Error           string               `json:"error,omitempty"`
}

const inputSchema = `{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"limit": {"type": "integer", "minimum": 1, "maximum": 50}
	}
}`
