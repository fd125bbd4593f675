package buildpreferenceprofile

import "beauty-workers/internal/models"

type Input struct {
	UserID  string                 `json:"userId"`
	Answers map[string]interface{} `json:"answers"`
}

type Output struct {
	SubmissionID string            `json:"submissionId"`
	Preference   models.Preference `json:"preference"`
}

const inputSchema = `{
	"type": "object",
	"required": ["userId", "answers"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"answers": {"type": "object"}
	}
}`
