// pkg/registry/schema.go
package registry

import "time"

// ActivityRegistry is the file form of configs/activity-registry.json.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity documents one Zeebe task type. InputSchema and OutputSchema map
// variable names to JSON types; the workers carry the full JSON schema.
type Activity struct {
	ID                   string            `json:"id"`
	DisplayName          string            `json:"displayName"`
	Description          string            `json:"description"`
	Category             string            `json:"category"`
	Version              string            `json:"version"`
	TaskType             string            `json:"taskType"`
	ImplementationStatus string            `json:"implementationStatus"`
	InputSchema          map[string]string `json:"inputSchema"`
	OutputSchema         map[string]string `json:"outputSchema"`
	ErrorCodes           []string          `json:"errorCodes"`
	Timeout              string            `json:"timeout"`
	Retries              int               `json:"retries"`
	Workflows            []string          `json:"workflows"`
	Tags                 []string          `json:"tags"`
}

// TimeoutDuration parses Timeout, returning zero when it is unset or invalid.
func (a Activity) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0
	}
	return d
}
