// internal/workers/intake/create-lead-record/models.go
package createleadrecord

import (
	"encoding/json"

	"lead-intake/internal/models"
)

// Input carries the request body a front-end would have posted, unchanged.
type Input struct {
	Category    models.Category `json:"category"`
	Source      string          `json:"source"`
	Application json.RawMessage `json:"application"`
}

type Output struct {
	ApplicationID     string          `json:"applicationId"`
	Category          models.Category `json:"category"`
	ApplicationStatus string          `json:"applicationStatus"`
	Source            string          `json:"source"`
	CreatedAt         string          `json:"createdAt"` // ISO 8601
}
