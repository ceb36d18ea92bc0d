// internal/workers/intake/update-lead-status/models.go
package updateleadstatus

type Input struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
	Actor         string `json:"actor"`
}

type Output struct {
	ApplicationID  string `json:"applicationId"`
	Category       string `json:"category"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"applicationStatus"`
	UpdatedBy      string `json:"updatedBy"`
	UpdatedAt      string `json:"updatedAt"` // ISO 8601
}
