// internal/workers/notification/send-lead-notification/models.go
package sendleadnotification

import "lead-intake/internal/notify"

// Input is the variable set the notification process is started with.
type Input = notify.ProcessVariables

type Output struct {
	NotificationStatus string   `json:"notificationStatus"` // sent, failed, disabled
	Channels           []string `json:"channels"`
	SentAt             string   `json:"sentAt,omitempty"`
}
