// internal/workers/staffing/notify-understaffed/models.go
package notifyunderstaffed

import "montaz-workers/internal/coverage"

type Input struct {
	ProjectID string          `json:"projectId"`
	Coverage  coverage.Result `json:"coverage"`
	ForceSMS  bool            `json:"forceSms,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled", "skipped"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
