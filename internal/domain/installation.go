package domain

import "time"

// UserInstallation is the conversation reference captured when a user
// installs the bot. It is consumed by the notification dispatcher and
// deleted on uninstall.
type UserInstallation struct {
	UserID     string    `json:"user_id"`
	ChatID     int64     `json:"chat_id"`
	ServiceURL string    `json:"service_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// TeamInstallation is the organizer channel's conversation reference.
type TeamInstallation struct {
	TeamID     string    `json:"team_id"`
	ChatID     int64     `json:"chat_id"`
	ServiceURL string    `json:"service_url"`
	CreatedAt  time.Time `json:"created_at"`
}
