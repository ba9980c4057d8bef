package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types emitted by the dispatcher.
const (
	NotificationSubmissionCreated   = "submission_created"
	NotificationSubmissionEvaluated = "submission_evaluated"
	NotificationSubmissionStatus    = "submission_status_changed"
	NotificationCommentAdded        = "comment_added"
	NotificationChallengeCancelled  = "challenge_cancelled"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Delivery channels.
const (
	ChannelDatabase  = "database"
	ChannelBroadcast = "broadcast"
	ChannelMail      = "mail"
)

// Notification is an in-app inbox record for a single user. Immutable after
// creation except for the read flag.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	Type      string            `gorm:"size:64;not null;index" json:"type"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	Body      string            `gorm:"type:text" json:"body"`
	Payload   datatypes.JSONMap `gorm:"type:json" json:"payload"`
	Priority  string            `gorm:"size:16;not null;default:normal" json:"priority"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NotificationPreference records which channels a user wants for a
// notification type. Absence of a record means the configured defaults apply.
type NotificationPreference struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	UserID    uint                        `gorm:"not null;uniqueIndex:idx_pref_user_type" json:"user_id"`
	Type      string                      `gorm:"size:64;not null;uniqueIndex:idx_pref_user_type" json:"type"`
	Channels  datatypes.JSONSlice[string] `gorm:"type:json" json:"channels"`
	Enabled   bool                        `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}
