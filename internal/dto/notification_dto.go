package dto

import (
	"time"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// NotificationAction is a suggested UI action rendered with a notification.
type NotificationAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// NotificationMeta is the structured meta block carried by database and
// broadcast payloads.
type NotificationMeta struct {
	RelatedType string    `json:"relatedType"`
	RelatedID   uint      `json:"relatedId"`
	Timestamp   time.Time `json:"timestamp"`
	Priority    string    `json:"priority"`
}

// NotificationResponse serializes an inbox notification.
type NotificationResponse struct {
	ID        uint                   `json:"id"`
	UserID    uint                   `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Payload   map[string]interface{} `json:"payload"`
	Priority  string                 `json:"priority"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// PreferenceUpdateRequest sets the channels for one notification type.
type PreferenceUpdateRequest struct {
	Type     string   `json:"type" validate:"required,max=64"`
	Channels []string `json:"channels" validate:"omitempty,dive,oneof=database broadcast mail"`
	Enabled  *bool    `json:"enabled" validate:"required"`
}

// PreferenceResponse serializes a notification preference.
type PreferenceResponse struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
	Enabled  bool     `json:"enabled"`
}

// NewNotificationResponse converts a notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Title:     model.Title,
		Body:      model.Body,
		Payload:   model.Payload,
		Priority:  model.Priority,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(models []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(models))
	for _, notification := range models {
		responses = append(responses, NewNotificationResponse(notification))
	}

	return responses
}

// NewPreferenceResponse converts a preference model into a DTO.
func NewPreferenceResponse(model models.NotificationPreference) PreferenceResponse {
	return PreferenceResponse{
		Type:     model.Type,
		Channels: model.Channels,
		Enabled:  model.Enabled,
	}
}

// NewPreferenceResponseSlice converts preference models into DTOs.
func NewPreferenceResponseSlice(models []models.NotificationPreference) []PreferenceResponse {
	responses := make([]PreferenceResponse, 0, len(models))
	for _, preference := range models {
		responses = append(responses, NewPreferenceResponse(preference))
	}

	return responses
}
