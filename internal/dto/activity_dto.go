package dto

import (
	"time"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// ActivityFilter describes query string filters for the audit feed.
type ActivityFilter struct {
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size" validate:"omitempty,lte=100"`
	ActorID    *uint  `query:"actor_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
}

// ActivityResponse serializes an audit log entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewActivityResponse converts an activity log model into a DTO.
func NewActivityResponse(model models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   model.Metadata,
		CreatedAt:  model.CreatedAt,
	}
}

// NewActivityResponseSlice converts activity log models into DTOs.
func NewActivityResponseSlice(models []models.ActivityLog) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(models))
	for _, entry := range models {
		responses = append(responses, NewActivityResponse(entry))
	}

	return responses
}
