package dto

import (
	"time"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// ChallengeCreateRequest describes the payload for creating a challenge.
type ChallengeCreateRequest struct {
	Title           string    `json:"title" validate:"required,min=3,max=255"`
	Description     string    `json:"description" validate:"omitempty,max=10000"`
	Category        string    `json:"category" validate:"omitempty,max=64"`
	AgeGroup        string    `json:"age_group" validate:"omitempty,max=32"`
	StartsAt        time.Time `json:"starts_at"`
	Deadline        time.Time `json:"deadline" validate:"required"`
	PointsReward    int       `json:"points_reward" validate:"gte=0"`
	BadgesReward    []string  `json:"badges_reward" validate:"omitempty,dive,min=1"`
	MaxParticipants int       `json:"max_participants" validate:"gte=0"`
	SchoolID        *uint     `json:"school_id"`
}

// ChallengeStatusRequest requests a challenge lifecycle transition.
type ChallengeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active completed cancelled"`
}

// ChallengeFilter describes query string filters for listing challenges.
type ChallengeFilter struct {
	CreatorID *uint   `query:"creator_id"`
	SchoolID  *uint   `query:"school_id"`
	Status    *string `query:"status" validate:"omitempty,oneof=draft active completed cancelled"`
	Category  *string `query:"category"`
}

// ChallengeResponse is returned to API clients when viewing challenges.
type ChallengeResponse struct {
	ID                  uint      `json:"id"`
	CreatorID           uint      `json:"creator_id"`
	SchoolID            *uint     `json:"school_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Category            string    `json:"category"`
	AgeGroup            string    `json:"age_group"`
	StartsAt            time.Time `json:"starts_at"`
	Deadline            time.Time `json:"deadline"`
	Status              string    `json:"status"`
	PointsReward        int       `json:"points_reward"`
	BadgesReward        []string  `json:"badges_reward"`
	MaxParticipants     int       `json:"max_participants"`
	CurrentParticipants int       `json:"current_participants"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	Creator             UserLite  `json:"creator"`
}

// UserLite summarizes a user without exposing full profile data.
type UserLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewUserLite converts a User model into its summary form.
func NewUserLite(model models.User) UserLite {
	return UserLite{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
		Role:  model.Role,
	}
}

// NewChallengeResponse converts a Challenge model into a DTO.
func NewChallengeResponse(model models.Challenge) ChallengeResponse {
	response := ChallengeResponse{
		ID:                  model.ID,
		CreatorID:           model.CreatorID,
		SchoolID:            model.SchoolID,
		Title:               model.Title,
		Description:         model.Description,
		Category:            model.Category,
		AgeGroup:            model.AgeGroup,
		StartsAt:            model.StartsAt,
		Deadline:            model.Deadline,
		Status:              model.Status,
		PointsReward:        model.PointsReward,
		BadgesReward:        model.BadgesReward,
		MaxParticipants:     model.MaxParticipants,
		CurrentParticipants: model.CurrentParticipants,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}

	if model.Creator.ID != 0 {
		response.Creator = NewUserLite(model.Creator)
	}

	return response
}

// NewChallengeResponseSlice converts challenge models into DTOs.
func NewChallengeResponseSlice(models []models.Challenge) []ChallengeResponse {
	responses := make([]ChallengeResponse, 0, len(models))
	for _, challenge := range models {
		responses = append(responses, NewChallengeResponse(challenge))
	}

	return responses
}
