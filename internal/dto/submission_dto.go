package dto

import (
	"time"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a new
// submission. Files are uploaded alongside and attached by the service.
type SubmissionCreateRequest struct {
	ChallengeID uint   `form:"challenge_id" validate:"required,gt=0"`
	Answer      string `form:"answer" validate:"omitempty,max=20000"`
}

// SubmissionTransitionRequest requests a lifecycle transition.
type SubmissionTransitionRequest struct {
	Status   string   `json:"status" validate:"required,oneof=reviewed approved rejected resubmitted withdrawn"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=10000"`
	Rating   *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Badges   []string `json:"badges" validate:"omitempty,dive,min=1"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	ChallengeID *uint   `query:"challenge_id"`
	StudentID   *uint   `query:"student_id"`
	Status      *string `query:"status" validate:"omitempty,oneof=submitted resubmitted reviewed approved rejected withdrawn"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint          `json:"id"`
	ChallengeID  uint          `json:"challenge_id"`
	StudentID    uint          `json:"student_id"`
	Files        []string      `json:"files"`
	Answer       string        `json:"answer"`
	Status       string        `json:"status"`
	Feedback     string        `json:"feedback"`
	ReviewerID   *uint         `json:"reviewer_id"`
	Rating       *float64      `json:"rating"`
	Badges       []string      `json:"badges"`
	PointsEarned int           `json:"points_earned"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	ReviewedAt   *time.Time    `json:"reviewed_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Challenge    ChallengeLite `json:"challenge"`
	Student      UserLite      `json:"student"`
}

// ChallengeLite summarizes a challenge in submission responses.
type ChallengeLite struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Deadline     time.Time `json:"deadline"`
	Status       string    `json:"status"`
	PointsReward int       `json:"points_reward"`
}

// NewSubmissionResponse converts a ChallengeSubmission model into a DTO.
func NewSubmissionResponse(model models.ChallengeSubmission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		ChallengeID:  model.ChallengeID,
		StudentID:    model.StudentID,
		Files:        model.Files,
		Answer:       model.Answer,
		Status:       model.Status,
		Feedback:     model.Feedback,
		ReviewerID:   model.ReviewerID,
		Rating:       model.Rating,
		Badges:       model.Badges,
		PointsEarned: model.PointsEarned,
		SubmittedAt:  model.SubmittedAt,
		ReviewedAt:   model.ReviewedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Challenge.ID != 0 {
		response.Challenge = ChallengeLite{
			ID:           model.Challenge.ID,
			Title:        model.Challenge.Title,
			Deadline:     model.Challenge.Deadline,
			Status:       model.Challenge.Status,
			PointsReward: model.Challenge.PointsReward,
		}
	}

	if model.Student.ID != 0 {
		response.Student = NewUserLite(model.Student)
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.ChallengeSubmission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
