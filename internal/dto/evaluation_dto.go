package dto

import (
	"time"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// EvaluationCreateRequest describes the payload for attaching an evaluation.
type EvaluationCreateRequest struct {
	Score      *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
	Feedback   string   `json:"feedback" validate:"omitempty,max=10000"`
	Visibility string   `json:"visibility" validate:"required,oneof=student teacher admin"`
}

// EvaluationResponse serializes an evaluation for API clients.
type EvaluationResponse struct {
	ID            uint      `json:"id"`
	SubmissionID  uint      `json:"submission_id"`
	EvaluatorID   uint      `json:"evaluator_id"`
	EvaluatorRole string    `json:"evaluator_role"`
	Score         *float64  `json:"score"`
	Feedback      string    `json:"feedback"`
	Visibility    string    `json:"visibility"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// NewEvaluationResponse converts an evaluation model into a DTO.
func NewEvaluationResponse(model models.ChallengeEvaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:            model.ID,
		SubmissionID:  model.SubmissionID,
		EvaluatorID:   model.EvaluatorID,
		EvaluatorRole: model.EvaluatorRole,
		Score:         model.Score,
		Feedback:      model.Feedback,
		Visibility:    model.Visibility,
		EvaluatedAt:   model.EvaluatedAt,
	}
}

// NewEvaluationResponseSlice converts evaluation models into DTOs.
func NewEvaluationResponseSlice(models []models.ChallengeEvaluation) []EvaluationResponse {
	responses := make([]EvaluationResponse, 0, len(models))
	for _, evaluation := range models {
		responses = append(responses, NewEvaluationResponse(evaluation))
	}

	return responses
}
