package dto

import (
	"time"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// CommentCreateRequest describes the payload for commenting on a submission.
type CommentCreateRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=10000"`
	Mentions []uint `json:"mentions" validate:"omitempty,dive,gt=0"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

// CommentResponse serializes a submission comment.
type CommentResponse struct {
	ID               uint      `json:"id"`
	SubmissionID     uint      `json:"submission_id"`
	AuthorID         uint      `json:"author_id"`
	Content          string    `json:"content"`
	MentionedUserIDs []uint    `json:"mentioned_user_ids"`
	ParentID         *uint     `json:"parent_id"`
	CreatedAt        time.Time `json:"created_at"`
	Author           UserLite  `json:"author"`
}

// NewCommentResponse converts a comment model into a DTO.
func NewCommentResponse(model models.SubmissionComment) CommentResponse {
	response := CommentResponse{
		ID:               model.ID,
		SubmissionID:     model.SubmissionID,
		AuthorID:         model.AuthorID,
		Content:          model.Content,
		MentionedUserIDs: model.MentionedUserIDs,
		ParentID:         model.ParentID,
		CreatedAt:        model.CreatedAt,
	}

	if model.Author.ID != 0 {
		response.Author = NewUserLite(model.Author)
	}

	return response
}

// NewCommentResponseSlice converts comment models into DTOs.
func NewCommentResponseSlice(models []models.SubmissionComment) []CommentResponse {
	responses := make([]CommentResponse, 0, len(models))
	for _, comment := range models {
		responses = append(responses, NewCommentResponse(comment))
	}

	return responses
}
