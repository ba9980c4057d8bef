package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// CommentRepository defines data operations for submission comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.SubmissionComment) error
	GetByID(ctx context.Context, id uint) (models.SubmissionComment, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionComment, error)
	// AuthorIDsBySubmission returns the distinct authors that have commented
	// on the submission, used for notification recipient resolution.
	AuthorIDsBySubmission(ctx context.Context, submissionID uint) ([]uint, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository instantiates the repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.SubmissionComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (models.SubmissionComment, error) {
	var comment models.SubmissionComment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return models.SubmissionComment{}, err
	}

	return comment, nil
}

func (r *commentRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionComment, error) {
	var comments []models.SubmissionComment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) AuthorIDsBySubmission(ctx context.Context, submissionID uint) ([]uint, error) {
	var authorIDs []uint
	if err := r.db.WithContext(ctx).
		Model(&models.SubmissionComment{}).
		Where("submission_id = ?", submissionID).
		Distinct().
		Pluck("author_id", &authorIDs).Error; err != nil {
		return nil, err
	}

	return authorIDs, nil
}
