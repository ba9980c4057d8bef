package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// EvaluationRepository defines data operations for submission evaluations.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.ChallengeEvaluation) error
	ListBySubmission(ctx context.Context, submissionID uint, studentVisibleOnly bool) ([]models.ChallengeEvaluation, error)
	LatestBySubmission(ctx context.Context, submissionID uint, studentVisibleOnly bool) (*models.ChallengeEvaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.ChallengeEvaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) ListBySubmission(ctx context.Context, submissionID uint, studentVisibleOnly bool) ([]models.ChallengeEvaluation, error) {
	query := r.db.WithContext(ctx).Where("submission_id = ?", submissionID)
	if studentVisibleOnly {
		query = query.Where("visibility = ?", models.EvaluationVisibilityStudent)
	}

	var evaluations []models.ChallengeEvaluation
	if err := query.Order("evaluated_at DESC").Find(&evaluations).Error; err != nil {
		return nil, err
	}

	return evaluations, nil
}

// LatestBySubmission returns the most recent evaluation, or nil when the
// submission has none.
func (r *evaluationRepository) LatestBySubmission(ctx context.Context, submissionID uint, studentVisibleOnly bool) (*models.ChallengeEvaluation, error) {
	query := r.db.WithContext(ctx).Where("submission_id = ?", submissionID)
	if studentVisibleOnly {
		query = query.Where("visibility = ?", models.EvaluationVisibilityStudent)
	}

	var evaluation models.ChallengeEvaluation
	if err := query.Order("evaluated_at DESC").First(&evaluation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &evaluation, nil
}
