package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// ErrVersionConflict indicates an optimistic-lock update matched zero rows
// because another writer advanced the submission first.
var ErrVersionConflict = errors.New("submission was modified concurrently")

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	ChallengeID *uint
	StudentID   *uint
	Status      *string
}

// SubmissionRepository defines data operations for challenge submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.ChallengeSubmission, error)
	GetByID(ctx context.Context, id uint) (models.ChallengeSubmission, error)
	Create(ctx context.Context, submission *models.ChallengeSubmission) error
	// UpdateWithVersion persists the submission only if its version column
	// still matches expectedVersion, bumping it by one. Returns
	// ErrVersionConflict when another transition won the race.
	UpdateWithVersion(ctx context.Context, submission *models.ChallengeSubmission, expectedVersion int) error
	ListOpenByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeSubmission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ChallengeSubmission{}).
		Preload("Challenge").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.ChallengeSubmission, error) {
	query := r.baseQuery(ctx)

	if filter.ChallengeID != nil {
		query = query.Where("challenge_id = ?", *filter.ChallengeID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.ChallengeSubmission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.ChallengeSubmission, error) {
	var submission models.ChallengeSubmission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.ChallengeSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.ChallengeSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) UpdateWithVersion(ctx context.Context, submission *models.ChallengeSubmission, expectedVersion int) error {
	submission.Version = expectedVersion + 1

	result := r.db.WithContext(ctx).
		Model(&models.ChallengeSubmission{}).
		Where("id = ? AND version = ?", submission.ID, expectedVersion).
		Select("status", "feedback", "reviewer_id", "rating", "badges", "points_earned", "submitted_at", "reviewed_at", "version", "updated_at").
		Updates(submission)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	return nil
}

func (r *submissionRepository) ListOpenByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeSubmission, error) {
	var submissions []models.ChallengeSubmission
	if err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Where("status NOT IN ?", []string{models.SubmissionStatusWithdrawn}).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
