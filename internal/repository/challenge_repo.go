package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// ErrChallengeFull indicates the participant counter is already at the
// challenge's cap, so the increment matched zero rows.
var ErrChallengeFull = errors.New("challenge participant limit reached")

// ChallengeFilter narrows challenge queries.
type ChallengeFilter struct {
	CreatorID *uint
	SchoolID  *uint
	Status    *string
	Category  *string
}

// ChallengeRepository defines data operations for challenges.
type ChallengeRepository interface {
	List(ctx context.Context, filter ChallengeFilter) ([]models.Challenge, error)
	GetByID(ctx context.Context, id uint) (models.Challenge, error)
	Create(ctx context.Context, challenge *models.Challenge) error
	Update(ctx context.Context, challenge *models.Challenge) error
	IncrementParticipants(ctx context.Context, id uint) error
}

type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository instantiates the repository.
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Challenge{}).Preload("Creator")
}

func (r *challengeRepository) List(ctx context.Context, filter ChallengeFilter) ([]models.Challenge, error) {
	query := r.baseQuery(ctx)

	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}

	if filter.SchoolID != nil {
		query = query.Where("school_id = ?", *filter.SchoolID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var challenges []models.Challenge
	if err := query.Order("created_at DESC").Find(&challenges).Error; err != nil {
		return nil, err
	}

	return challenges, nil
}

func (r *challengeRepository) GetByID(ctx context.Context, id uint) (models.Challenge, error) {
	var challenge models.Challenge
	if err := r.baseQuery(ctx).First(&challenge, id).Error; err != nil {
		return models.Challenge{}, err
	}

	return challenge, nil
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Save(challenge).Error
}

// IncrementParticipants bumps the participant counter without a full save so
// concurrent submissions do not clobber each other's counts. The cap check is
// part of the UPDATE itself; two writers racing for the last slot cannot both
// win. Returns ErrChallengeFull when the counter is already at the cap.
func (r *challengeRepository) IncrementParticipants(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Challenge{}).
		Where("id = ?", id).
		Where("max_participants = 0 OR current_participants < max_participants").
		UpdateColumn("current_participants", gorm.Expr("current_participants + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChallengeFull
	}

	return nil
}
