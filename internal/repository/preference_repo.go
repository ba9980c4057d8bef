package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edufy-labs/challenge-api/internal/models"
)

// PreferenceRepository stores per-user, per-type notification preferences.
type PreferenceRepository interface {
	// Get returns the preference for (userID, type), or nil when the user has
	// never customised that type.
	Get(ctx context.Context, userID uint, notificationType string) (*models.NotificationPreference, error)
	ListByUser(ctx context.Context, userID uint) ([]models.NotificationPreference, error)
	Upsert(ctx context.Context, preference *models.NotificationPreference) error
}

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository instantiates the repository.
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, userID uint, notificationType string) (*models.NotificationPreference, error) {
	var preference models.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, notificationType).
		First(&preference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &preference, nil
}

func (r *preferenceRepository) ListByUser(ctx context.Context, userID uint) ([]models.NotificationPreference, error) {
	var preferences []models.NotificationPreference
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("type ASC").
		Find(&preferences).Error; err != nil {
		return nil, err
	}

	return preferences, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, preference *models.NotificationPreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"channels", "enabled", "updated_at"}),
		}).
		Create(preference).Error
}
