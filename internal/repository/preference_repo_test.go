package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edufy-labs/challenge-api/internal/models"
)

func TestPreferenceGetMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)

	preference, err := repo.Get(context.Background(), 301, models.NotificationCommentAdded)
	require.NoError(t, err)
	require.Nil(t, preference)
}

func TestPreferenceUpsertReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.NotificationPreference{
		UserID:   311,
		Type:     models.NotificationSubmissionEvaluated,
		Channels: []string{models.ChannelDatabase, models.ChannelMail},
		Enabled:  true,
	}))

	require.NoError(t, repo.Upsert(context.Background(), &models.NotificationPreference{
		UserID:   311,
		Type:     models.NotificationSubmissionEvaluated,
		Channels: []string{models.ChannelDatabase},
		Enabled:  false,
	}))

	stored, err := repo.Get(context.Background(), 311, models.NotificationSubmissionEvaluated)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.False(t, stored.Enabled)
	require.Equal(t, []string{models.ChannelDatabase}, []string(stored.Channels))

	var count int64
	require.NoError(t, db.Model(&models.NotificationPreference{}).
		Where("user_id = ?", 311).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestPreferenceListByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.NotificationPreference{
		UserID: 321, Type: models.NotificationCommentAdded, Enabled: true,
	}))
	require.NoError(t, repo.Upsert(context.Background(), &models.NotificationPreference{
		UserID: 321, Type: models.NotificationChallengeCancelled, Enabled: false,
	}))
	require.NoError(t, repo.Upsert(context.Background(), &models.NotificationPreference{
		UserID: 322, Type: models.NotificationCommentAdded, Enabled: true,
	}))

	preferences, err := repo.ListByUser(context.Background(), 321)
	require.NoError(t, err)
	require.Len(t, preferences, 2)
	require.Equal(t, models.NotificationChallengeCancelled, preferences[0].Type)
}
