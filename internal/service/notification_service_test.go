package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/models"
)

func newNotificationFixture(t *testing.T, redisClient *redis.Client) (*notificationService, *fakeNotificationRepo, *fakePreferenceRepo) {
	t.Helper()

	repo := &fakeNotificationRepo{}
	preferenceRepo := newFakePreferenceRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewNotificationService(repo, preferenceRepo, redisClient, "challenge", nil, validate, testLogger()).(*notificationService)
	return svc, repo, preferenceRepo
}

func TestNotificationMarkReadScopedToUser(t *testing.T) {
	svc, repo, _ := newNotificationFixture(t, nil)
	repo.notifications = []models.Notification{
		{ID: 1, UserID: 9, Type: models.NotificationSubmissionEvaluated},
	}

	_, err := svc.MarkRead(context.Background(), 1, 77)
	require.Error(t, err)

	result, err := svc.MarkRead(context.Background(), 1, 9)
	require.NoError(t, err)
	require.True(t, result.Read)
}

func TestNotificationUnreadCount(t *testing.T) {
	svc, repo, _ := newNotificationFixture(t, nil)
	repo.notifications = []models.Notification{
		{ID: 1, UserID: 9},
		{ID: 2, UserID: 9, Read: true},
		{ID: 3, UserID: 12},
	}

	count, err := svc.UnreadCount(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAllRead(context.Background(), 9))
	count, err = svc.UnreadCount(context.Background(), 9)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationUpdatePreferenceValidation(t *testing.T) {
	svc, _, _ := newNotificationFixture(t, nil)
	enabled := true

	_, err := svc.UpdatePreference(context.Background(), 9, dto.PreferenceUpdateRequest{
		Type:     models.NotificationCommentAdded,
		Channels: []string{"carrier-pigeon"},
		Enabled:  &enabled,
	})
	require.Error(t, err)

	_, err = svc.UpdatePreference(context.Background(), 9, dto.PreferenceUpdateRequest{
		Type: models.NotificationCommentAdded,
	})
	require.Error(t, err)
}

func TestNotificationUpdatePreferenceUpserts(t *testing.T) {
	svc, _, preferenceRepo := newNotificationFixture(t, nil)
	enabled := false

	result, err := svc.UpdatePreference(context.Background(), 9, dto.PreferenceUpdateRequest{
		Type:     models.NotificationCommentAdded,
		Channels: []string{models.ChannelDatabase},
		Enabled:  &enabled,
	})
	require.NoError(t, err)
	require.False(t, result.Enabled)

	stored, err := preferenceRepo.Get(context.Background(), 9, models.NotificationCommentAdded)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.False(t, stored.Enabled)
	require.Equal(t, []string{models.ChannelDatabase}, []string(stored.Channels))
}

func TestNotificationSubscribeReceivesBroadcast(t *testing.T) {
	svc, _, _ := newNotificationFixture(t, nil)

	stream, cancel := svc.Subscribe(9)
	defer cancel()

	require.NoError(t, svc.Broadcast(context.Background(), dto.NotificationResponse{
		ID: 1, UserID: 9, Type: models.NotificationSubmissionEvaluated, Title: "scored",
	}))

	select {
	case got := <-stream:
		require.Equal(t, uint(1), got.ID)
		require.Equal(t, "scored", got.Title)
	case <-time.After(time.Second):
		t.Fatal("expected a streamed notification")
	}
}

func TestNotificationBroadcastSkipsOtherUsers(t *testing.T) {
	svc, _, _ := newNotificationFixture(t, nil)

	stream, cancel := svc.Subscribe(12)
	defer cancel()

	require.NoError(t, svc.Broadcast(context.Background(), dto.NotificationResponse{ID: 1, UserID: 9}))

	select {
	case <-stream:
		t.Fatal("notification leaked to another user's stream")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationUnsubscribeClosesChannel(t *testing.T) {
	svc, _, _ := newNotificationFixture(t, nil)

	stream, cancel := svc.Subscribe(9)
	cancel()

	_, open := <-stream
	require.False(t, open)
}

func TestNotificationBroadcastPublishesToRedis(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	svc, _, _ := newNotificationFixture(t, client)

	subscription := client.Subscribe(context.Background(), "challenge:notifications")
	defer subscription.Close()
	_, err := subscription.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Broadcast(context.Background(), dto.NotificationResponse{
		ID: 1, UserID: 9, Type: models.NotificationSubmissionEvaluated,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := subscription.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event notificationEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, svc.nodeID, event.Source)
	require.Equal(t, uint(9), event.Notification.UserID)
}

func TestNotificationHandleEventIgnoresOwnNode(t *testing.T) {
	svc, _, _ := newNotificationFixture(t, nil)

	stream, cancel := svc.Subscribe(9)
	defer cancel()

	own, err := json.Marshal(notificationEvent{
		Source:       svc.nodeID,
		Notification: dto.NotificationResponse{ID: 1, UserID: 9},
	})
	require.NoError(t, err)
	svc.handleEvent(own)

	remote, err := json.Marshal(notificationEvent{
		Source:       "another-node",
		Notification: dto.NotificationResponse{ID: 2, UserID: 9},
	})
	require.NoError(t, err)
	svc.handleEvent(remote)

	select {
	case got := <-stream:
		require.Equal(t, uint(2), got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected the remote event on the stream")
	}

	select {
	case got := <-stream:
		t.Fatalf("unexpected extra notification %d", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
}
