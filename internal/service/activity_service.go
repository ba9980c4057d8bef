package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/models"
	"github.com/edufy-labs/challenge-api/internal/repository"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording audit logs. Services hold
// this narrow interface so tests can fake it.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityService records audit entries and serves the staff audit feed.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, actor Actor, filter dto.ActivityFilter) ([]dto.ActivityResponse, int64, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the audit log service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

// List returns a page of the audit trail. Staff only; the trail exposes
// actor identifiers and transition metadata.
func (s *activityService) List(ctx context.Context, actor Actor, filter dto.ActivityFilter) ([]dto.ActivityResponse, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, fmt.Errorf("%w: audit trail is staff only", ErrForbidden)
	}

	entries, total, err := s.repo.List(ctx, repository.ActivityLogFilter{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		ActorID:    filter.ActorID,
		Action:     filter.Action,
		EntityType: filter.EntityType,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewActivityResponseSlice(entries), total, nil
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("%w: action is required", ErrValidation)
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return fmt.Errorf("%w: entity type is required", ErrValidation)
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeActorRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist activity log")
		return err
	}

	return nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeActorRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}
