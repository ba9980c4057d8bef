package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/events"
	"github.com/edufy-labs/challenge-api/internal/models"
	"github.com/edufy-labs/challenge-api/internal/observability"
	"github.com/edufy-labs/challenge-api/internal/repository"
)

// ChallengeService manages the challenge lifecycle.
type ChallengeService interface {
	List(ctx context.Context, filter dto.ChallengeFilter) ([]dto.ChallengeResponse, error)
	GetByID(ctx context.Context, id uint) (dto.ChallengeResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.ChallengeCreateRequest) (dto.ChallengeResponse, error)
	// UpdateStatus applies a lifecycle transition. Cancelling a challenge
	// auto-withdraws every non-terminal submission in the same transaction.
	UpdateStatus(ctx context.Context, id uint, actor Actor, payload dto.ChallengeStatusRequest) (dto.ChallengeResponse, error)
}

type challengeService struct {
	challenges  repository.ChallengeRepository
	submissions repository.SubmissionRepository
	uow         repository.UnitOfWork
	dispatcher  EventDispatcher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewChallengeService constructs the challenge service.
func NewChallengeService(
	challengeRepo repository.ChallengeRepository,
	subRepo repository.SubmissionRepository,
	uow repository.UnitOfWork,
	dispatcher EventDispatcher,
	validate *validator.Validate,
	logger zerolog.Logger,
) ChallengeService {
	return &challengeService{
		challenges:  challengeRepo,
		submissions: subRepo,
		uow:         uow,
		dispatcher:  dispatcher,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "challenge_service").Logger(),
		tracer:      otel.Tracer("github.com/edufy-labs/challenge-api/internal/service/challenge"),
		now:         time.Now,
	}
}

func (s *challengeService) List(ctx context.Context, filter dto.ChallengeFilter) ([]dto.ChallengeResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	challenges, err := s.challenges.List(ctx, repository.ChallengeFilter{
		CreatorID: filter.CreatorID,
		SchoolID:  filter.SchoolID,
		Status:    filter.Status,
		Category:  filter.Category,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewChallengeResponseSlice(challenges), nil
}

func (s *challengeService) GetByID(ctx context.Context, id uint) (dto.ChallengeResponse, error) {
	challenge, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChallengeResponse{}, ErrChallengeNotFound
		}
		return dto.ChallengeResponse{}, err
	}

	return dto.NewChallengeResponse(challenge), nil
}

func (s *challengeService) Create(ctx context.Context, actor Actor, payload dto.ChallengeCreateRequest) (dto.ChallengeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChallengeResponse{}, err
	}

	if !actor.IsStaff() {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: only teachers, schools and admins create challenges", ErrForbidden)
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	if title == "" {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: title empty after sanitization", ErrValidation)
	}

	challenge := models.Challenge{
		CreatorID:       actor.ID,
		SchoolID:        payload.SchoolID,
		Title:           title,
		Description:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Category:        payload.Category,
		AgeGroup:        payload.AgeGroup,
		StartsAt:        payload.StartsAt,
		Deadline:        payload.Deadline,
		Status:          models.ChallengeStatusDraft,
		PointsReward:    payload.PointsReward,
		BadgesReward:    payload.BadgesReward,
		MaxParticipants: payload.MaxParticipants,
	}

	if err := s.challenges.Create(ctx, &challenge); err != nil {
		return dto.ChallengeResponse{}, err
	}

	s.logger.Info().Uint("challenge_id", challenge.ID).Msg("challenge created")

	return dto.NewChallengeResponse(challenge), nil
}

func (s *challengeService) UpdateStatus(ctx context.Context, id uint, actor Actor, payload dto.ChallengeStatusRequest) (dto.ChallengeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChallengeResponse{}, err
	}

	if !actor.IsStaff() {
		return dto.ChallengeResponse{}, fmt.Errorf("%w: only staff may change challenge status", ErrForbidden)
	}

	spanCtx, span := s.tracer.Start(ctx, "challenge.update_status", trace.WithAttributes(
		attribute.Int64("challenge.id", int64(id)),
		attribute.String("challenge.target_status", payload.Status),
	))
	defer span.End()

	challenge, err := s.challenges.GetByID(spanCtx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChallengeResponse{}, ErrChallengeNotFound
		}
		return dto.ChallengeResponse{}, err
	}

	if err := validateChallengeTransition(challenge.Status, payload.Status, actor); err != nil {
		span.SetStatus(codes.Error, "transition_rejected")
		return dto.ChallengeResponse{}, err
	}

	oldStatus := challenge.Status
	challenge.Status = payload.Status
	now := s.now()

	var withdrawn []events.SubmissionStatusChanged

	err = s.uow.Do(spanCtx, func(tx repository.TxRepos) error {
		if err := tx.Challenges.Update(spanCtx, &challenge); err != nil {
			return err
		}

		if payload.Status == models.ChallengeStatusCancelled {
			open, err := tx.Submissions.ListOpenByChallenge(spanCtx, challenge.ID)
			if err != nil {
				return err
			}
			for i := range open {
				submission := open[i]
				old := submission.Status
				submission.Status = models.SubmissionStatusWithdrawn
				if err := tx.Submissions.UpdateWithVersion(spanCtx, &submission, submission.Version); err != nil {
					return err
				}
				withdrawn = append(withdrawn, events.SubmissionStatusChanged{
					SubmissionID: submission.ID,
					ChallengeID:  challenge.ID,
					StudentID:    submission.StudentID,
					OldStatus:    old,
					NewStatus:    models.SubmissionStatusWithdrawn,
					ActorID:      actor.ID,
					OccurredAt:   now,
				})
			}
		}

		return tx.Activity.Create(spanCtx, &models.ActivityLog{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActionChallengeStatus,
			EntityType: "challenge",
			EntityID:   &challenge.ID,
			Metadata: map[string]interface{}{
				"old_status": oldStatus,
				"new_status": challenge.Status,
			},
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return dto.ChallengeResponse{}, ErrConflict
		}
		span.RecordError(err)
		return dto.ChallengeResponse{}, err
	}

	s.logger.Info().
		Uint("challenge_id", challenge.ID).
		Str("old_status", oldStatus).
		Str("new_status", challenge.Status).
		Int("withdrawn_submissions", len(withdrawn)).
		Msg("challenge status changed")

	for _, event := range withdrawn {
		observability.SubmissionTransitions().WithLabelValues(event.OldStatus, event.NewStatus).Inc()
	}

	if s.dispatcher != nil {
		if payload.Status == models.ChallengeStatusCancelled {
			s.dispatcher.Dispatch(spanCtx, events.ChallengeCancelled{
				ChallengeID: challenge.ID,
				ActorID:     actor.ID,
				OccurredAt:  now,
			})
		}
		for _, event := range withdrawn {
			s.dispatcher.Dispatch(spanCtx, event)
		}
	}

	return dto.NewChallengeResponse(challenge), nil
}

func validateChallengeTransition(from, to string, actor Actor) error {
	if from == to {
		return fmt.Errorf("%w: challenge already %s", ErrValidation, to)
	}

	// Admins may override terminal states.
	if actor.Role == models.RoleAdmin {
		return nil
	}

	allowed := map[string][]string{
		models.ChallengeStatusDraft:  {models.ChallengeStatusActive, models.ChallengeStatusCancelled},
		models.ChallengeStatusActive: {models.ChallengeStatusCompleted, models.ChallengeStatusCancelled},
	}

	for _, target := range allowed[from] {
		if target == to {
			return nil
		}
	}

	return fmt.Errorf("%w: cannot transition challenge from %s to %s", ErrValidation, from, to)
}
