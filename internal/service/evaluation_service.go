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

// EvaluationService attaches evaluations to submissions. Attaching an
// evaluation to a freshly submitted submission also moves it to "reviewed"
// within the same transaction.
type EvaluationService interface {
	Add(ctx context.Context, submissionID uint, actor Actor, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error)
	ListBySubmission(ctx context.Context, submissionID uint, actor Actor) ([]dto.EvaluationResponse, error)
	Latest(ctx context.Context, submissionID uint, actor Actor) (*dto.EvaluationResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	submissions repository.SubmissionRepository
	uow         repository.UnitOfWork
	dispatcher  EventDispatcher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEvaluationService constructs the evaluation service.
func NewEvaluationService(
	evalRepo repository.EvaluationRepository,
	subRepo repository.SubmissionRepository,
	uow repository.UnitOfWork,
	dispatcher EventDispatcher,
	validate *validator.Validate,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		evaluations: evalRepo,
		submissions: subRepo,
		uow:         uow,
		dispatcher:  dispatcher,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/edufy-labs/challenge-api/internal/service/evaluation"),
		now:         time.Now,
	}
}

func (s *evaluationService) Add(ctx context.Context, submissionID uint, actor Actor, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	if !actor.IsStaff() {
		return dto.EvaluationResponse{}, fmt.Errorf("%w: only reviewers may evaluate submissions", ErrForbidden)
	}

	spanCtx, span := s.tracer.Start(ctx, "evaluation.add", trace.WithAttributes(
		attribute.Int64("evaluation.submission_id", int64(submissionID)),
		attribute.Int64("evaluation.evaluator_id", int64(actor.ID)),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(spanCtx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrSubmissionNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if !submission.IsOpenForReview() {
		span.SetStatus(codes.Error, "submission_not_reviewable")
		return dto.EvaluationResponse{}, fmt.Errorf("%w: submission is %s", ErrValidation, submission.Status)
	}

	now := s.now()
	evaluation := models.ChallengeEvaluation{
		SubmissionID:  submission.ID,
		EvaluatorID:   actor.ID,
		EvaluatorRole: actor.Role,
		Score:         payload.Score,
		Feedback:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback)),
		Visibility:    payload.Visibility,
		EvaluatedAt:   now,
	}

	oldStatus := submission.Status
	expectedVersion := submission.Version
	movesToReviewed := submission.Status == models.SubmissionStatusSubmitted ||
		submission.Status == models.SubmissionStatusResubmitted

	err = s.uow.Do(spanCtx, func(tx repository.TxRepos) error {
		if err := tx.Evaluations.Create(spanCtx, &evaluation); err != nil {
			return err
		}
		if movesToReviewed {
			reviewer := actor.ID
			submission.Status = models.SubmissionStatusReviewed
			submission.ReviewerID = &reviewer
			submission.ReviewedAt = &now
			if err := tx.Submissions.UpdateWithVersion(spanCtx, &submission, expectedVersion); err != nil {
				return err
			}
		}
		return tx.Activity.Create(spanCtx, &models.ActivityLog{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActionEvaluationAdded,
			EntityType: "evaluation",
			EntityID:   &evaluation.ID,
			Metadata: map[string]interface{}{
				"submission_id": submission.ID,
				"visibility":    evaluation.Visibility,
			},
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			span.SetStatus(codes.Error, "version_conflict")
			return dto.EvaluationResponse{}, ErrConflict
		}
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}

	s.logger.Info().
		Uint("evaluation_id", evaluation.ID).
		Uint("submission_id", submission.ID).
		Str("visibility", evaluation.Visibility).
		Msg("evaluation added")

	if movesToReviewed {
		observability.SubmissionTransitions().WithLabelValues(oldStatus, models.SubmissionStatusReviewed).Inc()
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(spanCtx, events.SubmissionEvaluated{
			SubmissionID:  submission.ID,
			ChallengeID:   submission.ChallengeID,
			StudentID:     submission.StudentID,
			EvaluationID:  evaluation.ID,
			EvaluatorID:   actor.ID,
			EvaluatorRole: actor.Role,
			Score:         payload.Score,
			Visibility:    evaluation.Visibility,
			OccurredAt:    now,
		})
		if movesToReviewed {
			s.dispatcher.Dispatch(spanCtx, events.SubmissionStatusChanged{
				SubmissionID: submission.ID,
				ChallengeID:  submission.ChallengeID,
				StudentID:    submission.StudentID,
				OldStatus:    oldStatus,
				NewStatus:    models.SubmissionStatusReviewed,
				ActorID:      actor.ID,
				OccurredAt:   now,
			})
		}
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) ListBySubmission(ctx context.Context, submissionID uint, actor Actor) ([]dto.EvaluationResponse, error) {
	if _, err := s.requireSubmission(ctx, submissionID); err != nil {
		return nil, err
	}

	evaluations, err := s.evaluations.ListBySubmission(ctx, submissionID, !actor.IsStaff())
	if err != nil {
		return nil, err
	}

	return dto.NewEvaluationResponseSlice(evaluations), nil
}

// Latest returns the newest evaluation the actor may see, or nil when none
// exists.
func (s *evaluationService) Latest(ctx context.Context, submissionID uint, actor Actor) (*dto.EvaluationResponse, error) {
	if _, err := s.requireSubmission(ctx, submissionID); err != nil {
		return nil, err
	}

	evaluation, err := s.evaluations.LatestBySubmission(ctx, submissionID, !actor.IsStaff())
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, nil
	}

	response := dto.NewEvaluationResponse(*evaluation)
	return &response, nil
}

func (s *evaluationService) requireSubmission(ctx context.Context, submissionID uint) (models.ChallengeSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ChallengeSubmission{}, ErrSubmissionNotFound
		}
		return models.ChallengeSubmission{}, err
	}
	return submission, nil
}
