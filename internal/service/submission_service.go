package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
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

// FileUploader stores submission files and returns their URI.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// EventDispatcher receives domain events after a transition commits.
// Delivery is best-effort: dispatch failures never roll back the transition.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event interface{})
}

// SubmissionService is the submission lifecycle manager. It validates and
// applies status transitions, awards points and badges atomically with the
// status write, and emits domain events.
type SubmissionService interface {
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	Transition(ctx context.Context, id uint, actor Actor, payload dto.SubmissionTransitionRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	challenges  repository.ChallengeRepository
	uow         repository.UnitOfWork
	dispatcher  EventDispatcher
	validator   *validator.Validate
	uploader    FileUploader
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs the lifecycle manager.
func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	challengeRepo repository.ChallengeRepository,
	uow repository.UnitOfWork,
	dispatcher EventDispatcher,
	validate *validator.Validate,
	uploader FileUploader,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		challenges:  challengeRepo,
		uow:         uow,
		dispatcher:  dispatcher,
		validator:   validate,
		uploader:    uploader,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/edufy-labs/challenge-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		ChallengeID: filter.ChallengeID,
		StudentID:   filter.StudentID,
		Status:      filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if actor.Role != models.RoleStudent {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: only students submit to challenges", ErrForbidden)
	}

	if len(files) == 0 && strings.TrimSpace(payload.Answer) == "" {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: a file or an answer is required", ErrValidation)
	}

	spanCtx, span := s.tracer.Start(ctx, "submission.create", trace.WithAttributes(
		attribute.Int64("submission.challenge_id", int64(payload.ChallengeID)),
		attribute.Int64("submission.student_id", int64(actor.ID)),
	))
	defer span.End()

	challenge, err := s.challenges.GetByID(spanCtx, payload.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrChallengeNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	if !challenge.IsOpen(now) {
		span.SetStatus(codes.Error, "challenge_closed")
		return dto.SubmissionResponse{}, ErrChallengeClosed
	}
	if challenge.IsFull() {
		span.SetStatus(codes.Error, "challenge_full")
		return dto.SubmissionResponse{}, ErrChallengeFull
	}

	fileURLs, err := s.uploadFiles(spanCtx, files)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.ChallengeSubmission{
		ChallengeID: challenge.ID,
		StudentID:   actor.ID,
		Files:       fileURLs,
		Answer:      strings.TrimSpace(payload.Answer),
		Status:      models.SubmissionStatusSubmitted,
		SubmittedAt: now,
	}

	err = s.uow.Do(spanCtx, func(tx repository.TxRepos) error {
		if err := tx.Submissions.Create(spanCtx, &submission); err != nil {
			return err
		}
		if err := tx.Challenges.IncrementParticipants(spanCtx, challenge.ID); err != nil {
			return err
		}
		return tx.Activity.Create(spanCtx, &models.ActivityLog{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActionSubmissionCreated,
			EntityType: "submission",
			EntityID:   &submission.ID,
		})
	})
	if err != nil {
		// Another student may have taken the last slot after the IsFull read.
		if errors.Is(err, repository.ErrChallengeFull) {
			span.SetStatus(codes.Error, "challenge_full")
			return dto.SubmissionResponse{}, ErrChallengeFull
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(spanCtx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", created.ID).Uint("challenge_id", challenge.ID).Msg("submission created")

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(spanCtx, events.SubmissionCreated{
			SubmissionID: created.ID,
			ChallengeID:  challenge.ID,
			StudentID:    actor.ID,
			OccurredAt:   now,
		})
	}

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) Transition(ctx context.Context, id uint, actor Actor, payload dto.SubmissionTransitionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "submission.transition", trace.WithAttributes(
		attribute.Int64("submission.id", int64(id)),
		attribute.String("submission.target_status", payload.Status),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(spanCtx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	oldStatus := submission.Status
	expectedVersion := submission.Version

	if err := s.applyTransition(&submission, actor, payload); err != nil {
		span.SetStatus(codes.Error, "transition_rejected")
		return dto.SubmissionResponse{}, err
	}

	err = s.uow.Do(spanCtx, func(tx repository.TxRepos) error {
		if err := tx.Submissions.UpdateWithVersion(spanCtx, &submission, expectedVersion); err != nil {
			return err
		}
		return tx.Activity.Create(spanCtx, &models.ActivityLog{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActionSubmissionTransition,
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"old_status": oldStatus,
				"new_status": submission.Status,
			},
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			span.SetStatus(codes.Error, "version_conflict")
			return dto.SubmissionResponse{}, ErrConflict
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionTransitions().WithLabelValues(oldStatus, submission.Status).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("old_status", oldStatus).
		Str("new_status", submission.Status).
		Msg("submission transitioned")

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(spanCtx, events.SubmissionStatusChanged{
			SubmissionID: submission.ID,
			ChallengeID:  submission.ChallengeID,
			StudentID:    submission.StudentID,
			OldStatus:    oldStatus,
			NewStatus:    submission.Status,
			ActorID:      actor.ID,
			OccurredAt:   s.now(),
		})
	}

	updated, err := s.submissions.GetByID(spanCtx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(updated), nil
}

// applyTransition mutates the submission in memory according to the state
// machine. Callers persist the result with an optimistic version check.
func (s *submissionService) applyTransition(submission *models.ChallengeSubmission, actor Actor, payload dto.SubmissionTransitionRequest) error {
	now := s.now()

	switch payload.Status {
	case models.SubmissionStatusReviewed:
		if !actor.IsStaff() {
			return fmt.Errorf("%w: only reviewers may mark submissions reviewed", ErrForbidden)
		}
		if submission.Status != models.SubmissionStatusSubmitted && submission.Status != models.SubmissionStatusResubmitted {
			return invalidTransition(submission.Status, payload.Status)
		}
		s.recordReview(submission, actor, payload, now)

	case models.SubmissionStatusApproved:
		if !actor.IsStaff() {
			return fmt.Errorf("%w: only reviewers may approve submissions", ErrForbidden)
		}
		if !submission.IsOpenForReview() {
			return invalidTransition(submission.Status, payload.Status)
		}
		if payload.Rating == nil && submission.Rating == nil {
			return fmt.Errorf("%w: rating is required for approval", ErrValidation)
		}
		s.recordReview(submission, actor, payload, now)
		submission.PointsEarned = submission.Challenge.PointsReward
		submission.Badges = mergeBadges(submission.Badges, payload.Badges, submission.Challenge.BadgesReward)

	case models.SubmissionStatusRejected:
		if !actor.IsStaff() {
			return fmt.Errorf("%w: only reviewers may reject submissions", ErrForbidden)
		}
		if !submission.IsOpenForReview() {
			return invalidTransition(submission.Status, payload.Status)
		}
		if payload.Feedback == nil || strings.TrimSpace(*payload.Feedback) == "" {
			return fmt.Errorf("%w: feedback is required for rejection", ErrValidation)
		}
		s.recordReview(submission, actor, payload, now)

	case models.SubmissionStatusResubmitted:
		if actor.ID != submission.StudentID {
			return fmt.Errorf("%w: only the owning student may resubmit", ErrForbidden)
		}
		switch submission.Status {
		case models.SubmissionStatusReviewed, models.SubmissionStatusApproved, models.SubmissionStatusRejected:
		default:
			return invalidTransition(submission.Status, payload.Status)
		}
		// A resubmission starts a fresh review cycle; the comment thread
		// keeps the prior history.
		submission.Feedback = ""
		submission.Rating = nil
		submission.ReviewerID = nil
		submission.ReviewedAt = nil
		submission.PointsEarned = 0
		submission.Badges = nil
		submission.SubmittedAt = now

	case models.SubmissionStatusWithdrawn:
		if actor.ID != submission.StudentID {
			return fmt.Errorf("%w: only the owning student may withdraw", ErrForbidden)
		}
		if submission.IsTerminal() {
			return invalidTransition(submission.Status, payload.Status)
		}

	default:
		return invalidTransition(submission.Status, payload.Status)
	}

	submission.Status = payload.Status
	return nil
}

func (s *submissionService) recordReview(submission *models.ChallengeSubmission, actor Actor, payload dto.SubmissionTransitionRequest, now time.Time) {
	reviewer := actor.ID
	submission.ReviewerID = &reviewer
	submission.ReviewedAt = &now
	if payload.Feedback != nil {
		submission.Feedback = strings.TrimSpace(*payload.Feedback)
	}
	if payload.Rating != nil {
		// Ratings are stored at one-decimal precision.
		rating := math.Round(*payload.Rating*10) / 10
		submission.Rating = &rating
	}
}

func (s *submissionService) uploadFiles(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, file := range files {
		if err := validateSubmissionFile(file); err != nil {
			return nil, err
		}

		reader, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}

		url, err := s.uploader.Upload(ctx, file.Filename, reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to upload file: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, nil
}

func validateSubmissionFile(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{
		"application/pdf",
		"application/zip",
		"application/x-zip-compressed",
		"image/png",
		"image/jpeg",
		"text/plain",
	}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: unsupported file type %s", ErrValidation, mime.String())
}

func invalidTransition(from, to string) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrValidation, from, to)
}

func mergeBadges(sets ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, set := range sets {
		for _, badge := range set {
			if _, ok := seen[badge]; ok {
				continue
			}
			seen[badge] = struct{}{}
			merged = append(merged, badge)
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}
