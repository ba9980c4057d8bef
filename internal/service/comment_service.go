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
	"gorm.io/gorm"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/events"
	"github.com/edufy-labs/challenge-api/internal/models"
	"github.com/edufy-labs/challenge-api/internal/repository"
)

// CommentService manages the comment thread attached to a submission.
// Threading is flat: a reply's parent must be a root comment.
type CommentService interface {
	Add(ctx context.Context, submissionID uint, actor Actor, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]dto.CommentResponse, error)
}

type commentService struct {
	comments    repository.CommentRepository
	submissions repository.SubmissionRepository
	dispatcher  EventDispatcher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCommentService constructs the comment service.
func NewCommentService(
	commentRepo repository.CommentRepository,
	subRepo repository.SubmissionRepository,
	dispatcher EventDispatcher,
	validate *validator.Validate,
	logger zerolog.Logger,
) CommentService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &commentService{
		comments:    commentRepo,
		submissions: subRepo,
		dispatcher:  dispatcher,
		validator:   validate,
		sanitizer:   policy,
		logger:      logger.With().Str("component", "comment_service").Logger(),
		now:         time.Now,
	}
}

func (s *commentService) Add(ctx context.Context, submissionID uint, actor Actor, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	sanitized := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if sanitized == "" {
		return dto.CommentResponse{}, fmt.Errorf("%w: comment empty after sanitization", ErrValidation)
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrSubmissionNotFound
		}
		return dto.CommentResponse{}, err
	}

	if payload.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *payload.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CommentResponse{}, ErrCommentNotFound
			}
			return dto.CommentResponse{}, err
		}
		if parent.SubmissionID != submission.ID {
			return dto.CommentResponse{}, fmt.Errorf("%w: parent comment belongs to another submission", ErrValidation)
		}
		if parent.IsReply() {
			return dto.CommentResponse{}, fmt.Errorf("%w: replies to replies are not supported", ErrValidation)
		}
	}

	comment := models.SubmissionComment{
		SubmissionID:     submission.ID,
		AuthorID:         actor.ID,
		Content:          sanitized,
		MentionedUserIDs: dedupeIDs(payload.Mentions),
		ParentID:         payload.ParentID,
	}

	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	s.logger.Info().
		Uint("comment_id", comment.ID).
		Uint("submission_id", submission.ID).
		Msg("comment added")

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, events.CommentAdded{
			CommentID:    comment.ID,
			SubmissionID: submission.ID,
			ChallengeID:  submission.ChallengeID,
			AuthorID:     actor.ID,
			Mentions:     comment.MentionedUserIDs,
			OccurredAt:   s.now(),
		})
	}

	return dto.NewCommentResponse(comment), nil
}

func (s *commentService) ListBySubmission(ctx context.Context, submissionID uint) ([]dto.CommentResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	comments, err := s.comments.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return dto.NewCommentResponseSlice(comments), nil
}

func dedupeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
