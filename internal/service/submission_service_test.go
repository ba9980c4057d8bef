package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/events"
	"github.com/edufy-labs/challenge-api/internal/models"
	"github.com/edufy-labs/challenge-api/internal/repository"
)

func newSubmissionFixture(challenge models.Challenge, submissions ...models.ChallengeSubmission) (*submissionService, *fakeSubmissionRepo, *fakeChallengeRepo, *fakeActivityRepo, *recordingDispatcher) {
	challengeRepo := newFakeChallengeRepo(challenge)
	submissionRepo := newFakeSubmissionRepo(submissions...)
	activityRepo := &fakeActivityRepo{}
	dispatcher := &recordingDispatcher{}
	uow := &fakeUnitOfWork{tx: repository.TxRepos{
		Challenges:  challengeRepo,
		Submissions: submissionRepo,
		Activity:    activityRepo,
	}}

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(submissionRepo, challengeRepo, uow, dispatcher, validate, &fakeUploader{}, testLogger()).(*submissionService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	return svc, submissionRepo, challengeRepo, activityRepo, dispatcher
}

func activeChallenge() models.Challenge {
	return models.Challenge{
		ID:           1,
		CreatorID:    50,
		Title:        "Science Fair",
		Status:       models.ChallengeStatusActive,
		StartsAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Deadline:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PointsReward: 100,
		BadgesReward: []string{"finisher"},
	}
}

func TestSubmissionCreateOnlyStudents(t *testing.T) {
	svc, _, _, _, _ := newSubmissionFixture(activeChallenge())

	_, err := svc.Create(context.Background(), Actor{ID: 9, Role: models.RoleTeacher}, dto.SubmissionCreateRequest{ChallengeID: 1, Answer: "hi"}, nil)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSubmissionCreateRequiresContent(t *testing.T) {
	svc, _, _, _, _ := newSubmissionFixture(activeChallenge())

	_, err := svc.Create(context.Background(), Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionCreateRequest{ChallengeID: 1, Answer: "   "}, nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmissionCreateClosedChallenge(t *testing.T) {
	challenge := activeChallenge()
	challenge.Deadline = time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	svc, _, _, _, _ := newSubmissionFixture(challenge)

	_, err := svc.Create(context.Background(), Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionCreateRequest{ChallengeID: 1, Answer: "late"}, nil)
	require.ErrorIs(t, err, ErrChallengeClosed)
}

func TestSubmissionCreateFullChallenge(t *testing.T) {
	challenge := activeChallenge()
	challenge.MaxParticipants = 2
	challenge.CurrentParticipants = 2
	svc, _, _, _, _ := newSubmissionFixture(challenge)

	_, err := svc.Create(context.Background(), Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionCreateRequest{ChallengeID: 1, Answer: "me too"}, nil)
	require.ErrorIs(t, err, ErrChallengeFull)
}

func TestSubmissionCreateRaceForLastSlot(t *testing.T) {
	challenge := activeChallenge()
	challenge.MaxParticipants = 2
	challenge.CurrentParticipants = 1
	svc, _, challengeRepo, _, dispatcher := newSubmissionFixture(challenge)

	// Another student takes the last slot between the capacity read and the
	// counter write.
	challengeRepo.incrementErr = repository.ErrChallengeFull

	_, err := svc.Create(context.Background(), Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionCreateRequest{ChallengeID: 1, Answer: "just in time"}, nil)
	require.ErrorIs(t, err, ErrChallengeFull)
	require.Empty(t, dispatcher.events)
}

func TestSubmissionCreateIncrementsAndDispatches(t *testing.T) {
	svc, submissionRepo, challengeRepo, activityRepo, dispatcher := newSubmissionFixture(activeChallenge())

	created, err := svc.Create(context.Background(), Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionCreateRequest{ChallengeID: 1, Answer: "my project"}, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, created.Status)
	require.Equal(t, 1, challengeRepo.increments[1])
	require.Len(t, activityRepo.entries, 1)
	require.Equal(t, models.ActionSubmissionCreated, activityRepo.entries[0].Action)

	require.Len(t, dispatcher.events, 1)
	event, ok := dispatcher.events[0].(events.SubmissionCreated)
	require.True(t, ok)
	require.Equal(t, created.ID, event.SubmissionID)
	require.Equal(t, uint(9), event.StudentID)

	stored, err := submissionRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
}

func TestTransitionApproveRequiresRating(t *testing.T) {
	challenge := activeChallenge()
	svc, _, _, _, _ := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusReviewed,
		Challenge:   challenge,
	})

	_, err := svc.Transition(context.Background(), 5, Actor{ID: 50, Role: models.RoleTeacher}, dto.SubmissionTransitionRequest{Status: models.SubmissionStatusApproved})
	require.ErrorIs(t, err, ErrValidation)
}

func TestTransitionApproveAwardsPointsAndBadges(t *testing.T) {
	challenge := activeChallenge()
	svc, submissionRepo, _, _, dispatcher := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusReviewed,
		Challenge:   challenge,
	})

	rating := 4.5
	result, err := svc.Transition(context.Background(), 5, Actor{ID: 50, Role: models.RoleTeacher}, dto.SubmissionTransitionRequest{
		Status: models.SubmissionStatusApproved,
		Rating: &rating,
		Badges: []string{"creative"},
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusApproved, result.Status)
	require.Equal(t, 100, result.PointsEarned)
	require.ElementsMatch(t, []string{"creative", "finisher"}, result.Badges)
	require.NotNil(t, result.Rating)
	require.Equal(t, 4.5, *result.Rating)

	stored, err := submissionRepo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Version)

	require.Len(t, dispatcher.events, 1)
	event := dispatcher.events[0].(events.SubmissionStatusChanged)
	require.Equal(t, models.SubmissionStatusReviewed, event.OldStatus)
	require.Equal(t, models.SubmissionStatusApproved, event.NewStatus)
}

func TestTransitionRatingRoundedToTenth(t *testing.T) {
	challenge := activeChallenge()
	svc, submissionRepo, _, _, _ := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusSubmitted,
		Challenge:   challenge,
	})

	rating := 4.73
	result, err := svc.Transition(context.Background(), 5, Actor{ID: 50, Role: models.RoleTeacher}, dto.SubmissionTransitionRequest{
		Status: models.SubmissionStatusReviewed,
		Rating: &rating,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Rating)
	require.Equal(t, 4.7, *result.Rating)

	stored, err := submissionRepo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 4.7, *stored.Rating)
}

func TestTransitionRejectRequiresFeedback(t *testing.T) {
	challenge := activeChallenge()
	svc, _, _, _, _ := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusSubmitted,
		Challenge:   challenge,
	})

	empty := "   "
	_, err := svc.Transition(context.Background(), 5, Actor{ID: 50, Role: models.RoleTeacher}, dto.SubmissionTransitionRequest{
		Status:   models.SubmissionStatusRejected,
		Feedback: &empty,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestTransitionResubmitClearsReviewState(t *testing.T) {
	challenge := activeChallenge()
	rating := 2.0
	reviewer := uint(50)
	reviewedAt := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	svc, submissionRepo, _, _, _ := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:           5,
		ChallengeID:  1,
		StudentID:    9,
		Status:       models.SubmissionStatusRejected,
		Feedback:     "needs work",
		Rating:       &rating,
		ReviewerID:   &reviewer,
		ReviewedAt:   &reviewedAt,
		PointsEarned: 0,
		Challenge:    challenge,
	})

	result, err := svc.Transition(context.Background(), 5, Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionTransitionRequest{Status: models.SubmissionStatusResubmitted})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusResubmitted, result.Status)
	require.Empty(t, result.Feedback)
	require.Nil(t, result.Rating)
	require.Nil(t, result.ReviewerID)
	require.Nil(t, result.ReviewedAt)
	require.Zero(t, result.PointsEarned)

	stored, err := submissionRepo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, svc.now(), stored.SubmittedAt)
}

func TestTransitionResubmitOwnerOnly(t *testing.T) {
	challenge := activeChallenge()
	svc, _, _, _, _ := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusRejected,
		Challenge:   challenge,
	})

	_, err := svc.Transition(context.Background(), 5, Actor{ID: 77, Role: models.RoleStudent}, dto.SubmissionTransitionRequest{Status: models.SubmissionStatusResubmitted})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestTransitionWithdrawIsTerminal(t *testing.T) {
	challenge := activeChallenge()
	svc, _, _, _, dispatcher := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusWithdrawn,
		Challenge:   challenge,
	})

	_, err := svc.Transition(context.Background(), 5, Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionTransitionRequest{Status: models.SubmissionStatusResubmitted})
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, dispatcher.events)
}

func TestTransitionStudentCannotApprove(t *testing.T) {
	challenge := activeChallenge()
	svc, _, _, _, _ := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusReviewed,
		Challenge:   challenge,
	})

	rating := 5.0
	_, err := svc.Transition(context.Background(), 5, Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionTransitionRequest{
		Status: models.SubmissionStatusApproved,
		Rating: &rating,
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestTransitionVersionConflict(t *testing.T) {
	challenge := activeChallenge()
	svc, submissionRepo, _, _, _ := newSubmissionFixture(challenge, models.ChallengeSubmission{
		ID:          5,
		ChallengeID: 1,
		StudentID:   9,
		Status:      models.SubmissionStatusSubmitted,
		Version:     0,
		Challenge:   challenge,
	})
	submissionRepo.updateErr = repository.ErrVersionConflict

	_, err := svc.Transition(context.Background(), 5, Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionTransitionRequest{Status: models.SubmissionStatusWithdrawn})
	require.ErrorIs(t, err, ErrConflict)
}

func TestTransitionUnknownSubmission(t *testing.T) {
	svc, _, _, _, _ := newSubmissionFixture(activeChallenge())

	_, err := svc.Transition(context.Background(), 404, Actor{ID: 9, Role: models.RoleStudent}, dto.SubmissionTransitionRequest{Status: models.SubmissionStatusWithdrawn})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
