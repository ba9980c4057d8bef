package service

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/models"
	"github.com/edufy-labs/challenge-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeChallengeRepo struct {
	challenges   map[uint]models.Challenge
	increments   map[uint]int
	nextID       uint
	incrementErr error
}

func newFakeChallengeRepo(challenges ...models.Challenge) *fakeChallengeRepo {
	repo := &fakeChallengeRepo{
		challenges: make(map[uint]models.Challenge),
		increments: make(map[uint]int),
	}
	for _, challenge := range challenges {
		repo.challenges[challenge.ID] = challenge
		if challenge.ID > repo.nextID {
			repo.nextID = challenge.ID
		}
	}
	return repo
}

func (f *fakeChallengeRepo) List(ctx context.Context, filter repository.ChallengeFilter) ([]models.Challenge, error) {
	var result []models.Challenge
	for _, challenge := range f.challenges {
		if filter.Status != nil && challenge.Status != *filter.Status {
			continue
		}
		if filter.CreatorID != nil && challenge.CreatorID != *filter.CreatorID {
			continue
		}
		result = append(result, challenge)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeChallengeRepo) GetByID(ctx context.Context, id uint) (models.Challenge, error) {
	challenge, ok := f.challenges[id]
	if !ok {
		return models.Challenge{}, gorm.ErrRecordNotFound
	}
	return challenge, nil
}

func (f *fakeChallengeRepo) Create(ctx context.Context, challenge *models.Challenge) error {
	f.nextID++
	challenge.ID = f.nextID
	f.challenges[challenge.ID] = *challenge
	return nil
}

func (f *fakeChallengeRepo) Update(ctx context.Context, challenge *models.Challenge) error {
	if _, ok := f.challenges[challenge.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.challenges[challenge.ID] = *challenge
	return nil
}

func (f *fakeChallengeRepo) IncrementParticipants(ctx context.Context, id uint) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	challenge, ok := f.challenges[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if challenge.MaxParticipants > 0 && challenge.CurrentParticipants >= challenge.MaxParticipants {
		return repository.ErrChallengeFull
	}
	challenge.CurrentParticipants++
	f.challenges[id] = challenge
	f.increments[id]++
	return nil
}

type fakeSubmissionRepo struct {
	submissions map[uint]models.ChallengeSubmission
	nextID      uint
	updateErr   error
	updateCalls int
}

func newFakeSubmissionRepo(submissions ...models.ChallengeSubmission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{submissions: make(map[uint]models.ChallengeSubmission)}
	for _, submission := range submissions {
		repo.submissions[submission.ID] = submission
		if submission.ID > repo.nextID {
			repo.nextID = submission.ID
		}
	}
	return repo
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.ChallengeSubmission, error) {
	var result []models.ChallengeSubmission
	for _, submission := range f.submissions {
		if filter.ChallengeID != nil && submission.ChallengeID != *filter.ChallengeID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		result = append(result, submission)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.ChallengeSubmission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.ChallengeSubmission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.ChallengeSubmission) error {
	f.nextID++
	submission.ID = f.nextID
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) UpdateWithVersion(ctx context.Context, submission *models.ChallengeSubmission, expectedVersion int) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	current, ok := f.submissions[submission.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	submission.Version = expectedVersion + 1
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) ListOpenByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeSubmission, error) {
	var result []models.ChallengeSubmission
	for _, submission := range f.submissions {
		if submission.ChallengeID != challengeID || submission.Status == models.SubmissionStatusWithdrawn {
			continue
		}
		result = append(result, submission)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeEvaluationRepo struct {
	evaluations []models.ChallengeEvaluation
	nextID      uint
}

func (f *fakeEvaluationRepo) Create(ctx context.Context, evaluation *models.ChallengeEvaluation) error {
	f.nextID++
	evaluation.ID = f.nextID
	f.evaluations = append(f.evaluations, *evaluation)
	return nil
}

func (f *fakeEvaluationRepo) ListBySubmission(ctx context.Context, submissionID uint, studentVisibleOnly bool) ([]models.ChallengeEvaluation, error) {
	var result []models.ChallengeEvaluation
	for _, evaluation := range f.evaluations {
		if evaluation.SubmissionID != submissionID {
			continue
		}
		if studentVisibleOnly && !evaluation.VisibleToStudent() {
			continue
		}
		result = append(result, evaluation)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EvaluatedAt.After(result[j].EvaluatedAt) })
	return result, nil
}

func (f *fakeEvaluationRepo) LatestBySubmission(ctx context.Context, submissionID uint, studentVisibleOnly bool) (*models.ChallengeEvaluation, error) {
	evaluations, err := f.ListBySubmission(ctx, submissionID, studentVisibleOnly)
	if err != nil || len(evaluations) == 0 {
		return nil, err
	}
	latest := evaluations[0]
	return &latest, nil
}

type fakeCommentRepo struct {
	comments map[uint]models.SubmissionComment
	nextID   uint
}

func newFakeCommentRepo(comments ...models.SubmissionComment) *fakeCommentRepo {
	repo := &fakeCommentRepo{comments: make(map[uint]models.SubmissionComment)}
	for _, comment := range comments {
		repo.comments[comment.ID] = comment
		if comment.ID > repo.nextID {
			repo.nextID = comment.ID
		}
	}
	return repo
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *models.SubmissionComment) error {
	f.nextID++
	comment.ID = f.nextID
	f.comments[comment.ID] = *comment
	return nil
}

func (f *fakeCommentRepo) GetByID(ctx context.Context, id uint) (models.SubmissionComment, error) {
	comment, ok := f.comments[id]
	if !ok {
		return models.SubmissionComment{}, gorm.ErrRecordNotFound
	}
	return comment, nil
}

func (f *fakeCommentRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionComment, error) {
	var result []models.SubmissionComment
	for _, comment := range f.comments {
		if comment.SubmissionID == submissionID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeCommentRepo) AuthorIDsBySubmission(ctx context.Context, submissionID uint) ([]uint, error) {
	seen := make(map[uint]struct{})
	var result []uint
	comments, _ := f.ListBySubmission(ctx, submissionID)
	for _, comment := range comments {
		if _, ok := seen[comment.AuthorID]; ok {
			continue
		}
		seen[comment.AuthorID] = struct{}{}
		result = append(result, comment.AuthorID)
	}
	return result, nil
}

type fakeActivityRepo struct {
	entries []models.ActivityLog
}

func (f *fakeActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var result []models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

type fakeNotificationRepo struct {
	notifications []models.Notification
	createErr     error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	notification.ID = uint(len(f.notifications) + 1)
	f.notifications = append(f.notifications, *notification)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var result []models.Notification
	for _, notification := range f.notifications {
		if notification.UserID == userID {
			result = append(result, notification)
		}
	}
	return result, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	for _, notification := range f.notifications {
		if notification.UserID == userID && !notification.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID uint) (models.Notification, error) {
	for i, notification := range f.notifications {
		if notification.ID == id && notification.UserID == userID {
			f.notifications[i].Read = true
			return f.notifications[i], nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uint) error {
	for i, notification := range f.notifications {
		if notification.UserID == userID {
			f.notifications[i].Read = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) forUser(userID uint) []models.Notification {
	var result []models.Notification
	for _, notification := range f.notifications {
		if notification.UserID == userID {
			result = append(result, notification)
		}
	}
	return result
}

type fakePreferenceRepo struct {
	preferences map[string]models.NotificationPreference
}

func newFakePreferenceRepo(preferences ...models.NotificationPreference) *fakePreferenceRepo {
	repo := &fakePreferenceRepo{preferences: make(map[string]models.NotificationPreference)}
	for _, preference := range preferences {
		repo.preferences[prefKey(preference.UserID, preference.Type)] = preference
	}
	return repo
}

func prefKey(userID uint, notificationType string) string {
	return fmt.Sprintf("%d:%s", userID, notificationType)
}

func (f *fakePreferenceRepo) Get(ctx context.Context, userID uint, notificationType string) (*models.NotificationPreference, error) {
	preference, ok := f.preferences[prefKey(userID, notificationType)]
	if !ok {
		return nil, nil
	}
	return &preference, nil
}

func (f *fakePreferenceRepo) ListByUser(ctx context.Context, userID uint) ([]models.NotificationPreference, error) {
	var result []models.NotificationPreference
	for _, preference := range f.preferences {
		if preference.UserID == userID {
			result = append(result, preference)
		}
	}
	return result, nil
}

func (f *fakePreferenceRepo) Upsert(ctx context.Context, preference *models.NotificationPreference) error {
	f.preferences[prefKey(preference.UserID, preference.Type)] = *preference
	return nil
}

// fakeUnitOfWork runs callbacks against the same fakes the service holds, so
// assertions can inspect what the "transaction" wrote.
type fakeUnitOfWork struct {
	tx  repository.TxRepos
	err error
}

func (f *fakeUnitOfWork) Do(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f.tx)
}

type recordingDispatcher struct {
	events []interface{}
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, event interface{}) {
	d.events = append(d.events, event)
}

type fakeUploader struct {
	uploads []string
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "https://cdn.example.com/" + name
	f.uploads = append(f.uploads, url)
	return url, nil
}

type fakeBroadcaster struct {
	broadcasts []dto.NotificationResponse
	err        error
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, notification dto.NotificationResponse) error {
	if f.err != nil {
		return f.err
	}
	f.broadcasts = append(f.broadcasts, notification)
	return nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body, actionURL string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}
