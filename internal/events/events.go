// Package events defines the domain events produced by the submission
// lifecycle and consumed by the notification dispatcher.
package events

import "time"

// Event discriminators.
const (
	TypeSubmissionCreated       = "submission.created"
	TypeSubmissionEvaluated     = "submission.evaluated"
	TypeSubmissionStatusChanged = "submission.status_changed"
	TypeCommentAdded            = "comment.added"
	TypeChallengeCancelled      = "challenge.cancelled"
)

// SubmissionCreated is emitted once when a student submits to a challenge.
type SubmissionCreated struct {
	SubmissionID uint
	ChallengeID  uint
	StudentID    uint
	OccurredAt   time.Time
}

// SubmissionStatusChanged is emitted exactly once per status transition.
type SubmissionStatusChanged struct {
	SubmissionID uint
	ChallengeID  uint
	StudentID    uint
	OldStatus    string
	NewStatus    string
	ActorID      uint
	OccurredAt   time.Time
}

// SubmissionEvaluated is emitted when an evaluation is attached to a
// submission, in addition to any status change the evaluation caused.
type SubmissionEvaluated struct {
	SubmissionID  uint
	ChallengeID   uint
	StudentID     uint
	EvaluationID  uint
	EvaluatorID   uint
	EvaluatorRole string
	Score         *float64
	Visibility    string
	OccurredAt    time.Time
}

// CommentAdded is emitted when a comment lands on a submission thread.
type CommentAdded struct {
	CommentID    uint
	SubmissionID uint
	ChallengeID  uint
	AuthorID     uint
	Mentions     []uint
	OccurredAt   time.Time
}

// ChallengeCancelled is emitted when a challenge is cancelled while
// submissions are in flight; each auto-withdrawn submission additionally
// emits its own SubmissionStatusChanged.
type ChallengeCancelled struct {
	ChallengeID uint
	ActorID     uint
	OccurredAt  time.Time
}
