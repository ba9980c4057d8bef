package service

import "errors"

// Typed failures surfaced to the request boundary. Handlers map these onto
// HTTP statuses; none are fatal.
var (
	// ErrValidation indicates a missing or invalid field for the requested
	// operation. Wrap it with context: fmt.Errorf("%w: rating is required", ErrValidation).
	ErrValidation = errors.New("validation failed")

	// ErrForbidden indicates the actor lacks permission for the operation.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrChallengeNotFound indicates the referenced challenge is missing.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrSubmissionNotFound indicates the referenced submission is missing.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrCommentNotFound indicates the referenced comment is missing.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrChallengeClosed indicates a submission was attempted outside the
	// challenge's active window.
	ErrChallengeClosed = errors.New("challenge is not open for submissions")

	// ErrChallengeFull indicates the participant cap has been reached.
	ErrChallengeFull = errors.New("challenge participant limit reached")

	// ErrConflict indicates a concurrent transition won the race; the caller
	// should reload and retry.
	ErrConflict = errors.New("submission was modified concurrently")
)

// Actor is the already-authenticated user performing an operation. The core
// never authenticates; it only consumes what the auth middleware supplies.
type Actor struct {
	ID   uint
	Role string
}

// IsStaff reports whether the actor may review submissions.
func (a Actor) IsStaff() bool {
	switch a.Role {
	case "teacher", "school", "admin":
		return true
	}
	return false
}
