// Package links resolves role-specific deep links for notification actions.
// The mapping lives in one table so every notification type renders the same
// URL for the same (event, role) pair.
package links

import (
	"fmt"

	"github.com/edufy-labs/challenge-api/internal/events"
	"github.com/edufy-labs/challenge-api/internal/models"
)

// EntityIDs carries the identifiers available when resolving a link.
type EntityIDs struct {
	ChallengeID  uint
	SubmissionID uint
}

// roleKey falls back to "default" for unknown roles so Resolve stays total.
const roleDefault = "default"

type pathFunc func(ids EntityIDs) string

var routes = map[string]map[string]pathFunc{
	events.TypeSubmissionCreated: {
		models.RoleTeacher: submissionReviewPath,
		models.RoleSchool:  submissionReviewPath,
		models.RoleAdmin:   submissionReviewPath,
		roleDefault:        challengePath,
	},
	events.TypeSubmissionEvaluated: {
		models.RoleStudent: studentSubmissionPath,
		models.RoleTeacher: submissionReviewPath,
		models.RoleSchool:  submissionReviewPath,
		roleDefault:        studentSubmissionPath,
	},
	events.TypeSubmissionStatusChanged: {
		models.RoleStudent: studentSubmissionPath,
		models.RoleTeacher: submissionReviewPath,
		models.RoleSchool:  submissionReviewPath,
		roleDefault:        studentSubmissionPath,
	},
	events.TypeCommentAdded: {
		models.RoleStudent: studentCommentsPath,
		models.RoleTeacher: reviewCommentsPath,
		models.RoleSchool:  reviewCommentsPath,
		roleDefault:        studentCommentsPath,
	},
	events.TypeChallengeCancelled: {
		models.RoleStudent: studentChallengesPath,
		roleDefault:        challengePath,
	},
}

// Resolve returns the relative front-end path for an event as seen by the
// given role. It is total: unknown roles use the event's default entry and
// unknown events fall back to the challenge listing.
func Resolve(eventType, role string, ids EntityIDs) string {
	byRole, ok := routes[eventType]
	if !ok {
		return "/challenges"
	}

	path, ok := byRole[role]
	if !ok {
		path = byRole[roleDefault]
	}

	return path(ids)
}

func challengePath(ids EntityIDs) string {
	if ids.ChallengeID == 0 {
		return "/challenges"
	}
	return fmt.Sprintf("/challenges/%d", ids.ChallengeID)
}

func studentChallengesPath(ids EntityIDs) string {
	if ids.ChallengeID == 0 {
		return "/student/challenges"
	}
	return fmt.Sprintf("/student/challenges/%d", ids.ChallengeID)
}

func studentSubmissionPath(ids EntityIDs) string {
	if ids.SubmissionID == 0 {
		return "/student/submissions"
	}
	return fmt.Sprintf("/student/submissions/%d", ids.SubmissionID)
}

func submissionReviewPath(ids EntityIDs) string {
	if ids.SubmissionID == 0 {
		return fmt.Sprintf("/review/challenges/%d", ids.ChallengeID)
	}
	return fmt.Sprintf("/review/submissions/%d", ids.SubmissionID)
}

func studentCommentsPath(ids EntityIDs) string {
	return fmt.Sprintf("/student/submissions/%d/comments", ids.SubmissionID)
}

func reviewCommentsPath(ids EntityIDs) string {
	return fmt.Sprintf("/review/submissions/%d/comments", ids.SubmissionID)
}
