package links

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edufy-labs/challenge-api/internal/events"
	"github.com/edufy-labs/challenge-api/internal/models"
)

var allEventTypes = []string{
	events.TypeSubmissionCreated,
	events.TypeSubmissionEvaluated,
	events.TypeSubmissionStatusChanged,
	events.TypeCommentAdded,
	events.TypeChallengeCancelled,
}

var allRoles = []string{
	models.RoleStudent,
	models.RoleTeacher,
	models.RoleSchool,
	models.RoleAdmin,
	"moderator",
	"",
}

func TestResolveIsTotal(t *testing.T) {
	ids := EntityIDs{ChallengeID: 3, SubmissionID: 7}

	for _, eventType := range append(allEventTypes, "unknown.event") {
		for _, role := range allRoles {
			path := Resolve(eventType, role, ids)
			require.NotEmpty(t, path, "event %q role %q", eventType, role)
			require.Equal(t, byte('/'), path[0], "event %q role %q", eventType, role)
		}
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	ids := EntityIDs{ChallengeID: 3, SubmissionID: 7}

	for _, eventType := range allEventTypes {
		for _, role := range allRoles {
			first := Resolve(eventType, role, ids)
			for i := 0; i < 3; i++ {
				require.Equal(t, first, Resolve(eventType, role, ids))
			}
		}
	}
}

func TestResolveRoleSpecificPaths(t *testing.T) {
	ids := EntityIDs{ChallengeID: 3, SubmissionID: 7}

	cases := []struct {
		eventType string
		role      string
		want      string
	}{
		{events.TypeSubmissionCreated, models.RoleTeacher, "/review/submissions/7"},
		{events.TypeSubmissionCreated, models.RoleStudent, "/challenges/3"},
		{events.TypeSubmissionEvaluated, models.RoleStudent, "/student/submissions/7"},
		{events.TypeSubmissionEvaluated, models.RoleSchool, "/review/submissions/7"},
		{events.TypeSubmissionStatusChanged, models.RoleStudent, "/student/submissions/7"},
		{events.TypeCommentAdded, models.RoleStudent, "/student/submissions/7/comments"},
		{events.TypeCommentAdded, models.RoleTeacher, "/review/submissions/7/comments"},
		{events.TypeChallengeCancelled, models.RoleStudent, "/student/challenges/3"},
		{events.TypeChallengeCancelled, models.RoleTeacher, "/challenges/3"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Resolve(tc.eventType, tc.role, ids), "%s as %s", tc.eventType, tc.role)
	}
}

func TestResolveUnknownRoleFallsBack(t *testing.T) {
	ids := EntityIDs{ChallengeID: 3, SubmissionID: 7}

	require.Equal(t,
		Resolve(events.TypeSubmissionEvaluated, models.RoleStudent, ids),
		Resolve(events.TypeSubmissionEvaluated, "moderator", ids),
	)
}

func TestResolveMissingIDs(t *testing.T) {
	require.Equal(t, "/challenges", Resolve(events.TypeSubmissionCreated, models.RoleStudent, EntityIDs{}))
	require.Equal(t, "/student/submissions", Resolve(events.TypeSubmissionEvaluated, models.RoleStudent, EntityIDs{}))
	require.Equal(t, "/review/challenges/3", Resolve(events.TypeSubmissionCreated, models.RoleTeacher, EntityIDs{ChallengeID: 3}))
	require.Equal(t, "/challenges", Resolve("unknown.event", models.RoleAdmin, EntityIDs{ChallengeID: 3}))
}
