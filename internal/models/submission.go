package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses. Transitions are enforced by the submission service;
// the model only records the current state.
const (
	SubmissionStatusSubmitted   = "submitted"
	SubmissionStatusResubmitted = "resubmitted"
	SubmissionStatusReviewed    = "reviewed"
	SubmissionStatusApproved    = "approved"
	SubmissionStatusRejected    = "rejected"
	SubmissionStatusWithdrawn   = "withdrawn"
)

// ChallengeSubmission represents a student's attempt at a challenge.
type ChallengeSubmission struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	ChallengeID  uint                        `gorm:"not null;index" json:"challenge_id"`
	StudentID    uint                        `gorm:"not null;index" json:"student_id"`
	Files        datatypes.JSONSlice[string] `gorm:"type:json" json:"files"`
	Answer       string                      `gorm:"type:text" json:"answer"`
	Status       string                      `gorm:"size:32;not null;default:submitted" json:"status"`
	Feedback     string                      `gorm:"type:text" json:"feedback"`
	ReviewerID   *uint                       `gorm:"index" json:"reviewer_id"`
	Rating       *float64                    `json:"rating"`
	Badges       datatypes.JSONSlice[string] `gorm:"type:json" json:"badges"`
	PointsEarned int                         `gorm:"not null;default:0" json:"points_earned"`
	SubmittedAt  time.Time                   `json:"submitted_at"`
	ReviewedAt   *time.Time                  `json:"reviewed_at"`
	// Version implements optimistic locking so concurrent reviewers cannot
	// both win the same transition.
	Version   int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Challenge Challenge `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"challenge"`
	Student   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsTerminal reports whether no further transitions are allowed.
func (s ChallengeSubmission) IsTerminal() bool {
	return s.Status == SubmissionStatusWithdrawn
}

// IsOpenForReview reports whether a reviewer decision may still be recorded.
func (s ChallengeSubmission) IsOpenForReview() bool {
	switch s.Status {
	case SubmissionStatusSubmitted, SubmissionStatusResubmitted, SubmissionStatusReviewed:
		return true
	}
	return false
}
