package models

import "time"

// Evaluation visibility levels.
const (
	EvaluationVisibilityStudent = "student"
	EvaluationVisibilityTeacher = "teacher"
	EvaluationVisibilityAdmin   = "admin"
)

// ChallengeEvaluation is a scored judgment attached to a submission. A
// submission may carry several evaluations from different evaluator roles;
// "latest" is the one with the greatest EvaluatedAt.
type ChallengeEvaluation struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	SubmissionID  uint                `gorm:"not null;index" json:"submission_id"`
	EvaluatorID   uint                `gorm:"not null" json:"evaluator_id"`
	EvaluatorRole string              `gorm:"size:32;not null" json:"evaluator_role"`
	Score         *float64            `json:"score"`
	Feedback      string              `gorm:"type:text" json:"feedback"`
	Visibility    string              `gorm:"size:32;not null;default:student" json:"visibility"`
	EvaluatedAt   time.Time           `gorm:"index" json:"evaluated_at"`
	CreatedAt     time.Time           `json:"created_at"`
	Submission    ChallengeSubmission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// VisibleToStudent reports whether the owning student may see this evaluation.
func (e ChallengeEvaluation) VisibleToStudent() bool {
	return e.Visibility == EvaluationVisibilityStudent
}
