package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionComment is a comment on a submission thread. Threading is flat:
// a reply's parent must itself be a root comment.
type SubmissionComment struct {
	ID               uint                      `gorm:"primaryKey" json:"id"`
	SubmissionID     uint                      `gorm:"not null;index" json:"submission_id"`
	AuthorID         uint                      `gorm:"not null;index" json:"author_id"`
	Content          string                    `gorm:"type:text;not null" json:"content"`
	MentionedUserIDs datatypes.JSONSlice[uint] `gorm:"type:json" json:"mentioned_user_ids"`
	ParentID         *uint                     `gorm:"index" json:"parent_id"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
	Author           User                      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
}

// IsReply reports whether the comment is attached to a parent comment.
func (c SubmissionComment) IsReply() bool {
	return c.ParentID != nil
}
