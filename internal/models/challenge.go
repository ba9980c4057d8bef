package models

import (
	"time"

	"gorm.io/datatypes"
)

// Challenge statuses.
const (
	ChallengeStatusDraft     = "draft"
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
	ChallengeStatusCancelled = "cancelled"
)

// Challenge represents a time-boxed activity students can submit work for.
type Challenge struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	CreatorID           uint                        `gorm:"not null;index" json:"creator_id"`
	SchoolID            *uint                       `gorm:"index" json:"school_id"`
	Title               string                      `gorm:"size:255;not null" json:"title"`
	Description         string                      `gorm:"type:text" json:"description"`
	Category            string                      `gorm:"size:64" json:"category"`
	AgeGroup            string                      `gorm:"size:32" json:"age_group"`
	StartsAt            time.Time                   `json:"starts_at"`
	Deadline            time.Time                   `json:"deadline"`
	Status              string                      `gorm:"size:32;not null;default:draft" json:"status"`
	PointsReward        int                         `gorm:"not null;default:0" json:"points_reward"`
	BadgesReward        datatypes.JSONSlice[string] `gorm:"type:json" json:"badges_reward"`
	MaxParticipants     int                         `gorm:"not null;default:0" json:"max_participants"`
	CurrentParticipants int                         `gorm:"not null;default:0" json:"current_participants"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
	Creator             User                        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"creator"`
}

// IsOpen reports whether the challenge accepts submissions at the given time.
func (c Challenge) IsOpen(now time.Time) bool {
	if c.Status != ChallengeStatusActive {
		return false
	}
	if !c.StartsAt.IsZero() && now.Before(c.StartsAt) {
		return false
	}
	return c.Deadline.IsZero() || now.Before(c.Deadline)
}

// IsFull reports whether the participant cap has been reached.
func (c Challenge) IsFull() bool {
	return c.MaxParticipants > 0 && c.CurrentParticipants >= c.MaxParticipants
}

// IsTerminal reports whether the challenge can no longer change state.
func (c Challenge) IsTerminal() bool {
	return c.Status == ChallengeStatusCompleted || c.Status == ChallengeStatusCancelled
}
