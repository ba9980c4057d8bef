package models

import "time"

// Role labels assigned to platform accounts.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleSchool  = "school"
	RoleAdmin   = "admin"
)

// User represents a platform account of any role.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;index" json:"role"`
	SchoolID  *uint     `gorm:"index" json:"school_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStaff reports whether the user may review submissions.
func (u User) IsStaff() bool {
	return u.Role == RoleTeacher || u.Role == RoleSchool || u.Role == RoleAdmin
}
