package models

import "time"

const (
	// SessionStatusActive marks a running timed attempt.
	SessionStatusActive = "active"
	// SessionStatusFinished marks an attempt the contestant closed themselves.
	SessionStatusFinished = "finished"
	// SessionStatusExpired marks an attempt forcibly closed because the time budget ran out.
	SessionStatusExpired = "expired"
)

// Session is one contestant's single timed attempt on a contest.
// At most one row per (contest, user) may be active at a time; transitions
// out of active are terminal.
type Session struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ContestID       uint       `gorm:"not null;index:idx_sessions_contest_user" json:"contest_id"`
	UserID          uint       `gorm:"not null;index:idx_sessions_contest_user" json:"user_id"`
	StartedAt       time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at"`
	Status          string     `gorm:"size:16;not null;index" json:"status"`
	DurationSeconds *int       `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the session can no longer transition.
func (s Session) IsTerminal() bool {
	return s.Status == SessionStatusFinished || s.Status == SessionStatusExpired
}
