package models

import "time"

// Contest describes a timed assessment with a fixed problem set and entry window.
type Contest struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Title             string    `gorm:"size:255;not null" json:"title"`
	Slug              string    `gorm:"size:255;uniqueIndex" json:"slug"`
	StartsAt          time.Time `gorm:"not null" json:"starts_at"`
	EndsAt            time.Time `gorm:"not null" json:"ends_at"`
	DurationMinutes   int       `gorm:"not null" json:"duration_minutes"`
	ProctoringEnabled bool      `json:"proctoring_enabled"`
	Problems          []Problem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problems"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DurationSeconds returns the per-contestant time budget in seconds.
func (c Contest) DurationSeconds() int {
	return c.DurationMinutes * 60
}

// WindowContains reports whether now falls inside the contest entry window.
func (c Contest) WindowContains(now time.Time) bool {
	return !now.Before(c.StartsAt) && !now.After(c.EndsAt)
}

const (
	// DifficultyEasy is the default difficulty for unrecognized values.
	DifficultyEasy = "easy"
	// DifficultyMedium marks a medium-weight problem.
	DifficultyMedium = "medium"
	// DifficultyHard marks the highest-weight problem tier.
	DifficultyHard = "hard"
)

// Problem is one entry of a contest's ordered, fixed problem set.
type Problem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ContestID  uint      `gorm:"not null;index" json:"contest_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Difficulty string    `gorm:"size:16;not null" json:"difficulty"`
	Position   int       `gorm:"not null" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
