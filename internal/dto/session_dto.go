package dto

import (
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// StartSessionRequest optionally carries a client-declared start moment.
// The server clock remains authoritative for expiry.
type StartSessionRequest struct {
	StartedAt *time.Time `json:"started_at"`
}

// StartSessionResponse reports the session the contestant is running under.
type StartSessionResponse struct {
	SessionID        uint      `json:"session_id"`
	Status           string    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Resumed          bool      `json:"resumed"`
}

// NewStartSessionResponse converts a session plus its computed clock state.
func NewStartSessionResponse(session models.Session, expiresAt time.Time, remainingSeconds int, resumed bool) StartSessionResponse {
	return StartSessionResponse{
		SessionID:        session.ID,
		Status:           session.Status,
		StartedAt:        session.StartedAt,
		ExpiresAt:        expiresAt,
		RemainingSeconds: remainingSeconds,
		Resumed:          resumed,
	}
}

// FinishSessionResponse reports the closed session after an early finish.
type FinishSessionResponse struct {
	SessionID       uint       `json:"session_id"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at"`
	DurationSeconds int        `json:"duration_seconds"`
}

// NewFinishSessionResponse converts a terminal session.
func NewFinishSessionResponse(session models.Session) FinishSessionResponse {
	duration := 0
	if session.DurationSeconds != nil {
		duration = *session.DurationSeconds
	}

	return FinishSessionResponse{
		SessionID:       session.ID,
		Status:          session.Status,
		StartedAt:       session.StartedAt,
		FinishedAt:      session.FinishedAt,
		DurationSeconds: duration,
	}
}

// TimerResponse is the payload of the timer endpoint.
type TimerResponse struct {
	HasStarted       bool   `json:"has_started"`
	HasExpired       bool   `json:"has_expired"`
	RemainingSeconds int    `json:"remaining_seconds"`
	ElapsedSeconds   int    `json:"elapsed_seconds"`
	SessionStatus    string `json:"session_status"`
	DurationMinutes  int    `json:"duration_minutes"`
}
