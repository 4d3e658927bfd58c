package service

import (
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// TimerStatus is the server-authoritative view of a session clock.
type TimerStatus struct {
	HasStarted       bool
	HasExpired       bool
	RemainingSeconds int
	ElapsedSeconds   int
	ExpiresAt        *time.Time
}

// ComputeTimerStatus derives the timer state from the allocated budget, the
// stored session and the current time. It is a pure function: grading and
// expiry decisions must be reproducible from the same inputs.
func ComputeTimerStatus(durationSeconds int, session *models.Session, now time.Time) TimerStatus {
	if session == nil || session.StartedAt.IsZero() {
		return TimerStatus{
			HasStarted:       false,
			RemainingSeconds: durationSeconds,
		}
	}

	expiresAt := session.StartedAt.Add(time.Duration(durationSeconds) * time.Second)

	if session.IsTerminal() {
		elapsed := durationSeconds
		if session.DurationSeconds != nil {
			elapsed = *session.DurationSeconds
		}
		remaining := durationSeconds - elapsed
		if remaining < 0 {
			remaining = 0
		}

		return TimerStatus{
			HasStarted:       true,
			HasExpired:       true,
			RemainingSeconds: remaining,
			ElapsedSeconds:   elapsed,
			ExpiresAt:        &expiresAt,
		}
	}

	elapsed := int(now.Sub(session.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	remaining := durationSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}

	return TimerStatus{
		HasStarted:       true,
		HasExpired:       remaining == 0,
		RemainingSeconds: remaining,
		ElapsedSeconds:   elapsed,
		ExpiresAt:        &expiresAt,
	}
}
