package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arena-go-api/internal/models"
)

func TestComputeTimerStatusNotStarted(t *testing.T) {
	status := ComputeTimerStatus(3600, nil, time.Now())

	require.False(t, status.HasStarted)
	require.False(t, status.HasExpired)
	require.Equal(t, 3600, status.RemainingSeconds)
	require.Zero(t, status.ElapsedSeconds)
	require.Nil(t, status.ExpiresAt)
}

func TestComputeTimerStatusRunning(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	session := &models.Session{StartedAt: started, Status: models.SessionStatusActive}

	status := ComputeTimerStatus(3600, session, started.Add(25*time.Minute))

	require.True(t, status.HasStarted)
	require.False(t, status.HasExpired)
	require.Equal(t, 1500, status.ElapsedSeconds)
	require.Equal(t, 2100, status.RemainingSeconds)
	require.Equal(t, started.Add(time.Hour), *status.ExpiresAt)
}

func TestComputeTimerStatusExpiredWhileActive(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	session := &models.Session{StartedAt: started, Status: models.SessionStatusActive}

	status := ComputeTimerStatus(3600, session, started.Add(65*time.Minute))

	require.True(t, status.HasExpired)
	require.Zero(t, status.RemainingSeconds)
	require.Equal(t, 3900, status.ElapsedSeconds)
}

func TestComputeTimerStatusFrozenAfterFinish(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	finished := started.Add(20 * time.Minute)
	duration := 1200
	session := &models.Session{
		StartedAt:       started,
		FinishedAt:      &finished,
		Status:          models.SessionStatusFinished,
		DurationSeconds: &duration,
	}

	// The frozen view must not drift no matter how much later it is computed.
	early := ComputeTimerStatus(3600, session, finished)
	late := ComputeTimerStatus(3600, session, finished.Add(48*time.Hour))

	require.Equal(t, early, late)
	require.True(t, late.HasExpired)
	require.Equal(t, 1200, late.ElapsedSeconds)
	require.Equal(t, 2400, late.RemainingSeconds)
}

func TestComputeTimerStatusClockSkewClampsToZero(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	session := &models.Session{StartedAt: started, Status: models.SessionStatusActive}

	status := ComputeTimerStatus(3600, session, started.Add(-time.Minute))

	require.Zero(t, status.ElapsedSeconds)
	require.Equal(t, 3600, status.RemainingSeconds)
}

func TestComputeTimerStatusIsPure(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	session := &models.Session{StartedAt: started, Status: models.SessionStatusActive}
	now := started.Add(10 * time.Minute)

	first := ComputeTimerStatus(3600, session, now)
	second := ComputeTimerStatus(3600, session, now)

	require.Equal(t, first, second)
}
