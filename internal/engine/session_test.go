package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/speedtype/internal/model"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// runningSession returns a session that has finished its countdown at t0 and holds ref.
func runningSession(t *testing.T, ref string) *Session {
	t.Helper()
	s := NewSession(3, 60)
	require.NoError(t, s.Start())
	for i := 0; i < 3; i++ {
		s.Tick(t0)
	}
	require.Equal(t, PhaseRunning, s.Phase())
	require.True(t, s.SetReference(ref))
	return s
}

func TestSessionCountdownThenRunning(t *testing.T) {
	s := NewSession(0, 0)
	require.NoError(t, s.Start())
	snap := s.Snapshot()
	assert.Equal(t, PhaseCountingDown, snap.Phase)
	assert.Equal(t, DefaultCountdown, snap.CountdownRemaining)
	assert.True(t, snap.SentenceLoading)

	s.Tick(t0)
	s.Tick(t0)
	assert.Equal(t, 1, s.Snapshot().CountdownRemaining)
	s.Tick(t0)
	snap = s.Snapshot()
	assert.Equal(t, PhaseRunning, snap.Phase)
	assert.Equal(t, 0, snap.CountdownRemaining)
	assert.Equal(t, DefaultDuration, snap.TimeRemaining)
}

func TestSessionStartRequiresIdleOrFinished(t *testing.T) {
	s := NewSession(3, 60)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrInvalidPhase)
}

func TestSessionInputRejectedOutsideRunning(t *testing.T) {
	s := NewSession(3, 60)
	_, err := s.SetInput("a")
	assert.ErrorIs(t, err, ErrInvalidPhase)

	require.NoError(t, s.Start())
	_, err = s.SetInput("a")
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestSessionInputRejectedWhileLoading(t *testing.T) {
	s := NewSession(1, 60)
	require.NoError(t, s.Start())
	s.Tick(t0)
	require.Equal(t, PhaseRunning, s.Phase())
	_, err := s.SetInput("a")
	assert.ErrorIs(t, err, ErrInputDisabled)
}

func TestSessionSentenceCompletion(t *testing.T) {
	s := runningSession(t, "cat dog")

	done, err := s.SetInput("cat d")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, s.Snapshot().CompletedWords)

	done, err = s.SetInput("cat dog")
	require.NoError(t, err)
	assert.True(t, done)
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.TotalWords)
	assert.Equal(t, 0, snap.CompletedWords)
	assert.Equal(t, "", snap.Input)
	assert.True(t, snap.SentenceLoading)

	_, err = s.SetInput("x")
	assert.ErrorIs(t, err, ErrInputDisabled)

	require.True(t, s.SetReference("bird fish"))
	done, err = s.SetInput("bird fish")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 4, s.Snapshot().TotalWords)
}

func TestSessionErrorPositionsTrackCurrentInput(t *testing.T) {
	s := runningSession(t, "hello")
	_, err := s.SetInput("hxllo")
	require.NoError(t, err)
	assert.Equal(t, []model.ErrorPosition{{Char: "x", Expected: "e", Position: 1}}, s.Snapshot().Errors)

	_, err = s.SetInput("he")
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Errors)
}

func TestSessionFinishesAtZero(t *testing.T) {
	s := runningSession(t, "a b c d e f g h i j")
	for i := 0; i < 4; i++ {
		done, err := s.SetInput("a b c d e f g h i j")
		require.NoError(t, err)
		require.True(t, done)
		require.True(t, s.SetReference("a b c d e f g h i j"))
	}

	for i := 1; i < 60; i++ {
		assert.False(t, s.Tick(t0.Add(time.Duration(i)*time.Second)))
	}
	assert.Equal(t, 1, s.Snapshot().TimeRemaining)
	assert.True(t, s.Tick(t0.Add(60*time.Second)))
	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Equal(t, 0, s.Snapshot().TimeRemaining)

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 40, res.WPM)
	assert.Equal(t, 40, res.Words)
	assert.Equal(t, 100.0, res.Accuracy)

	assert.False(t, s.Tick(t0.Add(61*time.Second)))
	assert.Equal(t, 0, s.Snapshot().TimeRemaining)
}

func TestSessionFinalizeScoresPendingInput(t *testing.T) {
	s := NewSession(1, 2)
	require.NoError(t, s.Start())
	s.Tick(t0)
	require.True(t, s.SetReference("hello"))
	_, err := s.SetInput("hxllo")
	require.NoError(t, err)
	s.Tick(t0.Add(time.Second))
	require.True(t, s.Tick(t0.Add(2*time.Second)))

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 80.0, res.Accuracy)
	assert.Equal(t, 0, res.WPM)
	assert.Equal(t, []model.ErrorPosition{{Char: "x", Expected: "e", Position: 1}}, res.DetailedErrors)
}

func TestSessionFinalizeEmptyInput(t *testing.T) {
	s := NewSession(1, 1)
	require.NoError(t, s.Start())
	s.Tick(t0)
	require.True(t, s.Tick(t0))

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 100.0, res.Accuracy)
	assert.Equal(t, 0, res.WPM)
	assert.NotNil(t, res.DetailedErrors)
}

func TestSessionFinalizeRequiresFinished(t *testing.T) {
	s := runningSession(t, "abc")
	_, err := s.Finalize(t0)
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestSessionDropsLateReference(t *testing.T) {
	s := NewSession(1, 1)
	require.NoError(t, s.Start())
	s.Tick(t0)
	s.Tick(t0)
	require.Equal(t, PhaseFinished, s.Phase())
	assert.False(t, s.SetReference("too late"))
	assert.Equal(t, "", s.Reference())
}

func TestSessionIgnoresUnrequestedReference(t *testing.T) {
	s := runningSession(t, "first")
	assert.False(t, s.SetReference("second"))
	assert.Equal(t, "first", s.Reference())
}

func TestSessionResetAndRestart(t *testing.T) {
	s := runningSession(t, "abc")
	assert.ErrorIs(t, s.Reset(), ErrInvalidPhase)

	for i := 0; i < 60; i++ {
		s.Tick(t0.Add(time.Duration(i+1) * time.Second))
	}
	require.Equal(t, PhaseFinished, s.Phase())

	require.NoError(t, s.Start())
	snap := s.Snapshot()
	assert.Equal(t, PhaseCountingDown, snap.Phase)
	assert.Equal(t, 0, snap.TotalWords)
	assert.Nil(t, snap.Result)

	for i := 0; i < 63; i++ {
		s.Tick(t0)
	}
	require.NoError(t, s.Reset())
	assert.Equal(t, PhaseIdle, s.Phase())
	_, ok := s.Result()
	assert.False(t, ok)
}

func TestSessionRecordsPace(t *testing.T) {
	s := runningSession(t, "a b")
	_, err := s.SetInput("a ")
	require.NoError(t, err)
	s.Tick(t0.Add(30 * time.Second))
	_, err = s.SetInput("a b")
	require.NoError(t, err)
	s.Tick(t0.Add(60 * time.Second))

	pace := s.Snapshot().Pace
	require.Len(t, pace, 2)
	assert.InDelta(t, 2.0, pace[0], 1e-9)
	assert.InDelta(t, 2.0, pace[1], 1e-9)
}
