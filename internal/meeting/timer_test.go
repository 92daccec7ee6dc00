package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New("s1", AllowListHost("h1"), epoch)
}

func TestTimerStart_IsIdempotentWhileRunning(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "A", DurationSec: 60})
	require.NoError(t, err)

	require.NoError(t, s.TimerStart(epoch))
	endsAt := *s.Timer.EndsAtMs
	require.NoError(t, s.TimerStart(epoch.Add(10*time.Second)))
	require.Equal(t, endsAt, *s.Timer.EndsAtMs)
	require.True(t, s.Timer.Running)
	require.Nil(t, s.Timer.PausedRemainingSec)
}

func TestTimerStart_RejectsEmptyDuration(t *testing.T) {
	s := newTestSession(t)
	require.ErrorIs(t, s.TimerStart(epoch), ErrTimerEmpty)
}

func TestTimerPause_RoundsUp(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "A", DurationSec: 60})
	require.NoError(t, err)
	require.NoError(t, s.TimerStart(epoch))

	require.NoError(t, s.TimerPause(epoch.Add(59*time.Second+100*time.Millisecond)))
	require.False(t, s.Timer.Running)
	require.Nil(t, s.Timer.EndsAtMs)
	require.Equal(t, 1, *s.Timer.PausedRemainingSec)
}

func TestTimer_PauseResumePauseNeverAddsTime(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "A", DurationSec: 90})
	require.NoError(t, err)
	require.NoError(t, s.TimerStart(epoch))

	now := epoch
	last := 90
	for i := 0; i < 20; i++ {
		now = now.Add(time.Duration(137*i) * time.Millisecond)
		require.NoError(t, s.TimerPause(now))
		paused := *s.Timer.PausedRemainingSec
		require.LessOrEqual(t, paused, last)
		last = paused
		require.NoError(t, s.TimerResume(now))
	}
}

func TestTimerResume_RequiresPause(t *testing.T) {
	s := newTestSession(t)
	require.ErrorIs(t, s.TimerResume(epoch), ErrTimerNotPaused)
}

func TestTimerReset_DiscardsExtension(t *testing.T) {
	s := newTestSession(t)
	item, err := s.AddItem(ItemInput{Title: "A", DurationSec: 60})
	require.NoError(t, err)
	require.True(t, s.SetActiveItem(item.ID, epoch))
	require.NoError(t, s.ExtendTimer(30, DefaultTimerPolicy, epoch))
	require.Equal(t, 90, s.Timer.RemainingSec(epoch))

	require.NoError(t, s.TimerStart(epoch))
	s.TimerReset()
	require.Equal(t, Timer{DurationSec: 60, BaseDurationSec: 60}, s.Timer)
}

func TestExtendTimer_AppliesToAuthoritativeField(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "A", DurationSec: 60})
	require.NoError(t, err)

	require.NoError(t, s.ExtendTimer(10, DefaultTimerPolicy, epoch))
	require.Equal(t, 70, s.Timer.DurationSec)

	require.NoError(t, s.TimerStart(epoch))
	require.NoError(t, s.ExtendTimer(5, DefaultTimerPolicy, epoch))
	require.Equal(t, 75, s.Timer.RemainingSec(epoch))

	require.NoError(t, s.TimerPause(epoch.Add(15*time.Second)))
	require.NoError(t, s.ExtendTimer(-20, DefaultTimerPolicy, epoch))
	require.Equal(t, 40, *s.Timer.PausedRemainingSec)
}

func TestExtendTimer_RejectsNegativeRemaining(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "A", DurationSec: 60})
	require.NoError(t, err)

	require.ErrorIs(t, s.ExtendTimer(-61, DefaultTimerPolicy, epoch), ErrTimerNegative)
	require.Equal(t, 60, s.Timer.DurationSec)
	require.NoError(t, s.ExtendTimer(-60, DefaultTimerPolicy, epoch))
	require.Equal(t, 0, s.Timer.DurationSec)
}

func TestExtendTimer_EnforcesCap(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "A", DurationSec: 300})
	require.NoError(t, err)
	policy := TimerPolicy{ExtendCapMultiple: 2, MinCapSec: 60}

	require.NoError(t, s.ExtendTimer(300, policy, epoch))
	require.ErrorIs(t, s.ExtendTimer(1, policy, epoch), ErrTimerExtendCap)
	require.NoError(t, s.ExtendTimer(-1, policy, epoch))
}

func TestExtendTimer_RejectsZero(t *testing.T) {
	s := newTestSession(t)
	require.ErrorIs(t, s.ExtendTimer(0, DefaultTimerPolicy, epoch), ErrMissingSeconds)
}

func TestExtendTimer_ExpiredRunningTimerExtendsFromNow(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "A", DurationSec: 10})
	require.NoError(t, err)
	require.NoError(t, s.TimerStart(epoch))

	late := epoch.Add(45 * time.Second)
	require.Equal(t, 0, s.Timer.RemainingSec(late))
	require.NoError(t, s.ExtendTimer(30, DefaultTimerPolicy, late))
	require.Equal(t, 30, s.Timer.RemainingSec(late))
}

func TestTimerPolicyCap(t *testing.T) {
	policy := TimerPolicy{ExtendCapMultiple: 3, MinCapSec: 600}
	require.Equal(t, 600, policy.Cap(0))
	require.Equal(t, 600, policy.Cap(120))
	require.Equal(t, 900, policy.Cap(300))
}

func TestScenario_ActivatePauseResumeExtend(t *testing.T) {
	s := newTestSession(t)
	a, err := s.AddItem(ItemInput{Title: "A", DurationSec: 60})
	require.NoError(t, err)
	_, err = s.AddItem(ItemInput{Title: "B", DurationSec: 120})
	require.NoError(t, err)

	require.True(t, s.SetActiveItem(a.ID, epoch))
	require.NoError(t, s.TimerStart(epoch))

	pausedAt := epoch.Add(12*time.Second + 400*time.Millisecond)
	require.NoError(t, s.TimerPause(pausedAt))
	paused := *s.Timer.PausedRemainingSec
	require.Equal(t, 48, paused)

	resumedAt := pausedAt.Add(5 * time.Second)
	require.NoError(t, s.TimerResume(resumedAt))
	require.NoError(t, s.ExtendTimer(30, DefaultTimerPolicy, resumedAt))

	remaining := s.Timer.RemainingSec(resumedAt)
	require.Equal(t, paused+30, remaining)
	require.GreaterOrEqual(t, s.Timer.RemainingSec(resumedAt.Add(time.Hour)), 0)
}
