package meeting

import (
	"math"
	"time"
)

// TimerPolicy bounds manual extensions. Remaining time may never exceed
// max(Base*ExtendCapMultiple, MinCapSec).
type TimerPolicy struct {
	ExtendCapMultiple float64
	MinCapSec         int
}

var DefaultTimerPolicy = TimerPolicy{ExtendCapMultiple: 3, MinCapSec: 600}

func (p TimerPolicy) Cap(baseSec int) int {
	capSec := int(math.Ceil(float64(baseSec) * p.ExtendCapMultiple))
	if capSec < p.MinCapSec {
		capSec = p.MinCapSec
	}
	return capSec
}

// RemainingSec derives whole remaining seconds at now. Running timers round
// up so a countdown never shows zero while time is left.
func (t Timer) RemainingSec(now time.Time) int {
	switch {
	case t.EndsAtMs != nil:
		return ceilSeconds(*t.EndsAtMs - msOf(now))
	case t.PausedRemainingSec != nil:
		return *t.PausedRemainingSec
	default:
		return t.DurationSec
	}
}

func (t Timer) Paused() bool {
	return t.PausedRemainingSec != nil
}

func ceilSeconds(ms int64) int {
	if ms <= 0 {
		return 0
	}
	return int((ms + 999) / 1000)
}

// TimerStart is a no-op while running and resumes a paused timer.
func (s *Session) TimerStart(now time.Time) error {
	if s.Timer.Running {
		return nil
	}
	if s.Timer.Paused() {
		return s.TimerResume(now)
	}
	if s.Timer.DurationSec <= 0 {
		return ErrTimerEmpty
	}
	s.Timer.Running = true
	s.Timer.EndsAtMs = int64Ptr(msOf(now) + int64(s.Timer.DurationSec)*1000)
	return nil
}

// TimerPause is a no-op unless running.
func (s *Session) TimerPause(now time.Time) error {
	if !s.Timer.Running || s.Timer.EndsAtMs == nil {
		return nil
	}
	remaining := ceilSeconds(*s.Timer.EndsAtMs - msOf(now))
	s.Timer.Running = false
	s.Timer.EndsAtMs = nil
	s.Timer.PausedRemainingSec = intPtr(remaining)
	return nil
}

func (s *Session) TimerResume(now time.Time) error {
	if s.Timer.Running {
		return nil
	}
	if !s.Timer.Paused() {
		return ErrTimerNotPaused
	}
	remaining := *s.Timer.PausedRemainingSec
	s.Timer.Running = true
	s.Timer.PausedRemainingSec = nil
	s.Timer.EndsAtMs = int64Ptr(msOf(now) + int64(remaining)*1000)
	return nil
}

// TimerReset stops the countdown at the current item's configured duration,
// discarding any extension.
func (s *Session) TimerReset() {
	s.resetTimerTo(s.configuredDuration())
}

func (s *Session) resetTimerTo(durationSec int) {
	s.Timer = Timer{DurationSec: durationSec, BaseDurationSec: durationSec}
}

func (s *Session) configuredDuration() int {
	if item := s.item(s.CurrentAgendaItemID); item != nil {
		return item.DurationSec
	}
	return s.Timer.BaseDurationSec
}

// ExtendTimer adds deltaSec (which may be negative) to whichever field is
// authoritative for the current timer state.
func (s *Session) ExtendTimer(deltaSec int, policy TimerPolicy, now time.Time) error {
	if deltaSec == 0 {
		return ErrMissingSeconds
	}
	next := s.Timer.RemainingSec(now) + deltaSec
	if next < 0 {
		return ErrTimerNegative
	}
	if deltaSec > 0 && next > policy.Cap(s.Timer.BaseDurationSec) {
		return ErrTimerExtendCap
	}
	switch {
	case s.Timer.EndsAtMs != nil:
		// An expired countdown extends from now, not from its past deadline.
		base := max(*s.Timer.EndsAtMs, msOf(now))
		s.Timer.EndsAtMs = int64Ptr(base + int64(deltaSec)*1000)
	case s.Timer.Paused():
		s.Timer.PausedRemainingSec = intPtr(*s.Timer.PausedRemainingSec + deltaSec)
	default:
		s.Timer.DurationSec += deltaSec
	}
	return nil
}
