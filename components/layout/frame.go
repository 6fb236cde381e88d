package layout

import (
	"sync"
	"time"
)

// FrameScheduler runs fn on the next display frame. The returned cancel func
// drops the callback if it has not fired yet.
type FrameScheduler interface {
	RequestFrame(fn func()) (cancel func())
}

// TimerScheduler approximates display frames with a fixed interval timer.
type TimerScheduler struct {
	Interval time.Duration
}

// NewTimerScheduler returns a scheduler ticking at fps frames per second
// (60 when fps is not positive).
func NewTimerScheduler(fps int) *TimerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TimerScheduler{Interval: time.Second / time.Duration(fps)}
}

// RequestFrame implements FrameScheduler.
func (s *TimerScheduler) RequestFrame(fn func()) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second / 60
	}
	var once sync.Once
	timer := time.AfterFunc(interval, func() {
		once.Do(fn)
	})
	return func() {
		timer.Stop()
		once.Do(func() {})
	}
}
