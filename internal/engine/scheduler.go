package engine

import (
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Handle is a scheduled callback that can be cancelled.
type Handle interface {
	// Cancel prevents the callback from running if it has not started yet.
	Cancel()
}

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type timerScheduler struct{}

type timerHandle struct {
	timer *time.Timer
}

func (h timerHandle) Cancel() {
	h.timer.Stop()
}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	return timerHandle{timer: time.AfterFunc(d, fn)}
}

// TimerScheduler returns a Scheduler backed by time.AfterFunc.
func TimerScheduler() Scheduler { return timerScheduler{} }
