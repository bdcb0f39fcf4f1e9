// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that
// debounce and timer logic can be tested deterministically.
//
// Production code accepts a Clock instead of calling time.Now,
// time.After, time.AfterFunc, or time.Sleep directly. Real() provides
// standard library behavior; Fake() provides a clock that advances
// only when Advance is called.
//
// When a goroutine registers a timer on a FakeClock, use
// WaitForTimers to block until the registration happened before
// calling Advance. This removes the race between timer registration
// and time advancement that otherwise forces tests onto real sleeps.
package clock

import "time"

// Clock abstracts the time operations accord uses. Production code
// injects Real(); tests inject Fake() with deterministic control.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine (real) or synchronously during Advance (fake). The
	// returned Timer can cancel the pending call with Stop.
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep pauses the calling goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Timer is a scheduled AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. Returns true if the call stops
// the timer, false if it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
