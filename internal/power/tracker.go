// Package power detects suspend/resume transitions by comparing elapsed
// monotonic time against an expected poll interval, corroborated by host
// uptime regression.
package power

import (
	"context"
	"time"
)

// DefaultResumeThresholdFactor is the multiplier applied to the expected
// interval: an elapsed gap beyond interval*factor is treated as a resume.
const DefaultResumeThresholdFactor = 3.0

// uptimeReader abstracts /proc/uptime for testability.
type uptimeReader func() (uint64, error)

// Tracker maintains the monotonic/uptime baseline used to detect resume
// from suspend.
type Tracker struct {
	lastCheck        time.Time
	lastUptime       uint64
	expectedInterval time.Duration
	thresholdFactor  float64
	readUptime       uptimeReader
}

// NewTracker creates a Tracker with the given expected poll interval. A
// zero thresholdFactor defaults to DefaultResumeThresholdFactor.
func NewTracker(expectedInterval time.Duration, thresholdFactor float64) *Tracker {
	if thresholdFactor == 0 {
		thresholdFactor = DefaultResumeThresholdFactor
	}
	t := &Tracker{
		expectedInterval: expectedInterval,
		thresholdFactor:  thresholdFactor,
		readUptime:       readProcUptime,
	}
	t.lastCheck = time.Now()
	if uptime, err := t.readUptime(); err == nil {
		t.lastUptime = uptime
	}
	return t
}

// Result is the outcome of a single Check call.
type Result struct {
	JustResumed bool
	IsIdle      bool
	ElapsedMs   int64
	CurrentUptime uint64
}

// Check compares elapsed monotonic time against the expected interval and
// current host uptime against the last-seen uptime. A gap far exceeding
// the expected interval, or an uptime that regressed (host rebooted),
// both indicate the process was asleep or the machine restarted.
func (t *Tracker) Check() Result {
	now := time.Now()
	elapsed := now.Sub(t.lastCheck)
	elapsedMs := elapsed.Milliseconds()

	currentUptime, err := t.readUptime()
	if err != nil {
		currentUptime = t.lastUptime
	}

	expectedMs := t.expectedInterval.Milliseconds()
	gapExceeded := expectedMs > 0 && float64(elapsedMs) > float64(expectedMs)*t.thresholdFactor
	uptimeRegressed := currentUptime < saturatingSub(t.lastUptime, 10)

	justResumed := gapExceeded || uptimeRegressed

	result := Result{
		JustResumed:   justResumed,
		IsIdle:        checkSessionIdle(),
		ElapsedMs:     elapsedMs,
		CurrentUptime: currentUptime,
	}

	t.lastCheck = now
	t.lastUptime = currentUptime
	return result
}

// ResetBaseline re-anchors the tracker to the current instant, preventing
// a just-detected resume from re-firing on the next tick.
func (t *Tracker) ResetBaseline() {
	t.lastCheck = time.Now()
	if uptime, err := t.readUptime(); err == nil {
		t.lastUptime = uptime
	}
}

// saturatingSub computes a-b without underflowing below zero.
func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// WaitForNetworkReady polls every 500ms until a non-tunnel interface is up
// and carries an IPv4 address, or the timeout elapses.
func WaitForNetworkReady(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	if networkReady() {
		return true
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if networkReady() {
				return true
			}
		}
	}
	return false
}
