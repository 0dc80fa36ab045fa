package util

import "time"

// Timer is a cancellable delayed task.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock access and delayed-task scheduling so the save
// debounce and the reward engine can run against a fake clock in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the real time package.
func SystemClock() Clock { return systemClock{} }

// DateKey formats an instant as a local calendar-day key (e.g. "2026-08-30").
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameLocalDay reports whether two instants fall on the same local calendar day.
func SameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ClampDayOfMonth returns the date for targetDay in the given month, clamping
// to the last day for months with fewer days (day 31 in February becomes
// Feb 28/29).
func ClampDayOfMonth(year int, month time.Month, targetDay int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDay {
		targetDay = lastDay
	}
	return time.Date(year, month, targetDay, 0, 0, 0, 0, time.UTC)
}
