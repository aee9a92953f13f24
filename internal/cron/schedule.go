package cron

import (
	"fmt"
	"time"
)

// Schedule decides whether a job is due at a wall-clock time. Slot names the
// run window; a job runs at most once per slot.
type Schedule interface {
	Slot(now time.Time) (string, bool)
	String() string
}

// Daily is due during the given hour every day.
type Daily struct {
	Hour int
}

func (d Daily) Slot(now time.Time) (string, bool) {
	if now.Hour() != d.Hour {
		return "", false
	}
	return now.Format("2006-01-02"), true
}

func (d Daily) String() string { return fmt.Sprintf("daily %02d:00", d.Hour) }

// Weekly is due during the given hour on the given weekday.
type Weekly struct {
	Weekday time.Weekday
	Hour    int
}

func (w Weekly) Slot(now time.Time) (string, bool) {
	if now.Weekday() != w.Weekday || now.Hour() != w.Hour {
		return "", false
	}
	year, week := now.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week), true
}

func (w Weekly) String() string { return fmt.Sprintf("weekly %s %02d:00", w.Weekday, w.Hour) }

// Monthly is due during the given hour on the given day of the month.
type Monthly struct {
	Day  int
	Hour int
}

func (m Monthly) Slot(now time.Time) (string, bool) {
	if now.Day() != m.Day || now.Hour() != m.Hour {
		return "", false
	}
	return now.Format("2006-01"), true
}

func (m Monthly) String() string { return fmt.Sprintf("monthly day %d %02d:00", m.Day, m.Hour) }
