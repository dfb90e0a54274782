// Package scheduler implements the three callback scheduling modes the
// engine supports: absolute time-of-day, relative to each race's start
// time, and cron expressions.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xlatomapp/racebacktest/internal/apperror"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

// Mode identifies which of the three scheduling strategies an Entry uses.
type Mode string

const (
	ModeAbsolute Mode = "absolute"
	ModeRelative Mode = "relative"
	ModeCron     Mode = "cron"
)

// Callback is a schedule's payload. Strategy-arg callbacks receive the
// bound strategy; zero-arg callbacks receive nothing. The engine decides
// which form to call based on WantsStrategy.
type Callback func(strategy interface{})

// Entry is a single registered schedule: exactly one of TimeOfDay, Offset,
// or CronExpression is set, matching its Mode.
type Entry struct {
	Callback      Callback
	WantsStrategy bool
	Name          string
	Mode          Mode

	TimeOfDay      time.Duration // time-of-day, offset from midnight, for ModeAbsolute
	Offset         time.Duration // offset from race start, for ModeRelative
	CronExpression string        // for ModeCron

	NextDue *time.Time

	relativeLastIndex   int
	relativeTargetIndex int
	cronSchedule        cron.Schedule
}

// NewAbsolute creates a schedule entry that fires once a day at timeOfDay
// (an offset from midnight UTC).
func NewAbsolute(name string, timeOfDay time.Duration, cb Callback, wantsStrategy bool) *Entry {
	return &Entry{Callback: cb, WantsStrategy: wantsStrategy, Name: name, Mode: ModeAbsolute, TimeOfDay: timeOfDay}
}

// NewRelative creates a schedule entry that fires offset after each race's
// start time.
func NewRelative(name string, offset time.Duration, cb Callback, wantsStrategy bool) *Entry {
	return &Entry{Callback: cb, WantsStrategy: wantsStrategy, Name: name, Mode: ModeRelative, Offset: offset}
}

// NewCron creates a schedule entry driven by a standard 5-field cron
// expression.
func NewCron(name, expr string, cb Callback, wantsStrategy bool) (*Entry, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, apperror.NewInvalidSchedule("invalid cron expression: " + err.Error())
	}
	return &Entry{Callback: cb, WantsStrategy: wantsStrategy, Name: name, Mode: ModeCron, CronExpression: expr, cronSchedule: sched}, nil
}

// ResetForRun clears cached scheduling state before a new engine run
// starts (or a schedule is registered mid-run).
func (e *Entry) ResetForRun() {
	e.NextDue = nil
	e.relativeLastIndex = -1
	e.relativeTargetIndex = -1
	if e.Mode == ModeCron {
		sched, _ := cron.ParseStandard(e.CronExpression)
		e.cronSchedule = sched
	}
}

// Prepare computes the entry's first due time for a run. tick is the
// engine's tick interval; cron schedules look for their next activation
// starting one tick before current, so a cron boundary that falls inside
// the most recent tick window is still caught at startup.
func (e *Entry) Prepare(current time.Time, races []models.Race, tick time.Duration, timelineEnd time.Time) {
	current = current.UTC()
	switch e.Mode {
	case ModeAbsolute:
		due := e.nextAbsolute(current, true)
		e.NextDue = &due
	case ModeRelative:
		e.relativeLastIndex = -1
		e.computeRelativeNext(current, races)
	case ModeCron:
		next := e.cronSchedule.Next(current.Add(-tick))
		e.NextDue = &next
	}
	e.clampToTimeline(timelineEnd)
}

// Advance moves the entry to its next due time after firing.
func (e *Entry) Advance(current time.Time, races []models.Race, timelineEnd time.Time) {
	current = current.UTC()
	switch e.Mode {
	case ModeAbsolute:
		due := e.nextAbsolute(current, false)
		e.NextDue = &due
	case ModeRelative:
		e.relativeLastIndex = e.relativeTargetIndex
		e.computeRelativeNext(current, races)
	case ModeCron:
		next := e.cronSchedule.Next(current)
		e.NextDue = &next
	}
	e.clampToTimeline(timelineEnd)
}

func (e *Entry) clampToTimeline(timelineEnd time.Time) {
	if e.NextDue != nil && e.NextDue.After(timelineEnd) {
		e.NextDue = nil
	}
}

// nextAbsolute returns the next occurrence of TimeOfDay at or after
// current. allowEqual controls whether exactly-now counts as due (true
// when preparing a fresh run, false when advancing past a firing that just
// happened).
func (e *Entry) nextAbsolute(current time.Time, allowEqual bool) time.Time {
	midnight := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
	candidate := midnight.Add(e.TimeOfDay)
	if candidate.Before(current) || (candidate.Equal(current) && !allowEqual) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}

// computeRelativeNext scans races (already sorted by date) starting just
// after the last-processed index for the next one whose offset trigger
// time is still at or after current.
func (e *Entry) computeRelativeNext(current time.Time, races []models.Race) {
	start := e.relativeLastIndex + 1
	if start < 0 {
		start = 0
	}
	for idx := start; idx < len(races); idx++ {
		trigger := races[idx].Date.UTC().Add(e.Offset)
		if !trigger.Before(current) {
			e.relativeTargetIndex = idx
			due := trigger
			e.NextDue = &due
			return
		}
	}
	e.NextDue = nil
	e.relativeTargetIndex = len(races)
}
