// Package engine implements the event-driven backtest loop: seeding race
// and payoff events from the data repository, pumping the priority queue,
// and running schedules and strategy hooks in deterministic order.
package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/xlatomapp/racebacktest/internal/apperror"
	"github.com/xlatomapp/racebacktest/internal/betting"
	"github.com/xlatomapp/racebacktest/internal/clock"
	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/queue"
	"github.com/xlatomapp/racebacktest/internal/racerepo"
	"github.com/xlatomapp/racebacktest/internal/scheduler"
	"github.com/xlatomapp/racebacktest/internal/strategy"
	"go.uber.org/zap"
)

// Config bundles the dependencies an Engine is built from.
type Config struct {
	DataRepository    racerepo.Repository
	BettingRepository betting.Repository
	// Clock is optional; a SimulatedClock is used automatically when
	// DataRepository is a *racerepo.SimulationRepository, otherwise a
	// RealClock.
	Clock clock.Clock
	// TickInterval is how often the engine wakes on a real clock, and how
	// far before the start time cron schedules look for their first
	// activation. A simulated clock schedules its next tick at the earliest
	// pending event or schedule instead. It must be positive.
	TickInterval time.Duration
	Logger       *zap.Logger
}

// Engine is a single-use event-driven run of one strategy against one
// data/betting repository pair.
type Engine struct {
	dataRepository    racerepo.Repository
	bettingRepository betting.Repository
	clock             clock.Clock
	tickInterval      time.Duration
	logger            *zap.Logger

	schedules []*scheduler.Entry
	queue     *queue.Queue

	races       []models.Race
	timelineEnd time.Time
	nextTick    *time.Time
	running     bool
}

// New constructs an Engine from cfg. TickInterval must be positive.
func New(cfg Config) (*Engine, error) {
	if cfg.TickInterval <= 0 {
		return nil, apperror.NewInvalidSchedule("tick interval must be a positive value")
	}
	c := cfg.Clock
	if c == nil {
		if _, ok := cfg.DataRepository.(*racerepo.SimulationRepository); ok {
			c = clock.NewSimulatedClock(nil)
		} else {
			c = clock.NewRealClock()
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		dataRepository:    cfg.DataRepository,
		bettingRepository: cfg.BettingRepository,
		clock:             c,
		tickInterval:      cfg.TickInterval,
		logger:            logger,
		queue:             queue.New(),
	}, nil
}

// Now returns the engine clock's current time. Implements
// strategy.EngineFacade.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// DataRepository returns the engine's data repository. Implements
// strategy.EngineFacade.
func (e *Engine) DataRepository() racerepo.Repository { return e.dataRepository }

// BettingRepository returns the engine's betting repository. Implements
// strategy.EngineFacade.
func (e *Engine) BettingRepository() betting.Repository { return e.bettingRepository }

// AddSchedule registers a new schedule entry. If the engine is already
// running, the entry is prepared immediately and the next tick is
// recomputed, mirroring schedules registered from inside on_start or a
// running strategy hook.
func (e *Engine) AddSchedule(entry *scheduler.Entry) error {
	e.schedules = append(e.schedules, entry)
	if e.running {
		entry.ResetForRun()
		e.timelineEnd = e.computeTimelineEnd()
		entry.Prepare(e.clock.Now(), e.races, e.tickInterval, e.timelineEnd)
		e.scheduleNextTick()
	}
	return nil
}

// SubmitBet enqueues a bet request event. Implements strategy.EngineFacade.
func (e *Engine) SubmitBet(request events.BetRequestEvent) {
	if request.PlacedAt.IsZero() {
		request.PlacedAt = e.clock.Now()
	}
	request.PlacedAt = request.PlacedAt.UTC()
	e.queue.Push(request.PlacedAt, request)
}

// Run executes the engine loop for strategy until the event queue is
// exhausted.
func (e *Engine) Run(strat strategy.Strategy) error {
	e.queue = queue.New()
	e.nextTick = nil
	strat.Bind(e)

	races := append([]models.Race(nil), e.dataRepository.IterRaces()...)
	sort.Slice(races, func(i, j int) bool { return races[i].Date.Before(races[j].Date) })
	e.races = races

	var startTime time.Time
	if _, ok := e.clock.(*clock.SimulatedClock); ok {
		if len(races) > 0 {
			startTime = races[0].Date.UTC()
		} else {
			startTime = time.Now().UTC()
		}
	} else {
		startTime = e.clock.Now()
	}
	e.clock.Reset(&startTime)
	e.timelineEnd = startTime.UTC()
	e.running = true
	defer func() {
		e.running = false
		e.nextTick = nil
		e.timelineEnd = time.Time{}
	}()

	strat.OnStart()
	e.timelineEnd = e.computeTimelineEnd()
	now := e.clock.Now()
	for _, entry := range e.schedules {
		entry.ResetForRun()
		entry.Prepare(now, e.races, e.tickInterval, e.timelineEnd)
	}

	for _, race := range e.races {
		availableAt := now
		if publish, ok := e.dataRepository.GetPublishTime(race.RaceID, racerepo.DataTypeRace); ok {
			availableAt = publish.UTC()
		} else {
			availableAt = race.Date.UTC()
		}
		if availableAt.Before(now) {
			availableAt = now
		}
		e.queue.Push(availableAt, events.DataEvent{Kind: events.DataKindRace, Race: race, AvailableAt: availableAt})

		if publish, ok := e.dataRepository.GetPublishTime(race.RaceID, racerepo.DataTypePayoff); ok {
			publishTime := publish.UTC()
			if publishTime.Before(availableAt) {
				publishTime = availableAt
			}
			if publishTime.Before(now) {
				publishTime = now
			}
			e.queue.Push(publishTime, events.DataEvent{Kind: events.DataKindPayoff, Race: race, AvailableAt: publishTime})
		}
	}

	initialTick := e.clock.Now()
	e.nextTick = &initialTick
	e.queue.PushFront(initialTick, events.TimeEvent{Name: "tick", ScheduledFor: initialTick})

	return e.processEvents(strat)
}

func (e *Engine) processEvents(strat strategy.Strategy) error {
	// payoffPublished records races whose payoff DataEvent has already been
	// delivered; only those are settled when a later bet is confirmed.
	payoffPublished := make(map[string]bool)
	for {
		scheduledFor, event, ok := e.queue.Pop()
		if !ok {
			return nil
		}
		scheduledFor = scheduledFor.UTC()

		switch ev := event.(type) {
		case events.TimeEvent:
			e.nextTick = nil
			ev.ScheduledFor = scheduledFor
			e.clock.AdvanceTo(scheduledFor)
			strat.OnTime(ev)
			if err := e.runDueSchedules(strat, scheduledFor); err != nil {
				return err
			}
			e.scheduleNextTick()

		case events.DataEvent:
			ev.AvailableAt = scheduledFor
			e.clock.AdvanceTo(ev.AvailableAt)
			if ev.Kind == events.DataKindPayoff {
				ev.Payoffs = e.dataRepository.GetPayoffs(ev.Race.RaceID)
				payoffPublished[ev.Race.RaceID] = true
			}
			strat.OnData(ev)
			if ev.Kind == events.DataKindPayoff {
				settled, err := e.bettingRepository.SettleRace(ev.Race.RaceID)
				if err != nil {
					return fmt.Errorf("settle race %s: %w", ev.Race.RaceID, err)
				}
				if len(settled) > 0 {
					e.queue.Push(e.clock.Now(), events.ResultEvent{RaceID: ev.Race.RaceID, SettledAt: e.clock.Now()})
				}
			}

		case events.BetRequestEvent:
			ev.PlacedAt = scheduledFor
			e.clock.AdvanceTo(ev.PlacedAt)
			confirmation := e.bettingRepository.PlaceBet(ev.RaceID, ev.Combination, ev.Stake, ev.BetType, ev.PlacedAt)
			e.queue.PushFront(confirmation.PlacedAt, confirmation)

		case events.BetConfirmationEvent:
			ev.PlacedAt = scheduledFor
			e.clock.AdvanceTo(ev.PlacedAt)
			if ev.Accepted {
				position, err := e.bettingRepository.ConfirmBet(ev)
				if err != nil {
					return fmt.Errorf("confirm bet %s: %w", ev.BetID, err)
				}
				ev.Position = position
				if payoffPublished[ev.RaceID] {
					settled, err := e.bettingRepository.SettleRace(ev.RaceID)
					if err != nil {
						return fmt.Errorf("settle race %s: %w", ev.RaceID, err)
					}
					if len(settled) > 0 {
						e.queue.Push(e.clock.Now(), events.ResultEvent{RaceID: ev.RaceID, SettledAt: e.clock.Now()})
					}
				}
			}
			strat.OnBet(ev)

		case events.ResultEvent:
			ev.SettledAt = scheduledFor
			e.clock.AdvanceTo(ev.SettledAt)
			strat.OnResult(ev)

		default:
			return fmt.Errorf("unsupported event type %T", event)
		}
	}
}

func (e *Engine) runDueSchedules(strat strategy.Strategy, currentTime time.Time) error {
	if e.timelineEnd.IsZero() {
		return nil
	}
	now := currentTime.UTC()
	for _, entry := range e.schedules {
		for entry.NextDue != nil && !now.Before(*entry.NextDue) {
			e.invokeSchedule(entry, strat)
			entry.Advance(now, e.races, e.timelineEnd)
		}
	}
	return nil
}

func (e *Engine) invokeSchedule(entry *scheduler.Entry, strat strategy.Strategy) {
	if entry.WantsStrategy {
		entry.Callback(strat)
	} else {
		entry.Callback(nil)
	}
}

// scheduleNextTick enqueues the next tick event if one is needed, honoring
// the policy that a pending tick is never replaced by a later one.
func (e *Engine) scheduleNextTick() {
	if !e.running {
		return
	}
	hasSchedule := false
	for _, entry := range e.schedules {
		if entry.NextDue != nil {
			hasSchedule = true
			break
		}
	}
	if !e.queue.HasNonTimeEvent() && !hasSchedule {
		return
	}

	now := e.clock.Now().UTC()
	var nextTickTime time.Time
	if _, ok := e.clock.(*clock.SimulatedClock); ok {
		candidates := e.queue.PendingTimes(now)
		for _, entry := range e.schedules {
			if entry.NextDue != nil && entry.NextDue.After(now) {
				candidates = append(candidates, *entry.NextDue)
			}
		}
		if len(candidates) == 0 {
			return
		}
		nextTickTime = candidates[0]
		for _, c := range candidates[1:] {
			if c.Before(nextTickTime) {
				nextTickTime = c
			}
		}
	} else {
		nextTickTime = now.Add(e.tickInterval)
	}

	if !e.timelineEnd.IsZero() && nextTickTime.After(e.timelineEnd) {
		return
	}
	if e.nextTick != nil && !nextTickTime.Before(*e.nextTick) {
		return
	}
	e.nextTick = &nextTickTime
	e.queue.PushFront(nextTickTime, events.TimeEvent{Name: "tick", ScheduledFor: nextTickTime})
}

// computeTimelineEnd bounds how long a run's schedules stay active: the
// latest of (last race + the largest positive relative offset in use),
// the latest known payoff publish time, and (last race + one day).
func (e *Engine) computeTimelineEnd() time.Time {
	if len(e.races) == 0 {
		return e.clock.Now().UTC()
	}
	lastRaceTime := e.races[0].Date.UTC()
	for _, race := range e.races[1:] {
		if race.Date.UTC().After(lastRaceTime) {
			lastRaceTime = race.Date.UTC()
		}
	}

	var maxOffset time.Duration
	for _, entry := range e.schedules {
		if entry.Mode == scheduler.ModeRelative && entry.Offset > maxOffset {
			maxOffset = entry.Offset
		}
	}
	timelineEnd := lastRaceTime.Add(maxOffset)

	for _, race := range e.races {
		if publish, ok := e.dataRepository.GetPublishTime(race.RaceID, racerepo.DataTypePayoff); ok {
			publish = publish.UTC()
			if publish.After(timelineEnd) {
				timelineEnd = publish
			}
		}
	}

	floor := lastRaceTime.Add(24 * time.Hour)
	if floor.After(timelineEnd) {
		timelineEnd = floor
	}
	return timelineEnd
}
