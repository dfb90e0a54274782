// Package strategy defines the interface backtest strategies implement and
// the BaseStrategy embedding every concrete strategy starts from.
package strategy

import (
	"time"

	"github.com/xlatomapp/racebacktest/internal/apperror"
	"github.com/xlatomapp/racebacktest/internal/betting"
	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/racerepo"
	"github.com/xlatomapp/racebacktest/internal/scheduler"
	"go.uber.org/zap"
)

// Strategy is implemented by every backtest strategy. Embed BaseStrategy
// to get no-op defaults for every hook.
type Strategy interface {
	Bind(engine EngineFacade)
	OnStart()
	OnTime(event events.TimeEvent)
	OnData(event events.DataEvent)
	OnBet(event events.BetConfirmationEvent)
	OnResult(event events.ResultEvent)
}

// EngineFacade is the narrow slice of engine behaviour a strategy needs.
// Defining it here (rather than importing the engine package) keeps
// strategy free of an import cycle, since the engine package in turn needs
// to hold and call a Strategy.
type EngineFacade interface {
	Now() time.Time
	AddSchedule(entry *scheduler.Entry) error
	SubmitBet(request events.BetRequestEvent)
	DataRepository() racerepo.Repository
	BettingRepository() betting.Repository
}

// BaseStrategy implements the strategy-facing API (schedule/place_bet/
// get_balance/get_positions/get_historical) and no-op hooks; concrete
// strategies embed it and override only the hooks they care about.
type BaseStrategy struct {
	Name   string
	Logger *zap.Logger

	engine EngineFacade
}

// NewBaseStrategy creates a BaseStrategy with the given name. If logger is
// nil, a no-op logger is used.
func NewBaseStrategy(name string, logger *zap.Logger) BaseStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return BaseStrategy{Name: name, Logger: logger}
}

// Bind attaches the strategy to an engine before a run starts.
func (s *BaseStrategy) Bind(engine EngineFacade) {
	s.engine = engine
}

// ScheduleAbsolute registers a callback that fires daily at timeOfDay (an
// offset from midnight UTC). cb must be func() or func(strategy.Strategy).
func (s *BaseStrategy) ScheduleAbsolute(name string, timeOfDay time.Duration, cb interface{}) error {
	if s.engine == nil {
		return apperror.NewInvalidSchedule("strategy must be bound to an engine before scheduling")
	}
	wrapped, wantsStrategy, err := scheduler.WrapCallback(cb)
	if err != nil {
		return err
	}
	return s.engine.AddSchedule(scheduler.NewAbsolute(s.scheduleName(name), timeOfDay, wrapped, wantsStrategy))
}

// ScheduleRelative registers a callback that fires offset after each
// race's start time.
func (s *BaseStrategy) ScheduleRelative(name string, offset time.Duration, cb interface{}) error {
	if s.engine == nil {
		return apperror.NewInvalidSchedule("strategy must be bound to an engine before scheduling")
	}
	wrapped, wantsStrategy, err := scheduler.WrapCallback(cb)
	if err != nil {
		return err
	}
	return s.engine.AddSchedule(scheduler.NewRelative(s.scheduleName(name), offset, wrapped, wantsStrategy))
}

// ScheduleCron registers a callback driven by a standard 5-field cron
// expression.
func (s *BaseStrategy) ScheduleCron(name, expr string, cb interface{}) error {
	if s.engine == nil {
		return apperror.NewInvalidSchedule("strategy must be bound to an engine before scheduling")
	}
	wrapped, wantsStrategy, err := scheduler.WrapCallback(cb)
	if err != nil {
		return err
	}
	entry, err := scheduler.NewCron(s.scheduleName(name), expr, wrapped, wantsStrategy)
	if err != nil {
		return err
	}
	return s.engine.AddSchedule(entry)
}

func (s *BaseStrategy) scheduleName(name string) string {
	if name != "" {
		return name
	}
	return s.Name
}

// PlaceBet submits a bet request to the engine. placedAt may be the zero
// time, in which case the engine stamps it with the current clock time.
func (s *BaseStrategy) PlaceBet(raceID string, horseIDs []string, stake float64, betType string, placedAt time.Time) error {
	if s.engine == nil {
		return apperror.NewInvalidSchedule("strategy must be bound to an engine before placing bets")
	}
	s.engine.SubmitBet(events.BetRequestEvent{
		RaceID:      raceID,
		BetType:     betType,
		Combination: horseIDs,
		Stake:       stake,
		PlacedAt:    placedAt,
	})
	return nil
}

// GetBalance returns the current bankroll.
func (s *BaseStrategy) GetBalance() float64 {
	if s.engine == nil {
		return 0
	}
	return s.engine.BettingRepository().GetBalance()
}

// GetPositions returns every bet position recorded so far.
func (s *BaseStrategy) GetPositions() []models.BetPosition {
	if s.engine == nil {
		return nil
	}
	return s.engine.BettingRepository().GetPositions()
}

// GetHistorical returns aggregate historical statistics for a horse.
func (s *BaseStrategy) GetHistorical(horseID string) map[string]float64 {
	if s.engine == nil {
		return map[string]float64{}
	}
	return s.engine.DataRepository().GetHistorical(horseID)
}

// OnStart is a no-op extension point.
func (s *BaseStrategy) OnStart() {}

// OnTime is a no-op extension point.
func (s *BaseStrategy) OnTime(event events.TimeEvent) {}

// OnData is a no-op extension point.
func (s *BaseStrategy) OnData(event events.DataEvent) {}

// OnBet is a no-op extension point.
func (s *BaseStrategy) OnBet(event events.BetConfirmationEvent) {}

// OnResult is a no-op extension point.
func (s *BaseStrategy) OnResult(event events.ResultEvent) {}
