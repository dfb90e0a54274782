package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlatomapp/racebacktest/internal/betting"
	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/portfolio"
	"github.com/xlatomapp/racebacktest/internal/racerepo"
	"github.com/xlatomapp/racebacktest/internal/scheduler"
	"github.com/xlatomapp/racebacktest/internal/strategy"
)

// recordingStrategy embeds strategy.BaseStrategy and records every hook
// call an engine run delivers, optionally placing a fixed bet on data.
type recordingStrategy struct {
	strategy.BaseStrategy

	betRaceID   string
	betHorse    string
	betStake    float64
	starts      int
	dataEvents  []events.DataEvent
	betEvents   []events.BetConfirmationEvent
	resultEvents []events.ResultEvent
}

func (s *recordingStrategy) OnStart() { s.starts++ }

func (s *recordingStrategy) OnData(event events.DataEvent) {
	s.dataEvents = append(s.dataEvents, event)
	if event.Kind == events.DataKindRace && s.betHorse != "" {
		_ = s.PlaceBet(event.Race.RaceID, []string{s.betHorse}, s.betStake, "win", time.Time{})
	}
}

func (s *recordingStrategy) OnBet(event events.BetConfirmationEvent) {
	s.betEvents = append(s.betEvents, event)
}

func (s *recordingStrategy) OnResult(event events.ResultEvent) {
	s.resultEvents = append(s.resultEvents, event)
}

func newTestRace() models.Race {
	return models.Race{
		RaceID: "race-1",
		Date:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Horses: []models.HorseEntry{
			{RaceID: "race-1", HorseID: "h1", Odds: map[string]float64{"win": 2.0}},
			{RaceID: "race-1", HorseID: "h2", Odds: map[string]float64{"win": 5.0}},
		},
	}
}

func TestRunSettlesWinningBetAndEmitsResultEvent(t *testing.T) {
	race := newTestRace()
	payoffs := []models.Payoff{{RaceID: "race-1", BetType: "win", Combination: []string{"h1"}, Odds: 2.0, Payout: 200}}
	data := racerepo.NewSimulationRepository([]models.Race{race}, payoffs, 10*time.Minute)
	bets := betting.NewSimulationRepository(portfolio.New(1000), data)

	eng, err := New(Config{DataRepository: data, BettingRepository: bets, TickInterval: time.Minute})
	require.NoError(t, err)

	strat := &recordingStrategy{betHorse: "h1", betStake: 100}
	require.NoError(t, eng.Run(strat))

	assert.Equal(t, 1, strat.starts)
	require.NotEmpty(t, strat.dataEvents)
	require.Len(t, strat.betEvents, 1)
	assert.True(t, strat.betEvents[0].Accepted)
	require.Len(t, strat.resultEvents, 1)
	assert.Equal(t, "race-1", strat.resultEvents[0].RaceID)
	assert.Equal(t, float64(1100), bets.GetBalance(), "1000 - 100 stake + 200 payout")
}

func TestRunSettlesLosingBetToZeroPayout(t *testing.T) {
	race := newTestRace()
	payoffs := []models.Payoff{{RaceID: "race-1", BetType: "win", Combination: []string{"h2"}, Odds: 5.0, Payout: 500}}
	data := racerepo.NewSimulationRepository([]models.Race{race}, payoffs, 10*time.Minute)
	bets := betting.NewSimulationRepository(portfolio.New(1000), data)

	eng, err := New(Config{DataRepository: data, BettingRepository: bets, TickInterval: time.Minute})
	require.NoError(t, err)

	strat := &recordingStrategy{betHorse: "h1", betStake: 100}
	require.NoError(t, eng.Run(strat))

	assert.Equal(t, float64(900), bets.GetBalance(), "stake lost, no payout for an unmatched horse")
}

func TestRunWithNoBetsStillCompletesAndSeedsData(t *testing.T) {
	race := newTestRace()
	data := racerepo.NewSimulationRepository([]models.Race{race}, nil, 10*time.Minute)
	bets := betting.NewSimulationRepository(portfolio.New(1000), data)

	eng, err := New(Config{DataRepository: data, BettingRepository: bets, TickInterval: time.Minute})
	require.NoError(t, err)

	strat := &recordingStrategy{}
	require.NoError(t, eng.Run(strat))

	assert.NotEmpty(t, strat.dataEvents)
	assert.Empty(t, strat.betEvents)
	assert.Empty(t, strat.resultEvents)
}

func TestAddScheduleDuringRunFiresBeforeTimelineEnd(t *testing.T) {
	race := newTestRace()
	data := racerepo.NewSimulationRepository([]models.Race{race}, nil, 10*time.Minute)
	bets := betting.NewSimulationRepository(portfolio.New(1000), data)

	eng, err := New(Config{DataRepository: data, BettingRepository: bets, TickInterval: time.Minute})
	require.NoError(t, err)

	fired := 0
	strat := &startupSchedulingStrategy{onStart: func(e *Engine) {
		_ = e.AddSchedule(scheduler.NewAbsolute("morning", 11*time.Hour, func(interface{}) { fired++ }, false))
	}}
	require.NoError(t, eng.Run(strat))
	assert.Equal(t, 1, fired, "the next day's occurrence falls after the one-day timeline floor and is clamped out")
}

// startupSchedulingStrategy lets a test register a schedule from inside
// OnStart, where the engine is already running.
type startupSchedulingStrategy struct {
	strategy.BaseStrategy
	onStart func(*Engine)
	engine  *Engine
}

func (s *startupSchedulingStrategy) Bind(e strategy.EngineFacade) {
	s.BaseStrategy.Bind(e)
	s.engine = e.(*Engine)
}

func (s *startupSchedulingStrategy) OnStart() {
	if s.onStart != nil {
		s.onStart(s.engine)
	}
}

func TestComputeTimelineEndUsesLatestOfRaceOffsetPayoffAndFloor(t *testing.T) {
	race := newTestRace()
	data := racerepo.NewSimulationRepository([]models.Race{race}, nil, 10*time.Minute)
	bets := betting.NewSimulationRepository(portfolio.New(1000), data)
	eng, err := New(Config{DataRepository: data, BettingRepository: bets, TickInterval: time.Minute})
	require.NoError(t, err)

	eng.races = []models.Race{race}
	eng.clock.Reset(&race.Date)

	// No schedules, and the payoff publish time (race + 10 minutes) is
	// earlier than the floor: timeline end falls back to the 24h floor.
	end := eng.computeTimelineEnd()
	assert.Equal(t, race.Date.Add(24*time.Hour), end)

	// A relative schedule offset past the floor pushes the timeline out.
	entry := scheduler.NewRelative("post", 30*time.Hour, func(interface{}) {}, false)
	eng.schedules = []*scheduler.Entry{entry}
	end = eng.computeTimelineEnd()
	assert.Equal(t, race.Date.Add(30*time.Hour), end)
}

func TestComputeTimelineEndOnEmptyRacesReturnsNow(t *testing.T) {
	data := racerepo.NewSimulationRepository(nil, nil, 10*time.Minute)
	bets := betting.NewSimulationRepository(portfolio.New(1000), data)
	eng, err := New(Config{DataRepository: data, BettingRepository: bets, TickInterval: time.Minute})
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	eng.clock.Reset(&now)
	assert.Equal(t, now, eng.computeTimelineEnd())
}

func TestNewRejectsNonPositiveTickInterval(t *testing.T) {
	data := racerepo.NewSimulationRepository(nil, nil, 0)
	bets := betting.NewSimulationRepository(portfolio.New(1000), data)
	_, err := New(Config{DataRepository: data, BettingRepository: bets, TickInterval: 0})
	assert.Error(t, err)
}
