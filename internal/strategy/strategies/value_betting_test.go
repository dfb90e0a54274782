package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

func TestValueBettingBacksHorsesClearingEdgeThreshold(t *testing.T) {
	history := []models.Race{
		{RaceID: "past-1", Horses: []models.HorseEntry{{RaceID: "past-1", HorseID: "h1"}}},
	}
	payoffs := []models.Payoff{
		{RaceID: "past-1", BetType: "win", Combination: []string{"h1"}, Odds: 2.0, Payout: 200},
	}
	race := raceWithHorses(
		models.HorseEntry{RaceID: "race-1", HorseID: "h1", Odds: map[string]float64{"win": 4.0}},
		models.HorseEntry{RaceID: "race-1", HorseID: "h2", Odds: map[string]float64{"win": 2.0}},
	)
	engine := newFakeEngine(append(history, race), payoffs, 1000)
	s := NewValueBetting(100, 1.5, nil)
	s.Bind(engine)

	s.OnData(events.DataEvent{Kind: events.DataKindRace, Race: race})

	require.NotNil(t, engine.bet, "h1 has win_rate 0.5 (1 win in 2 starts) * odds 4.0 = 2.0, clearing the 1.5 threshold")
	assert.Equal(t, []string{"h1"}, engine.bet.Combination)
}

func TestValueBettingSkipsHorsesBelowThreshold(t *testing.T) {
	race := raceWithHorses(
		models.HorseEntry{RaceID: "race-1", HorseID: "h1", Odds: map[string]float64{"win": 1.2}},
	)
	engine := newFakeEngine([]models.Race{race}, nil, 1000)
	s := NewValueBetting(100, 1.5, nil)
	s.Bind(engine)

	s.OnData(events.DataEvent{Kind: events.DataKindRace, Race: race})
	assert.Nil(t, engine.bet, "h1 has no recorded wins, so its win rate and expected value are zero")
}

func TestValueBettingSkipsWhenBalanceBelowStake(t *testing.T) {
	history := []models.Race{
		{RaceID: "past-1", Horses: []models.HorseEntry{{RaceID: "past-1", HorseID: "h1"}}},
	}
	payoffs := []models.Payoff{
		{RaceID: "past-1", BetType: "win", Combination: []string{"h1"}, Odds: 2.0, Payout: 200},
	}
	race := raceWithHorses(
		models.HorseEntry{RaceID: "race-1", HorseID: "h1", Odds: map[string]float64{"win": 4.0}},
	)
	engine := newFakeEngine(append(history, race), payoffs, 50)
	s := NewValueBetting(100, 1.5, nil)
	s.Bind(engine)

	s.OnData(events.DataEvent{Kind: events.DataKindRace, Race: race})
	assert.Nil(t, engine.bet, "balance of 50 cannot cover a 100 stake")
}

func TestValueBettingIgnoresNonRaceEvents(t *testing.T) {
	engine := newFakeEngine(nil, nil, 1000)
	s := NewValueBetting(100, 1.5, nil)
	s.Bind(engine)

	s.OnData(events.DataEvent{Kind: events.DataKindPayoff})
	assert.Nil(t, engine.bet)
}
