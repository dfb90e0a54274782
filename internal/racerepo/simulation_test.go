package racerepo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

func sampleRaces() []models.Race {
	return []models.Race{
		{
			RaceID: "race-2",
			Date:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Horses: []models.HorseEntry{{RaceID: "race-2", HorseID: "h1"}},
		},
		{
			RaceID: "race-1",
			Date:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			Horses: []models.HorseEntry{{RaceID: "race-1", HorseID: "h1"}, {RaceID: "race-1", HorseID: "h2"}},
		},
	}
}

func samplePayoffs() []models.Payoff {
	return []models.Payoff{
		{RaceID: "race-1", BetType: "win", Combination: []string{"h1"}, Odds: 2.0, Payout: 200},
		{RaceID: "race-1", BetType: "place", Combination: []string{"h2"}, Odds: 1.5, Payout: 150},
		{RaceID: "race-2", BetType: "単勝", Combination: []string{"h1"}, Odds: 3.0, Payout: 300},
	}
}

func TestSimulationRepositoryGetRace(t *testing.T) {
	repo := NewSimulationRepository(sampleRaces(), nil, 0)

	race, ok := repo.GetRace("race-1")
	require.True(t, ok)
	assert.Equal(t, "race-1", race.RaceID)

	_, ok = repo.GetRace("missing")
	assert.False(t, ok)
}

func TestSimulationRepositoryIterRacesSortedByDate(t *testing.T) {
	repo := NewSimulationRepository(sampleRaces(), nil, 0)

	races := repo.IterRaces()
	require.Len(t, races, 2)
	assert.Equal(t, "race-1", races[0].RaceID)
	assert.Equal(t, "race-2", races[1].RaceID)
}

func TestSimulationRepositoryGetPayoffs(t *testing.T) {
	repo := NewSimulationRepository(sampleRaces(), samplePayoffs(), 0)

	payoffs := repo.GetPayoffs("race-1")
	assert.Len(t, payoffs, 2)

	assert.Empty(t, repo.GetPayoffs("no-such-race"))
}

func TestSimulationRepositoryGetHistoricalComputesWinRateAcrossAliases(t *testing.T) {
	repo := NewSimulationRepository(sampleRaces(), samplePayoffs(), 0)

	stats := repo.GetHistorical("h1")
	assert.Equal(t, float64(2), stats["starts"], "h1 runs in both race-1 and race-2")
	assert.Equal(t, float64(2), stats["wins"], "win and 単勝 payoffs both count toward wins")
	assert.InDelta(t, 1.0, stats["win_rate"], 1e-9)
}

func TestSimulationRepositoryGetHistoricalForUnknownHorse(t *testing.T) {
	repo := NewSimulationRepository(sampleRaces(), samplePayoffs(), 0)

	stats := repo.GetHistorical("ghost")
	assert.Zero(t, stats["starts"])
	assert.Zero(t, stats["win_rate"])
}

func TestSimulationRepositoryGetPublishTimeDefaultsDelayToTenMinutes(t *testing.T) {
	repo := NewSimulationRepository(sampleRaces(), nil, 0)

	raceTime, ok := repo.GetPublishTime("race-1", DataTypeRace)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), raceTime)

	payoffTime, ok := repo.GetPublishTime("race-1", DataTypePayoff)
	require.True(t, ok)
	assert.Equal(t, raceTime.Add(10*time.Minute), payoffTime)
}

func TestSimulationRepositoryGetPublishTimeUsesConfiguredDelay(t *testing.T) {
	repo := NewSimulationRepository(sampleRaces(), nil, 45*time.Minute)

	payoffTime, ok := repo.GetPublishTime("race-1", DataTypePayoff)
	require.True(t, ok)
	raceTime, _ := repo.GetPublishTime("race-1", DataTypeRace)
	assert.Equal(t, raceTime.Add(45*time.Minute), payoffTime)
}

func TestSimulationRepositoryGetPublishTimeUnknownRace(t *testing.T) {
	repo := NewSimulationRepository(nil, nil, 0)

	_, ok := repo.GetPublishTime("missing", DataTypeRace)
	assert.False(t, ok)
}
