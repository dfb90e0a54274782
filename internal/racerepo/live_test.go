package racerepo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

func TestLiveRepositoryRegisterThenServeRace(t *testing.T) {
	repo := NewLiveRepository()
	race := models.Race{RaceID: "race-1", Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	_, ok := repo.GetRace("race-1")
	assert.False(t, ok, "a race must not be visible before it is registered")

	repo.RegisterRace(race)
	got, ok := repo.GetRace("race-1")
	require.True(t, ok)
	assert.Equal(t, "race-1", got.RaceID)
}

func TestLiveRepositoryIterRacesReflectsRegistrations(t *testing.T) {
	repo := NewLiveRepository()
	repo.RegisterRace(models.Race{RaceID: "race-1"})
	repo.RegisterRace(models.Race{RaceID: "race-2"})

	assert.Len(t, repo.IterRaces(), 2)
}

func TestLiveRepositoryRegisterPayoffAppends(t *testing.T) {
	repo := NewLiveRepository()
	repo.RegisterPayoff(models.Payoff{RaceID: "race-1", BetType: "win", Odds: 2.0})
	repo.RegisterPayoff(models.Payoff{RaceID: "race-1", BetType: "place", Odds: 1.2})

	assert.Len(t, repo.GetPayoffs("race-1"), 2)
	assert.Empty(t, repo.GetPayoffs("race-2"))
}

func TestLiveRepositoryGetHistoricalIsAlwaysZeroed(t *testing.T) {
	repo := NewLiveRepository()
	stats := repo.GetHistorical("any-horse")
	assert.Zero(t, stats["starts"])
	assert.Zero(t, stats["wins"])
	assert.Zero(t, stats["win_rate"])
}

func TestLiveRepositoryPublishTimeRegisteredExplicitly(t *testing.T) {
	repo := NewLiveRepository()

	_, ok := repo.GetPublishTime("race-1", DataTypeRace)
	assert.False(t, ok)

	jst := time.FixedZone("JST", 9*60*60)
	availableAt := time.Date(2024, 1, 1, 19, 0, 0, 0, jst)
	repo.RegisterPublishTime("race-1", DataTypeRace, availableAt)

	got, ok := repo.GetPublishTime("race-1", DataTypeRace)
	require.True(t, ok)
	assert.Equal(t, availableAt.UTC(), got)
	assert.Equal(t, time.UTC, got.Location())
}
