// Package strategies holds example strategies built on top of BaseStrategy.
package strategies

import (
	"math"
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/strategy"
	"go.uber.org/zap"
)

// NaiveFavorite always backs the lowest-odds runner to win.
type NaiveFavorite struct {
	strategy.BaseStrategy

	// Stake is the amount wagered on each race.
	Stake float64
}

// NewNaiveFavorite returns a NaiveFavorite strategy staking the given
// amount on every race's favourite.
func NewNaiveFavorite(stake float64, logger *zap.Logger) *NaiveFavorite {
	return &NaiveFavorite{
		BaseStrategy: strategy.NewBaseStrategy("NaiveFavorite", logger),
		Stake:        stake,
	}
}

// OnData submits a win bet on the favourite whenever race data arrives.
func (s *NaiveFavorite) OnData(event events.DataEvent) {
	if event.Kind != events.DataKindRace {
		return
	}
	favourite := findFavourite(event.Race)
	if favourite == nil {
		return
	}
	if err := s.PlaceBet(event.Race.RaceID, []string{favourite.HorseID}, s.Stake, "win", time.Time{}); err != nil {
		s.Logger.Warn("failed to place bet", zap.Error(err))
	}
}

// findFavourite returns the horse with the lowest available win odds.
func findFavourite(race models.Race) *models.HorseEntry {
	var best *models.HorseEntry
	bestOdds := math.Inf(1)
	for i := range race.Horses {
		horse := &race.Horses[i]
		odds, ok := winOdds(horse.Odds)
		if !ok {
			continue
		}
		if odds < bestOdds {
			bestOdds = odds
			best = horse
		}
	}
	return best
}

// winOdds returns the win-market odds for a horse, accepting either the
// English or Japanese key.
func winOdds(odds map[string]float64) (float64, bool) {
	if v, ok := odds["win"]; ok {
		return v, true
	}
	if v, ok := odds["単勝"]; ok {
		return v, true
	}
	return 0, false
}
