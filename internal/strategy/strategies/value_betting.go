package strategies

import (
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/strategy"
	"go.uber.org/zap"
)

// ValueBetting bets on horses whose historical win rate times their
// current odds implies positive expected value.
type ValueBetting struct {
	strategy.BaseStrategy

	// Stake is the amount wagered on each qualifying runner.
	Stake float64
	// EdgeThreshold is the minimum win_rate*odds multiplier required to bet.
	EdgeThreshold float64
}

// NewValueBetting returns a ValueBetting strategy with the given stake
// size and edge threshold.
func NewValueBetting(stake, edgeThreshold float64, logger *zap.Logger) *ValueBetting {
	return &ValueBetting{
		BaseStrategy:  strategy.NewBaseStrategy("ValueBetting", logger),
		Stake:         stake,
		EdgeThreshold: edgeThreshold,
	}
}

// OnData places bets on horses whose expected value clears EdgeThreshold.
func (s *ValueBetting) OnData(event events.DataEvent) {
	if event.Kind != events.DataKindRace {
		return
	}
	for _, horse := range event.Race.Horses {
		odds, ok := winOdds(horse.Odds)
		if !ok {
			continue
		}
		history := s.GetHistorical(horse.HorseID)
		winRate := history["win_rate"]
		expectedValue := winRate * odds
		if expectedValue < s.EdgeThreshold {
			continue
		}
		if s.GetBalance() < s.Stake {
			continue
		}
		if err := s.PlaceBet(event.Race.RaceID, []string{horse.HorseID}, s.Stake, "win", time.Time{}); err != nil {
			s.Logger.Warn("failed to place bet", zap.Error(err))
		}
	}
}
