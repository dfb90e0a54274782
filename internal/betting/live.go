package betting

import (
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/portfolio"
)

// LiveRepository mimics an external broker: bets are confirmed against the
// portfolio but settlement is driven asynchronously by whatever feed tells
// the broker a race has finished, not by the engine itself.
//
// SettleRace always returns an empty result; a live deployment is expected
// to wire its own feed adapter that calls portfolio.SettleBet directly
// once it learns the external broker has settled a position, the same way
// SimulationRepository.SettleRace does internally. That wiring is outside
// this package because it depends on the shape of the broker's feed.
type LiveRepository struct {
	base
}

// NewLiveRepository creates a betting repository for live trading.
func NewLiveRepository(p *portfolio.Portfolio) *LiveRepository {
	return &LiveRepository{base: newBase(p)}
}

func (r *LiveRepository) PlaceBet(raceID string, horseIDs []string, stake float64, betType string, placedAt time.Time) events.BetConfirmationEvent {
	return r.placeBet(raceID, horseIDs, stake, betType, placedAt)
}

func (r *LiveRepository) ConfirmBet(event events.BetConfirmationEvent) (*models.BetPosition, error) {
	pending, err := r.popPending(event.BetID)
	if err != nil {
		return nil, err
	}
	position, err := r.portfolio.PlaceBet(pending.betID, pending.raceID, pending.betType, pending.combination, pending.stake, pending.placedAt)
	if err != nil {
		return nil, err
	}
	position.Status = models.BetStatusSubmitted
	return position, nil
}

func (r *LiveRepository) SettleRace(raceID string) ([]models.BetPosition, error) {
	return nil, nil
}
