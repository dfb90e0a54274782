package betting

import (
	"sync"
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/portfolio"
	"github.com/xlatomapp/racebacktest/internal/racerepo"
)

// SimulationRepository settles bets itself, reading payoffs from a data
// repository the moment a race is closed out.
type SimulationRepository struct {
	base
	data racerepo.Repository

	mu      sync.Mutex
	pending map[string][]models.BetPosition // race_id -> confirmed, unsettled positions
}

// NewSimulationRepository creates a betting repository for backtests.
func NewSimulationRepository(p *portfolio.Portfolio, data racerepo.Repository) *SimulationRepository {
	return &SimulationRepository{
		base:    newBase(p),
		data:    data,
		pending: make(map[string][]models.BetPosition),
	}
}

func (r *SimulationRepository) PlaceBet(raceID string, horseIDs []string, stake float64, betType string, placedAt time.Time) events.BetConfirmationEvent {
	return r.placeBet(raceID, horseIDs, stake, betType, placedAt)
}

func (r *SimulationRepository) ConfirmBet(event events.BetConfirmationEvent) (*models.BetPosition, error) {
	pending, err := r.popPending(event.BetID)
	if err != nil {
		return nil, err
	}
	position, err := r.portfolio.PlaceBet(pending.betID, pending.raceID, pending.betType, pending.combination, pending.stake, pending.placedAt)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.pending[position.RaceID] = append(r.pending[position.RaceID], *position)
	r.mu.Unlock()
	return position, nil
}

func (r *SimulationRepository) SettleRace(raceID string) ([]models.BetPosition, error) {
	r.mu.Lock()
	positions := r.pending[raceID]
	delete(r.pending, raceID)
	r.mu.Unlock()

	payoffs := r.data.GetPayoffs(raceID)
	settled := make([]models.BetPosition, 0, len(positions))
	for _, position := range positions {
		payout := calculatePayout(position, payoffs)
		result, err := r.portfolio.SettleBet(position.BetID, payout)
		if err != nil {
			return nil, err
		}
		settled = append(settled, *result)
	}
	return settled, nil
}
