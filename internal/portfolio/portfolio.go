// Package portfolio implements the cash ledger bets are placed and settled
// against.
package portfolio

import (
	"sync"
	"time"

	"github.com/xlatomapp/racebacktest/internal/apperror"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

// Portfolio tracks cash and every bet position placed against it. Stake is
// deducted from cash the instant a bet is placed (PlaceBet); it is never
// double counted again at settlement, only the payout is added back.
type Portfolio struct {
	mu               sync.Mutex
	initialBankroll  float64
	cash             float64
	positions        map[string]*models.BetPosition
}

// New creates a portfolio seeded with the given starting bankroll.
func New(bankroll float64) *Portfolio {
	return &Portfolio{
		initialBankroll: bankroll,
		cash:            bankroll,
		positions:       make(map[string]*models.BetPosition),
	}
}

// PlaceBet reserves stake and records a new open position. placedAt
// defaults to the current wall-clock time if the zero value is passed.
func (p *Portfolio) PlaceBet(betID, raceID, betType string, combination []string, stake float64, placedAt time.Time) (*models.BetPosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stake <= 0 {
		return nil, apperror.NewInvalidStake(stake)
	}
	if stake > p.cash {
		return nil, apperror.NewInsufficientCash(p.cash, stake)
	}
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	position := &models.BetPosition{
		BetID:       betID,
		RaceID:      raceID,
		BetType:     betType,
		Combination: combination,
		Stake:       stake,
		PlacedAt:    placedAt,
		Status:      models.BetStatusOpen,
	}
	p.cash -= stake
	p.positions[betID] = position
	return position, nil
}

// SettleBet marks a position settled and pays out the result.
func (p *Portfolio) SettleBet(betID string, payout float64) (*models.BetPosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	position, ok := p.positions[betID]
	if !ok {
		return nil, apperror.NewUnknownBet(betID)
	}
	if position.Status != models.BetStatusOpen && position.Status != models.BetStatusSubmitted {
		return nil, apperror.NewAlreadySettled(betID)
	}
	position.Status = models.BetStatusSettled
	position.Payout = payout
	p.cash += payout
	return position, nil
}

// Bankroll returns the current cash balance.
func (p *Portfolio) Bankroll() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// OpenPositions returns positions that have not yet settled.
func (p *Portfolio) OpenPositions() []models.BetPosition {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.BetPosition
	for _, pos := range p.positions {
		if pos.Status == models.BetStatusOpen || pos.Status == models.BetStatusSubmitted {
			out = append(out, *pos)
		}
	}
	return out
}

// SettledPositions returns positions that have settled.
func (p *Portfolio) SettledPositions() []models.BetPosition {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.BetPosition
	for _, pos := range p.positions {
		if pos.Status == models.BetStatusSettled {
			out = append(out, *pos)
		}
	}
	return out
}

// AllPositions returns every recorded position regardless of status.
func (p *Portfolio) AllPositions() []models.BetPosition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.BetPosition, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	return out
}

// TotalProfit returns the combined realized and unrealized profit: paid
// out minus staked for settled bets, minus staked (unrealized loss) for
// everything still open.
func (p *Portfolio) TotalProfit() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total float64
	for _, pos := range p.positions {
		switch pos.Status {
		case models.BetStatusSettled:
			total += pos.Payout - pos.Stake
		default:
			total -= pos.Stake
		}
	}
	return total
}
