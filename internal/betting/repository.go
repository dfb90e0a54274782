// Package betting implements the betting repository: bet request
// validation, broker-style confirmation, and race settlement.
package betting

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xlatomapp/racebacktest/internal/apperror"
	"github.com/xlatomapp/racebacktest/internal/domain/events"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/portfolio"
)

// Repository places, confirms, and settles bets against a shared
// portfolio.
type Repository interface {
	GetBalance() float64
	GetPositions() []models.BetPosition
	PlaceBet(raceID string, horseIDs []string, stake float64, betType string, placedAt time.Time) events.BetConfirmationEvent
	ConfirmBet(event events.BetConfirmationEvent) (*models.BetPosition, error)
	SettleRace(raceID string) ([]models.BetPosition, error)
}

// pendingBet is a bet awaiting broker confirmation: cash for it is
// reserved against availableCash but not yet deducted from the portfolio.
type pendingBet struct {
	betID       string
	raceID      string
	betType     string
	combination []string
	stake       float64
	placedAt    time.Time
}

// Limits caps how much a single bet, or a race's total exposure, may
// stake. A zero field is unlimited.
type Limits struct {
	MaxStakePerBet     float64
	MaxExposurePerRace float64
}

// base holds the state and behaviour shared by SimulationRepository and
// LiveRepository.
type base struct {
	portfolio *portfolio.Portfolio
	counter   int64
	limits    Limits

	mu                  sync.Mutex
	pendingConfirmations map[string]pendingBet
}

func newBase(p *portfolio.Portfolio) base {
	return base{
		portfolio:            p,
		pendingConfirmations: make(map[string]pendingBet),
	}
}

// SetLimits installs the stake and exposure caps placeBet enforces on
// every subsequent bet request.
func (b *base) SetLimits(limits Limits) { b.limits = limits }

// exposureForRace sums the stake already committed to a race, across both
// unconfirmed requests and confirmed-but-unsettled positions.
func (b *base) exposureForRace(raceID string) float64 {
	b.mu.Lock()
	reserved := 0.0
	for _, p := range b.pendingConfirmations {
		if p.raceID == raceID {
			reserved += p.stake
		}
	}
	b.mu.Unlock()
	for _, pos := range b.portfolio.AllPositions() {
		if pos.RaceID == raceID && pos.Status != models.BetStatusSettled {
			reserved += pos.Stake
		}
	}
	return reserved
}

func (b *base) nextBetID() string {
	n := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("bet-%d", n)
}

func (b *base) GetBalance() float64 { return b.portfolio.Bankroll() }

func (b *base) GetPositions() []models.BetPosition { return b.portfolio.AllPositions() }

// availableCash is cash not already committed to an unconfirmed bet
// request, preventing a strategy from double-spending across several
// pending confirmations in the same tick.
func (b *base) availableCash() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	reserved := 0.0
	for _, p := range b.pendingConfirmations {
		reserved += p.stake
	}
	return b.portfolio.Bankroll() - reserved
}

func (b *base) placeBet(raceID string, horseIDs []string, stake float64, betType string, placedAt time.Time) events.BetConfirmationEvent {
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	combination := append([]string(nil), horseIDs...)

	if stake <= 0 {
		return events.BetConfirmationEvent{
			BetID:       b.nextBetID(),
			RaceID:      raceID,
			BetType:     betType,
			Combination: combination,
			Stake:       stake,
			PlacedAt:    placedAt,
			Accepted:    false,
			Message:     apperror.NewInvalidStake(stake).Message,
		}
	}
	available := b.availableCash()
	if stake > available {
		return events.BetConfirmationEvent{
			BetID:       b.nextBetID(),
			RaceID:      raceID,
			BetType:     betType,
			Combination: combination,
			Stake:       stake,
			PlacedAt:    placedAt,
			Accepted:    false,
			Message:     fmt.Sprintf("insufficient cash to place bet (available %.2f)", available),
		}
	}
	if b.limits.MaxStakePerBet > 0 && stake > b.limits.MaxStakePerBet {
		return events.BetConfirmationEvent{
			BetID:       b.nextBetID(),
			RaceID:      raceID,
			BetType:     betType,
			Combination: combination,
			Stake:       stake,
			PlacedAt:    placedAt,
			Accepted:    false,
			Message:     fmt.Sprintf("stake %.2f exceeds the per-bet limit of %.2f", stake, b.limits.MaxStakePerBet),
		}
	}
	if b.limits.MaxExposurePerRace > 0 {
		if exposure := b.exposureForRace(raceID); exposure+stake > b.limits.MaxExposurePerRace {
			return events.BetConfirmationEvent{
				BetID:       b.nextBetID(),
				RaceID:      raceID,
				BetType:     betType,
				Combination: combination,
				Stake:       stake,
				PlacedAt:    placedAt,
				Accepted:    false,
				Message:     fmt.Sprintf("stake would push race exposure to %.2f, over the %.2f limit", exposure+stake, b.limits.MaxExposurePerRace),
			}
		}
	}

	betID := b.nextBetID()
	b.mu.Lock()
	b.pendingConfirmations[betID] = pendingBet{
		betID:       betID,
		raceID:      raceID,
		betType:     betType,
		combination: combination,
		stake:       stake,
		placedAt:    placedAt,
	}
	b.mu.Unlock()

	return events.BetConfirmationEvent{
		BetID:       betID,
		RaceID:      raceID,
		BetType:     betType,
		Combination: combination,
		Stake:       stake,
		PlacedAt:    placedAt,
		Accepted:    true,
	}
}

// popPending removes and returns the pending bet for a confirmation event,
// failing if the bet was never requested or has already been confirmed.
func (b *base) popPending(betID string) (pendingBet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pending, ok := b.pendingConfirmations[betID]
	if !ok {
		return pendingBet{}, apperror.NewUnknownPendingBet(betID)
	}
	delete(b.pendingConfirmations, betID)
	return pending, nil
}

// calculatePayout returns the payout for a settled position given the
// payoffs published for its race.
func calculatePayout(position models.BetPosition, payoffs []models.Payoff) float64 {
	canonical := CanonicalBetType(position.BetType)
	for _, payoff := range payoffs {
		if CanonicalBetType(payoff.BetType) != canonical {
			continue
		}
		if combinationsMatch(position.Combination, payoff.Combination, canonical) {
			return position.Stake * payoff.Odds
		}
	}
	return 0
}

// combinationsMatch applies the bet-type-specific matching rule between a
// bet's runner combination and a payoff's winning combination.
func combinationsMatch(bet, result []string, canonicalType string) bool {
	if orderSensitive[canonicalType] {
		return equalSequence(bet, result)
	}
	switch canonicalType {
	case "win":
		return len(bet) > 0 && len(result) > 0 && bet[0] == result[0]
	case "place":
		for _, horse := range bet {
			if !containsString(result, horse) {
				return false
			}
		}
		return true
	default:
		return equalSet(bet, result)
	}
}

func equalSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// equalSet compares two runner combinations as multisets (count, not just
// membership). The original Python repository compares set(a) == set(b),
// which collapses duplicate runner ids; a combination with a repeated
// runner id (malformed input) is therefore stricter here than there. Real
// racing data never repeats a runner within one combination, so this
// divergence has no effect in practice.
func equalSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
	}
	for _, count := range seen {
		if count != 0 {
			return false
		}
	}
	return true
}

func containsString(items []string, needle string) bool {
	for _, item := range items {
		if item == needle {
			return true
		}
	}
	return false
}
