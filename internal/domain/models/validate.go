package models

import (
	"fmt"

	"github.com/xlatomapp/racebacktest/internal/apperror"
)

// ValidateHorseEntry applies the same field and value checks the original
// ingestion pipeline enforces on a raw horse record.
func ValidateHorseEntry(h HorseEntry) error {
	if h.RaceID == "" {
		return fmt.Errorf("missing horse field: race_id")
	}
	if h.HorseID == "" {
		return fmt.Errorf("missing horse field: horse_id")
	}
	if h.Draw < 1 {
		return fmt.Errorf("horse draw must be >= 1, got %d", h.Draw)
	}
	for betType, price := range h.Odds {
		if price <= 0 {
			return fmt.Errorf("odds for %s must be positive, got %v", betType, price)
		}
	}
	return nil
}

// ValidateRace applies the same field and value checks the original
// ingestion pipeline enforces on a raw race record.
func ValidateRace(r Race) error {
	if r.RaceID == "" {
		return fmt.Errorf("missing race field: race_id")
	}
	if r.Distance <= 0 {
		return fmt.Errorf("race distance must be positive")
	}
	for _, h := range r.Horses {
		if err := ValidateHorseEntry(h); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePayoff applies the same field and value checks the original
// ingestion pipeline enforces on a raw payoff record.
func ValidatePayoff(p Payoff) error {
	if p.RaceID == "" {
		return fmt.Errorf("missing payoff field: race_id")
	}
	if p.BetType == "" {
		return fmt.Errorf("missing payoff field: bet_type")
	}
	if p.Odds <= 0 {
		return fmt.Errorf("payoff odds must be positive")
	}
	if p.Payout < 0 {
		return fmt.Errorf("payoff payout must be non-negative")
	}
	return nil
}

// ValidateRaces validates every race (and its nested horses) in races,
// collecting every failure instead of stopping at the first, matching the
// batch-validation behaviour ingestion callers rely on.
func ValidateRaces(races []Race) error {
	var errs []error
	for i, r := range races {
		if err := ValidateRace(r); err != nil {
			errs = append(errs, fmt.Errorf("race record %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return apperror.NewDataValidation(errs)
	}
	return nil
}

// ValidatePayoffs validates every payoff in payoffs, collecting every
// failure instead of stopping at the first.
func ValidatePayoffs(payoffs []Payoff) error {
	var errs []error
	for i, p := range payoffs {
		if err := ValidatePayoff(p); err != nil {
			errs = append(errs, fmt.Errorf("payoff record %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return apperror.NewDataValidation(errs)
	}
	return nil
}
