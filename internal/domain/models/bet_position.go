package models

import "time"

// BetPositionStatus is the lifecycle state of a BetPosition.
type BetPositionStatus string

const (
	BetStatusOpen      BetPositionStatus = "open"
	BetStatusSettled   BetPositionStatus = "settled"
	BetStatusSubmitted BetPositionStatus = "submitted"
)

// BetPosition is a bet that has cleared confirmation and been recorded
// against the portfolio, whether still open, settled, or (for live bets)
// submitted to an external broker.
type BetPosition struct {
	BetID       string
	RaceID      string
	BetType     string
	Combination []string
	Stake       float64
	PlacedAt    time.Time
	Status      BetPositionStatus
	Payout      float64
}
