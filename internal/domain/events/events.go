// Package events defines the engine's tagged-union event model. Each
// concrete type implements Event; the engine and strategy hooks type-switch
// on the concrete type rather than dispatching on a string discriminator.
package events

import (
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

// Event is implemented by every event the engine queue carries.
type Event interface {
	// When returns the timestamp the event is scheduled to fire at.
	When() time.Time
}

// TimeEvent is a tick emitted by the engine clock for a scheduled callback.
type TimeEvent struct {
	Name         string
	ScheduledFor time.Time
}

func (e TimeEvent) When() time.Time { return e.ScheduledFor }

// DataKind distinguishes the two kinds of data a DataEvent can carry.
type DataKind string

const (
	DataKindRace   DataKind = "race"
	DataKindPayoff DataKind = "payoff"
)

// DataEvent announces newly published race or payoff data.
type DataEvent struct {
	Kind        DataKind
	Race        models.Race
	AvailableAt time.Time
	Payoffs     []models.Payoff
}

func (e DataEvent) When() time.Time { return e.AvailableAt }

// BetRequestEvent is raised by a strategy asking the betting repository to
// place a bet.
type BetRequestEvent struct {
	RaceID      string
	BetType     string
	Combination []string
	Stake       float64
	PlacedAt    time.Time
}

func (e BetRequestEvent) When() time.Time { return e.PlacedAt }

// BetConfirmationEvent is emitted by the broker once a bet request has been
// processed, accepted or rejected.
type BetConfirmationEvent struct {
	BetID       string
	RaceID      string
	BetType     string
	Combination []string
	Stake       float64
	PlacedAt    time.Time
	Accepted    bool
	Message     string
	Position    *models.BetPosition
}

func (e BetConfirmationEvent) When() time.Time { return e.PlacedAt }

// ResultEvent is emitted once a race's bets have all been settled.
type ResultEvent struct {
	RaceID    string
	SettledAt time.Time
}

func (e ResultEvent) When() time.Time { return e.SettledAt }
