// Package racerepo provides the data repository the engine and strategies
// read races, payoffs, and historical statistics through.
package racerepo

import (
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

// DataType distinguishes the two kinds of published racing data, race
// cards and payoffs, each with its own publish-time schedule.
type DataType string

const (
	DataTypeRace   DataType = "race"
	DataTypePayoff DataType = "payoff"
)

// Repository is the data source strategies and the engine read through.
type Repository interface {
	GetRace(raceID string) (*models.Race, bool)
	// IterRaces returns every race. SimulationRepository returns them in
	// chronological order; LiveRepository's order is not defined.
	IterRaces() []models.Race
	GetPayoffs(raceID string) []models.Payoff
	// GetHistorical returns aggregate statistics for a horse, e.g.
	// {"starts": n, "wins": n, "win_rate": f}.
	GetHistorical(horseID string) map[string]float64
	// GetPublishTime returns when a data type becomes available for a
	// race, or the zero time and false if unknown.
	GetPublishTime(raceID string, dataType DataType) (time.Time, bool)
}
