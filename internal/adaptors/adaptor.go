// Package adaptors loads Race and Payoff records from external sources
// (CSV files, SQLite databases) into validated domain models.
package adaptors

import "github.com/xlatomapp/racebacktest/internal/domain/models"

// Adaptor loads race and payoff data from some external source.
type Adaptor interface {
	LoadRaces() ([]models.Race, error)
	LoadPayoffs() ([]models.Payoff, error)
}
