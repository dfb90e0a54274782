package racerepo

import (
	"sort"
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

// SimulationRepository serves a static, pre-loaded dataset, the kind a
// backtest run is seeded with up front.
type SimulationRepository struct {
	races           map[string]models.Race
	payoffsByRace   map[string][]models.Payoff
	payoffDelay     time.Duration
}

// NewSimulationRepository builds a repository from validated race and
// payoff records. payoffDelay is how long after a race's scheduled time its
// payoffs become available, matching the original's default of ten
// minutes when zero is passed.
func NewSimulationRepository(races []models.Race, payoffs []models.Payoff, payoffDelay time.Duration) *SimulationRepository {
	if payoffDelay == 0 {
		payoffDelay = 10 * time.Minute
	}
	r := &SimulationRepository{
		races:         make(map[string]models.Race, len(races)),
		payoffsByRace: make(map[string][]models.Payoff),
		payoffDelay:   payoffDelay,
	}
	for _, race := range races {
		r.races[race.RaceID] = race
	}
	for _, p := range payoffs {
		r.payoffsByRace[p.RaceID] = append(r.payoffsByRace[p.RaceID], p)
	}
	return r
}

func (r *SimulationRepository) GetRace(raceID string) (*models.Race, bool) {
	race, ok := r.races[raceID]
	if !ok {
		return nil, false
	}
	return &race, true
}

func (r *SimulationRepository) IterRaces() []models.Race {
	out := make([]models.Race, 0, len(r.races))
	for _, race := range r.races {
		out = append(out, race)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (r *SimulationRepository) GetPayoffs(raceID string) []models.Payoff {
	payoffs := r.payoffsByRace[raceID]
	out := make([]models.Payoff, len(payoffs))
	copy(out, payoffs)
	return out
}

// GetHistorical computes simple win statistics for a horse across every
// loaded race and payoff, exactly like the dataset-driven original: starts
// count race appearances, wins count "win"/"単勝" payoffs naming the horse.
func (r *SimulationRepository) GetHistorical(horseID string) map[string]float64 {
	starts := 0
	wins := 0
	for _, race := range r.races {
		if race.GetHorse(horseID) != nil {
			starts++
		}
	}
	for _, payoffs := range r.payoffsByRace {
		for _, payoff := range payoffs {
			if (payoff.BetType == "win" || payoff.BetType == "単勝") && containsString(payoff.Combination, horseID) {
				wins++
			}
		}
	}
	if starts == 0 {
		return map[string]float64{"starts": 0, "wins": 0, "win_rate": 0}
	}
	return map[string]float64{
		"starts":   float64(starts),
		"wins":     float64(wins),
		"win_rate": float64(wins) / float64(starts),
	}
}

func (r *SimulationRepository) GetPublishTime(raceID string, dataType DataType) (time.Time, bool) {
	race, ok := r.GetRace(raceID)
	if !ok {
		return time.Time{}, false
	}
	raceTime := race.Date.UTC()
	switch dataType {
	case DataTypeRace:
		return raceTime, true
	case DataTypePayoff:
		return raceTime.Add(r.payoffDelay), true
	default:
		return time.Time{}, false
	}
}

func containsString(items []string, needle string) bool {
	for _, item := range items {
		if item == needle {
			return true
		}
	}
	return false
}
