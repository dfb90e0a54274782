package racerepo

import (
	"sync"
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

type publishKey struct {
	raceID   string
	dataType DataType
}

// LiveRepository is an append-only repository a live feed adapter pushes
// races, payoffs, and publish-time announcements into as they arrive.
// Unlike SimulationRepository it does not derive historical stats from its
// data; GetHistorical always returns zeroed placeholders.
type LiveRepository struct {
	mu           sync.RWMutex
	races        map[string]models.Race
	payoffs      map[string][]models.Payoff
	publishTimes map[publishKey]time.Time
}

// NewLiveRepository returns an empty live repository.
func NewLiveRepository() *LiveRepository {
	return &LiveRepository{
		races:        make(map[string]models.Race),
		payoffs:      make(map[string][]models.Payoff),
		publishTimes: make(map[publishKey]time.Time),
	}
}

// RegisterRace inserts or replaces a race entry.
func (r *LiveRepository) RegisterRace(race models.Race) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.races[race.RaceID] = race
}

// RegisterPayoff appends a payoff entry for later retrieval.
func (r *LiveRepository) RegisterPayoff(payoff models.Payoff) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payoffs[payoff.RaceID] = append(r.payoffs[payoff.RaceID], payoff)
}

// RegisterPublishTime records when a data type becomes available for a
// race, for an adapter to call as it learns of new scheduling information.
func (r *LiveRepository) RegisterPublishTime(raceID string, dataType DataType, availableAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishTimes[publishKey{raceID, dataType}] = availableAt.UTC()
}

func (r *LiveRepository) GetRace(raceID string) (*models.Race, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	race, ok := r.races[raceID]
	if !ok {
		return nil, false
	}
	return &race, true
}

func (r *LiveRepository) IterRaces() []models.Race {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Race, 0, len(r.races))
	for _, race := range r.races {
		out = append(out, race)
	}
	return out
}

func (r *LiveRepository) GetPayoffs(raceID string) []models.Payoff {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payoffs := r.payoffs[raceID]
	out := make([]models.Payoff, len(payoffs))
	copy(out, payoffs)
	return out
}

// GetHistorical always returns zeroed placeholder stats: a live repository
// has no historical dataset of its own, matching the original behaviour.
func (r *LiveRepository) GetHistorical(horseID string) map[string]float64 {
	return map[string]float64{"starts": 0, "wins": 0, "win_rate": 0}
}

func (r *LiveRepository) GetPublishTime(raceID string, dataType DataType) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.publishTimes[publishKey{raceID, dataType}]
	return t, ok
}
