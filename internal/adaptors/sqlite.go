package adaptors

import (
	"fmt"

	"github.com/xlatomapp/racebacktest/internal/apperror"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// raceRow, horseRow, and payoffRow are the gorm-mapped tables a SQLite
// database backing a SQLiteAdaptor is expected to provide.
type raceRow struct {
	RaceID   string `gorm:"column:race_id;primaryKey"`
	Date     string `gorm:"column:date"`
	Course   string `gorm:"column:course"`
	Distance int    `gorm:"column:distance"`
	Ground   string `gorm:"column:ground"`
	Weather  string `gorm:"column:weather"`
}

func (raceRow) TableName() string { return "races" }

type horseRow struct {
	RaceID  string `gorm:"column:race_id"`
	HorseID string `gorm:"column:horse_id"`
	Name    string `gorm:"column:name"`
	Jockey  string `gorm:"column:jockey"`
	Trainer string `gorm:"column:trainer"`
	Draw    int    `gorm:"column:draw"`
	Odds    string `gorm:"column:odds"`
}

func (horseRow) TableName() string { return "horses" }

type payoffRow struct {
	RaceID      string  `gorm:"column:race_id"`
	BetType     string  `gorm:"column:bet_type"`
	Combination string  `gorm:"column:combination"`
	Odds        float64 `gorm:"column:odds"`
	Payout      float64 `gorm:"column:payout"`
}

func (payoffRow) TableName() string { return "payoffs" }

// SQLiteAdaptor loads races, horses, and payoffs from a SQLite database
// through gorm.
type SQLiteAdaptor struct {
	db *gorm.DB
}

// NewSQLiteAdaptor opens (or creates) a SQLite database at path.
func NewSQLiteAdaptor(path string) (*SQLiteAdaptor, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	return &SQLiteAdaptor{db: db}, nil
}

// LoadRaces reads the races and horses tables and returns validated,
// fully-populated races. Every malformed or invalid row is collected into
// a single aggregate apperror.DataValidation failure rather than stopping
// at the first, matching the CSV adaptor's batch behaviour.
func (a *SQLiteAdaptor) LoadRaces() ([]models.Race, error) {
	var horseRows []horseRow
	if err := a.db.Find(&horseRows).Error; err != nil {
		return nil, fmt.Errorf("query horses table: %w", err)
	}
	var errs []error
	horsesByRace := make(map[string][]models.HorseEntry)
	for i, row := range horseRows {
		odds, err := parseOdds(row.Odds)
		if err != nil {
			errs = append(errs, fmt.Errorf("horse row %d: %w", i, err))
			continue
		}
		horse := models.HorseEntry{
			RaceID:  row.RaceID,
			HorseID: row.HorseID,
			Name:    row.Name,
			Jockey:  row.Jockey,
			Trainer: row.Trainer,
			Draw:    row.Draw,
			Odds:    odds,
		}
		horsesByRace[horse.RaceID] = append(horsesByRace[horse.RaceID], horse)
	}

	var raceRows []raceRow
	if err := a.db.Find(&raceRows).Error; err != nil {
		return nil, fmt.Errorf("query races table: %w", err)
	}
	races := make([]models.Race, 0, len(raceRows))
	for i, row := range raceRows {
		date, err := parseTimestamp(row.Date)
		if err != nil {
			errs = append(errs, fmt.Errorf("race row %d: %w", i, err))
			continue
		}
		race := models.Race{
			RaceID:   row.RaceID,
			Date:     date,
			Course:   row.Course,
			Distance: row.Distance,
			Ground:   row.Ground,
			Weather:  row.Weather,
			Horses:   horsesByRace[row.RaceID],
		}
		races = append(races, race)
	}

	errs = append(errs, collectValidationErrors(models.ValidateRaces(races))...)
	if len(errs) > 0 {
		return nil, apperror.NewDataValidation(errs)
	}
	return races, nil
}

// LoadPayoffs reads the payoffs table and returns validated payoff
// records, aggregating every invalid row into a single failure.
func (a *SQLiteAdaptor) LoadPayoffs() ([]models.Payoff, error) {
	var rows []payoffRow
	if err := a.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query payoffs table: %w", err)
	}
	payoffs := make([]models.Payoff, 0, len(rows))
	for _, row := range rows {
		payoffs = append(payoffs, models.Payoff{
			RaceID:      row.RaceID,
			BetType:     row.BetType,
			Combination: parseCombination(row.Combination),
			Odds:        row.Odds,
			Payout:      row.Payout,
		})
	}

	if err := models.ValidatePayoffs(payoffs); err != nil {
		return nil, err
	}
	return payoffs, nil
}
