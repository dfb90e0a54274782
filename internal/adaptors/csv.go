package adaptors

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xlatomapp/racebacktest/internal/apperror"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

// CSVAdaptor loads race, horse, and payoff records from three CSV files
// beneath a base directory.
type CSVAdaptor struct {
	BasePath    string
	RacesFile   string
	HorsesFile  string
	PayoffsFile string
}

// NewCSVAdaptor returns an adaptor reading races.csv, horses.csv, and
// payoffs.csv beneath basePath.
func NewCSVAdaptor(basePath string) *CSVAdaptor {
	return &CSVAdaptor{
		BasePath:    basePath,
		RacesFile:   "races.csv",
		HorsesFile:  "horses.csv",
		PayoffsFile: "payoffs.csv",
	}
}

// LoadRaces reads horses.csv and races.csv and returns validated,
// fully-populated races. Every malformed or invalid row is collected into
// a single aggregate apperror.DataValidation failure rather than stopping
// at the first, matching the original ingestion pipeline's batch behaviour.
func (a *CSVAdaptor) LoadRaces() ([]models.Race, error) {
	horseRows, err := readCSV(filepath.Join(a.BasePath, a.HorsesFile))
	if err != nil {
		return nil, err
	}
	var errs []error
	horsesByRace := make(map[string][]models.HorseEntry)
	for i, row := range horseRows {
		horse, err := parseHorseRow(row)
		if err != nil {
			errs = append(errs, fmt.Errorf("horse record %d: %w", i, err))
			continue
		}
		horsesByRace[horse.RaceID] = append(horsesByRace[horse.RaceID], horse)
	}

	raceRows, err := readCSV(filepath.Join(a.BasePath, a.RacesFile))
	if err != nil {
		return nil, err
	}
	races := make([]models.Race, 0, len(raceRows))
	for i, row := range raceRows {
		race, err := parseRaceRow(row)
		if err != nil {
			errs = append(errs, fmt.Errorf("race record %d: %w", i, err))
			continue
		}
		race.Horses = horsesByRace[race.RaceID]
		races = append(races, race)
	}

	errs = append(errs, collectValidationErrors(models.ValidateRaces(races))...)
	if len(errs) > 0 {
		return nil, apperror.NewDataValidation(errs)
	}
	return races, nil
}

// LoadPayoffs reads payoffs.csv and returns validated payoff records,
// aggregating every malformed or invalid row into a single failure.
func (a *CSVAdaptor) LoadPayoffs() ([]models.Payoff, error) {
	rows, err := readCSV(filepath.Join(a.BasePath, a.PayoffsFile))
	if err != nil {
		return nil, err
	}
	var errs []error
	payoffs := make([]models.Payoff, 0, len(rows))
	for i, row := range rows {
		payoff, err := parsePayoffRow(row)
		if err != nil {
			errs = append(errs, fmt.Errorf("payoff record %d: %w", i, err))
			continue
		}
		payoffs = append(payoffs, payoff)
	}

	errs = append(errs, collectValidationErrors(models.ValidatePayoffs(payoffs))...)
	if len(errs) > 0 {
		return nil, apperror.NewDataValidation(errs)
	}
	return payoffs, nil
}

// collectValidationErrors unwraps the per-row errors out of a batch
// validation failure so callers can merge them with their own parse errors
// into one aggregate apperror.DataValidation.
func collectValidationErrors(err error) []error {
	if err == nil {
		return nil
	}
	appErr, ok := err.(*apperror.AppError)
	if !ok {
		return []error{err}
	}
	rowErrors, ok := appErr.Details.([]error)
	if !ok {
		return []error{err}
	}
	return rowErrors
}

// readCSV reads a CSV file into a slice of header-keyed row maps.
func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv file not found: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header in %q: %w", path, err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records in %q: %w", path, err)
	}
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseHorseRow(row map[string]string) (models.HorseEntry, error) {
	draw, err := strconv.Atoi(row["draw"])
	if err != nil {
		return models.HorseEntry{}, fmt.Errorf("invalid draw %q: %w", row["draw"], err)
	}
	odds, err := parseOdds(row["odds"])
	if err != nil {
		return models.HorseEntry{}, err
	}
	return models.HorseEntry{
		RaceID:  row["race_id"],
		HorseID: row["horse_id"],
		Name:    row["name"],
		Jockey:  row["jockey"],
		Trainer: row["trainer"],
		Draw:    draw,
		Odds:    odds,
	}, nil
}

func parseOdds(raw string) (map[string]float64, error) {
	odds := make(map[string]float64)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return odds, nil
	}
	var rawOdds map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &rawOdds); err != nil {
		return nil, fmt.Errorf("odds must be a JSON object of bet type to price: %w", err)
	}
	for betType, value := range rawOdds {
		price, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("odds for %s is not numeric", betType)
		}
		odds[betType] = price
	}
	return odds, nil
}

func parseRaceRow(row map[string]string) (models.Race, error) {
	date, err := parseTimestamp(row["date"])
	if err != nil {
		return models.Race{}, fmt.Errorf("invalid date %q: %w", row["date"], err)
	}
	distance, err := strconv.Atoi(row["distance"])
	if err != nil {
		return models.Race{}, fmt.Errorf("invalid distance %q: %w", row["distance"], err)
	}
	return models.Race{
		RaceID:   row["race_id"],
		Date:     date,
		Course:   row["course"],
		Distance: distance,
		Ground:   row["ground"],
		Weather:  row["weather"],
	}, nil
}

func parsePayoffRow(row map[string]string) (models.Payoff, error) {
	odds, err := strconv.ParseFloat(row["odds"], 64)
	if err != nil {
		return models.Payoff{}, fmt.Errorf("invalid odds %q: %w", row["odds"], err)
	}
	payout, err := strconv.ParseFloat(row["payout"], 64)
	if err != nil {
		return models.Payoff{}, fmt.Errorf("invalid payout %q: %w", row["payout"], err)
	}
	return models.Payoff{
		RaceID:      row["race_id"],
		BetType:     row["bet_type"],
		Combination: parseCombination(row["combination"]),
		Odds:        odds,
		Payout:      payout,
	}, nil
}

// parseCombination accepts either a JSON array ("[\"h1\",\"h2\"]") or a
// hyphen-delimited string ("h1-h2"), matching the formats the original
// ingestion pipeline tolerates.
func parseCombination(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var values []string
		if err := json.Unmarshal([]byte(raw), &values); err == nil {
			return values
		}
	}
	parts := strings.Split(raw, "-")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseTimestamp tries a chain of formats, matching the tolerant multi-
// format parsing the teacher's own CSV-backed data provider applies.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006/01/02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse timestamp %q", raw)
}
