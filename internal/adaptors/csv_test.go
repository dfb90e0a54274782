package adaptors

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlatomapp/racebacktest/internal/apperror"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCSVAdaptorLoadRacesJoinsHorsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "horses.csv", `race_id,horse_id,name,jockey,trainer,draw,odds
race-1,h1,Favourite,J.Doe,T.Smith,1,"{""win"": 2.5}"
race-1,h2,Longshot,J.Roe,T.Jones,2,"{""win"": 15.0}"
`)
	writeFixture(t, dir, "races.csv", `race_id,date,course,distance,ground,weather
race-1,2024-01-01 10:00:00,Tokyo,1600,turf,sunny
`)

	adaptor := NewCSVAdaptor(dir)
	races, err := adaptor.LoadRaces()
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, "race-1", races[0].RaceID)
	require.Len(t, races[0].Horses, 2)
	assert.Equal(t, 2.5, races[0].Horses[0].Odds["win"])
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), races[0].Date)
}

func TestCSVAdaptorLoadRacesRejectsInvalidHorseRow(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "horses.csv", `race_id,horse_id,name,jockey,trainer,draw,odds
race-1,h1,Favourite,J.Doe,T.Smith,0,"{""win"": 2.5}"
`)
	writeFixture(t, dir, "races.csv", `race_id,date,course,distance,ground,weather
race-1,2024-01-01 10:00:00,Tokyo,1600,turf,sunny
`)

	_, err := NewCSVAdaptor(dir).LoadRaces()
	assert.Error(t, err, "draw 0 fails horse validation")
}

func TestCSVAdaptorLoadRacesCollectsAllInvalidRows(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "horses.csv", `race_id,horse_id,name,jockey,trainer,draw,odds
race-1,h1,Favourite,J.Doe,T.Smith,0,"{""win"": 2.5}"
race-2,h2,Longshot,J.Roe,T.Jones,1,"{""win"": -1}"
`)
	writeFixture(t, dir, "races.csv", `race_id,date,course,distance,ground,weather
race-1,2024-01-01 10:00:00,Tokyo,1600,turf,sunny
race-2,2024-01-01 10:00:00,Tokyo,0,turf,sunny
`)

	_, err := NewCSVAdaptor(dir).LoadRaces()
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok, "batch failures must surface as a single apperror.AppError")
	rowErrors, ok := appErr.Details.([]error)
	require.True(t, ok)
	assert.Len(t, rowErrors, 2, "both the bad-horse race and the bad-distance race are reported together")
}

func TestCSVAdaptorLoadRacesMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCSVAdaptor(dir).LoadRaces()
	assert.Error(t, err)
}

func TestCSVAdaptorLoadPayoffsParsesCombinationAndNumbers(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "payoffs.csv", `race_id,bet_type,combination,odds,payout
race-1,win,h1,2.5,250
race-1,exacta,"[""h1"",""h2""]",9.0,900
`)

	payoffs, err := NewCSVAdaptor(dir).LoadPayoffs()
	require.NoError(t, err)
	require.Len(t, payoffs, 2)
	assert.Equal(t, []string{"h1"}, payoffs[0].Combination)
	assert.Equal(t, []string{"h1", "h2"}, payoffs[1].Combination)
	assert.Equal(t, 900.0, payoffs[1].Payout)
}

func TestCSVAdaptorLoadPayoffsCollectsAllInvalidRows(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "payoffs.csv", `race_id,bet_type,combination,odds,payout
race-1,win,h1,2.5,250
,win,h2,3.0,300
race-3,,h3,4.0,400
`)

	_, err := NewCSVAdaptor(dir).LoadPayoffs()
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok, "batch failures must surface as a single apperror.AppError")
	rowErrors, ok := appErr.Details.([]error)
	require.True(t, ok)
	assert.Len(t, rowErrors, 2, "missing race_id and missing bet_type are both reported")
}

func TestCSVAdaptorLoadPayoffsRejectsInvalidNumber(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "payoffs.csv", "race_id,bet_type,combination,odds,payout\n"+
		"race-1,win,h1,not-a-number,250\n")

	_, err := NewCSVAdaptor(dir).LoadPayoffs()
	assert.Error(t, err)
}

func TestParseOddsEmptyStringYieldsEmptyMap(t *testing.T) {
	odds, err := parseOdds("")
	require.NoError(t, err)
	assert.Empty(t, odds)
}

func TestParseOddsRejectsNonNumericValue(t *testing.T) {
	_, err := parseOdds(`{"win": "fast"}`)
	assert.Error(t, err)
}

func TestParseCombinationHyphenDelimited(t *testing.T) {
	assert.Equal(t, []string{"h1", "h2", "h3"}, parseCombination("h1-h2-h3"))
}

func TestParseCombinationJSONArray(t *testing.T) {
	assert.Equal(t, []string{"h1", "h2"}, parseCombination(`["h1","h2"]`))
}

func TestParseCombinationEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, parseCombination(""))
}

func TestParseTimestampFormatChain(t *testing.T) {
	want := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	got, err := parseTimestamp("2024-01-01T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseTimestamp("2024-01-01 10:30:00")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseTimestamp("2024/01/01 10:30:00")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseTimestamp("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseTimestampUnixMillis(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := parseTimestamp(strconv.FormatInt(want.UnixMilli(), 10))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := parseTimestamp("not a timestamp")
	assert.Error(t, err)

	_, err = parseTimestamp("")
	assert.Error(t, err)
}
