// Package config loads and validates the backtest engine's configuration.
package config

// Config is the fully resolved, validated configuration for a backtest run.
type Config struct {
	App struct {
		Environment string `mapstructure:"environment" validate:"required,oneof=development staging production"`
		LogLevel    string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
		Debug       bool   `mapstructure:"debug"`
	} `mapstructure:"app" validate:"required"`

	Logging struct {
		FilePath   string `mapstructure:"file_path" validate:"required"`
		MaxSize    int    `mapstructure:"max_size" validate:"required,min=1"`
		MaxBackups int    `mapstructure:"max_backups" validate:"required,min=0"`
		MaxAge     int    `mapstructure:"max_age" validate:"required,min=1"`
	} `mapstructure:"logging" validate:"required"`

	Data struct {
		// Source selects the ingestion adaptor: "csv" or "sqlite".
		Source string `mapstructure:"source" validate:"required,oneof=csv sqlite"`
		// Path is the CSV base directory or SQLite database file.
		Path string `mapstructure:"path" validate:"required"`
		// PayoffPublishDelaySeconds is added to a race's start time to
		// derive when its payoffs become visible to strategies. The run
		// command does not read it; it builds its data repository with the
		// repository's default delay.
		PayoffPublishDelaySeconds int `mapstructure:"payoff_publish_delay_seconds" validate:"omitempty,min=0"`
	} `mapstructure:"data" validate:"required"`

	Engine struct {
		// InitialBankroll seeds the portfolio's starting cash.
		InitialBankroll float64 `mapstructure:"initial_bankroll" validate:"required,gt=0"`
		// TickIntervalSeconds bounds how far a real-time run's clock can
		// advance between schedule checks when the queue is empty.
		TickIntervalSeconds int `mapstructure:"tick_interval_seconds" validate:"required,min=1"`
	} `mapstructure:"engine" validate:"required"`

	Betting struct {
		// MaxStakePerBet caps any single bet request's stake.
		MaxStakePerBet float64 `mapstructure:"max_stake_per_bet" validate:"omitempty,gt=0"`
		// MaxExposurePerRace caps total stake placed on a single race.
		MaxExposurePerRace float64 `mapstructure:"max_exposure_per_race" validate:"omitempty,gt=0"`
	} `mapstructure:"betting"`

	Report struct {
		// OutputPath is where the CSV bet history is written after a run.
		OutputPath string `mapstructure:"output_path" validate:"required"`
	} `mapstructure:"report" validate:"required"`
}
