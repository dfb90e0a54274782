package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xlatomapp/racebacktest/internal/adaptors"
	"github.com/xlatomapp/racebacktest/internal/betting"
	"github.com/xlatomapp/racebacktest/internal/config"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
	"github.com/xlatomapp/racebacktest/internal/engine"
	"github.com/xlatomapp/racebacktest/internal/portfolio"
	"github.com/xlatomapp/racebacktest/internal/racerepo"
	"github.com/xlatomapp/racebacktest/internal/strategy"
	"github.com/xlatomapp/racebacktest/internal/strategy/strategies"
)

func newRunCmd() *cobra.Command {
	var (
		strategyName string
		dataSource   string
		dataPath     string
		bankroll     float64
		configPath   string
		live         bool
		outputPath   string
		tickSeconds  int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest for a betting strategy",
		Long:  `Replays historical races and payoffs through a strategy, settling bets as results arrive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			runID := uuid.New().String()
			logger.Info("starting backtest run",
				zap.String("run_id", runID),
				zap.String("strategy", strategyName),
				zap.String("data_source", dataSource),
				zap.Bool("live", live),
			)

			adaptor, err := newAdaptor(dataSource, dataPath)
			if err != nil {
				return err
			}
			races, err := adaptor.LoadRaces()
			if err != nil {
				return fmt.Errorf("failed to load races: %w", err)
			}
			payoffs, err := adaptor.LoadPayoffs()
			if err != nil {
				return fmt.Errorf("failed to load payoffs: %w", err)
			}

			dataRepository := racerepo.NewSimulationRepository(races, payoffs, 0)
			pf := portfolio.New(bankroll)

			var bettingRepository betting.Repository
			if live {
				bettingRepository = betting.NewLiveRepository(pf)
			} else {
				bettingRepository = betting.NewSimulationRepository(pf, dataRepository)
			}

			if configPath != "" {
				if err := applyBettingLimits(configPath, bettingRepository, logger); err != nil {
					return fmt.Errorf("failed to apply config betting limits: %w", err)
				}
			}

			strat, err := newStrategy(strategyName, logger)
			if err != nil {
				return err
			}

			eng, err := engine.New(engine.Config{
				DataRepository:    dataRepository,
				BettingRepository: bettingRepository,
				TickInterval:      secondsToDuration(tickSeconds),
				Logger:            logger,
			})
			if err != nil {
				return fmt.Errorf("failed to construct engine: %w", err)
			}

			if err := eng.Run(strat); err != nil {
				return fmt.Errorf("backtest run failed: %w", err)
			}

			printSummary(pf)

			if outputPath != "" {
				if err := writeBetHistory(pf.AllPositions(), outputPath); err != nil {
					return fmt.Errorf("failed to write bet history: %w", err)
				}
				logger.Info("bet history written", zap.String("path", outputPath))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&strategyName, "strategy", "naive_favorite", "Strategy to run (naive_favorite, value_betting)")
	cmd.Flags().StringVar(&dataSource, "data-source", "csv", "Data source (csv, db)")
	cmd.Flags().StringVar(&dataPath, "data", "./data", "CSV directory or SQLite database path")
	cmd.Flags().Float64Var(&bankroll, "bankroll", 100000, "Initial bankroll")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	cmd.Flags().BoolVar(&live, "live", false, "Run against a live betting repository instead of the simulated one")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write the resulting bet history to this CSV file")
	cmd.Flags().IntVar(&tickSeconds, "tick-seconds", 60, "Engine tick interval in seconds (runs always use a simulated clock, --live included)")

	return cmd
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// limitSetter is implemented by every betting.Repository built in this
// package; it is kept separate from betting.Repository itself since a
// live broker integration, not this CLI, is the one place limits would
// otherwise need enforcing.
type limitSetter interface {
	SetLimits(betting.Limits)
}

// applyBettingLimits loads configPath and installs its betting stake and
// exposure caps onto repo, if it supports them.
func applyBettingLimits(configPath string, repo betting.Repository, logger *zap.Logger) error {
	setter, ok := repo.(limitSetter)
	if !ok {
		return nil
	}
	os.Setenv("CONFIG_PATH", filepath.Dir(configPath))
	os.Setenv("CONFIG_FILE", filepath.Base(configPath))
	cfg, err := config.NewLoader(config.EnvironmentDevelopment, logger).Load()
	if err != nil {
		return err
	}
	setter.SetLimits(betting.Limits{
		MaxStakePerBet:     cfg.Betting.MaxStakePerBet,
		MaxExposurePerRace: cfg.Betting.MaxExposurePerRace,
	})
	return nil
}

func newAdaptor(source, path string) (adaptors.Adaptor, error) {
	switch source {
	case "csv":
		return adaptors.NewCSVAdaptor(path), nil
	case "db", "sqlite":
		return adaptors.NewSQLiteAdaptor(path)
	default:
		return nil, fmt.Errorf("unknown data source: %s", source)
	}
}

func newStrategy(name string, logger *zap.Logger) (strategy.Strategy, error) {
	switch name {
	case "naive_favorite":
		return strategies.NewNaiveFavorite(100.0, logger), nil
	case "value_betting":
		return strategies.NewValueBetting(50.0, 1.2, logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
}

func printSummary(pf *portfolio.Portfolio) {
	fmt.Println("=== Backtest Results ===")
	fmt.Printf("Bankroll:     %.2f\n", pf.Bankroll())
	fmt.Printf("Total Profit: %.2f\n", pf.TotalProfit())
	fmt.Printf("Open Bets:    %d\n", len(pf.OpenPositions()))
	fmt.Printf("Settled Bets: %d\n", len(pf.SettledPositions()))
}

func writeBetHistory(positions []models.BetPosition, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"bet_id", "race_id", "bet_type", "combination", "stake", "payout", "status"}); err != nil {
		return err
	}
	for _, pos := range positions {
		record := []string{
			pos.BetID,
			pos.RaceID,
			pos.BetType,
			joinCombination(pos.Combination),
			fmt.Sprintf("%.2f", pos.Stake),
			fmt.Sprintf("%.2f", pos.Payout),
			string(pos.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}
