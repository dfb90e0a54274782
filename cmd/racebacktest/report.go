package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xlatomapp/racebacktest/internal/analytics"
	"github.com/xlatomapp/racebacktest/internal/domain/models"
)

func newReportCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a saved bet-history CSV into KPIs",
		Long:  `Reads a bet-history CSV produced by "racebacktest run --output" and prints win rate, ROI, drawdown, and streak statistics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			positions, err := readBetHistory(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read bet history: %w", err)
			}
			report := analytics.GenerateReport(positions)
			printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to a bet-history CSV file")
	cmd.MarkFlagRequired("input")

	return cmd
}

func readBetHistory(path string) ([]models.BetPosition, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	positions := make([]models.BetPosition, 0, len(records))
	for _, record := range records {
		stake, err := strconv.ParseFloat(record[columns["stake"]], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid stake: %w", err)
		}
		payout, err := strconv.ParseFloat(record[columns["payout"]], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid payout: %w", err)
		}
		positions = append(positions, models.BetPosition{
			BetID:   record[columns["bet_id"]],
			RaceID:  record[columns["race_id"]],
			BetType: record[columns["bet_type"]],
			Stake:   stake,
			Payout:  payout,
			Status:  models.BetPositionStatus(record[columns["status"]]),
		})
	}
	return positions, nil
}

func printReport(r analytics.Report) {
	fmt.Println("=== KPI Report ===")
	fmt.Printf("Total Bets:           %d\n", r.TotalBets)
	fmt.Printf("Settled Bets:         %d\n", r.SettledBets)
	fmt.Printf("Win Rate:             %.2f%%\n", r.WinRate*100)
	fmt.Printf("ROI:                  %.2f%%\n", r.ROI*100)
	fmt.Printf("Average Payout:       %.2f\n", r.AvgPayout)
	fmt.Printf("Total Profit:         %.2f\n", r.TotalProfit)
	fmt.Printf("Max Drawdown:         %.2f\n", r.MaxDrawdown)
	fmt.Printf("Max Consecutive Win:  %d\n", r.MaxConsecutiveWin)
	fmt.Printf("Max Consecutive Loss: %d\n", r.MaxConsecutiveLoss)
}
