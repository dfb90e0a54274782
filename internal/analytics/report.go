// Package analytics aggregates a portfolio's bet positions into summary
// KPIs for the CLI's report command.
package analytics

import "github.com/xlatomapp/racebacktest/internal/domain/models"

// Report summarizes a run's betting performance.
type Report struct {
	TotalBets          int
	SettledBets        int
	WinRate            float64
	ROI                float64
	AvgPayout          float64
	TotalProfit        float64
	MaxDrawdown        float64
	MaxConsecutiveWin  int
	MaxConsecutiveLoss int
}

// GenerateReport aggregates positions into a Report. Positions are
// processed in the order given; callers that want a deterministic streak
// calculation should pass them sorted by placement time.
func GenerateReport(positions []models.BetPosition) Report {
	report := Report{TotalBets: len(positions)}
	if report.TotalBets == 0 {
		return report
	}

	var settled []models.BetPosition
	for _, pos := range positions {
		if pos.Status == models.BetStatusSettled {
			settled = append(settled, pos)
		}
	}
	report.SettledBets = len(settled)
	if report.SettledBets == 0 {
		return report
	}

	var totalProfit, totalStake, totalPayout float64
	profits := make([]float64, len(settled))
	wins := make([]bool, len(settled))
	winCount := 0
	for i, pos := range settled {
		profit := pos.Payout - pos.Stake
		profits[i] = profit
		totalProfit += profit
		totalStake += pos.Stake
		totalPayout += pos.Payout
		won := pos.Payout > pos.Stake
		wins[i] = won
		if won {
			winCount++
		}
	}

	report.TotalProfit = totalProfit
	if totalStake != 0 {
		report.ROI = totalProfit / totalStake
	}
	report.WinRate = float64(winCount) / float64(report.SettledBets)
	report.AvgPayout = totalPayout / float64(report.SettledBets)
	report.MaxDrawdown = calculateDrawdown(profits)
	report.MaxConsecutiveWin, report.MaxConsecutiveLoss = streaks(wins)
	return report
}

func calculateDrawdown(profits []float64) float64 {
	var cumulative, peak, maxDrawdown float64
	for _, profit := range profits {
		cumulative += profit
		if cumulative > peak {
			peak = cumulative
		}
		if drawdown := peak - cumulative; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

func streaks(results []bool) (maxWin, maxLoss int) {
	var currentWin, currentLoss int
	for _, won := range results {
		if won {
			currentWin++
			currentLoss = 0
		} else {
			currentLoss++
			currentWin = 0
		}
		if currentWin > maxWin {
			maxWin = currentWin
		}
		if currentLoss > maxLoss {
			maxLoss = currentLoss
		}
	}
	return maxWin, maxLoss
}
