// Command racebacktest runs deterministic backtests of horse-racing
// betting strategies and reports on saved results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "racebacktest",
		Short: "Event-driven backtester for horse-racing betting strategies",
		Long:  `racebacktest replays historical races and payoffs through a strategy and reports on the resulting bet history.`,
	}
	cmd.PersistentFlags().Bool("verbose", false, "Enable verbose (development-mode) logging")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
