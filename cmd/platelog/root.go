package platelog

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "platelog",
	Short: "platelog keeps a daily calorie and macro ledger from meal photos",
	Long:  "platelog is a local-first nutrition ledger: it computes a daily target from your profile, logs meals estimated from photos or entered by hand, and gives tips against the target.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
}
