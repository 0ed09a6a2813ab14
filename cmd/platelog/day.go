package platelog

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear today's meals and all meal history (profile is kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("reset deletes every logged meal; re-run with --yes to confirm")
		}
		return withLedger(cmd, func(s *session) error {
			s.ledger.Reset()
			fmt.Fprintln(cmd.OutOrStdout(), "Ledger reset")
			return nil
		})
	},
}

var closeDayCmd = &cobra.Command{
	Use:   "close-day",
	Short: "Archive today's meals into history and start a new day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(s *session) error {
			closed := s.ledger.Day()
			count := len(s.ledger.Meals())
			s.ledger.CloseDay()
			fmt.Fprintf(cmd.OutOrStdout(), "Closed %s with %d meal(s)\n", closed, count)
			return nil
		})
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send an idle-meal reminder if no meal was logged recently",
	Long:  "remind is meant for cron or a status bar: it notifies when the last logged meal is older than PLATELOG_IDLE_REMINDER_HOURS and notifications are granted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(s *session) error {
			if s.reminded {
				fmt.Fprintln(cmd.OutOrStdout(), "Reminder sent")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No reminder due")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(resetCmd, closeDayCmd, remindCmd)
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm reset")
}
