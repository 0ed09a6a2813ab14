package platelog

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the stored ledger for corrupt or inconsistent state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Malformed keys: %d\n", len(report.MalformedKeys))
			fmt.Fprintf(cmd.OutOrStdout(), "Totals drift: %t\n", report.TotalsDrift)
			fmt.Fprintf(cmd.OutOrStdout(), "Meal type drift: %t\n", report.BucketDrift)
			if doctorFix {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed keys: %d\n", len(report.RemovedKeys))
				fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt totals: %t\n", report.RebuiltTotals)
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Drop undecodable keys and rebuild totals from meal records")
}
