package platelog

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/ledger"
)

var (
	mealsAll  bool
	mealsJSON bool
)

var mealsCmd = &cobra.Command{
	Use:   "meals",
	Short: "List logged meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(s *session) error {
			records := s.ledger.Meals()
			if mealsAll {
				records = s.ledger.History()
			}
			if mealsJSON {
				return ledger.WriteJSON(cmd.OutOrStdout(), records)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "TIME\tTYPE\tCALORIES\tPROTEIN\tFAT\tCARBS")
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\n",
					r.Timestamp.Local().Format(time.RFC3339), r.MealType, r.Calories, r.ProteinG, r.FatG, r.CarbsG)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(mealsCmd)
	mealsCmd.Flags().BoolVar(&mealsAll, "all", false, "Include meals from previous days")
	mealsCmd.Flags().BoolVar(&mealsJSON, "json", false, "Output as JSON")
}
