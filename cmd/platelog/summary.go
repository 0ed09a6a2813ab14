package platelog

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize all retained meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(s *session) error {
			sum := s.ledger.Summary()
			if summaryJSON {
				return printJSON(cmd, sum)
			}
			if sum.NoData {
				fmt.Fprintln(cmd.OutOrStdout(), "No meals logged yet")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total meals: %d\n", sum.TotalMeals)
			fmt.Fprintf(cmd.OutOrStdout(), "Total calories: %.0f kcal\n", sum.TotalCaloriesAllTime)
			fmt.Fprintf(cmd.OutOrStdout(), "Average per meal: %.0f kcal\n", sum.AvgCaloriesPerMeal)
			fmt.Fprintf(cmd.OutOrStdout(), "Most caloric meal type: %s\n", sum.MostCaloricMealType)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Output as JSON")
}
