package platelog

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/model"
)

var (
	todayJSON bool
	tipsJSON  bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's intake, target progress, and tips",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(s *session) error {
			status := s.ledger.Status()
			if todayJSON {
				return printJSON(cmd, status)
			}
			printStatus(cmd, status)
			return nil
		})
	},
}

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Show nutrition tips for today",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(s *session) error {
			tips := s.ledger.Tips()
			if tipsJSON {
				return printJSON(cmd, tips)
			}
			if s.ledger.Target() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Set a profile with `platelog profile set` to get tips.")
				return nil
			}
			for _, tip := range tips {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", tip.Message)
			}
			return nil
		})
	},
}

func printStatus(cmd *cobra.Command, st ledger.Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Date: %s\n", st.Day)
	fmt.Fprintf(out, "Meals: %d\n", st.MealCount)
	fmt.Fprintf(out, "Intake: %s\n", formatTotals(st.Totals))
	if st.Target != nil {
		fmt.Fprintf(out, "Target: %.0f kcal | P %.1fg | F %.1fg | C %.1fg\n", st.Target.Calories, st.Target.ProteinG, st.Target.FatG, st.Target.CarbsG)
		fmt.Fprintf(out, "Remaining: %s\n", formatTotals(*st.Remaining))
	} else {
		fmt.Fprintln(out, "Target: not set")
	}
	if len(st.ByMealType) > 0 {
		fmt.Fprintln(out, "By meal type:")
		for _, b := range st.ByMealType {
			fmt.Fprintf(out, "  %s: %s\n", b.MealType, formatTotals(b.Totals))
		}
	}
	if len(st.Tips) > 0 {
		fmt.Fprintln(out, "Tips:")
		for _, tip := range st.Tips {
			fmt.Fprintf(out, "  - %s\n", tip.Message)
		}
	}
	if st.LastMealAt != nil {
		fmt.Fprintf(out, "Last meal: %s\n", st.LastMealAt.Local().Format(time.RFC3339))
	}
}

func formatTotals(t model.Totals) string {
	return fmt.Sprintf("%.0f kcal | P %.1fg | F %.1fg | C %.1fg", t.Calories, t.ProteinG, t.FatG, t.CarbsG)
}

func init() {
	rootCmd.AddCommand(todayCmd, tipsCmd)
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Output as JSON")
	tipsCmd.Flags().BoolVar(&tipsJSON, "json", false, "Output as JSON")
}
