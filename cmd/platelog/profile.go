package platelog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your body profile and daily target",
}

var (
	profileName     string
	profileAge      float64
	profileWeight   float64
	profileHeight   float64
	profileActivity float64
	profileGoal     string
	profileJSON     bool
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set profile and recompute the daily target",
	RunE: func(cmd *cobra.Command, args []string) error {
		goal, ok := model.ParseGoal(profileGoal)
		if !ok {
			return fmt.Errorf("invalid --goal %q (use maintain|loss|gain)", profileGoal)
		}
		p := model.Profile{
			Name:               profileName,
			Age:                profileAge,
			WeightKg:           profileWeight,
			HeightCm:           profileHeight,
			ActivityMultiplier: profileActivity,
			Goal:               goal,
		}
		return withLedger(cmd, func(s *session) error {
			target, err := s.ledger.SetProfile(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile saved")
			printTarget(cmd, target)
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show profile and daily target",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(s *session) error {
			p, target := s.ledger.Profile(), s.ledger.Target()
			if profileJSON {
				return printJSON(cmd, map[string]any{"profile": p, "target": target})
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Profile: not set")
				return nil
			}
			if p.Name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Name: %s\n", p.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Age: %g | Weight: %g kg | Height: %g cm | Activity: %g | Goal: %s\n",
				p.Age, p.WeightKg, p.HeightCm, p.ActivityMultiplier, p.Goal)
			printTarget(cmd, *target)
			return nil
		})
	},
}

func printTarget(cmd *cobra.Command, t model.DailyTarget) {
	fmt.Fprintf(cmd.OutOrStdout(), "Target: %.0f kcal | P %.1fg | F %.1fg | C %.1fg\n", t.Calories, t.ProteinG, t.FatG, t.CarbsG)
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd)

	profileSetCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileSetCmd.Flags().Float64Var(&profileAge, "age", 0, "Age in years")
	profileSetCmd.Flags().Float64Var(&profileWeight, "weight", 0, "Body mass in kg")
	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm")
	profileSetCmd.Flags().Float64Var(&profileActivity, "activity", ledger.DefaultActivityMultiplier, "Activity multiplier (1.2 sedentary .. 1.9 very active)")
	profileSetCmd.Flags().StringVar(&profileGoal, "goal", "maintain", "Goal: maintain|loss|gain")
	_ = profileSetCmd.MarkFlagRequired("age")
	_ = profileSetCmd.MarkFlagRequired("weight")
	_ = profileSetCmd.MarkFlagRequired("height")
	profileShowCmd.Flags().BoolVar(&profileJSON, "json", false, "Output as JSON")
}
