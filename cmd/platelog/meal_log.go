package platelog

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/config"
	"github.com/saadjs/platelog/internal/model"
)

var (
	logPhoto    string
	logCalories float64
	logProtein  float64
	logFat      float64
	logCarbs    float64
	logType     string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log a meal from a photo or from manual macros",
	Annotations: map[string]string{
		annotationSkipIdle: "true",
	},
	Example: `  platelog log --photo lunch.jpg --type lunch
  platelog log --calories 420 --protein 25 --fat 12 --carbs 50 --type breakfast`,
	RunE: func(cmd *cobra.Command, args []string) error {
		est, err := resolveEstimate(cmd)
		if err != nil {
			return err
		}
		return withLedger(cmd, func(s *session) error {
			rec := s.ledger.LogMeal(est, model.MealType(logType))
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s: %.0f kcal | P %.1fg | F %.1fg | C %.1fg\n",
				rec.MealType, rec.Calories, rec.ProteinG, rec.FatG, rec.CarbsG)
			if target := s.ledger.Target(); target != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Today: %.0f / %.0f kcal\n", s.ledger.Totals().Calories, target.Calories)
			}
			return nil
		})
	},
}

func resolveEstimate(cmd *cobra.Command) (model.MealEstimate, error) {
	manual := cmd.Flags().Changed("calories")
	photo := strings.TrimSpace(logPhoto)
	switch {
	case photo != "" && manual:
		return model.MealEstimate{}, fmt.Errorf("use either --photo or --calories, not both")
	case photo == "" && !manual:
		return model.MealEstimate{}, fmt.Errorf("--photo or --calories is required")
	case manual:
		return model.MealEstimate{Calories: logCalories, ProteinG: logProtein, FatG: logFat, CarbsG: logCarbs}, nil
	}
	image, err := os.ReadFile(photo)
	if err != nil {
		return model.MealEstimate{}, fmt.Errorf("read photo: %w", err)
	}
	est, err := newPredictor(config.Load()).Predict(cmd.Context(), image)
	if err != nil {
		return model.MealEstimate{}, fmt.Errorf("estimate meal: %w", err)
	}
	return est, nil
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().StringVar(&logPhoto, "photo", "", "Meal photo to estimate (jpeg, png, webp)")
	logCmd.Flags().Float64Var(&logCalories, "calories", 0, "Calories (manual entry)")
	logCmd.Flags().Float64Var(&logProtein, "protein", 0, "Protein grams (manual entry)")
	logCmd.Flags().Float64Var(&logFat, "fat", 0, "Fat grams (manual entry)")
	logCmd.Flags().Float64Var(&logCarbs, "carbs", 0, "Carb grams (manual entry)")
	logCmd.Flags().StringVar(&logType, "type", "", "Meal type: breakfast|lunch|dinner|snack (other tags are grouped as other)")
}
