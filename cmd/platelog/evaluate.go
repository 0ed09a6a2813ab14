package platelog

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/config"
	"github.com/saadjs/platelog/internal/dataset"
)

var (
	evalLabels string
	evalImages string
	evalJSON   bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the photo predictor against a labelled dataset",
	Long:  "evaluate reads a labels CSV (image,calories,protein,fat,carbs), sends every image to the predictor and reports the mean absolute error per field.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if evalLabels == "" {
			return fmt.Errorf("--labels is required")
		}
		images := evalImages
		if images == "" {
			images = filepath.Join(filepath.Dir(evalLabels), "images")
		}
		samples, err := dataset.LoadLabelsFile(evalLabels)
		if err != nil {
			return err
		}
		rep, err := dataset.Evaluate(cmd.Context(), newPredictor(config.Load()), images, samples)
		if err != nil {
			return err
		}
		if evalJSON {
			return printJSON(cmd, rep)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Samples: %d | Evaluated: %d | Failed: %d\n", rep.Samples, rep.Evaluated, len(rep.Failures))
		fmt.Fprintf(out, "MAE: %.1f kcal | P %.1fg | F %.1fg | C %.1fg\n", rep.MAE.Calories, rep.MAE.ProteinG, rep.MAE.FatG, rep.MAE.CarbsG)
		for _, f := range rep.Failures {
			fmt.Fprintf(out, "  failed %s: %s\n", f.Image, f.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalLabels, "labels", "", "Labels CSV file")
	evaluateCmd.Flags().StringVar(&evalImages, "images", "", "Images directory (default: images/ next to the labels file)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "Output as JSON")
}
