// Package dataset loads labelled meal photos and scores the predictor
// against them.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/saadjs/platelog/internal/model"
)

var ErrNoEntries = errors.New("no valid nutrition entries found")

// Sample is one labelled photo: image path relative to the images
// directory and the true nutrition values.
type Sample struct {
	Image string
	Label model.MealEstimate
}

// LoadLabels parses image,calories,protein,fat,carbs rows. Rows with a
// different field count or non-numeric values are skipped, which also
// drops a header line.
func LoadLabels(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	out := make([]Sample, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read labels csv: %w", err)
		}
		if len(row) != 5 {
			continue
		}
		image := strings.TrimSpace(row[0])
		if image == "" {
			continue
		}
		nums := make([]float64, 4)
		ok := true
		for i := range nums {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
			if err != nil || math.IsNaN(v) {
				ok = false
				break
			}
			nums[i] = v
		}
		if !ok {
			continue
		}
		out = append(out, Sample{
			Image: image,
			Label: model.MealEstimate{Calories: nums[0], ProteinG: nums[1], FatG: nums[2], CarbsG: nums[3]},
		})
	}
	if len(out) == 0 {
		return nil, ErrNoEntries
	}
	return out, nil
}

func LoadLabelsFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()
	return LoadLabels(f)
}

type Predictor interface {
	Predict(ctx context.Context, image []byte) (model.MealEstimate, error)
}

type Failure struct {
	Image string `json:"image"`
	Error string `json:"error"`
}

// Report holds mean absolute errors over the successfully predicted samples.
type Report struct {
	Samples   int          `json:"samples"`
	Evaluated int          `json:"evaluated"`
	Failures  []Failure    `json:"failures"`
	MAE       model.Totals `json:"mae"`
}

// Evaluate runs the predictor over every sample. Individual failures are
// collected; only context cancellation aborts the run.
func Evaluate(ctx context.Context, p Predictor, imagesDir string, samples []Sample) (Report, error) {
	report := Report{Samples: len(samples), Failures: []Failure{}}
	var sum model.Totals
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		data, err := os.ReadFile(filepath.Join(imagesDir, filepath.FromSlash(s.Image)))
		if err != nil {
			report.Failures = append(report.Failures, Failure{Image: s.Image, Error: err.Error()})
			continue
		}
		est, err := p.Predict(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failures = append(report.Failures, Failure{Image: s.Image, Error: err.Error()})
			continue
		}
		sum.Calories += math.Abs(est.Calories - s.Label.Calories)
		sum.ProteinG += math.Abs(est.ProteinG - s.Label.ProteinG)
		sum.FatG += math.Abs(est.FatG - s.Label.FatG)
		sum.CarbsG += math.Abs(est.CarbsG - s.Label.CarbsG)
		report.Evaluated++
	}
	if report.Evaluated > 0 {
		n := float64(report.Evaluated)
		report.MAE = model.Totals{
			Calories: sum.Calories / n,
			ProteinG: sum.ProteinG / n,
			FatG:     sum.FatG / n,
			CarbsG:   sum.CarbsG / n,
		}
	}
	return report, nil
}
