package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/saadjs/platelog/internal/model"
)

var csvHeader = []string{"time", "mealType", "calories", "protein", "fat", "carbs"}

func WriteCSV(w io.Writer, records []model.MealRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			string(r.MealType),
			strconv.FormatFloat(r.Calories, 'f', -1, 64),
			strconv.FormatFloat(r.ProteinG, 'f', -1, 64),
			strconv.FormatFloat(r.FatG, 'f', -1, 64),
			strconv.FormatFloat(r.CarbsG, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, records []model.MealRecord) error {
	if records == nil {
		records = []model.MealRecord{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meals json: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write meals json: %w", err)
	}
	return nil
}
