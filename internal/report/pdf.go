// Package report renders the day's ledger as a printable PDF.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/model"
)

const fontName = "Arial"

// DailyPDF renders target, totals, tips, the all-time summary and the meal
// table for one day.
func DailyPDF(status ledger.Status, summary model.Summary, meals []model.MealRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("platelog daily report", false)
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.Cell(0, 10, "Daily Nutrition Report")
	pdf.Ln(8)
	pdf.SetFont(fontName, "", 12)
	pdf.Cell(0, 8, "Day: "+status.Day)
	pdf.Ln(12)

	section(pdf, "Totals")
	drawTotalsTable(pdf, status)
	pdf.Ln(6)

	section(pdf, "Tips")
	pdf.SetFont(fontName, "", 10)
	if len(status.Tips) == 0 {
		pdf.Cell(0, 6, "Set a profile to get tips.")
		pdf.Ln(5)
	}
	for _, tip := range status.Tips {
		pdf.Cell(0, 6, "- "+tip.Message)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	section(pdf, "Summary")
	pdf.SetFont(fontName, "", 10)
	if summary.NoData {
		pdf.Cell(0, 6, "No meals logged yet.")
		pdf.Ln(5)
	} else {
		pdf.Cell(0, 6, fmt.Sprintf("Meals logged: %d", summary.TotalMeals))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Total calories: %.0f kcal", summary.TotalCaloriesAllTime))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Average per meal: %.0f kcal", summary.AvgCaloriesPerMeal))
		pdf.Ln(5)
		pdf.Cell(0, 6, "Most caloric meal type: "+string(summary.MostCaloricMealType))
		pdf.Ln(5)
	}
	pdf.Ln(6)

	section(pdf, "Meals")
	drawMealsTable(pdf, meals)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(fontName, "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func drawTotalsTable(pdf *gofpdf.Fpdf, status ledger.Status) {
	pdf.SetFont(fontName, "", 9)
	for _, h := range []string{"", "Calories", "Protein g", "Fat g", "Carbs g"} {
		pdf.CellFormat(30, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	row := func(label string, t model.Totals) {
		pdf.CellFormat(30, 6, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.0f", t.Calories), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", t.ProteinG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", t.FatG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", t.CarbsG), "1", 1, "R", false, 0, "")
	}
	row("Eaten", status.Totals)
	if status.Target != nil {
		row("Target", model.Totals{
			Calories: status.Target.Calories,
			ProteinG: status.Target.ProteinG,
			FatG:     status.Target.FatG,
			CarbsG:   status.Target.CarbsG,
		})
	}
	if status.Remaining != nil {
		row("Remaining", *status.Remaining)
	}
}

func drawMealsTable(pdf *gofpdf.Fpdf, meals []model.MealRecord) {
	pdf.SetFont(fontName, "", 9)
	if len(meals) == 0 {
		pdf.Cell(0, 6, "No meals today.")
		pdf.Ln(5)
		return
	}
	headers := []string{"Time", "Type", "Calories", "Protein g", "Fat g", "Carbs g"}
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(28, 6, h, "1", ln, "C", false, 0, "")
	}
	for _, m := range meals {
		pdf.CellFormat(28, 6, m.Timestamp.Local().Format(time.Kitchen), "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, string(m.MealType), "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.0f", m.Calories), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.1f", m.ProteinG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.1f", m.FatG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.1f", m.CarbsG), "1", 1, "R", false, 0, "")
	}
}
