package ledger

import "github.com/saadjs/platelog/internal/model"

// Summarize aggregates a meal history. Ties on the most caloric bucket go to
// the bucket that comes first in model.MealTypes.
func Summarize(records []model.MealRecord) model.Summary {
	if len(records) == 0 {
		return model.Summary{NoData: true}
	}
	byType := make(map[model.MealType]float64, len(model.MealTypes))
	seen := make(map[model.MealType]bool, len(model.MealTypes))
	out := model.Summary{TotalMeals: len(records)}
	for _, r := range records {
		mt := model.ParseMealType(string(r.MealType))
		out.TotalCaloriesAllTime += r.Calories
		byType[mt] += r.Calories
		seen[mt] = true
	}
	out.AvgCaloriesPerMeal = out.TotalCaloriesAllTime / float64(out.TotalMeals)

	first := true
	var best float64
	for _, mt := range model.MealTypes {
		if !seen[mt] {
			continue
		}
		if first || byType[mt] > best {
			best = byType[mt]
			out.MostCaloricMealType = mt
			first = false
		}
	}
	return out
}
