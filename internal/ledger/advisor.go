package ledger

import "github.com/saadjs/platelog/internal/model"

const lowIntakeRatio = 0.4

var tipMessages = map[model.TipKind]string{
	model.TipCalorieExceeded: "You exceeded your daily calorie limit!",
	model.TipProteinLow:      "Add more protein sources (eggs, chicken, cottage cheese).",
	model.TipCarbsLow:        "Low carbs: add grains, fruits or rice.",
	model.TipFatLow:          "You need more healthy fats (nuts, avocado, fish).",
	model.TipBalanced:        "Perfect balance today!",
}

func newTip(kind model.TipKind) model.Tip {
	return model.Tip{Kind: kind, Message: tipMessages[kind]}
}

// AdviseTips compares totals against the target. A nil target yields no tips.
func AdviseTips(totals model.Totals, target *model.DailyTarget) []model.Tip {
	if target == nil {
		return []model.Tip{}
	}
	tips := make([]model.Tip, 0, 4)
	if totals.Calories > target.Calories {
		tips = append(tips, newTip(model.TipCalorieExceeded))
	}
	if totals.ProteinG < target.ProteinG*lowIntakeRatio {
		tips = append(tips, newTip(model.TipProteinLow))
	}
	if totals.CarbsG < target.CarbsG*lowIntakeRatio {
		tips = append(tips, newTip(model.TipCarbsLow))
	}
	if totals.FatG < target.FatG*lowIntakeRatio {
		tips = append(tips, newTip(model.TipFatLow))
	}
	if len(tips) == 0 {
		tips = append(tips, newTip(model.TipBalanced))
	}
	return tips
}
