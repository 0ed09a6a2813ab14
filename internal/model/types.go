package model

import (
	"strings"
	"time"
)

type Goal string

const (
	GoalMaintain Goal = "maintain"
	GoalLoss     Goal = "loss"
	GoalGain     Goal = "gain"
)

func ParseGoal(value string) (Goal, bool) {
	switch Goal(strings.TrimSpace(strings.ToLower(value))) {
	case GoalMaintain, "":
		return GoalMaintain, true
	case GoalLoss:
		return GoalLoss, true
	case GoalGain:
		return GoalGain, true
	}
	return "", false
}

type Profile struct {
	Name               string  `json:"name,omitempty"`
	Age                float64 `json:"age"`
	WeightKg           float64 `json:"weight"`
	HeightCm           float64 `json:"height"`
	ActivityMultiplier float64 `json:"activityMultiplier"`
	Goal               Goal    `json:"goal"`
}

type DailyTarget struct {
	Calories float64 `json:"calorieTarget"`
	ProteinG float64 `json:"proteinTarget"`
	FatG     float64 `json:"fatTarget"`
	CarbsG   float64 `json:"carbTarget"`
}

// MealEstimate is one predictor result in real units.
type MealEstimate struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	FatG     float64 `json:"fat"`
	CarbsG   float64 `json:"carbs"`
}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealUnknown   MealType = "unknown"
	MealOther     MealType = "other"
)

// MealTypes lists every bucket in canonical order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack, MealUnknown, MealOther}

// ParseMealType maps a free-form tag onto the closed bucket set. Unrecognized
// tags land in MealOther.
func ParseMealType(tag string) MealType {
	switch t := MealType(strings.TrimSpace(strings.ToLower(tag))); t {
	case "":
		return MealUnknown
	case "snacks":
		return MealSnack
	case MealBreakfast, MealLunch, MealDinner, MealSnack, MealUnknown, MealOther:
		return t
	}
	return MealOther
}

type MealRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"time"`
	MealType  MealType  `json:"mealType"`
	Calories  float64   `json:"calories"`
	ProteinG  float64   `json:"protein"`
	FatG      float64   `json:"fat"`
	CarbsG    float64   `json:"carbs"`
}

type Totals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	FatG     float64 `json:"fat"`
	CarbsG   float64 `json:"carbs"`
}

func (t *Totals) AddEstimate(e MealEstimate) {
	t.Calories += e.Calories
	t.ProteinG += e.ProteinG
	t.FatG += e.FatG
	t.CarbsG += e.CarbsG
}

func (t *Totals) AddRecord(r MealRecord) {
	t.AddEstimate(r.Estimate())
}

func (r MealRecord) Estimate() MealEstimate {
	return MealEstimate{Calories: r.Calories, ProteinG: r.ProteinG, FatG: r.FatG, CarbsG: r.CarbsG}
}

type TipKind string

const (
	TipCalorieExceeded TipKind = "calorie_exceeded"
	TipProteinLow      TipKind = "protein_low"
	TipCarbsLow        TipKind = "carbs_low"
	TipFatLow          TipKind = "fat_low"
	TipBalanced        TipKind = "balanced"
)

type Tip struct {
	Kind    TipKind `json:"kind"`
	Message string  `json:"message"`
}

type Summary struct {
	NoData               bool     `json:"no_data"`
	TotalMeals           int      `json:"total_meals"`
	TotalCaloriesAllTime float64  `json:"total_calories_all_time"`
	AvgCaloriesPerMeal   float64  `json:"avg_calories_per_meal"`
	MostCaloricMealType  MealType `json:"most_caloric_meal_type,omitempty"`
}
