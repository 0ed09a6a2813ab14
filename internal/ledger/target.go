package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/saadjs/platelog/internal/model"
)

var ErrInvalidProfile = errors.New("invalid profile")

// DefaultActivityMultiplier is the sedentary factor used when none is given.
const DefaultActivityMultiplier = 1.2

const (
	proteinGPerKg = 1.8
	fatGPerKg     = 0.9
	kcalPerGProt  = 4.0
	kcalPerGFat   = 9.0
	kcalPerGCarbs = 4.0
)

var goalFactors = map[model.Goal]float64{
	model.GoalMaintain: 1.0,
	model.GoalLoss:     0.82,
	model.GoalGain:     1.15,
}

func ValidateProfile(p model.Profile) error {
	if err := validatePositive("age", p.Age); err != nil {
		return err
	}
	if err := validatePositive("weight", p.WeightKg); err != nil {
		return err
	}
	if err := validatePositive("height", p.HeightCm); err != nil {
		return err
	}
	if err := validatePositive("activity multiplier", p.ActivityMultiplier); err != nil {
		return err
	}
	if _, ok := goalFactors[p.Goal]; !ok {
		return fmt.Errorf("%w: unknown goal %q (use maintain, loss or gain)", ErrInvalidProfile, p.Goal)
	}
	return nil
}

func validatePositive(name string, value float64) error {
	if math.IsNaN(value) || value <= 0 {
		return fmt.Errorf("%w: %s must be > 0", ErrInvalidProfile, name)
	}
	return nil
}

// ComputeTarget derives the daily calorie and macro target from a profile
// using the Mifflin-St Jeor baseline. Carbs take whatever energy protein and
// fat leave over and may come out negative for extreme profiles.
func ComputeTarget(p model.Profile) (model.DailyTarget, error) {
	if err := ValidateProfile(p); err != nil {
		return model.DailyTarget{}, err
	}
	baseRate := 10*p.WeightKg + 6.25*p.HeightCm - 5*p.Age + 5
	energy := baseRate * p.ActivityMultiplier * goalFactors[p.Goal]

	protein := p.WeightKg * proteinGPerKg
	fat := p.WeightKg * fatGPerKg
	carbs := (energy - protein*kcalPerGProt - fat*kcalPerGFat) / kcalPerGCarbs

	return model.DailyTarget{
		Calories: energy,
		ProteinG: protein,
		FatG:     fat,
		CarbsG:   carbs,
	}, nil
}
