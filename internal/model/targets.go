package model

import (
	"fmt"
	"math"
	"strings"
)

// NutrientTargets holds the five daily targets.
type NutrientTargets struct {
	Calories int
	CarbsG   float64
	ProteinG float64
	FatG     float64
	FiberG   float64
}

// DefaultTargets are used whenever remote personalization data is absent.
func DefaultTargets() NutrientTargets {
	return NutrientTargets{
		Calories: 2000,
		CarbsG:   300,
		ProteinG: 120,
		FatG:     67,
		FiberG:   25,
	}
}

// activityMultipliers maps activity level names to their TDEE multiplier.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// Profile is the user input for personalized target computation.
type Profile struct {
	WeightKg float64
	HeightCm float64
	Age      int
	Sex      string // "male" or "female"
	Activity string // key into activityMultipliers
}

// PersonalizedTargets derives daily targets from a profile: BMR via
// Mifflin-St Jeor, TDEE via the activity multiplier, then a 50/25/25
// carb/protein/fat calorie split with fiber at 14 g per 1000 kcal.
func PersonalizedTargets(p Profile) (NutrientTargets, error) {
	if p.WeightKg <= 0 {
		return NutrientTargets{}, fmt.Errorf("weight must be > 0 kg")
	}
	if p.HeightCm <= 0 {
		return NutrientTargets{}, fmt.Errorf("height must be > 0 cm")
	}
	if p.Age <= 0 || p.Age > 130 {
		return NutrientTargets{}, fmt.Errorf("age must be between 1 and 130")
	}

	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	switch strings.ToLower(strings.TrimSpace(p.Sex)) {
	case "male":
		bmr += 5
	case "female":
		bmr -= 161
	default:
		return NutrientTargets{}, fmt.Errorf("sex must be male or female")
	}

	activity := strings.ToLower(strings.TrimSpace(p.Activity))
	if activity == "" {
		activity = "sedentary"
	}
	mult, ok := activityMultipliers[activity]
	if !ok {
		return NutrientTargets{}, fmt.Errorf("invalid activity level %q", p.Activity)
	}

	calories := int(math.Round(bmr * mult))
	return NutrientTargets{
		Calories: calories,
		CarbsG:   math.Round(float64(calories) * 0.50 / 4),
		ProteinG: math.Round(float64(calories) * 0.25 / 4),
		FatG:     math.Round(float64(calories) * 0.25 / 9),
		FiberG:   math.Round(float64(calories) / 1000 * 14),
	}, nil
}

// BMI computes body mass index from weight and height.
func BMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, fmt.Errorf("weight and height must be > 0")
	}
	m := heightCm / 100
	return weightKg / (m * m), nil
}
