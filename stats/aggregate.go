// Package stats reduces the meal history into today's nutrient totals.
package stats

import (
	"time"

	"nutricoach"
)

// Aggregate sums the four tracked nutrients over the meals logged on now's local
// calendar day and pairs them with the profile's targets. A nil profile or an
// unset goal degrades to the fallback target; the function never fails.
//
// Totals are always recomputed from the full set, never updated incrementally,
// so a partial fetch failure cannot leave drifted numbers behind.
func Aggregate(meals []nutricoach.MealRecord, profile *nutricoach.Profile, now time.Time) nutricoach.DailyStats {
	var calories, protein, carbs, fats float64

	year, month, day := now.Date()
	for _, m := range meals {
		my, mm, md := m.Timestamp.In(now.Location()).Date()
		if my != year || mm != month || md != day {
			continue
		}
		for _, f := range m.Foods {
			calories += f.Calories
			protein += f.Protein
			carbs += f.Carbs
			fats += f.Fats
		}
	}

	var goals nutricoach.Goals
	if profile != nil {
		goals = profile.Goals
	}

	return nutricoach.DailyStats{
		Calories: nutricoach.NutrientProgress{Current: calories, Target: target(goals.Calories, nutricoach.FallbackCalories)},
		Protein:  nutricoach.NutrientProgress{Current: protein, Target: target(goals.Protein, nutricoach.FallbackProtein)},
		Carbs:    nutricoach.NutrientProgress{Current: carbs, Target: target(goals.Carbs, nutricoach.FallbackCarbs)},
		Fats:     nutricoach.NutrientProgress{Current: fats, Target: target(goals.Fats, nutricoach.FallbackFats)},
	}
}

func target(goal, fallback float64) float64 {
	if goal > 0 {
		return goal
	}
	return fallback
}
