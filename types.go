package nutricoach

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// MealStore is the remote nutrition backend: profile and meal storage plus meal logging.
type MealStore interface {
	FetchProfile(ctx context.Context) (*Profile, error)
	FetchMeals(ctx context.Context) ([]MealRecord, error)
	LogMeal(ctx context.Context, meal CandidateMeal) error
	UpdateProfile(ctx context.Context, goals Goals) error
}

// Analyzer is the external analysis service: text or image in, nutrition estimate out.
// Chat returns the decoded JSON payload of the model's reply; implementations must
// report rate limiting as ErrRateLimited and unparsable replies as ErrMalformedResponse.
type Analyzer interface {
	Chat(ctx context.Context, message string) (json.RawMessage, error)
	RecognizeFood(ctx context.Context, image []byte) ([]FoodItem, error)
	ReadMenu(ctx context.Context, image []byte) ([]FoodItem, error)
}

type Notifier interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Goals are the per-nutrient daily targets.
type Goals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Profile is the backend-owned user profile. Read-only on this side except through
// an explicit goals update.
type Profile struct {
	Goals Goals `json:"goals"`
}

// Fallback targets used when the profile is missing, the fetch failed, or a goal
// was never set.
const (
	FallbackCalories = 2000
	FallbackProtein  = 150
	FallbackCarbs    = 200
	FallbackFats     = 70
)

// NoAnalysisReason is shown for foods the analysis service graded without explanation.
const NoAnalysisReason = "No analysis available."

// FoodItem is one analyzed food. Description is only populated for menu options.
type FoodItem struct {
	Name         string  `json:"name"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fats         float64 `json:"fats"`
	HealthGrade  string  `json:"health_grade,omitempty"`
	HealthReason string  `json:"health_reason,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// Grade returns the item's health grade normalized to A..F, or "?" when the
// service returned nothing usable.
func (f FoodItem) Grade() string {
	g := strings.ToUpper(strings.TrimSpace(f.HealthGrade))
	switch g {
	case "A", "B", "C", "D", "F":
		return g
	}
	return "?"
}

// GradeReason returns the grade explanation, or the no-analysis sentinel.
func (f FoodItem) GradeReason() string {
	if strings.TrimSpace(f.HealthReason) == "" {
		return NoAnalysisReason
	}
	return f.HealthReason
}

// MealRecord is a logged meal. Records are immutable once logged; the client only
// appends new ones.
type MealRecord struct {
	Timestamp time.Time  `json:"timestamp"`
	Foods     []FoodItem `json:"foods"`
}

// NutrientProgress is today's consumed amount against its target.
type NutrientProgress struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

// DailyStats are today's totals for the four tracked nutrients. Derived, never stored.
type DailyStats struct {
	Calories NutrientProgress `json:"calories"`
	Protein  NutrientProgress `json:"protein"`
	Carbs    NutrientProgress `json:"carbs"`
	Fats     NutrientProgress `json:"fats"`
}

// CandidateMeal is a not-yet-logged meal awaiting user confirmation. It is converted
// into a log request on confirm and discarded on cancel.
type CandidateMeal struct {
	Foods []FoodItem `json:"foods"`
}

// IsValid checks the candidate has at least one named food.
func (m CandidateMeal) IsValid() bool {
	if len(m.Foods) == 0 {
		return false
	}
	for _, f := range m.Foods {
		if strings.TrimSpace(f.Name) == "" {
			return false
		}
	}
	return true
}

// MenuCandidateSet holds the healthy picks read off a menu photo. Each option may
// independently become a single-item candidate meal.
type MenuCandidateSet struct {
	Options []FoodItem `json:"options"`
}

// SuggestedMeal is one coach recommendation.
type SuggestedMeal struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Reason   string  `json:"reason"`
}

// AsFood converts a suggestion into a loggable food item. The coach only estimates
// calories, so the other nutrients stay zero and the reason doubles as the analysis.
func (s SuggestedMeal) AsFood() FoodItem {
	return FoodItem{
		Name:         s.Name,
		Calories:     s.Calories,
		HealthReason: s.Reason,
	}
}

// CoachingPlan is the structured coaching message: an inline summary plus the full
// suggestions shown on demand.
type CoachingPlan struct {
	Summary string          `json:"summary"`
	Meals   []SuggestedMeal `json:"meals"`
}

// IsValid checks the plan carries a summary and well-formed suggestions.
func (p *CoachingPlan) IsValid() bool {
	if p == nil || p.Summary == "" {
		return false
	}
	for _, m := range p.Meals {
		if m.Name == "" {
			return false
		}
	}
	return true
}
