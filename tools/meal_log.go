package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutricoach/session"
)

// MealLog captures a meal from a plain-text description, confirms it, and logs
// it to the backend in one call. Agents have no confirmation UI, so the review
// step the app would show is collapsed here.
type MealLog struct{ ctrl *session.Controller }

func NewMealLog(ctrl *session.Controller) *MealLog { return &MealLog{ctrl: ctrl} }

func (t *MealLog) Name() string  { return "meal_log" }
func (t *MealLog) Title() string { return "Log Meal" }
func (t *MealLog) Description() string {
	return "Analyzes a plain-text meal description, logs the resulting meal, and returns updated daily stats."
}

func (t *MealLog) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"description": {
				Type:        "string",
				Description: "What was eaten, e.g. \"two eggs and toast with butter\".",
			},
		},
		Required: []string{"description"},
	}
}

func (t *MealLog) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"logged": {Type: "boolean"},
			"foods": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":         {Type: "string"},
						"calories":     {Type: "number"},
						"health_grade": {Type: "string"},
					},
					Required: []string{"name", "calories"},
				},
			},
			"stats": statsSchema(),
		},
		Required: []string{"logged", "foods", "stats"},
	}
}

func (t *MealLog) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	description, ok := input["description"].(string)
	if !ok || description == "" {
		return nil, fmt.Errorf("description is required")
	}

	if err := t.ctrl.CaptureText(ctx, description); err != nil {
		return nil, fmt.Errorf("capture meal: %w", err)
	}

	pending, pok := t.ctrl.PendingMeal()
	if err := t.ctrl.ConfirmPending(ctx); err != nil {
		// An agent has no surface to retry from; discard the candidate so the
		// next call starts clean.
		t.ctrl.CloseSurface()
		return nil, fmt.Errorf("log meal: %w", err)
	}

	type outFood struct {
		Name        string  `json:"name"`
		Calories    float64 `json:"calories"`
		HealthGrade string  `json:"health_grade,omitempty"`
	}
	out := struct {
		Logged bool           `json:"logged"`
		Foods  []outFood      `json:"foods"`
		Stats  map[string]any `json:"stats"`
	}{Logged: true, Stats: statsOutput(t.ctrl.State().Stats)}

	// Initialize foods slice to prevent nil when empty
	out.Foods = make([]outFood, 0)
	if pok {
		for _, f := range pending.Foods {
			out.Foods = append(out.Foods, outFood{Name: f.Name, Calories: f.Calories, HealthGrade: f.Grade()})
		}
	}

	// marshal -> map[string]any to keep outputs uniform
	b, _ := json.Marshal(out)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m, nil
}
