package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutricoach/session"
)

// CoachGet returns the last-fetched coaching plan without forcing a refresh;
// the summary alone is always available thanks to the advisor's fallback.
type CoachGet struct{ ctrl *session.Controller }

func NewCoachGet(ctrl *session.Controller) *CoachGet { return &CoachGet{ctrl: ctrl} }

func (t *CoachGet) Name() string  { return "coach_get" }
func (t *CoachGet) Title() string { return "Get Coaching Plan" }
func (t *CoachGet) Description() string {
	return "Returns the current coaching summary and meal suggestions based on today's progress."
}

func (t *CoachGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func (t *CoachGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"summary": {Type: "string"},
			"meals": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"calories": {Type: "number"},
						"reason":   {Type: "string"},
					},
					Required: []string{"name"},
				},
			},
		},
		Required: []string{"summary", "meals"},
	}
}

func (t *CoachGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	type outMeal struct {
		Name     string  `json:"name"`
		Calories float64 `json:"calories"`
		Reason   string  `json:"reason,omitempty"`
	}
	out := struct {
		Summary string    `json:"summary"`
		Meals   []outMeal `json:"meals"`
	}{Summary: t.ctrl.CoachSummary()}

	// Initialize meals slice to prevent nil when no plan has been fetched yet
	out.Meals = make([]outMeal, 0)
	if plan := t.ctrl.CoachPlan(); plan != nil {
		for _, m := range plan.Meals {
			out.Meals = append(out.Meals, outMeal{Name: m.Name, Calories: m.Calories, Reason: m.Reason})
		}
	}

	b, _ := json.Marshal(out)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m, nil
}
