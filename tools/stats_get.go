package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutricoach"
	"nutricoach/session"
)

// StatsGet resyncs and returns today's totals against the goal targets.
type StatsGet struct{ ctrl *session.Controller }

func NewStatsGet(ctrl *session.Controller) *StatsGet { return &StatsGet{ctrl: ctrl} }

func (t *StatsGet) Name() string  { return "stats_get" }
func (t *StatsGet) Title() string { return "Get Daily Stats" }
func (t *StatsGet) Description() string {
	return "Returns today's consumed calories, protein, carbs, and fats against their daily targets."
}

func (t *StatsGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func (t *StatsGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"stats":  statsSchema(),
			"notice": {Type: "string"},
		},
		Required: []string{"stats"},
	}
}

func (t *StatsGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	st := t.ctrl.Init(ctx)

	out := struct {
		Stats  map[string]any `json:"stats"`
		Notice string         `json:"notice,omitempty"`
	}{Stats: statsOutput(st.Stats), Notice: st.Notice}

	b, _ := json.Marshal(out)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m, nil
}

func statsSchema() *jsonschema.Schema {
	progress := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"current": {Type: "number"},
			"target":  {Type: "number"},
		},
		Required: []string{"current", "target"},
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"calories": progress,
			"protein":  progress,
			"carbs":    progress,
			"fats":     progress,
		},
		Required: []string{"calories", "protein", "carbs", "fats"},
	}
}

func statsOutput(st nutricoach.DailyStats) map[string]any {
	b, _ := json.Marshal(st)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}
