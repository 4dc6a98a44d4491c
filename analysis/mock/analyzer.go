// Package mock provides a deterministic Analyzer for local development and
// demos: no backend, no Bedrock, no network. Replies are canned but shaped
// exactly like the real analysis responses.
package mock

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"nutricoach"
)

type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Chat simulates the LLM endpoint. Coaching prompts (recognized by their
// "User Stats:" preamble) get a canned plan; anything else is treated as a meal
// description and gets a canned nutrition estimate. It is, of course,
// deterministic and only serves as a learning aid. Real models may not be so
// kind :)
func (m *Analyzer) Chat(ctx context.Context, message string) (json.RawMessage, error) {
	slog.Info("ANALYZER: Mock chat invoked", "message_len", len(message))

	if strings.HasPrefix(message, "User Stats:") {
		plan := map[string]any{
			"summary": "You have room left today. A protein-forward dinner keeps you on track.",
			"meals": []map[string]any{
				{"name": "Grilled Chicken & Rice", "calories": 520, "reason": "High protein, moderate carbs."},
				{"name": "Greek Yogurt Parfait", "calories": 280, "reason": "Light, protein-dense snack."},
			},
		}
		return marshal(plan)
	}

	estimate := map[string]any{
		"name":          nameFromPrompt(message),
		"calories":      420,
		"protein":       24,
		"carbs":         45,
		"fats":          14,
		"health_grade":  "B",
		"health_reason": "Balanced macros, watch the portion size.",
	}
	return marshal(estimate)
}

// RecognizeFood pretends every plate holds the same two items.
func (m *Analyzer) RecognizeFood(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	slog.Info("ANALYZER: Mock food recognition invoked", "image_bytes", len(image))
	return []nutricoach.FoodItem{
		{Name: "Grilled Chicken Breast", Calories: 280, Protein: 35, Carbs: 0, Fats: 12, HealthGrade: "A", HealthReason: "Lean protein."},
		{Name: "Steamed Broccoli", Calories: 55, Protein: 4, Carbs: 11, Fats: 0, HealthGrade: "A", HealthReason: "Fiber and micronutrients."},
	}, nil
}

// ReadMenu pretends every menu offers the same three options.
func (m *Analyzer) ReadMenu(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	slog.Info("ANALYZER: Mock menu read invoked", "image_bytes", len(image))
	return []nutricoach.FoodItem{
		{Name: "Grilled Salmon Plate", Calories: 450, HealthGrade: "A", HealthReason: "Omega-3 rich."},
		{Name: "Quinoa Power Bowl", Calories: 380, HealthGrade: "A", HealthReason: "Whole grains and greens."},
		{Name: "Turkey Club (no mayo)", Calories: 520, HealthGrade: "B", HealthReason: "Decent protein, refined bread."},
	}, nil
}

// nameFromPrompt pulls the quoted description out of the estimate prompt so the
// canned reply at least echoes what the user typed.
func nameFromPrompt(message string) string {
	if start := strings.Index(message, `"`); start >= 0 {
		if end := strings.Index(message[start+1:], `"`); end > 0 {
			return message[start+1 : start+1+end]
		}
	}
	return "Mystery Meal"
}

func marshal(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("ANALYZER: Failed to marshal mock reply", "error", err)
		return nil, err
	}
	return json.RawMessage(b), nil
}
