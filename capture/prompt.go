package capture

import "fmt"

// EstimatePrompt asks the analysis service for one structured food estimate. The
// grade fields are marked CRITICAL because models routinely omit them otherwise.
func EstimatePrompt(description string) string {
	return fmt.Sprintf(
		`Analyze meal: %q. Estimate nutrition. CRITICAL: Assign "health_grade" (A-F) & "health_reason". `+
			`Return JSON: { "name": "...", "calories": 0, "protein": 0, "carbs": 0, "fats": 0, "health_grade": "B", "health_reason": "..." }`,
		description,
	)
}
