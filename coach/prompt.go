package coach

import (
	"fmt"
	"time"

	"nutricoach"
)

// TimeOfDay buckets the local clock coarsely; the coach tailors suggestions to it.
func TimeOfDay(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Morning"
	case h < 17:
		return "Afternoon"
	default:
		return "Evening"
	}
}

// Prompt embeds current calories, the calorie target, and the time bucket, and
// pins down the JSON shape of the reply.
func Prompt(stats nutricoach.DailyStats, timeOfDay string) string {
	return fmt.Sprintf(
		`User Stats: %.0f / %.0f cals. Time: %s. 1. One sentence summary. 2. Two meal suggestions. `+
			`JSON Format: { "summary": "...", "meals": [{ "name": "...", "calories": 0, "reason": "..." }] }`,
		stats.Calories.Current,
		stats.Calories.Target,
		timeOfDay,
	)
}
