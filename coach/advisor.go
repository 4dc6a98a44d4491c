// Package coach requests and parses the structured coaching message, decoupled
// from meal capture.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nutricoach"
)

// LoadingSummary is shown until the first successful refresh.
const LoadingSummary = "Loading your plan..."

// fallbackSummary stands in when the model forgot the summary field.
const fallbackSummary = "Stay on track!"

// Advisor keeps the last good coaching plan and refreshes it after every
// successful data sync. A refresh that fails leaves the previous plan untouched;
// this is a background concern and must never surface to the user.
type Advisor struct {
	analyzer nutricoach.Analyzer
	audit    nutricoach.AnalysisLogger

	mu      sync.RWMutex
	summary string
	plan    *nutricoach.CoachingPlan
}

func NewAdvisor(analyzer nutricoach.Analyzer, audit nutricoach.AnalysisLogger) *Advisor {
	if audit == nil {
		audit = nutricoach.NewNoOpAnalysisLogger()
	}
	return &Advisor{
		analyzer: analyzer,
		audit:    audit,
		summary:  LoadingSummary,
	}
}

// Refresh asks the analysis service for a new plan based on today's stats.
// Rate limiting is a silent skip. Any other failure is returned for diagnostic
// logging only; stored state changes on success alone.
func (a *Advisor) Refresh(ctx context.Context, stats nutricoach.DailyStats, now time.Time) error {
	prompt := Prompt(stats, TimeOfDay(now))

	payload, err := a.analyzer.Chat(ctx, prompt)
	a.logExchange(nutricoach.Exchange{
		Modality:  "coach",
		Timestamp: now,
		Prompt:    prompt,
		Response:  json.RawMessage(payload),
		Error:     errString(err),
	})
	if errors.Is(err, nutricoach.ErrRateLimited) {
		slog.Info("COACH: Rate limited, keeping previous plan")
		return nil
	}
	if err != nil {
		return fmt.Errorf("coach refresh: %w", err)
	}

	var plan nutricoach.CoachingPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return fmt.Errorf("%w: coaching plan: %v", nutricoach.ErrMalformedResponse, err)
	}

	summary := plan.Summary
	if summary == "" {
		summary = fallbackSummary
	}

	a.mu.Lock()
	a.summary = summary
	a.plan = &plan
	a.mu.Unlock()

	slog.Info("COACH: Plan refreshed", "suggestions", len(plan.Meals))
	return nil
}

// Summary returns the inline coaching message.
func (a *Advisor) Summary() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summary
}

// Plan returns the last fetched plan, or nil before the first successful refresh.
// Opening the plan view never triggers a new fetch.
func (a *Advisor) Plan() *nutricoach.CoachingPlan {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.plan == nil {
		return nil
	}
	cp := *a.plan
	return &cp
}

func (a *Advisor) logExchange(x nutricoach.Exchange) {
	if err := a.audit.LogExchange(x); err != nil {
		slog.Error("Failed to log analysis exchange", "error", err, "modality", x.Modality)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
