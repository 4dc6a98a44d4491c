// Package capture normalizes the four input modalities (text, voice, food photo,
// menu photo) into either a single candidate meal or a set of menu options.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"nutricoach"
)

// Orchestrator drives analysis for every capture modality. One analysis may be in
// flight at a time: further capture attempts return ErrCaptureBusy and are no-ops,
// not queued retries.
type Orchestrator struct {
	analyzer nutricoach.Analyzer
	speech   Recognizer
	audit    nutricoach.AnalysisLogger
	busy     atomic.Bool
}

func NewOrchestrator(analyzer nutricoach.Analyzer, speech Recognizer, audit nutricoach.AnalysisLogger) *Orchestrator {
	if speech == nil {
		speech = UnsupportedRecognizer{}
	}
	if audit == nil {
		audit = nutricoach.NewNoOpAnalysisLogger()
	}
	return &Orchestrator{
		analyzer: analyzer,
		speech:   speech,
		audit:    audit,
	}
}

// Busy reports whether an analysis is currently in flight. Commits are rejected
// while this holds.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

func (o *Orchestrator) acquire() error {
	if !o.busy.CompareAndSwap(false, true) {
		return nutricoach.ErrCaptureBusy
	}
	return nil
}

func (o *Orchestrator) release() {
	o.busy.Store(false)
}

// Text analyzes a typed meal description and returns a single-item candidate meal.
func (o *Orchestrator) Text(ctx context.Context, description string) (*nutricoach.CandidateMeal, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("empty meal description")
	}
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	return o.analyzeText(ctx, "text", description)
}

// Voice acquires a transcript and delegates to the text path. A missing speech API
// surfaces ErrUnsupportedCapability; a device error surfaces ErrCaptureFailed and
// the analysis service is never called.
func (o *Orchestrator) Voice(ctx context.Context) (*nutricoach.CandidateMeal, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	transcript, err := o.speech.Listen(ctx)
	if err != nil {
		if errors.Is(err, nutricoach.ErrUnsupportedCapability) {
			return nil, err
		}
		slog.Error("CAPTURE: Microphone error", "error", err)
		return nil, fmt.Errorf("%w: %v", nutricoach.ErrCaptureFailed, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("%w: empty transcript", nutricoach.ErrCaptureFailed)
	}

	slog.Info("CAPTURE: Transcript acquired", "transcript_len", len(transcript))
	return o.analyzeText(ctx, "voice", transcript)
}

// FoodPhoto analyzes a meal photo. A plate may hold several components, so the
// candidate can carry multiple foods.
func (o *Orchestrator) FoodPhoto(ctx context.Context, image []byte) (*nutricoach.CandidateMeal, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	foods, err := o.analyzer.RecognizeFood(ctx, image)
	o.logExchange(nutricoach.Exchange{
		Modality:  "food_photo",
		Timestamp: time.Now(),
		ImageSize: len(image),
		Response:  foods,
		Error:     errString(err),
	})
	if err != nil {
		return nil, fmt.Errorf("food photo analysis: %w", err)
	}

	slog.Info("CAPTURE: Food photo analyzed", "foods", len(foods))
	return &nutricoach.CandidateMeal{Foods: foods}, nil
}

// MenuPhoto analyzes a menu photo into a set of selectable options.
func (o *Orchestrator) MenuPhoto(ctx context.Context, image []byte) (*nutricoach.MenuCandidateSet, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	options, err := o.analyzer.ReadMenu(ctx, image)
	o.logExchange(nutricoach.Exchange{
		Modality:  "menu_photo",
		Timestamp: time.Now(),
		ImageSize: len(image),
		Response:  options,
		Error:     errString(err),
	})
	if err != nil {
		return nil, fmt.Errorf("menu photo analysis: %w", err)
	}

	slog.Info("CAPTURE: Menu photo analyzed", "options", len(options))
	return &nutricoach.MenuCandidateSet{Options: options}, nil
}

func (o *Orchestrator) analyzeText(ctx context.Context, modality, description string) (*nutricoach.CandidateMeal, error) {
	prompt := EstimatePrompt(description)

	payload, err := o.analyzer.Chat(ctx, prompt)
	o.logExchange(nutricoach.Exchange{
		Modality:  modality,
		Timestamp: time.Now(),
		Prompt:    prompt,
		Response:  json.RawMessage(payload),
		Error:     errString(err),
	})
	if err != nil {
		return nil, fmt.Errorf("text analysis: %w", err)
	}

	item, err := parseEstimate(payload)
	if err != nil {
		return nil, err
	}

	slog.Info("CAPTURE: Text analyzed", "modality", modality, "food", item.Name, "calories", item.Calories)
	return &nutricoach.CandidateMeal{Foods: []nutricoach.FoodItem{item}}, nil
}

// parseEstimate decodes the single structured food estimate the prompt asked for.
func parseEstimate(payload json.RawMessage) (nutricoach.FoodItem, error) {
	var item nutricoach.FoodItem
	if err := json.Unmarshal(payload, &item); err != nil {
		return nutricoach.FoodItem{}, fmt.Errorf("%w: estimate: %v", nutricoach.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(item.Name) == "" {
		return nutricoach.FoodItem{}, fmt.Errorf("%w: estimate missing name", nutricoach.ErrMalformedResponse)
	}
	return item, nil
}

func (o *Orchestrator) logExchange(x nutricoach.Exchange) {
	if err := o.audit.LogExchange(x); err != nil {
		slog.Error("Failed to log analysis exchange", "error", err, "modality", x.Modality)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
