package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nutricoach"
	"nutricoach/capture"
	"nutricoach/coach"
	"nutricoach/session"
	"nutricoach/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	meals  []nutricoach.MealRecord
	logErr error
}

func (s *fakeStore) FetchProfile(ctx context.Context) (*nutricoach.Profile, error) {
	return &nutricoach.Profile{Goals: nutricoach.Goals{Calories: 1800, Protein: 140, Carbs: 180, Fats: 60}}, nil
}

func (s *fakeStore) FetchMeals(ctx context.Context) ([]nutricoach.MealRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]nutricoach.MealRecord(nil), s.meals...), nil
}

func (s *fakeStore) LogMeal(ctx context.Context, meal nutricoach.CandidateMeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logErr != nil {
		return s.logErr
	}
	s.meals = append(s.meals, nutricoach.MealRecord{Timestamp: time.Now(), Foods: meal.Foods})
	return nil
}

func (s *fakeStore) UpdateProfile(ctx context.Context, goals nutricoach.Goals) error { return nil }

type fakeAnalyzer struct{}

func (a *fakeAnalyzer) Chat(ctx context.Context, message string) (json.RawMessage, error) {
	if strings.HasPrefix(message, "User Stats:") {
		return json.RawMessage(`{"summary": "Light dinner tonight.", "meals": [{"name": "Lentil Soup", "calories": 310, "reason": "Low calorie, filling."}]}`), nil
	}
	return json.RawMessage(`{"name": "Oatmeal with Berries", "calories": 320, "protein": 10, "carbs": 58, "fats": 6, "health_grade": "A", "health_reason": "Whole grains."}`), nil
}

func (a *fakeAnalyzer) RecognizeFood(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	return nil, nutricoach.ErrUnsupportedCapability
}

func (a *fakeAnalyzer) ReadMenu(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	return nil, nutricoach.ErrUnsupportedCapability
}

func newTestRegistry(t *testing.T, store *fakeStore) (*Registry, *session.Controller) {
	t.Helper()
	analyzer := &fakeAnalyzer{}
	ctrl, err := session.NewController(session.ControllerOpts{
		Store:   store,
		Capture: capture.NewOrchestrator(analyzer, nil, nil),
		Coach:   coach.NewAdvisor(analyzer, nil),
	})
	require.NoError(t, err)

	reg, err := NewRegistry(ctrl)
	require.NoError(t, err)
	return reg, ctrl
}

func TestRegistry(t *testing.T) {
	reg, _ := newTestRegistry(t, &fakeStore{})

	assert.Len(t, reg.GetTools(), 3)

	tool, err := reg.GetTool("meal_log")
	require.NoError(t, err)
	assert.Equal(t, "meal_log", tool.Name())

	_, err = reg.GetTool("profile_get")
	assert.Error(t, err)
}

func TestMealLog_Run(t *testing.T) {
	t.Run("logs the meal and returns updated stats", func(t *testing.T) {
		store := &fakeStore{}
		reg, ctrl := newTestRegistry(t, store)

		tool, err := reg.GetTool("meal_log")
		require.NoError(t, err)

		out, err := tool.Run(context.Background(), map[string]any{"description": "oatmeal with berries"})
		require.NoError(t, err)

		assert.Equal(t, true, out["logged"])

		foods, ok := out["foods"].([]any)
		require.True(t, ok)
		require.Len(t, foods, 1)
		food := foods[0].(map[string]any)
		assert.Equal(t, "Oatmeal with Berries", food["name"])
		assert.Equal(t, "A", food["health_grade"])

		stats := out["stats"].(map[string]any)
		calories := stats["calories"].(map[string]any)
		assert.Equal(t, 320.0, calories["current"])
		assert.Equal(t, 1800.0, calories["target"])

		// Workflow is back to idle for the next call.
		assert.Equal(t, workflow.Idle, ctrl.Phase())
	})

	t.Run("missing description", func(t *testing.T) {
		reg, _ := newTestRegistry(t, &fakeStore{})
		tool, err := reg.GetTool("meal_log")
		require.NoError(t, err)

		_, err = tool.Run(context.Background(), map[string]any{})
		assert.Error(t, err)
	})

	t.Run("log failure surfaces and resets the workflow", func(t *testing.T) {
		store := &fakeStore{logErr: errors.New("backend down")}
		reg, ctrl := newTestRegistry(t, store)

		tool, err := reg.GetTool("meal_log")
		require.NoError(t, err)

		_, err = tool.Run(context.Background(), map[string]any{"description": "oatmeal"})
		require.Error(t, err)
		assert.Equal(t, workflow.Idle, ctrl.Phase())
	})
}

func TestStatsGet_Run(t *testing.T) {
	store := &fakeStore{meals: []nutricoach.MealRecord{
		{Timestamp: time.Now(), Foods: []nutricoach.FoodItem{{Name: "Eggs", Calories: 180, Protein: 12}}},
	}}
	reg, _ := newTestRegistry(t, store)

	tool, err := reg.GetTool("stats_get")
	require.NoError(t, err)

	out, err := tool.Run(context.Background(), map[string]any{})
	require.NoError(t, err)

	stats := out["stats"].(map[string]any)
	calories := stats["calories"].(map[string]any)
	assert.Equal(t, 180.0, calories["current"])
	assert.Equal(t, 1800.0, calories["target"])
	_, hasNotice := out["notice"]
	assert.False(t, hasNotice)
}

func TestCoachGet_Run(t *testing.T) {
	store := &fakeStore{}
	reg, ctrl := newTestRegistry(t, store)

	tool, err := reg.GetTool("coach_get")
	require.NoError(t, err)

	t.Run("before the first sync only the loading summary exists", func(t *testing.T) {
		out, err := tool.Run(context.Background(), map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, coach.LoadingSummary, out["summary"])
		assert.Empty(t, out["meals"])
	})

	t.Run("after a sync the plan is populated", func(t *testing.T) {
		ctrl.Init(context.Background())

		out, err := tool.Run(context.Background(), map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "Light dinner tonight.", out["summary"])

		meals := out["meals"].([]any)
		require.Len(t, meals, 1)
		meal := meals[0].(map[string]any)
		assert.Equal(t, "Lentil Soup", meal["name"])
		assert.Equal(t, 310.0, meal["calories"])
	})
}
