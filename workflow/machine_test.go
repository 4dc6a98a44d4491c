package workflow

import (
	"testing"

	"nutricoach"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(names ...string) nutricoach.CandidateMeal {
	var foods []nutricoach.FoodItem
	for _, n := range names {
		foods = append(foods, nutricoach.FoodItem{Name: n, Calories: 100})
	}
	return nutricoach.CandidateMeal{Foods: foods}
}

func TestMachine_MutualExclusion(t *testing.T) {
	m := NewMachine()
	require.Equal(t, Idle, m.Phase())

	require.NoError(t, m.BeginPendingMeal(candidate("Oatmeal")))
	assert.Equal(t, PendingMeal, m.Phase())

	// Every other surface is rejected while one is active.
	assert.ErrorIs(t, m.BeginMenuReview(nutricoach.MenuCandidateSet{}), nutricoach.ErrSurfaceActive)
	assert.ErrorIs(t, m.BeginPlanReview(), nutricoach.ErrSurfaceActive)
	assert.ErrorIs(t, m.BeginProfileEdit(), nutricoach.ErrSurfaceActive)
	assert.ErrorIs(t, m.BeginPendingMeal(candidate("Second")), nutricoach.ErrSurfaceActive)

	// The original candidate is untouched by the rejected entries.
	pending, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, "Oatmeal", pending.Foods[0].Name)
}

func TestMachine_CloseDiscardsTransients(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.BeginPendingMeal(candidate("Oatmeal")))

	m.Close()
	assert.Equal(t, Idle, m.Phase())
	_, ok := m.Pending()
	assert.False(t, ok)

	// Idle again: a new surface can open.
	require.NoError(t, m.BeginProfileEdit())
	assert.Equal(t, ProfileEdit, m.Phase())
}

func TestMachine_MenuOptions(t *testing.T) {
	m := NewMachine()

	_, err := m.MenuOption(0)
	assert.Error(t, err, "no menu review active yet")

	set := nutricoach.MenuCandidateSet{Options: []nutricoach.FoodItem{
		{Name: "Grilled Salmon", Calories: 450},
		{Name: "Quinoa Bowl", Calories: 380},
	}}
	require.NoError(t, m.BeginMenuReview(set))

	opt, err := m.MenuOption(1)
	require.NoError(t, err)
	assert.Equal(t, "Quinoa Bowl", opt.Name)

	_, err = m.MenuOption(2)
	assert.Error(t, err)
	_, err = m.MenuOption(-1)
	assert.Error(t, err)

	// Closing without a selection discards the set.
	m.Close()
	_, err = m.MenuOption(0)
	assert.Error(t, err)
}

func TestMachine_PlanReview(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.BeginPlanReview())
	assert.Equal(t, PlanReview, m.Phase())
	m.Close()
	assert.Equal(t, Idle, m.Phase())
}
