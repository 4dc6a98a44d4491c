// Package workflow owns which confirmation surface is currently active. Exactly
// one surface can be open at a time; a second entry is rejected rather than
// stacked, so illegal combinations are unrepresentable.
package workflow

import (
	"fmt"
	"sync"

	"nutricoach"
)

type Phase int

const (
	Idle Phase = iota
	PendingMeal
	MenuReview
	PlanReview
	ProfileEdit
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case PendingMeal:
		return "pending_meal"
	case MenuReview:
		return "menu_review"
	case PlanReview:
		return "plan_review"
	case ProfileEdit:
		return "profile_edit"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Machine is the confirmation workflow. Transient candidates live only while
// their surface is open and are discarded on close.
type Machine struct {
	mu      sync.Mutex
	phase   Phase
	pending *nutricoach.CandidateMeal
	menu    *nutricoach.MenuCandidateSet
}

func NewMachine() *Machine {
	return &Machine{phase: Idle}
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// BeginPendingMeal opens the single-meal confirmation for a capture result.
func (m *Machine) BeginPendingMeal(meal nutricoach.CandidateMeal) error {
	return m.enter(PendingMeal, func() {
		m.pending = &meal
	})
}

// BeginMenuReview opens the menu picks surface.
func (m *Machine) BeginMenuReview(set nutricoach.MenuCandidateSet) error {
	return m.enter(MenuReview, func() {
		m.menu = &set
	})
}

// BeginPlanReview opens the coaching plan view. It uses the last-fetched plan;
// no fetch happens here.
func (m *Machine) BeginPlanReview() error {
	return m.enter(PlanReview, nil)
}

// BeginProfileEdit opens the goals editor.
func (m *Machine) BeginProfileEdit() error {
	return m.enter(ProfileEdit, nil)
}

func (m *Machine) enter(p Phase, set func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != Idle {
		return fmt.Errorf("%w: %s", nutricoach.ErrSurfaceActive, m.phase)
	}
	m.phase = p
	if set != nil {
		set()
	}
	return nil
}

// Pending returns the candidate under confirmation, if any.
func (m *Machine) Pending() (nutricoach.CandidateMeal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PendingMeal || m.pending == nil {
		return nutricoach.CandidateMeal{}, false
	}
	return *m.pending, true
}

// MenuOption returns one pick from the open menu review. Selecting an option
// commits it directly; it never becomes a second confirmation.
func (m *Machine) MenuOption(i int) (nutricoach.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != MenuReview || m.menu == nil {
		return nutricoach.FoodItem{}, fmt.Errorf("no menu review active")
	}
	if i < 0 || i >= len(m.menu.Options) {
		return nutricoach.FoodItem{}, fmt.Errorf("menu option %d out of range", i)
	}
	return m.menu.Options[i], nil
}

// Close returns to Idle from any surface, discarding transient candidates. Used
// for cancel, close-without-selection, and after a successful commit.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = Idle
	m.pending = nil
	m.menu = nil
}
