// Package session is the top-level driver: it pulls remote data, derives the
// daily stats, and funnels every capture result through the single-active
// confirmation workflow.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nutricoach"
	"nutricoach/capture"
	"nutricoach/coach"
	"nutricoach/stats"
	"nutricoach/workflow"

	"golang.org/x/sync/errgroup"
)

// WakingNotice is shown instead of an error when the backend is cold and a read
// failed; the dashboard stays usable on fallback values.
const WakingNotice = "System waking up... please wait."

// State is the consolidated view owned by the controller. No ambient globals:
// callers read it by value.
type State struct {
	Profile *nutricoach.Profile
	Meals   []nutricoach.MealRecord
	Stats   nutricoach.DailyStats
	Notice  string
}

// Controller wires the remote gateway, aggregator, capture orchestrator,
// coaching advisor, and workflow machine together.
type Controller struct {
	store    nutricoach.MealStore
	capture  *capture.Orchestrator
	coach    *coach.Advisor
	flow     *workflow.Machine
	notifier nutricoach.Notifier
	channel  string
	clock    func() time.Time

	mu    sync.RWMutex
	state State
}

type ControllerOpts struct {
	Store    nutricoach.MealStore
	Capture  *capture.Orchestrator
	Coach    *coach.Advisor
	Notifier nutricoach.Notifier // optional progress digest
	Channel  string
	Clock    func() time.Time
}

func NewController(opts ControllerOpts) (*Controller, error) {
	if opts.Store == nil || opts.Capture == nil || opts.Coach == nil {
		return nil, fmt.Errorf("store, capture, and coach are required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Controller{
		store:    opts.Store,
		capture:  opts.Capture,
		coach:    opts.Coach,
		flow:     workflow.NewMachine(),
		notifier: opts.Notifier,
		channel:  opts.Channel,
		clock:    opts.Clock,
	}, nil
}

// Init performs the first full sync and returns the consolidated view. It never
// fails: unreachable reads degrade to fallback values plus a waking-up notice.
func (c *Controller) Init(ctx context.Context) State {
	c.resync(ctx)
	return c.State()
}

// resync re-pulls profile and meals concurrently, reconciling each on its own:
// one fetch failing must not discard the other's result. Totals are recomputed
// from scratch every time.
func (c *Controller) resync(ctx context.Context) {
	var (
		profile *nutricoach.Profile
		meals   []nutricoach.MealRecord
		perr    error
		merr    error
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		profile, perr = c.store.FetchProfile(ctx)
		return nil
	})
	g.Go(func() error {
		meals, merr = c.store.FetchMeals(ctx)
		return nil
	})
	_ = g.Wait()

	notice := ""
	if perr != nil {
		slog.Warn("SESSION: Profile fetch failed, using fallback targets", "error", perr)
		profile = nil
		notice = WakingNotice
	}
	if merr != nil {
		slog.Warn("SESSION: Meals fetch failed, showing empty day", "error", merr)
		meals = nil
		notice = WakingNotice
	}

	now := c.clock()
	st := stats.Aggregate(meals, profile, now)

	c.mu.Lock()
	c.state = State{Profile: profile, Meals: meals, Stats: st, Notice: notice}
	c.mu.Unlock()

	slog.Info("SESSION: Resync complete",
		"meals", len(meals),
		"calories", st.Calories.Current,
		"calorie_target", st.Calories.Target,
		"degraded", notice != "",
	)

	// Background refresh: failures are diagnostics only.
	if err := c.coach.Refresh(ctx, st, now); err != nil {
		slog.Error("SESSION: Coach refresh failed", "error", err)
	}

	c.postDigest(ctx, st)
}

// State returns the current consolidated view.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Phase() workflow.Phase {
	return c.flow.Phase()
}

// PendingMeal returns the candidate awaiting confirmation, if any.
func (c *Controller) PendingMeal() (nutricoach.CandidateMeal, bool) {
	return c.flow.Pending()
}

// MenuOption returns one option from the active menu review.
func (c *Controller) MenuOption(i int) (nutricoach.FoodItem, error) {
	return c.flow.MenuOption(i)
}

// CoachSummary is the inline coaching message.
func (c *Controller) CoachSummary() string {
	return c.coach.Summary()
}

// CoachPlan is the last-fetched full plan, nil before the first refresh.
func (c *Controller) CoachPlan() *nutricoach.CoachingPlan {
	return c.coach.Plan()
}

// CaptureText analyzes a typed description and opens the meal confirmation.
func (c *Controller) CaptureText(ctx context.Context, text string) error {
	meal, err := c.capture.Text(ctx, text)
	if err != nil {
		return err
	}
	return c.flow.BeginPendingMeal(*meal)
}

// CaptureVoice listens for a transcript and opens the meal confirmation.
func (c *Controller) CaptureVoice(ctx context.Context) error {
	meal, err := c.capture.Voice(ctx)
	if err != nil {
		return err
	}
	return c.flow.BeginPendingMeal(*meal)
}

// CaptureFoodPhoto analyzes a plate photo and opens the meal confirmation.
func (c *Controller) CaptureFoodPhoto(ctx context.Context, image []byte) error {
	meal, err := c.capture.FoodPhoto(ctx, image)
	if err != nil {
		return err
	}
	return c.flow.BeginPendingMeal(*meal)
}

// CaptureMenuPhoto analyzes a menu photo and opens the menu review.
func (c *Controller) CaptureMenuPhoto(ctx context.Context, image []byte) error {
	set, err := c.capture.MenuPhoto(ctx, image)
	if err != nil {
		return err
	}
	return c.flow.BeginMenuReview(*set)
}

// ConfirmPending logs the meal awaiting confirmation.
func (c *Controller) ConfirmPending(ctx context.Context) error {
	meal, ok := c.flow.Pending()
	if !ok {
		return fmt.Errorf("no pending meal to confirm")
	}
	return c.commit(ctx, meal)
}

// SelectMenuOption commits one menu pick directly. The option is already a fully
// specified item; there is no second confirmation.
func (c *Controller) SelectMenuOption(ctx context.Context, i int) error {
	opt, err := c.flow.MenuOption(i)
	if err != nil {
		return err
	}
	return c.commit(ctx, nutricoach.CandidateMeal{Foods: []nutricoach.FoodItem{opt}})
}

// OpenPlan shows the coaching plan view, backed by the last-fetched plan.
func (c *Controller) OpenPlan() error {
	return c.flow.BeginPlanReview()
}

// EatSuggestion commits one coach suggestion directly, like a menu pick.
func (c *Controller) EatSuggestion(ctx context.Context, i int) error {
	if c.flow.Phase() != workflow.PlanReview {
		return fmt.Errorf("no plan review active")
	}
	plan := c.coach.Plan()
	if plan == nil || i < 0 || i >= len(plan.Meals) {
		return fmt.Errorf("suggestion %d out of range", i)
	}
	return c.commit(ctx, nutricoach.CandidateMeal{Foods: []nutricoach.FoodItem{plan.Meals[i].AsFood()}})
}

// OpenProfileEdit shows the goals editor.
func (c *Controller) OpenProfileEdit() error {
	return c.flow.BeginProfileEdit()
}

// SaveProfile stores new goal targets, closes the editor, and resyncs. On
// failure the editor stays open with its values intact.
func (c *Controller) SaveProfile(ctx context.Context, goals nutricoach.Goals) error {
	if c.flow.Phase() != workflow.ProfileEdit {
		return fmt.Errorf("no profile edit active")
	}
	if err := c.store.UpdateProfile(ctx, goals); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	c.flow.Close()
	c.resync(ctx)
	return nil
}

// CloseSurface cancels whatever surface is open, discarding transients.
func (c *Controller) CloseSurface() {
	c.flow.Close()
}

// commit logs a confirmed meal and resyncs. Commits are rejected while a capture
// analysis is in flight. A failed log keeps the active surface (and its
// candidate) so a transient error cannot silently discard the meal; the resync
// still runs exactly once either way.
func (c *Controller) commit(ctx context.Context, meal nutricoach.CandidateMeal) error {
	if c.capture.Busy() {
		return nutricoach.ErrCaptureBusy
	}

	logErr := c.store.LogMeal(ctx, meal)
	if logErr == nil {
		c.flow.Close()
	} else {
		slog.Error("SESSION: Meal log failed, keeping candidate", "error", logErr)
	}

	c.resync(ctx)

	if logErr != nil {
		return fmt.Errorf("log meal: %w", logErr)
	}
	return nil
}

// postDigest is a best-effort webhook notification with today's progress.
func (c *Controller) postDigest(ctx context.Context, st nutricoach.DailyStats) {
	if c.notifier == nil || c.channel == "" {
		return
	}
	msg := fmt.Sprintf("Daily progress: %.0f/%.0f cals, %.0f/%.0fg protein. Coach: %s",
		st.Calories.Current, st.Calories.Target,
		st.Protein.Current, st.Protein.Target,
		c.coach.Summary(),
	)
	if err := c.notifier.PostMessage(ctx, c.channel, msg); err != nil {
		slog.Warn("SESSION: Digest post failed", "error", err)
	}
}
