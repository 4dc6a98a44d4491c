package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"nutricoach"
	"nutricoach/analysis/bedrock"
	"nutricoach/analysis/mock"
	"nutricoach/capture"
	"nutricoach/capture/source"
	"nutricoach/coach"
	"nutricoach/gateway"
	"nutricoach/notify"
	"nutricoach/session"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		slog.Info("SETUP: No .env file found, using process environment")
	}

	var backendConfig nutricoach.BackendConfig
	if err := envdecode.Decode(&backendConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	analyzerKind := flag.String("analyzer", "http", "analysis backend: http, bedrock, or mock")
	text := flag.String("text", "", "meal description to analyze and log")
	photo := flag.String("photo", "", "path to a plate photo to analyze and log")
	menu := flag.String("menu", "", "path to a menu photo to read")
	plan := flag.Bool("plan", false, "show the coaching plan")
	goals := flag.String("goals", "", "update daily targets as calories,protein,carbs,fats")
	flag.Parse()

	store, err := gateway.NewClient(gateway.ClientOpts{BaseURL: backendConfig.BaseURL})
	if err != nil {
		slog.Error("SETUP: Failed to create backend client", "error", err)
		return
	}

	analyzer, err := newAnalyzer(ctx, *analyzerKind, store)
	if err != nil {
		slog.Error("SETUP: Failed to create analyzer", "error", err, "kind", *analyzerKind)
		return
	}

	audit, cleanup, err := newAnalysisLogger(backendConfig.AnalysisLogDir, *analyzerKind)
	if err != nil {
		slog.Error("SETUP: Failed to create analysis logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush analysis log", "error", err)
		}
	}()

	var notifier nutricoach.Notifier
	if backendConfig.DigestWebhook != "" {
		notifier = notify.NewClient(backendConfig.DigestWebhook, http.DefaultClient)
	}

	ctrl, err := session.NewController(session.ControllerOpts{
		Store:    store,
		Capture:  capture.NewOrchestrator(analyzer, nil, audit),
		Coach:    coach.NewAdvisor(analyzer, audit),
		Notifier: notifier,
		Channel:  backendConfig.DigestChannel,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create session controller", "error", err)
		return
	}

	state := ctrl.Init(ctx)
	if state.Notice != "" {
		fmt.Println(state.Notice)
	}
	printStats(state.Stats)
	fmt.Printf("Coach: %s\n", ctrl.CoachSummary())

	switch {
	case *text != "":
		err = logText(ctx, ctrl, *text)
	case *photo != "":
		err = logPhoto(ctx, ctrl, *photo)
	case *menu != "":
		err = showMenu(ctx, ctrl, *menu)
	case *plan:
		err = showPlan(ctrl)
	case *goals != "":
		err = updateGoals(ctx, ctrl, *goals)
	}
	if err != nil {
		slog.Error("RESULT: Command failed", "error", err)
		os.Exit(1)
	}
}

func newAnalyzer(ctx context.Context, kind string, store *gateway.Client) (nutricoach.Analyzer, error) {
	switch kind {
	case "http":
		return store, nil
	case "bedrock":
		var modelConfig nutricoach.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return nil, err
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, err
		}
		return bedrock.NewAnalyzer(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		}), nil
	case "mock":
		return mock.NewAnalyzer(), nil
	}
	return nil, fmt.Errorf("unknown analyzer kind %q", kind)
}

func newAnalysisLogger(dir, modality string) (nutricoach.AnalysisLogger, func() error, error) {
	logFilePath := nutricoach.NewAnalysisLogFilePath(dir, modality)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := nutricoach.NewFileAnalysisLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

func logText(ctx context.Context, ctrl *session.Controller, text string) error {
	if err := ctrl.CaptureText(ctx, text); err != nil {
		return err
	}
	return confirm(ctx, ctrl)
}

func logPhoto(ctx context.Context, ctrl *session.Controller, path string) error {
	image, err := source.NewFileImageSource(path).Load(ctx)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	if err := ctrl.CaptureFoodPhoto(ctx, image); err != nil {
		return err
	}
	return confirm(ctx, ctrl)
}

func confirm(ctx context.Context, ctrl *session.Controller) error {
	pending, ok := ctrl.PendingMeal()
	if !ok {
		return fmt.Errorf("no pending meal")
	}
	for _, f := range pending.Foods {
		fmt.Printf("  %s - %.0f cals [%s] %s\n", f.Name, f.Calories, f.Grade(), f.GradeReason())
	}
	if err := ctrl.ConfirmPending(ctx); err != nil {
		return err
	}
	printStats(ctrl.State().Stats)
	return nil
}

func showMenu(ctx context.Context, ctrl *session.Controller, path string) error {
	image, err := source.NewFileImageSource(path).Load(ctx)
	if err != nil {
		return fmt.Errorf("read menu photo: %w", err)
	}
	if err := ctrl.CaptureMenuPhoto(ctx, image); err != nil {
		return err
	}
	defer ctrl.CloseSurface()

	fmt.Println("Healthy picks:")
	for i := 0; ; i++ {
		opt, err := ctrl.MenuOption(i)
		if err != nil {
			break
		}
		fmt.Printf("  %d. %s - %.0f cals. %s\n", i+1, opt.Name, opt.Calories, opt.Description)
	}
	return nil
}

func showPlan(ctrl *session.Controller) error {
	if err := ctrl.OpenPlan(); err != nil {
		return err
	}
	defer ctrl.CloseSurface()

	plan := ctrl.CoachPlan()
	if plan == nil {
		fmt.Println(ctrl.CoachSummary())
		return nil
	}
	fmt.Println(plan.Summary)
	for i, m := range plan.Meals {
		fmt.Printf("  %d. %s - %.0f cals. %s\n", i+1, m.Name, m.Calories, m.Reason)
	}
	return nil
}

func updateGoals(ctx context.Context, ctrl *session.Controller, arg string) error {
	parts := strings.Split(arg, ",")
	if len(parts) != 4 {
		return fmt.Errorf("goals must be calories,protein,carbs,fats")
	}
	values := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("invalid goal %q: %w", p, err)
		}
		values[i] = v
	}

	if err := ctrl.OpenProfileEdit(); err != nil {
		return err
	}
	if err := ctrl.SaveProfile(ctx, nutricoach.Goals{
		Calories: values[0],
		Protein:  values[1],
		Carbs:    values[2],
		Fats:     values[3],
	}); err != nil {
		ctrl.CloseSurface()
		return err
	}
	printStats(ctrl.State().Stats)
	return nil
}

func printStats(st nutricoach.DailyStats) {
	fmt.Printf("Today: %.0f/%.0f cals, %.0f/%.0fg protein, %.0f/%.0fg carbs, %.0f/%.0fg fats\n",
		st.Calories.Current, st.Calories.Target,
		st.Protein.Current, st.Protein.Target,
		st.Carbs.Current, st.Carbs.Target,
		st.Fats.Current, st.Fats.Target,
	)
}
