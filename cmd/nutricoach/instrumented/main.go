package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nutricoach"
	"nutricoach/capture"
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

	text := flag.String("text", "grilled chicken salad with avocado", "meal description to analyze and log")
	flag.Parse()

	store, err := gateway.NewClient(gateway.ClientOpts{BaseURL: backendConfig.BaseURL})
	if err != nil {
		slog.Error("SETUP: Failed to create backend client", "error", err)
		return
	}

	tracerProvider, meterProvider, otelShutdown, err := nutricoach.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	// A local sink stands in for the digest webhook when none is configured.
	webhook := backendConfig.DigestWebhook
	if webhook == "" {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(bytes.Buffer)
			body.ReadFrom(r.Body) // nolint: errcheck
			slog.Info("DIGEST: Received request",
				"method", r.Method,
				"path", r.URL.Path,
				"body", body.String(),
			)
			w.WriteHeader(http.StatusOK)
		}))
		defer testServer.Close()
		webhook = testServer.URL
	}

	ctrl, err := session.NewController(session.ControllerOpts{
		Store:    store,
		Capture:  capture.NewOrchestrator(store, nil, nutricoach.NewStdoutAnalysisLogger()),
		Coach:    coach.NewAdvisor(store, nutricoach.NewStdoutAnalysisLogger()),
		Notifier: notify.NewClient(webhook, http.DefaultClient),
		Channel:  backendConfig.DigestChannel,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create session controller", "error", err)
		return
	}

	tracer := tracerProvider.Tracer(nutricoach.TracerNameSession)
	ctx, span := tracer.Start(ctx, nutricoach.TracerNameSession, trace.WithAttributes(
		attribute.String("backend.url", backendConfig.BaseURL),
	))
	defer span.End()

	ic := session.NewInstrumentedController(ctrl, tracer, meterProvider.Meter(nutricoach.TracerNameSession))

	state := ic.Init(ctx)
	slog.Info("RESULT: Session initialized",
		"degraded", state.Notice != "",
		"calories", state.Stats.Calories.Current,
		"calorie_target", state.Stats.Calories.Target,
	)

	if err := ic.CaptureText(ctx, *text); err != nil {
		slog.Error("RESULT: Capture failed", "error", err)
		return
	}
	if err := ic.ConfirmPending(ctx); err != nil {
		slog.Error("RESULT: Commit failed", "error", err)
		return
	}

	slog.Info("RESULT: Meal logged",
		"calories", ic.State().Stats.Calories.Current,
		"coach", ic.CoachSummary(),
	)
}
