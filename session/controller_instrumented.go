package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nutricoach"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedController wraps a Controller with observability for the paths
// that touch the network: captures, commits, and resyncs.
type InstrumentedController struct {
	*Controller
	tracer trace.Tracer
	meter  metric.Meter
}

func NewInstrumentedController(c *Controller, tracer trace.Tracer, meter metric.Meter) *InstrumentedController {
	return &InstrumentedController{
		Controller: c,
		tracer:     tracer,
		meter:      meter,
	}
}

func (ic *InstrumentedController) Init(ctx context.Context) State {
	ctx, span := ic.tracer.Start(ctx, "Session.Init")
	defer span.End()

	resyncCounter, _ := ic.meter.Int64Counter("session_resyncs_total",
		metric.WithDescription("Total number of full data resyncs"))
	resyncCounter.Add(ctx, 1)

	start := time.Now()
	st := ic.Controller.Init(ctx)

	resyncDurationHist, _ := ic.meter.Float64Histogram("session_resync_duration_seconds",
		metric.WithDescription("Duration of a full resync including the coach refresh"))
	resyncDurationHist.Record(ctx, time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Bool("degraded", st.Notice != ""),
		attribute.Int("meals", len(st.Meals)),
	)
	return st
}

func (ic *InstrumentedController) CaptureText(ctx context.Context, text string) error {
	return ic.instrumentCapture(ctx, "text", func(ctx context.Context) error {
		return ic.Controller.CaptureText(ctx, text)
	})
}

func (ic *InstrumentedController) CaptureVoice(ctx context.Context) error {
	return ic.instrumentCapture(ctx, "voice", ic.Controller.CaptureVoice)
}

func (ic *InstrumentedController) CaptureFoodPhoto(ctx context.Context, image []byte) error {
	return ic.instrumentCapture(ctx, "food_photo", func(ctx context.Context) error {
		return ic.Controller.CaptureFoodPhoto(ctx, image)
	})
}

func (ic *InstrumentedController) CaptureMenuPhoto(ctx context.Context, image []byte) error {
	return ic.instrumentCapture(ctx, "menu_photo", func(ctx context.Context) error {
		return ic.Controller.CaptureMenuPhoto(ctx, image)
	})
}

func (ic *InstrumentedController) ConfirmPending(ctx context.Context) error {
	return ic.instrumentCommit(ctx, "pending_meal", ic.Controller.ConfirmPending)
}

func (ic *InstrumentedController) SelectMenuOption(ctx context.Context, i int) error {
	return ic.instrumentCommit(ctx, "menu_option", func(ctx context.Context) error {
		return ic.Controller.SelectMenuOption(ctx, i)
	})
}

func (ic *InstrumentedController) EatSuggestion(ctx context.Context, i int) error {
	return ic.instrumentCommit(ctx, "suggestion", func(ctx context.Context) error {
		return ic.Controller.EatSuggestion(ctx, i)
	})
}

func (ic *InstrumentedController) instrumentCapture(ctx context.Context, modality string, fn func(context.Context) error) error {
	ctx, span := ic.tracer.Start(ctx, "Session.Capture",
		trace.WithAttributes(attribute.String("modality", modality)))
	defer span.End()

	capturesCounter, _ := ic.meter.Int64Counter("captures_total",
		metric.WithDescription("Total number of capture attempts"))
	capturesFailedCounter, _ := ic.meter.Int64Counter("captures_failed_total",
		metric.WithDescription("Total number of capture attempts that failed"))
	captureDurationHist, _ := ic.meter.Float64Histogram("capture_duration_seconds",
		metric.WithDescription("Duration of capture analysis in seconds"))

	attrs := metric.WithAttributes(attribute.String("modality", modality))
	capturesCounter.Add(ctx, 1, attrs)

	start := time.Now()
	err := fn(ctx)
	captureDurationHist.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		capturesFailedCounter.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, nutricoach.ErrCaptureBusy) {
			slog.Error("SESSION: Capture failed", "modality", modality, "error", err)
		}
		return err
	}

	span.SetStatus(codes.Ok, "captured")
	return nil
}

func (ic *InstrumentedController) instrumentCommit(ctx context.Context, kind string, fn func(context.Context) error) error {
	ctx, span := ic.tracer.Start(ctx, "Session.Commit",
		trace.WithAttributes(attribute.String("kind", kind)))
	defer span.End()

	commitsCounter, _ := ic.meter.Int64Counter("commits_total",
		metric.WithDescription("Total number of meal commit attempts"))
	commitsFailedCounter, _ := ic.meter.Int64Counter("commits_failed_total",
		metric.WithDescription("Total number of meal commits that failed"))
	commitDurationHist, _ := ic.meter.Float64Histogram("commit_duration_seconds",
		metric.WithDescription("Duration of commit plus resync in seconds"))

	attrs := metric.WithAttributes(attribute.String("kind", kind))
	commitsCounter.Add(ctx, 1, attrs)

	start := time.Now()
	err := fn(ctx)
	commitDurationHist.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		commitsFailedCounter.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "committed")
	return nil
}
