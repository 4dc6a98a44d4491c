package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"nutricoach"
	"nutricoach/analysis/bedrock"
	"nutricoach/capture"
	"nutricoach/capture/source"
	"nutricoach/coach"
	"nutricoach/gateway"
	"nutricoach/session"
)

// Params selects one capture action per invocation. Photos are uploaded to S3
// out of band and referenced by key.
type Params struct {
	Action   string `json:"action"` // log_text, log_photo, read_menu, stats
	Text     string `json:"text,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
}

type Results struct {
	Stats   nutricoach.DailyStats `json:"stats"`
	Foods   []nutricoach.FoodItem `json:"foods,omitempty"`
	Options []nutricoach.FoodItem `json:"options,omitempty"`
	Coach   string                `json:"coach"`
	Notice  string                `json:"notice,omitempty"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var backendConfig nutricoach.BackendConfig
		if err := envdecode.Decode(&backendConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var modelConfig nutricoach.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		imagesBucket := os.Getenv("CAPTURES_S3_BUCKET")
		if params.ImageKey != "" && imagesBucket == "" {
			return Results{}, fmt.Errorf("missing S3 config: CAPTURES_S3_BUCKET must be set for photo captures")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		store, err := gateway.NewClient(gateway.ClientOpts{BaseURL: backendConfig.BaseURL})
		if err != nil {
			slog.Error("SETUP: Failed to create backend client", "error", err)
			return Results{}, err
		}

		analyzer := bedrock.NewAnalyzer(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})

		audit := nutricoach.NewStdoutAnalysisLogger()
		ctrl, err := session.NewController(session.ControllerOpts{
			Store:   store,
			Capture: capture.NewOrchestrator(analyzer, nil, audit),
			Coach:   coach.NewAdvisor(analyzer, audit),
		})
		if err != nil {
			slog.Error("SETUP: Failed to create session controller", "error", err)
			return Results{}, err
		}

		state := ctrl.Init(ctx)
		slog.Info("SETUP: Session initialized", "degraded", state.Notice != "", "meals", len(state.Meals))

		res := Results{Notice: state.Notice}

		switch params.Action {
		case "log_text":
			if err := ctrl.CaptureText(ctx, params.Text); err != nil {
				return Results{}, err
			}
			if res.Foods, err = commitPending(ctx, ctrl); err != nil {
				return Results{}, err
			}
		case "log_photo":
			image, err := loadImage(ctx, awsCfg, imagesBucket, params.ImageKey)
			if err != nil {
				return Results{}, err
			}
			if err := ctrl.CaptureFoodPhoto(ctx, image); err != nil {
				return Results{}, err
			}
			if res.Foods, err = commitPending(ctx, ctrl); err != nil {
				return Results{}, err
			}
		case "read_menu":
			image, err := loadImage(ctx, awsCfg, imagesBucket, params.ImageKey)
			if err != nil {
				return Results{}, err
			}
			if err := ctrl.CaptureMenuPhoto(ctx, image); err != nil {
				return Results{}, err
			}
			res.Options = menuOptions(ctrl)
			ctrl.CloseSurface()
		case "stats":
			// Init already synced; nothing else to do.
		default:
			return Results{}, fmt.Errorf("unknown action %q", params.Action)
		}

		res.Stats = ctrl.State().Stats
		res.Coach = ctrl.CoachSummary()
		return res, nil
	}

	lambda.Start(fn)
}

// commitPending confirms the open candidate. An invocation has no interactive
// review, so a successful capture is logged immediately.
func commitPending(ctx context.Context, ctrl *session.Controller) ([]nutricoach.FoodItem, error) {
	pending, ok := ctrl.PendingMeal()
	if !ok {
		return nil, fmt.Errorf("no pending meal after capture")
	}
	if err := ctrl.ConfirmPending(ctx); err != nil {
		ctrl.CloseSurface()
		return nil, err
	}
	return pending.Foods, nil
}

func menuOptions(ctrl *session.Controller) []nutricoach.FoodItem {
	options := make([]nutricoach.FoodItem, 0)
	for i := 0; ; i++ {
		opt, err := ctrl.MenuOption(i)
		if err != nil {
			return options
		}
		options = append(options, opt)
	}
}

func loadImage(ctx context.Context, awsCfg aws.Config, bucket, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("image_key is required")
	}
	return source.NewS3ImageSource(s3.NewFromConfig(awsCfg), bucket, key).Load(ctx)
}
