// Package bedrock implements the analysis service on the Bedrock Converse API,
// as an alternative to the backend's own LLM endpoint. Claude reads both the
// text prompts and the raw photos.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nutricoach"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// 1k tokens covers the largest reply we ask for (a menu's worth of options).
	defaultMaxTokens = 1024

	// Low temperature and top_p keep the structured JSON replies deterministic.
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

const foodPhotoPrompt = `Identify every food on this plate and estimate nutrition per item. ` +
	`Return JSON: { "foods": [{ "name": "...", "calories": 0, "protein": 0, "carbs": 0, "fats": 0, "health_grade": "B", "health_reason": "..." }] }`

const menuPhotoPrompt = `Read this restaurant menu and pick the healthiest options. ` +
	`Return JSON: { "options": [{ "name": "...", "calories": 0, "description": "..." }] }`

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Analyzer implements nutricoach.Analyzer on Bedrock Claude.
type Analyzer struct {
	brc  bedrockRuntimeClient
	opts Options
}

func NewAnalyzer(brc bedrockRuntimeClient, opts Options) *Analyzer {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Analyzer{
		brc:  brc,
		opts: opts,
	}
}

// Chat sends a text prompt and returns the decoded JSON payload of the reply.
func (a *Analyzer) Chat(ctx context.Context, message string) (json.RawMessage, error) {
	return a.converse(ctx, []types.ContentBlock{
		&types.ContentBlockMemberText{Value: message},
	})
}

// RecognizeFood sends the photo with the plate prompt and decodes the foods list.
func (a *Analyzer) RecognizeFood(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	payload, err := a.converse(ctx, imageBlocks(foodPhotoPrompt, image))
	if err != nil {
		return nil, err
	}

	var rr struct {
		Foods []nutricoach.FoodItem `json:"foods"`
	}
	if err := json.Unmarshal(payload, &rr); err != nil || rr.Foods == nil {
		return nil, fmt.Errorf("%w: response missing foods list", nutricoach.ErrMalformedResponse)
	}
	return rr.Foods, nil
}

// ReadMenu sends the photo with the menu prompt and decodes the options list.
func (a *Analyzer) ReadMenu(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	payload, err := a.converse(ctx, imageBlocks(menuPhotoPrompt, image))
	if err != nil {
		return nil, err
	}

	var mr struct {
		Options []nutricoach.FoodItem `json:"options"`
	}
	if err := json.Unmarshal(payload, &mr); err != nil || mr.Options == nil {
		return nil, fmt.Errorf("%w: response missing options list", nutricoach.ErrMalformedResponse)
	}
	return mr.Options, nil
}

func imageBlocks(prompt string, image []byte) []types.ContentBlock {
	return []types.ContentBlock{
		&types.ContentBlockMemberText{Value: prompt},
		&types.ContentBlockMemberImage{Value: types.ImageBlock{
			Format: types.ImageFormatJpeg,
			Source: &types.ImageSourceMemberBytes{Value: image},
		}},
	}
}

func (a *Analyzer) converse(ctx context.Context, content []types.ContentBlock) (json.RawMessage, error) {
	in := &bedrockruntime.ConverseInput{
		ModelId: &a.opts.ModelID,
		Messages: []types.Message{
			{Role: types.ConversationRoleUser, Content: content},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(a.opts.MaxTokens),
			Temperature: aws.Float32(a.opts.Temperature),
			TopP:        aws.Float32(a.opts.TopP),
		},
	}

	out, err := a.brc.Converse(ctx, in)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ThrottlingException" {
			return nil, fmt.Errorf("bedrock: %w", nutricoach.ErrRateLimited)
		}
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}

	slog.Info("ANALYZER: Bedrock converse succeeded",
		"stop_reason", out.StopReason,
		"input_tokens", aws.ToInt32(out.Usage.InputTokens),
		"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
	)

	text, err := textFromOutput(out)
	if err != nil {
		return nil, err
	}

	payload := stripFences(text)
	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("%w: model reply is not JSON", nutricoach.ErrMalformedResponse)
	}
	return json.RawMessage(payload), nil
}

func textFromOutput(out *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("%w: unexpected converse output", nutricoach.ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(t.Value)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no text in converse output", nutricoach.ErrMalformedResponse)
	}
	return sb.String(), nil
}

// stripFences removes the markdown code fences models wrap JSON in despite the
// prompt's instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
