package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/gradethread/gradethread/pkg/formatting"
)

// Client implements Analyzer over an OpenAI-compatible chat completions
// endpoint.
type Client struct {
	api    openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a vision client from finalized config.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.RequestTimeoutDuration()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:    openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger.With("system", "vision"),
	}
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.model
}

// AnalyzeImage sends one photo to the model and parses its structured
// analysis. The response may arrive fenced in markdown; parsing tolerates
// that.
func (c *Client) AnalyzeImage(
	ctx context.Context,
	dataURI string,
	imageType string,
	garment GarmentInfo,
) (*ImageAnalysis, error) {
	content, err := c.complete(ctx,
		analyzeSystemPrompt,
		[]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(analyzeUserPrompt(imageType, garment)),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURI,
			}),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("analyze %s image: %w", imageType, err)
	}

	analysis, err := formatting.Parse[ImageAnalysis](content)
	if err != nil {
		return nil, fmt.Errorf("parse %s analysis: %w", imageType, err)
	}

	analysis.ImageType = imageType
	if analysis.DetectedIssues == nil {
		analysis.DetectedIssues = []string{}
	}
	if analysis.ConditionSignals == nil {
		analysis.ConditionSignals = []string{}
	}

	c.logger.Debug("image analyzed",
		"image_type", imageType,
		"issues", len(analysis.DetectedIssues),
		"signals", len(analysis.ConditionSignals),
	)
	return &analysis, nil
}

// CompositeGrade combines all per-image analyses into a final grade. The
// grade tier is derived from the overall score; model-reported tiers are
// ignored.
func (c *Client) CompositeGrade(
	ctx context.Context,
	analyses []ImageAnalysis,
	garment GarmentInfo,
) (*CompositeResult, error) {
	if len(analyses) == 0 {
		return nil, ErrNoAnalyses
	}

	analysesJSON, err := json.Marshal(analyses)
	if err != nil {
		return nil, fmt.Errorf("marshal analyses: %w", err)
	}

	content, err := c.complete(ctx,
		compositeSystemPrompt,
		[]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(compositeUserPrompt(string(analysesJSON), garment)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("composite grade: %w", err)
	}

	result, err := formatting.Parse[CompositeResult](content)
	if err != nil {
		return nil, fmt.Errorf("parse composite grade: %w", err)
	}

	result.OverallScore = clamp(result.OverallScore, 0, 10)
	result.ConfidenceScore = clamp(result.ConfidenceScore, 0, 1)
	result.FactorScores.FabricCondition = clamp(result.FactorScores.FabricCondition, 0, 10)
	result.FactorScores.ConstructionIntegrity = clamp(result.FactorScores.ConstructionIntegrity, 0, 10)
	result.FactorScores.ColorFidelity = clamp(result.FactorScores.ColorFidelity, 0, 10)
	result.FactorScores.HardwareTrim = clamp(result.FactorScores.HardwareTrim, 0, 10)
	result.FactorScores.Cleanliness = clamp(result.FactorScores.Cleanliness, 0, 10)
	result.GradeTier = TierForScore(result.OverallScore)
	result.PromptVersion = PromptVersion
	if result.DefectsFound == nil {
		result.DefectsFound = []string{}
	}

	c.logger.Info("composite grade produced",
		"overall_score", result.OverallScore,
		"grade_tier", result.GradeTier,
		"confidence", result.ConfidenceScore,
		"defects", len(result.DefectsFound),
	)
	return &result, nil
}

func (c *Client) complete(
	ctx context.Context,
	system string,
	parts []openai.ChatCompletionContentPartUnionParam,
) (string, error) {
	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(parts),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return completion.Choices[0].Message.Content, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
