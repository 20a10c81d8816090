package image

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

// OpenAIImageConfig holds configuration for the DALL·E adapter.
// Required fields:
// - APIKey: OpenAI API key
type OpenAIImageConfig struct {
	APIKey string
}

// NewOpenAIImageConfigFromEnv reads OPENAI_API_KEY.
func NewOpenAIImageConfigFromEnv() OpenAIImageConfig {
	return OpenAIImageConfig{APIKey: os.Getenv("OPENAI_API_KEY")}
}

// OpenAIImageGenerator implements ImageGenerator using DALL·E 3. One square
// image per call; the service may rewrite the prompt and report the revision.
type OpenAIImageGenerator struct {
	client openai.Client
	logger *zap.Logger
}

var _ repositories.ImageGenerator = (*OpenAIImageGenerator)(nil)

// NewOpenAIImageGenerator creates the adapter.
func NewOpenAIImageGenerator(config OpenAIImageConfig, logger *zap.Logger) (*OpenAIImageGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &OpenAIImageGenerator{
		client: openai.NewClient(option.WithAPIKey(config.APIKey)),
		logger: logger,
	}, nil
}

// Generate requests one 1024x1024 image for the prompt.
func (g *OpenAIImageGenerator) Generate(ctx context.Context, prompt string) (repositories.GeneratedImage, error) {
	const maxRetries = 2

	var resp *openai.ImagesResponse
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err = g.client.Images.Generate(ctx, openai.ImageGenerateParams{
			Prompt: prompt,
			Model:  openai.ImageModelDallE3,
			N:      openai.Int(1),
			Size:   openai.ImageGenerateParamsSize1024x1024,
			Style:  openai.ImageGenerateParamsStyleVivid,
		})
		if err == nil {
			break
		}
		if !isRetryable(err) || attempt == maxRetries {
			return repositories.GeneratedImage{}, fmt.Errorf("image generation failed: %w", err)
		}
		g.logger.Warn("Image generation failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(time.Duration(attempt+1) * 2 * time.Second)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return repositories.GeneratedImage{}, fmt.Errorf("image service returned no image")
	}

	g.logger.Info("Image generated", zap.Int("promptLength", len(prompt)))

	return repositories.GeneratedImage{
		URL:           resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
	}, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "server_error")
}
