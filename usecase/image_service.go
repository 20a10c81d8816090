package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

const maxImagePromptChars = 1000

// ImageService is the image synthesis stage. It never fails the request:
// every error collapses into a DreamImage with a failed status.
type ImageService struct {
	generator repositories.ImageGenerator
	logger    *zap.Logger
}

// NewImageService creates the stage.
func NewImageService(generator repositories.ImageGenerator, logger *zap.Logger) *ImageService {
	return &ImageService{generator: generator, logger: logger}
}

// Generate derives a visual prompt from the analysis and requests one square
// image.
func (s *ImageService) Generate(ctx context.Context, analysis *entities.StructuredAnalysis) *entities.DreamImage {
	prompt := composeImagePrompt(analysis)

	if s.generator == nil {
		return &entities.DreamImage{Prompt: prompt, Status: entities.ImageStatusFailed}
	}

	result, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("Image synthesis failed", zap.Error(err))
		return &entities.DreamImage{Prompt: prompt, Status: entities.ImageStatusFailed}
	}

	finalPrompt := result.RevisedPrompt
	if finalPrompt == "" {
		finalPrompt = prompt
	}
	url := result.URL

	return &entities.DreamImage{
		URL:    &url,
		Prompt: truncateChars(finalPrompt, maxImagePromptChars),
		Status: entities.ImageStatusGenerated,
	}
}

// composeImagePrompt builds the visual prompt from the overview and settings,
// bounded to the image service's prompt limit.
func composeImagePrompt(analysis *entities.StructuredAnalysis) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("A dreamlike illustration of \"%s\".", analysis.Overview.Title))
	if analysis.Overview.Summary != "" {
		parts = append(parts, analysis.Overview.Summary)
	}
	if analysis.Overview.EmotionalTone != "" {
		parts = append(parts, "Mood: "+analysis.Overview.EmotionalTone+".")
	}
	if len(analysis.ManifestContent.Settings) > 0 {
		parts = append(parts, "Setting: "+strings.Join(analysis.ManifestContent.Settings, ", ")+".")
	}
	return truncateChars(strings.Join(parts, " "), maxImagePromptChars)
}

func truncateChars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
