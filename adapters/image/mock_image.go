package image

import (
	"context"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

// MockImageGenerator is a placeholder for local development without an
// OpenAI API key.
type MockImageGenerator struct{}

// NewMockImageGenerator creates a new mock image generator
func NewMockImageGenerator() repositories.ImageGenerator {
	return &MockImageGenerator{}
}

// Generate implements repositories.ImageGenerator
func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) (repositories.GeneratedImage, error) {
	return repositories.GeneratedImage{
		URL:           "https://example.invalid/dream-image.png",
		RevisedPrompt: prompt,
	}, nil
}
