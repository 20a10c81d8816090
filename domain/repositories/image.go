package repositories

import "context"

// GeneratedImage is the raw result of one image synthesis call.
type GeneratedImage struct {
	URL           string
	RevisedPrompt string
}

// ImageGenerator abstracts the image synthesis service. Size and style are
// fixed per adapter; callers supply only the prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (GeneratedImage, error)
}
