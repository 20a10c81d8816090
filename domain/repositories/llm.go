package repositories

import "context"

// GenerateRequest is one structured-generation call to a language model.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// AnalysisModel abstracts the language model that produces the structured
// dream analysis. The returned string is free text expected to contain JSON.
type AnalysisModel interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
