package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for local development
// without Google Cloud credentials.
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{logger: logger}
}

// Transcribe returns a canned dream narration sized to the upload.
func (s *MockSpeechToText) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Mock transcription",
		zap.Int("audioBytes", len(audio)),
		zap.String("language", config.Language))

	switch {
	case len(audio) > 10000:
		return "I was walking through a house I grew up in, but every door opened onto the ocean. " +
			"Someone was calling my name from upstairs and I kept climbing but the stairs never ended.", nil
	case len(audio) > 1000:
		return "I dreamed I was flying over a city made of glass.", nil
	default:
		return "I was falling.", nil
	}
}
