package repositories

import "context"

// AudioConfig carries the recognition hints for a recording.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// SpeechToText abstracts speech recognition services. Implementations return
// the full transcript of the recording; an empty transcript is an error.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, config AudioConfig) (string, error)
}
