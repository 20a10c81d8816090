package repositories

import (
	"context"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
)

// ProsodyAnalyzer extracts emotional prosody from raw audio. Implementations
// are best-effort: a nil insight with a nil error means the stage was skipped
// (service not configured); a non-nil error explains a submit failure, job
// failure, or polling timeout. Callers absorb both outcomes into an absent
// insight and never fail the request over them.
type ProsodyAnalyzer interface {
	Analyze(ctx context.Context, audio []byte) (*entities.ProsodyInsight, error)
}
