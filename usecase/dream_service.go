package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/events"
)

// Stage identifies one step of the processing pipeline.
type Stage string

const (
	StageReceived          Stage = "RECEIVED"
	StageTranscribing      Stage = "TRANSCRIBING"
	StageProsodyAnalyzing  Stage = "PROSODY_ANALYZING"
	StageAnalyzing         Stage = "ANALYZING"
	StageImageSynthesizing Stage = "IMAGE_SYNTHESIZING"
	StagePersisting        Stage = "PERSISTING"
	StageDone              Stage = "DONE"
	StageAborted           Stage = "ABORTED"
)

// OutcomeStatus tags the result of a best-effort stage so the criticality
// policy stays explicit instead of hiding behind nil checks.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// ProsodyOutcome is the tagged result of the prosody stage.
type ProsodyOutcome struct {
	Status  OutcomeStatus
	Insight *entities.ProsodyInsight
	Reason  string
}

// ImageOutcome is the tagged result of the image synthesis stage.
type ImageOutcome struct {
	Status OutcomeStatus
	Image  *entities.DreamImage
	Reason string
}

// ProcessRequest is one pipeline run over an already-stored upload.
type ProcessRequest struct {
	OwnerID         string
	AudioKey        string
	DurationSeconds int
	Language        string
}

// ProcessResult is the request-boundary response for a successful run.
type ProcessResult struct {
	DreamID           string                       `json:"dreamId"`
	Transcript        string                       `json:"transcript"`
	WordCount         int                          `json:"wordCount"`
	RecordingDuration int                          `json:"recordingDuration"`
	Analysis          *entities.StructuredAnalysis `json:"analysis"`
	Prosody           *entities.ProsodyInsight     `json:"prosody"`
	Image             *entities.DreamImage         `json:"dreamImage"`
}

// DreamService orchestrates the dream-processing pipeline and fronts the
// persisted dream records. External clients are injected so the pipeline
// runs against fakes in tests.
type DreamService struct {
	stt      repositories.SpeechToText
	prosody  repositories.ProsodyAnalyzer
	analysis *AnalysisService
	images   *ImageService
	dreams   repositories.DreamRepository
	audio    repositories.AudioStore
	bus      *events.Bus
	logger   *zap.Logger
}

// NewDreamService creates the orchestrator.
func NewDreamService(
	stt repositories.SpeechToText,
	prosody repositories.ProsodyAnalyzer,
	analysis *AnalysisService,
	images *ImageService,
	dreams repositories.DreamRepository,
	audio repositories.AudioStore,
	bus *events.Bus,
	logger *zap.Logger,
) *DreamService {
	return &DreamService{
		stt:      stt,
		prosody:  prosody,
		analysis: analysis,
		images:   images,
		dreams:   dreams,
		audio:    audio,
		bus:      bus,
		logger:   logger,
	}
}

// ProcessUpload stores one upload and runs the pipeline over it.
func (s *DreamService) ProcessUpload(ctx context.Context, ownerID string, audio io.Reader, ext string, durationSeconds int, language string) (*ProcessResult, error) {
	if ownerID == "" {
		return nil, domain.NewInputError("owner id is required")
	}
	if audio == nil {
		return nil, domain.NewInputError("audio upload is required")
	}
	if durationSeconds < 0 {
		return nil, domain.NewInputError("durationSeconds must not be negative")
	}

	key, err := s.audio.Save(audio, ext)
	if err != nil {
		return nil, domain.NewInputError(err.Error())
	}

	return s.Process(ctx, ProcessRequest{
		OwnerID:         ownerID,
		AudioKey:        key,
		DurationSeconds: durationSeconds,
		Language:        language,
	})
}

// Process runs the pipeline over a stored upload. The audio resource is
// released exactly once no matter which stage ends the run.
func (s *DreamService) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	requestID := uuid.New().String()
	log := s.logger.With(
		zap.String("requestID", requestID),
		zap.String("ownerID", req.OwnerID))

	emit := func(stage Stage, detail string) {
		log.Info("Pipeline stage", zap.String("stage", string(stage)))
		s.bus.Publish(events.StageEvent{
			RequestID: requestID,
			OwnerID:   req.OwnerID,
			Stage:     string(stage),
			Detail:    detail,
		})
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := s.audio.Delete(req.AudioKey); err != nil {
			log.Warn("Failed to release audio resource", zap.Error(err))
		}
	}
	defer release()

	emit(StageReceived, "")

	audio, err := s.audio.Read(req.AudioKey)
	if err != nil {
		emit(StageAborted, "audio resource unavailable")
		return nil, domain.NewInputError("audio resource unavailable")
	}

	emit(StageTranscribing, "")
	transcript, err := s.stt.Transcribe(ctx, audio, repositories.AudioConfig{Language: req.Language})
	if err != nil {
		emit(StageAborted, "transcription failed")
		return nil, domain.NewUpstreamError("speech-to-text", "transcription failed", err)
	}
	wordCount := countWords(transcript)

	emit(StageProsodyAnalyzing, "")
	prosodyOutcome := s.runProsody(ctx, audio, log)

	// Both audio consumers are done; don't hold the upload through the
	// model calls.
	release()

	emit(StageAnalyzing, "")
	analysis, err := s.analysis.Analyze(ctx, transcript, req.DurationSeconds, wordCount)
	if err != nil {
		emit(StageAborted, "analysis failed")
		return nil, err
	}

	emit(StageImageSynthesizing, "")
	imageOutcome := s.runImage(ctx, analysis)

	emit(StagePersisting, "")
	dream, err := entities.NewDream(req.OwnerID, transcript, wordCount, req.DurationSeconds, analysis)
	if err != nil {
		emit(StageAborted, "invalid record")
		return nil, domain.NewInputError(err.Error())
	}
	if prosodyOutcome.Status == OutcomeSuccess {
		dream.Prosody = prosodyOutcome.Insight
	}
	dream.Image = imageOutcome.Image

	if err := s.dreams.Create(ctx, dream); err != nil {
		emit(StageAborted, "persistence failed")
		return nil, domain.NewPersistenceError("failed to persist dream", err)
	}

	emit(StageDone, dream.ID.Hex())
	log.Info("Dream processed",
		zap.String("dreamID", dream.ID.Hex()),
		zap.String("dreamType", dream.DreamType),
		zap.String("prosody", string(prosodyOutcome.Status)),
		zap.String("image", string(imageOutcome.Status)))

	return &ProcessResult{
		DreamID:           dream.ID.Hex(),
		Transcript:        transcript,
		WordCount:         wordCount,
		RecordingDuration: req.DurationSeconds,
		Analysis:          analysis,
		Prosody:           dream.Prosody,
		Image:             dream.Image,
	}, nil
}

// runProsody absorbs every prosody failure into a tagged outcome; this stage
// never aborts the request.
func (s *DreamService) runProsody(ctx context.Context, audio []byte, log *zap.Logger) ProsodyOutcome {
	if s.prosody == nil {
		return ProsodyOutcome{Status: OutcomeSkipped}
	}
	insight, err := s.prosody.Analyze(ctx, audio)
	if err != nil {
		log.Warn("Prosody analysis unavailable", zap.Error(err))
		return ProsodyOutcome{Status: OutcomeFailed, Reason: err.Error()}
	}
	if insight == nil {
		return ProsodyOutcome{Status: OutcomeSkipped}
	}
	return ProsodyOutcome{Status: OutcomeSuccess, Insight: insight}
}

func (s *DreamService) runImage(ctx context.Context, analysis *entities.StructuredAnalysis) ImageOutcome {
	img := s.images.Generate(ctx, analysis)
	status := OutcomeSuccess
	if img.Status == entities.ImageStatusFailed {
		status = OutcomeFailed
	}
	return ImageOutcome{Status: status, Image: img}
}

// GetDream returns one record. Reads by a non-owner surface as not-found so
// record existence is never confirmed to strangers.
func (s *DreamService) GetDream(ctx context.Context, ownerID, id string) (*entities.Dream, error) {
	dream, err := s.dreams.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load dream", err)
	}
	if dream == nil || dream.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("dream not found")
	}
	return dream, nil
}

// ListDreams returns the caller's records, newest first.
func (s *DreamService) ListDreams(ctx context.Context, ownerID string) ([]*entities.Dream, error) {
	dreams, err := s.dreams.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to list dreams", err)
	}
	return dreams, nil
}

// UpdateDream applies caller-mutable fields. Writes by a non-owner are
// denied with forbidden; the existence leak is intentional and documented.
func (s *DreamService) UpdateDream(ctx context.Context, ownerID, id string, update repositories.DreamUpdate) (*entities.Dream, error) {
	dream, err := s.dreams.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load dream", err)
	}
	if dream == nil {
		return nil, domain.NewNotFoundError("dream not found")
	}
	if dream.OwnerID != ownerID {
		return nil, domain.NewForbiddenError("dream belongs to another user")
	}

	if err := s.dreams.Update(ctx, id, update); err != nil {
		return nil, domain.NewPersistenceError("failed to update dream", err)
	}

	updated, err := s.dreams.GetByID(ctx, id)
	if err != nil || updated == nil {
		return nil, domain.NewPersistenceError("failed to reload dream", err)
	}
	return updated, nil
}

// ArchiveDream marks a record archived.
func (s *DreamService) ArchiveDream(ctx context.Context, ownerID, id string) (*entities.Dream, error) {
	archived := true
	return s.UpdateDream(ctx, ownerID, id, repositories.DreamUpdate{IsArchived: &archived})
}

// DeleteDream removes a record, with the same write-side ownership rule as
// UpdateDream.
func (s *DreamService) DeleteDream(ctx context.Context, ownerID, id string) error {
	dream, err := s.dreams.GetByID(ctx, id)
	if err != nil {
		return domain.NewPersistenceError("failed to load dream", err)
	}
	if dream == nil {
		return domain.NewNotFoundError("dream not found")
	}
	if dream.OwnerID != ownerID {
		return domain.NewForbiddenError("dream belongs to another user")
	}

	if err := s.dreams.Delete(ctx, id); err != nil {
		return domain.NewPersistenceError("failed to delete dream", err)
	}
	return nil
}

// countWords counts whitespace-delimited non-empty tokens.
func countWords(s string) int {
	return len(strings.Fields(s))
}
