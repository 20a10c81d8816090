package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/events"
)

type fakeSpeechToText struct {
	transcript string
	err        error
}

func (f *fakeSpeechToText) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	return f.transcript, f.err
}

type fakeProsody struct {
	insight *entities.ProsodyInsight
	err     error
}

func (f *fakeProsody) Analyze(ctx context.Context, audio []byte) (*entities.ProsodyInsight, error) {
	return f.insight, f.err
}

// memoryAudioStore counts deletes and fails on a missing key.
type memoryAudioStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	deletes int
	next    int
}

func newMemoryAudioStore() *memoryAudioStore {
	return &memoryAudioStore{files: map[string][]byte{}}
}

func (s *memoryAudioStore) Save(r io.Reader, ext string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	key := fmt.Sprintf("audio-%d%s", s.next, ext)
	s.files[key] = data
	return key, nil
}

func (s *memoryAudioStore) Read(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (s *memoryAudioStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[key]; !ok {
		return errors.New("no such key")
	}
	delete(s.files, key)
	s.deletes++
	return nil
}

func (s *memoryAudioStore) deleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

type memoryDreamRepo struct {
	mu        sync.Mutex
	dreams    map[string]*entities.Dream
	createErr error
}

func newMemoryDreamRepo() *memoryDreamRepo {
	return &memoryDreamRepo{dreams: map[string]*entities.Dream{}}
}

func (r *memoryDreamRepo) Create(ctx context.Context, dream *entities.Dream) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	dream.ID = primitive.NewObjectID()
	copied := *dream
	r.dreams[dream.ID.Hex()] = &copied
	return nil
}

func (r *memoryDreamRepo) GetByID(ctx context.Context, id string) (*entities.Dream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dream, ok := r.dreams[id]
	if !ok {
		return nil, nil
	}
	copied := *dream
	return &copied, nil
}

func (r *memoryDreamRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Dream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Dream
	for _, dream := range r.dreams {
		if dream.OwnerID == ownerID {
			copied := *dream
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memoryDreamRepo) Update(ctx context.Context, id string, update repositories.DreamUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dream, ok := r.dreams[id]
	if !ok {
		return errors.New("not found")
	}
	if update.Title != nil {
		dream.Title = *update.Title
	}
	if update.IsArchived != nil {
		dream.IsArchived = *update.IsArchived
	}
	if update.IsPrivate != nil {
		dream.IsPrivate = *update.IsPrivate
	}
	return nil
}

func (r *memoryDreamRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dreams[id]; !ok {
		return errors.New("not found")
	}
	delete(r.dreams, id)
	return nil
}

func (r *memoryDreamRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dreams)
}

type pipelineFixture struct {
	svc    *DreamService
	stt    *fakeSpeechToText
	repo   *memoryDreamRepo
	audio  *memoryAudioStore
	bus    *events.Bus
	images *scriptedImageGenerator
}

func newPipelineFixture(t *testing.T, prosody repositories.ProsodyAnalyzer, modelResponse string) *pipelineFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	stt := &fakeSpeechToText{transcript: "I was climbing an endless staircase in an old house."}
	repo := newMemoryDreamRepo()
	audio := newMemoryAudioStore()
	bus := events.NewBus(logger)
	images := &scriptedImageGenerator{result: repositories.GeneratedImage{URL: "https://images.example/dream.png"}}

	svc := NewDreamService(
		stt,
		prosody,
		NewAnalysisService(&scriptedModel{response: modelResponse}, logger),
		NewImageService(images, logger),
		repo,
		audio,
		bus,
		logger,
	)
	return &pipelineFixture{svc: svc, stt: stt, repo: repo, audio: audio, bus: bus, images: images}
}

func sampleInsight() *entities.ProsodyInsight {
	return &entities.ProsodyInsight{
		DominantEmotions: []entities.EmotionScore{{Emotion: "Anxiety", Intensity: 0.61}},
		OverallTone:      entities.ToneNegative,
		EmotionalArc:     "steady Anxiety throughout",
		HesitationMarkers: []entities.HesitationMarker{
			{Time: 2.5, Emotion: "Doubt", Intensity: 0.4},
		},
	}
}

func TestProcessUploadSuccess(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{insight: sampleInsight()}, validAnalysisJSON(t))

	result, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus-bytes")), ".webm", 42, "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	if result.Transcript == "" || result.WordCount != 10 {
		t.Errorf("transcript %q wordCount %d", result.Transcript, result.WordCount)
	}
	if result.Analysis == nil || result.Analysis.Overview.Title != "The Endless Staircase" {
		t.Error("analysis missing from result")
	}
	if result.Prosody == nil || result.Prosody.OverallTone != entities.ToneNegative {
		t.Error("prosody missing from result")
	}
	if result.Image == nil || result.Image.Status != entities.ImageStatusGenerated {
		t.Error("image missing from result")
	}

	stored, err := fx.repo.GetByID(context.Background(), result.DreamID)
	if err != nil || stored == nil {
		t.Fatalf("stored dream: %v %v", stored, err)
	}
	if stored.Title != "The Endless Staircase" {
		t.Errorf("stored title = %q", stored.Title)
	}
	if stored.Prosody == nil {
		t.Error("stored dream lost prosody insight")
	}
	if got := fx.audio.deleteCount(); got != 1 {
		t.Errorf("audio deletes = %d, want 1", got)
	}
}

func TestProcessProsodyOutage(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{err: errors.New("hume down")}, validAnalysisJSON(t))

	result, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if result.Prosody != nil {
		t.Error("prosody should be absent after an outage")
	}
	if fx.repo.count() != 1 {
		t.Errorf("dream count = %d, want 1", fx.repo.count())
	}
	if got := fx.audio.deleteCount(); got != 1 {
		t.Errorf("audio deletes = %d, want 1", got)
	}
}

func TestProcessProsodyNotConfigured(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, validAnalysisJSON(t))

	result, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if result.Prosody != nil {
		t.Error("prosody should be absent when the analyzer is not configured")
	}
}

func TestProcessInvalidModelOutput(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, "not json at all")

	_, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if !domain.IsKind(err, domain.KindParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if fx.repo.count() != 0 {
		t.Errorf("dream count = %d, want 0", fx.repo.count())
	}
	if got := fx.audio.deleteCount(); got != 1 {
		t.Errorf("audio deletes = %d, want 1", got)
	}
}

func TestProcessTranscriptionFailure(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, validAnalysisJSON(t))
	fx.stt.err = errors.New("speech api unavailable")

	_, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if !domain.IsKind(err, domain.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if fx.repo.count() != 0 {
		t.Errorf("dream count = %d, want 0", fx.repo.count())
	}
	if got := fx.audio.deleteCount(); got != 1 {
		t.Errorf("audio deletes = %d, want 1", got)
	}
}

func TestProcessPersistenceFailure(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, validAnalysisJSON(t))
	fx.repo.createErr = errors.New("mongo down")

	_, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if !domain.IsKind(err, domain.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if got := fx.audio.deleteCount(); got != 1 {
		t.Errorf("audio deletes = %d, want 1", got)
	}
}

func TestProcessImageFailureIsAbsorbed(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, validAnalysisJSON(t))
	fx.images.err = errors.New("dalle down")

	result, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if result.Image == nil || result.Image.Status != entities.ImageStatusFailed {
		t.Errorf("image outcome = %+v, want failed status", result.Image)
	}
	if fx.repo.count() != 1 {
		t.Errorf("dream count = %d, want 1", fx.repo.count())
	}
}

func TestProcessEmitsStageEvents(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{insight: sampleInsight()}, validAnalysisJSON(t))
	ch, cancel := fx.bus.Subscribe("user-1")
	defer cancel()

	if _, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, ""); err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	want := []string{"RECEIVED", "TRANSCRIBING", "PROSODY_ANALYZING", "ANALYZING", "IMAGE_SYNTHESIZING", "PERSISTING", "DONE"}
	for _, stage := range want {
		event := <-ch
		if event.Stage != stage {
			t.Fatalf("stage = %q, want %q", event.Stage, stage)
		}
	}
}

func TestProcessUploadValidation(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, validAnalysisJSON(t))

	if _, err := fx.svc.ProcessUpload(context.Background(), "", bytes.NewReader(nil), ".webm", 10, ""); !domain.IsKind(err, domain.KindInput) {
		t.Errorf("missing owner: got %v", err)
	}
	if _, err := fx.svc.ProcessUpload(context.Background(), "user-1", nil, ".webm", 10, ""); !domain.IsKind(err, domain.KindInput) {
		t.Errorf("missing audio: got %v", err)
	}
	if _, err := fx.svc.ProcessUpload(context.Background(), "user-1", bytes.NewReader(nil), ".webm", -1, ""); !domain.IsKind(err, domain.KindInput) {
		t.Errorf("negative duration: got %v", err)
	}
}

func TestDreamOwnership(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, validAnalysisJSON(t))
	ctx := context.Background()

	result, err := fx.svc.ProcessUpload(ctx, "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	// Reads by a stranger look like a missing record.
	if _, err := fx.svc.GetDream(ctx, "user-2", result.DreamID); !domain.IsKind(err, domain.KindNotFound) {
		t.Errorf("stranger read: got %v", err)
	}
	// Writes by a stranger are denied outright.
	title := "Stolen"
	if _, err := fx.svc.UpdateDream(ctx, "user-2", result.DreamID, repositories.DreamUpdate{Title: &title}); !domain.IsKind(err, domain.KindForbidden) {
		t.Errorf("stranger update: got %v", err)
	}
	if err := fx.svc.DeleteDream(ctx, "user-2", result.DreamID); !domain.IsKind(err, domain.KindForbidden) {
		t.Errorf("stranger delete: got %v", err)
	}

	if _, err := fx.svc.GetDream(ctx, "user-1", result.DreamID); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if err := fx.svc.DeleteDream(ctx, "user-1", result.DreamID); err != nil {
		t.Errorf("owner delete: %v", err)
	}
	if _, err := fx.svc.GetDream(ctx, "user-1", result.DreamID); !domain.IsKind(err, domain.KindNotFound) {
		t.Errorf("read after delete: got %v", err)
	}
}

func TestArchiveDream(t *testing.T) {
	fx := newPipelineFixture(t, &fakeProsody{}, validAnalysisJSON(t))
	ctx := context.Background()

	result, err := fx.svc.ProcessUpload(ctx, "user-1", bytes.NewReader([]byte("opus")), ".webm", 30, "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	archived, err := fx.svc.ArchiveDream(ctx, "user-1", result.DreamID)
	if err != nil {
		t.Fatalf("ArchiveDream: %v", err)
	}
	if !archived.IsArchived {
		t.Error("dream not archived")
	}
}
