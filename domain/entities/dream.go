package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImageStatus tracks the outcome of the image synthesis stage.
type ImageStatus string

const (
	ImageStatusGenerated ImageStatus = "generated"
	ImageStatusPending   ImageStatus = "pending"
	ImageStatusFailed    ImageStatus = "failed"
)

// DreamImage is the illustrative image for a dream. URL is nil when
// synthesis failed or never ran.
type DreamImage struct {
	URL    *string     `json:"url" bson:"url"`
	Prompt string      `json:"prompt" bson:"prompt"`
	Status ImageStatus `json:"status" bson:"status"`
}

// TranscriptionResult is the output of the transcription stage.
type TranscriptionResult struct {
	Text      string `json:"text"`
	WordCount int    `json:"wordCount"`
}

// Dream is the persisted aggregate for one processed recording. It is only
// ever constructed with a transcript and an analysis; prosody and image may
// independently be absent without invalidating the record.
type Dream struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID             string             `json:"ownerId" bson:"owner_id"`
	Title               string             `json:"title" bson:"title"`
	Transcript          string             `json:"transcript" bson:"transcript"`
	WordCount           int                `json:"wordCount" bson:"word_count"`
	DurationSeconds     int                `json:"durationSeconds" bson:"duration_seconds"`
	EmotionalTone       string             `json:"emotionalTone" bson:"emotional_tone"`
	DreamType           string             `json:"dreamType" bson:"dream_type"`
	DreamTypeConfidence float64            `json:"dreamTypeConfidence" bson:"dream_type_confidence"`
	Analysis            StructuredAnalysis `json:"analysis" bson:"analysis"`
	Prosody             *ProsodyInsight    `json:"prosody" bson:"prosody,omitempty"`
	Image               *DreamImage        `json:"dreamImage" bson:"dream_image,omitempty"`
	IsArchived          bool               `json:"isArchived" bson:"is_archived"`
	IsPrivate           bool               `json:"isPrivate" bson:"is_private"`
	CreatedAt           time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updated_at"`
}

// NewDream builds the aggregate from the outputs of the required stages.
// The headline fields are lifted from the analysis overview.
func NewDream(ownerID, transcript string, wordCount, durationSeconds int, analysis *StructuredAnalysis) (*Dream, error) {
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}
	if transcript == "" {
		return nil, errors.New("transcript is required")
	}
	if analysis == nil {
		return nil, errors.New("analysis is required")
	}

	title := analysis.Overview.Title
	if title == "" {
		title = "Untitled Dream"
	}

	now := time.Now()
	return &Dream{
		OwnerID:             ownerID,
		Title:               title,
		Transcript:          transcript,
		WordCount:           wordCount,
		DurationSeconds:     durationSeconds,
		EmotionalTone:       analysis.Overview.EmotionalTone,
		DreamType:           analysis.Overview.DreamType,
		DreamTypeConfidence: analysis.Overview.Confidence,
		Analysis:            *analysis,
		IsPrivate:           true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// Touch bumps the update timestamp.
func (d *Dream) Touch() {
	d.UpdatedAt = time.Now()
}

// Archive marks the dream archived.
func (d *Dream) Archive() {
	d.IsArchived = true
	d.Touch()
}
