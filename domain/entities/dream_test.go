package entities

import "testing"

func sampleAnalysis() *StructuredAnalysis {
	return &StructuredAnalysis{
		Overview: Overview{
			Title:         "Falling Through Clouds",
			EmotionalTone: "serene",
			DreamType:     "lucid",
			Confidence:    0.9,
			Summary:       "A weightless descent.",
		},
		CDTAnalysis: CDTAnalysis{ClassificationRationale: "Explicit awareness of dreaming."},
		ReflectivePrompts: []ReflectivePrompt{
			{Category: "symbolic", Prompt: "What does falling mean to you?", DreamConnection: "the descent"},
		},
	}
}

func TestNewDream(t *testing.T) {
	dream, err := NewDream("user-1", "I was falling.", 3, 20, sampleAnalysis())
	if err != nil {
		t.Fatalf("NewDream: %v", err)
	}

	if dream.Title != "Falling Through Clouds" {
		t.Errorf("title = %q", dream.Title)
	}
	if dream.DreamType != "lucid" || dream.EmotionalTone != "serene" {
		t.Errorf("overview fields not lifted: %q %q", dream.DreamType, dream.EmotionalTone)
	}
	if !dream.IsPrivate {
		t.Error("new dreams must default to private")
	}
	if dream.IsArchived {
		t.Error("new dreams must not be archived")
	}
	if dream.CreatedAt.IsZero() || dream.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestNewDreamTitleFallback(t *testing.T) {
	analysis := sampleAnalysis()
	analysis.Overview.Title = ""

	dream, err := NewDream("user-1", "I was falling.", 3, 20, analysis)
	if err != nil {
		t.Fatalf("NewDream: %v", err)
	}
	if dream.Title != "Untitled Dream" {
		t.Errorf("title = %q", dream.Title)
	}
}

func TestNewDreamValidation(t *testing.T) {
	if _, err := NewDream("", "transcript", 1, 10, sampleAnalysis()); err == nil {
		t.Error("expected error for missing owner")
	}
	if _, err := NewDream("user-1", "", 0, 10, sampleAnalysis()); err == nil {
		t.Error("expected error for missing transcript")
	}
	if _, err := NewDream("user-1", "transcript", 1, 10, nil); err == nil {
		t.Error("expected error for missing analysis")
	}
}

func TestArchive(t *testing.T) {
	dream, err := NewDream("user-1", "I was falling.", 3, 20, sampleAnalysis())
	if err != nil {
		t.Fatalf("NewDream: %v", err)
	}
	before := dream.UpdatedAt

	dream.Archive()
	if !dream.IsArchived {
		t.Error("dream not archived")
	}
	if dream.UpdatedAt.Before(before) {
		t.Error("update timestamp went backwards")
	}
}
