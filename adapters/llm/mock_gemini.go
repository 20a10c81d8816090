package llm

import (
	"context"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

// MockAnalysisModel is a placeholder backend for local development without a
// Gemini API key. It returns a minimal but contract-complete analysis.
type MockAnalysisModel struct{}

// NewMockAnalysisModel creates a new mock analysis backend
func NewMockAnalysisModel() repositories.AnalysisModel {
	return &MockAnalysisModel{}
}

// Generate implements repositories.AnalysisModel
func (m *MockAnalysisModel) Generate(ctx context.Context, req repositories.GenerateRequest) (string, error) {
	return `{
  "overview": {
    "title": "The Endless Staircase",
    "emotionalTone": "anxious",
    "dreamType": "symbolic",
    "confidence": 0.72,
    "summary": "A familiar house dissolves into impossible geography while an unseen voice calls from above."
  },
  "manifestContent": {
    "characters": ["the dreamer", "an unseen caller"],
    "settings": ["childhood house", "ocean"],
    "actions": ["climbing", "searching"],
    "emotions": ["anxiety", "longing"],
    "emotionalIntensity": {"value": 0.7, "label": "high", "interpretation": "Strong affect throughout."},
    "emotionalValence": {"value": 0.3, "label": "negative-leaning", "interpretation": "Unease dominates."},
    "realism": {"value": 0.4, "label": "moderate", "interpretation": "Familiar places, impossible layout."},
    "bizarreness": {"value": 0.6, "label": "elevated", "interpretation": "Doors opening onto ocean."},
    "vividness": {"value": 0.8, "label": "vivid", "interpretation": "Detailed sensory recall."},
    "clarity": {"value": 0.7, "label": "clear", "interpretation": "Coherent narrative thread."},
    "lucidity": {"value": 0.1, "label": "non-lucid", "interpretation": "No awareness of dreaming."},
    "control": {"value": 0.2, "label": "low", "interpretation": "Events happen to the dreamer."},
    "threatLevel": {"value": 0.3, "label": "mild", "interpretation": "Unease without direct threat."}
  },
  "cdtAnalysis": {
    "vaultActivation": {"detected": true, "intensity": 0.5, "indicators": ["childhood house"], "description": "Sealed early-life material surfacing through the house motif."},
    "cognitiveDriftThemes": [{"theme": "unreachable resolution", "confidence": 0.65}],
    "convergenceIndicators": ["stairs that never end"],
    "classificationRationale": "Recurrent spatial impossibility with a single persistent goal marks a symbolic processing dream."
  },
  "archetypalResonances": {
    "shadow": {"present": false, "elements": [], "reflection": null},
    "animaAnimus": {"present": true, "elements": ["the calling voice"], "reflection": "A guiding inner figure remains out of reach."},
    "wiseElder": {"present": false, "elements": [], "reflection": null},
    "innerChild": {"present": true, "elements": ["childhood house"], "reflection": "The past still houses something unresolved."},
    "trickster": {"present": false, "elements": [], "reflection": null},
    "scenarios": ["the impossible journey"]
  },
  "reflectivePrompts": [
    {"category": "memory", "prompt": "What does the childhood house hold for you now?", "dreamConnection": "The dream rooted itself in your earliest home."}
  ]
}`, nil
}
