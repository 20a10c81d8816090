package entities

// Tone is the overall emotional tone of a recording, derived from the
// dominant prosody emotions.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
	ToneMixed    Tone = "mixed"
)

// EmotionScore is one named emotion with its mean intensity in [0,1].
type EmotionScore struct {
	Emotion   string  `json:"emotion" bson:"emotion"`
	Intensity float64 `json:"intensity" bson:"intensity"`
}

// HesitationMarker is an uncertainty signal (confusion, doubt, anxiety) at a
// point in the recording. Time is seconds from the start of the audio, or the
// segment index when the service supplied no timestamp.
type HesitationMarker struct {
	Time      float64 `json:"time" bson:"time"`
	Emotion   string  `json:"emotion" bson:"emotion"`
	Intensity float64 `json:"intensity" bson:"intensity"`
}

// ProsodyInsight is the compact reduction of a prosody batch job. Absence of
// an insight is a valid terminal state for a dream, not an error.
type ProsodyInsight struct {
	DominantEmotions  []EmotionScore     `json:"dominantEmotions" bson:"dominant_emotions"`
	OverallTone       Tone               `json:"overallTone" bson:"overall_tone"`
	EmotionalArc      string             `json:"emotionalArc" bson:"emotional_arc"`
	HesitationMarkers []HesitationMarker `json:"hesitationMarkers" bson:"hesitation_markers"`
}

// EmptyProsodyInsight is the documented default returned when the prediction
// set is empty or the reduction hits malformed data.
func EmptyProsodyInsight() *ProsodyInsight {
	return &ProsodyInsight{
		DominantEmotions:  []EmotionScore{},
		OverallTone:       ToneNeutral,
		EmotionalArc:      "",
		HesitationMarkers: []HesitationMarker{},
	}
}
