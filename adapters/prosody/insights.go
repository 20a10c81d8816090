package prosody

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
)

const (
	maxDominantEmotions  = 5
	maxHesitationMarkers = 5
	hesitationThreshold  = 0.3
	toneMargin           = 0.2
	mixedFloor           = 0.3
)

type emotionPrediction struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type timeRange struct {
	Begin float64 `json:"begin"`
	End   float64 `json:"end"`
}

type segmentPrediction struct {
	Time     *timeRange          `json:"time"`
	Emotions []emotionPrediction `json:"emotions"`
}

type groupedPrediction struct {
	Predictions []segmentPrediction `json:"predictions"`
}

var hesitationEmotions = map[string]bool{
	"Confusion": true,
	"Doubt":     true,
	"Anxiety":   true,
}

var positiveEmotions = map[string]bool{
	"Joy":        true,
	"Interest":   true,
	"Amusement":  true,
	"Excitement": true,
	"Love":       true,
}

var negativeEmotions = map[string]bool{
	"Sadness": true,
	"Anger":   true,
	"Fear":    true,
	"Disgust": true,
	"Anxiety": true,
}

// extractProsodyInsights reduces raw grouped predictions into the compact
// insight. The reduction is total: empty or malformed inputs yield the
// documented empty-default insight, never an error.
func extractProsodyInsights(groups []groupedPrediction) *entities.ProsodyInsight {
	var segments []segmentPrediction
	for _, g := range groups {
		segments = append(segments, g.Predictions...)
	}
	if len(segments) == 0 {
		return entities.EmptyProsodyInsight()
	}

	dominant := dominantEmotions(segments)
	return &entities.ProsodyInsight{
		DominantEmotions:  dominant,
		OverallTone:       overallTone(dominant),
		EmotionalArc:      emotionalArc(segments),
		HesitationMarkers: hesitationMarkers(segments),
	}
}

// dominantEmotions returns the top emotions by mean score across all
// segments, capped and rounded to two decimals.
func dominantEmotions(segments []segmentPrediction) []entities.EmotionScore {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string

	for _, seg := range segments {
		for _, e := range seg.Emotions {
			if e.Name == "" {
				continue
			}
			if _, seen := counts[e.Name]; !seen {
				order = append(order, e.Name)
			}
			sums[e.Name] += e.Score
			counts[e.Name]++
		}
	}

	scores := make([]entities.EmotionScore, 0, len(order))
	for _, name := range order {
		scores = append(scores, entities.EmotionScore{
			Emotion:   name,
			Intensity: round2(sums[name] / float64(counts[name])),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Intensity > scores[j].Intensity
	})
	if len(scores) > maxDominantEmotions {
		scores = scores[:maxDominantEmotions]
	}
	return scores
}

// hesitationMarkers collects uncertainty signals (confusion, doubt, anxiety)
// above the threshold, in recording order, capped to the first few found.
// Segments without timestamps fall back to their index.
func hesitationMarkers(segments []segmentPrediction) []entities.HesitationMarker {
	markers := []entities.HesitationMarker{}
	for i, seg := range segments {
		for _, e := range seg.Emotions {
			if !hesitationEmotions[e.Name] || e.Score <= hesitationThreshold {
				continue
			}
			at := float64(i)
			if seg.Time != nil {
				at = seg.Time.Begin
			}
			markers = append(markers, entities.HesitationMarker{
				Time:      at,
				Emotion:   e.Name,
				Intensity: round2(e.Score),
			})
			if len(markers) == maxHesitationMarkers {
				return markers
			}
		}
	}
	return markers
}

// overallTone classifies the recording from the dominant emotions: positive
// or negative wins by a 0.2 margin, both sides above 0.3 without a winner is
// mixed, anything else is neutral.
func overallTone(dominant []entities.EmotionScore) entities.Tone {
	var posScore, negScore float64
	for _, e := range dominant {
		if positiveEmotions[e.Emotion] {
			posScore += e.Intensity
		}
		if negativeEmotions[e.Emotion] {
			negScore += e.Intensity
		}
	}

	switch {
	case posScore > negScore+toneMargin:
		return entities.TonePositive
	case negScore > posScore+toneMargin:
		return entities.ToneNegative
	case posScore > mixedFloor && negScore > mixedFloor:
		return entities.ToneMixed
	default:
		return entities.ToneNeutral
	}
}

// emotionalArc describes how the strongest emotion shifts between the start
// and the end of the recording.
func emotionalArc(segments []segmentPrediction) string {
	opening := strongestEmotion(segments[:(len(segments)+1)/2])
	closing := strongestEmotion(segments[len(segments)/2:])
	if opening == "" || closing == "" {
		return ""
	}
	if opening == closing {
		return fmt.Sprintf("steady %s throughout", strings.ToLower(opening))
	}
	return fmt.Sprintf("opens with %s, settles into %s", strings.ToLower(opening), strings.ToLower(closing))
}

func strongestEmotion(segments []segmentPrediction) string {
	var name string
	best := math.Inf(-1)
	for _, seg := range segments {
		for _, e := range seg.Emotions {
			if e.Name != "" && e.Score > best {
				best = e.Score
				name = e.Name
			}
		}
	}
	return name
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
