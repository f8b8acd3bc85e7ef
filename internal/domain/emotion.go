// Package domain holds the value types passed between cooper's pipeline stages.
package domain

// Emotion is one label of the closed emotion set.
type Emotion string

const (
	Joy      Emotion = "joy"
	Sadness  Emotion = "sadness"
	Anger    Emotion = "anger"
	Fear     Emotion = "fear"
	Surprise Emotion = "surprise"
	Disgust  Emotion = "disgust"
	Neutral  Emotion = "neutral"
)

// Emotions lists every label in canonical order.
var Emotions = []Emotion{Joy, Sadness, Anger, Fear, Surprise, Disgust, Neutral}

// IsEmotion reports whether s names a known label.
func IsEmotion(s string) bool {
	for _, e := range Emotions {
		if string(e) == s {
			return true
		}
	}
	return false
}

// EmotionScores maps each label to a confidence in [0, 1]. Scores are not
// required to sum to 1.
type EmotionScores map[Emotion]float64

// NeutralScores is the fallback distribution: neutral 1.0, everything else 0.
func NeutralScores() EmotionScores {
	scores := ZeroScores()
	scores[Neutral] = 1.0
	return scores
}

// ZeroScores returns every label set to 0.
func ZeroScores() EmotionScores {
	scores := make(EmotionScores, len(Emotions))
	for _, e := range Emotions {
		scores[e] = 0
	}
	return scores
}

// Clone returns a copy that can be modified independently.
func (s EmotionScores) Clone() EmotionScores {
	out := make(EmotionScores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
