// Package correlate derives ratio metrics between combined emotion scores
// and average engagement.
package correlate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/jonesrussell/cooper/internal/domain"
)

// Correlate combines text and audio scores by averaging them (missing labels
// count as 0) and relates them to the engagement means of records.
//
// Every "{emotion}_vs_{field}" key is always present: combined/mean*100, or
// 0 when the mean is 0. Field means divide by the total record count, so a
// field absent from a record contributes 0. "{emotion}_comment_ratio" keys
// are present only when the records carry at least one comment. Values are
// rounded to two decimals, ties to even. No records yields an empty map.
func Correlate(records []domain.VideoRecord, text, audio domain.EmotionScores) domain.CorrelationMap {
	result := domain.CorrelationMap{}
	if len(records) == 0 {
		return result
	}

	combined := Combine(text, audio)
	means := FieldMeans(records)

	for _, e := range domain.Emotions {
		for _, field := range domain.EngagementFields {
			key := domain.VsKey(e, field)
			if mean := means[field]; mean > 0 {
				result[key] = Round2(combined[e] / mean * 100)
			} else {
				result[key] = 0
			}
		}
	}

	totalComments := 0
	for _, r := range records {
		totalComments += len(r.Comments)
	}
	if totalComments > 0 {
		for _, e := range domain.Emotions {
			result[domain.CommentRatioKey(e)] = Round2(combined[e] * 100 / float64(totalComments))
		}
	}

	return result
}

// Combine averages two score maps label by label.
func Combine(text, audio domain.EmotionScores) domain.EmotionScores {
	combined := make(domain.EmotionScores, len(domain.Emotions))
	for _, e := range domain.Emotions {
		combined[e] = (text[e] + audio[e]) / 2
	}
	return combined
}

// FieldMeans averages each engagement field over all records.
func FieldMeans(records []domain.VideoRecord) map[string]float64 {
	means := make(map[string]float64, len(domain.EngagementFields))
	if len(records) == 0 {
		return means
	}

	for _, field := range domain.EngagementFields {
		sum := 0.0
		for _, r := range records {
			if v, ok := r.Metadata[field]; ok {
				sum += ToFloat(v)
			}
		}
		means[field] = sum / float64(len(records))
	}
	return means
}

// ToFloat reads a metadata value as a number. Non-numeric values, including
// NaN and infinities, are 0.
func ToFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Round2 rounds to two decimals, ties to even.
func Round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
