package emotion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/llm"
)

func sprintfPrompt(subject string) string {
	return fmt.Sprintf(systemPrompt, subject)
}

// ParseScores validates a model reply. Every label must be present with a
// number or numeric string; values are clamped to [0, 1] and unknown labels
// are dropped.
func ParseScores(reply string) (domain.EmotionScores, error) {
	var raw map[string]json.RawMessage
	if err := llm.DecodeJSON(reply, &raw); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}

	scores := make(domain.EmotionScores, len(domain.Emotions))
	for _, e := range domain.Emotions {
		value, ok := raw[string(e)]
		if !ok {
			return nil, fmt.Errorf("missing label %q", e)
		}

		v, err := parseScore(value)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", e, err)
		}
		scores[e] = clamp01(v)
	}
	return scores, nil
}

func parseScore(value json.RawMessage) (float64, error) {
	if string(bytes.TrimSpace(value)) == "null" {
		return 0, errors.New("null score")
	}

	var n float64
	if err := json.Unmarshal(value, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", value)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return n, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
