package analyze_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/cmd/analyze"
	"github.com/jonesrussell/cooper/internal/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		RunID:  "run-1",
		Videos: []string{"https://www.tiktok.com/cooking/video1"},
		Emotions: domain.EmotionPair{
			Text:  domain.EmotionScores{domain.Joy: 0.8, domain.Neutral: 0.2},
			Audio: domain.NeutralScores(),
		},
		Correlations: domain.CorrelationMap{"joy_vs_likes": 0.27, "joy_comment_ratio": 20},
		Insights:     []string{"Joy drives likes"},
		PRHooks:      []string{"Why joyful cooking wins"},
	}
}

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, analyze.Render(&buf, sampleReport(), analyze.FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Contains(t, decoded, "pr_hooks")
	assert.Contains(t, decoded, "correlations")
}

func TestRender_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, analyze.Render(&buf, sampleReport(), analyze.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Run run-1: 1 videos")
	assert.Contains(t, out, "joy_vs_likes")
	assert.Contains(t, out, "0.27")
	assert.Contains(t, out, "Joy drives likes")
	assert.Contains(t, out, "Why joyful cooking wins")
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()

	require.Error(t, analyze.Render(&bytes.Buffer{}, sampleReport(), "yaml"))
}
