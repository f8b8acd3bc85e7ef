package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/cooper/internal/domain"
)

func TestCorrelationMap_KeysCanonicalOrder(t *testing.T) {
	t.Parallel()

	m := domain.CorrelationMap{
		"zeta":                  1,
		"sadness_vs_likes":      2,
		"joy_comment_ratio":     3,
		"joy_vs_views":          4,
		"joy_vs_likes":          5,
		"neutral_comment_ratio": 6,
	}

	assert.Equal(t, []string{
		"joy_vs_likes",
		"joy_vs_views",
		"sadness_vs_likes",
		"joy_comment_ratio",
		"neutral_comment_ratio",
		"zeta",
	}, m.Keys())
}

func TestNeutralScores(t *testing.T) {
	t.Parallel()

	scores := domain.NeutralScores()

	assert.Len(t, scores, len(domain.Emotions))
	assert.InDelta(t, 1.0, scores[domain.Neutral], 0)
	assert.InDelta(t, 0.0, scores[domain.Joy], 0)
}

func TestIsEmotion(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.IsEmotion("disgust"))
	assert.False(t, domain.IsEmotion("boredom"))
}
