package locator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/internal/locator"
)

func TestLocate_KnownTopics(t *testing.T) {
	t.Parallel()

	l := locator.New()

	for _, topic := range []string{"cooking", "fitness"} {
		urls := l.Locate(topic, "")
		require.Len(t, urls, 10, topic)
		assert.Equal(t, "https://www.tiktok.com/"+topic+"/video1", urls[0])
		assert.Equal(t, "https://www.tiktok.com/"+topic+"/video10", urls[9])
	}
}

func TestLocate_UnknownTopic(t *testing.T) {
	t.Parallel()

	l := locator.New()

	for _, topic := range []string{"no_such_topic", "", "Cooking"} {
		urls := l.Locate(topic, "")
		assert.NotNil(t, urls)
		assert.Empty(t, urls, topic)
	}
}

func TestLocate_ReturnsCopy(t *testing.T) {
	t.Parallel()

	l := locator.New()
	urls := l.Locate("cooking", "")
	urls[0] = "mutated"

	assert.Equal(t, "https://www.tiktok.com/cooking/video1", l.Locate("cooking", "")[0])
}

func TestLocate_DirectURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{"www video", "https://www.tiktok.com/@chef/video/7234567890123456789", true},
		{"short link", "https://vm.tiktok.com/ZMabc123/", true},
		{"plain http", "http://www.tiktok.com/cooking/video1", true},
		{"bare host", "https://www.tiktok.com", true},
		{"other host", "https://www.youtube.com/watch", false},
		{"subdomain spoof", "https://www.tiktok.com.evil.com/x", false},
		{"missing www", "https://tiktok.com/@chef", false},
		{"query string", "https://www.tiktok.com/@chef?lang=en", false},
		{"bad scheme", "ftp://www.tiktok.com/@chef", false},
		{"space in path", "https://www.tiktok.com/a b", false},
		{"not a url", "cooking", false},
	}

	l := locator.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := l.Locate("cooking", tt.url)
			if tt.valid {
				assert.Equal(t, []string{tt.url}, got)
			} else {
				assert.Equal(t, []string{}, got)
			}
		})
	}
}

func TestTopics(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"cooking", "fitness"}, locator.New().Topics())
}
