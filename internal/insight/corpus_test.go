package insight_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/internal/insight"
)

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	text := "First rule.\n\n  Second rule,\nstill second.  \n \t\nThird.\r\n\r\n\n\n"
	assert.Equal(t, []string{"First rule.", "Second rule,\nstill second.", "Third."}, insight.SplitChunks(text))
	assert.Empty(t, insight.SplitChunks("  \n\n  "))
}

func TestLoadGuidelines(t *testing.T) {
	t.Parallel()

	text, err := insight.LoadGuidelines("")
	require.NoError(t, err)
	assert.Equal(t, insight.DefaultGuidelines, text)
	assert.GreaterOrEqual(t, len(insight.SplitChunks(text)), 3)

	path := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("Be kind.\n\nBe brief."), 0o600))
	text, err = insight.LoadGuidelines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Be kind.", "Be brief."}, insight.SplitChunks(text))

	_, err = insight.LoadGuidelines(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestFirstChunks(t *testing.T) {
	t.Parallel()

	chunks := insight.FirstChunks{"a", "b", "c", "d"}

	got, err := chunks.Retrieve(context.Background(), "ignored", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, _ = chunks.Retrieve(context.Background(), "ignored", 10)
	assert.Len(t, got, 4)

	got, _ = insight.FirstChunks(nil).Retrieve(context.Background(), "", 3)
	assert.Empty(t, got)
}
