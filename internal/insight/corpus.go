package insight

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var blankLine = regexp.MustCompile(`\n\s*\n`)

// DefaultGuidelines is the brand guideline text used when no file is
// configured.
const DefaultGuidelines = `Voice: warm, curious and confident. We talk to our audience like a friend who happens to know the data, never like a lecturer.

Lead with the finding. Every claim is backed by a number from our own analysis, stated plainly and without hype.

Keep it short. Headlines stay under twelve words; insights fit in two sentences.

Celebrate creators. Credit the community whose videos and comments produced the data.

Tone for PR hooks: intriguing but honest. Tease the surprise, never overpromise, and avoid clickbait phrases such as "you won't believe".

Avoid jargon. Say "people loved it" rather than "positive sentiment uplift".

Stay inclusive. No stereotypes about audiences, regions or age groups, and no language that shames any kind of content.

When results are weak or mixed, say so. Credibility matters more than a bold claim.`

// SplitChunks splits guideline text on blank lines into trimmed, non-empty
// chunks.
func SplitChunks(text string) []string {
	parts := blankLine.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1)

	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks
}

// LoadGuidelines reads the guideline file at path, or returns
// DefaultGuidelines when path is empty.
func LoadGuidelines(path string) (string, error) {
	if path == "" {
		return DefaultGuidelines, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read guidelines %s: %w", path, err)
	}
	return string(data), nil
}
