package domain

import "sort"

// CorrelationMap holds the ratio metrics keyed "{emotion}_vs_{field}" and
// "{emotion}_comment_ratio".
type CorrelationMap map[string]float64

// VsKey names the ratio of an emotion to an engagement field mean.
func VsKey(e Emotion, field string) string {
	return string(e) + "_vs_" + field
}

// CommentRatioKey names the ratio of an emotion to the total comment count.
func CommentRatioKey(e Emotion) string {
	return string(e) + "_comment_ratio"
}

// Keys returns the keys in canonical order: every _vs_ key emotion by
// emotion, then the comment ratios, then anything else sorted.
func (m CorrelationMap) Keys() []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))

	add := func(k string) {
		if _, ok := m[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}

	for _, e := range Emotions {
		for _, f := range EngagementFields {
			add(VsKey(e, f))
		}
	}
	for _, e := range Emotions {
		add(CommentRatioKey(e))
	}

	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
