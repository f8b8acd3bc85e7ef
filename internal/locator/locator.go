// Package locator resolves a topic or a direct link into candidate video URLs.
package locator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// videoURLPattern accepts http(s) links on www.tiktok.com or vm.tiktok.com
// whose path uses only letters, digits and @ _ - . /
var videoURLPattern = regexp.MustCompile(`^https?://(?:www|vm)\.tiktok\.com(?:/[A-Za-z0-9@_\-./]*)?$`)

const videosPerTopic = 10

// Locator maps topics to fixed video lists. It does no I/O.
type Locator struct {
	topics map[string][]string
}

// New returns a Locator over the built-in topic table.
func New() *Locator {
	return &Locator{topics: defaultTopics()}
}

// Locate returns [directURL] when it is a valid video link, [] when it is
// not, and otherwise the URLs registered for topic ([] for unknown topics).
func (l *Locator) Locate(topic, directURL string) []string {
	if directURL != "" {
		if !IsVideoURL(directURL) {
			return []string{}
		}
		return []string{directURL}
	}

	urls, ok := l.topics[strings.TrimSpace(topic)]
	if !ok {
		return []string{}
	}
	return append([]string(nil), urls...)
}

// Topics lists the known topics alphabetically.
func (l *Locator) Topics() []string {
	topics := make([]string, 0, len(l.topics))
	for t := range l.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// IsVideoURL reports whether u matches the video link grammar.
func IsVideoURL(u string) bool {
	return videoURLPattern.MatchString(u)
}

func defaultTopics() map[string][]string {
	topics := make(map[string][]string)
	for _, topic := range []string{"cooking", "fitness"} {
		urls := make([]string, videosPerTopic)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://www.tiktok.com/%s/video%d", topic, i+1)
		}
		topics[topic] = urls
	}
	return topics
}
