package domain

// Engagement fields read from VideoRecord metadata.
const (
	FieldLikes    = "likes"
	FieldComments = "comments"
	FieldShares   = "shares"
	FieldViews    = "views"
)

// EngagementFields lists the metadata fields used for ratio metrics.
var EngagementFields = []string{FieldLikes, FieldComments, FieldShares, FieldViews}

// VideoRecord is one scraped video.
type VideoRecord struct {
	URL      string         `json:"url"      mapstructure:"url"`
	Comments []string       `json:"comments" mapstructure:"comments"`
	Metadata map[string]any `json:"metadata" mapstructure:"metadata"`
}

// ScrapeJobConfig is the input submitted to the job-execution service.
type ScrapeJobConfig struct {
	CommentsPerPost      int      `json:"commentsPerPost"`
	ExcludePinnedPosts   bool     `json:"excludePinnedPosts"`
	MaxRepliesPerComment int      `json:"maxRepliesPerComment"`
	ResultsPerPage       int      `json:"resultsPerPage"`
	PostURLs             []string `json:"postURLs"`
}

// JobHandle identifies a submitted scrape job.
type JobHandle string
