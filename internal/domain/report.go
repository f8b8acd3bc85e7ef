package domain

// EmotionPair holds the text and audio classification of one run.
type EmotionPair struct {
	Text  EmotionScores `json:"text"`
	Audio EmotionScores `json:"audio"`
}

// Report is the result of one analysis run.
type Report struct {
	RunID        string         `json:"run_id"`
	Videos       []string       `json:"videos"`
	Emotions     EmotionPair    `json:"emotions"`
	Correlations CorrelationMap `json:"correlations"`
	Insights     []string       `json:"insights"`
	PRHooks      []string       `json:"pr_hooks"`
}
