package models

// VideoRecord is the normalized metadata of one extracted video.
// Duration is always derived from DurationSeconds.
type VideoRecord struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Duration        string   `json:"duration"`
	DurationSeconds int64    `json:"durationSeconds"`
	Views           int64    `json:"views"`
	PublishDate     string   `json:"publishDate,omitempty"`
	URL             string   `json:"url"`
	VideoID         string   `json:"videoId"`
	Thumbnail       string   `json:"thumbnail"`
	ChannelName     string   `json:"channelName"`
	ChannelURL      string   `json:"channelUrl"`
	Keywords        []string `json:"keywords"`
	Category        string   `json:"category"`
}

// Stats holds aggregate numbers over a sequence of records.
type Stats struct {
	VideoCount           int    `json:"video_count"`
	TotalViews           int64  `json:"total_views"`
	AverageViews         int64  `json:"average_views"`
	TotalDurationSeconds int64  `json:"total_duration_seconds"`
	Channel              string `json:"channel"`
}
