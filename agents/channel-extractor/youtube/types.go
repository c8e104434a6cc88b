// Package youtube searches YouTube for a channel's videos and fetches their
// detail metadata, through either the Data API or the keyless innertube API.
package youtube

import (
	"context"
	"errors"
)

var (
	ErrNoResults = errors.New("youtube: no videos found")
	ErrNotFound  = errors.New("youtube: video not found")
)

// SearchHit is one video returned by a channel search.
type SearchHit struct {
	URL     string
	Title   string
	VideoID string
}

// Thumbnail is one thumbnail entry of a detail response.
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// Author identifies the channel that published a video.
type Author struct {
	Name       string
	ChannelURL string
}

// VideoDetails is the raw detail response for a single video. Numeric fields
// are kept as text exactly as the service returned them.
type VideoDetails struct {
	Title         string
	Description   string
	LengthSeconds string
	ViewCount     string
	PublishDate   string
	VideoID       string
	Thumbnails    []Thumbnail
	Author        Author
	Keywords      []string
	Category      string
}

// Searcher finds candidate videos for a channel query, in relevance order.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// DetailFetcher retrieves the detail metadata for one search hit.
type DetailFetcher interface {
	VideoDetails(ctx context.Context, hit SearchHit) (*VideoDetails, error)
}

// Service combines search and detail retrieval.
type Service interface {
	Searcher
	DetailFetcher
}

const watchURLPrefix = "https://www.youtube.com/watch?v="

// WatchURL returns the canonical watch URL of a video.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// ChannelURL returns the canonical URL of a channel id.
func ChannelURL(channelID string) string {
	if channelID == "" {
		return ""
	}
	return "https://www.youtube.com/channel/" + channelID
}
