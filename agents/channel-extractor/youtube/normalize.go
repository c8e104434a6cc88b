package youtube

import (
	"strconv"
	"strings"

	"channel-extractor/internal/models"
	"channel-extractor/shared/format"
)

const (
	defaultDescription = "No description"
	defaultCategory    = "Unknown"
)

// Normalize maps a search hit and its detail response onto a VideoRecord.
// A length or view count that is not a non-negative integer yields a
// *models.ParseError; the caller decides what to do with the video.
func Normalize(hit SearchHit, details *VideoDetails) (models.VideoRecord, error) {
	if details == nil {
		return models.VideoRecord{}, &models.ParseError{Field: "details", Err: models.ErrInvalidInput}
	}

	seconds, err := parseCount("lengthSeconds", details.LengthSeconds)
	if err != nil {
		return models.VideoRecord{}, err
	}
	views, err := parseCount("viewCount", details.ViewCount)
	if err != nil {
		return models.VideoRecord{}, err
	}
	duration, err := format.Duration(seconds)
	if err != nil {
		return models.VideoRecord{}, &models.ParseError{Field: "lengthSeconds", Value: details.LengthSeconds, Err: err}
	}

	record := models.VideoRecord{
		Title:           details.Title,
		Description:     details.Description,
		Duration:        duration,
		DurationSeconds: seconds,
		Views:           views,
		PublishDate:     details.PublishDate,
		URL:             hit.URL,
		VideoID:         details.VideoID,
		ChannelName:     details.Author.Name,
		ChannelURL:      details.Author.ChannelURL,
		Keywords:        details.Keywords,
		Category:        details.Category,
	}

	if record.Description == "" {
		record.Description = defaultDescription
	}
	if len(details.Thumbnails) > 0 {
		record.Thumbnail = details.Thumbnails[0].URL
	}
	if record.Keywords == nil {
		record.Keywords = []string{}
	}
	if record.Category == "" {
		record.Category = defaultCategory
	}
	if record.URL == "" && record.VideoID != "" {
		record.URL = WatchURL(record.VideoID)
	}

	return record, nil
}

func parseCount(field, raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &models.ParseError{Field: field, Value: raw, Err: err}
	}
	if n < 0 {
		return 0, &models.ParseError{Field: field, Value: raw, Err: models.ErrInvalidInput}
	}
	return n, nil
}
