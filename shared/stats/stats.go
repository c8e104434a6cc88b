// Package stats aggregates, filters and orders extracted video records.
package stats

import (
	"math"
	"slices"
	"strings"
	"time"

	"channel-extractor/internal/models"

	"github.com/araddon/dateparse"
)

// SortField selects the record attribute used by Sort.
type SortField string

const (
	SortByViews       SortField = "views"
	SortByDuration    SortField = "duration"
	SortByPublishDate SortField = "publishDate"
)

// ParseSortField maps a user supplied name to a SortField. Unknown names
// fall back to SortByViews.
func ParseSortField(name string) SortField {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "duration":
		return SortByDuration
	case "publishdate", "publish_date", "date":
		return SortByPublishDate
	default:
		return SortByViews
	}
}

// Compute returns aggregate statistics for records. It reports false for an
// empty input, in which case there is nothing to report.
//
// AverageViews is rounded half away from zero.
func Compute(records []models.VideoRecord) (models.Stats, bool) {
	if len(records) == 0 {
		return models.Stats{}, false
	}

	var s models.Stats
	for _, r := range records {
		s.TotalViews += r.Views
		s.TotalDurationSeconds += r.DurationSeconds
	}
	s.VideoCount = len(records)
	s.AverageViews = int64(math.Round(float64(s.TotalViews) / float64(len(records))))
	s.Channel = records[0].ChannelName

	return s, true
}

// FilterByViews returns the records with at least minViews views, in input order.
func FilterByViews(records []models.VideoRecord, minViews int64) []models.VideoRecord {
	out := make([]models.VideoRecord, 0, len(records))
	for _, r := range records {
		if r.Views >= minViews {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a stably sorted copy of records. Records with equal keys keep
// their relative input order in both directions. Publish dates that cannot be
// parsed order before every parsed date.
func Sort(records []models.VideoRecord, field SortField, descending bool) []models.VideoRecord {
	out := slices.Clone(records)

	var cmp func(a, b models.VideoRecord) int
	switch field {
	case SortByDuration:
		cmp = func(a, b models.VideoRecord) int { return compareInt(a.DurationSeconds, b.DurationSeconds) }
	case SortByPublishDate:
		keys := make(map[string]dateKey, len(out))
		for _, r := range out {
			if _, ok := keys[r.PublishDate]; !ok {
				keys[r.PublishDate] = parseDate(r.PublishDate)
			}
		}
		cmp = func(a, b models.VideoRecord) int { return keys[a.PublishDate].compare(keys[b.PublishDate]) }
	default:
		cmp = func(a, b models.VideoRecord) int { return compareInt(a.Views, b.Views) }
	}

	if descending {
		slices.SortStableFunc(out, func(a, b models.VideoRecord) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

type dateKey struct {
	valid bool
	t     time.Time
}

func (k dateKey) compare(o dateKey) int {
	switch {
	case !k.valid && !o.valid:
		return 0
	case !k.valid:
		return -1
	case !o.valid:
		return 1
	}
	return k.t.Compare(o.t)
}

func parseDate(s string) dateKey {
	s = strings.TrimSpace(s)
	if s == "" {
		return dateKey{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return dateKey{}
	}
	return dateKey{valid: true, t: t}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
