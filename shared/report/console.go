// Package report prints extraction results to the console.
package report

import (
	"fmt"
	"io"

	"channel-extractor/internal/models"
	"channel-extractor/shared/format"
	"channel-extractor/shared/stats"
)

// PrintStats writes the channel statistics block. Nothing is written for an
// empty record sequence.
func PrintStats(w io.Writer, videos []models.VideoRecord) error {
	s, ok := stats.Compute(videos)
	if !ok {
		return nil
	}

	total, err := format.Duration(s.TotalDurationSeconds)
	if err != nil {
		return fmt.Errorf("format total duration: %w", err)
	}

	fmt.Fprintf(w, "\n📊 CHANNEL STATISTICS:\n")
	fmt.Fprintf(w, "📹 Total videos processed: %d\n", s.VideoCount)
	fmt.Fprintf(w, "👀 Total views: %s\n", format.Number(s.TotalViews))
	fmt.Fprintf(w, "📈 Average views per video: %s\n", format.Number(s.AverageViews))
	fmt.Fprintf(w, "⏱️  Total duration: %s\n", total)
	fmt.Fprintf(w, "📺 Channel: %s\n", s.Channel)
	return nil
}

// PrintSample lists up to n videos with their views, duration and URL.
func PrintSample(w io.Writer, videos []models.VideoRecord, n int) {
	if n <= 0 || len(videos) == 0 {
		return
	}
	if n > len(videos) {
		n = len(videos)
	}

	fmt.Fprintf(w, "\n📝 SAMPLE VIDEOS:\n")
	for i, v := range videos[:n] {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, v.Title)
		fmt.Fprintf(w, "   👀 Views: %s\n", format.Number(v.Views))
		fmt.Fprintf(w, "   ⏱️  Duration: %s\n", v.Duration)
		fmt.Fprintf(w, "   🔗 URL: %s\n", v.URL)
	}
}
