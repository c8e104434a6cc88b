// Package format renders durations and counts for reports and exports.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"channel-extractor/internal/models"

	"github.com/dustin/go-humanize"
)

// Duration renders seconds as H:MM:SS when there is at least one hour,
// otherwise as M:SS. Negative input returns models.ErrInvalidInput.
func Duration(seconds int64) (string, error) {
	if seconds < 0 {
		return "", fmt.Errorf("duration %d: %w", seconds, models.ErrInvalidInput)
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs), nil
	}
	return fmt.Sprintf("%d:%02d", minutes, secs), nil
}

// DurationText is Duration for a count of seconds supplied as text.
func DurationText(seconds string) (string, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(seconds), 10, 64)
	if err != nil {
		return "", fmt.Errorf("duration %q: %w", seconds, models.ErrInvalidInput)
	}
	return Duration(n)
}

// ParseDuration converts text produced by Duration back into seconds.
func ParseDuration(text string) (int64, error) {
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("duration %q: %w", text, models.ErrInvalidInput)
	}

	var total int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration %q: %w", text, models.ErrInvalidInput)
		}
		// minutes and seconds fields after the leading one are bounded
		if i > 0 && n > 59 {
			return 0, fmt.Errorf("duration %q: %w", text, models.ErrInvalidInput)
		}
		total = total*60 + n
	}
	return total, nil
}

// Number groups digits in threes with commas, independent of the runtime locale.
func Number(n int64) string {
	return humanize.Comma(n)
}
