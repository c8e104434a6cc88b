// Package storage writes extracted video records to disk.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"channel-extractor/internal/models"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// csvHeader is the fixed header row of the CSV export.
var csvHeader = []string{"Title", "Views", "Duration", "Publish Date", "URL", "Video ID", "Channel Name"}

// SanitizeChannel replaces every character outside [A-Za-z0-9] with an underscore.
func SanitizeChannel(channel string) string {
	return unsafeChars.ReplaceAllString(channel, "_")
}

// Exporter writes record sequences as JSON and CSV files named after a channel.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

// NewExporter creates an exporter writing into dir. An empty dir means the
// current working directory.
func NewExporter(dir string, logger *slog.Logger) *Exporter {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{dir: dir, logger: logger}
}

// JSONPath returns the path of the JSON export for channel.
func (e *Exporter) JSONPath(channel string) string {
	return filepath.Join(e.dir, SanitizeChannel(channel)+"_videos.json")
}

// CSVPath returns the path of the CSV export for channel.
func (e *Exporter) CSVPath(channel string) string {
	return filepath.Join(e.dir, SanitizeChannel(channel)+"_videos.csv")
}

// SaveJSON writes videos as an indented JSON array, replacing any earlier export.
func (e *Exporter) SaveJSON(videos []models.VideoRecord, channel string) (string, error) {
	path := e.JSONPath(channel)

	if videos == nil {
		videos = []models.VideoRecord{}
	}
	data, err := encodeJSON(videos)
	if err != nil {
		return path, &models.ExportError{Path: path, Err: fmt.Errorf("marshal videos: %w", err)}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return path, &models.ExportError{Path: path, Err: err}
	}

	e.logger.Info("results saved", slog.String("file", path), slog.Int("videos", len(videos)))
	return path, nil
}

// encodeJSON indents with two spaces and leaves <, > and & unescaped.
func encodeJSON(videos []models.VideoRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(videos); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// SaveCSV writes videos as CSV, replacing any earlier export.
func (e *Exporter) SaveCSV(videos []models.VideoRecord, channel string) (string, error) {
	path := e.CSVPath(channel)

	if err := os.WriteFile(path, []byte(EncodeCSV(videos)), 0644); err != nil {
		return path, &models.ExportError{Path: path, Err: err}
	}

	e.logger.Info("CSV file saved", slog.String("file", path), slog.Int("videos", len(videos)))
	return path, nil
}

// EncodeCSV renders the CSV export. Title and channel name are always quoted
// with embedded quotes doubled; numeric, date and URL columns are written as is.
func EncodeCSV(videos []models.VideoRecord) string {
	lines := make([]string, 0, len(videos)+1)
	lines = append(lines, strings.Join(csvHeader, ","))

	for _, v := range videos {
		lines = append(lines, strings.Join([]string{
			quote(v.Title),
			strconv.FormatInt(v.Views, 10),
			v.Duration,
			v.PublishDate,
			v.URL,
			v.VideoID,
			quote(v.ChannelName),
		}, ","))
	}

	return strings.Join(lines, "\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
