package channelextractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"channel-extractor/agents/channel-extractor/youtube"
	"channel-extractor/internal/models"
)

// Options tune a single extraction.
type Options struct {
	// FetchDelay is the pause after one detail fetch ends and before the
	// next one starts.
	FetchDelay time.Duration
}

// ExtractMetrics counts what happened during one extraction.
type ExtractMetrics struct {
	Found     int
	Selected  int
	Extracted int
	Skipped   int
	SearchErr error
}

// Extractor turns a channel query into normalized video records. Detail
// fetches are issued one at a time.
type Extractor struct {
	service youtube.Service
	opts    Options
	logger  *slog.Logger
}

func NewExtractor(service youtube.Service, opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{service: service, opts: opts, logger: logger}
}

// Extract returns the records of up to maxVideos videos found for query, in
// search order. Failures are logged and never returned; a failed search
// yields an empty result and a failed video is left out.
func (e *Extractor) Extract(ctx context.Context, query string, maxVideos int) []models.VideoRecord {
	records, _ := e.ExtractWithMetrics(ctx, query, maxVideos)
	return records
}

// ExtractWithMetrics is Extract plus counters for the run monitor.
func (e *Extractor) ExtractWithMetrics(ctx context.Context, query string, maxVideos int) ([]models.VideoRecord, ExtractMetrics) {
	var metrics ExtractMetrics
	records := []models.VideoRecord{}

	e.logger.Info("searching for videos", slog.String("query", query))
	hits, err := e.service.Search(ctx, query)
	if err != nil {
		metrics.SearchErr = fmt.Errorf("%w: %w", models.ErrSearchFailed, err)
		e.logger.Error("video search failed", slog.String("query", query), slog.Any("err", err))
		return records, metrics
	}
	metrics.Found = len(hits)
	if len(hits) == 0 {
		metrics.SearchErr = youtube.ErrNoResults
		e.logger.Warn("no videos found", slog.String("query", query))
		return records, metrics
	}

	selected := hits[:max(0, min(maxVideos, len(hits)))]
	metrics.Selected = len(selected)
	e.logger.Info("found videos",
		slog.Int("found", len(hits)),
		slog.Int("processing", len(selected)))

	for i, hit := range selected {
		if err := ctx.Err(); err != nil {
			e.interrupted(&metrics, i, len(selected), err)
			break
		}

		e.logger.Info("processing video",
			slog.Int("index", i+1),
			slog.Int("total", len(selected)),
			slog.String("title", hit.Title))

		record, err := e.fetchRecord(ctx, hit)
		if err != nil {
			metrics.Skipped++
			e.logger.Warn("skipping video",
				slog.String("video_id", hit.VideoID),
				slog.String("title", hit.Title),
				slog.Bool("parse_error", errors.Is(err, models.ErrParse)),
				slog.Any("err", err))
		} else {
			records = append(records, record)
			metrics.Extracted++
		}

		if i < len(selected)-1 {
			if err := pause(ctx, e.opts.FetchDelay); err != nil {
				e.interrupted(&metrics, i+1, len(selected), err)
				break
			}
		}
	}

	e.logger.Info("extraction finished",
		slog.Int("extracted", metrics.Extracted),
		slog.Int("skipped", metrics.Skipped))

	return records, metrics
}

func (e *Extractor) interrupted(metrics *ExtractMetrics, processed, selected int, err error) {
	e.logger.Warn("extraction interrupted",
		slog.Int("processed", processed),
		slog.Int("selected", selected),
		slog.Any("err", err))
	metrics.Skipped += selected - processed
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Extractor) fetchRecord(ctx context.Context, hit youtube.SearchHit) (models.VideoRecord, error) {
	details, err := e.service.VideoDetails(ctx, hit)
	if err != nil {
		return models.VideoRecord{}, &models.FetchError{VideoID: hit.VideoID, Title: hit.Title, Err: err}
	}

	record, err := youtube.Normalize(hit, details)
	if err != nil {
		return models.VideoRecord{}, &models.FetchError{VideoID: hit.VideoID, Title: hit.Title, Err: err}
	}
	return record, nil
}
