// Package channelextractor runs channel extractions as a scheduler agent.
package channelextractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"channel-extractor/agents/channel-extractor/youtube"
	"channel-extractor/internal/models"
	"channel-extractor/shared/config"
	"channel-extractor/shared/report"
	"channel-extractor/shared/scheduler"
	"channel-extractor/shared/stats"
	"channel-extractor/shared/storage"

	"github.com/google/uuid"
)

// ExtractorMetrics summarizes one run for the monitor.
type ExtractorMetrics struct {
	Channel      string
	VideosFound  int
	Extracted    int
	Skipped      int
	Exported     int
	ExportErrors int
}

func (m ExtractorMetrics) GetSummary() string {
	return fmt.Sprintf("%s: found %d videos, extracted %d, skipped %d, wrote %d files",
		m.Channel, m.VideosFound, m.Extracted, m.Skipped, m.Exported)
}

// ChannelAgent implements the scheduler.Agent interface
type ChannelAgent struct {
	config   *config.Config
	service  youtube.Service
	exporter *storage.Exporter
	out      io.Writer
	logger   *slog.Logger
}

type Option func(*ChannelAgent)

// WithService replaces the backend picked from the configuration.
func WithService(service youtube.Service) Option {
	return func(a *ChannelAgent) { a.service = service }
}

// WithOutput sends the console report to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(a *ChannelAgent) { a.out = w }
}

func NewChannelAgent(cfg *config.Config, logger *slog.Logger, opts ...Option) *ChannelAgent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &ChannelAgent{
		config: cfg,
		out:    os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ChannelAgent) Name() string {
	return "Channel Extractor"
}

func (a *ChannelAgent) Initialize() error {
	a.logger.Info("initializing agent", slog.String("agent", a.Name()))

	if a.service == nil {
		service, err := youtube.NewService(context.Background(), &a.config.YouTube, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}
		a.service = service
		a.logger.Info("YouTube client initialized", slog.String("backend", fmt.Sprintf("%T", service)))
	}

	if a.exporter == nil {
		a.exporter = storage.NewExporter(a.config.Export.Dir, a.logger)
	}

	return nil
}

// RunOnce extracts the configured channel, prints the report and writes the
// exports. Per-video and export failures are reported as partial failures; a
// run that finds nothing still completes without error.
func (a *ChannelAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	channel := a.config.Channel
	logger := a.logger.With(slog.String("run_id", uuid.NewString()), slog.String("channel", channel))

	fmt.Fprintf(a.out, "🔍 Searching for channel: %s\n", channel)

	extractor := NewExtractor(a.service, Options{FetchDelay: a.config.FetchDelay}, logger)
	videos, extractMetrics := extractor.ExtractWithMetrics(ctx, channel, a.config.MaxVideos)

	metrics := ExtractorMetrics{
		Channel:     channel,
		VideosFound: extractMetrics.Found,
		Extracted:   extractMetrics.Extracted,
		Skipped:     extractMetrics.Skipped,
	}

	if len(videos) == 0 {
		fmt.Fprintln(a.out, "❌ No videos were extracted. Please check the channel name and try again.")
		duration := time.Since(startTime)
		if extractMetrics.SearchErr != nil && !errors.Is(extractMetrics.SearchErr, youtube.ErrNoResults) {
			events.CriticalFailure(extractMetrics.SearchErr, duration)
			return nil
		}
		events.Success(metrics, duration)
		return nil
	}

	fmt.Fprintf(a.out, "✅ Extracted %d videos\n", len(videos))
	if err := report.PrintStats(a.out, videos); err != nil {
		logger.Error("failed to print statistics", slog.Any("err", err))
	}

	view := stats.FilterByViews(videos, a.config.Report.MinViews)
	if a.config.Report.SortBy != "" {
		view = stats.Sort(view, stats.ParseSortField(a.config.Report.SortBy), !a.config.Report.Ascending)
	}

	var exportErrs []error
	if a.config.Export.JSONEnabled() {
		if path, err := a.exporter.SaveJSON(view, channel); err != nil {
			exportErrs = append(exportErrs, err)
		} else {
			fmt.Fprintf(a.out, "💾 Results saved to: %s\n", path)
			metrics.Exported++
		}
	}
	if a.config.Export.CSV {
		if path, err := a.exporter.SaveCSV(view, channel); err != nil {
			exportErrs = append(exportErrs, err)
		} else {
			fmt.Fprintf(a.out, "💾 CSV file saved to: %s\n", path)
			metrics.Exported++
		}
	}
	for _, err := range exportErrs {
		metrics.ExportErrors++
		fmt.Fprintf(a.out, "❌ Error saving file: %v\n", err)
		logger.Error("export failed", slog.Any("err", err))
	}

	report.PrintSample(a.out, view, a.config.Report.SampleSize)
	fmt.Fprintln(a.out, "\n✅ Extraction completed successfully!")

	duration := time.Since(startTime)
	if metrics.Skipped > 0 || len(exportErrs) > 0 {
		events.PartialFailure(partialError(metrics, exportErrs), duration)
	}
	events.Success(metrics, duration)

	logger.Info("run complete",
		slog.Int("found", metrics.VideosFound),
		slog.Int("extracted", metrics.Extracted),
		slog.Int("skipped", metrics.Skipped),
		slog.Int("exported", metrics.Exported),
		slog.Duration("took", duration))

	return nil
}

func partialError(m ExtractorMetrics, exportErrs []error) error {
	var errs []error
	if m.Skipped > 0 {
		errs = append(errs, fmt.Errorf("%w: skipped %d of %d videos", models.ErrDetailFetch, m.Skipped, m.Skipped+m.Extracted))
	}
	return errors.Join(append(errs, exportErrs...)...)
}
