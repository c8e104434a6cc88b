package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	channelextractor "channel-extractor/agents/channel-extractor"
	"channel-extractor/shared/config"
	"channel-extractor/shared/scheduler"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code. opts are applied to the agent after the
// defaults.
func run(args []string, stdout, stderr io.Writer, opts ...channelextractor.Option) (code int) {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("unhandled fault", slog.Any("panic", r))
			code = 1
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("err", err))
		return 1
	}

	once, err := applyFlags(cfg, args, stderr)
	if err != nil {
		logger.Error("invalid arguments", slog.Any("err", err))
		return 2
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", slog.Any("err", err))
		return 1
	}
	logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agentOpts := append([]channelextractor.Option{channelextractor.WithOutput(stdout)}, opts...)
	agent := channelextractor.NewChannelAgent(cfg, logger, agentOpts...)
	s := scheduler.New(cfg, agent, logger)

	if once || cfg.Schedule == "" {
		fmt.Fprintln(stdout, "🚀 YouTube Channel Video Extractor")
		fmt.Fprintln(stdout, "=====================================")

		if err := agent.Initialize(); err != nil {
			logger.Error("failed to initialize agent", slog.Any("err", err))
			return 1
		}
		if err := s.RunOnce(ctx); err != nil {
			logger.Error("run failed", slog.Any("err", err))
			return 1
		}
		return 0
	}

	logger.Info("starting scheduler", slog.String("schedule", cfg.Schedule))
	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Error("scheduler failed", slog.Any("err", err))
		return 1
	}
	return 0
}

// applyFlags overlays command line flags on cfg. Only flags given explicitly
// override configured values. The first positional argument names the channel.
func applyFlags(cfg *config.Config, args []string, stderr io.Writer) (once bool, err error) {
	fs := flag.NewFlagSet("extractor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: extractor [flags] [channel]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	maxVideos := fs.Int("max", cfg.MaxVideos, "maximum number of videos to extract")
	csv := fs.Bool("csv", cfg.Export.CSV, "also write a CSV export")
	sortBy := fs.String("sort", cfg.Report.SortBy, "sort exported videos by views, duration or publishDate (default: search order)")
	ascending := fs.Bool("asc", cfg.Report.Ascending, "sort in ascending order")
	minViews := fs.Int64("min-views", cfg.Report.MinViews, "only export videos with at least this many views")
	outDir := fs.String("out", cfg.Export.Dir, "directory for export files")
	schedule := fs.String("schedule", cfg.Schedule, "cron schedule for repeated runs (empty runs once)")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.BoolVar(&once, "once", false, "run a single extraction even if a schedule is configured")

	if err := fs.Parse(args); err != nil {
		return false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max":
			cfg.MaxVideos = *maxVideos
		case "csv":
			cfg.Export.CSV = *csv
		case "sort":
			cfg.Report.SortBy = *sortBy
		case "asc":
			cfg.Report.Ascending = *ascending
		case "min-views":
			cfg.Report.MinViews = *minViews
		case "out":
			cfg.Export.Dir = *outDir
		case "schedule":
			cfg.Schedule = *schedule
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Channel = fs.Arg(0)
	default:
		return false, fmt.Errorf("expected at most one channel argument, got %d", fs.NArg())
	}

	if cfg.MaxVideos < 0 {
		return false, fmt.Errorf("-max must be non-negative")
	}
	return once, nil
}
