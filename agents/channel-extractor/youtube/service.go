package youtube

import (
	"context"
	"fmt"
	"log/slog"

	"channel-extractor/shared/config"
)

// NewService picks the backend named in cfg. The "auto" backend uses the
// Data API when credentials are configured and innertube otherwise.
func NewService(ctx context.Context, cfg *config.YouTubeConfig, logger *slog.Logger) (Service, error) {
	backend := cfg.Backend
	if backend == config.BackendAuto || backend == "" {
		backend = config.BackendInnertube
		if cfg.APIKey != "" || cfg.UsesOAuth() {
			backend = config.BackendAPI
		}
	}

	switch backend {
	case config.BackendAPI:
		return NewAPIClient(ctx, cfg, logger)
	case config.BackendInnertube:
		return NewInnertubeClient(cfg.Region), nil
	default:
		return nil, fmt.Errorf("unknown YouTube backend %q", cfg.Backend)
	}
}
