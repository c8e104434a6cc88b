package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in youtube.backend.
const (
	BackendAuto      = "auto"
	BackendAPI       = "api"
	BackendInnertube = "innertube"
)

type Config struct {
	Channel    string           `yaml:"channel"`
	MaxVideos  int              `yaml:"max_videos"`
	FetchDelay time.Duration    `yaml:"fetch_delay"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Export     ExportConfig     `yaml:"export"`
	Report     ReportConfig     `yaml:"report"`
	Schedule   string           `yaml:"schedule"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	LogLevel   string           `yaml:"log_level"`
}

type YouTubeConfig struct {
	Backend      string `yaml:"backend"`
	APIKey       string `yaml:"api_key"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenFile    string `yaml:"token_file"`
	Region       string `yaml:"region"`
}

type ExportConfig struct {
	Dir  string `yaml:"dir"`
	JSON *bool  `yaml:"json"`
	CSV  bool   `yaml:"csv"`
}

// JSONEnabled reports whether the JSON export is written. It defaults to true.
func (e ExportConfig) JSONEnabled() bool {
	return e.JSON == nil || *e.JSON
}

// ReportConfig shapes the exported sequence. An empty SortBy keeps the
// extraction order.
type ReportConfig struct {
	SortBy     string `yaml:"sort_by"`
	Ascending  bool   `yaml:"ascending"`
	MinViews   int64  `yaml:"min_views"`
	SampleSize int    `yaml:"sample_size"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// UsesOAuth reports whether an OAuth client is configured for the Data API.
func (y YouTubeConfig) UsesOAuth() bool {
	return y.ClientID != "" && y.ClientSecret != ""
}

// Load reads .env, the optional YAML config file and environment overrides,
// then applies defaults and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = "config.yaml"
	}

	cfg := Default()

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// the config file is optional unless named explicitly
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Channel == "" {
		c.Channel = "@MrBeast"
	}
	if c.MaxVideos == 0 {
		c.MaxVideos = 20
	}
	if c.FetchDelay == 0 {
		c.FetchDelay = 100 * time.Millisecond
	}
	if c.YouTube.Backend == "" {
		c.YouTube.Backend = BackendAuto
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.Region == "" {
		c.YouTube.Region = "US"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
	if c.Report.SampleSize == 0 {
		c.Report.SampleSize = 3
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadFromEnv() error {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}

	if v := os.Getenv("EXTRACTOR_CHANNEL"); v != "" {
		c.Channel = v
	}
	if v := os.Getenv("EXTRACTOR_MAX_VIDEOS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid EXTRACTOR_MAX_VIDEOS %q: %w", v, err)
		}
		c.MaxVideos = n
	}
	if v := os.Getenv("EXTRACTOR_FETCH_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid EXTRACTOR_FETCH_DELAY %q: %w", v, err)
		}
		c.FetchDelay = d
	}
	if v := os.Getenv("EXTRACTOR_OUTPUT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("EXTRACTOR_SCHEDULE"); v != "" {
		c.Schedule = v
	}
	if v := os.Getenv("EXTRACTOR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.MaxVideos < 0 {
		return fmt.Errorf("max_videos must be non-negative")
	}
	if c.FetchDelay < 0 {
		return fmt.Errorf("fetch_delay must be non-negative")
	}
	switch c.YouTube.Backend {
	case BackendAuto, BackendInnertube:
	case BackendAPI:
		if c.YouTube.APIKey == "" && !c.YouTube.UsesOAuth() {
			return fmt.Errorf("YouTube API backend requires an API key (set YOUTUBE_API_KEY or youtube.api_key) or an OAuth client (GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
		}
	default:
		return fmt.Errorf("unknown youtube.backend %q (use auto, api or innertube)", c.YouTube.Backend)
	}
	if c.Monitoring.HealthPort < 0 || c.Monitoring.HealthPort > 65535 {
		return fmt.Errorf("monitoring.health_port out of range: %d", c.Monitoring.HealthPort)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", name, err)
	}
	return level, nil
}
