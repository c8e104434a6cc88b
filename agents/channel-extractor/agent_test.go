package channelextractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"channel-extractor/internal/models"
	"channel-extractor/shared/config"
	"channel-extractor/shared/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvents struct {
	successes []string
	partials  []error
	criticals []error
}

func (r *recordedEvents) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess: func(m scheduler.Metrics, _ time.Duration) {
			r.successes = append(r.successes, m.GetSummary())
		},
		OnPartialFailure: func(err error, _ time.Duration) {
			r.partials = append(r.partials, err)
		},
		OnCriticalFailure: func(err error, _ time.Duration) {
			r.criticals = append(r.criticals, err)
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Channel = "@test.channel"
	cfg.MaxVideos = 5
	cfg.FetchDelay = 0
	cfg.Export.Dir = t.TempDir()
	return cfg
}

func newTestAgent(t *testing.T, cfg *config.Config, svc *fakeService) (*ChannelAgent, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	agent := NewChannelAgent(cfg, quietLogger(), WithService(svc), WithOutput(&out))
	require.NoError(t, agent.Initialize())
	return agent, &out
}

func TestChannelAgentName(t *testing.T) {
	agent := NewChannelAgent(&config.Config{}, nil)
	if name := agent.Name(); name != "Channel Extractor" {
		t.Errorf("Agent.Name() = %s, want Channel Extractor", name)
	}
}

func TestExtractorMetricsGetSummary(t *testing.T) {
	m := ExtractorMetrics{Channel: "@x", VideosFound: 10, Extracted: 8, Skipped: 2, Exported: 1}
	assert.Equal(t, "@x: found 10 videos, extracted 8, skipped 2, wrote 1 files", m.GetSummary())
}

func TestRunOnceWritesReportAndExport(t *testing.T) {
	cfg := testConfig(t)
	svc := newFakeService(4)
	agent, out := newTestAgent(t, cfg, svc)
	rec := &recordedEvents{}

	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	report := out.String()
	assert.Contains(t, report, "📹 Total videos processed: 4")
	assert.Contains(t, report, "👀 Total views: 4,000")
	assert.Contains(t, report, "📈 Average views per video: 1,000")
	assert.Contains(t, report, "⏱️  Total duration: 4:04")
	assert.Contains(t, report, "📺 Channel: Test Channel")
	assert.Contains(t, report, "📝 SAMPLE VIDEOS:")
	assert.Contains(t, report, "✅ Extraction completed successfully!")
	assert.Equal(t, 3, strings.Count(report, "🔗 URL:"), "sample lists the first three")

	data, err := os.ReadFile(filepath.Join(cfg.Export.Dir, "_test_channel_videos.json"))
	require.NoError(t, err)
	var exported []models.VideoRecord
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Len(t, exported, 4)

	_, err = os.Stat(filepath.Join(cfg.Export.Dir, "_test_channel_videos.csv"))
	assert.True(t, os.IsNotExist(err), "CSV is off by default")

	assert.Len(t, rec.successes, 1)
	assert.Empty(t, rec.partials)
	assert.Empty(t, rec.criticals)
}

func readExportIDs(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Export.Dir, "_test_channel_videos.json"))
	require.NoError(t, err)
	var exported []models.VideoRecord
	require.NoError(t, json.Unmarshal(data, &exported))
	return videoIDs(exported)
}

func TestRunOnceKeepsSearchOrderByDefault(t *testing.T) {
	cfg := testConfig(t)
	svc := newFakeService(3)
	svc.views = map[string]string{"vid00000001": "10", "vid00000002": "30", "vid00000003": "20"}
	agent, out := newTestAgent(t, cfg, svc)

	require.NoError(t, agent.RunOnce(context.Background(), nil))

	assert.Equal(t, []string{"vid00000001", "vid00000002", "vid00000003"}, readExportIDs(t, cfg))
	report := out.String()
	assert.Less(t, strings.Index(report, "1. Video 1"), strings.Index(report, "2. Video 2"))
	assert.NotContains(t, report, "1. Video 2")
}

func TestRunOnceSortsWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Report.SortBy = "views"
	svc := newFakeService(3)
	svc.views = map[string]string{"vid00000001": "10", "vid00000002": "30", "vid00000003": "20"}
	agent, out := newTestAgent(t, cfg, svc)

	require.NoError(t, agent.RunOnce(context.Background(), nil))

	assert.Equal(t, []string{"vid00000002", "vid00000003", "vid00000001"}, readExportIDs(t, cfg))
	assert.Contains(t, out.String(), "1. Video 2")

	cfg.Report.Ascending = true
	require.NoError(t, agent.RunOnce(context.Background(), nil))
	assert.Equal(t, []string{"vid00000001", "vid00000003", "vid00000002"}, readExportIDs(t, cfg))
}

func TestRunOnceCSVAndFilter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.CSV = true
	cfg.Report.MinViews = 2000
	agent, out := newTestAgent(t, cfg, newFakeService(2))

	require.NoError(t, agent.RunOnce(context.Background(), nil))

	csv, err := os.ReadFile(filepath.Join(cfg.Export.Dir, "_test_channel_videos.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Title,Views,Duration,Publish Date,URL,Video ID,Channel Name", string(csv))

	// Statistics cover every extracted video, the filter only shapes the export.
	assert.Contains(t, out.String(), "📹 Total videos processed: 2")
}

func TestRunOnceReportsSkippedVideos(t *testing.T) {
	cfg := testConfig(t)
	svc := newFakeService(5)
	svc.failIDs["vid00000002"] = true
	svc.failIDs["vid00000004"] = true
	agent, _ := newTestAgent(t, cfg, svc)
	rec := &recordedEvents{}

	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	require.Len(t, rec.partials, 1)
	assert.ErrorIs(t, rec.partials[0], models.ErrDetailFetch)
	assert.Contains(t, rec.partials[0].Error(), "skipped 2 of 5")
	require.Len(t, rec.successes, 1)
	assert.Contains(t, rec.successes[0], "extracted 3")
}

func TestRunOnceExportFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Dir = filepath.Join(t.TempDir(), "missing", "dir")
	cfg.Export.CSV = true
	agent, out := newTestAgent(t, cfg, newFakeService(2))
	rec := &recordedEvents{}

	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	assert.Equal(t, 2, strings.Count(out.String(), "❌ Error saving file"))
	assert.Contains(t, out.String(), "📝 SAMPLE VIDEOS:")
	require.Len(t, rec.partials, 1)
	assert.ErrorIs(t, rec.partials[0], models.ErrExport)
}

func TestRunOnceNoVideos(t *testing.T) {
	cfg := testConfig(t)
	agent, out := newTestAgent(t, cfg, newFakeService(0))
	rec := &recordedEvents{}

	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	assert.Contains(t, out.String(), "No videos were extracted")
	assert.NotContains(t, out.String(), "CHANNEL STATISTICS")
	assert.Len(t, rec.successes, 1)
	assert.Empty(t, rec.criticals)

	entries, err := os.ReadDir(cfg.Export.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is exported for an empty run")
}

func TestRunOnceSearchFailureIsCritical(t *testing.T) {
	cfg := testConfig(t)
	svc := newFakeService(2)
	svc.searchErr = errors.New("quota exceeded")
	agent, _ := newTestAgent(t, cfg, svc)
	rec := &recordedEvents{}

	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	require.Len(t, rec.criticals, 1)
	assert.ErrorIs(t, rec.criticals[0], models.ErrSearchFailed)
	assert.Empty(t, rec.successes)
}

func TestInitializePicksInnertubeWithoutCredentials(t *testing.T) {
	cfg := testConfig(t)
	agent := NewChannelAgent(cfg, quietLogger())

	require.NoError(t, agent.Initialize())
	assert.NotNil(t, agent.service)
}
