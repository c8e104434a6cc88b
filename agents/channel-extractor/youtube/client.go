package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"channel-extractor/shared/config"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// searchPageSize is the single page requested from search.list; there is no
// pagination beyond it.
const searchPageSize = 50

var (
	channelIDPattern  = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)
	channelURLPattern = regexp.MustCompile(`youtube\.com/channel/(UC[0-9A-Za-z_-]{22})`)
	handleURLPattern  = regexp.MustCompile(`youtube\.com/(@[^/?#]+)`)
	isoDurationRegex  = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)
)

// APIClient implements Service on top of the YouTube Data API v3.
type APIClient struct {
	service *youtube.Service
	region  string
	logger  *slog.Logger

	categoriesMu sync.Mutex
	categories   map[string]string
}

// NewAPIClient creates a Data API client. An API key is used when configured,
// otherwise the OAuth device flow with a persisted, auto-refreshing token.
func NewAPIClient(ctx context.Context, cfg *config.YouTubeConfig, logger *slog.Logger) (*APIClient, error) {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.UsesOAuth():
		httpClient, err := newOAuthHTTPClient(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to get OAuth token: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	default:
		return nil, fmt.Errorf("no YouTube credentials configured")
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return newAPIClient(service, cfg.Region, logger), nil
}

func newAPIClient(service *youtube.Service, region string, logger *slog.Logger) *APIClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIClient{service: service, region: region, logger: logger}
}

// Search returns the videos of the channel named by query. Handles, channel
// ids and channel URLs are resolved to the channel's uploads ordered by date;
// anything else is used as a keyword query.
func (c *APIClient) Search(ctx context.Context, query string) ([]SearchHit, error) {
	call := c.service.Search.List([]string{"snippet"}).
		Type("video").
		MaxResults(searchPageSize)

	if channelID := c.resolveChannelID(ctx, query); channelID != "" {
		call = call.ChannelId(channelID).Order("date")
	} else {
		call = call.Q(query)
	}

	response, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits := make([]SearchHit, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		hit := SearchHit{
			URL:     WatchURL(item.Id.VideoId),
			VideoID: item.Id.VideoId,
		}
		if item.Snippet != nil {
			hit.Title = item.Snippet.Title
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// resolveChannelID returns the channel id the query refers to, or "" when the
// query should be treated as keywords.
func (c *APIClient) resolveChannelID(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)

	if channelIDPattern.MatchString(query) {
		return query
	}
	if m := channelURLPattern.FindStringSubmatch(query); m != nil {
		return m[1]
	}

	handle := ""
	if strings.HasPrefix(query, "@") {
		handle = query
	} else if m := handleURLPattern.FindStringSubmatch(query); m != nil {
		handle = m[1]
	}
	if handle == "" {
		return ""
	}

	response, err := c.service.Channels.List([]string{"id"}).ForHandle(handle).Context(ctx).Do()
	if err != nil {
		c.logger.Warn("failed to resolve channel handle, falling back to keyword search",
			slog.String("handle", handle), slog.Any("err", err))
		return ""
	}
	if len(response.Items) == 0 {
		c.logger.Warn("channel handle not found, falling back to keyword search", slog.String("handle", handle))
		return ""
	}
	return response.Items[0].Id
}

// VideoDetails fetches snippet, content details and statistics for one video.
func (c *APIClient) VideoDetails(ctx context.Context, hit SearchHit) (*VideoDetails, error) {
	videoID := hit.VideoID
	if videoID == "" {
		videoID = extractVideoID(hit.URL)
	}
	if videoID == "" {
		return nil, fmt.Errorf("no video id in %q", hit.URL)
	}

	response, err := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}
	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		return nil, ErrNotFound
	}

	item := response.Items[0]
	details := &VideoDetails{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		PublishDate: item.Snippet.PublishedAt,
		VideoID:     item.Id,
		Thumbnails:  thumbnailList(item.Snippet.Thumbnails),
		Author: Author{
			Name:       item.Snippet.ChannelTitle,
			ChannelURL: ChannelURL(item.Snippet.ChannelId),
		},
		Keywords: item.Snippet.Tags,
		Category: c.categoryName(ctx, item.Snippet.CategoryId),
	}

	if item.ContentDetails != nil {
		if seconds, ok := parseDurationSeconds(item.ContentDetails.Duration); ok {
			details.LengthSeconds = strconv.Itoa(seconds)
		} else {
			details.LengthSeconds = item.ContentDetails.Duration
		}
	}
	if item.Statistics != nil {
		details.ViewCount = strconv.FormatUint(item.Statistics.ViewCount, 10)
	}

	return details, nil
}

// categoryName maps a category id to its display name. The region's category
// list is fetched on first use and again after a failed fetch.
func (c *APIClient) categoryName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}

	c.categoriesMu.Lock()
	defer c.categoriesMu.Unlock()

	if c.categories == nil {
		response, err := c.service.VideoCategories.List([]string{"snippet"}).
			RegionCode(c.region).
			Context(ctx).
			Do()
		if err != nil {
			c.logger.Warn("failed to list video categories", slog.Any("err", err))
			return ""
		}
		categories := make(map[string]string, len(response.Items))
		for _, cat := range response.Items {
			if cat.Snippet != nil {
				categories[cat.Id] = cat.Snippet.Title
			}
		}
		c.categories = categories
	}

	return c.categories[id]
}

func thumbnailList(details *youtube.ThumbnailDetails) []Thumbnail {
	if details == nil {
		return nil
	}

	var out []Thumbnail
	for _, t := range []*youtube.Thumbnail{details.Default, details.Medium, details.High, details.Standard, details.Maxres} {
		if t == nil || t.Url == "" {
			continue
		}
		out = append(out, Thumbnail{URL: t.Url, Width: int(t.Width), Height: int(t.Height)})
	}
	return out
}

// parseDurationSeconds parses an ISO 8601 duration such as "PT1M30S" or
// "P1DT2H". It reports false for text that is not such a duration.
func parseDurationSeconds(duration string) (int, bool) {
	matches := isoDurationRegex.FindStringSubmatch(duration)
	if matches == nil {
		return 0, false
	}

	units := []int{86400, 3600, 60, 1}
	total := 0
	for i, unit := range units {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return 0, false
		}
		total += n * unit
	}
	return total, true
}

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)

// extractVideoID pulls the 11 character video id out of a YouTube URL.
func extractVideoID(rawURL string) string {
	if m := videoIDPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}
