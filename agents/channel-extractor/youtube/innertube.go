package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Innertube is YouTube's internal web API. It needs no API key.
const (
	innertubeBaseURL       = "https://www.youtube.com/youtubei/v1"
	innertubeClientName    = "WEB"
	innertubeClientVersion = "2.20250222.10.00"
	videosOnlyFilter       = "EgIQAQ==" // search filter: type=video
	maxResponseBytes       = 8 << 20
)

// InnertubeClient implements Service against the innertube search and player
// endpoints.
type InnertubeClient struct {
	HTTPClient *http.Client
	BaseURL    string
	Language   string
	Region     string
}

// NewInnertubeClient creates a keyless client using the default HTTP transport.
func NewInnertubeClient(region string) *InnertubeClient {
	if region == "" {
		region = "US"
	}
	return &InnertubeClient{
		HTTPClient: http.DefaultClient,
		BaseURL:    innertubeBaseURL,
		Language:   "en",
		Region:     region,
	}
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	Hl            string `json:"hl,omitempty"`
	Gl            string `json:"gl,omitempty"`
}

type searchRequest struct {
	Context innertubeContext `json:"context"`
	Query   string           `json:"query"`
	Params  string           `json:"params,omitempty"`
}

type playerRequest struct {
	Context        innertubeContext `json:"context"`
	VideoID        string           `json:"videoId"`
	ContentCheckOk bool             `json:"contentCheckOk"`
	RacyCheckOk    bool             `json:"racyCheckOk"`
}

type textRuns struct {
	Runs       []struct{ Text string } `json:"runs"`
	SimpleText string                  `json:"simpleText"`
}

func (t textRuns) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type searchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer *struct {
							Contents []struct {
								VideoRenderer *struct {
									VideoID string   `json:"videoId"`
									Title   textRuns `json:"title"`
								} `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		VideoID          string   `json:"videoId"`
		Title            string   `json:"title"`
		LengthSeconds    string   `json:"lengthSeconds"`
		Keywords         []string `json:"keywords"`
		ChannelID        string   `json:"channelId"`
		ShortDescription string   `json:"shortDescription"`
		ViewCount        string   `json:"viewCount"`
		Author           string   `json:"author"`
		Thumbnail        struct {
			Thumbnails []struct {
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat *struct {
		PlayerMicroformatRenderer struct {
			PublishDate     string `json:"publishDate"`
			UploadDate      string `json:"uploadDate"`
			Category        string `json:"category"`
			OwnerProfileURL string `json:"ownerProfileUrl"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

// Search runs a video-only search for query and returns the first page of results.
func (c *InnertubeClient) Search(ctx context.Context, query string) ([]SearchHit, error) {
	req := searchRequest{
		Context: c.context(),
		Query:   query,
		Params:  videosOnlyFilter,
	}

	var resp searchResponse
	if err := c.post(ctx, "search", req, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var hits []SearchHit
	for _, section := range resp.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range section.ItemSectionRenderer.Contents {
			if item.VideoRenderer == nil || item.VideoRenderer.VideoID == "" {
				continue
			}
			hits = append(hits, SearchHit{
				URL:     WatchURL(item.VideoRenderer.VideoID),
				Title:   item.VideoRenderer.Title.String(),
				VideoID: item.VideoRenderer.VideoID,
			})
		}
	}

	return hits, nil
}

// VideoDetails fetches the player response for one video.
func (c *InnertubeClient) VideoDetails(ctx context.Context, hit SearchHit) (*VideoDetails, error) {
	videoID := hit.VideoID
	if videoID == "" {
		videoID = extractVideoID(hit.URL)
	}
	if videoID == "" {
		return nil, fmt.Errorf("no video id in %q", hit.URL)
	}

	req := playerRequest{
		Context:        c.context(),
		VideoID:        videoID,
		ContentCheckOk: true,
		RacyCheckOk:    true,
	}

	var resp playerResponse
	if err := c.post(ctx, "player", req, &resp); err != nil {
		return nil, fmt.Errorf("player %s: %w", videoID, err)
	}

	if resp.VideoDetails == nil {
		if resp.PlayabilityStatus != nil && resp.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, resp.PlayabilityStatus.Reason, resp.PlayabilityStatus.Status)
		}
		return nil, ErrNotFound
	}

	vd := resp.VideoDetails
	details := &VideoDetails{
		Title:         vd.Title,
		Description:   vd.ShortDescription,
		LengthSeconds: vd.LengthSeconds,
		ViewCount:     vd.ViewCount,
		VideoID:       vd.VideoID,
		Keywords:      vd.Keywords,
		Author: Author{
			Name:       vd.Author,
			ChannelURL: ChannelURL(vd.ChannelID),
		},
	}
	for _, t := range vd.Thumbnail.Thumbnails {
		details.Thumbnails = append(details.Thumbnails, Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}

	if resp.Microformat != nil {
		mf := resp.Microformat.PlayerMicroformatRenderer
		details.PublishDate = mf.PublishDate
		if details.PublishDate == "" {
			details.PublishDate = mf.UploadDate
		}
		details.Category = mf.Category
	}

	return details, nil
}

func (c *InnertubeClient) context() innertubeContext {
	return innertubeContext{Client: innertubeClient{
		ClientName:    innertubeClientName,
		ClientVersion: innertubeClientVersion,
		Hl:            c.Language,
		Gl:            c.Region,
	}}
}

func (c *InnertubeClient) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	base := c.BaseURL
	if base == "" {
		base = innertubeBaseURL
	}
	url := strings.TrimSuffix(base, "/") + "/" + endpoint + "?prettyPrint=false"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Youtube-Client-Name", "1")
	req.Header.Set("X-Youtube-Client-Version", innertubeClientVersion)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
