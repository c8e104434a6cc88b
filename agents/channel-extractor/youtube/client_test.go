package youtube

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const testChannelID = "UCX6OQ3DkcsbYNE6H8uQQuVA"

type dataAPIServer struct {
	*httptest.Server

	mu            sync.Mutex
	searchQueries []map[string]string
	categoryCalls atomic.Int32
	categoryFails atomic.Int32
	handleLookups atomic.Int32
}

func newDataAPIServer(t *testing.T) *dataAPIServer {
	t.Helper()
	s := &dataAPIServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		s.handleLookups.Add(1)
		if r.URL.Query().Get("forHandle") == "@MrBeast" {
			io.WriteString(w, `{"items":[{"id":"`+testChannelID+`"}]}`)
			return
		}
		io.WriteString(w, `{"items":[]}`)
	})
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		s.mu.Lock()
		s.searchQueries = append(s.searchQueries, map[string]string{
			"q":         q.Get("q"),
			"channelId": q.Get("channelId"),
			"order":     q.Get("order"),
			"type":      q.Get("type"),
		})
		s.mu.Unlock()
		io.WriteString(w, `{"items":[
			{"id":{"kind":"youtube#video","videoId":"dQw4w9WgXcQ"},"snippet":{"title":"First"}},
			{"id":{"kind":"youtube#channel","channelId":"`+testChannelID+`"},"snippet":{"title":"Channel"}},
			{"id":{"kind":"youtube#video","videoId":"test123abcd"},"snippet":{"title":"Second"}}
		]}`)
	})
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "dQw4w9WgXcQ" {
			io.WriteString(w, `{"items":[]}`)
			return
		}
		io.WriteString(w, `{"items":[{
			"id":"dQw4w9WgXcQ",
			"snippet":{
				"title":"First",
				"description":"A description",
				"publishedAt":"2024-03-01T12:00:00Z",
				"channelId":"`+testChannelID+`",
				"channelTitle":"MrBeast",
				"tags":["one","two"],
				"categoryId":"24",
				"thumbnails":{
					"default":{"url":"https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg","width":120,"height":90},
					"high":{"url":"https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg","width":480,"height":360}
				}
			},
			"contentDetails":{"duration":"PT1H2M3S"},
			"statistics":{"viewCount":"1234567"}
		}]}`)
	})
	mux.HandleFunc("/youtube/v3/videoCategories", func(w http.ResponseWriter, r *http.Request) {
		s.categoryCalls.Add(1)
		if s.categoryFails.Load() > 0 {
			s.categoryFails.Add(-1)
			http.Error(w, "quota exceeded", http.StatusForbidden)
			return
		}
		io.WriteString(w, `{"items":[{"id":"24","snippet":{"title":"Entertainment"}},{"id":"10","snippet":{"title":"Music"}}]}`)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *dataAPIServer) client(t *testing.T) *APIClient {
	t.Helper()
	service, err := youtube.NewService(context.Background(),
		option.WithEndpoint(s.URL+"/"),
		option.WithHTTPClient(s.Server.Client()),
	)
	require.NoError(t, err)
	return newAPIClient(service, "US", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAPIClientSearchByHandle(t *testing.T) {
	srv := newDataAPIServer(t)
	client := srv.client(t)

	hits, err := client.Search(context.Background(), "@MrBeast")
	require.NoError(t, err)

	assert.Equal(t, []SearchHit{
		{URL: WatchURL("dQw4w9WgXcQ"), Title: "First", VideoID: "dQw4w9WgXcQ"},
		{URL: WatchURL("test123abcd"), Title: "Second", VideoID: "test123abcd"},
	}, hits)

	require.Len(t, srv.searchQueries, 1)
	assert.Equal(t, testChannelID, srv.searchQueries[0]["channelId"])
	assert.Equal(t, "date", srv.searchQueries[0]["order"])
	assert.Equal(t, "video", srv.searchQueries[0]["type"])
	assert.Empty(t, srv.searchQueries[0]["q"])
}

func TestAPIClientSearchFallsBackToKeywords(t *testing.T) {
	srv := newDataAPIServer(t)
	client := srv.client(t)

	_, err := client.Search(context.Background(), "@unknownhandle")
	require.NoError(t, err)

	require.Len(t, srv.searchQueries, 1)
	assert.Equal(t, "@unknownhandle", srv.searchQueries[0]["q"])
	assert.Empty(t, srv.searchQueries[0]["channelId"])
}

func TestAPIClientSearchByChannelIDSkipsLookup(t *testing.T) {
	srv := newDataAPIServer(t)
	client := srv.client(t)

	_, err := client.Search(context.Background(), "https://www.youtube.com/channel/"+testChannelID)
	require.NoError(t, err)

	assert.Equal(t, int32(0), srv.handleLookups.Load())
	require.Len(t, srv.searchQueries, 1)
	assert.Equal(t, testChannelID, srv.searchQueries[0]["channelId"])
}

func TestAPIClientVideoDetails(t *testing.T) {
	srv := newDataAPIServer(t)
	client := srv.client(t)

	details, err := client.VideoDetails(context.Background(), SearchHit{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)

	assert.Equal(t, "First", details.Title)
	assert.Equal(t, "A description", details.Description)
	assert.Equal(t, "3723", details.LengthSeconds)
	assert.Equal(t, "1234567", details.ViewCount)
	assert.Equal(t, "2024-03-01T12:00:00Z", details.PublishDate)
	assert.Equal(t, "MrBeast", details.Author.Name)
	assert.Equal(t, ChannelURL(testChannelID), details.Author.ChannelURL)
	assert.Equal(t, []string{"one", "two"}, details.Keywords)
	assert.Equal(t, "Entertainment", details.Category)
	require.Len(t, details.Thumbnails, 2)
	assert.Equal(t, 120, details.Thumbnails[0].Width)

	// Categories are listed once per client.
	_, err = client.VideoDetails(context.Background(), SearchHit{VideoID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.categoryCalls.Load())
}

func TestAPIClientRetriesCategoriesAfterFailure(t *testing.T) {
	srv := newDataAPIServer(t)
	srv.categoryFails.Store(1)
	client := srv.client(t)

	details, err := client.VideoDetails(context.Background(), SearchHit{VideoID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Empty(t, details.Category)

	details, err = client.VideoDetails(context.Background(), SearchHit{VideoID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "Entertainment", details.Category)
	assert.Equal(t, int32(2), srv.categoryCalls.Load())
}

func TestAPIClientCategoriesSurviveCancelledFirstCall(t *testing.T) {
	srv := newDataAPIServer(t)
	client := srv.client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, client.categoryName(ctx, "24"))

	assert.Equal(t, "Entertainment", client.categoryName(context.Background(), "24"))
}

func TestAPIClientVideoDetailsNotFound(t *testing.T) {
	srv := newDataAPIServer(t)
	client := srv.client(t)

	_, err := client.VideoDetails(context.Background(), SearchHit{VideoID: "missing0000"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"PT0S", 0, true},
		{"PT45S", 45, true},
		{"PT1M30S", 90, true},
		{"PT3M32S", 212, true},
		{"PT1H", 3600, true},
		{"PT1H2M3S", 3723, true},
		{"P1DT2H", 93600, true},
		{"P0D", 0, true},
		{"", 0, false},
		{"1:30", 0, false},
		{"PT1.5S", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseDurationSeconds(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":              "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ": "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                             "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abc_DEF-123":               "abc_DEF-123",
		"https://example.com/watch?v=dQw4w9WgXcQ":                  "",
		"not a url":                                                "",
	}

	for input, want := range tests {
		assert.Equal(t, want, extractVideoID(input), input)
	}
}

func TestThumbnailListOrder(t *testing.T) {
	list := thumbnailList(&youtube.ThumbnailDetails{
		Maxres:  &youtube.Thumbnail{Url: "max"},
		Default: &youtube.Thumbnail{Url: "default"},
		Medium:  &youtube.Thumbnail{Url: ""},
	})
	require.Len(t, list, 2)
	assert.Equal(t, "default", list[0].URL)
	assert.Equal(t, "max", list[1].URL)

	assert.Nil(t, thumbnailList(nil))
}
