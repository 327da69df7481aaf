// Package youtube is a thin typed client for the YouTube Data API v3,
// covering the three calls the tracker needs: uploads-playlist resolution,
// playlist enumeration, and batched video statistics.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// apiBase is the YouTube Data API v3 endpoint.
const apiBase = "https://www.googleapis.com/youtube/v3"

// userAgent identifies the tracker to the API frontend.
const userAgent = "tubepulse/0.1"

// batchSize is the upstream per-request cap, shared by playlist pages
// and statistics lookups.
const batchSize = 50

// Video is one discovered upload.
type Video struct {
	ID          string `json:"video_id"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"` // upstream ISO-8601 string, kept verbatim
}

// ViewStat is the current view count for one video.
type ViewStat struct {
	VideoID string `json:"video_id"`
	Views   int64  `json:"views"`
}

// Client calls the Data API with a fixed key. No request timeout is set;
// a stalled call blocks until the caller's context is cancelled.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests to point the
// client at a fixture server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a Client for the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: apiBase,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Data API v3 response types ---

type channelListResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// UploadsPlaylistID resolves the channel's canonical uploads playlist.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", channelID)

	var resp channelListResponse
	if err := c.get(ctx, "/channels", params, &resp); err != nil {
		return "", fmt.Errorf("resolve uploads playlist: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("resolve uploads playlist: channel %s not found", channelID)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// DiscoverUploads lists every video in the channel's uploads playlist by
// walking continuation tokens, preserving upstream page order.
func (c *Client) DiscoverUploads(ctx context.Context, channelID string) ([]Video, error) {
	playlistID, err := c.UploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var videos []Video
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("playlistId", playlistID)
		params.Set("maxResults", strconv.Itoa(batchSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page playlistItemsResponse
		if err := c.get(ctx, "/playlistItems", params, &page); err != nil {
			return nil, fmt.Errorf("list uploads page: %w", err)
		}

		for _, item := range page.Items {
			videos = append(videos, Video{
				ID:          item.Snippet.ResourceID.VideoID,
				Title:       item.Snippet.Title,
				PublishedAt: item.Snippet.PublishedAt,
			})
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return videos, nil
}

// ViewCounts looks up current view counts for the given ids, batched at
// the upstream cap of 50 per call. Results follow upstream response order,
// not input order. Videos deleted upstream are silently absent; a missing
// viewCount field counts as 0.
func (c *Client) ViewCounts(ctx context.Context, ids []string) ([]ViewStat, error) {
	stats := make([]ViewStat, 0, len(ids))

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("part", "statistics")
		params.Set("id", strings.Join(ids[start:end], ","))

		var resp videoListResponse
		if err := c.get(ctx, "/videos", params, &resp); err != nil {
			return nil, fmt.Errorf("fetch statistics: %w", err)
		}

		for _, item := range resp.Items {
			var views int64
			if item.Statistics.ViewCount != "" {
				v, err := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("fetch statistics: bad viewCount %q for %s", item.Statistics.ViewCount, item.ID)
				}
				views = v
			}
			stats = append(stats, ViewStat{VideoID: item.ID, Views: views})
		}
	}

	return stats, nil
}

// get performs one API call and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: HTTP %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
