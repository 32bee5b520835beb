package ytvideodata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// SearchResult is a normalized search record. Duration is in seconds, 0 when unknown.
type SearchResult struct {
	VideoId      string `json:"videoId"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
	Duration     int    `json:"duration"`
}

type searchResponse struct {
	Items []struct {
		Id struct {
			VideoId string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		Id             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("videoEmbeddable", "true")
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("q", query)
	q.Set("key", c.apiKey)

	var sr searchResponse
	if err := c.getJSON(ctx, c.apiURL+"/search?"+q.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	results := make([]SearchResult, 0, len(sr.Items))
	ids := make([]string, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.Id.VideoId == "" {
			continue
		}

		thumbnail := item.Snippet.Thumbnails["medium"].URL
		if thumbnail == "" {
			thumbnail = item.Snippet.Thumbnails["default"].URL
		}

		results = append(results, SearchResult{
			VideoId:      item.Id.VideoId,
			Title:        item.Snippet.Title,
			Thumbnail:    thumbnail,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
		ids = append(ids, item.Id.VideoId)
	}

	if len(ids) == 0 {
		return results, nil
	}

	dq := url.Values{}
	dq.Set("part", "contentDetails")
	dq.Set("id", strings.Join(ids, ","))
	dq.Set("key", c.apiKey)

	var vr videosResponse
	if err := c.getJSON(ctx, c.apiURL+"/videos?"+dq.Encode(), &vr); err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	durations := make(map[string]int, len(vr.Items))
	for _, item := range vr.Items {
		durations[item.Id] = ParseDuration(item.ContentDetails.Duration)
	}

	for i := range results {
		results[i].Duration = durations[results[i].VideoId]
	}

	return results, nil
}

func (c *Client) getJSON(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

var isoDurationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseDuration converts an ISO-8601 PT#H#M#S duration into seconds. Unparseable input yields 0.
func ParseDuration(iso string) int {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}

	part := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	return part(m[1])*3600 + part(m[2])*60 + part(m[3])
}
