package ytvideodata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"PT4M13S":  253,
		"PT1H2M3S": 3723,
		"PT45S":    45,
		"PT2H":     7200,
		"P0D":      0,
		"":         0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseDuration(in), in)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "https://www.youtube.com/watch?v=dQw4w9WgXcQ":
			fmt.Fprint(w, `{"title":"Never Gonna Give You Up","author_name":"Rick Astley","thumbnail_url":"https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"}`)
		case "https://www.youtube.com/watch?v=noembed0000":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/page/noembed0000", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Private Song - YouTube</title></head><body><span><link itemprop="name" content="Some Channel"></span></body></html>`)
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key1", r.URL.Query().Get("key"))
		assert.Equal(t, "cats", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"items":[
			{"id":{"videoId":"aaaaaaaaaaa"},"snippet":{"title":"Cat 1","channelTitle":"C","thumbnails":{"medium":{"url":"m1"}}}},
			{"id":{"channelId":"x"},"snippet":{"title":"channel"}},
			{"id":{"videoId":"bbbbbbbbbbb"},"snippet":{"title":"Cat 2","channelTitle":"C","thumbnails":{"default":{"url":"d2"}}}}
		]}`)
	})
	mux.HandleFunc("/api/videos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aaaaaaaaaaa,bbbbbbbbbbb", r.URL.Query().Get("id"))
		fmt.Fprint(w, `{"items":[
			{"id":"aaaaaaaaaaa","contentDetails":{"duration":"PT1M5S"}},
			{"id":"bbbbbbbbbbb","contentDetails":{"duration":"PT1H"}}
		]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestGet(t *testing.T) {
	srv := newTestServer(t)
	c := New("", WithBaseURLs(srv.URL+"/api", srv.URL+"/oembed", srv.URL+"/page/"))
	ctx := context.Background()

	vd, err := c.Get(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", vd.Title)
	assert.Equal(t, "Rick Astley", vd.AuthorName)

	vd, err = c.Get(ctx, "noembed0000")
	require.NoError(t, err)
	assert.Equal(t, "Private Song", vd.Title)
	assert.Equal(t, "Some Channel", vd.AuthorName)
	assert.Equal(t, "https://i.ytimg.com/vi/noembed0000/hqdefault.jpg", vd.ThumbnailUrl)

	_, err = c.Get(ctx, "missing0000")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := New("").Search(ctx, "cats", 5)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	c := New("key1", WithBaseURLs(srv.URL+"/api", "", ""))
	results, err := c.Search(ctx, "cats", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, SearchResult{VideoId: "aaaaaaaaaaa", Title: "Cat 1", Thumbnail: "m1", ChannelTitle: "C", Duration: 65}, results[0])
	assert.Equal(t, SearchResult{VideoId: "bbbbbbbbbbb", Title: "Cat 2", Thumbnail: "d2", ChannelTitle: "C", Duration: 3600}, results[1])
}
