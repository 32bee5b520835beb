package ytvideodata

import (
	"errors"
	"net/http"
	"time"
)

var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
	ErrNoAPIKey           = errors.New("youtube api key is not configured")
)

const (
	defaultAPIURL    = "https://www.googleapis.com/youtube/v3"
	defaultOEmbedURL = "https://www.youtube.com/oembed"
	defaultPageURL   = "https://youtu.be/"
)

type Client struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
	oembedURL  string
	pageURL    string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURLs overrides the remote endpoints. Empty values keep the defaults.
func WithBaseURLs(apiURL, oembedURL, pageURL string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = apiURL
		}
		if oembedURL != "" {
			c.oembedURL = oembedURL
		}
		if pageURL != "" {
			c.pageURL = pageURL
		}
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		apiURL:     defaultAPIURL,
		oembedURL:  defaultOEmbedURL,
		pageURL:    defaultPageURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}
