// Package githost reads repository listings and file contents from the
// GitHub REST API and its raw-content mirror.
package githost

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v74/github"
)

// ContentSource selects where file bodies are downloaded from.
type ContentSource string

const (
	// SourceContentsAPI uses the contents-by-path endpoint (base64 payload).
	SourceContentsAPI ContentSource = "api"
	// SourceRawMirror uses raw.githubusercontent.com.
	SourceRawMirror ContentSource = "raw"
)

const DefaultRawBaseURL = "https://raw.githubusercontent.com"

// ParseContentSource accepts "api" (default when empty) or "raw".
func ParseContentSource(raw string) (ContentSource, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(SourceContentsAPI):
		return SourceContentsAPI, nil
	case string(SourceRawMirror):
		return SourceRawMirror, nil
	default:
		return "", fmt.Errorf("unknown content source %q", raw)
	}
}

type Options struct {
	// BaseURL overrides the REST endpoint (GitHub Enterprise, tests).
	BaseURL    string
	RawBaseURL string
	Source     ContentSource
	HTTPClient *http.Client
}

// Rate is the most recent rate-limit state reported by the API.
type Rate struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// Client implements linecount.TreeFetcher and linecount.ContentFetcher.
type Client struct {
	gh      *github.Client
	http    *http.Client
	token   string
	rawBase string
	source  ContentSource

	mu      sync.Mutex
	rate    Rate
	hasRate bool
}

func New(token string, opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	token = strings.TrimSpace(token)

	gh := github.NewClient(httpClient)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		gh.BaseURL = u
	}

	source := opts.Source
	if source == "" {
		source = SourceContentsAPI
	}
	rawBase := strings.TrimRight(strings.TrimSpace(opts.RawBaseURL), "/")
	if rawBase == "" {
		rawBase = DefaultRawBaseURL
	}

	return &Client{
		gh:      gh,
		http:    httpClient,
		token:   token,
		rawBase: rawBase,
		source:  source,
	}, nil
}

func (c *Client) Source() ContentSource { return c.source }

// LastRate returns the latest rate-limit state seen on any API response.
func (c *Client) LastRate() (Rate, bool) {
	if c == nil {
		return Rate{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate, c.hasRate
}

func (c *Client) recordRate(resp *github.Response) {
	if resp == nil || resp.Rate.Limit <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = Rate{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	}
	c.hasRate = true
}
