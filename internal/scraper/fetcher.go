// Package scraper fetches vendor pages.
package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/jmylchreest/vendorfeed/internal/version"
)

// ErrStatus is returned for responses outside the 2xx range.
var ErrStatus = errors.New("unexpected HTTP status")

// DefaultUserAgent identifies vendorfeed to vendor sites.
var DefaultUserAgent = version.UserAgent()

// DefaultMaxBodySize caps the response body read per page.
const DefaultMaxBodySize = 10 * 1024 * 1024

// PageContent represents a fetched page.
type PageContent struct {
	URL         string // requested URL
	FinalURL    string // URL after redirects; base for relative links
	HTML        string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Duration    time.Duration
}

// BaseURL returns the URL relative links on the page resolve against.
func (p PageContent) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// FetchOptions controls a single request.
type FetchOptions struct {
	UserAgent string
	Timeout   time.Duration
	Cookie    string // sent verbatim as the Cookie header
	Headers   map[string]string
}

// Fetcher abstracts page fetching.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts FetchOptions) (PageContent, error)

	// Close releases any resources.
	Close() error

	// Type names the fetcher for logs.
	Type() string
}

// FetcherConfig holds fetcher-wide defaults.
type FetcherConfig struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
}

// DefaultFetcherConfig returns sensible defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent:   DefaultUserAgent,
		Timeout:     30 * time.Second,
		MaxBodySize: DefaultMaxBodySize,
	}
}
