package feed

import (
	"time"

	"github.com/jmylchreest/vendorfeed/internal/crawler"
	"github.com/jmylchreest/vendorfeed/internal/scraper"
	"github.com/jmylchreest/vendorfeed/pkg/cleaner"
)

// Config holds all pipeline configuration.
type Config struct {
	// Fetching
	Fetcher     scraper.Fetcher // injected fetcher; a static colly fetcher when nil
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
	Delay       time.Duration // fixed pause between requests

	// Limits
	MaxPages    int // listing pages per vendor unless the vendor sets max_pages
	MaxProducts int // rows per vendor unless the vendor sets max_products (0 = unlimited)

	// Output
	Cleaner cleaner.Cleaner // overrides each vendor's description_format when set

	RunID string // attached to every log record; generated when empty
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:   scraper.DefaultUserAgent,
		Timeout:     30 * time.Second,
		MaxBodySize: scraper.DefaultMaxBodySize,
		MaxPages:    crawler.DefaultMaxPages,
	}
}

// Option configures a Feed.
type Option func(*Config)

// WithFetcher injects a custom fetcher. The feed does not wrap it with the
// request delay.
func WithFetcher(f scraper.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithUserAgent sets the HTTP user agent.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMaxBodySize caps the bytes read per response.
func WithMaxBodySize(n int) Option {
	return func(c *Config) {
		c.MaxBodySize = n
	}
}

// WithDelay sets the pause between consecutive requests.
func WithDelay(d time.Duration) Option {
	return func(c *Config) {
		c.Delay = d
	}
}

// WithMaxPages sets the default listing page limit per vendor.
func WithMaxPages(n int) Option {
	return func(c *Config) {
		c.MaxPages = n
	}
}

// WithMaxProducts sets the default row limit per vendor.
func WithMaxProducts(n int) Option {
	return func(c *Config) {
		c.MaxProducts = n
	}
}

// WithCleaner formats every description with cl instead of the vendor's
// description_format.
func WithCleaner(cl cleaner.Cleaner) Option {
	return func(c *Config) {
		c.Cleaner = cl
	}
}

// WithRunID sets the run identifier used in logs.
func WithRunID(id string) Option {
	return func(c *Config) {
		c.RunID = id
	}
}
