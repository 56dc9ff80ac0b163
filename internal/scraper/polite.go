package scraper

import (
	"context"
	"sync"
	"time"
)

// PoliteFetcher waits a fixed delay between consecutive requests made
// through the wrapped fetcher. The delay does not grow on errors.
type PoliteFetcher struct {
	next  Fetcher
	delay time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewPoliteFetcher wraps next with a fixed inter-request delay. A zero delay
// returns next unchanged.
func NewPoliteFetcher(next Fetcher, delay time.Duration) Fetcher {
	if delay <= 0 {
		return next
	}
	return &PoliteFetcher{next: next, delay: delay}
}

// Fetch waits until delay has passed since the previous request, then
// fetches.
func (p *PoliteFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (PageContent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.delay - time.Since(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return PageContent{URL: url}, ctx.Err()
			case <-timer.C:
			}
		}
	}
	defer func() { p.last = time.Now() }()
	return p.next.Fetch(ctx, url, opts)
}

// Close closes the wrapped fetcher.
func (p *PoliteFetcher) Close() error {
	return p.next.Close()
}

// Type returns the wrapped fetcher's type.
func (p *PoliteFetcher) Type() string {
	return p.next.Type()
}
