// Package crawler walks vendor listing pages and discovers product links.
package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// URLQueue is a FIFO of pages to fetch that remembers every URL it has
// accepted, so a URL is only ever queued once.
type URLQueue struct {
	mu      sync.Mutex
	queue   []queueItem
	visited map[string]bool
}

type queueItem struct {
	URL   string
	Depth int
}

// NewURLQueue creates a new URL queue.
func NewURLQueue() *URLQueue {
	return &URLQueue{
		queue:   make([]queueItem, 0),
		visited: make(map[string]bool),
	}
}

// Add queues rawURL unless an equivalent URL was seen before. Depth is
// carried through to Pop; for listing pages it is the page number.
func (q *URLQueue) Add(rawURL string, depth int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	normalized := normalizeURL(rawURL)
	if normalized == "" || q.visited[normalized] {
		return false
	}

	q.visited[normalized] = true
	q.queue = append(q.queue, queueItem{URL: rawURL, Depth: depth})
	return true
}

// Pop removes and returns the next URL from the queue.
func (q *URLQueue) Pop() (string, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queue) == 0 {
		return "", 0, false
	}

	item := q.queue[0]
	q.queue = q.queue[1:]
	return item.URL, item.Depth, true
}

// MarkVisited records rawURL as seen without queueing it. It reports
// whether the URL was new.
func (q *URLQueue) MarkVisited(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	normalized := normalizeURL(rawURL)
	if normalized == "" || q.visited[normalized] {
		return false
	}
	q.visited[normalized] = true
	return true
}

// normalizeURL maps equivalent URLs onto one key: fragment dropped, scheme
// and host lower-cased, trailing slash removed except for the root.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
		parsed.RawPath = ""
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	return parsed.String()
}

// IsSameDomain checks if two URLs are on the same host, ignoring a leading
// "www.".
func IsSameDomain(url1, url2 string) bool {
	parsed1, err := url.Parse(url1)
	if err != nil {
		return false
	}
	parsed2, err := url.Parse(url2)
	if err != nil {
		return false
	}
	return bareHost(parsed1.Hostname()) == bareHost(parsed2.Hostname())
}

func bareHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}
