package cleaner

import "strings"

// NoopCleaner keeps the description HTML as-is, trimmed.
type NoopCleaner struct{}

// NewNoop creates a pass-through cleaner.
func NewNoop() *NoopCleaner {
	return &NoopCleaner{}
}

// Clean returns html trimmed of surrounding whitespace.
func (c *NoopCleaner) Clean(html string) (string, error) {
	return strings.TrimSpace(html), nil
}

func (c *NoopCleaner) Name() string {
	return "html"
}
