// Package cleaner turns product description HTML into the format written to
// the feed.
package cleaner

import "fmt"

// Cleaner transforms an HTML fragment into feed-ready content.
type Cleaner interface {
	// Clean converts html. Implementations must accept fragments without
	// <html> or <body>.
	Clean(html string) (string, error)

	// Name identifies the cleaner in logs.
	Name() string
}

// Description formats accepted in vendor configuration.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// ForFormat returns the cleaner for a description format. An empty format
// selects plain text.
func ForFormat(format string) (Cleaner, error) {
	switch format {
	case "", FormatText:
		return NewText(), nil
	case FormatMarkdown:
		return NewMarkdown(), nil
	case FormatHTML:
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown description format: %s", format)
	}
}
