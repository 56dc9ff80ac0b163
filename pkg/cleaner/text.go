package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements end a line of text when flattening.
const blockElements = "p, div, li, br, h1, h2, h3, h4, h5, h6, tr, section, article"

// TextCleaner flattens HTML to plain text. Block elements become line
// breaks; whitespace inside a line collapses to single spaces.
type TextCleaner struct{}

// NewText creates a plain-text cleaner.
func NewText() *TextCleaner {
	return &TextCleaner{}
}

// Clean strips tags, scripts and styles from html.
func (c *TextCleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe, svg").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (c *TextCleaner) Name() string {
	return "text"
}
