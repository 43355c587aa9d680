package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML removes markup and collapses whitespace. Unparsable input is
// returned unchanged.
func StripHTML(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// StripAndTruncate cleans content and cuts it to maxRunes, appending "...".
func StripAndTruncate(content string, maxRunes int) string {
	text := StripHTML(content)
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
