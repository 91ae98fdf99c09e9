package tool

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizePolicy = bluemonday.UGCPolicy()

// ExtractText reduces website content to readable plain text. Markup is
// sanitized first, then scripts and styles are dropped and the visible text
// extracted with collapsed whitespace. Content that is not HTML passes
// through unchanged apart from whitespace normalization.
func ExtractText(content string) string {
	if !strings.Contains(content, "<") {
		return collapseWhitespace(content)
	}

	sanitized := sanitizePolicy.Sanitize(content)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return collapseWhitespace(sanitized)
	}
	doc.Find("script, style, noscript").Remove()

	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
