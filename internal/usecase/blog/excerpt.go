package blog

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ExcerptLength is the maximum number of runes in a derived excerpt
const ExcerptLength = 200

// Excerpt extracts the visible text of an HTML body and shortens it to at most
// max runes, cutting at the last word boundary and appending an ellipsis
func Excerpt(html string, max int) string {
	text := html
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("script, style").Remove()
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
