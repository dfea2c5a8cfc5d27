package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tags that never contribute to readable body text.
var strippedTags = []string{"script", "style", "header", "footer", "nav"}

// Selectors tried in order when locating the main content region.
var contentSelectors = []string{
	"main",
	"article",
	"div.content",
	"div.main-content",
	"div.article-content",
	"div.post-content",
	"div.entry-content",
}

// ExtractMainContent pulls the readable text out of an HTML page. It strips
// chrome elements, then looks for a main-content container, then the body,
// and finally falls back to the whole document.
func ExtractMainContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range strippedTags {
		doc.Find(tag).Remove()
	}

	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() > 0 {
			if text := strings.TrimSpace(node.Text()); text != "" {
				return text, nil
			}
		}
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		if text := strings.TrimSpace(body.Text()); text != "" {
			return text, nil
		}
	}
	return strings.TrimSpace(doc.Text()), nil
}
