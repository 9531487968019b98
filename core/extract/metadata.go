// Package extract — page metadata.
package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/go-shiori/go-readability"
)

// Metadata builds PageMetadata from the loaded page. Readability supplies
// byline, site name and excerpt when it can make sense of the page; a
// failure there only leaves those fields empty.
func Metadata(page *core.Page, doc *goquery.Document, fetchedAt time.Time) core.PageMetadata {
	parsed, err := url.Parse(page.URL)
	if err != nil {
		parsed = &url.URL{}
	}

	meta := core.PageMetadata{
		URL:       page.URL,
		FinalURL:  page.FinalURL,
		Domain:    parsed.Host,
		Path:      parsed.Path,
		Title:     Title(doc),
		Language:  language(doc),
		FetchedAt: fetchedAt.UTC().Format(time.RFC3339),
	}

	article, err := readability.FromReader(strings.NewReader(page.HTML), parsed)
	if err != nil {
		return meta
	}
	meta.Byline = strings.TrimSpace(article.Byline)
	meta.SiteName = strings.TrimSpace(article.SiteName)
	meta.Excerpt = strings.TrimSpace(article.Excerpt)
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(article.Title)
	}
	return meta
}

// language reads the lang attribute of the <html> element.
func language(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		return strings.TrimSpace(lang)
	}
	return "en" // sensible default
}
