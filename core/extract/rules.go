// Package extract — selector rules.
// The heuristics that decide which elements hold images, captions and page
// text are data, not control flow: a Rules value maps each role to the
// selectors or markers that identify it, and can be overridden from config.
package extract

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Rules lists the element patterns used by the image and text extractors.
type Rules struct {
	// GalleryContainers identify gallery-like blocks (strategy B).
	GalleryContainers []string `mapstructure:"gallery_containers" json:"gallery_containers"`
	// GalleryCaptions are tried in order inside a gallery block; the first
	// selector with a match supplies the caption.
	GalleryCaptions []string `mapstructure:"gallery_captions" json:"gallery_captions"`
	// ArticleContainers identify article blocks scanned by strategy C.
	ArticleContainers []string `mapstructure:"article_containers" json:"article_containers"`
	// AuthorMarker excludes byline and avatar images: any ancestor whose
	// class contains it disqualifies the image.
	AuthorMarker string `mapstructure:"author_marker" json:"author_marker"`
	// CaptionKeywords mark a next-sibling element as the image's caption
	// when its lowercase class contains one of them.
	CaptionKeywords []string `mapstructure:"caption_keywords" json:"caption_keywords"`
	// ContentRoots are tried in order to find the element holding the
	// page's paragraphs.
	ContentRoots []string `mapstructure:"content_roots" json:"content_roots"`
}

// DefaultRules returns the built-in heuristics.
func DefaultRules() Rules {
	return Rules{
		GalleryContainers: []string{"div.phtwrp", "div.gallery", "div.carousel", "div[data-gallery]"},
		GalleryCaptions:   []string{"figcaption", ".phtdesc", ".caption"},
		ArticleContainers: []string{"div[class^='Article']"},
		AuthorMarker:      "Author-",
		CaptionKeywords:   []string{"caption", "credit", "wrapper"},
		ContentRoots:      []string{"#mw-content-text", "body"},
	}
}

// Validate checks that every selector parses.
func (r Rules) Validate() error {
	groups := map[string][]string{
		"gallery_containers": r.GalleryContainers,
		"gallery_captions":   r.GalleryCaptions,
		"article_containers": r.ArticleContainers,
		"content_roots":      r.ContentRoots,
	}
	for name, sels := range groups {
		for _, sel := range sels {
			if _, err := cascadia.ParseGroup(sel); err != nil {
				return fmt.Errorf("rules.%s: invalid selector %q: %w", name, sel, err)
			}
		}
	}
	if len(r.ContentRoots) == 0 {
		return fmt.Errorf("rules.content_roots must not be empty")
	}
	return nil
}

// compiledRules holds the matchers built from Rules.
type compiledRules struct {
	gallery  cascadia.Selector
	captions []cascadia.Selector
	article  cascadia.Selector
	roots    []cascadia.Selector
	author   string
	keywords []string
}

// compile builds matchers for a validated Rules. Empty selector lists
// compile to nil matchers, which disable the corresponding strategy.
func (r Rules) compile() (*compiledRules, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	c := &compiledRules{author: r.AuthorMarker}
	var err error
	if c.gallery, err = compileGroup(r.GalleryContainers); err != nil {
		return nil, err
	}
	if c.article, err = compileGroup(r.ArticleContainers); err != nil {
		return nil, err
	}
	for _, sel := range r.GalleryCaptions {
		m, err := cascadia.Compile(sel)
		if err != nil {
			return nil, err
		}
		c.captions = append(c.captions, m)
	}
	for _, sel := range r.ContentRoots {
		m, err := cascadia.Compile(sel)
		if err != nil {
			return nil, err
		}
		c.roots = append(c.roots, m)
	}
	for _, kw := range r.CaptionKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			c.keywords = append(c.keywords, kw)
		}
	}
	return c, nil
}

// compileGroup joins selectors into one group so matches come back in
// document order across all of them.
func compileGroup(sels []string) (cascadia.Selector, error) {
	if len(sels) == 0 {
		return nil, nil
	}
	return cascadia.Compile(strings.Join(sels, ", "))
}
