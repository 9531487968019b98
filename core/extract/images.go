// Package extract — image discovery.
// Three independent strategies scan the rendered document and contribute to
// one deduplicated list:
//  1. caption-figure pairs (<figure> with a <figcaption>)
//  2. gallery containers (photo wrappers, galleries, carousels)
//  3. article images, captioned by a caption-like next sibling
package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/pagebrief/core"
)

// figureSelector matches caption-figure pairs.
const figureSelector = "figure:has(figcaption)"

// ImageExtractor discovers images and their captions in a rendered page.
type ImageExtractor struct {
	rules  *compiledRules
	sink   core.ImageSink
	logger *slog.Logger
}

// NewImageExtractor creates an ImageExtractor. sink may be nil, in which
// case accepted gallery and article images are not persisted.
func NewImageExtractor(rules Rules, sink core.ImageSink, logger *slog.Logger) (*ImageExtractor, error) {
	compiled, err := rules.compile()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageExtractor{rules: compiled, sink: sink, logger: logger}, nil
}

// imageSet accumulates accepted records, keyed by normalized source.
type imageSet struct {
	seen    *seenSet
	records []core.ImageRecord
}

// has reports whether src (already normalized) was accepted before.
func (s *imageSet) has(src string) bool {
	return s.seen.Has(src)
}

func (s *imageSet) add(src, caption string) core.ImageRecord {
	s.seen.Add(src)
	rec := core.ImageRecord{Source: src, Caption: caption}
	s.records = append(s.records, rec)
	return rec
}

// Extract runs the three strategies in order and returns every accepted
// image. Missing elements yield no records, never an error.
func (e *ImageExtractor) Extract(ctx context.Context, doc *goquery.Document) []core.ImageRecord {
	set := &imageSet{seen: newSeenSet()}

	e.captionFigures(doc, set)
	figures := len(set.records)

	// Gallery and article images are handed to the sink, numbered after
	// the figure images.
	index := figures + 1
	save := func(rec core.ImageRecord) {
		e.save(ctx, index, rec)
		index++
	}
	e.galleryBlocks(doc, set, save)
	e.articleImages(doc, set, save)

	e.logger.Debug("images extracted",
		"figures", figures,
		"total", len(set.records),
	)
	return set.records
}

// captionFigures implements strategy A.
func (e *ImageExtractor) captionFigures(doc *goquery.Document, set *imageSet) {
	doc.Find(figureSelector).Each(func(_ int, figure *goquery.Selection) {
		img := figure.Find("img").First()
		src, ok := acceptable(img, set)
		if !ok {
			return
		}
		set.add(src, visibleText(figure.Find("figcaption").First()))
	})
}

// galleryBlocks implements strategy B.
func (e *ImageExtractor) galleryBlocks(doc *goquery.Document, set *imageSet, save func(core.ImageRecord)) {
	if e.rules.gallery == nil {
		return
	}
	blocks := doc.FindMatcher(e.rules.gallery)
	if blocks.Length() == 0 {
		return
	}
	e.logger.Debug("gallery blocks found", "count", blocks.Length())

	blocks.Each(func(_ int, block *goquery.Selection) {
		img := block.Find("img").First()
		src, ok := acceptable(img, set)
		if !ok {
			return
		}
		save(set.add(src, e.galleryCaption(block)))
	})
}

// galleryCaption returns the text of the first caption selector that
// matches inside block.
func (e *ImageExtractor) galleryCaption(block *goquery.Selection) string {
	for _, m := range e.rules.captions {
		if sel := block.FindMatcher(m); sel.Length() > 0 {
			return visibleText(sel.First())
		}
	}
	return ""
}

// articleImages implements strategy C.
func (e *ImageExtractor) articleImages(doc *goquery.Document, set *imageSet, save func(core.ImageRecord)) {
	if e.rules.article == nil {
		return
	}
	blocks := doc.FindMatcher(e.rules.article)
	if blocks.Length() == 0 {
		return
	}
	e.logger.Debug("article blocks found", "count", blocks.Length())

	blocks.Each(func(_ int, block *goquery.Selection) {
		block.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, ok := acceptable(img, set)
			if !ok || e.insideAuthor(img) {
				return
			}
			alt, _ := img.Attr("alt")
			caption := strings.TrimSpace(alt + "\n\n" + e.siblingCaption(img))
			save(set.add(src, caption))
		})
	})
}

// insideAuthor reports whether any ancestor of img is a byline or avatar
// container.
func (e *ImageExtractor) insideAuthor(img *goquery.Selection) bool {
	if e.rules.author == "" {
		return false
	}
	found := false
	img.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		class, _ := p.Attr("class")
		found = strings.Contains(class, e.rules.author)
		return !found
	})
	return found
}

// siblingCaption returns the text of img's next element sibling when its
// class marks it as a caption, credit or caption wrapper.
func (e *ImageExtractor) siblingCaption(img *goquery.Selection) string {
	next := img.Next()
	if next.Length() == 0 {
		return ""
	}
	class, _ := next.Attr("class")
	class = strings.ToLower(class)
	for _, kw := range e.rules.keywords {
		if strings.Contains(class, kw) {
			return visibleText(next)
		}
	}
	return ""
}

// save hands an accepted image to the sink. Failures stay local to the
// image.
func (e *ImageExtractor) save(ctx context.Context, index int, rec core.ImageRecord) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Save(ctx, index, rec); err != nil {
		e.logger.Warn("image download failed",
			"index", index,
			"src", rec.Source,
			"error", err,
		)
	}
}

// acceptable returns the normalized source of img if it has one that is
// valid and not yet in set.
func acceptable(img *goquery.Selection, set *imageSet) (string, bool) {
	if img.Length() == 0 {
		return "", false
	}
	raw, exists := img.Attr("src")
	if !exists {
		return "", false
	}
	src, ok := NormalizeSource(raw)
	if !ok || set.has(src) {
		return "", false
	}
	return src, true
}
