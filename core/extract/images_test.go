package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/pagebrief/core"
)

type savedImage struct {
	index int
	img   core.ImageRecord
}

type recordingSink struct {
	saved []savedImage
	fail  map[string]bool
}

func (s *recordingSink) Save(_ context.Context, index int, img core.ImageRecord) error {
	s.saved = append(s.saved, savedImage{index: index, img: img})
	if s.fail[img.Source] {
		return errors.New("boom")
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}
	return doc
}

func extractImages(t *testing.T, html string, sink core.ImageSink) []core.ImageRecord {
	t.Helper()
	e, err := NewImageExtractor(DefaultRules(), sink, quietLogger())
	if err != nil {
		t.Fatalf("NewImageExtractor: %v", err)
	}
	return e.Extract(context.Background(), mustDoc(t, html))
}

func TestExtract_CaptionFigure(t *testing.T) {
	html := `<body><figure><img src="//x.com/a.jpg"><figcaption> Cap </figcaption></figure></body>`

	got := extractImages(t, html, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 image, got %d: %+v", len(got), got)
	}
	want := core.ImageRecord{Source: "https://x.com/a.jpg", Caption: "Cap"}
	if got[0] != want {
		t.Errorf("expected %+v, got %+v", want, got[0])
	}
}

func TestExtract_FigureWithoutCaptionIgnored(t *testing.T) {
	html := `<body><figure><img src="https://x.com/a.jpg"></figure></body>`

	if got := extractImages(t, html, nil); len(got) != 0 {
		t.Errorf("expected no images, got %+v", got)
	}
}

func TestExtract_GalleryCaptionPriority(t *testing.T) {
	html := `<body>
		<div class="gallery">
			<span class="caption">generic</span>
			<img src="https://x.com/g1.jpg">
			<p class="phtdesc">photo description</p>
		</div>
		<div data-gallery="1"><img src="https://x.com/g2.jpg"><span class="caption">second</span></div>
		<div class="carousel"><img src="https://x.com/g3.jpg"></div>
	</body>`

	got := extractImages(t, html, nil)
	want := []core.ImageRecord{
		{Source: "https://x.com/g1.jpg", Caption: "photo description"},
		{Source: "https://x.com/g2.jpg", Caption: "second"},
		{Source: "https://x.com/g3.jpg", Caption: ""},
	}
	assertImages(t, got, want)
}

func TestExtract_ArticleSiblingCaption(t *testing.T) {
	html := `<body><div class="ArticleBody">
		<img src="https://x.com/c.jpg" alt="A"><div class="caption-text">B</div>
		<img src="https://x.com/d.jpg" alt="only alt"><div class="related">not a caption</div>
		<img src="https://x.com/e.jpg"><span class="Image-Credit">Photo: Someone</span>
		<img src="https://x.com/f.jpg">
	</div></body>`

	got := extractImages(t, html, nil)
	want := []core.ImageRecord{
		{Source: "https://x.com/c.jpg", Caption: "A\n\nB"},
		{Source: "https://x.com/d.jpg", Caption: "only alt"},
		{Source: "https://x.com/e.jpg", Caption: "Photo: Someone"},
		{Source: "https://x.com/f.jpg", Caption: ""},
	}
	assertImages(t, got, want)
}

func TestExtract_ArticleSkipsAuthorImages(t *testing.T) {
	html := `<body><div class="ArticleHeader">
		<div class="Author-byline"><span><img src="https://x.com/avatar.jpg" alt="Jane"></span></div>
		<img src="https://x.com/lead.jpg" alt="Lead">
	</div></body>`

	got := extractImages(t, html, nil)
	want := []core.ImageRecord{{Source: "https://x.com/lead.jpg", Caption: "Lead"}}
	assertImages(t, got, want)
}

func TestExtract_DedupAcrossStrategies(t *testing.T) {
	html := `<body>
		<figure><img src="//x.com/a.jpg"><figcaption>figure</figcaption></figure>
		<div class="gallery"><img src="https://x.com/a.jpg"><figcaption>gallery</figcaption></div>
		<div class="gallery"><img src="https://x.com/b.jpg"></div>
		<div class="ArticleBody">
			<img src="https://x.com/a.jpg">
			<img src="//x.com/b.jpg">
			<img src="https://x.com/c.jpg">
			<div class="ArticleInner"><img src="https://x.com/c.jpg"></div>
		</div>
	</body>`

	got := extractImages(t, html, nil)
	want := []core.ImageRecord{
		{Source: "https://x.com/a.jpg", Caption: "figure"},
		{Source: "https://x.com/b.jpg", Caption: ""},
		{Source: "https://x.com/c.jpg", Caption: ""},
	}
	assertImages(t, got, want)
}

func TestExtract_RejectsSVGAndNonHTTP(t *testing.T) {
	html := `<body>
		<figure><img src="https://x.com/logo.SVG"><figcaption>logo</figcaption></figure>
		<figure><img src="data:image/png;base64,AAAA"><figcaption>inline</figcaption></figure>
		<figure><img src="/relative.jpg"><figcaption>relative</figcaption></figure>
		<figure><img><figcaption>no src</figcaption></figure>
		<div class="gallery"><img src="https://x.com/svg/icon.png"></div>
		<div class="ArticleBody"><img src="ftp://x.com/a.jpg"></div>
	</body>`

	if got := extractImages(t, html, nil); len(got) != 0 {
		t.Errorf("expected no images, got %+v", got)
	}
}

func TestExtract_SinkIndexesAndFailures(t *testing.T) {
	html := `<body>
		<figure><img src="https://x.com/f1.jpg"><figcaption>f1</figcaption></figure>
		<figure><img src="https://x.com/f2.jpg"><figcaption>f2</figcaption></figure>
		<div class="gallery"><img src="https://x.com/g.jpg"></div>
		<div class="ArticleBody"><img src="https://x.com/a1.jpg"><img src="https://x.com/a2.jpg"></div>
	</body>`
	sink := &recordingSink{fail: map[string]bool{"https://x.com/g.jpg": true}}

	got := extractImages(t, html, sink)
	if len(got) != 5 {
		t.Fatalf("expected 5 images despite sink failure, got %d", len(got))
	}

	want := []savedImage{
		{index: 3, img: core.ImageRecord{Source: "https://x.com/g.jpg"}},
		{index: 4, img: core.ImageRecord{Source: "https://x.com/a1.jpg"}},
		{index: 5, img: core.ImageRecord{Source: "https://x.com/a2.jpg"}},
	}
	if len(sink.saved) != len(want) {
		t.Fatalf("expected %d saved images, got %d: %+v", len(want), len(sink.saved), sink.saved)
	}
	for i := range want {
		if sink.saved[i] != want[i] {
			t.Errorf("saved[%d]: expected %+v, got %+v", i, want[i], sink.saved[i])
		}
	}
}

func TestExtract_CustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.GalleryContainers = []string{"section.slides"}
	rules.ArticleContainers = nil

	e, err := NewImageExtractor(rules, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewImageExtractor: %v", err)
	}
	html := `<body>
		<section class="slides"><img src="https://x.com/s.jpg"><p class="caption">slide</p></section>
		<div class="gallery"><img src="https://x.com/g.jpg"></div>
		<div class="ArticleBody"><img src="https://x.com/a.jpg"></div>
	</body>`

	got := e.Extract(context.Background(), mustDoc(t, html))
	assertImages(t, got, []core.ImageRecord{{Source: "https://x.com/s.jpg", Caption: "slide"}})
}

func assertImages(t *testing.T, got, want []core.ImageRecord) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d images, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("image %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
