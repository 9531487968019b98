package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/gaurav-prasanna/pagebrief/core/extract"
)

const storyHTML = `<html lang="en"><head><title>Storm hits coast</title></head><body>
<div><h1>Storm</h1><time>Monday</time></div>
<figure><img src="//img.example.com/a.jpg"><figcaption>Waves</figcaption></figure>
<div class="gallery"><img src="https://img.example.com/b.jpg"><span class="caption">Flood</span></div>
<div class="ArticleBody"><img src="https://img.example.com/c.jpg" alt="Rescue"></div>
<p>The storm hit on Monday.</p>
<p>Thousands lost power.</p>
</body></html>`

type fakeLoader struct {
	html string
	err  error
	got  string
}

func (l *fakeLoader) Load(_ context.Context, rawURL string) (*core.Page, error) {
	l.got = rawURL
	if l.err != nil {
		return nil, l.err
	}
	return &core.Page{URL: rawURL, FinalURL: rawURL + "?final", StatusCode: 200, HTML: l.html}, nil
}

type fakeGenerator struct {
	reply string
	calls [][]core.Message
}

func (g *fakeGenerator) Generate(_ context.Context, messages []core.Message) string {
	g.calls = append(g.calls, messages)
	return g.reply
}

type countingSink struct {
	pageURL string
	indexes []int
}

func (s *countingSink) Save(_ context.Context, index int, _ core.ImageRecord) error {
	s.indexes = append(s.indexes, index)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, loader core.Loader, gen core.Generator, sinks SinkFactory, opts Options) *Pipeline {
	t.Helper()
	if len(opts.Rules.ContentRoots) == 0 {
		opts.Rules = extract.DefaultRules()
	}
	p, err := New(loader, gen, sinks, opts, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestRun(t *testing.T) {
	loader := &fakeLoader{html: storyHTML}
	gen := &fakeGenerator{reply: "## Summary\nA storm."}
	sink := &countingSink{}
	sinks := func(pageURL string) core.ImageSink {
		sink.pageURL = pageURL
		return sink
	}

	brief, err := newPipeline(t, loader, gen, sinks, Options{}).Run(context.Background(), " https://news.example.com/storm ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loader.got != "https://news.example.com/storm" {
		t.Errorf("expected trimmed URL, got %q", loader.got)
	}
	if brief.Summary != "## Summary\nA storm." {
		t.Errorf("unexpected summary %q", brief.Summary)
	}
	if brief.Metadata.Title != "Storm hits coast" || brief.Metadata.Domain != "news.example.com" {
		t.Errorf("unexpected metadata %+v", brief.Metadata)
	}
	if len(brief.Images) != 3 {
		t.Fatalf("expected 3 images, got %+v", brief.Images)
	}
	if sink.pageURL != "https://news.example.com/storm?final" {
		t.Errorf("expected sink bound to final URL, got %q", sink.pageURL)
	}
	if len(sink.indexes) != 2 || sink.indexes[0] != 2 || sink.indexes[1] != 3 {
		t.Errorf("expected gallery and article images saved as 2 and 3, got %v", sink.indexes)
	}

	wantText := "# Title\nStorm hits coast\n# Header h1\nStorm\n# Time\nMonday\n# Paragraph\nThe storm hit on Monday.\n# Paragraph\nThousands lost power."
	if brief.ContextText != wantText {
		t.Errorf("unexpected context text:\n%s", brief.ContextText)
	}
	if !strings.Contains(brief.ContextImages, "Waves (https://img.example.com/a.jpg)") {
		t.Errorf("unexpected context images:\n%s", brief.ContextImages)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("expected 1 generation call, got %d", len(gen.calls))
	}
	if !strings.Contains(gen.calls[0][1].Content, wantText) {
		t.Error("expected prompt to carry the context text")
	}
	if brief.Content != "" {
		t.Error("expected no page content unless requested")
	}
}

func TestRun_LoadFailure(t *testing.T) {
	loadErr := errors.New("net::ERR_NAME_NOT_RESOLVED")
	gen := &fakeGenerator{}
	_, err := newPipeline(t, &fakeLoader{err: loadErr}, gen, nil, Options{}).Run(context.Background(), "https://nowhere.invalid")
	if !errors.Is(err, loadErr) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
	if len(gen.calls) != 0 {
		t.Error("expected no generation after a failed load")
	}
}

func TestRun_EmptyURL(t *testing.T) {
	loader := &fakeLoader{}
	_, err := newPipeline(t, loader, &fakeGenerator{}, nil, Options{}).Run(context.Background(), "   ")
	if !errors.Is(err, core.ErrEmptyURL) {
		t.Fatalf("expected ErrEmptyURL, got %v", err)
	}
	if loader.got != "" {
		t.Error("expected loader not to be called")
	}
}

func TestExtract_WordBudgetAndContent(t *testing.T) {
	p := newPipeline(t, &fakeLoader{html: storyHTML}, &fakeGenerator{}, nil, Options{
		MaxContextWords: 4,
		IncludeContent:  true,
	})
	brief, err := p.Extract(context.Background(), "https://news.example.com/storm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if brief.ContextText != "# Title\nStorm hits coast\n# Header h1\nStorm" {
		t.Errorf("expected context cut at whole chunks, got:\n%s", brief.ContextText)
	}
	if len(brief.Chunks) != 5 {
		t.Errorf("expected all chunks kept on the brief, got %d", len(brief.Chunks))
	}
	if !strings.Contains(brief.Content, "Thousands lost power.") {
		t.Errorf("expected markdown content, got %q", brief.Content)
	}
	if strings.Contains(brief.Content, "Waves") || strings.Contains(brief.Content, "Flood") {
		t.Errorf("expected captions left to the image list, got %q", brief.Content)
	}
	if brief.Summary != "" {
		t.Error("expected no summary from Extract")
	}
}

func TestNew_InvalidRules(t *testing.T) {
	rules := extract.DefaultRules()
	rules.ArticleContainers = []string{"div[["}
	if _, err := New(&fakeLoader{}, &fakeGenerator{}, nil, Options{Rules: rules}, nil); err == nil {
		t.Error("expected error for invalid selector")
	}
}
