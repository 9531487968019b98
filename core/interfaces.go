// Package core defines the shared types and pipeline interfaces for pagebrief.
// Each stage of the pipeline is a clean, testable interface.
package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyURL is returned when a run is started without a URL.
var ErrEmptyURL = errors.New("url is empty")

// Page holds the rendered HTML of a loaded URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
}

// PageMetadata holds metadata derived from the page and URL.
type PageMetadata struct {
	URL       string `json:"url"`
	FinalURL  string `json:"final_url,omitempty"`
	Domain    string `json:"domain"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Byline    string `json:"byline,omitempty"`
	SiteName  string `json:"site_name,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Language  string `json:"language"`
	FetchedAt string `json:"fetched_at"` // ISO8601
}

// ImageRecord is one discovered image. Source is the normalized URL and
// identifies the record within a result set.
type ImageRecord struct {
	Source  string `json:"source"`
	Caption string `json:"caption"`
}

// Label tags a TextChunk with the part of the page it came from.
type Label string

const (
	LabelTitle     Label = "Title"
	LabelHeader    Label = "Header h1"
	LabelTime      Label = "Time"
	LabelParagraph Label = "Paragraph"
)

// TextChunk is one labeled unit of extracted text.
type TextChunk struct {
	Label Label  `json:"label"`
	Text  string `json:"text"`
}

// String renders the chunk the way it is fed into prompts.
func (c TextChunk) String() string {
	return fmt.Sprintf("# %s\n%s", c.Label, c.Text)
}

// Role is the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation message sent to or received from a
// generation backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Brief is the complete result of one summarization run.
type Brief struct {
	Metadata      PageMetadata  `json:"metadata"`
	Images        []ImageRecord `json:"images"`
	Chunks        []TextChunk   `json:"chunks"`
	ContextText   string        `json:"context_text"`
	ContextImages string        `json:"context_images"`
	Summary       string        `json:"summary"`
	Content       string        `json:"content,omitempty"` // main content as Markdown
	Transcript    []Message     `json:"transcript,omitempty"`
}

// Loader produces the rendered HTML of a URL.
type Loader interface {
	Load(ctx context.Context, url string) (*Page, error)
}

// ImageSink receives every image accepted by the gallery and article
// strategies. Failures are reported, never fatal to extraction.
type ImageSink interface {
	Save(ctx context.Context, index int, img ImageRecord) error
}

// Generator turns a message list into reply text. It never fails: backend
// errors are returned as a textual marker.
type Generator interface {
	Generate(ctx context.Context, messages []Message) string
}

// Normalizer converts cleaned HTML into Markdown.
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Renderer converts a Brief into a final output format.
type Renderer interface {
	Render(brief *Brief) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
