// Package session holds the state of one summarize-then-ask conversation:
// the brief of the last run and the append-only Q&A history. Each session
// keeps a mem-only bleve index over its chunks, captions and turns so a
// user can search what was said.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/gaurav-prasanna/pagebrief/core/prompt"
	"github.com/google/uuid"
)

// ErrNoBrief is returned when a question is asked before any page was
// summarized in the session.
var ErrNoBrief = errors.New("no page summarized in this session")

// ErrClosed is returned by a session whose index was released.
var ErrClosed = errors.New("session closed")

// Kinds of indexed documents.
const (
	KindChunk  = "chunk"
	KindImage  = "image"
	KindTurn   = "turn"
	maxSnippet = 300
)

// Hit is one search result.
type Hit struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Label   string  `json:"label"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// entry is the document indexed for a chunk, caption or turn.
type entry struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// State is one session. All methods are safe for concurrent use; turns
// are serialized, and reads do not wait for an in-flight generation.
type State struct {
	id        string
	createdAt time.Time

	turnMu sync.Mutex // held for a whole Ask

	mu      sync.Mutex
	resets  int
	brief   *core.Brief
	history []core.Message
	index   bleve.Index
	entries map[string]entry
}

// New creates an empty session with a fresh ID.
func New() (*State, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &State{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		index:     index,
		entries:   make(map[string]entry),
	}, nil
}

func (s *State) ID() string           { return s.id }
func (s *State) CreatedAt() time.Time { return s.createdAt }

// Reset replaces the session's brief, clears its history and rebuilds the
// search index from the new brief.
func (s *State) Reset(brief *core.Brief) error {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		s.index.Close()
	}
	s.resets++
	s.index = index
	s.entries = make(map[string]entry)
	s.brief = brief
	s.history = nil

	if brief == nil {
		return nil
	}
	batch := s.index.NewBatch()
	for i, c := range brief.Chunks {
		if err := s.stage(batch, fmt.Sprintf("chunk-%d", i), entry{Kind: KindChunk, Label: string(c.Label), Text: c.Text}); err != nil {
			return err
		}
	}
	for i, img := range brief.Images {
		if img.Caption == "" {
			continue
		}
		if err := s.stage(batch, fmt.Sprintf("image-%d", i), entry{Kind: KindImage, Label: img.Source, Text: img.Caption}); err != nil {
			return err
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("indexing brief: %w", err)
	}
	return nil
}

func (s *State) stage(batch *bleve.Batch, id string, e entry) error {
	if strings.TrimSpace(e.Text) == "" {
		return nil
	}
	if err := batch.Index(id, e); err != nil {
		return fmt.Errorf("indexing %s: %w", id, err)
	}
	s.entries[id] = e
	return nil
}

// Brief returns the current brief with the conversation so far as its
// transcript, or nil before the first run.
func (s *State) Brief() *core.Brief {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brief == nil {
		return nil
	}
	b := *s.brief
	b.Transcript = append([]core.Message(nil), s.history...)
	return &b
}

// History returns a copy of the Q&A history.
func (s *State) History() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Message(nil), s.history...)
}

// Ask runs one Q&A turn against the stored page context and records the
// question and answer. With replay set, earlier turns are sent along.
// A failed generation is recorded like any other answer.
func (s *State) Ask(ctx context.Context, gen core.Generator, question string, replay bool) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("question is empty")
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	if s.index == nil {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if s.brief == nil {
		s.mu.Unlock()
		return "", ErrNoBrief
	}
	brief, resets := s.brief, s.resets
	var history []core.Message
	if replay {
		history = append([]core.Message(nil), s.history...)
	}
	s.mu.Unlock()

	c := prompt.Context{Text: brief.ContextText, Images: brief.ContextImages}
	answer := gen.Generate(ctx, prompt.Question(c, question, history))

	s.mu.Lock()
	defer s.mu.Unlock()
	// A Reset or Close during generation wins; the answer is not recorded.
	if s.index == nil {
		return answer, ErrClosed
	}
	if s.resets != resets {
		return answer, nil
	}

	turn := len(s.history) / 2
	s.history = append(s.history,
		core.Message{Role: core.RoleUser, Content: question},
		core.Message{Role: core.RoleAssistant, Content: answer},
	)

	batch := s.index.NewBatch()
	if err := s.stage(batch, fmt.Sprintf("turn-%d-q", turn), entry{Kind: KindTurn, Label: string(core.RoleUser), Text: question}); err != nil {
		return answer, err
	}
	if err := s.stage(batch, fmt.Sprintf("turn-%d-a", turn), entry{Kind: KindTurn, Label: string(core.RoleAssistant), Text: answer}); err != nil {
		return answer, err
	}
	if err := s.index.Batch(batch); err != nil {
		return answer, fmt.Errorf("indexing turn: %w", err)
	}
	return answer, nil
}

// Search runs a match query over the session's chunks, captions and
// turns and returns at most n hits, best first.
func (s *State) Search(query string, n int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if n <= 0 {
		n = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil, ErrClosed
	}

	// Only the text is searched; kind and label are metadata.
	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequestOptions(q, n, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching session: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for i, h := range res.Hits {
		e := s.entries[h.ID]
		hits = append(hits, Hit{
			ID:      h.ID,
			Kind:    e.Kind,
			Label:   e.Label,
			Snippet: snippet(e.Text),
			Score:   h.Score,
			Rank:    i + 1,
		})
	}
	return hits, nil
}

// Close releases the search index.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet]) + "…"
}
