// Package render — JSON renderer.
// Emits the Brief together with the structure of the generated summary
// (its headings and the text under each), parsed from the summary's
// Markdown without inferring anything beyond it.
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core"
)

// Heading represents a single heading found in the summary.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Section represents a heading-delimited section of the summary.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// briefJSON is the complete JSON output for a single brief.
type briefJSON struct {
	*core.Brief
	SummaryText     string    `json:"summary_text"`
	SummaryHeadings []Heading `json:"summary_headings"`
	SummarySections []Section `json:"summary_sections"`
}

// JSONRenderer produces structured JSON output from a Brief.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render converts the Brief into indented JSON.
func (r *JSONRenderer) Render(brief *core.Brief) ([]byte, error) {
	headings := extractHeadings(brief.Summary)
	out := briefJSON{
		Brief:           brief,
		SummaryText:     stripMarkdown(brief.Summary),
		SummaryHeadings: headings,
		SummarySections: buildSections(brief.Summary, headings),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// --- Markdown parsing helpers ---

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

func extractHeadings(md string) []Heading {
	matches := headingRegex.FindAllStringSubmatch(md, -1)
	headings := make([]Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headings
}

// linkRegex matches Markdown links [text](url).
var linkRegex = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)

func buildSections(md string, headings []Heading) []Section {
	if len(headings) == 0 {
		return nil
	}

	lines := strings.Split(md, "\n")
	sections := make([]Section, 0, len(headings))
	headingIdx := 0

	var current *Section
	var sectionLines []string

	for _, line := range lines {
		if headingRegex.MatchString(line) && headingIdx < len(headings) {
			if current != nil {
				current.Text = strings.TrimSpace(strings.Join(sectionLines, "\n"))
				sections = append(sections, *current)
			}
			current = &Section{
				Heading: headings[headingIdx].Text,
				Level:   headings[headingIdx].Level,
			}
			sectionLines = nil
			headingIdx++
		} else if current != nil {
			sectionLines = append(sectionLines, line)
		}
	}
	if current != nil {
		current.Text = strings.TrimSpace(strings.Join(sectionLines, "\n"))
		sections = append(sections, *current)
	}

	return sections
}

var (
	emphasisRegex   = regexp.MustCompile(`\*{1,3}([^*]+)\*{1,3}`)
	inlineCodeRegex = regexp.MustCompile("`([^`]+)`")
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting to produce plain text.
func stripMarkdown(md string) string {
	text := headingRegex.ReplaceAllString(md, "$2")
	text = emphasisRegex.ReplaceAllString(text, "$1")
	text = linkRegex.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "```", "")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
