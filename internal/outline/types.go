// Package outline turns a report topic into a narrative template and a
// structured chapter/section outline via one language-model call.
package outline

import "errors"

var (
	// ErrEmptyTopic indicates the caller supplied an empty or whitespace topic.
	ErrEmptyTopic = errors.New("topic is empty")

	// ErrUpstreamUnavailable indicates the model call failed or timed out.
	// Not retried: retry policy belongs to the caller.
	ErrUpstreamUnavailable = errors.New("model provider unavailable")

	// ErrMalformedOutline indicates the model response could not be parsed
	// into the outline schema. Not retried: a blind retry on
	// non-deterministic generation rarely self-corrects and wastes quota.
	ErrMalformedOutline = errors.New("malformed outline")
)

// Section is the smallest addressable unit of report structure.
// Only the heading is stored; body text is generated, never kept here.
type Section struct {
	Heading string `json:"heading"`
}

// Chapter groups an ordered list of sections under a heading.
type Chapter struct {
	Heading  string    `json:"heading"`
	Sections []Section `json:"sections"`
}

// Outline is the hierarchical skeleton of a report.
// The JSON field names are part of the API contract and must round-trip.
type Outline struct {
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
}

// TotalSections returns the number of sections across all chapters.
func (o *Outline) TotalSections() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, ch := range o.Chapters {
		n += len(ch.Sections)
	}
	return n
}

// Validate checks the structural invariants: a title, at least one
// chapter, and at least one section overall. Chapters without sections
// are tolerated (they contribute nothing to generation).
func (o *Outline) Validate() error {
	if o == nil {
		return errors.New("outline is nil")
	}
	if o.Title == "" {
		return errors.New("outline title is empty")
	}
	if len(o.Chapters) == 0 {
		return errors.New("outline has no chapters")
	}
	if o.TotalSections() == 0 {
		return errors.New("outline has no sections")
	}
	for i, ch := range o.Chapters {
		if ch.Heading == "" {
			return errors.New("chapter heading is empty")
		}
		for _, sec := range ch.Sections {
			if sec.Heading == "" {
				return errors.New("section heading is empty in chapter " + o.Chapters[i].Heading)
			}
		}
	}
	return nil
}

// ChapterOf returns the heading of the chapter containing the given
// section heading, or "" when the section is not part of the outline.
func (o *Outline) ChapterOf(sectionHeading string) string {
	if o == nil {
		return ""
	}
	for _, ch := range o.Chapters {
		for _, sec := range ch.Sections {
			if sec.Heading == sectionHeading {
				return ch.Heading
			}
		}
	}
	return ""
}
