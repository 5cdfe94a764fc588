package ingest

import "strings"

const (
	// DefaultChunkSize and DefaultChunkOverlap are tuned for the
	// embedding model's context window and for keeping enough
	// surrounding prose in each chunk to answer a section question.
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// separators in preference order: paragraph break, line break,
// sentence end, word boundary.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits cleaned text into overlapping chunks.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker() *Chunker {
	return &Chunker{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Split breaks text into chunks of at most c.Size runes, preferring to
// cut at natural boundaries and carrying c.Overlap runes of context
// into the next chunk.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.Size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.Size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := c.findCut(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - c.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut looks backwards from end for the best separator inside the
// window. Falls back to a hard cut when the window has none.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	window := string(runes[start:end])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		// Do not cut so early that the chunk degenerates.
		if idx < c.Size/2 {
			continue
		}
		return start + len([]rune(window[:idx+len(sep)]))
	}
	return end
}
