// Package export encodes a finished report as a downloadable document.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidFormat indicates an export format this package does not
// produce.
var ErrInvalidFormat = errors.New("unsupported export format")

// Supported formats. Docx is the default.
const (
	FormatDocx = "docx"
	FormatPDF  = "pdf"
)

// Section is one heading and its body text.
type Section struct {
	Heading string
	Body    string
}

// Document is the report to encode.
type Document struct {
	Title    string
	Sections []Section
}

// ContentType returns the MIME type for a format, or "" when the
// format is unknown.
func ContentType(format string) string {
	switch format {
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	default:
		return ""
	}
}

// Export writes doc to w in the given format. An empty format selects
// docx.
func Export(w io.Writer, format string, doc Document) error {
	switch format {
	case "", FormatDocx:
		return writeDocx(w, doc)
	case FormatPDF:
		return writePDF(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}

// ParseContent splits assembled report text back into sections. Lines
// matching a chapter or numbered section heading start a new section;
// everything else joins the current body. Text before the first
// heading becomes a single untitled section.
func ParseContent(title, content string) Document {
	doc := Document{Title: title}
	var current *Section

	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(current.Body)
			doc.Sections = append(doc.Sections, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if current != nil {
				current.Body += "\n"
			}
			continue
		}
		if isHeadingLine(trimmed) {
			flush()
			current = &Section{Heading: trimmed}
			continue
		}
		if current == nil {
			current = &Section{}
		}
		if current.Body != "" && !strings.HasSuffix(current.Body, "\n") {
			current.Body += " "
		}
		current.Body += trimmed
	}
	flush()
	return doc
}

// isHeadingLine reports whether a line looks like an outline heading:
// "제 1장 서론" or "1.1. 연구의 배경 및 필요성".
func isHeadingLine(line string) bool {
	if strings.HasPrefix(line, "제 ") && strings.Contains(line, "장") {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && line[i] == '.'
}
