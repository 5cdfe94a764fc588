package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// A small single-font PDF writer. Text is set in a Type0 composite
// font over the predefined UniKS-UCS2-H CMap (Adobe-Korea1), so Hangul
// renders from viewer-supplied fonts without embedding font data; text
// strings are UTF-16BE hex. Layout is one line per text row on US
// Letter pages, headings in a larger size.

const (
	pdfPageWidth  = 612
	pdfPageHeight = 792
	pdfMargin     = 72
	pdfLeading    = 16
	pdfBodyFont   = 11
	pdfHeadFont   = 14
	pdfTitleFont  = 18

	// Full-width glyphs at body size fill the printable width at
	// around 42 characters per line.
	pdfLineWidth = 42
)

type pdfLine struct {
	text string
	size int
}

func writePDF(w io.Writer, doc Document) error {
	lines := layoutPDF(doc)
	pages := paginatePDF(lines)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	// Object numbering: 1 catalog, 2 pages, then for each page a page
	// object and a content stream, then the Type0 font and its
	// descendant CID font.
	pageCount := len(pages)
	fontObj := 3 + 2*pageCount
	cidFontObj := fontObj + 1

	offsets := make([]int, 0, cidFontObj)
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, pageCount)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pageCount))

	for i, page := range pages {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1
		writeObj(fmt.Sprintf(
			"%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>\nendobj\n",
			pageObj, pdfPageWidth, pdfPageHeight, contentObj, fontObj))

		stream := renderPDFPage(page)
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentObj, len(stream), stream))
	}

	writeObj(fmt.Sprintf(
		"%d 0 obj\n<< /Type /Font /Subtype /Type0 /BaseFont /HYSMyeongJo-Medium-UniKS-UCS2-H /Encoding /UniKS-UCS2-H /DescendantFonts [%d 0 R] >>\nendobj\n",
		fontObj, cidFontObj))
	writeObj(fmt.Sprintf(
		"%d 0 obj\n<< /Type /Font /Subtype /CIDFontType0 /BaseFont /HYSMyeongJo-Medium /CIDSystemInfo << /Registry (Adobe) /Ordering (Korea1) /Supplement 1 >> /DW 1000 >>\nendobj\n",
		cidFontObj))

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", cidFontObj+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		cidFontObj+1, xrefOffset)

	_, err := w.Write(buf.Bytes())
	return err
}

func layoutPDF(doc Document) []pdfLine {
	var lines []pdfLine
	add := func(text string, size int) {
		for _, wrapped := range wrapPDFText(text, pdfLineWidth) {
			lines = append(lines, pdfLine{text: wrapped, size: size})
		}
	}
	if doc.Title != "" {
		add(doc.Title, pdfTitleFont)
		lines = append(lines, pdfLine{})
	}
	for _, sec := range doc.Sections {
		if sec.Heading != "" {
			add(sec.Heading, pdfHeadFont)
		}
		for _, para := range strings.Split(sec.Body, "\n") {
			if strings.TrimSpace(para) == "" {
				continue
			}
			add(para, pdfBodyFont)
		}
		lines = append(lines, pdfLine{})
	}
	return lines
}

func paginatePDF(lines []pdfLine) [][]pdfLine {
	perPage := (pdfPageHeight - 2*pdfMargin) / pdfLeading
	var pages [][]pdfLine
	for len(lines) > 0 {
		n := min(perPage, len(lines))
		pages = append(pages, lines[:n])
		lines = lines[n:]
	}
	if len(pages) == 0 {
		pages = append(pages, nil)
	}
	return pages
}

func renderPDFPage(lines []pdfLine) string {
	var b strings.Builder
	b.WriteString("BT\n")
	fmt.Fprintf(&b, "%d TL\n", pdfLeading)
	fmt.Fprintf(&b, "%d %d Td\n", pdfMargin, pdfPageHeight-pdfMargin)
	size := 0
	for _, line := range lines {
		if line.text == "" {
			b.WriteString("T*\n")
			continue
		}
		if line.size != size {
			size = line.size
			fmt.Fprintf(&b, "/F1 %d Tf\n", size)
		}
		fmt.Fprintf(&b, "<%s> Tj\nT*\n", encodePDFText(line.text))
	}
	b.WriteString("ET")
	return b.String()
}

// wrapPDFText wraps on whitespace, measuring in runes. Words longer
// than the width are hard-broken.
func wrapPDFText(text string, width int) []string {
	var out []string
	line := ""
	lineLen := 0
	flush := func() {
		if line != "" {
			out = append(out, line)
			line = ""
			lineLen = 0
		}
	}
	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)
		if wordLen > width {
			flush()
			runes := []rune(word)
			for len(runes) > width {
				out = append(out, string(runes[:width]))
				runes = runes[width:]
			}
			line = string(runes)
			lineLen = len(runes)
			continue
		}
		if lineLen > 0 && lineLen+1+wordLen > width {
			flush()
		}
		if lineLen > 0 {
			line += " "
			lineLen++
		}
		line += word
		lineLen += wordLen
	}
	flush()
	return out
}

// encodePDFText encodes a line as UTF-16BE hex for the UCS-2 CMap.
// Runes outside the BMP cannot be addressed through it and become the
// replacement character.
func encodePDFText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > 0xFFFF || (r >= 0xD800 && r <= 0xDFFF) {
			r = utf8.RuneError
		}
		fmt.Fprintf(&b, "%04X", r)
	}
	return b.String()
}
