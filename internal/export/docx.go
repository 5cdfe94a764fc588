package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Open XML boilerplate for a minimal WordprocessingML package:
// content types, the package relationship pointing at the document
// part, and the document itself.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocumentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxDocumentClose = `</w:body></w:document>`

// Half-point font sizes and 240ths-of-a-line spacing, the units
// WordprocessingML uses.
const (
	docxTitleSize   = 36 // 18pt
	docxHeadingSize = 28 // 14pt
	docxBodySize    = 22 // 11pt
	docxLineSpacing = 360 // 1.5 lines
)

func writeDocx(w io.Writer, doc Document) error {
	zw := zip.NewWriter(w)

	var body bytes.Buffer
	body.WriteString(docxDocumentOpen)
	if doc.Title != "" {
		writeDocxParagraph(&body, doc.Title, docxTitleSize, true)
	}
	for _, sec := range doc.Sections {
		if sec.Heading != "" {
			writeDocxParagraph(&body, sec.Heading, docxHeadingSize, true)
		}
		if sec.Body != "" {
			writeDocxParagraph(&body, sec.Body, docxBodySize, false)
		}
	}
	body.WriteString(docxDocumentClose)

	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", body.Bytes()},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create docx part %s: %w", part.name, err)
		}
		if _, err := f.Write(part.content); err != nil {
			return fmt.Errorf("write docx part %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func writeDocxParagraph(buf *bytes.Buffer, text string, size int, bold bool) {
	boldTag := ""
	if bold {
		boldTag = "<w:b/>"
	}
	fmt.Fprintf(buf,
		`<w:p><w:pPr><w:spacing w:line="%d" w:lineRule="auto"/></w:pPr><w:r><w:rPr>%s<w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">`,
		docxLineSpacing, boldTag, size)
	xml.EscapeText(buf, []byte(text))
	buf.WriteString(`</w:t></w:r></w:p>`)
}
