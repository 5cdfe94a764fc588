package export

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Title: "국내 탄소 배출 현황",
		Sections: []Section{
			{Heading: "제 1장 서론", Body: ""},
			{Heading: "1.1. 연구의 배경 및 필요성", Body: "국내 탄소 배출량은 완만한 정체 추세를 보이고 있다."},
			{Heading: "1.2. 연구의 범위", Body: "본 연구는 2018년부터 2022년까지를 다룬다."},
		},
	}
}

func TestExportDocx(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatDocx, sampleDocument()))

	// A docx file is a zip archive with fixed part names.
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	parts := map[string]bool{}
	for _, f := range zr.File {
		parts[f.Name] = true
	}
	assert.True(t, parts["[Content_Types].xml"])
	assert.True(t, parts["_rels/.rels"])
	assert.True(t, parts["word/document.xml"])

	doc := readZipPart(t, zr, "word/document.xml")
	assert.Contains(t, doc, "국내 탄소 배출 현황")
	assert.Contains(t, doc, "1.1. 연구의 배경 및 필요성")
	assert.Contains(t, doc, `<w:sz w:val="22"/>`)
	assert.Contains(t, doc, `<w:spacing w:line="360"`)
}

func TestExportDocxIsDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, "", sampleDocument()))
	require.Greater(t, buf.Len(), 2)
	assert.Equal(t, "PK", string(buf.Bytes()[:2]))
}

func TestExportPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatPDF, sampleDocument()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF-"), "PDF magic bytes")
	assert.Contains(t, out, "%%EOF")
	assert.Contains(t, out, "/Type /Catalog")
	assert.Contains(t, out, "startxref")
}

func TestExportPDFEncodesHangul(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatPDF, sampleDocument()))

	out := buf.String()
	assert.Contains(t, out, "/Subtype /Type0")
	assert.Contains(t, out, "/Encoding /UniKS-UCS2-H")
	assert.Contains(t, out, "/Ordering (Korea1)")

	// "국내" is U+AD6D U+B0B4; content streams carry UTF-16BE hex,
	// never raw UTF-8.
	assert.Contains(t, out, "<AD6DB0B4")
	assert.NotContains(t, out, "국내")
}

func TestEncodePDFText(t *testing.T) {
	assert.Equal(t, "BCF4ACE0C11C", encodePDFText("보고서"))
	assert.Equal(t, "00410020BCF4", encodePDFText("A 보"))
	// Runes beyond the BMP fall back to the replacement character.
	assert.Equal(t, "FFFD", encodePDFText("\U0001F600"))
}

func TestWrapPDFTextCountsRunes(t *testing.T) {
	// Ten Hangul syllables are ten characters, thirty UTF-8 bytes.
	text := strings.Repeat("배출량분석 ", 4)
	lines := wrapPDFText(text, 11)
	require.Len(t, lines, 2)
	assert.Equal(t, "배출량분석 배출량분석", lines[0])

	long := strings.Repeat("가", 25)
	lines = wrapPDFText(long, 10)
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Repeat("가", 10), lines[0])
	assert.Equal(t, strings.Repeat("가", 5), lines[2])
}

func TestExportInvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, "hwp", sampleDocument())
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Zero(t, buf.Len())
}

func TestContentType(t *testing.T) {
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		ContentType(FormatDocx))
	assert.Equal(t, "application/pdf", ContentType(FormatPDF))
	assert.Equal(t, "", ContentType("hwp"))
}

func TestParseContent(t *testing.T) {
	content := "제 1장 서론\n\n1.1. 연구의 배경 및 필요성\n\n첫 문단입니다.\n둘째 줄입니다.\n\n1.2. 연구의 범위\n\n범위 설명."

	doc := ParseContent("보고서 제목", content)
	assert.Equal(t, "보고서 제목", doc.Title)
	require.Len(t, doc.Sections, 3)

	assert.Equal(t, "제 1장 서론", doc.Sections[0].Heading)
	assert.Equal(t, "1.1. 연구의 배경 및 필요성", doc.Sections[1].Heading)
	assert.Contains(t, doc.Sections[1].Body, "첫 문단입니다.")
	assert.Equal(t, "1.2. 연구의 범위", doc.Sections[2].Heading)
	assert.Equal(t, "범위 설명.", doc.Sections[2].Body)
}

func TestParseContentLeadingProse(t *testing.T) {
	doc := ParseContent("제목", "머리말 문장.\n\n제 1장 서론\n본문.")
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "", doc.Sections[0].Heading)
	assert.Equal(t, "머리말 문장.", doc.Sections[0].Body)
	assert.Equal(t, "제 1장 서론", doc.Sections[1].Heading)
}

func readZipPart(t *testing.T, zr *zip.Reader, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()
		buf := new(bytes.Buffer)
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		return buf.String()
	}
	t.Fatalf("part %s not found", name)
	return ""
}
