// Package ingest loads source material into the knowledge store:
// local files, single web pages, and shallow site crawls. Text is
// cleaned, chunked, embedded, and recorded in a manifest so unchanged
// sources are skipped on re-ingestion.
package ingest

import (
	"regexp"
	"strings"
)

// Artifacts that survive PDF-to-text conversion of government reports:
// figure and table captions, page markers, and table-of-contents dot
// leaders. All noise for embedding.
var (
	captionPattern   = regexp.MustCompile(`\[(?:그림|표|Figure|Table)\s*\d+[^\]]*\]`)
	pageMarkPattern  = regexp.MustCompile(`(?:페이지|Page)\s*\d+`)
	dotLeaderPattern = regexp.MustCompile(`\.{4,}\s*\d*`)
	spacePattern     = regexp.MustCompile(`[ \t]+`)
	blankLinePattern = regexp.MustCompile(`\n{3,}`)
)

// Cleanup normalizes extracted text for chunking and embedding.
func Cleanup(text string) string {
	text = captionPattern.ReplaceAllString(text, " ")
	text = pageMarkPattern.ReplaceAllString(text, " ")
	text = dotLeaderPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	text = blankLinePattern.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
