package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"

	"github.com/bogoseo/bogoseo/internal/knowledge"
	"github.com/bogoseo/bogoseo/internal/log"
)

const fetchTimeout = 30 * time.Second

// Store is the slice of the knowledge store the ingester needs.
type Store interface {
	Add(ctx context.Context, doc knowledge.Document) error
	DeleteBySourceFile(ctx context.Context, sourceFile string) (int64, error)
}

// Result counts what one ingest run did.
type Result struct {
	SourcesAdded   int
	SourcesSkipped int
	SourcesRemoved int
	SourcesFailed  int
	Chunks         int
	Duration       time.Duration
}

// Ingester loads sources into the knowledge store.
type Ingester struct {
	store    Store
	chunker  *Chunker
	manifest string
	logger   log.Logger
}

// New builds an Ingester. manifestPath locates the ingestion manifest;
// an empty path disables change tracking.
func New(store Store, manifestPath string, logger log.Logger) *Ingester {
	return &Ingester{
		store:    store,
		chunker:  NewChunker(),
		manifest: manifestPath,
		logger:   logger,
	}
}

// IngestDirectory ingests every .txt and .md file under dir. Sources
// that were ingested from dir on a previous run but no longer exist
// there are removed from the store and the manifest.
func (ing *Ingester) IngestDirectory(ctx context.Context, dir string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	manifest, err := ing.openManifest()
	if err != nil {
		return nil, err
	}
	defer ing.closeManifest(manifest)

	visited := make(map[string]bool)
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			result.SourcesFailed++
			return nil
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		visited[path] = true
		ing.ingestFile(ctx, manifest, path, result)
		return ctx.Err()
	})
	if err != nil {
		return result, err
	}

	ing.pruneRemoved(ctx, manifest, dir, visited, result)

	result.Duration = time.Since(start)
	ing.logger.Info("directory ingested",
		"dir", dir,
		"added", result.SourcesAdded,
		"skipped", result.SourcesSkipped,
		"removed", result.SourcesRemoved,
		"failed", result.SourcesFailed,
		"chunks", result.Chunks)
	return result, nil
}

// pruneRemoved deletes the chunks and manifest entries of sources that
// were previously ingested from dir but were not seen on this walk.
func (ing *Ingester) pruneRemoved(ctx context.Context, manifest *Manifest, dir string, visited map[string]bool, result *Result) {
	if manifest == nil {
		return
	}
	for source := range manifest.Entries {
		if visited[source] || !underDir(dir, source) {
			continue
		}
		if _, err := ing.store.DeleteBySourceFile(ctx, source); err != nil {
			ing.logger.Warn("removing chunks of deleted source failed", "source", source, "error", err)
			continue
		}
		manifest.Remove(source)
		result.SourcesRemoved++
		ing.logger.Info("removed deleted source", "source", source)
	}
}

// underDir reports whether source is a local path inside dir. URL
// sources share the manifest and must survive directory pruning.
func underDir(dir, source string) bool {
	if strings.Contains(source, "://") {
		return false
	}
	rel, err := filepath.Rel(dir, source)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IngestFile ingests a single local file.
func (ing *Ingester) IngestFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	manifest, err := ing.openManifest()
	if err != nil {
		return nil, err
	}
	defer ing.closeManifest(manifest)

	ing.ingestFile(ctx, manifest, path, result)
	result.Duration = time.Since(start)
	return result, nil
}

func (ing *Ingester) ingestFile(ctx context.Context, manifest *Manifest, path string, result *Result) {
	data, err := os.ReadFile(path)
	if err != nil {
		ing.logger.Warn("skipping unreadable file", "path", path, "error", err)
		result.SourcesFailed++
		return
	}
	if err := ing.ingestContent(ctx, manifest, path, Cleanup(string(data)), knowledge.SourceTypeDocument, result); err != nil {
		ing.logger.Warn("file ingestion failed", "path", path, "error", err)
		result.SourcesFailed++
	}
}

// IngestURL fetches one page, extracts the readable article text, and
// ingests it.
func (ing *Ingester) IngestURL(ctx context.Context, pageURL string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	manifest, err := ing.openManifest()
	if err != nil {
		return nil, err
	}
	defer ing.closeManifest(manifest)

	var content string
	article, err := readability.FromURL(pageURL, fetchTimeout)
	if err == nil {
		content = article.Title + "\n\n" + article.TextContent
	} else {
		// Not every page is article-shaped. Fall back to plain
		// visible-text extraction before giving up.
		ing.logger.Warn("readability extraction failed, falling back to plain text",
			"url", pageURL, "error", err)
		content, err = fetchPlainText(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
		}
	}

	if err := ing.ingestContent(ctx, manifest, pageURL, Cleanup(content), knowledge.SourceTypeWeb, result); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// Crawl follows same-domain links from startURL up to depth and
// ingests the text of every page reached.
func (ing *Ingester) Crawl(ctx context.Context, startURL string, depth int) (*Result, error) {
	start := time.Now()
	result := &Result{}

	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parse crawl url: %w", err)
	}

	manifest, err := ing.openManifest()
	if err != nil {
		return nil, err
	}
	defer ing.closeManifest(manifest)

	c := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.MaxDepth(depth),
	)
	c.SetRequestTimeout(fetchTimeout)

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		_ = e.Request.Visit(e.Attr("href"))
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		text := pageText(e.DOM)
		if strings.TrimSpace(text) == "" {
			return
		}
		pageURL := e.Request.URL.String()
		if err := ing.ingestContent(ctx, manifest, pageURL, Cleanup(text), knowledge.SourceTypeWeb, result); err != nil {
			ing.logger.Warn("page ingestion failed", "url", pageURL, "error", err)
			result.SourcesFailed++
		}
	})

	if err := c.Visit(startURL); err != nil {
		return result, fmt.Errorf("crawl %s: %w", startURL, err)
	}
	c.Wait()

	result.Duration = time.Since(start)
	ing.logger.Info("crawl finished",
		"url", startURL,
		"added", result.SourcesAdded,
		"skipped", result.SourcesSkipped,
		"chunks", result.Chunks)
	return result, nil
}

// pageText strips boilerplate elements and returns the visible body
// text.
func pageText(sel *goquery.Selection) string {
	sel.Find("script, style, nav, header, footer, aside").Remove()
	return sel.Find("body").Text()
}

// skippedElements are elements whose text never belongs in the corpus.
var skippedElements = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
}

// fetchPlainText downloads a page and collects its visible text by
// walking the parsed node tree.
func fetchPlainText(ctx context.Context, pageURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String(), nil
}

// ingestContent chunks the cleaned content of one source, replaces the
// previous chunks for that source, and updates the manifest.
func (ing *Ingester) ingestContent(ctx context.Context, manifest *Manifest, source, content, sourceType string, result *Result) error {
	if content == "" {
		result.SourcesSkipped++
		return nil
	}

	hash := ContentHash(content)
	if manifest != nil && manifest.Unchanged(source, hash) {
		ing.logger.Debug("source unchanged", "source", source)
		result.SourcesSkipped++
		return nil
	}

	if _, err := ing.store.DeleteBySourceFile(ctx, source); err != nil {
		return fmt.Errorf("remove stale chunks: %w", err)
	}

	chunks := ing.chunker.Split(content)
	for i, chunk := range chunks {
		doc := knowledge.Document{
			ID:      chunkID(source, i),
			Content: chunk,
			Metadata: map[string]string{
				"source_type": sourceType,
				"source_file": source,
				"chunk_index": strconv.Itoa(i),
			},
			CreateAt: time.Now(),
		}
		if err := ing.store.Add(ctx, doc); err != nil {
			return fmt.Errorf("add chunk %d of %s: %w", i, source, err)
		}
	}

	if manifest != nil {
		manifest.Record(source, hash, len(chunks))
	}
	result.SourcesAdded++
	result.Chunks += len(chunks)
	return nil
}

func (ing *Ingester) openManifest() (*Manifest, error) {
	if ing.manifest == "" {
		return nil, nil
	}
	return OpenManifest(ing.manifest)
}

func (ing *Ingester) closeManifest(m *Manifest) {
	if m == nil {
		return
	}
	if err := m.Save(); err != nil {
		ing.logger.Error("manifest save failed", "error", err)
	}
	if err := m.Close(); err != nil {
		ing.logger.Error("manifest unlock failed", "error", err)
	}
}

func chunkID(source string, index int) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:8]) + "-" + strconv.Itoa(index)
}
