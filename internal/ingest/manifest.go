package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Manifest maps each ingested source to the SHA-256 of its cleaned
// content, so unchanged sources are skipped on re-ingestion. The file
// lives next to the document directory and is guarded with a file lock
// against concurrent ingest runs.
type Manifest struct {
	path    string
	lock    *flock.Flock
	Entries map[string]ManifestEntry `json:"entries"`
}

type ManifestEntry struct {
	Hash       string    `json:"hash"`
	Chunks     int       `json:"chunks"`
	IngestedAt time.Time `json:"ingestedAt"`
}

// OpenManifest acquires the manifest lock and loads the manifest at
// path, creating an empty one when the file does not exist. The caller
// must call Close.
func OpenManifest(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock manifest: %w", err)
	}

	m := &Manifest{path: path, lock: lock, Entries: make(map[string]ManifestEntry)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		_ = lock.Unlock()
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, m); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// Unchanged reports whether source was already ingested with the same
// content hash.
func (m *Manifest) Unchanged(source, hash string) bool {
	entry, ok := m.Entries[source]
	return ok && entry.Hash == hash
}

// Record stores the hash and chunk count for a source.
func (m *Manifest) Record(source, hash string, chunks int) {
	m.Entries[source] = ManifestEntry{Hash: hash, Chunks: chunks, IngestedAt: time.Now()}
}

// Remove drops the entry for a source.
func (m *Manifest) Remove(source string) {
	delete(m.Entries, source)
}

// Save writes the manifest atomically: temp file then rename.
func (m *Manifest) Save() error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Close releases the manifest lock.
func (m *Manifest) Close() error {
	return m.lock.Unlock()
}

// ContentHash returns the hex SHA-256 of cleaned content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
