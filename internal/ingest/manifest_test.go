package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	m, err := OpenManifest(path)
	require.NoError(t, err)

	hash := ContentHash("본문 내용")
	assert.False(t, m.Unchanged("docs/report.txt", hash))

	m.Record("docs/report.txt", hash, 7)
	require.NoError(t, m.Save())
	require.NoError(t, m.Close())

	reopened, err := OpenManifest(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, reopened.Close()) }()

	assert.True(t, reopened.Unchanged("docs/report.txt", hash))
	assert.False(t, reopened.Unchanged("docs/report.txt", ContentHash("다른 내용")))
	assert.False(t, reopened.Unchanged("docs/other.txt", hash))
	assert.Equal(t, 7, reopened.Entries["docs/report.txt"].Chunks)
}

func TestManifestMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "manifest.json")

	m, err := OpenManifest(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Close()) }()

	assert.Empty(t, m.Entries)
}

func TestContentHashDeterministic(t *testing.T) {
	assert.Equal(t, ContentHash("가나다"), ContentHash("가나다"))
	assert.NotEqual(t, ContentHash("가나다"), ContentHash("가나라"))
	assert.Len(t, ContentHash("x"), 64)
}
