package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerShortText(t *testing.T) {
	c := NewChunker()
	assert.Nil(t, c.Split(""))
	assert.Equal(t, []string{"짧은 본문"}, c.Split("짧은 본문"))
}

func TestChunkerSizeAndOverlap(t *testing.T) {
	c := NewChunker()

	sentence := "국내 탄소 배출량은 최근 십 년간 완만한 정체 추세를 보이고 있다. "
	text := strings.TrimSpace(strings.Repeat(sentence, 200))

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), DefaultChunkSize, "chunk %d too large", i)
		assert.NotEmpty(t, chunk)
	}

	// Consecutive chunks share overlapping text.
	for i := 1; i < len(chunks); i++ {
		tail := []rune(chunks[i-1])
		overlap := strings.TrimSpace(string(tail[len(tail)-30:]))
		assert.Contains(t, chunks[i], overlap,
			"chunk %d should carry context from chunk %d", i, i-1)
	}
}

func TestChunkerPrefersParagraphBoundaries(t *testing.T) {
	c := &Chunker{Size: 100, Overlap: 10}

	para := strings.Repeat("가", 80)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := c.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, para, chunks[0])
}

func TestChunkerNoSeparators(t *testing.T) {
	c := &Chunker{Size: 50, Overlap: 5}
	text := strings.Repeat("가", 120)

	chunks := c.Split(text)
	require.GreaterOrEqual(t, len(chunks), 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 50)
	}
}
