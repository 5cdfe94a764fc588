package outline

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/testutil"
)

const validModelResponse = "제 1장 서론\n1.1. 연구의 배경 및 필요성\n\n제 2장 결론\n\n```json\n" +
	`{"title":"국내 탄소 배출 현황","chapters":[` +
	`{"heading":"제 1장 서론","sections":[{"heading":"1.1. 연구의 배경 및 필요성"}]},` +
	`{"heading":"제 2장 결론","sections":[{"heading":"2.1. 요약"}]}]}` +
	"\n```"

func TestSynthesize(t *testing.T) {
	ctx := context.Background()
	g := genkit.Init(ctx)

	mock := testutil.NewMockLLM(validModelResponse)
	mock.AddResponse("깨진 주제", "JSON이 없는 응답입니다.")
	mock.AddResponse("빈 목차", "```json\n{\"title\":\"제목\",\"chapters\":[]}\n```")
	mock.AddErrorResponse("장애 주제", errors.New("quota exceeded"))
	mock.RegisterModel(g)

	s, err := New(g, testutil.MockModelName, log.NewNop())
	require.NoError(t, err)

	t.Run("valid response", func(t *testing.T) {
		result, err := s.Synthesize(ctx, "국내 탄소 배출 현황")
		require.NoError(t, err)
		assert.Equal(t, "국내 탄소 배출 현황", result.Outline.Title)
		assert.Equal(t, 2, result.Outline.TotalSections())
		assert.Contains(t, result.Template, "제 1장 서론")
		assert.NotContains(t, result.Template, `"chapters"`)
	})

	t.Run("empty topic", func(t *testing.T) {
		_, err := s.Synthesize(ctx, "   ")
		assert.ErrorIs(t, err, ErrEmptyTopic)
	})

	t.Run("no JSON in response", func(t *testing.T) {
		_, err := s.Synthesize(ctx, "깨진 주제")
		assert.ErrorIs(t, err, ErrMalformedOutline)
	})

	t.Run("outline without chapters", func(t *testing.T) {
		_, err := s.Synthesize(ctx, "빈 목차")
		assert.ErrorIs(t, err, ErrMalformedOutline)
	})

	t.Run("model failure", func(t *testing.T) {
		_, err := s.Synthesize(ctx, "장애 주제")
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		result, err := parseResponse(validModelResponse)
		require.NoError(t, err)
		assert.Equal(t, "국내 탄소 배출 현황", result.Outline.Title)
		assert.Contains(t, result.Template, "1.1. 연구의 배경 및 필요성")
	})

	t.Run("bare json without fence", func(t *testing.T) {
		result, err := parseResponse(`양식 설명 {"title":"t","chapters":[{"heading":"h","sections":[{"heading":"s"}]}]}`)
		require.NoError(t, err)
		assert.Equal(t, "t", result.Outline.Title)
		assert.Equal(t, "양식 설명", result.Template)
	})

	t.Run("fence without json object", func(t *testing.T) {
		_, err := parseResponse("```\nplain text\n```")
		assert.ErrorIs(t, err, ErrMalformedOutline)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := parseResponse("```json\n{broken\n```")
		assert.ErrorIs(t, err, ErrMalformedOutline)
	})

	t.Run("no json at all", func(t *testing.T) {
		_, err := parseResponse("서론과 본론과 결론")
		assert.ErrorIs(t, err, ErrMalformedOutline)
	})
}
