package section

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/bogoseo/bogoseo/internal/emissions"
	"github.com/bogoseo/bogoseo/internal/knowledge"
	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/testutil"
)

type stubRetriever struct {
	results []knowledge.Result
	err     error
	queries []string
}

func (s *stubRetriever) Search(_ context.Context, query string, _ ...knowledge.SearchOption) ([]knowledge.Result, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

type stubAnalyzer struct {
	summary *emissions.Summary
	err     error
}

func (s *stubAnalyzer) Summary(context.Context, emissions.Filter) (*emissions.Summary, error) {
	return s.summary, s.err
}

func newTestGenerator(t *testing.T, mock *testutil.MockLLM, retriever Retriever, analyzer Analyzer) *Generator {
	t.Helper()
	g := genkit.Init(context.Background())
	mock.RegisterModel(g)
	limiter := rate.NewLimiter(rate.Inf, 1)
	return New(g, testutil.MockModelName, retriever, analyzer, limiter, 3, log.NewNop())
}

func TestGenerateStreamsChunks(t *testing.T) {
	mock := testutil.NewMockLLM("")
	mock.AddStreamResponse("배경", []string{"국내 탄소 배출량은 ", "정체 추세를 보인다."})

	retriever := &stubRetriever{results: []knowledge.Result{
		{Document: knowledge.Document{Content: "2022년 국가 온실가스 배출량 자료"}},
	}}
	gen := newTestGenerator(t, mock, retriever, &stubAnalyzer{})

	var chunks []string
	body, err := gen.Generate(context.Background(), "국내 탄소 배출 현황", "연구의 배경은 무엇인가?", func(text string) error {
		chunks = append(chunks, text)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"국내 탄소 배출량은 ", "정체 추세를 보인다."}, chunks)
	assert.Equal(t, "국내 탄소 배출량은 정체 추세를 보인다.", body)
	require.Len(t, retriever.queries, 1)
	assert.Equal(t, "연구의 배경은 무엇인가?", retriever.queries[0])
}

func TestGenerateIncludesGrounding(t *testing.T) {
	mock := testutil.NewMockLLM("본문")
	retriever := &stubRetriever{results: []knowledge.Result{
		{Document: knowledge.Document{Content: "검색된 청크 하나"}},
	}}
	analyzer := &stubAnalyzer{summary: &emissions.Summary{
		Count: 10, Total: 6500.0, FirstYear: 2018, LastYear: 2022,
	}}
	gen := newTestGenerator(t, mock, retriever, analyzer)

	_, err := gen.Generate(context.Background(), "주제", "부문별 배출 현황은?", nil)
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].UserMessage, "검색된 청크 하나")
	assert.Contains(t, calls[0].UserMessage, "총배출량은 6500.0 ktCO2eq")
}

func TestGenerateDegradesWhenGroundingFails(t *testing.T) {
	mock := testutil.NewMockLLM("자료 없이 작성한 본문")
	retriever := &stubRetriever{err: errors.New("connection refused")}
	analyzer := &stubAnalyzer{err: errors.New("table missing")}
	gen := newTestGenerator(t, mock, retriever, analyzer)

	body, err := gen.Generate(context.Background(), "주제", "질문", nil)
	require.NoError(t, err)
	assert.Equal(t, "자료 없이 작성한 본문", body)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].UserMessage, "제공된 자료가 없습니다")
}

func TestGenerateModelFailure(t *testing.T) {
	mock := testutil.NewMockLLM("")
	mock.AddErrorResponse("실패 질문", errors.New("stream reset"))
	gen := newTestGenerator(t, mock, &stubRetriever{}, &stubAnalyzer{})

	_, err := gen.Generate(context.Background(), "주제", "실패 질문", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateCallbackErrorPropagates(t *testing.T) {
	mock := testutil.NewMockLLM("")
	mock.AddStreamResponse("질문", []string{"첫 청크", "둘째 청크"})
	gen := newTestGenerator(t, mock, &stubRetriever{}, &stubAnalyzer{})

	sentinel := errors.New("client gone")
	_, err := gen.Generate(context.Background(), "주제", "질문", func(string) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}
