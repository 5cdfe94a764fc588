// Package section generates the body text of a single report section,
// grounded on retrieved document chunks and emissions statistics.
package section

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/bogoseo/bogoseo/internal/emissions"
	"github.com/bogoseo/bogoseo/internal/knowledge"
	"github.com/bogoseo/bogoseo/internal/log"
)

// ErrGenerationFailed indicates the model stream failed before the
// section body was complete.
var ErrGenerationFailed = errors.New("section generation failed")

const systemPrompt = `당신은 전문 보고서를 작성하는 AI 어시스턴트입니다.
제공된 참고 자료를 근거로 보고서의 한 절을 서술형으로 작성합니다.`

const promptTemplate = `보고서 주제: %s

작성할 내용에 대한 질문: %s

%s

작성 지침:
1. 전문적이고 객관적인 문체의 서술형 문단으로 작성합니다.
2. "분석 결과에 따르면"과 같은 표현으로 문장을 시작하지 않습니다.
3. 참고 자료가 있으면 그 내용을 근거로 작성하고, 수치는 자료에 있는 값만 사용합니다.
4. 제목이나 번호 없이 본문만 작성합니다.`

const noContextNote = `참고 자료: 제공된 자료가 없습니다. 일반적인 지식을 바탕으로 작성하되, 구체적인 수치는 제시하지 않습니다.`

// Retriever finds document chunks relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Analyzer aggregates emissions statistics for a filter.
type Analyzer interface {
	Summary(ctx context.Context, f emissions.Filter) (*emissions.Summary, error)
}

// Generator produces section bodies. Retrieval and statistics are best
// effort: when either fails the section is still generated, with the
// failure logged and the remaining grounding used.
type Generator struct {
	g         *genkit.Genkit
	model     string
	retriever Retriever
	analyzer  Analyzer
	limiter   *rate.Limiter
	topK      int
	logger    log.Logger
}

func New(g *genkit.Genkit, model string, retriever Retriever, analyzer Analyzer, limiter *rate.Limiter, topK int, logger log.Logger) *Generator {
	return &Generator{
		g:         g,
		model:     model,
		retriever: retriever,
		analyzer:  analyzer,
		limiter:   limiter,
		topK:      topK,
		logger:    logger,
	}
}

// Generate streams the body for one section. Each model chunk is passed
// to onChunk as it arrives; an error from onChunk aborts the stream and
// is returned as-is. The full body is returned on success.
func (gen *Generator) Generate(ctx context.Context, topic, question string, onChunk func(text string) error) (string, error) {
	if gen.limiter != nil {
		if err := gen.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	grounding := gen.grounding(ctx, question)

	var cbErr error
	resp, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.model),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(fmt.Sprintf(promptTemplate, topic, question, grounding)),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			if onChunk == nil {
				return nil
			}
			if err := onChunk(chunk.Text()); err != nil {
				cbErr = err
				return err
			}
			return nil
		}),
	)
	if err != nil {
		if cbErr != nil {
			return "", cbErr
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return resp.Text(), nil
}

// grounding assembles the reference material block: retrieved chunks
// first, then the emissions summary when the question touches the data.
func (gen *Generator) grounding(ctx context.Context, question string) string {
	var parts []string

	if gen.retriever != nil {
		results, err := gen.retriever.Search(ctx, question, knowledge.WithTopK(gen.topK))
		if err != nil {
			gen.logger.Warn("retrieval failed, generating without documents", "error", err)
		} else {
			for _, r := range results {
				parts = append(parts, r.Document.Content)
			}
		}
	}

	if gen.analyzer != nil {
		filter := emissions.FilterFromQuestion(question)
		summary, err := gen.analyzer.Summary(ctx, filter)
		if err != nil {
			gen.logger.Warn("emissions summary failed, generating without statistics", "error", err)
		} else if !summary.Empty() {
			parts = append(parts, summary.String())
		}
	}

	if len(parts) == 0 {
		return noContextNote
	}
	return "참고 자료:\n" + strings.Join(parts, "\n\n")
}
