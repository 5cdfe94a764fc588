// Package question rewrites outline section headings into retrieval
// questions. A heading like "1.1. 연구의 배경 및 필요성" is a poor search
// query on its own; anchoring it to the report topic yields a question
// the retriever and generator can actually work with.
package question

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/bogoseo/bogoseo/internal/log"
)

const rewriteTimeout = 20 * time.Second

const promptTemplate = `보고서 주제와 절 제목이 주어집니다. 이 절의 본문을 작성하기 위해
자료를 검색하고 내용을 생성할 때 사용할 구체적인 질문 한 문장으로 바꿔 주세요.

주제: %s
절 제목: %s

질문 한 문장만 출력하고, 다른 설명은 붙이지 않습니다.`

// Rewriter turns section headings into generation questions.
type Rewriter struct {
	g      *genkit.Genkit
	model  string
	logger log.Logger
}

func New(g *genkit.Genkit, model string, logger log.Logger) *Rewriter {
	return &Rewriter{g: g, model: model, logger: logger}
}

// Rewrite returns a question for the heading in the context of the
// topic. Rewriting is best effort: on a model failure or an empty
// response the raw heading is returned, never an error and never an
// empty string. A heading for which not even the fallback exists is
// the caller's bug, so blank input yields blank output.
func (r *Rewriter) Rewrite(ctx context.Context, topic, heading string) string {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, rewriteTimeout)
	defer cancel()

	resp, err := genkit.Generate(ctx, r.g,
		ai.WithModelName(r.model),
		ai.WithPrompt(fmt.Sprintf(promptTemplate, topic, heading)),
	)
	if err != nil {
		r.logger.Warn("question rewrite failed, using heading", "heading", heading, "error", err)
		return heading
	}

	question := strings.TrimSpace(resp.Text())
	if question == "" {
		r.logger.Warn("question rewrite returned empty text, using heading", "heading", heading)
		return heading
	}
	return question
}
