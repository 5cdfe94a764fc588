package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/bogoseo/bogoseo/internal/log"
)

const synthesizeTimeout = 60 * time.Second

const systemPrompt = `당신은 전문 보고서의 목차를 구조적으로 설계하는 AI 어시스턴트입니다.
주어진 주제에 대해 서론, 본론, 결론의 흐름을 갖춘 보고서 목차를 작성합니다.`

const promptTemplate = `다음 주제에 대한 전문 보고서의 목차를 작성해 주세요.

주제: %s

요구사항:
1. 먼저 보고서 양식을 서술형으로 작성합니다. 각 장은 "제 1장 서론"과 같은 형식으로,
   각 절은 "1.1. 연구의 배경 및 필요성"과 같은 번호 체계로 표기합니다.
2. 양식 다음에, 동일한 목차를 아래 스키마의 JSON으로 출력합니다.
   JSON은 반드시 ` + "```json" + ` 코드 블록 안에 작성합니다.

JSON 스키마:
{
  "title": "보고서 제목",
  "chapters": [
    {
      "heading": "제 1장 서론",
      "sections": [
        {"heading": "1.1. 연구의 배경 및 필요성"}
      ]
    }
  ]
}

양식과 JSON 코드 블록 외의 다른 설명은 출력하지 않습니다.`

// Result carries both renditions of the same outline: the narrative
// template shown to the user and the parsed structure fed to generation.
type Result struct {
	Template string
	Outline  Outline
}

// Synthesizer produces a report outline for a topic with a single
// model call.
type Synthesizer struct {
	g      *genkit.Genkit
	model  string
	schema *jsonschema.Resolved
	logger log.Logger
}

// New builds a Synthesizer bound to the given model name
// (e.g. "googleai/gemini-2.5-flash").
func New(g *genkit.Genkit, model string, logger log.Logger) (*Synthesizer, error) {
	schema, err := jsonschema.For[Outline](nil)
	if err != nil {
		return nil, fmt.Errorf("build outline schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve outline schema: %w", err)
	}
	return &Synthesizer{g: g, model: model, schema: resolved, logger: logger}, nil
}

// Synthesize asks the model for a template and outline on the topic.
// It returns ErrEmptyTopic for blank input, ErrUpstreamUnavailable when
// the model call fails, and ErrMalformedOutline when the response does
// not contain a valid outline.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	ctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()

	s.logger.Info("synthesizing outline", "topic", topic)

	resp, err := genkit.Generate(ctx, s.g,
		ai.WithModelName(s.model),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(fmt.Sprintf(promptTemplate, topic)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	result, err := parseResponse(resp.Text())
	if err != nil {
		s.logger.Warn("outline response rejected", "error", err)
		return nil, err
	}
	if err := s.validate(result.Outline); err != nil {
		s.logger.Warn("outline schema violation", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutline, err)
	}
	s.logger.Info("outline synthesized",
		"title", result.Outline.Title,
		"chapters", len(result.Outline.Chapters),
		"sections", result.Outline.TotalSections())
	return result, nil
}

func (s *Synthesizer) validate(o Outline) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return err
	}
	if err := s.schema.Validate(instance); err != nil {
		return err
	}
	return o.Validate()
}

// parseResponse splits the model text into the narrative template and
// the fenced JSON outline. The template is everything before the fence.
func parseResponse(text string) (*Result, error) {
	raw, before, ok := extractFencedJSON(text)
	if !ok {
		// Some models skip the fence and emit bare JSON.
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: no JSON block in response", ErrMalformedOutline)
		}
		raw = text[start : end+1]
		before = text[:start]
	}

	var o Outline
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutline, err)
	}

	template := strings.TrimSpace(before)
	if template == "" {
		template = strings.TrimSpace(strings.ReplaceAll(text, raw, ""))
		template = strings.Trim(template, "`json \n")
	}
	return &Result{Template: template, Outline: o}, nil
}

func extractFencedJSON(text string) (raw, before string, ok bool) {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(text, fence)
		if start < 0 {
			continue
		}
		bodyStart := start + len(fence)
		end := strings.Index(text[bodyStart:], "```")
		if end < 0 {
			continue
		}
		body := strings.TrimSpace(text[bodyStart : bodyStart+end])
		if !strings.HasPrefix(body, "{") {
			continue
		}
		return body, text[:start], true
	}
	return "", "", false
}
