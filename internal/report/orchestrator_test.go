package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/outline"
)

// fakeRewriter prefixes headings so tests can verify the question
// reached the generator.
type fakeRewriter struct{}

func (fakeRewriter) Rewrite(_ context.Context, _, heading string) string {
	return "질문: " + heading
}

// fakeGenerator streams two chunks per section and fails on headings
// registered in failOn.
type fakeGenerator struct {
	failOn map[string]error
}

func (f *fakeGenerator) Generate(_ context.Context, _, question string, onChunk func(string) error) (string, error) {
	heading := strings.TrimPrefix(question, "질문: ")
	if err, ok := f.failOn[heading]; ok {
		return "", err
	}
	chunks := []string{heading + " 본문 전반. ", heading + " 본문 후반."}
	for _, chunk := range chunks {
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}
	return strings.Join(chunks, ""), nil
}

func testOutline() *outline.Outline {
	return &outline.Outline{
		Title: "국내 탄소 배출 현황",
		Chapters: []outline.Chapter{
			{Heading: "제 1장 서론", Sections: []outline.Section{
				{Heading: "1.1. 연구의 배경 및 필요성"},
				{Heading: "1.2. 연구의 범위"},
			}},
			{Heading: "빈 장"},
			{Heading: "제 2장 결론", Sections: []outline.Section{
				{Heading: "2.1. 요약"},
			}},
		},
	}
}

func collectEvents(t *testing.T, o *Orchestrator, topic string, ol *outline.Outline) ([]Event, error) {
	t.Helper()
	var events []Event
	err := o.Run(context.Background(), topic, ol, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	return events, err
}

func TestRunEventOrdering(t *testing.T) {
	o := New(fakeRewriter{}, &fakeGenerator{}, log.NewNop())
	events, err := collectEvents(t, o, "국내 탄소 배출 현황", testOutline())
	require.NoError(t, err)

	var types []EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{
		EventSectionTitle, EventContent, EventContent,
		EventSectionTitle, EventContent, EventContent,
		EventSectionTitle, EventContent, EventContent,
		EventDone,
	}, types)

	assert.Equal(t, "1.1. 연구의 배경 및 필요성", events[0].Payload)
	assert.Equal(t, "1.2. 연구의 범위", events[3].Payload)
	assert.Equal(t, "2.1. 요약", events[6].Payload)
	assert.Equal(t, DoneMessage, events[9].Payload)

	// Content chunks belong to the most recent section title.
	assert.Contains(t, events[1].Payload, "1.1. 연구의 배경 및 필요성")
	assert.Contains(t, events[7].Payload, "2.1. 요약")
}

func TestRunSectionFailureIsContained(t *testing.T) {
	gen := &fakeGenerator{failOn: map[string]error{
		"1.2. 연구의 범위": errors.New("provider stream reset"),
	}}
	o := New(fakeRewriter{}, gen, log.NewNop())

	events, err := collectEvents(t, o, "국내 탄소 배출 현황", testOutline())
	require.NoError(t, err)

	var types []EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{
		EventSectionTitle, EventContent, EventContent,
		EventSectionTitle, EventError,
		EventSectionTitle, EventContent, EventContent,
		EventDone,
	}, types)
	assert.Contains(t, events[4].Payload, "1.2. 연구의 범위")

	// Exactly one terminal done event.
	done := 0
	for _, ev := range events {
		if ev.Type == EventDone {
			done++
		}
	}
	assert.Equal(t, 1, done)
}

func TestRunInvalidInput(t *testing.T) {
	o := New(fakeRewriter{}, &fakeGenerator{}, log.NewNop())

	tests := []struct {
		name    string
		topic   string
		outline *outline.Outline
	}{
		{name: "empty topic", topic: "  ", outline: testOutline()},
		{name: "nil outline", topic: "주제", outline: nil},
		{name: "no chapters", topic: "주제", outline: &outline.Outline{Title: "t"}},
		{name: "no sections", topic: "주제", outline: &outline.Outline{
			Title:    "t",
			Chapters: []outline.Chapter{{Heading: "장"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := collectEvents(t, o, tt.topic, tt.outline)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, events, "no events before validation")
		})
	}
}

func TestRunEmitFailureStopsRun(t *testing.T) {
	o := New(fakeRewriter{}, &fakeGenerator{}, log.NewNop())

	sentinel := errors.New("consumer gone")
	count := 0
	err := o.Run(context.Background(), "주제", testOutline(), func(ev Event) error {
		count++
		if count == 3 {
			return sentinel
		}
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, count)
}

func TestRunContextCancellation(t *testing.T) {
	o := New(fakeRewriter{}, &fakeGenerator{}, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	err := o.Run(ctx, "주제", testOutline(), func(ev Event) error {
		count++
		if count == 2 {
			cancel()
		}
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEventJSONShape(t *testing.T) {
	data, err := json.Marshal(SectionTitle("1.1. 연구의 배경 및 필요성"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"section_title","payload":"1.1. 연구의 배경 및 필요성"}`, string(data))

	data, err = json.Marshal(Done())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"done","payload":"보고서 생성이 완료되었습니다."}`, string(data))
}
