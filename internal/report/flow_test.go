package report

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogoseo/bogoseo/internal/log"
)

func TestFlowStream(t *testing.T) {
	ResetFlowForTesting()
	t.Cleanup(ResetFlowForTesting)

	ctx := context.Background()
	g := genkit.Init(ctx)
	o := New(fakeRewriter{}, &fakeGenerator{}, log.NewNop())
	flow := NewFlow(g, o)

	input := Input{Topic: "국내 탄소 배출 현황", Outline: *testOutline()}

	var events []Event
	var output Output
	for streamValue, err := range flow.Stream(ctx, input) {
		require.NoError(t, err)
		if streamValue.Done {
			output = streamValue.Output
			break
		}
		events = append(events, streamValue.Stream)
	}

	require.NotEmpty(t, events)
	assert.Equal(t, EventSectionTitle, events[0].Type)
	assert.Equal(t, EventDone, events[len(events)-1].Type)

	assert.Equal(t, "국내 탄소 배출 현황", output.Title)
	assert.Contains(t, output.Content, "1.1. 연구의 배경 및 필요성")
	assert.Contains(t, output.Content, "2.1. 요약 본문 전반.")
}

func TestFlowInvalidInput(t *testing.T) {
	ResetFlowForTesting()
	t.Cleanup(ResetFlowForTesting)

	ctx := context.Background()
	g := genkit.Init(ctx)
	o := New(fakeRewriter{}, &fakeGenerator{}, log.NewNop())
	flow := NewFlow(g, o)

	_, err := flow.Run(ctx, Input{Topic: "", Outline: *testOutline()})
	assert.Error(t, err)
}

func TestNewFlowReturnsSingleton(t *testing.T) {
	ResetFlowForTesting()
	t.Cleanup(ResetFlowForTesting)

	ctx := context.Background()
	g := genkit.Init(ctx)
	o := New(fakeRewriter{}, &fakeGenerator{}, log.NewNop())

	first := NewFlow(g, o)
	second := NewFlow(g, o)
	assert.Same(t, first, second)
}
