package report

import (
	"context"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"

	"github.com/bogoseo/bogoseo/internal/outline"
)

// Input is the request payload for the report flow.
type Input struct {
	Topic   string          `json:"topic"`
	Outline outline.Outline `json:"outline"`
}

// Output is the non-streaming result: the assembled report text.
type Output struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FlowName is the registered name of the report flow in Genkit.
const FlowName = "bogoseo/report"

// Flow is the Genkit streaming flow type for report generation.
type Flow = core.Flow[Input, Output, Event]

// Singleton: genkit.DefineStreamingFlow panics on re-registration.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the report flow singleton, defining it on first call.
func NewFlow(g *genkit.Genkit, o *Orchestrator) *Flow {
	flowOnce.Do(func() {
		flow = o.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting clears the flow singleton. Tests only.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow registers the streaming flow. Streaming consumers get the
// event sequence chunk by chunk; non-streaming callers get the sections
// assembled into one document in Output.
//
// Use NewFlow instead of calling this directly.
func (o *Orchestrator) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, Event) error) (Output, error) {
			var doc strings.Builder

			emit := func(ev Event) error {
				switch ev.Type {
				case EventSectionTitle:
					doc.WriteString("\n\n")
					doc.WriteString(ev.Payload)
					doc.WriteString("\n\n")
				case EventContent:
					doc.WriteString(ev.Payload)
				case EventError:
					doc.WriteString(ev.Payload)
				}
				if streamCb != nil {
					return streamCb(ctx, ev)
				}
				return nil
			}

			if err := o.Run(ctx, input.Topic, &input.Outline, emit); err != nil {
				return Output{Title: input.Outline.Title}, err
			}
			return Output{
				Title:   input.Outline.Title,
				Content: strings.TrimSpace(doc.String()),
			}, nil
		},
	)
}
