package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/outline"
)

// ErrInvalidInput indicates the run was rejected before any event was
// emitted: blank topic, nil outline, or an outline with no sections.
var ErrInvalidInput = errors.New("invalid report input")

// Rewriter turns a section heading into a generation question.
type Rewriter interface {
	Rewrite(ctx context.Context, topic, heading string) string
}

// Generator produces the body of one section, streaming chunks to
// onChunk. An error returned by onChunk must abort the stream and come
// back from Generate unchanged.
type Generator interface {
	Generate(ctx context.Context, topic, question string, onChunk func(text string) error) (string, error)
}

// EmitFunc receives stream events in order. A non-nil return stops the
// run; the consumer is gone and nothing further is emitted.
type EmitFunc func(Event) error

// Orchestrator drives report generation over an outline.
type Orchestrator struct {
	rewriter  Rewriter
	generator Generator
	logger    log.Logger
}

func New(rewriter Rewriter, generator Generator, logger log.Logger) *Orchestrator {
	return &Orchestrator{rewriter: rewriter, generator: generator, logger: logger}
}

// emitFailure tags errors coming out of emit so they can be told apart
// from generation failures after the round trip through Generate.
type emitFailure struct {
	err error
}

func (e *emitFailure) Error() string { return e.err.Error() }
func (e *emitFailure) Unwrap() error { return e.err }

// Run generates the report for topic following the outline, emitting
// events in section order: a section_title, then the content chunks of
// that section, for every section, then exactly one done. A section
// whose generation fails produces an error event in place of its
// remaining content and the run moves on to the next section. Run
// returns a non-nil error only when nothing more will be emitted:
// invalid input, a cancelled context, or a failed emit.
func (o *Orchestrator) Run(ctx context.Context, topic string, ol *outline.Outline, emit EmitFunc) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidInput)
	}
	if ol == nil || len(ol.Chapters) == 0 {
		return fmt.Errorf("%w: outline has no chapters", ErrInvalidInput)
	}
	if ol.TotalSections() == 0 {
		return fmt.Errorf("%w: outline has no sections", ErrInvalidInput)
	}

	o.logger.Info("report run started", "topic", topic, "sections", ol.TotalSections())

	for _, chapter := range ol.Chapters {
		if len(chapter.Sections) == 0 {
			o.logger.Debug("skipping chapter without sections", "chapter", chapter.Heading)
			continue
		}
		for _, sec := range chapter.Sections {
			if err := o.runSection(ctx, topic, sec.Heading, emit); err != nil {
				return err
			}
		}
	}

	if err := emit(Done()); err != nil {
		return err
	}
	o.logger.Info("report run finished", "topic", topic)
	return nil
}

func (o *Orchestrator) runSection(ctx context.Context, topic, heading string, emit EmitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := emit(SectionTitle(heading)); err != nil {
		return err
	}

	question := o.rewriter.Rewrite(ctx, topic, heading)

	_, err := o.generator.Generate(ctx, topic, question, func(text string) error {
		if text == "" {
			return nil
		}
		if emitErr := emit(Content(text)); emitErr != nil {
			return &emitFailure{err: emitErr}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var ef *emitFailure
	if errors.As(err, &ef) {
		return ef.err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	o.logger.Error("section generation failed", "section", heading, "error", err)
	return emit(Error(fmt.Sprintf("'%s' 절 생성에 실패했습니다.", heading)))
}
