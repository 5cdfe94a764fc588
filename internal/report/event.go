// Package report orchestrates full report generation: walking the
// outline section by section and streaming the result as an ordered
// sequence of events.
package report

// DoneMessage is the payload of the single terminal done event.
const DoneMessage = "보고서 생성이 완료되었습니다."

// EventType discriminates the report stream events.
type EventType string

const (
	EventSectionTitle EventType = "section_title"
	EventContent      EventType = "content"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Event is one element of the report stream. The JSON shape is part of
// the streaming API contract.
type Event struct {
	Type    EventType `json:"type"`
	Payload string    `json:"payload"`
}

// SectionTitle announces the section whose content follows.
func SectionTitle(heading string) Event {
	return Event{Type: EventSectionTitle, Payload: heading}
}

// Content carries one text chunk of the current section body.
func Content(text string) Event {
	return Event{Type: EventContent, Payload: text}
}

// Done is the terminal event. Emitted exactly once per run, after the
// last section, regardless of how many sections failed.
func Done() Event {
	return Event{Type: EventDone, Payload: DoneMessage}
}

// Error reports a failed section. The stream continues with the next
// section afterwards.
func Error(message string) Event {
	return Event{Type: EventError, Payload: message}
}
