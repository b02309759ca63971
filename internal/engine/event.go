// Package engine runs the daemon's processing loop: keystrokes in, match
// detection, rendering, and dispatch out, with live reload and secure-input
// suspension folded into the same loop.
package engine

import (
	"github.com/google/uuid"

	"snipd/internal/matcher"
	"snipd/internal/matches"
)

// Event travels through the middleware pipeline. SourceID ties every
// derived event back to the keystroke that started it, which makes log
// correlation across stages possible.
type Event struct {
	SourceID uuid.UUID
	Payload  Payload
}

// NewEvent tags a payload with a fresh source id.
func NewEvent(p Payload) Event {
	return Event{SourceID: uuid.New(), Payload: p}
}

// derive keeps the source id while swapping the payload.
func (e Event) derive(p Payload) Event {
	return Event{SourceID: e.SourceID, Payload: p}
}

// Payload is the closed set of pipeline stages an event can be in.
type Payload interface{ isPayload() }

// RawInput is the origin stage: one keystroke as received.
type RawInput struct {
	Char      rune
	Backspace bool
}

// MatchFound carries the detections produced by one keystroke.
type MatchFound struct {
	Detections []matcher.Detection
}

// SelectionRequested asks the user to pick among ambiguous detections.
type SelectionRequested struct {
	Detections []matcher.Detection
}

// RenderingRequested asks the renderer to expand one detection.
type RenderingRequested struct {
	Detection matcher.Detection
}

// Rendered is expanded text ready for dispatch. HTML is populated for rich
// formats so the dispatcher never re-renders. Body already ends with the
// right-word separator when one completed the trigger.
type Rendered struct {
	MatchID   int
	Trigger   string
	Separator string
	Body      string
	HTML      string
	Format    matches.TextFormat
	ForceMode *matches.InjectMode
}

// ImageResolved is an image expansion ready for dispatch.
type ImageResolved struct {
	MatchID   int
	Trigger   string
	Separator string
	Path      string
}

// TriggerCompensation erases the typed trigger before injection.
type TriggerCompensation struct {
	Count int
}

// Dispatched marks a completed expansion.
type Dispatched struct {
	MatchID int
}

// NOOP ends processing silently: nothing matched, or the user backed out.
type NOOP struct{}

// ProcessingError ends processing with a logged failure. The typed text is
// left untouched.
type ProcessingError struct {
	Stage string
	Err   error
}

func (RawInput) isPayload()            {}
func (TriggerCompensation) isPayload() {}
func (MatchFound) isPayload()          {}
func (SelectionRequested) isPayload()  {}
func (RenderingRequested) isPayload()  {}
func (Rendered) isPayload()            {}
func (ImageResolved) isPayload()       {}
func (Dispatched) isPayload()          {}
func (NOOP) isPayload()                {}
func (ProcessingError) isPayload()     {}
