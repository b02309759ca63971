package engine

import (
	"errors"

	"snipd/internal/logging"
	"snipd/internal/matcher"
	"snipd/internal/matches"
	"snipd/internal/render"
)

// Middleware transforms one pipeline event. A middleware that does not
// recognize the payload must return the event unchanged.
type Middleware interface {
	Name() string
	Next(ev Event) Event
}

// Pipeline runs events through its middlewares in order, stopping early on
// terminal payloads.
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline builds a pipeline in execution order.
func NewPipeline(middlewares ...Middleware) *Pipeline {
	return &Pipeline{middlewares: middlewares}
}

// Process runs one event to its terminal payload.
func (p *Pipeline) Process(ev Event) Event {
	for _, m := range p.middlewares {
		ev = m.Next(ev)
		switch ev.Payload.(type) {
		case NOOP, ProcessingError:
			return ev
		}
	}
	return ev
}

// matchMiddleware routes detections: a single one straight to rendering, an
// ambiguous set to selection.
type matchMiddleware struct{}

func (matchMiddleware) Name() string { return "match" }

func (matchMiddleware) Next(ev Event) Event {
	found, ok := ev.Payload.(MatchFound)
	if !ok {
		return ev
	}
	switch len(found.Detections) {
	case 0:
		return ev.derive(NOOP{})
	case 1:
		return ev.derive(RenderingRequested{Detection: found.Detections[0]})
	default:
		logging.Dispatch("%d ambiguous detections, requesting selection (source %s)", len(found.Detections), ev.SourceID)
		return ev.derive(SelectionRequested{Detections: found.Detections})
	}
}

// MatchPicker narrows ambiguous detections to at most one.
type MatchPicker interface {
	Select(detections []matcher.Detection) (matcher.Detection, bool)
}

// selectMiddleware resolves ambiguity through the picker. A cancelled or
// failed pick ends the event silently.
type selectMiddleware struct {
	picker MatchPicker
}

func (selectMiddleware) Name() string { return "select" }

func (s selectMiddleware) Next(ev Event) Event {
	req, ok := ev.Payload.(SelectionRequested)
	if !ok {
		return ev
	}
	d, picked := s.picker.Select(req.Detections)
	if !picked {
		return ev.derive(NOOP{})
	}
	return ev.derive(RenderingRequested{Detection: d})
}

// SnapshotProvider yields the match set a render runs against.
type SnapshotProvider func() *matches.Snapshot

// renderMiddleware expands the selected detection. User aborts become
// silent no-ops; real failures become processing errors.
type renderMiddleware struct {
	renderer *render.Renderer
	snapshot SnapshotProvider
}

func (renderMiddleware) Name() string { return "render" }

func (r renderMiddleware) Next(ev Event) Event {
	req, ok := ev.Payload.(RenderingRequested)
	if !ok {
		return ev
	}
	d := req.Detection

	res, err := r.renderer.Render(r.snapshot(), render.Request{
		MatchID: d.MatchID,
		Trigger: d.Trigger,
		Style:   d.Style,
		Args:    d.Args,
	})
	switch {
	case errors.Is(err, render.ErrAborted):
		logging.Dispatch("render aborted by user (source %s)", ev.SourceID)
		return ev.derive(NOOP{})
	case errors.Is(err, render.ErrNoEffect):
		return ev.derive(NOOP{})
	case err != nil:
		return ev.derive(ProcessingError{Stage: "render", Err: err})
	}

	if res.ImagePath != "" {
		return ev.derive(ImageResolved{MatchID: d.MatchID, Trigger: d.Trigger, Separator: d.Separator, Path: res.ImagePath})
	}

	// The separator that completed a right-word trigger is part of what the
	// user typed: it gets erased with the trigger, so the body re-emits it.
	rendered := Rendered{
		MatchID:   d.MatchID,
		Trigger:   d.Trigger,
		Separator: d.Separator,
		Body:      res.Body + d.Separator,
		Format:    res.Format,
		ForceMode: res.ForceMode,
	}
	if res.Format == matches.FormatMarkdown {
		html, err := render.MarkdownToHTML(res.Body)
		if err != nil {
			return ev.derive(ProcessingError{Stage: "render", Err: err})
		}
		rendered.HTML = html
	} else if res.Format == matches.FormatHTML {
		rendered.HTML = res.Body
	}
	return ev.derive(rendered)
}
