package engine

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"snipd/internal/logging"
	"snipd/internal/matcher"
	"snipd/internal/matches"
	"snipd/internal/render"
	"snipd/internal/secure"
)

// Dispatcher delivers a finished expansion to the focused application.
type Dispatcher interface {
	Backspace(count int) error
	DispatchText(body, html string, format matches.TextFormat, force *matches.InjectMode) error
	DispatchImage(path string) error
}

// Recorder journals completed expansions. Optional.
type Recorder interface {
	Record(matchID int, trigger, body string) error
}

type keyEvent struct {
	r         rune
	backspace bool
}

// Engine owns the processing loop. All match state (matcher buffer,
// snapshot swaps) is touched only from the loop goroutine; the public
// methods just enqueue.
type Engine struct {
	store      *matches.Store
	matchDirs  []string
	pipeline   *Pipeline
	dispatcher Dispatcher
	recorder   Recorder

	keys    chan keyEvent
	reloads <-chan struct{}
	secures <-chan secure.Event

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// Deps wires the engine's collaborators.
type Deps struct {
	Store      *matches.Store
	MatchDirs  []string
	Picker     MatchPicker
	Renderer   *render.Renderer
	Dispatcher Dispatcher
	Recorder   Recorder
	Reloads    <-chan struct{}
	Secures    <-chan secure.Event
}

// New assembles the engine and its pipeline.
func New(deps Deps) *Engine {
	e := &Engine{
		store:      deps.Store,
		matchDirs:  deps.MatchDirs,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		keys:       make(chan keyEvent, 256),
		reloads:    deps.Reloads,
		secures:    deps.Secures,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	e.pipeline = NewPipeline(
		matchMiddleware{},
		selectMiddleware{picker: deps.Picker},
		renderMiddleware{renderer: deps.Renderer, snapshot: e.store.Snapshot},
	)
	return e
}

// OnChar feeds one typed character into the loop.
func (e *Engine) OnChar(r rune) {
	select {
	case e.keys <- keyEvent{r: r}:
	default:
		logging.Dispatch("input queue full, dropping keystroke")
	}
}

// OnBackspace feeds a backspace into the loop.
func (e *Engine) OnBackspace() {
	select {
	case e.keys <- keyEvent{backspace: true}:
	default:
		logging.Dispatch("input queue full, dropping backspace")
	}
}

// Start loads the matches and launches the loop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	if err := e.reload(); err != nil {
		return err
	}
	go e.run(ctx)
	return nil
}

// Stop halts the loop and waits for it to drain.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	close(e.stopCh)
	<-e.doneCh
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	m := matcher.New(e.store.Snapshot())
	suspended := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return

		case key := <-e.keys:
			if suspended {
				continue
			}
			// The source id is minted at the keystroke so every derived
			// stage correlates back to it.
			origin := NewEvent(RawInput{Char: key.r, Backspace: key.backspace})
			if key.backspace {
				m.OnBackspace()
				continue
			}
			detections := m.OnChar(key.r)
			if len(detections) == 0 {
				continue
			}
			e.process(origin.derive(MatchFound{Detections: detections}))

		case <-e.reloads:
			if err := e.reload(); err != nil {
				logging.Store("reload failed, keeping previous matches: %v", err)
				continue
			}
			m = matcher.New(e.store.Snapshot())
			logging.Store("matches reloaded: %d active", e.store.Snapshot().Len())

		case ev := <-e.secures:
			switch ev.Kind {
			case secure.Enabled:
				suspended = true
				m.Reset()
				logging.Secure("expansions suspended while %s holds secure input", ev.App)
			case secure.Disabled:
				suspended = false
				logging.Secure("expansions resumed")
			}
		}
	}
}

// process runs one event through the pipeline and dispatches the outcome.
func (e *Engine) process(ev Event) {
	out := e.pipeline.Process(ev)

	switch payload := out.Payload.(type) {
	case Rendered:
		if !e.compensate(out, payload.Trigger+payload.Separator) {
			return
		}
		if err := e.dispatcher.DispatchText(payload.Body, payload.HTML, payload.Format, payload.ForceMode); err != nil {
			logging.Get(logging.CategoryDispatch).Error("dispatch failed (source %s): %v", out.SourceID, err)
			return
		}
		e.record(payload.MatchID, payload.Trigger, payload.Body)
		done := out.derive(Dispatched{MatchID: payload.MatchID})
		logging.Dispatch("expanded match %d (source %s)", payload.MatchID, done.SourceID)

	case ImageResolved:
		if !e.compensate(out, payload.Trigger+payload.Separator) {
			return
		}
		if err := e.dispatcher.DispatchImage(payload.Path); err != nil {
			logging.Get(logging.CategoryDispatch).Error("image dispatch failed (source %s): %v", out.SourceID, err)
			return
		}
		e.record(payload.MatchID, payload.Trigger, payload.Path)
		done := out.derive(Dispatched{MatchID: payload.MatchID})
		logging.Dispatch("expanded match %d image (source %s)", payload.MatchID, done.SourceID)

	case ProcessingError:
		logging.Get(logging.CategoryDispatch).Error("%s stage failed (source %s): %v", payload.Stage, out.SourceID, payload.Err)

	case NOOP:
		logging.DispatchDebug("event %s ended without dispatch", out.SourceID)
	}
}

// compensate erases the full typed region, trigger plus the separator that
// completed a right-word occurrence, before injection. Search-invoked
// expansions have no typed region and skip straight to dispatch.
func (e *Engine) compensate(ev Event, typed string) bool {
	comp := TriggerCompensation{Count: len([]rune(typed))}
	if comp.Count == 0 {
		return true
	}
	logging.DispatchDebug("erasing %d trigger chars (source %s)", comp.Count, ev.SourceID)
	if err := e.dispatcher.Backspace(comp.Count); err != nil {
		logging.Get(logging.CategoryDispatch).Error("trigger compensation failed (source %s): %v", ev.SourceID, err)
		return false
	}
	return true
}

func (e *Engine) record(matchID int, trigger, body string) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(matchID, trigger, body); err != nil {
		logging.Store("history record failed: %v", err)
	}
}

// reload re-scans the match directories and swaps the store snapshot.
func (e *Engine) reload() error {
	_, err := e.store.Reload(CollectMatchFiles(e.matchDirs))
	return err
}

// CollectMatchFiles lists the visible match definition files under the
// given roots. Hidden files and directories are skipped.
func CollectMatchFiles(dirs []string) []string {
	var files []string
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			base := filepath.Base(path)
			if d.IsDir() {
				if path != dir && strings.HasPrefix(base, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}
			if matches.IsSupportedExtension(strings.TrimPrefix(filepath.Ext(base), ".")) {
				files = append(files, path)
			}
			return nil
		})
	}
	return files
}
