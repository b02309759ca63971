package inject

import (
	"fmt"

	"snipd/internal/logging"
	"snipd/internal/matches"
)

// Backend selects how expansions reach the focused application.
type Backend string

const (
	// BackendAuto injects plain text directly and falls back to the
	// clipboard for rich content.
	BackendAuto Backend = "auto"
	// BackendKeys always injects key events.
	BackendKeys Backend = "keys"
	// BackendClipboard always goes through the clipboard and a paste combo.
	BackendClipboard Backend = "clipboard"
)

// Dispatcher owns the final step of an expansion: removing the typed
// trigger and delivering the rendered body.
type Dispatcher struct {
	injector Injector
	clip     Clipboard
	backend  Backend
	opts     Options
}

// NewDispatcher wires the injection capabilities together.
func NewDispatcher(injector Injector, clip Clipboard, backend Backend, opts Options) *Dispatcher {
	if backend == "" {
		backend = BackendAuto
	}
	return &Dispatcher{injector: injector, clip: clip, backend: backend, opts: opts}
}

// Backspace erases count characters in front of the cursor, removing the
// typed trigger before injection.
func (d *Dispatcher) Backspace(count int) error {
	if count <= 0 {
		return nil
	}
	return d.injector.SendKeys(Backspaces(count), d.opts)
}

// DispatchText injects the rendered body. The match-level forced mode wins
// over the configured backend.
func (d *Dispatcher) DispatchText(body, html string, format matches.TextFormat, force *matches.InjectMode) error {
	mode := d.resolveMode(format, force)
	logging.Inject("dispatching %d bytes via %s", len(body), mode)

	switch mode {
	case matches.InjectKeys:
		return d.injector.SendText(body, d.opts)
	case matches.InjectClipboard:
		if format == matches.FormatPlain {
			if err := d.clip.SetText(body); err != nil {
				return err
			}
		} else {
			if err := d.clip.SetHTML(html, body); err != nil {
				return err
			}
		}
		return d.injector.Paste(d.opts)
	default:
		return fmt.Errorf("unknown inject mode %v", mode)
	}
}

// DispatchImage pastes an image from disk.
func (d *Dispatcher) DispatchImage(path string) error {
	if err := d.clip.SetImage(path); err != nil {
		return err
	}
	return d.injector.Paste(d.opts)
}

func (d *Dispatcher) resolveMode(format matches.TextFormat, force *matches.InjectMode) matches.InjectMode {
	if force != nil {
		return *force
	}
	switch d.backend {
	case BackendKeys:
		return matches.InjectKeys
	case BackendClipboard:
		return matches.InjectClipboard
	default:
		// Rich content cannot travel as key events.
		if format != matches.FormatPlain {
			return matches.InjectClipboard
		}
		return matches.InjectKeys
	}
}
