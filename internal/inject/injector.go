package inject

import "time"

// DefaultKeyDelay paces individual key events when a backend types key by
// key. Too small and slow applications drop events.
const DefaultKeyDelay = 2 * time.Millisecond

// Options tune a single injection call.
type Options struct {
	// KeyDelay is the pause between individual key events. Zero means
	// DefaultKeyDelay.
	KeyDelay time.Duration

	// DisableFastInject forces key-by-key injection instead of handing the
	// whole string to the backend in one call. Slower but compatible with
	// applications that miss batched events.
	DisableFastInject bool
}

func (o Options) keyDelay() time.Duration {
	if o.KeyDelay <= 0 {
		return DefaultKeyDelay
	}
	return o.KeyDelay
}

// Injector emits synthetic input into the focused application.
type Injector interface {
	// SendText types a string.
	SendText(text string, opts Options) error
	// SendKeys presses a sequence of logical keys.
	SendKeys(keys []Key, opts Options) error
	// Paste asks the focused application to paste the clipboard.
	Paste(opts Options) error
}

// Clipboard stores content for paste-based dispatch.
type Clipboard interface {
	// SetText replaces the clipboard with plain text.
	SetText(text string) error
	// SetHTML replaces the clipboard with an HTML payload, falling back to
	// the plain-text alternative where rich clipboards are unsupported.
	SetHTML(html, fallback string) error
	// SetImage loads an image file onto the clipboard.
	SetImage(path string) error
}
