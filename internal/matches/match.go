// Package matches defines the match data model (causes, effects, variables),
// the YAML match-group loader, and the id-indexed match store.
package matches

import "fmt"

// Params holds the free-form parameters of a variable.
type Params map[string]interface{}

// Variable is a named, typed value resolved at render time.
// Type is an open tag ("date", "shell", "form", ...) dispatched to a
// render extension.
type Variable struct {
	ID     int
	Name   string
	Type   string
	Params Params
}

// TextFormat describes how the replacement text should be interpreted
// at dispatch time.
type TextFormat int

const (
	FormatPlain TextFormat = iota
	FormatMarkdown
	FormatHTML
)

func (f TextFormat) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatHTML:
		return "html"
	default:
		return "plain"
	}
}

// InjectMode forces a specific dispatch strategy for a match.
type InjectMode int

const (
	InjectKeys InjectMode = iota
	InjectClipboard
)

func (m InjectMode) String() string {
	if m == InjectClipboard {
		return "clipboard"
	}
	return "keys"
}

// UppercaseStyle controls how case propagation rewrites the rendered body.
type UppercaseStyle int

const (
	StyleUppercase UppercaseStyle = iota
	StyleCapitalize
	StyleCapitalizeWords
)

func (s UppercaseStyle) String() string {
	switch s {
	case StyleCapitalize:
		return "capitalize"
	case StyleCapitalizeWords:
		return "capitalize_words"
	default:
		return "uppercase"
	}
}

// TriggerCause activates a match when one of its literal trigger strings
// is typed.
type TriggerCause struct {
	Triggers      []string
	LeftWord      bool
	RightWord     bool
	PropagateCase bool
	// UppercaseStyle is only observable when PropagateCase is true.
	UppercaseStyle UppercaseStyle
}

// RegexCause activates a match when the trailing input buffer satisfies
// the pattern. Named capture groups are exposed to the renderer.
type RegexCause struct {
	Regex string
}

// Cause is the closed set of activation conditions. Exactly one of the
// fields is non-nil; both nil means the match can only be invoked manually.
type Cause struct {
	Trigger *TriggerCause
	Regex   *RegexCause
}

// IsNone reports whether the match has no automatic activation condition.
func (c Cause) IsNone() bool {
	return c.Trigger == nil && c.Regex == nil
}

// Description gives a short human-readable summary of the cause, used as
// the tag in the search palette.
func (c Cause) Description() string {
	switch {
	case c.Trigger != nil && len(c.Trigger.Triggers) > 0:
		return c.Trigger.Triggers[0]
	case c.Regex != nil:
		return c.Regex.Regex
	default:
		return ""
	}
}

// TextEffect is a templated replacement.
type TextEffect struct {
	Replace   string
	Vars      []Variable
	Format    TextFormat
	ForceMode *InjectMode
}

// ImageEffect pastes an image from disk.
type ImageEffect struct {
	Path string
}

// Effect is the closed set of expansion payloads. Both fields nil means
// the match is valid but inert.
type Effect struct {
	Text  *TextEffect
	Image *ImageEffect
}

// IsNone reports whether the match produces no effect when triggered.
func (e Effect) IsNone() bool {
	return e.Text == nil && e.Image == nil
}

// Match binds a cause to an effect. Immutable after load; IDs are
// process-unique within one load session.
type Match struct {
	ID     int
	Label  string
	Cause  Cause
	Effect Effect
}

// Description returns the label if set, otherwise a preview of the effect.
func (m *Match) Description() string {
	if m.Label != "" {
		return m.Label
	}
	switch {
	case m.Effect.Text != nil:
		return m.Effect.Text.Replace
	case m.Effect.Image != nil:
		return fmt.Sprintf("Image: %s", m.Effect.Image.Path)
	default:
		return "(no effect)"
	}
}

// MatchGroup is the unit produced by loading one definition file.
// Imports hold resolved absolute paths of reachable sub-groups.
type MatchGroup struct {
	Imports    []string
	GlobalVars []Variable
	Matches    []Match
}

// IDAllocator hands out process-unique ids during one load session.
// It replaces a global counter: each load pass owns its own allocator.
type IDAllocator struct {
	next int
}

// NewIDAllocator returns an allocator starting at the given id.
func NewIDAllocator(start int) *IDAllocator {
	return &IDAllocator{next: start}
}

// Next returns the next unique id.
func (a *IDAllocator) Next() int {
	a.next++
	return a.next
}
