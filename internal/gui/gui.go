// Package gui defines the capability interfaces through which the engine
// talks to interactive dialogs. Implementations block until the user
// answers; the processing goroutine waits.
package gui

// SearchItem is one row of the search palette.
type SearchItem struct {
	ID    int
	Label string
	// Tag is a short hint shown next to the label, usually the trigger.
	Tag string
}

// SearchUI shows a search palette and returns the id of the chosen item.
// ok is false when the user dismissed the palette without choosing.
type SearchUI interface {
	Show(items []SearchItem) (id int, ok bool, err error)
}

// FormField describes one input of a form dialog.
type FormField struct {
	Name      string
	Multiline bool
	// Choices turns the field into a selection list when non-empty.
	Choices []string
	Default string
}

// FormUI shows a form and returns the entered values keyed by field name.
// ok is false when the user cancelled the form.
type FormUI interface {
	Show(layout string, fields []FormField) (values map[string]string, ok bool, err error)
}

// Wizard runs the one-time setup flow.
type Wizard interface {
	Run() error
}
