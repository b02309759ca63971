package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"snipd/internal/gui"
	"snipd/internal/logging"
)

// Form is the terminal form dialog used by form variables.
type Form struct{}

// NewForm builds the form dialog.
func NewForm() *Form {
	return &Form{}
}

// Show blocks until the user submits or cancels the form.
func (*Form) Show(layout string, fields []gui.FormField) (map[string]string, bool, error) {
	if len(fields) == 0 {
		return map[string]string{}, true, nil
	}

	out, err := tea.NewProgram(newFormModel(layout, fields)).Run()
	if err != nil {
		return nil, false, fmt.Errorf("form dialog failed: %w", err)
	}

	final, ok := out.(formModel)
	if !ok || !final.submitted {
		logging.UIDebug("form dialog cancelled")
		return nil, false, nil
	}
	return final.values(), true, nil
}

// fieldInput is one form control: a text input, a text area, or a choice
// cycler.
type fieldInput struct {
	field  gui.FormField
	input  textinput.Model
	area   textarea.Model
	choice int
}

func (f *fieldInput) value() string {
	switch {
	case len(f.field.Choices) > 0:
		return f.field.Choices[f.choice]
	case f.field.Multiline:
		return f.area.Value()
	default:
		return f.input.Value()
	}
}

type formModel struct {
	layout    string
	inputs    []fieldInput
	focus     int
	submitted bool
}

func newFormModel(layout string, fields []gui.FormField) formModel {
	inputs := make([]fieldInput, 0, len(fields))
	for _, field := range fields {
		fi := fieldInput{field: field}
		switch {
		case len(field.Choices) > 0:
			for i, c := range field.Choices {
				if c == field.Default {
					fi.choice = i
					break
				}
			}
		case field.Multiline:
			fi.area = textarea.New()
			fi.area.SetValue(field.Default)
		default:
			fi.input = textinput.New()
			fi.input.SetValue(field.Default)
		}
		inputs = append(inputs, fi)
	}

	m := formModel{layout: layout, inputs: inputs}
	m.setFocus(0)
	return m
}

func (m *formModel) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		fi := &m.inputs[j]
		if len(fi.field.Choices) > 0 {
			continue
		}
		if j == i {
			if fi.field.Multiline {
				fi.area.Focus()
			} else {
				fi.input.Focus()
			}
		} else {
			if fi.field.Multiline {
				fi.area.Blur()
			} else {
				fi.input.Blur()
			}
		}
	}
}

func (m formModel) values() map[string]string {
	values := make(map[string]string, len(m.inputs))
	for i := range m.inputs {
		values[m.inputs[i].field.Name] = m.inputs[i].value()
	}
	return values
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey {
		switch key.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyTab:
			m.setFocus((m.focus + 1) % len(m.inputs))
			return m, nil

		case tea.KeyShiftTab:
			m.setFocus((m.focus - 1 + len(m.inputs)) % len(m.inputs))
			return m, nil

		case tea.KeyEnter:
			// Enter inside a textarea inserts a newline; everywhere else
			// it submits.
			if !m.inputs[m.focus].field.Multiline {
				m.submitted = true
				return m, tea.Quit
			}

		case tea.KeyLeft, tea.KeyRight:
			fi := &m.inputs[m.focus]
			if n := len(fi.field.Choices); n > 0 {
				if key.Type == tea.KeyRight {
					fi.choice = (fi.choice + 1) % n
				} else {
					fi.choice = (fi.choice - 1 + n) % n
				}
				return m, nil
			}
		}
	}

	fi := &m.inputs[m.focus]
	var cmd tea.Cmd
	switch {
	case len(fi.field.Choices) > 0:
	case fi.field.Multiline:
		fi.area, cmd = fi.area.Update(msg)
	default:
		fi.input, cmd = fi.input.Update(msg)
	}
	return m, cmd
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("snipd form"))
	b.WriteString("\n\n")

	for i := range m.inputs {
		fi := &m.inputs[i]
		name := fi.field.Name
		if i == m.focus {
			name = selectedStyle.Render(name)
		}
		b.WriteString(name)
		b.WriteString(": ")

		switch {
		case len(fi.field.Choices) > 0:
			b.WriteString("< " + fi.field.Choices[fi.choice] + " >")
		case fi.field.Multiline:
			b.WriteString("\n" + fi.area.View())
		default:
			b.WriteString(fi.input.View())
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: next field • enter: submit • esc: cancel"))
	return b.String()
}
