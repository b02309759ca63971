// Package tui implements the gui capabilities as terminal dialogs built on
// bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"snipd/internal/gui"
	"snipd/internal/logging"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	tagStyle      = lipgloss.NewStyle().Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Palette is the fuzzy search dialog over the active matches.
type Palette struct {
	maxResults int
}

// NewPalette builds the palette; maxResults caps the visible rows.
func NewPalette(maxResults int) *Palette {
	if maxResults <= 0 {
		maxResults = 50
	}
	return &Palette{maxResults: maxResults}
}

// Show blocks until the user picks an item or dismisses the palette.
func (p *Palette) Show(items []gui.SearchItem) (int, bool, error) {
	model := newPaletteModel(items, p.maxResults)

	out, err := tea.NewProgram(model).Run()
	if err != nil {
		return 0, false, fmt.Errorf("search palette failed: %w", err)
	}

	final, ok := out.(paletteModel)
	if !ok || !final.chosen {
		logging.UIDebug("search palette dismissed")
		return 0, false, nil
	}
	return final.chosenID, true, nil
}

type paletteModel struct {
	input      textinput.Model
	items      []gui.SearchItem
	filtered   []gui.SearchItem
	cursor     int
	maxResults int

	chosen   bool
	chosenID int
}

func newPaletteModel(items []gui.SearchItem, maxResults int) paletteModel {
	input := textinput.New()
	input.Placeholder = "search matches"
	input.Focus()

	m := paletteModel{
		input:      input,
		items:      items,
		maxResults: maxResults,
	}
	m.filtered = filterItems(items, "", maxResults)
	return m
}

func (m paletteModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m paletteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.cursor < len(m.filtered) {
			m.chosen = true
			m.chosenID = m.filtered[m.cursor].ID
		}
		return m, tea.Quit

	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case tea.KeyDown:
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filtered = filterItems(m.items, m.input.Value(), m.maxResults)
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
	}
	return m, cmd
}

func (m paletteModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("snipd search"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(helpStyle.Render("no matches"))
		b.WriteString("\n")
	}
	for i, item := range m.filtered {
		line := item.Label
		if item.Tag != "" {
			line += "  " + tagStyle.Render(item.Tag)
		}
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: expand • esc: dismiss"))
	return b.String()
}

// filterItems keeps items whose label or tag contains the query,
// case-insensitively, preserving the original order.
func filterItems(items []gui.SearchItem, query string, limit int) []gui.SearchItem {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []gui.SearchItem
	for _, item := range items {
		if query == "" ||
			strings.Contains(strings.ToLower(item.Label), query) ||
			strings.Contains(strings.ToLower(item.Tag), query) {
			out = append(out, item)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
