package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"snipd/internal/engine"
	"snipd/internal/matches"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active matches",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	store := matches.NewStore()
	if _, err := store.Reload(engine.CollectMatchFiles(cfg.MatchDirs)); err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}
	snap := store.Snapshot()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCAUSE\tEXPANSION")
	for _, m := range snap.Matches() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.Cause.Description(), summarize(m))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d matches\n", snap.Len())
	return nil
}

func summarize(m *matches.Match) string {
	if m.Label != "" {
		return m.Label
	}
	switch {
	case m.Effect.Image != nil:
		return "image: " + m.Effect.Image.Path
	case m.Effect.Text != nil:
		body := m.Effect.Text.Replace
		if runes := []rune(body); len(runes) > 60 {
			body = string(runes[:59]) + "…"
		}
		return body
	default:
		return "(no effect)"
	}
}
