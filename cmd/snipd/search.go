package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snipd/internal/engine"
	"snipd/internal/gui/tui"
	"snipd/internal/history"
	"snipd/internal/inject"
	"snipd/internal/matches"
	"snipd/internal/render"
	"snipd/internal/selector"
)

var searchCopy bool

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Open the search palette and expand the chosen match",
	Long: `Shows every active match in a fuzzy search palette. The chosen match is
rendered and printed to stdout, or copied to the clipboard with --copy.
Search-invoked expansions have no typed trigger, so nothing is erased.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchCopy, "copy", false, "copy the expansion to the clipboard instead of printing it")
}

func runSearch(cmd *cobra.Command, args []string) error {
	store := matches.NewStore()
	if _, err := store.Reload(engine.CollectMatchFiles(cfg.MatchDirs)); err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}
	snap := store.Snapshot()
	if snap.Len() == 0 {
		fmt.Fprintln(os.Stderr, "no matches defined")
		os.Exit(exitConfigError)
	}

	items := selector.SearchItems(snap)
	if journal, err := history.Open(cfg.DataDir); err == nil {
		if counts, err := journal.TopMatches(1000); err == nil {
			fireCounts := make(map[int]int, len(counts))
			for _, c := range counts {
				fireCounts[c.MatchID] += c.Count
			}
			items = selector.RankByUsage(items, fireCounts)
		}
		journal.Close()
	}

	palette := tui.NewPalette(cfg.UI.MaxResults)
	id, ok, err := palette.Show(items)
	if err != nil {
		return fmt.Errorf("search palette failed: %w", err)
	}
	if !ok {
		return nil
	}

	renderer := render.New(render.NewFormExtension(tui.NewForm()))
	res, err := renderer.Render(snap, render.Request{MatchID: id})
	switch {
	case errors.Is(err, render.ErrAborted):
		return nil
	case errors.Is(err, render.ErrNoEffect):
		fmt.Fprintln(os.Stderr, "the chosen match has nothing to expand")
		return nil
	case err != nil:
		fmt.Fprintf(os.Stderr, "rendering failed: %v\n", err)
		os.Exit(exitRenderError)
	}

	if res.ImagePath != "" {
		fmt.Println(res.ImagePath)
		return nil
	}

	if searchCopy {
		if err := (inject.SystemClipboard{}).SetText(res.Body); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "copied to clipboard")
		return nil
	}
	fmt.Println(res.Body)
	return nil
}
