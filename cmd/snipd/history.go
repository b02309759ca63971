package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"snipd/internal/history"
)

var (
	historyLimit int
	historyTop   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent expansions",
	Long: `Prints the expansion journal: what fired, when, and with which trigger.
With --top the most-fired matches are ranked instead.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyTop, "top", false, "rank matches by fire count")
}

func runHistory(cmd *cobra.Command, args []string) error {
	journal, err := history.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer journal.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if historyTop {
		counts, err := journal.TopMatches(historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "COUNT\tTRIGGER\tMATCH")
		for _, c := range counts {
			fmt.Fprintf(w, "%d\t%s\t%d\n", c.Count, c.Trigger, c.MatchID)
		}
		return nil
	}

	entries, err := journal.Recent(historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "WHEN\tTRIGGER\tEXPANSION")
	for _, e := range entries {
		body := e.Body
		if runes := []rune(body); len(runes) > 50 {
			body = string(runes[:49]) + "…"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.FiredAt.Local().Format("2006-01-02 15:04:05"), e.Trigger, body)
	}
	return nil
}
