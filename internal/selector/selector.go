// Package selector resolves ambiguous detections by asking the user to pick
// one match through the search UI.
package selector

import (
	"sort"

	"snipd/internal/gui"
	"snipd/internal/logging"
	"snipd/internal/matcher"
	"snipd/internal/matches"
)

// maxLabelLen keeps pathological labels from breaking the picker layout.
const maxLabelLen = 100

// SnapshotProvider yields the current match set.
type SnapshotProvider func() *matches.Snapshot

// Selector narrows a set of detections down to at most one. A failed or
// cancelled selection is not an error upstream; it simply selects nothing.
type Selector struct {
	ui       gui.SearchUI
	snapshot SnapshotProvider
}

// New builds a selector over the search UI.
func New(ui gui.SearchUI, snapshot SnapshotProvider) *Selector {
	return &Selector{ui: ui, snapshot: snapshot}
}

// Select shows the picker for the given detections and returns the chosen
// one. ok is false when the user cancelled or the picker failed.
func (s *Selector) Select(detections []matcher.Detection) (matcher.Detection, bool) {
	if len(detections) == 0 {
		return matcher.Detection{}, false
	}
	if len(detections) == 1 {
		return detections[0], true
	}

	snap := s.snapshot()
	items := make([]gui.SearchItem, 0, len(detections))
	for _, d := range detections {
		m, ok := snap.Get(d.MatchID)
		if !ok {
			logging.UI("detection references missing match %d, skipping", d.MatchID)
			continue
		}
		items = append(items, gui.SearchItem{
			ID:    m.ID,
			Label: truncateLabel(m.Description()),
			Tag:   d.Trigger,
		})
	}

	id, ok, err := s.ui.Show(items)
	if err != nil {
		logging.UI("match picker failed: %v", err)
		return matcher.Detection{}, false
	}
	if !ok {
		logging.UIDebug("match picker cancelled")
		return matcher.Detection{}, false
	}

	for _, d := range detections {
		if d.MatchID == id {
			return d, true
		}
	}
	logging.UI("match picker returned unknown id %d", id)
	return matcher.Detection{}, false
}

func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= maxLabelLen {
		return label
	}
	return string(runes[:maxLabelLen-1]) + "…"
}

// SearchItems lists every match in the snapshot for the standalone search
// palette, labelled the same way the ambiguity picker labels them.
func SearchItems(snap *matches.Snapshot) []gui.SearchItem {
	items := make([]gui.SearchItem, 0, snap.Len())
	for _, m := range snap.Matches() {
		tag := ""
		if m.Cause.Trigger != nil && len(m.Cause.Trigger.Triggers) > 0 {
			tag = m.Cause.Trigger.Triggers[0]
		} else if m.Cause.Regex != nil {
			tag = "re: " + m.Cause.Regex.Regex
		}
		items = append(items, gui.SearchItem{
			ID:    m.ID,
			Label: truncateLabel(m.Description()),
			Tag:   tag,
		})
	}
	return items
}

// RankByUsage floats the most-fired matches to the top of the palette.
// Items with equal counts keep their original order.
func RankByUsage(items []gui.SearchItem, fireCounts map[int]int) []gui.SearchItem {
	ranked := append([]gui.SearchItem{}, items...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return fireCounts[ranked[i].ID] > fireCounts[ranked[j].ID]
	})
	return ranked
}
