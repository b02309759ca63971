package selector

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipd/internal/gui"
	"snipd/internal/matcher"
	"snipd/internal/matches"
)

type fakeSearchUI struct {
	items  []gui.SearchItem
	pickID int
	ok     bool
	err    error
}

func (f *fakeSearchUI) Show(items []gui.SearchItem) (int, bool, error) {
	f.items = items
	return f.pickID, f.ok, f.err
}

func testSnapshot(t *testing.T) *matches.Snapshot {
	t.Helper()
	ms := []matches.Match{
		{
			ID:    1,
			Label: "Work signature",
			Cause: matches.Cause{Trigger: &matches.TriggerCause{Triggers: []string{":sig"}}},
			Effect: matches.Effect{Text: &matches.TextEffect{Replace: "Best, Work"}},
		},
		{
			ID:    2,
			Cause: matches.Cause{Trigger: &matches.TriggerCause{Triggers: []string{":sig"}}},
			Effect: matches.Effect{Text: &matches.TextEffect{Replace: "Cheers, Personal"}},
		},
	}
	return matches.NewSnapshot(ms, nil)
}

func detections() []matcher.Detection {
	return []matcher.Detection{
		{MatchID: 1, Trigger: ":sig", CanonicalTrigger: ":sig"},
		{MatchID: 2, Trigger: ":sig", CanonicalTrigger: ":sig"},
	}
}

func TestSelect_SingleDetectionSkipsUI(t *testing.T) {
	ui := &fakeSearchUI{err: errors.New("should not be shown")}
	s := New(ui, func() *matches.Snapshot { return testSnapshot(t) })

	d, ok := s.Select(detections()[:1])
	require.True(t, ok)
	assert.Equal(t, 1, d.MatchID)
	assert.Nil(t, ui.items)
}

func TestSelect_ReturnsChosenDetection(t *testing.T) {
	ui := &fakeSearchUI{pickID: 2, ok: true}
	s := New(ui, func() *matches.Snapshot { return testSnapshot(t) })

	d, ok := s.Select(detections())
	require.True(t, ok)
	assert.Equal(t, 2, d.MatchID)

	require.Len(t, ui.items, 2)
	assert.Equal(t, "Work signature", ui.items[0].Label)
	assert.Equal(t, ":sig", ui.items[0].Tag)
}

func TestSelect_CancelSelectsNothing(t *testing.T) {
	ui := &fakeSearchUI{ok: false}
	s := New(ui, func() *matches.Snapshot { return testSnapshot(t) })

	_, ok := s.Select(detections())
	assert.False(t, ok)
}

func TestSelect_UIErrorSelectsNothing(t *testing.T) {
	ui := &fakeSearchUI{err: errors.New("display gone")}
	s := New(ui, func() *matches.Snapshot { return testSnapshot(t) })

	_, ok := s.Select(detections())
	assert.False(t, ok)
}

func TestSelect_UnknownIDSelectsNothing(t *testing.T) {
	ui := &fakeSearchUI{pickID: 99, ok: true}
	s := New(ui, func() *matches.Snapshot { return testSnapshot(t) })

	_, ok := s.Select(detections())
	assert.False(t, ok)
}

func TestSelect_LongLabelsAreTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	ms := []matches.Match{
		{ID: 1, Label: long, Cause: matches.Cause{Trigger: &matches.TriggerCause{Triggers: []string{":a"}}}},
		{ID: 2, Label: long, Cause: matches.Cause{Trigger: &matches.TriggerCause{Triggers: []string{":a"}}}},
	}
	snap := matches.NewSnapshot(ms, nil)

	ui := &fakeSearchUI{pickID: 1, ok: true}
	s := New(ui, func() *matches.Snapshot { return snap })

	_, ok := s.Select([]matcher.Detection{
		{MatchID: 1, Trigger: ":a"},
		{MatchID: 2, Trigger: ":a"},
	})
	require.True(t, ok)

	for _, item := range ui.items {
		assert.LessOrEqual(t, len([]rune(item.Label)), maxLabelLen)
	}
}

func TestSearchItems_CoversEveryMatch(t *testing.T) {
	snap := testSnapshot(t)
	items := SearchItems(snap)
	require.Len(t, items, 2)
	assert.Equal(t, ":sig", items[0].Tag)
}

func TestRankByUsage(t *testing.T) {
	items := []gui.SearchItem{{ID: 1}, {ID: 2}, {ID: 3}}

	ranked := RankByUsage(items, map[int]int{3: 9, 1: 2})
	assert.Equal(t, []int{ranked[0].ID, ranked[1].ID, ranked[2].ID}, []int{3, 1, 2})

	// Stable on ties and with no usage data at all.
	ranked = RankByUsage(items, nil)
	assert.Equal(t, 1, ranked[0].ID)
	assert.Equal(t, 3, ranked[2].ID)
}
