// Package matcher decides which matches are activated by the rolling buffer
// of recently typed characters.
package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"snipd/internal/logging"
	"snipd/internal/matches"
)

// maxBufferLen bounds the rolling keystroke buffer. Triggers longer than
// this cannot be detected.
const maxBufferLen = 64

// CaseStyle describes how the user actually typed a trigger relative to its
// canonical form. It drives case propagation in the renderer.
type CaseStyle int

const (
	CaseExact       CaseStyle = iota // typed exactly as declared
	CaseUppercase                    // typed in all caps
	CaseCapitalized                  // typed with a leading capital
)

// Detection is one activated match plus its render-time context.
type Detection struct {
	MatchID int
	// Trigger is the text as the user typed it (empty for regex causes).
	Trigger string
	// CanonicalTrigger is the declared trigger that matched.
	CanonicalTrigger string
	// Args holds named capture groups for regex causes.
	Args map[string]string
	// Style is the typed-case classification for case propagation.
	Style CaseStyle
	// Separator is the keystroke that completed a right-word trigger. It is
	// part of the typed region: dispatch re-appends it and compensation
	// erases it together with the trigger.
	Separator string
}

type triggerEntry struct {
	matchID       int
	trigger       string
	leftWord      bool
	rightWord     bool
	propagateCase bool
}

type regexEntry struct {
	matchID int
	re      *regexp.Regexp
}

// Matcher holds the per-snapshot trigger index and the live input buffer.
// It is owned by the processing goroutine and is not safe for concurrent use.
type Matcher struct {
	buffer   []rune
	triggers []triggerEntry
	regexes  []regexEntry
}

// New builds a matcher index over the given snapshot.
func New(snapshot *matches.Snapshot) *Matcher {
	m := &Matcher{}
	for _, match := range snapshot.Matches() {
		switch {
		case match.Cause.Trigger != nil:
			c := match.Cause.Trigger
			for _, t := range c.Triggers {
				if t == "" {
					continue
				}
				m.triggers = append(m.triggers, triggerEntry{
					matchID:       match.ID,
					trigger:       t,
					leftWord:      c.LeftWord,
					rightWord:     c.RightWord,
					propagateCase: c.PropagateCase,
				})
			}
		case match.Cause.Regex != nil:
			re, err := regexp.Compile(match.Cause.Regex.Regex)
			if err != nil {
				logging.Get(logging.CategoryMatch).Warn("invalid regex cause %q for match %d: %v", match.Cause.Regex.Regex, match.ID, err)
				continue
			}
			m.regexes = append(m.regexes, regexEntry{matchID: match.ID, re: re})
		}
	}
	logging.MatchDebug("matcher index built: %d triggers, %d regexes", len(m.triggers), len(m.regexes))
	return m
}

// Reset clears the rolling buffer. Called on focus changes and navigation
// keys, when the typed context no longer precedes the cursor.
func (m *Matcher) Reset() {
	m.buffer = m.buffer[:0]
}

// OnChar feeds one typed character and returns the activated matches, if
// any. Among simultaneously satisfied trigger candidates the longest
// matching trigger wins; several matches sharing that trigger length are
// all returned and disambiguated downstream.
func (m *Matcher) OnChar(r rune) []Detection {
	m.buffer = append(m.buffer, r)
	if len(m.buffer) > maxBufferLen {
		m.buffer = m.buffer[len(m.buffer)-maxBufferLen:]
	}

	detections := m.matchTriggers()
	if len(detections) == 0 {
		detections = m.matchRegexes()
	}
	if len(detections) > 0 {
		m.Reset()
	}
	return detections
}

// OnBackspace removes the last character from the buffer.
func (m *Matcher) OnBackspace() {
	if len(m.buffer) > 0 {
		m.buffer = m.buffer[:len(m.buffer)-1]
	}
}

func (m *Matcher) matchTriggers() []Detection {
	var best []Detection
	bestLen := 0

	for _, entry := range m.triggers {
		typed, sep, ok := m.typedSuffix(entry)
		if !ok {
			continue
		}
		style := detectStyle(typed, entry.trigger)
		if style != CaseExact && !entry.propagateCase {
			continue
		}

		l := len([]rune(entry.trigger))
		d := Detection{
			MatchID:          entry.matchID,
			Trigger:          typed,
			CanonicalTrigger: entry.trigger,
			Style:            style,
			Separator:        sep,
		}
		switch {
		case l > bestLen:
			best = []Detection{d}
			bestLen = l
		case l == bestLen:
			best = append(best, d)
		}
	}
	return best
}

// typedSuffix checks whether the buffer currently satisfies the entry's
// trigger and word-boundary requirements, returning the trigger text as the
// user typed it plus the separator that completed a right-word occurrence.
func (m *Matcher) typedSuffix(entry triggerEntry) (string, string, bool) {
	trigger := []rune(entry.trigger)
	tLen := len(trigger)

	// A right-word trigger completes on the separator typed after it: the
	// occurrence must end one position before a non-word character.
	end := len(m.buffer)
	sep := ""
	if entry.rightWord {
		last := len(m.buffer) - 1
		if last < 0 || isWordChar(m.buffer[last]) {
			return "", "", false
		}
		end = last
		sep = string(m.buffer[last])
	}

	start := end - tLen
	if start < 0 {
		return "", "", false
	}
	typed := m.buffer[start:end]
	if !triggersEqual(typed, trigger, entry.propagateCase) {
		return "", "", false
	}
	if entry.leftWord && start > 0 && isWordChar(m.buffer[start-1]) {
		return "", "", false
	}
	return string(typed), sep, true
}

func (m *Matcher) matchRegexes() []Detection {
	buffer := string(m.buffer)
	var out []Detection

	for _, entry := range m.regexes {
		loc := entry.re.FindStringSubmatchIndex(buffer)
		// Only occurrences touching the cursor activate.
		if loc == nil || loc[1] != len(buffer) {
			continue
		}

		args := map[string]string{}
		for i, name := range entry.re.SubexpNames() {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			args[name] = buffer[loc[2*i]:loc[2*i+1]]
		}
		out = append(out, Detection{
			MatchID: entry.matchID,
			Trigger: buffer[loc[0]:loc[1]],
			Args:    args,
		})
	}
	return out
}

func triggersEqual(typed, canonical []rune, propagateCase bool) bool {
	if len(typed) != len(canonical) {
		return false
	}
	for i := range typed {
		if typed[i] == canonical[i] {
			continue
		}
		if !propagateCase || unicode.ToLower(typed[i]) != unicode.ToLower(canonical[i]) {
			return false
		}
	}
	return true
}

// detectStyle classifies how the typed trigger's casing differs from the
// canonical form.
func detectStyle(typed, canonical string) CaseStyle {
	if typed == canonical {
		return CaseExact
	}
	tr := []rune(typed)
	cr := []rune(canonical)
	if len(tr) != len(cr) {
		return CaseExact
	}
	// Single-character triggers classify as capitalized, not uppercase.
	if typed == strings.ToUpper(canonical) && len(cr) > 1 {
		return CaseUppercase
	}
	if tr[0] == unicode.ToUpper(cr[0]) && string(tr[1:]) == string(cr[1:]) {
		return CaseCapitalized
	}
	return CaseExact
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
