package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"snipd/internal/matches"
)

func TestSummarize(t *testing.T) {
	labelled := &matches.Match{Label: "Work signature"}
	assert.Equal(t, "Work signature", summarize(labelled))

	image := &matches.Match{Effect: matches.Effect{Image: &matches.ImageEffect{Path: "/tmp/x.png"}}}
	assert.Equal(t, "image: /tmp/x.png", summarize(image))

	long := &matches.Match{Effect: matches.Effect{Text: &matches.TextEffect{Replace: strings.Repeat("a", 80)}}}
	assert.Len(t, []rune(summarize(long)), 60)

	inert := &matches.Match{}
	assert.Equal(t, "(no effect)", summarize(inert))
}

func TestCommandsAreRegistered(t *testing.T) {
	rootCmd.AddCommand(startCmd, searchCmd, listCmd, historyCmd, versionCmd)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "search", "list", "history", "version"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}
