package render

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"snipd/internal/gui"
	"snipd/internal/matcher"
	"snipd/internal/matches"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFormUI struct {
	values    map[string]string
	cancelled bool
	err       error

	gotLayout string
	gotFields []gui.FormField
}

func (f *fakeFormUI) Show(layout string, fields []gui.FormField) (map[string]string, bool, error) {
	f.gotLayout = layout
	f.gotFields = fields
	if f.err != nil {
		return nil, false, f.err
	}
	if f.cancelled {
		return nil, false, nil
	}
	return f.values, true, nil
}

func textMatch(id int, trigger, replace string, vars ...matches.Variable) matches.Match {
	return matches.Match{
		ID:     id,
		Cause:  matches.Cause{Trigger: &matches.TriggerCause{Triggers: []string{trigger}}},
		Effect: matches.Effect{Text: &matches.TextEffect{Replace: replace, Vars: vars}},
	}
}

func TestRender_PlainReplacement(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{textMatch(1, ":hi", "hello world")}, nil)

	res, err := r.Render(snap, Request{MatchID: 1, Trigger: ":hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Body)
	assert.Equal(t, matches.FormatPlain, res.Format)
}

func TestRender_EchoVariable(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":sig", "Regards, {{name}}", matches.Variable{
			ID: 10, Name: "name", Type: "echo",
			Params: matches.Params{"echo": "Jane"},
		}),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Regards, Jane", res.Body)
}

func TestRender_GlobalVariablesResolveFirst(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot(
		[]matches.Match{textMatch(1, ":city", "I live in {{city}}")},
		[]matches.Variable{{ID: 20, Name: "city", Type: "echo", Params: matches.Params{"echo": "Berlin"}}},
	)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "I live in Berlin", res.Body)
}

func TestRender_EffectVarShadowsGlobal(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot(
		[]matches.Match{textMatch(1, ":city", "{{city}}", matches.Variable{
			ID: 30, Name: "city", Type: "echo", Params: matches.Params{"echo": "Rome"},
		})},
		[]matches.Variable{{ID: 20, Name: "city", Type: "echo", Params: matches.Params{"echo": "Berlin"}}},
	)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Rome", res.Body)
}

// countingExtension records how many times it resolved.
type countingExtension struct {
	calls *int
}

func (countingExtension) Name() string { return "counted" }

func (c countingExtension) Resolve(*Context, matches.Variable) (Value, error) {
	*c.calls++
	return Value{Text: "ran"}, nil
}

func TestRender_UnreferencedGlobalStaysUnresolved(t *testing.T) {
	calls := 0
	r := New(countingExtension{calls: &calls})
	snap := matches.NewSnapshot(
		[]matches.Match{textMatch(1, ":hi", "plain text")},
		[]matches.Variable{{ID: 20, Name: "expensive", Type: "counted"}},
	)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "plain text", res.Body)
	assert.Zero(t, calls, "a global the template never references must not execute")
}

func TestRender_ReferencedGlobalResolves(t *testing.T) {
	calls := 0
	r := New(countingExtension{calls: &calls})
	snap := matches.NewSnapshot(
		[]matches.Match{textMatch(1, ":hi", "[{{expensive}}]")},
		[]matches.Variable{{ID: 20, Name: "expensive", Type: "counted"}},
	)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "[ran]", res.Body)
	assert.Equal(t, 1, calls)
}

func TestRender_GlobalReferencedThroughLocalVarResolves(t *testing.T) {
	calls := 0
	r := New(countingExtension{calls: &calls})
	snap := matches.NewSnapshot(
		[]matches.Match{textMatch(1, ":hi", "{{wrapped}}", matches.Variable{
			ID: 30, Name: "wrapped", Type: "echo", Params: matches.Params{"echo": "x{{expensive}}"},
		})},
		[]matches.Variable{{ID: 20, Name: "expensive", Type: "counted"}},
	)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "xran", res.Body)
	assert.Equal(t, 1, calls)
}

func TestRender_GlobalReferencedThroughGlobalParamsResolves(t *testing.T) {
	calls := 0
	r := New(countingExtension{calls: &calls})
	snap := matches.NewSnapshot(
		[]matches.Match{textMatch(1, ":hi", "{{combo}}")},
		[]matches.Variable{
			{ID: 20, Name: "expensive", Type: "counted"},
			{ID: 21, Name: "combo", Type: "echo", Params: matches.Params{"echo": "got {{expensive}}"}},
		},
	)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "got ran", res.Body)
	assert.Equal(t, 1, calls)
}

func TestRender_VariableReferencesEarlierVariable(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":greet", "{{greeting}}",
			matches.Variable{ID: 1, Name: "name", Type: "echo", Params: matches.Params{"echo": "Ada"}},
			matches.Variable{ID: 2, Name: "greeting", Type: "echo", Params: matches.Params{"echo": "Hello {{name}}"}},
		),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", res.Body)
}

func TestRender_UnresolvedPlaceholderRendersEmpty(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{textMatch(1, ":x", "a{{missing}}b")}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "ab", res.Body)
}

func TestRender_RegexArgsVisibleToTemplate(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{textMatch(1, "", "Hi {{name}}!")}, nil)

	res, err := r.Render(snap, Request{MatchID: 1, Args: map[string]string{"name": "bob"}})
	require.NoError(t, err)
	assert.Equal(t, "Hi bob!", res.Body)
}

func TestRender_FormFieldsResolveUnderSyntheticVariable(t *testing.T) {
	ui := &fakeFormUI{values: map[string]string{"fieldA": "banana"}}
	r := New(NewFormExtension(ui))

	// The loader has already rewritten {{fieldA}} to {{form1.fieldA}}.
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":form", "Fruit: {{form1.fieldA}}", matches.Variable{
			ID: 5, Name: "form1", Type: "form",
			Params: matches.Params{"layout": "Fruit: {{fieldA}}"},
		}),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Fruit: banana", res.Body)

	require.Len(t, ui.gotFields, 1)
	assert.Equal(t, "fieldA", ui.gotFields[0].Name)
}

func TestRender_FormCancelAborts(t *testing.T) {
	ui := &fakeFormUI{cancelled: true}
	r := New(NewFormExtension(ui))

	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":form", "{{form1.fieldA}}", matches.Variable{
			ID: 5, Name: "form1", Type: "form",
			Params: matches.Params{"layout": "{{fieldA}}"},
		}),
	}, nil)

	_, err := r.Render(snap, Request{MatchID: 1})
	assert.True(t, errors.Is(err, ErrAborted))
}

func TestRender_SubMatchExpansion(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":inner", "inner-text"),
		textMatch(2, ":outer", "[{{sub}}]", matches.Variable{
			ID: 9, Name: "sub", Type: "match",
			Params: matches.Params{"trigger": ":inner"},
		}),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 2})
	require.NoError(t, err)
	assert.Equal(t, "[inner-text]", res.Body)
}

func TestRender_ReferenceCycleIsHardError(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":a", "{{toB}}", matches.Variable{
			ID: 9, Name: "toB", Type: "match", Params: matches.Params{"trigger": ":b"},
		}),
		textMatch(2, ":b", "{{toA}}", matches.Variable{
			ID: 10, Name: "toA", Type: "match", Params: matches.Params{"trigger": ":a"},
		}),
	}, nil)

	_, err := r.Render(snap, Request{MatchID: 1})
	assert.True(t, errors.Is(err, ErrCircularDependency))
}

func TestRender_InertMatch(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{{
		ID:    1,
		Cause: matches.Cause{Trigger: &matches.TriggerCause{Triggers: []string{":void"}}},
	}}, nil)

	_, err := r.Render(snap, Request{MatchID: 1})
	assert.True(t, errors.Is(err, ErrNoEffect))
}

func TestRender_ImageEffect(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{{
		ID:     1,
		Cause:  matches.Cause{Trigger: &matches.TriggerCause{Triggers: []string{":img"}}},
		Effect: matches.Effect{Image: &matches.ImageEffect{Path: "/tmp/cat.png"}},
	}}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cat.png", res.ImagePath)
	assert.Empty(t, res.Body)
}

func TestRender_CasePropagation(t *testing.T) {
	newSnap := func(style matches.UppercaseStyle, propagate bool) *matches.Snapshot {
		return matches.NewSnapshot([]matches.Match{{
			ID: 1,
			Cause: matches.Cause{Trigger: &matches.TriggerCause{
				Triggers:       []string{":greet"},
				PropagateCase:  propagate,
				UppercaseStyle: style,
			}},
			Effect: matches.Effect{Text: &matches.TextEffect{Replace: "hello there world"}},
		}}, nil)
	}
	r := New()

	t.Run("capitalized trigger capitalizes output", func(t *testing.T) {
		res, err := r.Render(newSnap(matches.StyleUppercase, true), Request{MatchID: 1, Style: matcher.CaseCapitalized})
		require.NoError(t, err)
		assert.Equal(t, "Hello there world", res.Body)
	})

	t.Run("uppercase trigger with default style", func(t *testing.T) {
		res, err := r.Render(newSnap(matches.StyleUppercase, true), Request{MatchID: 1, Style: matcher.CaseUppercase})
		require.NoError(t, err)
		assert.Equal(t, "HELLO THERE WORLD", res.Body)
	})

	t.Run("uppercase trigger with capitalize style", func(t *testing.T) {
		res, err := r.Render(newSnap(matches.StyleCapitalize, true), Request{MatchID: 1, Style: matcher.CaseUppercase})
		require.NoError(t, err)
		assert.Equal(t, "Hello there world", res.Body)
	})

	t.Run("uppercase trigger with capitalize_words style", func(t *testing.T) {
		res, err := r.Render(newSnap(matches.StyleCapitalizeWords, true), Request{MatchID: 1, Style: matcher.CaseUppercase})
		require.NoError(t, err)
		assert.Equal(t, "Hello There World", res.Body)
	})

	t.Run("style is inert without propagate_case", func(t *testing.T) {
		res, err := r.Render(newSnap(matches.StyleCapitalizeWords, false), Request{MatchID: 1, Style: matcher.CaseUppercase})
		require.NoError(t, err)
		assert.Equal(t, "hello there world", res.Body)
	})
}

func TestDateExtension_FormatTokens(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":year", "{{today}}", matches.Variable{
			ID: 2, Name: "today", Type: "date",
			Params: matches.Params{"format": "%Y"},
		}),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(time.Now().Year()), res.Body)
}

func TestRandomExtension_PicksAConfiguredChoice(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":r", "{{pick}}", matches.Variable{
			ID: 2, Name: "pick", Type: "random",
			Params: matches.Params{"choices": []interface{}{"a", "b", "c"}},
		}),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b", "c"}, res.Body)
}

func TestShellExtension_CommandOutputTrimmed(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":host", "{{out}}", matches.Variable{
			ID: 2, Name: "out", Type: "shell",
			Params: matches.Params{"cmd": "echo hello"},
		}),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Body)
}

func TestMarkdownToHTML(t *testing.T) {
	html, err := MarkdownToHTML("**bold** text")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestRender_UnknownVariableTypeIsSkipped(t *testing.T) {
	r := New()
	snap := matches.NewSnapshot([]matches.Match{
		textMatch(1, ":x", "a{{v}}b", matches.Variable{ID: 2, Name: "v", Type: "nonexistent"}),
	}, nil)

	res, err := r.Render(snap, Request{MatchID: 1})
	require.NoError(t, err)
	assert.Equal(t, "ab", res.Body)
}
