// Package render expands a match effect into final content, resolving
// variables in declaration order and delegating interactive steps to the
// gui capabilities.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"snipd/internal/logging"
	"snipd/internal/matcher"
	"snipd/internal/matches"
)

var (
	// ErrAborted signals that the user cancelled an interactive step. It
	// collapses to a silent no-op upstream, never a visible error.
	ErrAborted = errors.New("rendering aborted by user")

	// ErrNoEffect signals an inert match: valid, but nothing to expand.
	ErrNoEffect = errors.New("match produces no effect")

	// ErrCircularDependency signals a variable reference cycle.
	ErrCircularDependency = errors.New("circular variable reference")
)

// placeholderRegex matches {{name}} and {{name.field}}.
var placeholderRegex = regexp.MustCompile(`\{\{\s*(\w+)(?:\.(\w+))?\s*\}\}`)

// Request identifies what to render and the typed context it came from.
type Request struct {
	MatchID int
	// Trigger is the text as typed, empty for search-invoked expansions.
	Trigger string
	// Style is the typed-case classification driving case propagation.
	Style matcher.CaseStyle
	// Args carries regex capture groups and action arguments; they are
	// visible to the template as additional variables.
	Args map[string]string
}

// Result is the fully rendered content plus the dispatch hints carried
// through unchanged from the effect.
type Result struct {
	Body      string
	Format    matches.TextFormat
	ForceMode *matches.InjectMode
	// ImagePath is set instead of Body for image effects.
	ImagePath string
}

// Value is a resolved variable: either plain text or a set of named fields
// (forms).
type Value struct {
	Text   string
	Fields map[string]string
}

// Extension resolves one variable type.
type Extension interface {
	Name() string
	Resolve(ctx *Context, v matches.Variable) (Value, error)
}

// Context is the per-render state shared by extensions: the active
// snapshot, the resolution scope, and the cycle guard.
type Context struct {
	Snapshot *matches.Snapshot
	Args     map[string]string

	scope    map[string]Value
	visited  map[int]bool
	renderer *Renderer
}

// Expand substitutes already-resolved scope values into s. Used by
// extensions whose params may reference earlier variables.
func (c *Context) Expand(s string) string {
	return substitute(s, c.scope)
}

// RenderMatch recursively renders another match within the same cycle
// guard. Used by the sub-match extension.
func (c *Context) RenderMatch(id int) (string, error) {
	res, err := c.renderer.renderMatch(c.Snapshot, Request{MatchID: id}, c.visited)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// Renderer expands effects. Extensions are registered once at startup;
// the renderer itself is stateless across renders.
type Renderer struct {
	exts map[string]Extension
}

// New creates a renderer with the given extensions registered on top of
// the pure built-ins (echo, date, random).
func New(exts ...Extension) *Renderer {
	r := &Renderer{exts: map[string]Extension{}}
	r.Register(echoExtension{})
	r.Register(dateExtension{})
	r.Register(randomExtension{})
	r.Register(shellExtension{})
	r.Register(scriptExtension{})
	r.Register(subMatchExtension{})
	for _, ext := range exts {
		r.Register(ext)
	}
	return r
}

// Register adds or replaces an extension.
func (r *Renderer) Register(ext Extension) {
	r.exts[ext.Name()] = ext
}

// Render expands the requested match against one store snapshot.
func (r *Renderer) Render(snapshot *matches.Snapshot, req Request) (Result, error) {
	return r.renderMatch(snapshot, req, map[int]bool{})
}

func (r *Renderer) renderMatch(snapshot *matches.Snapshot, req Request, visited map[int]bool) (Result, error) {
	if visited[req.MatchID] {
		return Result{}, fmt.Errorf("%w: match %d", ErrCircularDependency, req.MatchID)
	}
	visited[req.MatchID] = true

	m, ok := snapshot.Get(req.MatchID)
	if !ok {
		return Result{}, fmt.Errorf("unknown match id %d", req.MatchID)
	}

	switch {
	case m.Effect.Image != nil:
		return Result{ImagePath: m.Effect.Image.Path}, nil
	case m.Effect.IsNone():
		logging.Get(logging.CategoryRender).Warn("match %d (%q) has no effect to expand", m.ID, m.Cause.Description())
		return Result{}, ErrNoEffect
	}

	effect := m.Effect.Text
	ctx := &Context{
		Snapshot: snapshot,
		Args:     req.Args,
		scope:    map[string]Value{},
		visited:  visited,
		renderer: r,
	}

	// Regex captures and action arguments enter the scope first so that
	// variables and the template can reference them.
	for name, value := range req.Args {
		ctx.scope[name] = Value{Text: value}
	}

	// Globals resolve before the effect's own variables; both in
	// declaration order, later definitions shadowing earlier ones. A global
	// only resolves when the template or a variable actually references it,
	// so a side-effectful global (shell, form) never runs for matches that
	// do not use it.
	referenced := referencedNames(effect.Replace, effect.Vars, snapshot.GlobalVars())
	for _, v := range snapshot.GlobalVars() {
		if !referenced[v.Name] {
			continue
		}
		if err := r.resolveInto(ctx, v); err != nil {
			return Result{}, err
		}
	}
	for _, v := range effect.Vars {
		if err := r.resolveInto(ctx, v); err != nil {
			return Result{}, err
		}
	}

	body := substitute(effect.Replace, ctx.scope)
	body = propagateCase(body, m.Cause.Trigger, req.Style)

	return Result{
		Body:      body,
		Format:    effect.Format,
		ForceMode: effect.ForceMode,
	}, nil
}

func (r *Renderer) resolveInto(ctx *Context, v matches.Variable) error {
	ext, ok := r.exts[v.Type]
	if !ok {
		logging.Get(logging.CategoryRender).Warn("no extension for variable type %q (variable %q)", v.Type, v.Name)
		return nil
	}
	value, err := ext.Resolve(ctx, v)
	if err != nil {
		return fmt.Errorf("variable %q: %w", v.Name, err)
	}
	ctx.scope[v.Name] = value
	return nil
}

// referencedNames collects the variable names a render can actually reach:
// placeholders in the template itself, names referenced from local variable
// params, and, transitively, names referenced from the params of globals
// that are themselves referenced. Globals can only depend on earlier
// declarations, so one reverse scan settles the closure.
func referencedNames(template string, locals, globals []matches.Variable) map[string]bool {
	refs := map[string]bool{}
	collectPlaceholders(template, refs)
	for _, v := range locals {
		collectParamRefs(v.Params, refs)
	}
	for i := len(globals) - 1; i >= 0; i-- {
		if refs[globals[i].Name] {
			collectParamRefs(globals[i].Params, refs)
		}
	}
	return refs
}

func collectPlaceholders(s string, refs map[string]bool) {
	for _, groups := range placeholderRegex.FindAllStringSubmatch(s, -1) {
		refs[groups[1]] = true
	}
}

func collectParamRefs(value interface{}, refs map[string]bool) {
	switch v := value.(type) {
	case string:
		collectPlaceholders(v, refs)
	case matches.Params:
		for _, nested := range v {
			collectParamRefs(nested, refs)
		}
	case map[string]interface{}:
		for _, nested := range v {
			collectParamRefs(nested, refs)
		}
	case []interface{}:
		for _, nested := range v {
			collectParamRefs(nested, refs)
		}
	}
}

// substitute resolves {{name}} and {{name.field}} placeholders against the
// scope. Unresolved placeholders render empty with a warning.
func substitute(template string, scope map[string]Value) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(placeholder string) string {
		groups := placeholderRegex.FindStringSubmatch(placeholder)
		name, field := groups[1], groups[2]

		value, ok := scope[name]
		if !ok {
			logging.Get(logging.CategoryRender).Warn("unresolved placeholder %q", placeholder)
			return ""
		}
		if field == "" {
			return value.Text
		}
		fieldValue, ok := value.Fields[field]
		if !ok {
			logging.Get(logging.CategoryRender).Warn("unresolved placeholder field %q", placeholder)
			return ""
		}
		return fieldValue
	})
}

// propagateCase rewrites the rendered body to mirror how the user typed
// the trigger. A capitalized trigger capitalizes the output; an all-caps
// trigger applies the cause's configured uppercase style.
func propagateCase(body string, cause *matches.TriggerCause, style matcher.CaseStyle) string {
	if cause == nil || !cause.PropagateCase || style == matcher.CaseExact {
		return body
	}

	switch style {
	case matcher.CaseCapitalized:
		return capitalizeFirst(body)
	case matcher.CaseUppercase:
		switch cause.UppercaseStyle {
		case matches.StyleCapitalize:
			return capitalizeFirst(body)
		case matches.StyleCapitalizeWords:
			return capitalizeWords(body)
		default:
			return strings.ToUpper(body)
		}
	}
	return body
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(runes)
}

func capitalizeWords(s string) string {
	runes := []rune(s)
	startOfWord := true
	for i, r := range runes {
		if unicode.IsLetter(r) {
			if startOfWord {
				runes[i] = unicode.ToUpper(r)
			}
			startOfWord = false
		} else {
			startOfWord = true
		}
	}
	return string(runes)
}
