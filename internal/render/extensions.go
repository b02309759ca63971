package render

import (
	"fmt"
	"math/rand"
	"os/exec"
	"strings"
	"time"

	"snipd/internal/logging"
	"snipd/internal/matches"
)

// stringParam reads a string parameter.
func stringParam(p matches.Params, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// boolParam reads a bool parameter with a default.
func boolParam(p matches.Params, key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// intParam reads a numeric parameter, tolerating the int/float shapes the
// YAML decoder produces.
func intParam(p matches.Params, key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// echoExtension substitutes a static (possibly templated) string.
type echoExtension struct{}

func (echoExtension) Name() string { return "echo" }

func (echoExtension) Resolve(ctx *Context, v matches.Variable) (Value, error) {
	text, _ := stringParam(v.Params, "echo")
	return Value{Text: ctx.Expand(text)}, nil
}

// dateExtension formats the current time. The format uses strftime-style
// tokens for compatibility with existing match files.
type dateExtension struct{}

func (dateExtension) Name() string { return "date" }

func (dateExtension) Resolve(_ *Context, v matches.Variable) (Value, error) {
	now := time.Now()
	if offset, ok := intParam(v.Params, "offset"); ok {
		now = now.Add(time.Duration(offset) * time.Second)
	}

	format, ok := stringParam(v.Params, "format")
	if !ok {
		format = "%Y-%m-%d %H:%M"
	}
	return Value{Text: now.Format(strftimeToLayout(format))}, nil
}

// strftimeReplacer maps the commonly used strftime tokens onto Go layouts.
var strftimeReplacer = strings.NewReplacer(
	"%Y", "2006",
	"%y", "06",
	"%m", "01",
	"%d", "02",
	"%e", "_2",
	"%H", "15",
	"%I", "03",
	"%M", "04",
	"%S", "05",
	"%p", "PM",
	"%B", "January",
	"%b", "Jan",
	"%A", "Monday",
	"%a", "Mon",
	"%Z", "MST",
	"%z", "-0700",
	"%%", "%",
)

func strftimeToLayout(format string) string {
	return strftimeReplacer.Replace(format)
}

// randomExtension picks one of the configured choices.
type randomExtension struct{}

func (randomExtension) Name() string { return "random" }

func (randomExtension) Resolve(ctx *Context, v matches.Variable) (Value, error) {
	raw, ok := v.Params["choices"].([]interface{})
	if !ok || len(raw) == 0 {
		return Value{}, fmt.Errorf("random variable %q has no choices", v.Name)
	}
	choice, ok := raw[rand.Intn(len(raw))].(string)
	if !ok {
		return Value{}, fmt.Errorf("random variable %q has a non-string choice", v.Name)
	}
	return Value{Text: ctx.Expand(choice)}, nil
}

// shellExtension runs a shell command and captures its output.
type shellExtension struct{}

func (shellExtension) Name() string { return "shell" }

func (shellExtension) Resolve(ctx *Context, v matches.Variable) (Value, error) {
	cmdline, ok := stringParam(v.Params, "cmd")
	if !ok || cmdline == "" {
		return Value{}, fmt.Errorf("shell variable %q has no cmd", v.Name)
	}
	cmdline = ctx.Expand(cmdline)

	shell, ok := stringParam(v.Params, "shell")
	if !ok {
		shell = "sh"
	}

	out, err := exec.Command(shell, "-c", cmdline).Output()
	if err != nil {
		return Value{}, fmt.Errorf("shell variable %q failed: %w", v.Name, err)
	}

	text := string(out)
	if boolParam(v.Params, "trim", true) {
		text = strings.TrimSpace(text)
	}
	logging.RenderDebug("shell variable %q produced %d bytes", v.Name, len(text))
	return Value{Text: text}, nil
}

// scriptExtension runs an external program with explicit arguments.
type scriptExtension struct{}

func (scriptExtension) Name() string { return "script" }

func (scriptExtension) Resolve(ctx *Context, v matches.Variable) (Value, error) {
	raw, ok := v.Params["args"].([]interface{})
	if !ok || len(raw) == 0 {
		return Value{}, fmt.Errorf("script variable %q has no args", v.Name)
	}

	args := make([]string, 0, len(raw))
	for _, a := range raw {
		s, ok := a.(string)
		if !ok {
			return Value{}, fmt.Errorf("script variable %q has a non-string arg", v.Name)
		}
		args = append(args, ctx.Expand(s))
	}

	out, err := exec.Command(args[0], args[1:]...).Output()
	if err != nil {
		return Value{}, fmt.Errorf("script variable %q failed: %w", v.Name, err)
	}
	return Value{Text: strings.TrimSpace(string(out))}, nil
}

// subMatchExtension expands another match in place, sharing the caller's
// cycle guard so reference cycles become a defined error.
type subMatchExtension struct{}

func (subMatchExtension) Name() string { return "match" }

func (subMatchExtension) Resolve(ctx *Context, v matches.Variable) (Value, error) {
	if id, ok := intParam(v.Params, "id"); ok {
		body, err := ctx.RenderMatch(id)
		if err != nil {
			return Value{}, err
		}
		return Value{Text: body}, nil
	}

	trigger, ok := stringParam(v.Params, "trigger")
	if !ok {
		return Value{}, fmt.Errorf("match variable %q needs a trigger or id param", v.Name)
	}
	for _, m := range ctx.Snapshot.Matches() {
		if m.Cause.Trigger == nil {
			continue
		}
		for _, t := range m.Cause.Trigger.Triggers {
			if t == trigger {
				body, err := ctx.RenderMatch(m.ID)
				if err != nil {
					return Value{}, err
				}
				return Value{Text: body}, nil
			}
		}
	}
	return Value{}, fmt.Errorf("match variable %q references unknown trigger %q", v.Name, trigger)
}
