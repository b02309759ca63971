package matches

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"snipd/internal/logging"

	"gopkg.in/yaml.v3"
)

// varRegex matches {{name}} and {{name.field}} placeholders.
var varRegex = regexp.MustCompile(`\{\{\s*(\w+)(\.\w+)?\s*\}\}`)

// yamlMatchGroup is the on-disk shape of one definition file.
type yamlMatchGroup struct {
	Imports    []string       `yaml:"imports"`
	GlobalVars []yamlVariable `yaml:"global_vars"`
	Matches    []yamlMatch    `yaml:"matches"`
}

type yamlMatch struct {
	Trigger  *string  `yaml:"trigger"`
	Triggers []string `yaml:"triggers"`
	Regex    *string  `yaml:"regex"`

	Replace   *string `yaml:"replace"`
	Markdown  *string `yaml:"markdown"`
	HTML      *string `yaml:"html"`
	Form      *string `yaml:"form"`
	ImagePath *string `yaml:"image_path"`

	Label *string `yaml:"label"`

	Vars       []yamlVariable         `yaml:"vars"`
	FormFields map[string]interface{} `yaml:"form_fields"`

	Word      *bool `yaml:"word"`
	LeftWord  *bool `yaml:"left_word"`
	RightWord *bool `yaml:"right_word"`

	PropagateCase  *bool   `yaml:"propagate_case"`
	UppercaseStyle *string `yaml:"uppercase_style"`

	ForceClipboard *bool   `yaml:"force_clipboard"`
	ForceMode      *string `yaml:"force_mode"`
}

type yamlVariable struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

// IsSupportedExtension reports whether the loader handles files with the
// given extension (without the leading dot).
func IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == "yaml" || ext == "yml"
}

// LoadGroup parses one definition file into a MatchGroup, resolving its
// imports best-effort and allocating ids from the given session allocator.
func LoadGroup(path string, alloc *IDAllocator) (*MatchGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read match group %s: %w", path, err)
	}
	return parseGroup(path, data, alloc)
}

func parseGroup(path string, data []byte, alloc *IDAllocator) (*MatchGroup, error) {
	var group yamlMatchGroup
	if err := yaml.Unmarshal(data, &group); err != nil {
		return nil, fmt.Errorf("invalid match group %s: %w", path, err)
	}

	globalVars := make([]Variable, 0, len(group.GlobalVars))
	for _, v := range group.GlobalVars {
		globalVars = append(globalVars, convertVariable(v, alloc))
	}

	converted := make([]Match, 0, len(group.Matches))
	for _, m := range group.Matches {
		converted = append(converted, convertMatch(m, alloc))
	}

	return &MatchGroup{
		Imports:    resolveImports(path, group.Imports),
		GlobalVars: globalVars,
		Matches:    converted,
	}, nil
}

// resolveImports turns import paths relative to the defining file into
// absolute paths. Unreadable imports are dropped with a warning: a broken
// import must never fail the rest of the load.
func resolveImports(basePath string, imports []string) []string {
	baseDir := filepath.Dir(basePath)

	resolved := make([]string, 0, len(imports))
	for _, imp := range imports {
		target := imp
		if !filepath.IsAbs(target) {
			target = filepath.Join(baseDir, target)
		}
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			logging.Get(logging.CategoryStore).Warn("dropping unresolvable import %q of %s", imp, basePath)
			continue
		}
		resolved = append(resolved, target)
	}
	return resolved
}

func convertVariable(v yamlVariable, alloc *IDAllocator) Variable {
	params := Params(v.Params)
	if params == nil {
		params = Params{}
	}
	return Variable{
		ID:     alloc.Next(),
		Name:   v.Name,
		Type:   v.Type,
		Params: params,
	}
}

func convertMatch(ym yamlMatch, alloc *IDAllocator) Match {
	if ym.UppercaseStyle != nil && ym.PropagateCase == nil {
		logging.Get(logging.CategoryStore).Warn("'uppercase_style' without 'propagate_case' has no effect")
	}

	var triggers []string
	if ym.Trigger != nil {
		triggers = []string{*ym.Trigger}
	} else if len(ym.Triggers) > 0 {
		triggers = ym.Triggers
	}

	cause := Cause{}
	switch {
	case len(triggers) > 0:
		cause.Trigger = &TriggerCause{
			Triggers:       triggers,
			LeftWord:       boolOr(ym.LeftWord, ym.Word, false),
			RightWord:      boolOr(ym.RightWord, ym.Word, false),
			PropagateCase:  boolOr(ym.PropagateCase, nil, false),
			UppercaseStyle: parseUppercaseStyle(ym.UppercaseStyle),
		}
	case ym.Regex != nil:
		cause.Regex = &RegexCause{Regex: *ym.Regex}
	}

	effect := convertEffect(ym, alloc)
	if effect.IsNone() {
		logging.Get(logging.CategoryStore).Warn("match caused by %q does not produce any effect. Did you forget the 'replace' field?", cause.Description())
	}

	m := Match{
		ID:     alloc.Next(),
		Cause:  cause,
		Effect: effect,
	}
	if ym.Label != nil {
		m.Label = *ym.Label
	}
	return m
}

func convertEffect(ym yamlMatch, alloc *IDAllocator) Effect {
	forceMode := parseForceMode(ym)

	switch {
	case ym.Replace != nil || ym.Markdown != nil || ym.HTML != nil:
		var replace string
		var format TextFormat
		switch {
		case ym.Replace != nil:
			replace, format = *ym.Replace, FormatPlain
		case ym.Markdown != nil:
			replace, format = *ym.Markdown, FormatMarkdown
		default:
			replace, format = *ym.HTML, FormatHTML
		}

		vars := make([]Variable, 0, len(ym.Vars))
		for _, v := range ym.Vars {
			vars = append(vars, convertVariable(v, alloc))
		}

		return Effect{Text: &TextEffect{
			Replace:   replace,
			Vars:      vars,
			Format:    format,
			ForceMode: forceMode,
		}}

	case ym.Form != nil:
		layout := *ym.Form

		// Rewrite form fields to reference the synthetic form variable,
		// so {{name}} in the layout becomes {{form1.name}}.
		resolved := varRegex.ReplaceAllStringFunc(layout, func(placeholder string) string {
			groups := varRegex.FindStringSubmatch(placeholder)
			return fmt.Sprintf("{{form1.%s}}", groups[1])
		})

		// Escaped brackets must not survive as placeholder delimiters.
		resolved = strings.ReplaceAll(resolved, `\{`, "{ ")
		resolved = strings.ReplaceAll(resolved, `\}`, " }")

		params := Params{"layout": layout}
		if ym.FormFields != nil {
			params["fields"] = ym.FormFields
		}

		return Effect{Text: &TextEffect{
			Replace: resolved,
			Vars: []Variable{{
				ID:     alloc.Next(),
				Name:   "form1",
				Type:   "form",
				Params: params,
			}},
			Format:    FormatPlain,
			ForceMode: forceMode,
		}}

	case ym.ImagePath != nil:
		return Effect{Image: &ImageEffect{Path: *ym.ImagePath}}
	}

	return Effect{}
}

// parseForceMode preserves the legacy precedence: force_clipboard wins over
// an explicit force_mode when both are present.
func parseForceMode(ym yamlMatch) *InjectMode {
	if ym.ForceClipboard != nil && *ym.ForceClipboard {
		mode := InjectClipboard
		return &mode
	}
	if ym.ForceMode != nil {
		switch strings.ToLower(*ym.ForceMode) {
		case "clipboard":
			mode := InjectClipboard
			return &mode
		case "keys":
			mode := InjectKeys
			return &mode
		}
	}
	return nil
}

func parseUppercaseStyle(style *string) UppercaseStyle {
	if style == nil {
		return StyleUppercase
	}
	switch strings.ToLower(*style) {
	case "uppercase":
		return StyleUppercase
	case "capitalize":
		return StyleCapitalize
	case "capitalize_words":
		return StyleCapitalizeWords
	default:
		logging.Get(logging.CategoryStore).Warn("unrecognized uppercase_style: %q, falling back to the default", *style)
		return StyleUppercase
	}
}

func boolOr(explicit, legacy *bool, def bool) bool {
	if explicit != nil {
		return *explicit
	}
	if legacy != nil {
		return *legacy
	}
	return def
}
