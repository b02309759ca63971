package render

import (
	"fmt"
	"sort"

	"snipd/internal/gui"
	"snipd/internal/matches"
)

// FormExtension resolves "form" variables by showing a blocking form
// dialog. A cancelled dialog aborts the whole render.
type FormExtension struct {
	ui gui.FormUI
}

// NewFormExtension wires the form dialog capability.
func NewFormExtension(ui gui.FormUI) *FormExtension {
	return &FormExtension{ui: ui}
}

func (*FormExtension) Name() string { return "form" }

func (f *FormExtension) Resolve(_ *Context, v matches.Variable) (Value, error) {
	layout, _ := stringParam(v.Params, "layout")
	fields := parseFormFields(layout, v.Params)

	values, ok, err := f.ui.Show(layout, fields)
	if err != nil {
		return Value{}, fmt.Errorf("form dialog failed: %w", err)
	}
	if !ok {
		return Value{}, ErrAborted
	}
	return Value{Fields: values}, nil
}

// parseFormFields derives the field list from the layout's placeholder
// order, merging per-field metadata from the fields param. Fields declared
// only in metadata come last, in name order.
func parseFormFields(layout string, params matches.Params) []gui.FormField {
	meta, _ := params["fields"].(map[string]interface{})

	var fields []gui.FormField
	seen := map[string]bool{}

	for _, groups := range placeholderRegex.FindAllStringSubmatch(layout, -1) {
		name := groups[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, formField(name, meta[name]))
	}

	extra := make([]string, 0, len(meta))
	for name := range meta {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		fields = append(fields, formField(name, meta[name]))
	}
	return fields
}

func formField(name string, raw interface{}) gui.FormField {
	field := gui.FormField{Name: name}

	attrs, ok := raw.(map[string]interface{})
	if !ok {
		return field
	}
	if multiline, ok := attrs["multiline"].(bool); ok {
		field.Multiline = multiline
	}
	if def, ok := attrs["default"].(string); ok {
		field.Default = def
	}
	if choices, ok := attrs["values"].([]interface{}); ok {
		for _, c := range choices {
			if s, ok := c.(string); ok {
				field.Choices = append(field.Choices, s)
			}
		}
	}
	return field
}
