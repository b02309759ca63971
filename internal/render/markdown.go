package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

var markdown = goldmark.New()

// MarkdownToHTML converts a markdown body into the HTML form used for rich
// clipboard dispatch.
func MarkdownToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
