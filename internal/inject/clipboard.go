package inject

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"snipd/internal/logging"
)

// SystemClipboard is the default Clipboard backed by the desktop clipboard.
// Text goes through the clipboard API; rich HTML degrades to its plain-text
// alternative because that API is text-only. Images shell out to a clipboard
// tool (xclip on X11, wl-copy on Wayland) fed through stdin.
type SystemClipboard struct {
	// ImageTool overrides the binary used for image content. Empty
	// auto-selects from the session type.
	ImageTool string

	run func(stdin io.Reader, name string, args ...string) error
}

func (c SystemClipboard) SetText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}

func (c SystemClipboard) SetHTML(html, fallback string) error {
	logging.InjectDebug("clipboard backend is text-only, dispatching plain fallback (%d bytes html dropped)", len(html))
	return c.SetText(fallback)
}

func (c SystemClipboard) SetImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("image %s not readable: %w", path, err)
	}
	defer f.Close()

	tool := c.imageTool()
	mime := imageMIME(path)
	logging.InjectDebug("copying image %s to the clipboard via %s (%s)", path, tool, mime)
	switch tool {
	case "wl-copy":
		return c.runTool(f, tool, "--type", mime)
	default:
		return c.runTool(f, tool, "-selection", "clipboard", "-t", mime)
	}
}

func (c SystemClipboard) imageTool() string {
	if c.ImageTool != "" {
		return c.ImageTool
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return "wl-copy"
	}
	return "xclip"
}

func (c SystemClipboard) runTool(stdin io.Reader, name string, args ...string) error {
	if c.run != nil {
		return c.run(stdin, name, args...)
	}
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, out)
	}
	return nil
}

func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
