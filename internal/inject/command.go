package inject

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"snipd/internal/logging"
)

// CommandInjector drives an external typing tool (xdotool on X11, wtype on
// Wayland). It is the portable backend; platform-native backends can replace
// it behind the Injector interface.
type CommandInjector struct {
	tool string
	run  func(name string, args ...string) error
}

// NewCommandInjector builds an injector around the named tool binary.
func NewCommandInjector(tool string) *CommandInjector {
	return &CommandInjector{
		tool: tool,
		run: func(name string, args ...string) error {
			out, err := exec.Command(name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s failed: %w (%s)", name, err, out)
			}
			return nil
		},
	}
}

func (c *CommandInjector) SendText(text string, opts Options) error {
	if text == "" {
		return nil
	}
	if opts.DisableFastInject {
		keys := make([]Key, 0, len(text))
		for _, r := range text {
			keys = append(keys, CharKey(r))
		}
		return c.SendKeys(keys, opts)
	}

	delayMs := strconv.Itoa(int(opts.keyDelay() / time.Millisecond))
	logging.InjectDebug("typing %d chars via %s", len([]rune(text)), c.tool)
	switch c.tool {
	case "wtype":
		return c.run(c.tool, "-d", delayMs, text)
	default:
		return c.run(c.tool, "type", "--delay", delayMs, "--", text)
	}
}

func (c *CommandInjector) SendKeys(keys []Key, opts Options) error {
	delay := opts.keyDelay()
	for _, k := range keys {
		var err error
		switch c.tool {
		case "wtype":
			if k.Kind == KindChar {
				err = c.run(c.tool, string(k.Char))
			} else {
				err = c.run(c.tool, "-k", k.Keysym())
			}
		default:
			err = c.run(c.tool, "key", "--", k.Keysym())
		}
		if err != nil {
			return err
		}
		time.Sleep(delay)
	}
	return nil
}

func (c *CommandInjector) Paste(_ Options) error {
	switch c.tool {
	case "wtype":
		return c.run(c.tool, "-M", "ctrl", "v", "-m", "ctrl")
	default:
		return c.run(c.tool, "key", "--clearmodifiers", "ctrl+v")
	}
}
