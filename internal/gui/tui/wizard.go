package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"snipd/internal/logging"
)

// SetupWizard bootstraps a fresh installation: it lays down the config
// directory, a starter config.yml, and a sample match file so the daemon
// has something to expand on first run.
type SetupWizard struct {
	ConfigDir string
}

const starterConfig = `# snipd configuration
inject:
  backend: auto
  tool: xdotool
  key_delay: 2ms
watcher:
  debounce: 1s
logging:
  debug_mode: false
  level: info
`

const starterMatches = `# Sample matches. Edit freely; changes reload live.
matches:
  - trigger: ":date"
    replace: "{{today}}"
    vars:
      - name: today
        type: date
        params:
          format: "%Y-%m-%d"

  - trigger: ":shrug"
    replace: "¯\\_(ツ)_/¯"
`

// Run creates whatever first-run files are missing. Existing files are
// never touched.
func (w SetupWizard) Run() error {
	matchDir := filepath.Join(w.ConfigDir, "match")
	if err := os.MkdirAll(matchDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(w.ConfigDir, "config.yml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(starterConfig), 0644); err != nil {
			return fmt.Errorf("failed to write starter config: %w", err)
		}
		logging.Boot("wrote starter config: %s", configPath)
	}

	basePath := filepath.Join(matchDir, "base.yml")
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.WriteFile(basePath, []byte(starterMatches), 0644); err != nil {
			return fmt.Errorf("failed to write sample matches: %w", err)
		}
		logging.Boot("wrote sample matches: %s", basePath)
	}
	return nil
}
