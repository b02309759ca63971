package logging

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestLogging(t *testing.T, configYML string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(configYML), 0644))
	require.NoError(t, Initialize(dir))
	t.Cleanup(CloseAll)
	return dir
}

func TestDisabledCategoryGetsNoopLogger(t *testing.T) {
	initTestLogging(t, `
logging:
  debug_mode: true
  categories:
    match: false
`)

	assert.False(t, IsCategoryEnabled(CategoryMatch))
	assert.True(t, IsCategoryEnabled(CategoryRender))
}

func TestLevelGatesLowerSeverities(t *testing.T) {
	dir := initTestLogging(t, `
logging:
  debug_mode: true
  level: warn
`)

	Match("filtered out")
	Get(CategoryMatch).Warn("kept")

	entries, err := filepath.Glob(filepath.Join(dir, "logs", "*_match.log"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "filtered out")
	assert.Contains(t, string(data), "kept")
}

// Exercises the level reads against concurrent reloads; meaningful under
// the race detector.
func TestReloadConfigIsSafeAlongsideLogging(t *testing.T) {
	initTestLogging(t, `
logging:
  debug_mode: true
  level: debug
`)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				Match("entry %d", j)
				MatchDebug("entry %d", j)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			assert.NoError(t, ReloadConfig())
		}
	}()
	wg.Wait()
}
