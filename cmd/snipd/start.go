package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"snipd/internal/engine"
	"snipd/internal/gui/tui"
	"snipd/internal/history"
	"snipd/internal/inject"
	"snipd/internal/matches"
	"snipd/internal/render"
	"snipd/internal/secure"
	"snipd/internal/selector"
	"snipd/internal/watcher"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the expansion daemon",
	Long: `Starts the processing loop: keystrokes are matched against the active
triggers, expansions are rendered and injected into the focused
application. Match files reload automatically on change, and expansion
pauses while another process holds secure keyboard input.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	release, err := acquireLock(cfg.DataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitAlreadyRunning)
	}
	defer release()

	// First run: lay down the starter config and a sample match file.
	if err := (tui.SetupWizard{ConfigDir: configDir}).Run(); err != nil {
		return fmt.Errorf("first-run setup failed: %w", err)
	}

	store := matches.NewStore()

	journal, err := history.Open(cfg.DataDir)
	if err != nil {
		logger.Warn("history journal unavailable", zap.Error(err))
	} else {
		defer journal.Close()
	}

	injector := inject.NewCommandInjector(cfg.Inject.Tool)
	dispatcher := inject.NewDispatcher(
		injector,
		inject.SystemClipboard{},
		inject.Backend(cfg.Inject.Backend),
		inject.Options{
			KeyDelay:          cfg.KeyDelay(),
			DisableFastInject: cfg.Inject.DisableFastInject,
		},
	)

	renderer := render.New(render.NewFormExtension(tui.NewForm()))
	picker := selector.New(tui.NewPalette(cfg.UI.MaxResults), store.Snapshot)

	var fileWatcher *watcher.Watcher
	if cfg.WatcherEnabled() {
		fileWatcher, err = watcher.New(cfg.MatchDirs, cfg.WatcherDebounce())
		if err != nil {
			return fmt.Errorf("failed to create match watcher: %w", err)
		}
	}

	monitor := secure.NewMonitor(newPlatformProber(), cfg.SecurePollInterval())

	deps := engine.Deps{
		Store:      store,
		MatchDirs:  cfg.MatchDirs,
		Picker:     picker,
		Renderer:   renderer,
		Dispatcher: dispatcher,
		Secures:    monitor.Events(),
	}
	if journal != nil {
		deps.Recorder = journal
	}
	if fileWatcher != nil {
		deps.Reloads = fileWatcher.Reloads()
	}

	eng := engine.New(deps)
	if err := eng.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		release()
		os.Exit(exitStartError)
	}
	defer eng.Stop()

	if fileWatcher != nil {
		if err := fileWatcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start match watcher: %w", err)
		}
		defer fileWatcher.Stop()
	}
	monitor.Start(ctx)
	defer monitor.Stop()

	logger.Info("snipd started",
		zap.Strings("match_dirs", cfg.MatchDirs),
		zap.Int("matches", store.Snapshot().Len()),
		zap.String("backend", cfg.Inject.Backend),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return feedInput(ctx, eng)
	})
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

// feedInput streams typed characters into the engine. The daemon reads the
// keystroke stream from stdin; a platform key-capture frontend pipes into
// it.
func feedInput(ctx context.Context, eng *engine.Engine) error {
	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}
		r, _, err := reader.ReadRune()
		if err != nil {
			// Stdin closing is a normal way to run detached; the daemon
			// keeps serving reloads and the search shortcut.
			<-ctx.Done()
			return nil
		}
		switch r {
		case '\b', 0x7f:
			eng.OnBackspace()
		default:
			eng.OnChar(r)
		}
	}
}

// newPlatformProber picks the secure-input probe for this platform. Linux
// has no global capture flag to read, so the null probe reports it off.
func newPlatformProber() secure.Prober {
	return secure.NullProber{}
}
