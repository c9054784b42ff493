package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/vidyasagar/tabroll/internal/app"
	"github.com/vidyasagar/tabroll/internal/browser"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/roller"
	"github.com/vidyasagar/tabroll/internal/storage"
	"github.com/vidyasagar/tabroll/internal/suppress"
	"github.com/vidyasagar/tabroll/internal/theme"
	"github.com/vidyasagar/tabroll/internal/workspace"
	"pkt.systems/pslog"
)

type runFlags struct {
	configPath   string
	theme        string
	debug        bool
	noRestore    bool
	noTitles     bool
	suppressMode string
	changed      func(name string) bool
}

// apply overrides cfg with the flags the user set.
func (f runFlags) apply(cfg *storage.Config) {
	changed := f.changed
	if changed == nil {
		changed = func(string) bool { return false }
	}
	if changed("theme") {
		cfg.Theme = f.theme
	}
	if changed("debug") && f.debug {
		cfg.Log.Level = "debug"
	}
	if changed("no-restore") && f.noRestore {
		cfg.Session.Restore = false
	}
	if changed("no-titles") && f.noTitles {
		cfg.Titles.Fetch = false
	}
	if changed("suppress-mode") {
		cfg.Suppress.Mode = f.suppressMode
	}
}

func logOptions(level string) pslog.Options {
	opts := pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.InfoLevel}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	}
	return opts
}

func openLogFile(cfg storage.Config, dataDir string) (*os.File, error) {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(dataDir, "tabroll.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// runUI loads configuration, restores the workspace and runs the terminal
// UI alongside the history service until the user quits.
func runUI(ctx context.Context, flags runFlags, urls []string) error {
	cfg, err := storage.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	flags.apply(&cfg)

	if !theme.Set(cfg.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", cfg.Theme, strings.Join(theme.List(), ", "))
	}
	mode, err := suppress.ParseMode(cfg.Suppress.Mode)
	if err != nil {
		return err
	}

	dataDir, err := storage.DataDir()
	if err != nil {
		return err
	}
	logFile, err := openLogFile(cfg, dataDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// The UI owns the terminal from here on.
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(logFile),
		pslog.WithEnvOptions(logOptions(cfg.Log.Level)),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	logger.Info("tabroll starting", "version", version, "suppress_mode", mode, "max_stack_length", cfg.History.MaxStackLength)

	wsOpts := []workspace.Option{workspace.WithLogger(logger.With("component", "workspace"))}
	db, err := storage.OpenDB(dataDir)
	if err != nil {
		logger.Warn("session storage unavailable, layout will not be saved", "err", err)
	} else {
		defer db.Close()
		wsOpts = append(wsOpts, workspace.WithSession(storage.NewSessionStore(db)))
	}
	ws := workspace.New(wsOpts...)

	if cfg.Session.Restore {
		if _, err := ws.Restore(ctx); err != nil {
			logger.Warn("session restore failed", "err", err)
		}
	}
	if len(ws.Windows()) == 0 && len(urls) == 0 {
		ws.OpenWindow(host.WindowNormal, "", "")
	}

	var titles *browser.TitleResolver
	if cfg.Titles.Fetch {
		titles, err = browser.NewTitleResolver(browser.NewFetcher(), cfg.Titles.CacheSize, logger.With("component", "titles"))
		if err != nil {
			return err
		}
	}

	svc := roller.New(ws, roller.Config{
		MaxStackLength:    cfg.History.MaxStackLength,
		SuppressMode:      mode,
		SuppressDelay:     cfg.SuppressDelay(),
		ReconcileInterval: cfg.ReconcileInterval(),
	}, logger.With("component", "roller"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Start URLs are opened here, so their activations happen before the
	// service subscribes and seeds.
	model := app.New(app.Options{
		Context:   gctx,
		Workspace: ws,
		Service:   svc,
		Titles:    titles,
		Logger:    logger.With("component", "ui"),
		StartURLs: urls,
	})

	g.Go(func() error {
		return svc.Run(gctx)
	})

	g.Go(func() error {
		defer cancel()
		p := tea.NewProgram(model,
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
			tea.WithContext(gctx),
		)
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("running UI: %w", err)
		}
		return nil
	})

	runErr := g.Wait()

	if err := ws.Save(context.Background()); err != nil {
		logger.Warn("saving session failed", "err", err)
	}
	logger.Info("tabroll stopped")
	return runErr
}
