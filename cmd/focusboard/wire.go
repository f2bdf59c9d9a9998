// Package main is the entry point for the focusboard application.
// This file builds the store, persistence and sync stack shared by the TUI
// and the subcommands.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"focusboard/internal/config"
	"focusboard/internal/netstate"
	"focusboard/internal/persist"
	"focusboard/internal/remote"
	"focusboard/internal/store"
	fbsync "focusboard/internal/sync"
)

const logFileName = "focusboard.log"

// board is the wired application: a store mirrored to disk, plus the sync
// client when a remote is configured.
type board struct {
	cfg       *config.Config
	logger    *log.Logger
	store     *store.Store
	persister *persist.Persister
	monitor   *netstate.Monitor
	client    *fbsync.Client
	strategy  fbsync.Strategy

	closers []func() error
}

// openBoard wires the stack without hydrating it. Call persister.Start (or
// hand the persister to a hydrate.Gate) before reading the store.
func openBoard(cfg *config.Config, logger *log.Logger, syncOpts ...fbsync.Option) (*board, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	kv, err := persist.NewFileKV(cfg.GetDataDir(), persist.WithKVLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}

	s := store.New()
	b := &board{
		cfg:       cfg,
		logger:    logger,
		store:     s,
		persister: persist.New(kv, s, persist.WithName(cfg.StorageName), persist.WithLogger(logger)),
		monitor:   newMonitor(cfg, logger),
	}
	b.closers = append(b.closers, b.persister.Close)

	b.strategy, err = fbsync.ParseStrategy(cfg.Sync.Strategy)
	if err != nil {
		b.Close()
		return nil, err
	}

	opts := append([]fbsync.Option{
		fbsync.WithLogger(logger),
		fbsync.WithNetwork(b.monitor),
	}, syncOpts...)
	b.client = fbsync.NewClient(s, opts...)

	if cfg.Sync.Enabled {
		r, closeRemote, err := openRemote(cfg, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		if closeRemote != nil {
			b.closers = append(b.closers, closeRemote)
		}
		b.client.Connect(r)
	}
	return b, nil
}

// hydrate loads the persisted record synchronously.
func (b *board) hydrate() {
	b.persister.Start()
}

// Close flushes pending writes and releases the remote, newest first.
func (b *board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

func newMonitor(cfg *config.Config, logger *log.Logger) *netstate.Monitor {
	if cfg.Sync.ProbeAddr == "" {
		return netstate.NewMonitor(true, netstate.WithLogger(logger))
	}
	return netstate.NewMonitor(true,
		netstate.WithProber(netstate.DialProber(cfg.Sync.ProbeAddr, cfg.Timeout())),
		netstate.WithInterval(cfg.ProbeInterval()),
		netstate.WithLogger(logger),
	)
}

// openRemote returns the configured snapshot backend and, when it holds a
// resource, the func that releases it.
func openRemote(cfg *config.Config, logger *log.Logger) (fbsync.Remote, func() error, error) {
	switch cfg.Sync.Backend {
	case config.BackendSQLite, "":
		db, err := remote.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open snapshot database: %w", err)
		}
		return db, db.Close, nil
	case config.BackendHTTP:
		c, err := remote.NewHTTPClient(cfg.Sync.URL, cfg.Timeout())
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case config.BackendGit:
		if !remote.IsGitInstalled() {
			return nil, nil, errors.New("git is not installed; install git or pick another sync backend")
		}
		return remote.NewGit(cfg.GitDir(), cfg.Sync.GitPush, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown sync backend %q", cfg.Sync.Backend)
	}
}

// openLogFile opens the TUI log inside the data directory.
func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dataDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

// stderrLogger is the logger subcommands use.
func stderrLogger() *log.Logger {
	return log.New(os.Stderr, "focusboard: ", 0)
}

// loadConfig loads the configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in config %s: %v\n", config.Path(), err)
		os.Exit(1)
	}
	return cfg
}

// mustOpenBoard opens and hydrates the board or exits.
func mustOpenBoard(cfg *config.Config, logger *log.Logger, syncOpts ...fbsync.Option) *board {
	b, err := openBoard(cfg, logger, syncOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing storage: %v\n", err)
		os.Exit(1)
	}
	b.hydrate()
	return b
}

// closeBoard flushes the board and reports a failed final write.
func closeBoard(b *board) {
	if err := b.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving data: %v\n", err)
		os.Exit(1)
	}
}
