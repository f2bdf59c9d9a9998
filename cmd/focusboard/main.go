// Package main is the entry point for the focusboard application.
// It loads configuration, wires storage and sync, and starts the TUI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"focusboard/internal/config"
	"focusboard/internal/hydrate"
	"focusboard/internal/notify"
	fbsync "focusboard/internal/sync"
	"focusboard/internal/ui"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const helpText = `focusboard - A local-first project and focus dashboard for your terminal

USAGE:
    focusboard [OPTIONS]
    focusboard <command> [ARGS]

COMMANDS:
    backup           Create a backup of your board
    backup --list    List available backups
    restore NAME     Restore from a specific backup
    restore --latest Restore from the most recent backup
    export           Generate a daily report (Markdown)
    export --weekly  Generate a weekly report
    sync             Sync with the configured remote
    sync --status    Show sync configuration and state
    import           Import todos from other apps
    serve            Serve snapshots over HTTP for other devices

OPTIONS:
    -h, --help       Show this help message
    -v, --version    Show version information

DESCRIPTION:
    focusboard keeps projects, todos and focus sessions on this device and
    syncs a whole-board snapshot with a remote (SQLite file, HTTP server or
    git repository) when one is configured. Edits never wait for the network.

KEYBINDINGS:
    Global:
        Tab          Switch between panes
        ?            Show help overlay
        s            Sync now
        u, Ctrl+Z    Undo last action
        Ctrl+Y       Redo
        q            Quit

    Todos Pane:
        j/k, ↓/↑     Navigate
        a            Add todo
        d/Space      Toggle done
        t            Tag for today
        x            Delete todo

    Focus Pane:
        f/Space      Start/stop a focus session on the selected todo

DATA STORAGE:
    Your board lives in ~/.focusboard/ as one plain JSON file:
        focusboard-storage.json
    The TUI logs to ~/.focusboard/focusboard.log.

CONFIGURATION:
    Optional config file: ~/.config/focusboard/config.yaml

EXAMPLES:
    # Start the app
    focusboard

    # Sync, letting the newest side win
    focusboard sync --strategy newest-wins

    # Generate weekly report as JSON
    focusboard export --weekly --format json

    # Share snapshots with other devices
    focusboard serve --addr :8787
`

func main() {
	// Check for subcommands first (before flag parsing)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "backup":
			runBackup(os.Args[2:])
			return
		case "restore":
			runRestore(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "sync":
			runSync(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "serve":
			runServe(os.Args[2:])
			return
		}
	}

	showVersion := flag.Bool("version", false, "show version information")
	flag.BoolVar(showVersion, "v", false, "show version information (shorthand)")

	showHelp := flag.Bool("help", false, "show help message")
	flag.BoolVar(showHelp, "h", false, "show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpText)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("focusboard version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Print(helpText)
		os.Exit(0)
	}

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unknown arguments: %v\n\n", flag.Args())
		flag.Usage()
		os.Exit(1)
	}

	if err := runTUI(loadConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the dashboard. Hydration runs behind a gate so the first
// frame shows a loading screen instead of an empty board.
func runTUI(cfg *config.Config) error {
	logFile, err := openLogFile(cfg.GetDataDir())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "focusboard: ", log.LstdFlags)

	prompter := ui.NewPrompter()
	var syncOpts []fbsync.Option
	if st, _ := fbsync.ParseStrategy(cfg.Sync.Strategy); st == fbsync.AskUser {
		syncOpts = append(syncOpts, fbsync.WithAsker(prompter.Ask))
	}

	b, err := openBoard(cfg, logger, syncOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Printf("close: %v", err)
			fmt.Fprintf(os.Stderr, "Error saving data: %v\n", err)
		}
	}()

	gate := hydrate.NewGate(b.persister)
	defer gate.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go b.monitor.Run(ctx)

	if cfg.Notifications.Enabled && cfg.Notifications.ReminderTime != "" {
		reminder, err := notify.NewReminder(notify.New(), b.store, cfg.Notifications.ReminderTime,
			notify.WithSound(cfg.Notifications.Sound),
			notify.WithLogger(logger),
		)
		if err != nil {
			logger.Printf("warning: %v", err)
		} else {
			go func() {
				if gate.Wait(ctx) == nil {
					reminder.Run(ctx)
				}
			}()
		}
	}

	app := ui.NewApp(b.store, ui.NewStyles(cfg), &ui.AppConfig{
		Keys:                  &cfg.Keys,
		ConfirmDeletions:      cfg.UX.ConfirmDeletions,
		NarrowLayoutThreshold: cfg.UX.NarrowLayoutThreshold,
		ShowCompleted:         cfg.UX.ShowCompleted,
	}, ui.Deps{
		Gate:          gate,
		Sync:          connectedClient(b),
		UserID:        cfg.Sync.UserID,
		Strategy:      b.strategy,
		Network:       b.monitor,
		Prompter:      prompter,
		SyncTimeout:   cfg.Timeout(),
		PullOnStartup: cfg.Sync.PullOnStartup,
		Logger:        logger,
	})

	if cfg.Sync.Enabled && cfg.Sync.AutoSync && cfg.Sync.UserID != "" {
		auto := fbsync.NewAutoSyncer(b.client, cfg.Sync.UserID, b.strategy, b.monitor)
		auto.OnSync(app.SyncObserver())
		go func() {
			if gate.Wait(ctx) == nil {
				auto.Run(ctx)
			}
		}()
	}

	logger.Printf("starting %s (data dir %s)", version, cfg.GetDataDir())
	return ui.Run(app)
}

// connectedClient returns the sync client when a remote is configured, so
// the dashboard can show "sync off" otherwise.
func connectedClient(b *board) *fbsync.Client {
	if !b.client.Connected() {
		return nil
	}
	return b.client
}
