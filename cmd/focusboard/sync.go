// Package main is the entry point for the focusboard application.
// This file contains the sync subcommand handler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"focusboard/internal/config"
	"focusboard/internal/remote"
	fbsync "focusboard/internal/sync"
)

// syncHelpText is the help message for the sync subcommand.
const syncHelpText = `focusboard sync - Synchronize your board with a remote

USAGE:
    focusboard sync [OPTIONS]

OPTIONS:
    --push           Overwrite the remote snapshot with this device's board
    --pull           Replace this device's board with the remote snapshot
    --status         Show sync configuration and remote state
    --init           Initialize the git snapshot repository (git backend)
    --strategy S     Conflict strategy for this run: local-wins,
                     remote-wins, newest-wins or ask-user
    -h, --help       Show this help message

DESCRIPTION:
    Without options, fetches the remote snapshot and reconciles it with the
    local board. When both sides changed, the strategy picks a winner and
    the whole board is taken from that side.

CONFIGURATION:
    sync:
      enabled: true
      backend: sqlite          # sqlite, http or git
      user_id: me@example.com
      strategy: newest-wins
      sqlite_path: ~/.focusboard/snapshots.db
      url: http://nas.local:8787
      git_dir: ~/.focusboard/sync
      git_push: false
      auto_sync: true
      pull_on_startup: false

EXAMPLES:
    # Reconcile with the remote
    focusboard sync

    # Decide conflicts interactively
    focusboard sync --strategy ask-user

    # Check what is configured
    focusboard sync --status
`

// runSync handles the "focusboard sync" subcommand.
func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	pushFlag := fs.Bool("push", false, "push the local board")
	pullFlag := fs.Bool("pull", false, "pull the remote board")
	statusFlag := fs.Bool("status", false, "show sync status")
	initFlag := fs.Bool("init", false, "initialize git snapshot repository")
	strategyFlag := fs.String("strategy", "", "conflict strategy for this run")
	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, syncHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(syncHelpText)
		os.Exit(0)
	}

	cfg := loadConfig()
	if *strategyFlag != "" {
		cfg.Sync.Strategy = *strategyFlag
	}
	strategy, err := fbsync.ParseStrategy(cfg.Sync.Strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *statusFlag {
		runSyncStatus(cfg)
		return
	}
	if *initFlag {
		runSyncInit(cfg)
		return
	}

	if !cfg.Sync.Enabled {
		fmt.Fprintln(os.Stderr, "Error: sync is disabled.")
		fmt.Fprintf(os.Stderr, "Set sync.enabled: true in %s\n", config.Path())
		os.Exit(1)
	}
	if cfg.Sync.UserID == "" {
		fmt.Fprintln(os.Stderr, "Error: sync.user_id is not set.")
		os.Exit(1)
	}

	var opts []fbsync.Option
	if strategy == fbsync.AskUser {
		opts = append(opts, fbsync.WithAsker(askStdin))
	}
	b := mustOpenBoard(cfg, stderrLogger(), opts...)

	// An ask-user run waits on the terminal, so only the backends' own
	// timeouts apply.
	ctx, cancel := context.WithCancel(context.Background())
	if strategy != fbsync.AskUser {
		cancel()
		ctx, cancel = context.WithTimeout(context.Background(), cfg.Timeout())
	}

	switch {
	case *pushFlag:
		err = syncPush(ctx, b)
	case *pullFlag:
		err = syncPull(ctx, b)
	default:
		err = syncReconcile(ctx, b, strategy)
	}
	cancel()
	closeBoard(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func syncPush(ctx context.Context, b *board) error {
	fmt.Println("Pushing local board...")
	snap, err := b.client.Push(ctx, b.cfg.Sync.UserID, b.store.State())
	if err != nil {
		return err
	}
	fmt.Printf("✓ Pushed snapshot %s (%s)\n", snap.ID, formatStats(snap.State.Counts()))
	return nil
}

func syncPull(ctx context.Context, b *board) error {
	fmt.Println("Pulling remote board...")
	snap, err := b.client.Pull(ctx, b.cfg.Sync.UserID)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Println("No remote snapshot yet. Run 'focusboard sync --push' to create one.")
		return nil
	}
	b.store.Replace(snap.State, snap.LastSync)
	fmt.Printf("✓ Pulled snapshot from %s (%s)\n",
		snap.LastSync.Local().Format("2006-01-02 15:04"), formatStats(snap.State.Counts()))
	return nil
}

func syncReconcile(ctx context.Context, b *board, strategy fbsync.Strategy) error {
	fmt.Printf("Syncing (%s)...\n", strategy)
	res, err := b.client.Sync(ctx, b.cfg.Sync.UserID, strategy)
	if err != nil {
		return err
	}
	switch res.Action {
	case fbsync.ActionPushed:
		fmt.Println("✓ Local board pushed to the remote.")
	case fbsync.ActionPulled:
		fmt.Println("✓ Remote board applied locally.")
	default:
		fmt.Println("✓ Already in sync.")
	}
	return nil
}

// askStdin is the ask-user conflict prompt for the terminal.
func askStdin(ctx context.Context, c fbsync.Conflict) (fbsync.Winner, error) {
	fmt.Println()
	fmt.Println("Both this device and the remote have changes.")
	fmt.Printf("  Local:  %s, changed %s\n", formatStats(c.Local.Counts()), formatWhen(c.LocalAt))
	fmt.Printf("  Remote: %s, synced %s\n", formatStats(c.Remote.State.Counts()), formatWhen(c.Remote.LastSync))

	type answer struct {
		keepLocal bool
		err       error
	}
	done := make(chan answer, 1)
	go func() {
		ok, err := confirm("Keep the local board? [Y/n] (n takes the remote) ", true)
		done <- answer{ok, err}
	}()

	select {
	case <-ctx.Done():
		return fbsync.Undecided, ctx.Err()
	case a := <-done:
		if a.err != nil {
			return fbsync.Undecided, a.err
		}
		if a.keepLocal {
			return fbsync.KeepLocal, nil
		}
		return fbsync.KeepRemote, nil
	}
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return formatAge(t)
}

// runSyncStatus shows the sync configuration and, when reachable, the
// remote snapshot.
func runSyncStatus(cfg *config.Config) {
	fmt.Println("Sync Status")
	fmt.Println("───────────")

	if cfg.Sync.Enabled {
		fmt.Println("Sync:       enabled")
	} else {
		fmt.Println("Sync:       disabled")
	}
	fmt.Printf("Backend:    %s\n", describeBackend(cfg))
	fmt.Printf("User:       %s\n", orNone(cfg.Sync.UserID))
	fmt.Printf("Strategy:   %s\n", cfg.Sync.Strategy)
	fmt.Printf("Auto sync:  %v\n", cfg.Sync.AutoSync)
	fmt.Printf("Data dir:   %s\n", cfg.GetDataDir())

	if !cfg.Sync.Enabled || cfg.Sync.UserID == "" {
		return
	}

	if cfg.Sync.Backend == config.BackendGit && remote.IsGitInstalled() {
		printGitStatus(cfg)
	}

	b := mustOpenBoard(cfg, stderrLogger())
	defer closeBoard(b)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	snap, err := b.client.Pull(ctx, cfg.Sync.UserID)
	switch {
	case err != nil:
		fmt.Printf("Remote:     unreachable (%v)\n", err)
	case snap == nil:
		fmt.Println("Remote:     no snapshot yet")
	default:
		fmt.Printf("Remote:     %s, synced %s\n", formatStats(snap.State.Counts()), formatWhen(snap.LastSync))
	}
	fmt.Printf("Local:      %s, changed %s\n", formatStats(b.store.State().Counts()), formatWhen(b.store.ModifiedAt()))
}

func describeBackend(cfg *config.Config) string {
	switch cfg.Sync.Backend {
	case config.BackendHTTP:
		return "http (" + orNone(cfg.Sync.URL) + ")"
	case config.BackendGit:
		return "git (" + cfg.GitDir() + ")"
	default:
		return "sqlite (" + cfg.SQLitePath() + ")"
	}
}

func printGitStatus(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	status, err := remote.NewGit(cfg.GitDir(), cfg.Sync.GitPush, nil).Status(ctx)
	if err != nil {
		fmt.Printf("Git:        %v\n", err)
		return
	}
	if !status.IsRepo {
		fmt.Println("Git:        not initialized (run 'focusboard sync --init')")
		return
	}
	fmt.Printf("Branch:     %s\n", status.Branch)
	if status.HasRemote {
		fmt.Printf("Git remote: %s (%s), %d ahead, %d behind\n",
			status.RemoteName, status.RemoteURL, status.Ahead, status.Behind)
	} else {
		fmt.Println("Git remote: not configured")
	}
	if status.LastCommitAt != nil {
		fmt.Printf("Last commit: %s\n", formatAge(*status.LastCommitAt))
	}
}

// runSyncInit prepares the git snapshot repository.
func runSyncInit(cfg *config.Config) {
	if cfg.Sync.Backend != config.BackendGit {
		fmt.Fprintf(os.Stderr, "Error: --init applies to the git backend (configured: %s)\n", cfg.Sync.Backend)
		os.Exit(1)
	}
	if !remote.IsGitInstalled() {
		fmt.Fprintln(os.Stderr, "Error: git is not installed. Please install git to use the git backend.")
		os.Exit(1)
	}

	g := remote.NewGit(cfg.GitDir(), cfg.Sync.GitPush, stderrLogger())
	if g.IsRepo() {
		fmt.Printf("Git repository already initialized in %s\n", cfg.GitDir())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := g.Init(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Repository initialized in %s\n", cfg.GitDir())
	fmt.Println()
	fmt.Println("To share snapshots between devices, add a git remote:")
	fmt.Printf("    cd %s && git remote add origin <your-repo-url>\n", cfg.GitDir())
	fmt.Println("and set sync.git_push: true.")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
