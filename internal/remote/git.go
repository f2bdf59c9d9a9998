package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"focusboard/internal/fsutil"
	fbsync "focusboard/internal/sync"
)

const (
	defaultGitTimeout  = 10 * time.Second
	pullPushGitTimeout = 60 * time.Second
	commitGitTimeout   = 15 * time.Second

	snapshotDir = "snapshots"
)

// GitStatus summarizes the snapshot repository.
type GitStatus struct {
	IsRepo       bool
	HasRemote    bool
	RemoteName   string
	RemoteURL    string
	Branch       string
	Ahead        int
	Behind       int
	HasChanges   bool
	LastCommitAt *time.Time
}

// Git stores snapshots as snapshots/<userID>.json in a git repository and
// commits every write. With a git remote configured, Fetch pulls first and
// Store pushes after committing (when push is enabled).
type Git struct {
	dir    string
	push   bool
	logger *log.Logger

	// Serializes git operations to avoid index/lock conflicts.
	opMu gosync.Mutex
}

var _ fbsync.Remote = (*Git)(nil)

// NewGit returns a backend for the repository at dir. Nothing is created
// until Init or the first Store.
func NewGit(dir string, push bool, logger *log.Logger) *Git {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Git{dir: dir, push: push, logger: logger}
}

// IsGitInstalled checks if git is available on the system.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether dir is a git repository.
func (g *Git) IsRepo() bool {
	info, err := os.Stat(filepath.Join(g.dir, ".git"))
	return err == nil && info.IsDir()
}

// Init creates the repository with a .gitignore and an initial commit. It
// is a no-op for an existing repository.
func (g *Git) Init(ctx context.Context) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()
	return g.initLocked(ctx)
}

func (g *Git) initLocked(ctx context.Context) error {
	if g.IsRepo() {
		return nil
	}
	if !IsGitInstalled() {
		return errors.New("git is not installed")
	}
	if err := os.MkdirAll(filepath.Join(g.dir, snapshotDir), 0o700); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if _, err := g.run(ctx, commitGitTimeout, "init"); err != nil {
		return fmt.Errorf("failed to initialize git repository: %w", err)
	}

	gitignore := "# focusboard snapshot repository\n*.bak\n*.corrupt.*\n*.tmp-*\n"
	if err := fsutil.WriteFileAtomic(filepath.Join(g.dir, ".gitignore"), []byte(gitignore), 0o600); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	if _, err := g.run(ctx, defaultGitTimeout, "add", ".gitignore"); err != nil {
		return fmt.Errorf("failed to stage .gitignore: %w", err)
	}
	if _, err := g.run(ctx, commitGitTimeout, "-c", "commit.gpgsign=false", "commit", "-m", "Initialize focusboard snapshot repository"); err != nil {
		if !isGitNothingToCommit(err) {
			return fmt.Errorf("failed to create initial commit: %w", err)
		}
	}
	return nil
}

func (g *Git) snapshotPath(userID string) (string, error) {
	if userID == "" {
		return "", fbsync.ErrNoUser
	}
	if strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", fmt.Errorf("user id %q cannot be used as a file name", userID)
	}
	return filepath.Join(snapshotDir, userID+".json"), nil
}

// Fetch implements sync.Remote.
func (g *Git) Fetch(ctx context.Context, userID string) (*fbsync.Snapshot, error) {
	rel, err := g.snapshotPath(userID)
	if err != nil {
		return nil, err
	}

	g.opMu.Lock()
	defer g.opMu.Unlock()

	if g.IsRepo() && g.hasRemote(ctx) {
		if _, err := g.run(ctx, pullPushGitTimeout, "pull", "--rebase"); err != nil {
			return nil, fmt.Errorf("pull failed: %w", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(g.dir, rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return fbsync.DecodeSnapshot(data)
}

// Store implements sync.Remote.
func (g *Git) Store(ctx context.Context, snap fbsync.Snapshot) error {
	rel, err := g.snapshotPath(snap.UserID)
	if err != nil {
		return err
	}
	data, err := fbsync.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	g.opMu.Lock()
	defer g.opMu.Unlock()

	if err := g.initLocked(ctx); err != nil {
		return err
	}
	path := filepath.Join(g.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}

	if _, err := g.run(ctx, defaultGitTimeout, "add", rel); err != nil {
		return fmt.Errorf("failed to stage snapshot: %w", err)
	}
	staged, err := g.run(ctx, defaultGitTimeout, "diff", "--cached", "--name-only")
	if err != nil {
		return fmt.Errorf("failed to check staged changes: %w", err)
	}
	if trimOutput(staged) == "" {
		return nil
	}

	message := fmt.Sprintf("Sync snapshot for %s at %s", snap.UserID, snap.LastSync.UTC().Format(time.RFC3339))
	if _, err := g.run(ctx, commitGitTimeout, "-c", "commit.gpgsign=false", "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if g.push && g.hasRemote(ctx) {
		if _, err := g.run(ctx, pullPushGitTimeout, "push"); err != nil {
			// The snapshot is committed locally; the next Store pushes it.
			g.logger.Printf("warning: snapshot committed locally, but push failed: %v", err)
			return fmt.Errorf("committed locally, but push failed: %w", err)
		}
	}
	return nil
}

// Status returns the current repository status.
func (g *Git) Status(ctx context.Context) (*GitStatus, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	status := &GitStatus{IsRepo: g.IsRepo()}
	if !status.IsRepo {
		return status, nil
	}

	if branch, err := g.run(ctx, defaultGitTimeout, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		status.Branch = trimOutput(branch)
	}

	if remotes, err := g.run(ctx, defaultGitTimeout, "remote", "-v"); err == nil && trimOutput(remotes) != "" {
		status.HasRemote = true
		// First line: "origin\tgit@...\t(fetch)"
		first, _, _ := strings.Cut(trimOutput(remotes), "\n")
		if parts := strings.Fields(first); len(parts) >= 2 {
			status.RemoteName = parts[0]
			status.RemoteURL = parts[1]
		}
	}

	if out, err := g.run(ctx, defaultGitTimeout, "status", "--porcelain"); err == nil {
		status.HasChanges = trimOutput(out) != ""
	}

	if status.HasRemote && status.Branch != "" {
		upstream := status.RemoteName + "/" + status.Branch
		if out, err := g.run(ctx, defaultGitTimeout, "rev-list", "--left-right", "--count", status.Branch+"..."+upstream); err == nil {
			fmt.Sscanf(trimOutput(out), "%d\t%d", &status.Ahead, &status.Behind)
		}
	}

	if out, err := g.run(ctx, defaultGitTimeout, "log", "-1", "--format=%ci"); err == nil && trimOutput(out) != "" {
		if t, err := time.Parse("2006-01-02 15:04:05 -0700", trimOutput(out)); err == nil {
			status.LastCommitAt = &t
		}
	}
	return status, nil
}

// AddRemote adds the named git remote or updates its URL.
func (g *Git) AddRemote(ctx context.Context, name, url string) error {
	if name == "" {
		return errors.New("remote name is required")
	}
	if url == "" {
		return errors.New("remote URL is required")
	}

	g.opMu.Lock()
	defer g.opMu.Unlock()

	if err := g.initLocked(ctx); err != nil {
		return err
	}

	remotes, _ := g.run(ctx, defaultGitTimeout, "remote")
	for _, line := range strings.Split(trimOutput(remotes), "\n") {
		if strings.TrimSpace(line) == name {
			if _, err := g.run(ctx, defaultGitTimeout, "remote", "set-url", name, url); err != nil {
				return fmt.Errorf("failed to update remote: %w", err)
			}
			return nil
		}
	}
	if _, err := g.run(ctx, defaultGitTimeout, "remote", "add", name, url); err != nil {
		return fmt.Errorf("failed to add remote: %w", err)
	}
	return nil
}

func (g *Git) hasRemote(ctx context.Context) bool {
	out, err := g.run(ctx, defaultGitTimeout, "remote")
	return err == nil && trimOutput(out) != ""
}

func (g *Git) run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	cmd.Env = envWithOverrides(os.Environ(), map[string]string{
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_ASKPASS":         "",
		"SSH_ASKPASS":         "",
	})
	cmd.Stdin = bytes.NewReader(nil)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), timeout)
		}
		msg := trimOutput(stderr.String())
		if msg == "" {
			msg = trimOutput(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.New(msg)
	}
	return stdout.String(), nil
}

func envWithOverrides(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k, _, ok := strings.Cut(kv, "=")
		if v, override := overrides[k]; ok && override {
			out = append(out, k+"="+v)
			seen[k] = true
			continue
		}
		out = append(out, kv)
	}
	for k, v := range overrides {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}

func isGitNothingToCommit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nothing to commit") ||
		strings.Contains(msg, "nothing added to commit") ||
		strings.Contains(msg, "no changes added to commit")
}

func trimOutput(s string) string {
	return strings.TrimSpace(s)
}
