package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	gosync "sync"
	"sync/atomic"
	"time"

	"focusboard/internal/model"
	"focusboard/internal/netstate"
	"focusboard/internal/store"

	"github.com/google/uuid"
)

// Action is what a Sync call did.
type Action string

const (
	ActionNone   Action = "none"
	ActionPushed Action = "pushed"
	ActionPulled Action = "pulled"
)

// Result describes a finished Sync.
type Result struct {
	Action Action
	// Winner is set when local and remote differed.
	Winner   Winner
	Snapshot *Snapshot
}

// Client pushes and pulls snapshots of one local store.
type Client struct {
	local  *store.Store
	logger *log.Logger
	now    func() time.Time
	net    *netstate.Monitor
	ask    Asker
	newID  func() string

	mu       gosync.RWMutex
	remote   Remote
	lastSync time.Time

	busy atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithRemote connects the client at construction time.
func WithRemote(r Remote) Option {
	return func(c *Client) { c.remote = r }
}

// WithLogger sets where sync failures and fallback warnings are logged.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithNetwork gates every operation on m.Online().
func WithNetwork(m *netstate.Monitor) Option {
	return func(c *Client) { c.net = m }
}

// WithAsker sets the callback used by the AskUser strategy.
func WithAsker(a Asker) Option {
	return func(c *Client) { c.ask = a }
}

// NewClient returns a client for local. It is not connected unless
// WithRemote is given.
func NewClient(local *store.Store, opts ...Option) *Client {
	c := &Client{
		local:  local,
		logger: log.New(io.Discard, "", 0),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect sets (or replaces) the remote.
func (c *Client) Connect(r Remote) {
	c.mu.Lock()
	c.remote = r
	c.mu.Unlock()
}

// Connected reports whether a remote is set.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remote != nil
}

// InProgress reports whether a push, pull or sync is running.
func (c *Client) InProgress() bool {
	return c.busy.Load()
}

// LastSync is the time the last push, pull or sync finished successfully.
// A sync whose push leg fails leaves it unchanged.
func (c *Client) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

func (c *Client) markSynced(at time.Time) {
	c.mu.Lock()
	c.lastSync = at
	c.mu.Unlock()
}

// begin takes the single-flight guard and returns the remote. The caller
// must call end when begin succeeds.
func (c *Client) begin(userID string) (Remote, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	c.mu.RLock()
	r := c.remote
	c.mu.RUnlock()
	if r == nil {
		return nil, ErrNotConnected
	}
	if c.net != nil && !c.net.Online() {
		return nil, ErrOffline
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	return r, nil
}

func (c *Client) end() {
	c.busy.Store(false)
}

// Push overwrites the user's remote snapshot with state.
func (c *Client) Push(ctx context.Context, userID string, state model.AppState) (Snapshot, error) {
	r, err := c.begin(userID)
	if err != nil {
		return Snapshot{}, err
	}
	defer c.end()
	snap, err := c.push(ctx, r, userID, state)
	if err != nil {
		return Snapshot{}, err
	}
	c.markSynced(snap.LastSync)
	return snap, nil
}

func (c *Client) push(ctx context.Context, r Remote, userID string, state model.AppState) (Snapshot, error) {
	snap := Snapshot{
		ID:       c.newID(),
		UserID:   userID,
		LastSync: c.now(),
		State:    state,
	}
	if err := r.Store(ctx, snap); err != nil {
		c.logger.Printf("sync push for %s failed: %v", userID, err)
		return Snapshot{}, fmt.Errorf("push snapshot: %w", err)
	}
	return snap, nil
}

// Pull fetches the user's snapshot without applying it. It returns nil when
// the user has none.
func (c *Client) Pull(ctx context.Context, userID string) (*Snapshot, error) {
	r, err := c.begin(userID)
	if err != nil {
		return nil, err
	}
	defer c.end()
	snap, err := c.pull(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	c.markSynced(c.now())
	return snap, nil
}

func (c *Client) pull(ctx context.Context, r Remote, userID string) (*Snapshot, error) {
	snap, err := r.Fetch(ctx, userID)
	if err != nil {
		c.logger.Printf("sync pull for %s failed: %v", userID, err)
		return nil, fmt.Errorf("pull snapshot: %w", err)
	}
	return snap, nil
}

// Sync reconciles the local store with the remote snapshot. Without a remote
// snapshot the local state is pushed. When both exist and differ, strategy
// picks a winner: a remote win replaces the local store, a local win is
// pushed. A failure leaves the local store untouched.
func (c *Client) Sync(ctx context.Context, userID string, strategy Strategy) (Result, error) {
	r, err := c.begin(userID)
	if err != nil {
		return Result{}, err
	}
	defer c.end()

	remote, err := c.pull(ctx, r, userID)
	if err != nil {
		return Result{}, err
	}

	local := c.local.State()
	localAt := c.local.ModifiedAt()

	if remote == nil {
		snap, err := c.push(ctx, r, userID, local)
		if err != nil {
			return Result{}, err
		}
		c.markSynced(snap.LastSync)
		return Result{Action: ActionPushed, Winner: KeepLocal, Snapshot: &snap}, nil
	}

	if sameState(local, remote.State) {
		c.markSynced(c.now())
		return Result{Action: ActionNone, Snapshot: remote}, nil
	}

	winner, err := ResolveConflict(ctx, Conflict{Local: local, LocalAt: localAt, Remote: *remote}, strategy, c.ask)
	if err != nil {
		c.logger.Printf("warning: sync conflict for %s: %v", userID, err)
	}

	if winner == KeepRemote {
		c.local.Replace(remote.State, remote.LastSync)
		c.markSynced(c.now())
		return Result{Action: ActionPulled, Winner: KeepRemote, Snapshot: remote}, nil
	}

	snap, err := c.push(ctx, r, userID, local)
	if err != nil {
		return Result{}, err
	}
	c.markSynced(snap.LastSync)
	return Result{Action: ActionPushed, Winner: KeepLocal, Snapshot: &snap}, nil
}

// sameState compares the serialized form of both states with every
// timestamp in UTC.
func sameState(a, b model.AppState) bool {
	a.Normalize()
	b.Normalize()
	ab, errA := json.Marshal(utcState(a))
	bb, errB := json.Marshal(utcState(b))
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

func utcState(s model.AppState) model.AppState {
	out := s.Clone()
	for id, p := range out.Projects {
		p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
		if p.DueDate != nil {
			d := p.DueDate.UTC()
			p.DueDate = &d
		}
		out.Projects[id] = p
	}
	for id, t := range out.Todos {
		t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
		if t.DueDate != nil {
			d := t.DueDate.UTC()
			t.DueDate = &d
		}
		out.Todos[id] = t
	}
	for id, sess := range out.Sessions {
		sess.StartTime, sess.EndTime, sess.CreatedAt = sess.StartTime.UTC(), sess.EndTime.UTC(), sess.CreatedAt.UTC()
		out.Sessions[id] = sess
	}
	for id, r := range out.Resources {
		r.CreatedAt, r.UpdatedAt = r.CreatedAt.UTC(), r.UpdatedAt.UTC()
		out.Resources[id] = r
	}
	return out
}
