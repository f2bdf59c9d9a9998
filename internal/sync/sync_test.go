package sync

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"focusboard/internal/model"
	"focusboard/internal/netstate"
	"focusboard/internal/persist"
	"focusboard/internal/store"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

// memRemote is an in-memory Remote for tests.
type memRemote struct {
	mu       gosync.Mutex
	snaps    map[string]Snapshot
	fetchErr error
	storeErr error
	block    chan struct{}
	entered  chan struct{}
	stores   int
}

func newMemRemote() *memRemote {
	return &memRemote{snaps: make(map[string]Snapshot)}
}

func (m *memRemote) Fetch(ctx context.Context, userID string) (*Snapshot, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	snap, ok := m.snaps[userID]
	if !ok {
		return nil, nil
	}
	snap.State = snap.State.Clone()
	return &snap, nil
}

func (m *memRemote) Store(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return m.storeErr
	}
	snap.State = snap.State.Clone()
	m.snaps[snap.UserID] = snap
	m.stores++
	return nil
}

func clockAt(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func newLocal(t *testing.T, at time.Time) *store.Store {
	t.Helper()
	s := store.New(store.WithClock(clockAt(at)))
	if _, err := s.AddTodo(store.NewTodo{Text: "local work"}); err != nil {
		t.Fatal(err)
	}
	return s
}

func remoteState(t *testing.T, text string) model.AppState {
	t.Helper()
	s := store.New(store.WithClock(clockAt(t0)))
	if _, err := s.AddTodo(store.NewTodo{Text: text}); err != nil {
		t.Fatal(err)
	}
	return s.State()
}

// =============================================================================
// Conflict Resolution Tests
// =============================================================================

func TestResolveConflict(t *testing.T) {
	ctx := context.Background()
	askRemote := func(context.Context, Conflict) (Winner, error) { return KeepRemote, nil }
	askFails := func(context.Context, Conflict) (Winner, error) { return Undecided, errors.New("closed") }
	askShrugs := func(context.Context, Conflict) (Winner, error) { return Undecided, nil }

	tests := []struct {
		name     string
		localAt  time.Time
		remoteAt time.Time
		strategy Strategy
		ask      Asker
		want     Winner
		wantErr  bool
	}{
		{name: "newest remote later", localAt: t0, remoteAt: t0.Add(time.Second), strategy: NewestWins, want: KeepRemote},
		{name: "newest local later", localAt: t0.Add(time.Second), remoteAt: t0, strategy: NewestWins, want: KeepLocal},
		{name: "newest tie goes local", localAt: t0, remoteAt: t0, strategy: NewestWins, want: KeepLocal},
		{name: "local wins", localAt: t0, remoteAt: t0.Add(time.Hour), strategy: LocalWins, want: KeepLocal},
		{name: "remote wins", localAt: t0.Add(time.Hour), remoteAt: t0, strategy: RemoteWins, want: KeepRemote},
		{name: "ask user answers", strategy: AskUser, ask: askRemote, want: KeepRemote},
		{name: "ask user without asker", strategy: AskUser, want: KeepLocal, wantErr: true},
		{name: "ask user error", strategy: AskUser, ask: askFails, want: KeepLocal, wantErr: true},
		{name: "ask user undecided", strategy: AskUser, ask: askShrugs, want: KeepLocal, wantErr: true},
		{name: "unknown strategy", strategy: "coin-flip", want: KeepLocal, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Conflict{LocalAt: tt.localAt, Remote: Snapshot{LastSync: tt.remoteAt}}
			got, err := ResolveConflict(ctx, c, tt.strategy, tt.ask)
			if got != tt.want {
				t.Errorf("winner = %v, want %v", got, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"":            NewestWins,
		"Local-Wins":  LocalWins,
		"remote-wins": RemoteWins,
		" ask-user ":  AskUser,
		"newest-wins": NewestWins,
	} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("merge"); err == nil {
		t.Error("ParseStrategy(merge) expected error")
	}
}

// =============================================================================
// Client Tests
// =============================================================================

func TestPush_Errors(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t, t0)

	c := NewClient(local)
	if c.Connected() {
		t.Fatal("Connected() = true without remote")
	}
	if _, err := c.Push(ctx, "u1", local.State()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Push() error = %v, want ErrNotConnected", err)
	}

	c.Connect(newMemRemote())
	if _, err := c.Push(ctx, "", local.State()); !errors.Is(err, ErrNoUser) {
		t.Errorf("Push(no user) error = %v, want ErrNoUser", err)
	}

	monitor := netstate.NewMonitor(false)
	offline := NewClient(local, WithRemote(newMemRemote()), WithNetwork(monitor))
	if _, err := offline.Pull(ctx, "u1"); !errors.Is(err, ErrOffline) {
		t.Errorf("Pull() offline error = %v, want ErrOffline", err)
	}
}

func TestPush_StoresSnapshot(t *testing.T) {
	remote := newMemRemote()
	local := newLocal(t, t0)
	pushAt := t0.Add(time.Minute)
	c := NewClient(local, WithRemote(remote), WithClock(clockAt(pushAt)))

	snap, err := c.Push(context.Background(), "u1", local.State())
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if snap.ID == "" || snap.UserID != "u1" || !snap.LastSync.Equal(pushAt) {
		t.Errorf("snapshot = %+v", snap)
	}
	if !c.LastSync().Equal(pushAt) {
		t.Errorf("LastSync() = %v", c.LastSync())
	}

	again, _ := c.Push(context.Background(), "u1", local.State())
	if again.ID == snap.ID {
		t.Error("each push should get a fresh snapshot id")
	}

	got, err := c.Pull(context.Background(), "u1")
	if err != nil || got == nil {
		t.Fatalf("Pull() = %v, %v", got, err)
	}
	if len(got.State.Todos) != 1 {
		t.Errorf("pulled %d todos, want 1", len(got.State.Todos))
	}
}

func TestPull_None(t *testing.T) {
	c := NewClient(newLocal(t, t0), WithRemote(newMemRemote()))
	snap, err := c.Pull(context.Background(), "nobody")
	if err != nil || snap != nil {
		t.Errorf("Pull() = %v, %v; want nil, nil", snap, err)
	}
}

func TestSync_PushesWhenRemoteEmpty(t *testing.T) {
	remote := newMemRemote()
	local := newLocal(t, t0)
	c := NewClient(local, WithRemote(remote))

	res, err := c.Sync(context.Background(), "u1", NewestWins)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Action != ActionPushed {
		t.Errorf("Action = %q, want pushed", res.Action)
	}
	if remote.stores != 1 {
		t.Errorf("remote stores = %d, want 1", remote.stores)
	}
}

func TestSync_IdenticalIsNoop(t *testing.T) {
	remote := newMemRemote()
	local := newLocal(t, t0)
	remote.snaps["u1"] = Snapshot{ID: "x", UserID: "u1", LastSync: t0.Add(time.Hour), State: local.State()}
	c := NewClient(local, WithRemote(remote))

	res, err := c.Sync(context.Background(), "u1", RemoteWins)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Action != ActionNone {
		t.Errorf("Action = %q, want none", res.Action)
	}
	if remote.stores != 0 {
		t.Errorf("remote written %d times", remote.stores)
	}
}

func TestSync_NewestWins(t *testing.T) {
	tests := []struct {
		name       string
		localAt    time.Time
		remoteAt   time.Time
		wantAction Action
		wantText   string
	}{
		{name: "remote newer", localAt: t0, remoteAt: t0.Add(time.Minute), wantAction: ActionPulled, wantText: "from laptop"},
		{name: "local newer", localAt: t0.Add(time.Minute), remoteAt: t0, wantAction: ActionPushed, wantText: "local work"},
		{name: "tie", localAt: t0, remoteAt: t0, wantAction: ActionPushed, wantText: "local work"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newMemRemote()
			remote.snaps["u1"] = Snapshot{ID: "r", UserID: "u1", LastSync: tt.remoteAt, State: remoteState(t, "from laptop")}
			local := newLocal(t, tt.localAt)
			c := NewClient(local, WithRemote(remote), WithClock(clockAt(t0.Add(time.Hour))))

			res, err := c.Sync(context.Background(), "u1", NewestWins)
			if err != nil {
				t.Fatalf("Sync() error = %v", err)
			}
			if res.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", res.Action, tt.wantAction)
			}

			todos := local.Todos()
			if len(todos) != 1 || todos[0].Text != tt.wantText {
				t.Errorf("local todos = %v, want one %q", todos, tt.wantText)
			}
			stored := remote.snaps["u1"].State
			for _, todo := range stored.Todos {
				if todo.Text != tt.wantText {
					t.Errorf("remote todo = %q, want %q", todo.Text, tt.wantText)
				}
			}
			if tt.wantAction == ActionPulled && !local.ModifiedAt().Equal(tt.remoteAt) {
				t.Errorf("ModifiedAt() = %v, want remote lastSync %v", local.ModifiedAt(), tt.remoteAt)
			}
		})
	}
}

func TestSync_NewestWinsKeepsDeleteAcrossRestart(t *testing.T) {
	kv := persist.NewMemoryKV()
	remote := newMemRemote()
	ctx := context.Background()

	clock := t0
	local := store.New(store.WithClock(func() time.Time { return clock }))
	p := persist.New(kv, local)
	p.Start()
	id, err := local.AddTodo(store.NewTodo{Text: "drop me"})
	if err != nil {
		t.Fatal(err)
	}

	c := NewClient(local, WithRemote(remote), WithClock(clockAt(t0.Add(10*time.Minute))))
	if _, err := c.Sync(ctx, "u1", NewestWins); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	clock = t0.Add(20 * time.Minute)
	if err := local.DeleteTodo(id); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restarted := store.New()
	p2 := persist.New(kv, restarted)
	defer p2.Close()
	p2.Start()
	if want := t0.Add(20 * time.Minute); !restarted.ModifiedAt().Equal(want) {
		t.Errorf("ModifiedAt() after restart = %v, want %v", restarted.ModifiedAt(), want)
	}

	c2 := NewClient(restarted, WithRemote(remote), WithClock(clockAt(t0.Add(30*time.Minute))))
	res, err := c2.Sync(ctx, "u1", NewestWins)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if res.Action != ActionPushed || res.Winner != KeepLocal {
		t.Errorf("Sync() = %q/%v, want pushed/local", res.Action, res.Winner)
	}
	if _, ok := restarted.Todo(id); ok {
		t.Error("deleted todo came back from the remote")
	}
	if n := len(remote.snaps["u1"].State.Todos); n != 0 {
		t.Errorf("remote has %d todos, want 0", n)
	}
}

func TestSync_AskUserFallbackLogsWarning(t *testing.T) {
	var logs bytes.Buffer
	remote := newMemRemote()
	remote.snaps["u1"] = Snapshot{ID: "r", UserID: "u1", LastSync: t0.Add(time.Hour), State: remoteState(t, "remote")}
	local := newLocal(t, t0)
	c := NewClient(local, WithRemote(remote), WithLogger(log.New(&logs, "", 0)))

	res, err := c.Sync(context.Background(), "u1", AskUser)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Winner != KeepLocal {
		t.Errorf("Winner = %v, want local", res.Winner)
	}
	if !strings.Contains(logs.String(), "warning:") {
		t.Errorf("fallback not logged: %q", logs.String())
	}
}

func TestSync_FailureLeavesLocalUntouched(t *testing.T) {
	var logs bytes.Buffer
	remote := newMemRemote()
	remote.fetchErr = errors.New("connection reset")
	local := newLocal(t, t0)
	before := local.State()
	c := NewClient(local, WithRemote(remote), WithLogger(log.New(&logs, "", 0)))

	_, err := c.Sync(context.Background(), "u1", RemoteWins)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("Sync() error = %v", err)
	}
	if !sameState(before, local.State()) {
		t.Error("local state changed after failed sync")
	}
	if !strings.Contains(logs.String(), "connection reset") {
		t.Errorf("failure not logged: %q", logs.String())
	}
	if c.InProgress() {
		t.Error("InProgress() stuck after failure")
	}

	remote.fetchErr = nil
	remote.storeErr = errors.New("read-only")
	if _, err := c.Sync(context.Background(), "u1", LocalWins); err == nil {
		t.Error("Sync() expected push error")
	}
	if remote.stores != 0 {
		t.Errorf("remote stores = %d after failed push", remote.stores)
	}
	if !c.LastSync().IsZero() {
		t.Errorf("LastSync() = %v after failed syncs, want zero", c.LastSync())
	}
}

func TestSync_LastSyncOnlyAfterPushLeg(t *testing.T) {
	remote := newMemRemote()
	remote.snaps["u1"] = Snapshot{ID: "r", UserID: "u1", LastSync: t0, State: remoteState(t, "remote")}
	remote.storeErr = errors.New("read-only")
	local := newLocal(t, t0.Add(time.Minute))
	c := NewClient(local, WithRemote(remote), WithClock(clockAt(t0.Add(time.Hour))))

	if _, err := c.Sync(context.Background(), "u1", NewestWins); err == nil {
		t.Fatal("Sync() expected push error")
	}
	if !c.LastSync().IsZero() {
		t.Errorf("LastSync() = %v after failed push leg, want zero", c.LastSync())
	}

	remote.storeErr = nil
	if _, err := c.Sync(context.Background(), "u1", NewestWins); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if want := t0.Add(time.Hour); !c.LastSync().Equal(want) {
		t.Errorf("LastSync() = %v, want %v", c.LastSync(), want)
	}
}

func TestSync_SingleFlight(t *testing.T) {
	remote := newMemRemote()
	remote.block = make(chan struct{})
	remote.entered = make(chan struct{}, 1)
	local := newLocal(t, t0)
	c := NewClient(local, WithRemote(remote))

	done := make(chan error, 1)
	go func() {
		_, err := c.Sync(context.Background(), "u1", NewestWins)
		done <- err
	}()
	<-remote.entered

	if !c.InProgress() {
		t.Error("InProgress() = false during sync")
	}
	if _, err := c.Push(context.Background(), "u1", local.State()); !errors.Is(err, ErrInProgress) {
		t.Errorf("concurrent Push() error = %v, want ErrInProgress", err)
	}
	if _, err := c.Sync(context.Background(), "u1", NewestWins); !errors.Is(err, ErrInProgress) {
		t.Errorf("concurrent Sync() error = %v, want ErrInProgress", err)
	}

	close(remote.block)
	if err := <-done; err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if c.InProgress() {
		t.Error("InProgress() = true after sync finished")
	}
}

func TestSnapshotJSON(t *testing.T) {
	data, err := EncodeSnapshot(Snapshot{ID: "a", UserID: "u", LastSync: t0, State: model.NewAppState()})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"id"`, `"userId"`, `"lastSync"`, `"state"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("snapshot JSON missing %s: %s", key, data)
		}
	}
	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if got.UserID != "u" || !got.LastSync.Equal(t0) {
		t.Errorf("decoded = %+v", got)
	}
}

// =============================================================================
// AutoSyncer Tests
// =============================================================================

func TestAutoSyncer_SyncsOnReconnect(t *testing.T) {
	remote := newMemRemote()
	local := newLocal(t, t0)
	monitor := netstate.NewMonitor(false)
	c := NewClient(local, WithRemote(remote), WithNetwork(monitor))

	a := NewAutoSyncer(c, "u1", NewestWins, monitor)
	results := make(chan Result, 4)
	a.OnSync(func(res Result, err error) {
		if err == nil {
			results <- res
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(stopped)
	}()

	// Subscribe happens at the start of Run; keep flipping until it is seen.
	deadline := time.After(2 * time.Second)
	for {
		monitor.Set(false)
		monitor.Set(true)
		select {
		case res := <-results:
			if res.Action != ActionPushed {
				t.Errorf("Action = %q, want pushed", res.Action)
			}
			cancel()
			<-stopped
			return
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("no sync after reconnect")
		}
	}
}

func TestAutoSyncer_UsesSettingsInterval(t *testing.T) {
	remote := newMemRemote()
	local := newLocal(t, t0)
	var every int64 = 10
	if err := local.UpdateSettings(store.SettingsPatch{SyncInterval: &every}); err != nil {
		t.Fatal(err)
	}
	c := NewClient(local, WithRemote(remote))
	a := NewAutoSyncer(c, "u1", NewestWins, nil)

	var mu gosync.Mutex
	attempts := 0
	a.OnSync(func(Result, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if attempts < 2 {
		t.Errorf("attempts = %d, want at least 2 with a 10ms interval", attempts)
	}
}
