package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"focusboard/internal/model"
	"focusboard/internal/store"
)

// DefaultName is the key the state record is stored under.
const DefaultName = "focusboard-storage"

// Persister mirrors a Store into a KV. It restores the store once on Start
// and, after that, writes the state in the background after every change.
type Persister struct {
	kv       KV
	store    *store.Store
	name     string
	logger   *log.Logger
	debounce time.Duration

	startOnce sync.Once
	started   atomic.Bool
	hydrated  atomic.Bool

	listenersMu  sync.Mutex
	listeners    map[int]func()
	nextListener int

	detach func()
	saveMu sync.Mutex

	mu      sync.Mutex
	idle    *sync.Cond
	dirty   bool
	writing bool
	closed  bool
	lastErr error
}

// Option configures a Persister.
type Option func(*Persister)

// WithName overrides the storage key.
func WithName(name string) Option {
	return func(p *Persister) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets where warnings and background write failures are logged.
func WithLogger(l *log.Logger) Option {
	return func(p *Persister) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDebounce delays each background write so a burst of mutations is
// written once.
func WithDebounce(d time.Duration) Option {
	return func(p *Persister) {
		if d > 0 {
			p.debounce = d
		}
	}
}

// New attaches a Persister to s. Nothing is read until Start or Rehydrate
// is called.
func New(kv KV, s *store.Store, opts ...Option) *Persister {
	p := &Persister{
		kv:        kv,
		store:     s,
		name:      DefaultName,
		logger:    log.New(io.Discard, "", 0),
		listeners: make(map[int]func()),
	}
	p.idle = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	p.detach = s.OnChange(p.changed)
	return p
}

// Name returns the storage key.
func (p *Persister) Name() string {
	return p.name
}

// Store returns the store being persisted.
func (p *Persister) Store() *store.Store {
	return p.store
}

// Encode serializes the persisted part of the state.
func Encode(state model.AppState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	return data, nil
}

// Decode parses a state record. Fields missing from data keep their
// defaults and the result is normalized.
func Decode(data []byte) (model.AppState, error) {
	state := model.AppState{Settings: model.DefaultSettings()}
	if err := json.Unmarshal(data, &state); err != nil {
		return model.NewAppState(), fmt.Errorf("parse state: %w", err)
	}
	state.Normalize()
	return state, nil
}

// meta is stored beside the state record under "<name>.meta". It keeps the
// store's modification time, which deletes and settings changes do not leave
// on any entity.
type meta struct {
	ModifiedAt time.Time `json:"modifiedAt"`
}

func (p *Persister) metaKey() string {
	return p.name + ".meta"
}

// modifiedAt returns the saved modification time, or zero when there is
// none or it cannot be read.
func (p *Persister) modifiedAt() time.Time {
	data, err := p.kv.Get(p.metaKey())
	if err != nil {
		if !errors.Is(err, ErrNoValue) {
			p.logger.Printf("warning: read %s: %v", p.metaKey(), err)
		}
		return time.Time{}
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		p.logger.Printf("warning: %s: %v", p.metaKey(), err)
		return time.Time{}
	}
	return m.ModifiedAt
}

// Start triggers hydration the first time it is called; later calls do
// nothing.
func (p *Persister) Start() {
	p.startOnce.Do(p.Rehydrate)
}

// Started reports whether hydration has been triggered.
func (p *Persister) Started() bool {
	return p.started.Load()
}

// HasHydrated reports whether a hydration has completed.
func (p *Persister) HasHydrated() bool {
	return p.hydrated.Load()
}

// Rehydrate loads the stored record into the store. A missing record leaves
// the store as it is; a record that cannot be read or parsed is logged and
// replaced by defaults. The store's modification time is the later of the
// saved one and the newest entity timestamp. Hydration listeners run
// afterwards in every case.
func (p *Persister) Rehydrate() {
	p.started.Store(true)

	data, err := p.kv.Get(p.name)
	switch {
	case errors.Is(err, ErrNoValue):
	case err != nil:
		p.logger.Printf("warning: read %s: %v; using defaults", p.name, err)
		p.store.Replace(model.NewAppState(), time.Time{})
	default:
		state, err := Decode(data)
		if err != nil {
			p.logger.Printf("warning: %s: %v; using defaults", p.name, err)
			p.store.Replace(state, time.Time{})
			break
		}
		at := p.modifiedAt()
		if latest := state.LatestChange(); latest.After(at) {
			at = latest
		}
		p.store.Replace(state, at)
	}

	p.hydrated.Store(true)
	p.finishHydration()
}

// OnFinishHydration registers fn to run each time a hydration completes.
// The returned func removes it.
func (p *Persister) OnFinishHydration(fn func()) (unsubscribe func()) {
	p.listenersMu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	p.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.listenersMu.Lock()
			delete(p.listeners, id)
			p.listenersMu.Unlock()
		})
	}
}

func (p *Persister) finishHydration() {
	p.listenersMu.Lock()
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	p.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// changed is the store hook. Writes before the first hydration are dropped
// so an empty store never overwrites the saved record.
func (p *Persister) changed() {
	if !p.hydrated.Load() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.dirty = true
	if !p.writing {
		p.writing = true
		go p.writeLoop()
	}
}

func (p *Persister) writeLoop() {
	if p.debounce > 0 {
		time.Sleep(p.debounce)
	}
	for {
		p.mu.Lock()
		if !p.dirty {
			p.writing = false
			p.idle.Broadcast()
			p.mu.Unlock()
			return
		}
		p.dirty = false
		p.mu.Unlock()

		err := p.Save()
		if err != nil {
			p.logger.Printf("save %s: %v", p.name, err)
		}
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
	}
}

// Save writes the current state and its modification time synchronously.
func (p *Persister) Save() error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	// Read after the state so the saved time is never older than it.
	state := p.store.State()
	at := p.store.ModifiedAt()

	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := p.kv.Set(p.name, data); err != nil {
		return fmt.Errorf("save %s: %w", p.name, err)
	}
	m, err := json.Marshal(meta{ModifiedAt: at.UTC()})
	if err != nil {
		return fmt.Errorf("serialize %s: %w", p.metaKey(), err)
	}
	if err := p.kv.Set(p.metaKey(), m); err != nil {
		return fmt.Errorf("save %s: %w", p.metaKey(), err)
	}
	return nil
}

// Flush waits for pending background writes and returns the error of the
// last one, if any.
func (p *Persister) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.writing {
		p.idle.Wait()
	}
	return p.lastErr
}

// Close detaches from the store and waits for pending writes.
func (p *Persister) Close() error {
	p.detach()
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.Flush()
}
