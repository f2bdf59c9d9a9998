// Package netstate tracks whether the sync remote is reachable.
package netstate

import (
	"context"
	"io"
	"log"
	"net"
	"slices"
	"sync"
	"time"
)

const (
	defaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 3 * time.Second
)

// Prober reports whether the network is usable right now.
type Prober func(ctx context.Context) bool

// DialProber probes by opening a TCP connection to addr.
func DialProber(addr string, timeout time.Duration) Prober {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return func(ctx context.Context) bool {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// Monitor holds the current online flag and notifies subscribers when it
// flips.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(bool)
	nextID int

	probe    Prober
	interval time.Duration
	logger   *log.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProber sets the check Run performs.
func WithProber(p Prober) Option {
	return func(m *Monitor) { m.probe = p }
}

// WithInterval sets how often Run probes.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger logs transitions.
func WithLogger(l *log.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMonitor returns a monitor starting in the given state.
func NewMonitor(initial bool, opts ...Option) *Monitor {
	m := &Monitor{
		online:   initial,
		subs:     make(map[int]func(bool)),
		interval: defaultProbeInterval,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Online reports the last known state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records the state. Subscribers run only when it changes.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.subs[id])
	}
	m.mu.Unlock()

	if online {
		m.logger.Printf("network: online")
	} else {
		m.logger.Printf("network: offline")
	}
	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for transitions. The returned func removes it.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Run probes at the configured interval until ctx is done. Without a prober
// it only waits for ctx.
func (m *Monitor) Run(ctx context.Context) {
	if m.probe == nil {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		online := m.probe(ctx)
		// A probe cut short by shutdown says nothing about the network.
		if ctx.Err() != nil {
			return
		}
		m.Set(online)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
