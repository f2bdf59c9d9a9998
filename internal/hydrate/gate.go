// Package hydrate lets a consumer wait until persisted state has been loaded
// into the shared store before it reads from it.
package hydrate

import (
	"context"
	"sync"

	"focusboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// Source is the part of a persister a Gate needs.
type Source interface {
	HasHydrated() bool
	Started() bool
	Start()
	OnFinishHydration(fn func()) (unsubscribe func())
	Store() *store.Store
}

// Gate is one consumer's view of the hydration state. Each consumer creates
// its own Gate; all of them share the Source's store.
type Gate struct {
	src  Source
	done chan struct{}

	openOnce    sync.Once
	closeOnce   sync.Once
	unsubscribe func()
}

// HydratedMsg is delivered by Gate.Cmd once the gate is open.
type HydratedMsg struct{}

// NewGate opens immediately if src has already hydrated. Otherwise it waits
// for the hydration signal and, if nobody has started hydration yet, starts
// it in the background.
func NewGate(src Source) *Gate {
	g := &Gate{src: src, done: make(chan struct{})}

	// Subscribe before checking so a hydration finishing in between is not
	// missed.
	g.unsubscribe = src.OnFinishHydration(g.open)
	if src.HasHydrated() {
		g.open()
		return g
	}
	if !src.Started() {
		go src.Start()
	}
	return g
}

func (g *Gate) open() {
	g.openOnce.Do(func() { close(g.done) })
}

// IsHydrated reports whether the store holds the persisted state.
func (g *Gate) IsHydrated() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// Store returns the shared store.
func (g *Gate) Store() *store.Store {
	return g.src.Store()
}

// Done is closed when the gate opens.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate opens or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops listening for the hydration signal. It is safe to call more
// than once.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		if g.unsubscribe != nil {
			g.unsubscribe()
		}
	})
}

// Cmd returns a command that resolves to HydratedMsg when the gate opens.
func (g *Gate) Cmd() tea.Cmd {
	return func() tea.Msg {
		<-g.done
		return HydratedMsg{}
	}
}
