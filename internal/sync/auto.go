package sync

import (
	"context"
	"errors"
	"time"

	"focusboard/internal/netstate"
)

// AutoSyncer runs Sync on the interval stored in the settings and right
// after the network comes back.
type AutoSyncer struct {
	client   *Client
	userID   string
	strategy Strategy
	net      *netstate.Monitor
	onSync   func(Result, error)
}

// NewAutoSyncer builds an AutoSyncer. monitor may be nil, in which case the
// network is assumed to be up.
func NewAutoSyncer(client *Client, userID string, strategy Strategy, monitor *netstate.Monitor) *AutoSyncer {
	return &AutoSyncer{client: client, userID: userID, strategy: strategy, net: monitor}
}

// OnSync registers fn to receive the outcome of every attempt.
func (a *AutoSyncer) OnSync(fn func(Result, error)) {
	a.onSync = fn
}

func (a *AutoSyncer) interval() time.Duration {
	return a.client.local.Settings().SyncEvery()
}

func (a *AutoSyncer) online() bool {
	return a.net == nil || a.net.Online()
}

// Run blocks until ctx is done.
func (a *AutoSyncer) Run(ctx context.Context) {
	reconnected := make(chan struct{}, 1)
	if a.net != nil {
		unsubscribe := a.net.Subscribe(func(online bool) {
			if !online {
				return
			}
			select {
			case reconnected <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()
	}

	timer := time.NewTimer(a.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reconnected:
			a.client.logger.Printf("sync: back online, syncing")
			a.syncOnce(ctx)
		case <-timer.C:
			if a.online() {
				a.syncOnce(ctx)
			}
			timer.Reset(a.interval())
		}
	}
}

func (a *AutoSyncer) syncOnce(ctx context.Context) {
	res, err := a.client.Sync(ctx, a.userID, a.strategy)
	switch {
	case err == nil:
		if res.Action != ActionNone {
			a.client.logger.Printf("sync: %s", res.Action)
		}
	case errors.Is(err, ErrInProgress), errors.Is(err, ErrOffline):
	default:
		a.client.logger.Printf("sync failed: %v", err)
	}
	if a.onSync != nil {
		a.onSync(res, err)
	}
}
