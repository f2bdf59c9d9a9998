// Package sync reconciles the local store with a per-user snapshot held by a
// remote backend. Each side is replaced wholesale; there is no field-level
// merge, so edits on the losing side of a conflict are discarded.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"focusboard/internal/model"
)

var (
	// ErrNotConnected is returned when no remote has been configured.
	ErrNotConnected = errors.New("sync: no remote connected")
	// ErrOffline is returned when the network monitor reports offline.
	ErrOffline = errors.New("sync: offline")
	// ErrInProgress is returned when another push, pull or sync is running.
	ErrInProgress = errors.New("sync: already in progress")
	// ErrNoUser is returned when the user id is empty.
	ErrNoUser = errors.New("sync: user id is required")
)

// Snapshot is the remote copy of one user's whole AppState.
type Snapshot struct {
	ID       string         `json:"id"`
	UserID   string         `json:"userId"`
	LastSync time.Time      `json:"lastSync"`
	State    model.AppState `json:"state"`
}

// DecodeSnapshot parses a snapshot record and normalizes its state.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := Snapshot{State: model.AppState{Settings: model.DefaultSettings()}}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	snap.State.Normalize()
	return &snap, nil
}

// EncodeSnapshot serializes a snapshot record.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot: %w", err)
	}
	return data, nil
}

// Remote stores one snapshot per user.
type Remote interface {
	// Fetch returns the user's snapshot, or nil and no error when there is
	// none.
	Fetch(ctx context.Context, userID string) (*Snapshot, error)
	// Store creates or replaces the user's snapshot.
	Store(ctx context.Context, snap Snapshot) error
}

// Strategy decides which side wins when local and remote state differ.
type Strategy string

const (
	LocalWins  Strategy = "local-wins"
	RemoteWins Strategy = "remote-wins"
	NewestWins Strategy = "newest-wins"
	AskUser    Strategy = "ask-user"
)

// ParseStrategy accepts the strategy names used in configuration and flags.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case LocalWins, RemoteWins, NewestWins, AskUser:
		return st, nil
	case "":
		return NewestWins, nil
	}
	return "", fmt.Errorf("unknown sync strategy %q (want local-wins, remote-wins, newest-wins or ask-user)", s)
}
