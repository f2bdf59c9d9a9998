// Package ui is the focusboard terminal dashboard. This file defines the
// message types that store mutations, sync and background listeners send
// back into the Bubble Tea event loop.
package ui

import (
	"focusboard/internal/model"
	fbsync "focusboard/internal/sync"
)

// =============================================================================
// Store Messages
// =============================================================================

// storeChangedMsg is sent after the store changed, whoever changed it.
type storeChangedMsg struct{}

// =============================================================================
// Todo Messages
// =============================================================================

// todoAddedMsg is sent when a new todo is created.
type todoAddedMsg struct {
	id   string
	text string
	err  error
}

// todoToggledMsg is sent when a todo's done flag is flipped.
type todoToggledMsg struct {
	id   string
	text string
	done bool // state after the toggle
	err  error
}

// todayToggledMsg is sent when a todo's today tag is flipped.
type todayToggledMsg struct {
	id     string
	text   string
	tagged bool // state after the toggle
	err    error
}

// todoDeletedMsg is sent when a todo is removed.
type todoDeletedMsg struct {
	todo *model.Todo // captured before deletion for undo
	err  error
}

// =============================================================================
// Focus Messages
// =============================================================================

// focusStartedMsg is sent when a focus session is recorded as started.
type focusStartedMsg struct {
	sessionID string
	todoText  string
	err       error
}

// focusStoppedMsg is sent when the running session is finished.
type focusStoppedMsg struct {
	minutes float64
	err     error
}

// =============================================================================
// Undo/Redo Messages
// =============================================================================

type undoResultMsg struct {
	desc string
	err  error
}

type redoResultMsg struct {
	desc string
	err  error
}

// =============================================================================
// Sync Messages
// =============================================================================

// syncDoneMsg reports the outcome of a manual or automatic sync.
type syncDoneMsg struct {
	result fbsync.Result
	err    error
	manual bool
}

// networkMsg is sent when the network signal flips.
type networkMsg struct {
	online bool
}

// conflictMsg asks the user to pick a side of a sync conflict.
type conflictMsg struct {
	req *conflictRequest
}
