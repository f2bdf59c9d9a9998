package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focusboard/internal/model"
)

// Winner names the side whose state is kept.
type Winner int

const (
	Undecided Winner = iota
	KeepLocal
	KeepRemote
)

func (w Winner) String() string {
	switch w {
	case KeepLocal:
		return "local"
	case KeepRemote:
		return "remote"
	}
	return "undecided"
}

// Conflict is the input to a resolution: the local state with the time it
// was last changed, and the remote snapshot.
type Conflict struct {
	Local   model.AppState
	LocalAt time.Time
	Remote  Snapshot
}

// Asker hands a conflict to the user. Returning Undecided or an error falls
// back to keeping the local state.
type Asker func(ctx context.Context, c Conflict) (Winner, error)

var errNoAsker = errors.New("no one to ask")

// ResolveConflict picks the side to keep. It always returns KeepLocal or
// KeepRemote.
// A non-nil error means the strategy could not decide and KeepLocal was chosen
// as the fallback; callers should log it.
func ResolveConflict(ctx context.Context, c Conflict, strategy Strategy, ask Asker) (Winner, error) {
	switch strategy {
	case LocalWins:
		return KeepLocal, nil
	case RemoteWins:
		return KeepRemote, nil
	case NewestWins:
		if c.Remote.LastSync.After(c.LocalAt) {
			return KeepRemote, nil
		}
		return KeepLocal, nil
	case AskUser:
		if ask == nil {
			return KeepLocal, fmt.Errorf("ask-user conflict: %w; keeping local state", errNoAsker)
		}
		w, err := ask(ctx, c)
		if err != nil {
			return KeepLocal, fmt.Errorf("ask-user conflict: %w; keeping local state", err)
		}
		if w != KeepLocal && w != KeepRemote {
			return KeepLocal, errors.New("ask-user conflict: no decision; keeping local state")
		}
		return w, nil
	}
	return KeepLocal, fmt.Errorf("unknown strategy %q; keeping local state", strategy)
}
