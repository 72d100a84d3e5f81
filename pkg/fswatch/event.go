package fswatch

import (
	"errors"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventKind classifies a filesystem change.
type EventKind int

const (
	KindOther EventKind = iota
	KindCreate
	KindModify
	KindRemove
)

func (k EventKind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindModify:
		return "modify"
	case KindRemove:
		return "remove"
	default:
		return "other"
	}
}

// ChangeEvent is a single filesystem notification.
type ChangeEvent struct {
	// Paths are the absolute paths affected, in the order reported.
	Paths []string
	Kind  EventKind
	// Time is when the notification was received from the OS.
	Time time.Time
}

func kindOf(op fsnotify.Op) EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return KindCreate
	case op.Has(fsnotify.Write):
		return KindModify
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return KindRemove
	default:
		return KindOther
	}
}

// IsOverflow reports whether err means the kernel queue overflowed and
// changes were lost.
func IsOverflow(err error) bool {
	return errors.Is(err, fsnotify.ErrEventOverflow)
}
