// Package engine owns the per-conversation capture state and drives the
// transaction dialogue across multiple inbound messages.
package engine

import (
	"sync"
	"time"

	"whatsapp-catat-hutang/internal/model"
)

// State is the capture dialogue state of one conversation.
type State int

const (
	// StateIdle means no capture is in progress.
	StateIdle State = iota
	// StateAwaitingPhone means a pending transaction is held and the
	// engine is waiting for a counterparty phone number or an explicit
	// decline.
	StateAwaitingPhone
	// StateComplete is the transient terminal state of a finished cycle;
	// the session resets to StateIdle immediately after.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAwaitingPhone:
		return "AWAITING_PHONE"
	case StateComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Session tracks one conversation identity. Created lazily on the first
// inbound message, mutated only by the engine while mu is held.
type Session struct {
	mu sync.Mutex

	ID             string
	State          State
	Pending        *model.Transaction
	LastActivityAt time.Time
}

// reset returns the session to idle and drops any pending transaction.
func (s *Session) reset() {
	s.State = StateIdle
	s.Pending = nil
}

// expired reports whether the session sat idle longer than the window.
func (s *Session) expired(now time.Time, window time.Duration) bool {
	return !s.LastActivityAt.IsZero() && now.Sub(s.LastActivityAt) > window
}
