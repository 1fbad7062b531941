package terminal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionState enumerates the payment handshake's legal states. The firmware
// models the same machine with a pair of mutable flags; an explicit enum
// with validated transitions makes the illegal combinations unrepresentable.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitCardData
	StateAwaitReady
	StateAwaitWriteAck
	StateResolved
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitCardData:
		return "await_card_data"
	case StateAwaitReady:
		return "await_ready"
	case StateAwaitWriteAck:
		return "await_write_ack"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

var legalTransitions = map[SessionState][]SessionState{
	StateIdle:          {StateAwaitCardData},
	StateAwaitCardData: {StateAwaitReady, StateResolved},
	StateAwaitReady:    {StateAwaitWriteAck, StateResolved},
	StateAwaitWriteAck: {StateResolved},
}

// OutcomeKind classifies how a payment session resolved.
type OutcomeKind int

const (
	OutcomePaid OutcomeKind = iota
	OutcomeInsufficientBalance
	OutcomeCardMismatch
	OutcomeNoCard
	OutcomeTimeout
	OutcomeMalformed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePaid:
		return "paid"
	case OutcomeInsufficientBalance:
		return "insufficient_balance"
	case OutcomeCardMismatch:
		return "card_mismatch"
	case OutcomeNoCard:
		return "no_card"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is the typed resolution of one handshake, parsed at the wire
// boundary so nothing above this package handles protocol strings. Reason is
// the operator-facing explanation for any denial.
type Outcome struct {
	Kind       OutcomeKind
	Amount     int64
	NewBalance int64
	Reason     string
}

// Authorized reports whether the exit gate may open. Anything short of a
// confirmed payment fails closed.
func (o Outcome) Authorized() bool {
	return o.Kind == OutcomePaid
}

// Session tracks one exit handshake against one physical card presentation.
// It is never reused; the next presentation starts a fresh session with a
// freshly read balance.
type Session struct {
	ID            string
	Plate         string
	FeeDue        int64
	BalanceAtRead int64
	Deadline      time.Time

	state SessionState
}

// NewSession returns an idle session for the given transaction plate.
func NewSession(plate string, feeDue int64) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Plate:  plate,
		FeeDue: feeDue,
		state:  StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() SessionState {
	return s.state
}

// Transition moves the session to the given state, rejecting anything the
// protocol does not allow from the current state.
func (s *Session) Transition(to SessionState) error {
	for _, allowed := range legalTransitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("terminal: illegal session transition %s -> %s", s.state, to)
}
