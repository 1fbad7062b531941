package terminal

import "testing"

func TestSessionHappyPathTransitions(t *testing.T) {
	sess := NewSession("RAB123C", 500)
	if sess.State() != StateIdle {
		t.Fatalf("expected idle start, got %s", sess.State())
	}

	steps := []SessionState{StateAwaitCardData, StateAwaitReady, StateAwaitWriteAck, StateResolved}
	for _, next := range steps {
		if err := sess.Transition(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if sess.State() != next {
			t.Fatalf("expected state %s, got %s", next, sess.State())
		}
	}
}

func TestSessionEarlyResolution(t *testing.T) {
	// Denials resolve before the write: card data and ready may each be the
	// last step.
	for _, last := range []SessionState{StateAwaitCardData, StateAwaitReady} {
		sess := NewSession("RAB123C", 500)
		if err := sess.Transition(StateAwaitCardData); err != nil {
			t.Fatalf("transition to await_card_data: %v", err)
		}
		if last == StateAwaitReady {
			if err := sess.Transition(StateAwaitReady); err != nil {
				t.Fatalf("transition to await_ready: %v", err)
			}
		}
		if err := sess.Transition(StateResolved); err != nil {
			t.Fatalf("resolve from %s: %v", last, err)
		}
	}
}

func TestSessionRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		walk []SessionState
		bad  SessionState
	}{
		{"idle cannot resolve", nil, StateResolved},
		{"idle cannot skip to write ack", nil, StateAwaitWriteAck},
		{"cannot rewind to idle", []SessionState{StateAwaitCardData}, StateIdle},
		{"card data cannot skip ready", []SessionState{StateAwaitCardData}, StateAwaitWriteAck},
		{"resolved is terminal", []SessionState{StateAwaitCardData, StateResolved}, StateAwaitCardData},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := NewSession("RAB123C", 500)
			for _, step := range tc.walk {
				if err := sess.Transition(step); err != nil {
					t.Fatalf("setup transition to %s: %v", step, err)
				}
			}
			before := sess.State()
			if err := sess.Transition(tc.bad); err == nil {
				t.Fatalf("expected %s -> %s to be rejected", before, tc.bad)
			}
			if sess.State() != before {
				t.Fatalf("rejected transition must not change state: got %s, want %s", sess.State(), before)
			}
		})
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := NewSession("RAB123C", 500)
	b := NewSession("RAB123C", 500)
	if a.ID == b.ID {
		t.Fatalf("expected distinct session ids, both %s", a.ID)
	}
}

func TestOutcomeAuthorized(t *testing.T) {
	if !(Outcome{Kind: OutcomePaid}).Authorized() {
		t.Fatalf("paid outcome must authorize the gate")
	}
	denied := []OutcomeKind{OutcomeInsufficientBalance, OutcomeCardMismatch, OutcomeNoCard, OutcomeTimeout, OutcomeMalformed}
	for _, kind := range denied {
		if (Outcome{Kind: kind}).Authorized() {
			t.Fatalf("outcome %s must not authorize the gate", kind)
		}
	}
}
