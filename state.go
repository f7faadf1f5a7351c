package unpack

import (
	"context"
	"time"
)

// State is the lifecycle state of an Unpacker.
type State int32

const (
	// StateReady accepts a new Run.
	StateReady State = iota
	// StateUnpacking indicates a run is in progress.
	StateUnpacking
	// StateInterrupt indicates an interrupt was requested and the worker has
	// not stopped yet.
	StateInterrupt
	// StateInterrupted is terminal: the run stopped after an interrupt.
	StateInterrupted
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateUnpacking:
		return "unpacking"
	case StateInterrupt:
		return "interrupt"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further run is possible.
func (s State) IsTerminal() bool {
	return s == StateInterrupted
}

// State returns the current state.
func (u *Unpacker) State() State {
	return State(u.state.Load())
}

// Interrupt asks a running extraction to stop and waits up to timeout for the
// worker to acknowledge.
//
// It returns true only if the worker reached StateInterrupted within the
// timeout, or had already reached it. It returns false immediately when
// interrupts are disabled or no run is in progress.
func (u *Unpacker) Interrupt(timeout time.Duration) bool {
	u.mu.Lock()
	if u.interruptDisabled || u.committing {
		u.mu.Unlock()
		return false
	}
	switch State(u.state.Load()) {
	case StateUnpacking:
		u.state.Store(int32(StateInterrupt))
		u.cancel(ErrInterrupted)
		u.log().Info("interrupt requested")
	case StateInterrupt:
	case StateInterrupted:
		u.mu.Unlock()
		return true
	default:
		u.mu.Unlock()
		return false
	}
	ack := u.ack
	u.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ack:
		return true
	case <-timer.C:
		return false
	}
}

// SetInterruptDisabled disables or re-enables Interrupt. Collaborators call it
// around work that cannot be resumed once started.
//
// Disabling interrupts after one was requested panics.
func (u *Unpacker) SetInterruptDisabled(disabled bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if disabled {
		if st := State(u.state.Load()); st == StateInterrupt || st == StateInterrupted {
			panic("unpack: interrupts disabled after an interrupt was requested")
		}
	}
	u.interruptDisabled = disabled
}

// begin moves Ready to Unpacking and prepares the run context.
func (u *Unpacker) begin(ctx context.Context) (context.Context, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.state.CompareAndSwap(int32(StateReady), int32(StateUnpacking)) {
		return nil, &StateError{Op: "run", State: State(u.state.Load())}
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	u.cancel = cancel
	u.ack = make(chan struct{})
	u.committing = false
	return runCtx, nil
}

// checkpoint returns ErrInterrupted once an interrupt was requested.
func (u *Unpacker) checkpoint(ctx context.Context) error {
	if ctx.Err() != nil || u.State() == StateInterrupt {
		return ErrInterrupted
	}
	return nil
}

// enterCommit refuses further interrupts. It fails when an interrupt was
// requested before the commit started.
func (u *Unpacker) enterCommit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if ctx.Err() != nil || State(u.state.Load()) != StateUnpacking {
		return ErrInterrupted
	}
	u.committing = true
	return nil
}

// endRun records the outcome. Interrupted runs end in StateInterrupted and
// release every Interrupt waiter; other runs return to StateReady.
func (u *Unpacker) endRun(interrupted bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.committing = false
	if interrupted {
		u.state.Store(int32(StateInterrupted))
		close(u.ack)
	} else {
		u.state.Store(int32(StateReady))
	}
	u.cancel(nil)
}
