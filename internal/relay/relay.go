// Package relay carries a replace command from the initiating context to the
// frame that holds the selection and brings back exactly one outcome.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/replace"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// ActionReplace is the only action a frame context handles.
const ActionReplace = "replace"

// DefaultTimeout matches the content-script response timeout.
const DefaultTimeout = 5 * time.Second

// Command asks a frame to replace its selection.
type Command struct {
	Action    string            `json:"action"`
	RequestID string            `json:"requestId"`
	Frame     selection.FrameID `json:"frameId"`
	Text      string            `json:"text"`
}

// Executor runs a command inside the target frame's context. An error means
// the command never reached the frame or its answer never came back.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (replace.Outcome, error)
}

// Relay is a request/response channel with a hard deadline.
type Relay struct {
	exec    Executor
	timeout time.Duration
}

// New creates a relay. A zero timeout uses DefaultTimeout.
func New(exec Executor, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Relay{exec: exec, timeout: timeout}
}

type reply struct {
	outcome replace.Outcome
	err     error
}

// Send delivers cmd and waits for its outcome. On expiry it returns Timeout,
// and Cancelled when the caller's context is cancelled first. Whatever the
// frame answers afterwards is logged and dropped. Overlapping Sends are
// independent.
func (r *Relay) Send(parent context.Context, cmd Command) replace.Outcome {
	if cmd.Action != ActionReplace {
		return replace.Failed(failure.ChannelUnavailable, fmt.Sprintf("unhandled action: %q", cmd.Action))
	}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	// Buffered so a late reply never blocks the executor goroutine.
	done := make(chan reply, 1)
	go func() {
		var rep reply
		defer func() {
			if p := recover(); p != nil {
				rep = reply{err: fmt.Errorf("executor panicked: %v", p)}
			}
			done <- rep
		}()
		rep.outcome, rep.err = r.exec.Execute(ctx, cmd)
	}()

	select {
	case rep := <-done:
		if rep.err != nil {
			if ctx.Err() != nil {
				return r.expired(parent, cmd)
			}
			L_warn("relay: frame unreachable", "requestID", cmd.RequestID, "frame", cmd.Frame, "error", rep.err)
			return replace.Failed(failure.ChannelUnavailable, rep.err.Error())
		}
		return rep.outcome
	case <-ctx.Done():
		go drainLate(cmd, done)
		return r.expired(parent, cmd)
	}
}

func (r *Relay) expired(parent context.Context, cmd Command) replace.Outcome {
	if errors.Is(parent.Err(), context.Canceled) {
		L_warn("relay: replace cancelled", "requestID", cmd.RequestID, "frame", cmd.Frame)
		return replace.Failed(failure.Cancelled, "cancelled while waiting for the frame")
	}
	L_warn("relay: replace timed out", "requestID", cmd.RequestID, "frame", cmd.Frame, "timeout", r.timeout)
	return replace.Failed(failure.Timeout, fmt.Sprintf("no response from frame within %s", r.timeout))
}

func drainLate(cmd Command, done <-chan reply) {
	rep := <-done
	L_warn("relay: discarding late reply", "requestID", cmd.RequestID, "frame", cmd.Frame,
		"success", rep.outcome.Success, "error", rep.err)
}
