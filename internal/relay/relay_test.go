package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	"github.com/roelfdiedericks/rephrase/internal/replace"
)

type execFunc func(ctx context.Context, cmd Command) (replace.Outcome, error)

func (f execFunc) Execute(ctx context.Context, cmd Command) (replace.Outcome, error) {
	return f(ctx, cmd)
}

func cmd() Command {
	return Command{Action: ActionReplace, RequestID: "r1", Frame: "F", Text: "new"}
}

func TestSendDeliversOutcome(t *testing.T) {
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		if c.Text != "new" || c.Frame != "F" {
			t.Errorf("command not delivered intact: %+v", c)
		}
		return replace.Succeeded("plain-splice", replace.PlainControl), nil
	}), time.Second)

	out := r.Send(context.Background(), cmd())
	if !out.Success || out.Strategy != "plain-splice" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestSendTimeoutNeverLateSuccess(t *testing.T) {
	var finished atomic.Bool
	release := make(chan struct{})
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		// Ignore ctx on purpose: the frame keeps going after the deadline.
		<-release
		finished.Store(true)
		return replace.Succeeded("native-insert", replace.GenericEditableRegion), nil
	}), 20*time.Millisecond)

	out := r.Send(context.Background(), cmd())
	close(release)
	if out.Success || out.Reason != failure.Timeout {
		t.Fatalf("expected Timeout, got %+v", out)
	}

	// Give the late reply time to arrive; the returned value must not change.
	deadline := time.Now().Add(time.Second)
	for !finished.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if out.Success {
		t.Fatal("outcome flipped to success after timeout")
	}
}

func TestSendExecutorErrorIsChannelUnavailable(t *testing.T) {
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		return replace.Outcome{}, errors.New("frame detached")
	}), time.Second)

	out := r.Send(context.Background(), cmd())
	if out.Success || out.Reason != failure.ChannelUnavailable {
		t.Fatalf("expected ChannelUnavailable, got %+v", out)
	}
}

func TestSendContextDeadlineErrorIsTimeout(t *testing.T) {
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		<-ctx.Done()
		return replace.Outcome{}, ctx.Err()
	}), 20*time.Millisecond)

	out := r.Send(context.Background(), cmd())
	if out.Reason != failure.Timeout {
		t.Fatalf("expected Timeout, got %+v", out)
	}
}

func TestSendParentCancelIsCancelled(t *testing.T) {
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		<-ctx.Done()
		return replace.Outcome{}, ctx.Err()
	}), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	out := r.Send(ctx, cmd())
	if out.Success || out.Reason != failure.Cancelled {
		t.Fatalf("expected Cancelled, got %+v", out)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancel did not end the wait")
	}
}

func TestSendParentDeadlineIsTimeout(t *testing.T) {
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		<-ctx.Done()
		return replace.Outcome{}, ctx.Err()
	}), time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if out := r.Send(ctx, cmd()); out.Reason != failure.Timeout {
		t.Fatalf("expected Timeout, got %+v", out)
	}
}

func TestSendExecutorPanic(t *testing.T) {
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		panic("cdp client nil")
	}), time.Second)

	out := r.Send(context.Background(), cmd())
	if out.Reason != failure.ChannelUnavailable {
		t.Fatalf("expected ChannelUnavailable, got %+v", out)
	}
}

func TestSendRejectsUnknownAction(t *testing.T) {
	called := false
	r := New(execFunc(func(ctx context.Context, c Command) (replace.Outcome, error) {
		called = true
		return replace.Outcome{}, nil
	}), time.Second)

	c := cmd()
	c.Action = "getSelectedText"
	out := r.Send(context.Background(), c)
	if out.Reason != failure.ChannelUnavailable || called {
		t.Fatalf("unknown action should be rejected before delivery, got %+v (called=%v)", out, called)
	}
}
