package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/recovery"
	"github.com/roelfdiedericks/rephrase/internal/relay"
	"github.com/roelfdiedericks/rephrase/internal/replace"
	"github.com/roelfdiedericks/rephrase/internal/selection"
	"github.com/ysmood/gson"
)

const worldName = "rephrase"

// Tab is one page and its frame tree. Each frame gets one isolated world for
// the life of the tab.
//
// TODO: frames of a connected browser with site isolation on live in their
// own targets; attach to them with Target.setAutoAttach and route calls by
// session so they are probed too.
type Tab struct {
	page    *rod.Page
	timeout time.Duration
	worlds  *worldCache
	stop    func()
}

// NewTab wraps page. timeout bounds each DevTools call. Close stops the
// tab's event listener.
func NewTab(ctx context.Context, page *rod.Page, timeout time.Duration) (*Tab, error) {
	p := page.Context(ctx)
	if err := (proto.PageEnable{}).Call(p); err != nil {
		return nil, failure.Wrap(failure.ChannelUnavailable, "failed to enable page domain", err)
	}
	if err := (proto.DOMEnable{}).Call(p); err != nil {
		return nil, failure.Wrap(failure.ChannelUnavailable, "failed to enable DOM domain", err)
	}
	if err := (proto.RuntimeEnable{}).Call(p); err != nil {
		return nil, failure.Wrap(failure.ChannelUnavailable, "failed to enable runtime domain", err)
	}

	t := &Tab{page: page, timeout: timeout, worlds: newWorldCache()}
	events, cancel := page.WithCancel()
	wait := events.EachEvent(
		func(e *proto.RuntimeExecutionContextDestroyed) {
			t.worlds.dropContext(e.ExecutionContextID)
		},
		func(e *proto.RuntimeExecutionContextsCleared) {
			t.worlds.clear()
		},
		func(e *proto.PageFrameNavigated) {
			if e.Frame != nil {
				t.worlds.dropFrame(selection.FrameID(e.Frame.ID))
			}
		},
		func(e *proto.PageFrameDetached) {
			t.worlds.dropFrame(selection.FrameID(e.FrameID))
		},
	)
	go wait()
	t.stop = cancel
	return t, nil
}

// Close stops listening for page events. The page itself is left open.
func (t *Tab) Close() {
	if t.stop != nil {
		t.stop()
	}
}

// URL returns the tab's current URL.
func (t *Tab) URL() string {
	info, err := t.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// ScriptError is an exception thrown by an evaluated function.
type ScriptError struct {
	Frame   selection.FrameID
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script error in frame %s: %s", e.Frame, e.Message)
}

func (t *Tab) frameTree(ctx context.Context) (*proto.PageFrameTree, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	res, err := proto.PageGetFrameTree{}.Call(t.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get frame tree: %w", err)
	}
	return res.FrameTree, nil
}

// Frames lists every frame, top-level first, in depth-first pre-order.
func (t *Tab) Frames(ctx context.Context) ([]selection.FrameID, error) {
	root, err := t.frameTree(ctx)
	if err != nil {
		return nil, err
	}
	return framesPreOrder(root), nil
}

// TopFrame returns the top-level frame.
func (t *Tab) TopFrame(ctx context.Context) (selection.FrameID, error) {
	root, err := t.frameTree(ctx)
	if err != nil {
		return "", err
	}
	if root == nil || root.Frame == nil {
		return "", fmt.Errorf("page has no frames")
	}
	return selection.FrameID(root.Frame.ID), nil
}

// Ancestry returns the chain from the top-level frame to frame.
func (t *Tab) Ancestry(ctx context.Context, frame selection.FrameID) ([]selection.FrameID, error) {
	root, err := t.frameTree(ctx)
	if err != nil {
		return nil, err
	}
	path := ancestryOf(root, frame)
	if path == nil {
		return nil, fmt.Errorf("frame %s not in frame tree", frame)
	}
	return path, nil
}

// OwnerIsActive compares the element owning child with parent's
// document.activeElement by backend node id.
func (t *Tab) OwnerIsActive(ctx context.Context, parent, child selection.FrameID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	p := t.page.Context(ctx)

	owner, err := proto.DOMGetFrameOwner{FrameID: proto.PageFrameID(child)}.Call(p)
	if err != nil {
		return false, fmt.Errorf("failed to get owner of frame %s: %w", child, err)
	}

	active, err := t.call(ctx, parent, jsActiveElement, false)
	if err != nil {
		return false, err
	}
	if active.ObjectID == "" {
		return false, nil
	}
	defer func() {
		_ = proto.RuntimeReleaseObject{ObjectID: active.ObjectID}.Call(p)
	}()

	node, err := proto.DOMDescribeNode{ObjectID: active.ObjectID}.Call(p)
	if err != nil {
		return false, fmt.Errorf("failed to describe active element of frame %s: %w", parent, err)
	}
	return node.Node != nil && node.Node.BackendNodeID == owner.BackendNodeID, nil
}

// ProbeSelection returns the raw selected text of frame.
func (t *Tab) ProbeSelection(ctx context.Context, frame selection.FrameID) (string, error) {
	res, err := t.call(ctx, frame, jsProbeSelection, true)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Document returns a live view of frame's document.
func (t *Tab) Document(frame selection.FrameID) replace.Document {
	return &frameDocument{tab: t, frame: frame}
}

// world returns the frame's isolated world, creating it on first use.
func (t *Tab) world(p *rod.Page, frame selection.FrameID) (proto.RuntimeExecutionContextID, error) {
	if id, ok := t.worlds.get(frame); ok {
		return id, nil
	}
	world, err := proto.PageCreateIsolatedWorld{
		FrameID:   proto.PageFrameID(frame),
		WorldName: worldName,
	}.Call(p)
	if err != nil {
		return 0, fmt.Errorf("failed to enter frame %s: %w", frame, err)
	}
	t.worlds.put(frame, world.ExecutionContextID)
	L_trace("browser: isolated world created", "frame", frame, "context", world.ExecutionContextID)
	return world.ExecutionContextID, nil
}

// call evaluates fn in the isolated world of frame. A context destroyed
// before its event arrived is recreated once.
func (t *Tab) call(ctx context.Context, frame selection.FrameID, fn string, byValue bool, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	p := t.page.Context(ctx)

	callArgs := make([]*proto.RuntimeCallArgument, len(args))
	for i, a := range args {
		callArgs[i] = &proto.RuntimeCallArgument{Value: gson.New(a)}
	}

	var res *proto.RuntimeCallFunctionOnResult
	for attempt := 0; ; attempt++ {
		contextID, err := t.world(p, frame)
		if err != nil {
			return nil, err
		}
		res, err = proto.RuntimeCallFunctionOn{
			FunctionDeclaration: fn,
			ExecutionContextID:  contextID,
			Arguments:           callArgs,
			ReturnByValue:       byValue,
			AwaitPromise:        true,
			UserGesture:         true,
		}.Call(p)
		if err == nil {
			break
		}
		if attempt == 0 && staleContext(err) {
			t.worlds.dropFrame(frame)
			continue
		}
		return nil, fmt.Errorf("call in frame %s failed: %w", frame, err)
	}
	if res.ExceptionDetails != nil {
		msg := res.ExceptionDetails.Text
		if res.ExceptionDetails.Exception != nil && res.ExceptionDetails.Exception.Description != "" {
			msg = res.ExceptionDetails.Exception.Description
		}
		return nil, &ScriptError{Frame: frame, Message: msg}
	}
	return res.Result, nil
}

// decode unmarshals a by-value result into v.
func decode(obj *proto.RuntimeRemoteObject, v interface{}) error {
	raw, err := obj.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Executor returns a relay executor that runs engine inside this tab.
func (t *Tab) Executor(engine *replace.Engine) relay.Executor {
	return &tabExecutor{tab: t, engine: engine}
}

type tabExecutor struct {
	tab    *Tab
	engine *replace.Engine
}

// Execute replaces the selection in cmd.Frame. An error means the frame is
// gone or the deadline passed; the replacement itself reports through the
// outcome.
func (e *tabExecutor) Execute(ctx context.Context, cmd relay.Command) (replace.Outcome, error) {
	frames, err := e.tab.Frames(ctx)
	if err != nil {
		return replace.Outcome{}, err
	}
	found := false
	for _, f := range frames {
		if f == cmd.Frame {
			found = true
			break
		}
	}
	if !found {
		return replace.Outcome{}, fmt.Errorf("frame %s is no longer attached", cmd.Frame)
	}

	out := e.engine.Replace(ctx, e.tab.Document(cmd.Frame), cmd.Text)
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// ModalPresenter returns a presenter that shows the notice in a blocking
// alert in the top-level frame.
func (t *Tab) ModalPresenter() recovery.Presenter {
	return &modalPresenter{tab: t}
}

type modalPresenter struct {
	tab *Tab
}

func (m *modalPresenter) Name() string { return "page-modal" }

// Present opens the alert and waits until the browser reports it open.
func (m *modalPresenter) Present(ctx context.Context, n recovery.Notice) error {
	top, err := m.tab.TopFrame(ctx)
	if err != nil {
		return err
	}

	wait := m.tab.page.Context(ctx).WaitEvent(&proto.PageJavascriptDialogOpening{})
	if _, err := m.tab.call(ctx, top, jsAlert, true, n.Message()); err != nil {
		return err
	}
	wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dialog did not open: %w", err)
	}
	L_debug("browser: recovery dialog shown", "requestID", n.RequestID, "frame", top)
	return nil
}
