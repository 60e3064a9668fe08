// Package failure defines the error taxonomy shared by discovery, replacement,
// transport and the generation backend.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a failure for propagation and user messaging decisions.
type Kind string

const (
	KindNone Kind = ""

	// Discovery
	NoSelectionFound Kind = "no_selection_found"

	// Replacement
	NotAuthoritativeFocus Kind = "not_authoritative_focus"
	SurfaceNotFound       Kind = "surface_not_found"
	NoActiveSelection     Kind = "no_active_selection"
	StrategyExhausted     Kind = "strategy_exhausted"

	// Transport
	Timeout            Kind = "timeout"
	Cancelled          Kind = "cancelled"
	ChannelUnavailable Kind = "channel_unavailable"

	// Generation backend
	RateLimited    Kind = "rate_limited"
	ContentBlocked Kind = "content_blocked"
	Malformed      Kind = "malformed"
	Network        Kind = "network"
	Misconfigured  Kind = "misconfigured"
)

// Error is a classified failure. Categories is only set for ContentBlocked.
type Error struct {
	Kind       Kind
	Message    string
	Categories []string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, failure.New(Timeout, ""))
// works across wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Blocked creates a ContentBlocked error carrying the flagged categories.
func Blocked(reason string, categories []string) *Error {
	return &Error{Kind: ContentBlocked, Message: reason, Categories: categories}
}

// KindOf returns the kind of the first *Error in err's chain, or KindNone.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNone
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Categories returns the content categories of a ContentBlocked error.
func Categories(err error) []string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Categories
	}
	return nil
}

// Retryable reports whether the user may sensibly re-initiate after this kind.
// Nothing is retried automatically.
func Retryable(kind Kind) bool {
	switch kind {
	case Timeout, Cancelled, ChannelUnavailable, RateLimited, Network:
		return true
	default:
		return false
	}
}

// UserMessage returns the message shown to the user for err.
// Backend detail is passed through verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if !errors.As(err, &fe) {
		return err.Error()
	}
	switch fe.Kind {
	case NoSelectionFound:
		return "No text selected on the page or in any iframe."
	case NotAuthoritativeFocus, SurfaceNotFound:
		return "No actionable selection in this frame."
	case NoActiveSelection:
		return "No text selected in the focused field for replacement."
	case StrategyExhausted:
		return "Failed to automatically replace text. Please paste it manually."
	case Timeout:
		return "Request timed out. Please try again."
	case Cancelled:
		return "Request cancelled before the page answered."
	case ChannelUnavailable:
		return "Failed to connect to the page content. Try reloading the tab."
	case ContentBlocked:
		msg := "Content blocked: " + fe.Message
		if len(fe.Categories) > 0 {
			msg += " (Categories: " + strings.Join(fe.Categories, ", ") + ")"
		}
		return msg
	case RateLimited:
		return "Rate limited by the generation backend: " + fe.Error()
	case Network:
		return "Network error with API, please try again: " + fe.Error()
	default:
		return fe.Error()
	}
}
