package varlink

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidAddress is returned for a malformed address string.
	ErrInvalidAddress = errors.New("varlink: invalid address")

	// ErrConnectionClosed is returned for operations on a dead listener
	// or connection.
	ErrConnectionClosed = errors.New("varlink: connection closed")

	// ErrIdleTimeout is returned by Listen when no connection arrived
	// within the configured timeout while no worker was busy.
	ErrIdleTimeout = errors.New("varlink: idle timeout")
)

// SerializationKind classifies a failed (de)serialization.
type SerializationKind int

const (
	// SerializationSyntax marks input that is not valid JSON.
	SerializationSyntax SerializationKind = iota

	// SerializationData marks valid JSON that does not match the
	// expected structure.
	SerializationData

	// SerializationTruncated marks input that ended mid-message.
	SerializationTruncated

	// SerializationOther covers remaining failures, like unmarshalable
	// values on the encoding side.
	SerializationOther
)

func (k SerializationKind) String() string {
	switch k {
	case SerializationSyntax:
		return "syntax"
	case SerializationData:
		return "data"
	case SerializationTruncated:
		return "truncated"
	default:
		return "other"
	}
}

// SerializationError reports a failed message encode or decode. The
// underlying encoder error stays reachable through Unwrap.
type SerializationError struct {
	Kind SerializationKind
	err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("varlink: serialization failed (%s): %v", e.Kind, e.err)
}

func (e *SerializationError) Unwrap() error { return e.err }

// ParameterError reports a call parameter that failed to deserialize.
// Parameter is empty when no single field could be identified.
type ParameterError struct {
	Parameter string
	err       error
}

func (e *ParameterError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("varlink: invalid parameters: %v", e.err)
	}
	return fmt.Sprintf("varlink: invalid parameter %q: %v", e.Parameter, e.err)
}

func (e *ParameterError) Unwrap() error { return e.err }

// Error is a named varlink protocol error: an interface-qualified error
// name with optional structured parameters, as declared in the target
// interface's description. On the client side Parameters holds the raw
// message; DecodeParameters recovers the typed arguments.
type Error struct {
	Name       string
	Parameters interface{}
}

func (e *Error) Error() string { return e.Name }

// DecodeParameters unmarshals the error parameters into out. It is a
// no-op when the error carried none.
func (e *Error) DecodeParameters(out interface{}) error {
	raw, ok := e.Parameters.([]byte)
	if !ok || len(raw) == 0 {
		return nil
	}
	return decodeMessage(raw, out)
}

// UnrecognizedReplyError is the fallback for a reply that matches neither
// the success shape nor a classifiable error shape.
type UnrecognizedReplyError struct {
	Reply *Reply
}

func (e *UnrecognizedReplyError) Error() string {
	return fmt.Sprintf("varlink: unrecognized reply: %+v", e.Reply)
}
