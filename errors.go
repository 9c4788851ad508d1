package chordring

import (
	"errors"
	"fmt"
)

var (
	// ErrJoinFailed is returned when the contact node cannot place us on the ring.
	ErrJoinFailed = errors.New("failed to join ring")

	// ErrAlreadyJoined is returned when Join is called on a node that is already a ring member.
	ErrAlreadyJoined = errors.New("node already joined a ring")

	// ErrMalformedRequest is returned for unknown procedures or arguments of the wrong shape.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrTooManyHops is returned when a lookup is forwarded more often than the hop limit allows.
	ErrTooManyHops = errors.New("lookup exceeded hop limit")

	// ErrNotStarted is returned when an operation needs the server loop to be running.
	ErrNotStarted = errors.New("node not started")

	// ErrFrameTooLarge is returned when a peer announces a frame above maxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")

	// errUnexpectedResponse means the peer answered a different request.
	errUnexpectedResponse = errors.New("response does not match request")
)

// TransportError reports a failure to connect to, send to, or receive from a peer.
type TransportError struct {
	Addr      string
	Procedure Procedure
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Procedure, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is an error indicator returned by a peer in its response.
type RemoteError struct {
	Addr      string
	Procedure Procedure
	Code      string
	Message   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: remote error (%s): %s", e.Procedure, e.Addr, e.Code, e.Message)
}

// Is maps well-known remote codes back onto the local sentinel errors.
func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case codeMalformedRequest:
		return target == ErrMalformedRequest
	case codeTooManyHops:
		return target == ErrTooManyHops
	}
	return false
}

// errorCode classifies a handler error for the wire.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRequest):
		return codeMalformedRequest
	case errors.Is(err, ErrTooManyHops):
		return codeTooManyHops
	default:
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return codeUnreachable
		}
		return codeInternal
	}
}
