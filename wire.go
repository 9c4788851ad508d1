package chordring

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Procedure names a remote operation a node exposes to its peers.
type Procedure string

const (
	procFindSuccessor          Procedure = "find_successor"
	procGetPredecessor         Procedure = "get_predecessor"
	procGetSuccessor           Procedure = "get_successor"
	procNotify                 Procedure = "notify"
	procClosestPrecedingFinger Procedure = "closest_preceding_finger"
	procPing                   Procedure = "ping"
)

const (
	codeMalformedRequest = "malformed_request"
	codeTooManyHops      = "too_many_hops"
	codeUnreachable      = "unreachable"
	codeInternal         = "internal"
)

// maxFrameSize bounds a single envelope on the wire.
const maxFrameSize = 1 << 20

// request is the envelope for one procedure call. Which argument field is
// set depends on the procedure.
type request struct {
	ID        string    `json:"id"`
	Procedure Procedure `json:"procedure"`
	Target    *ID       `json:"target,omitempty"`
	Node      *NodeInfo `json:"node,omitempty"`
	Hops      int       `json:"hops,omitempty"`
}

// response carries a single result value, an acknowledgement, or an error indicator.
type response struct {
	ID    string    `json:"id"`
	Node  *NodeInfo `json:"node,omitempty"`
	Hops  int       `json:"hops,omitempty"`
	Ack   bool      `json:"ack,omitempty"`
	Code  string    `json:"code,omitempty"`
	Error string    `json:"error,omitempty"`
}

// writeFrame writes v as a length-prefixed JSON document.
func writeFrame(w io.Writer, v any) error {
	var body, err = json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if len(body) > maxFrameSize {
		return ErrFrameTooLarge
	}

	var frame = make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed JSON document into v.
// Decoding failures wrap ErrMalformedRequest; I/O failures are returned as is.
func readFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}

	var size = binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	var body = make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return nil
}
