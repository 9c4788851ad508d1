package chordring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/rs/xid"
)

// Client issues single-shot procedure calls to ring members.
// Each call opens its own connection and never retries.
type Client struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a Client whose calls give up after timeout.
// If the logger is nil, the client will use a no-op logger.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = discardLogger()
	}
	return &Client{
		timeout: timeout,
		logger:  logger,
	}
}

// FindSuccessor asks the node at addr for the successor of target.
func (c *Client) FindSuccessor(ctx context.Context, addr string, target ID) (LookupResult, error) {
	return c.findSuccessor(ctx, addr, target, 0)
}

func (c *Client) findSuccessor(ctx context.Context, addr string, target ID, hops int) (LookupResult, error) {
	var resp, err = c.call(ctx, addr, &request{
		Procedure: procFindSuccessor,
		Target:    &target,
		Hops:      hops,
	})
	if err != nil {
		return LookupResult{}, err
	}

	if resp.Node == nil || resp.Node.IsZero() {
		return LookupResult{}, &TransportError{Addr: addr, Procedure: procFindSuccessor, Err: fmt.Errorf("empty successor in response")}
	}

	return LookupResult{Node: *resp.Node, Hops: resp.Hops}, nil
}

// GetPredecessor returns the predecessor of the node at addr.
// The boolean is false if that node has no predecessor yet.
func (c *Client) GetPredecessor(ctx context.Context, addr string) (NodeInfo, bool, error) {
	var resp, err = c.call(ctx, addr, &request{Procedure: procGetPredecessor})
	if err != nil {
		return NodeInfo{}, false, err
	}

	if resp.Node == nil {
		return NodeInfo{}, false, nil
	}
	return *resp.Node, true, nil
}

// GetSuccessor returns the immediate successor of the node at addr.
func (c *Client) GetSuccessor(ctx context.Context, addr string) (NodeInfo, error) {
	var resp, err = c.call(ctx, addr, &request{Procedure: procGetSuccessor})
	if err != nil {
		return NodeInfo{}, err
	}

	if resp.Node == nil {
		return NodeInfo{}, &TransportError{Addr: addr, Procedure: procGetSuccessor, Err: fmt.Errorf("empty successor in response")}
	}
	return *resp.Node, nil
}

// Notify tells the node at addr that candidate believes it is its predecessor.
func (c *Client) Notify(ctx context.Context, addr string, candidate NodeInfo) error {
	var _, err = c.call(ctx, addr, &request{
		Procedure: procNotify,
		Node:      &candidate,
	})
	return err
}

// ClosestPrecedingFinger asks the node at addr for its closest finger preceding target.
func (c *Client) ClosestPrecedingFinger(ctx context.Context, addr string, target ID) (NodeInfo, error) {
	var resp, err = c.call(ctx, addr, &request{
		Procedure: procClosestPrecedingFinger,
		Target:    &target,
	})
	if err != nil {
		return NodeInfo{}, err
	}

	if resp.Node == nil {
		return NodeInfo{}, &TransportError{Addr: addr, Procedure: procClosestPrecedingFinger, Err: fmt.Errorf("empty finger in response")}
	}
	return *resp.Node, nil
}

// Ping checks that the node at addr is serving and returns its identity.
func (c *Client) Ping(ctx context.Context, addr string) (NodeInfo, error) {
	var resp, err = c.call(ctx, addr, &request{Procedure: procPing})
	if err != nil {
		return NodeInfo{}, err
	}

	if resp.Node == nil {
		return NodeInfo{}, &TransportError{Addr: addr, Procedure: procPing, Err: fmt.Errorf("empty identity in response")}
	}
	return *resp.Node, nil
}

// call sends req to addr over a fresh connection and waits for exactly one response.
func (c *Client) call(ctx context.Context, addr string, req *request) (*response, error) {
	req.ID = xid.New().String()

	var (
		transportErr = func(err error) error {
			return &TransportError{Addr: addr, Procedure: req.Procedure, Err: err}
		}
		dialer net.Dialer
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transportErr(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock reads and writes as soon as the caller gives up.
	var stop = context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := writeFrame(conn, req); err != nil {
		return nil, transportErr(err)
	}

	var resp response
	if err := readFrame(conn, &resp); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return nil, transportErr(err)
	}

	if resp.ID != req.ID {
		return nil, transportErr(errUnexpectedResponse)
	}

	if resp.Error != "" {
		return nil, &RemoteError{
			Addr:      addr,
			Procedure: req.Procedure,
			Code:      resp.Code,
			Message:   resp.Error,
		}
	}

	c.logger.Debug("rpc call completed",
		"procedure", req.Procedure,
		"addr", addr,
		"request_id", req.ID)

	return &resp, nil
}
