package chordring

import (
	"context"
	"fmt"
)

// handlers is the dispatch table of procedures this node serves to its peers.
func (n *Node) handlers() map[Procedure]handlerFunc {
	return map[Procedure]handlerFunc{
		procFindSuccessor:          n.handleFindSuccessor,
		procGetPredecessor:         n.handleGetPredecessor,
		procGetSuccessor:           n.handleGetSuccessor,
		procNotify:                 n.handleNotify,
		procClosestPrecedingFinger: n.handleClosestPrecedingFinger,
		procPing:                   n.handlePing,
	}
}

func (n *Node) handleFindSuccessor(ctx context.Context, req *request) (*response, error) {
	var target, err = n.targetArg(req)
	if err != nil {
		return nil, err
	}
	if req.Hops < 0 {
		return nil, fmt.Errorf("%w: negative hop count", ErrMalformedRequest)
	}

	result, err := n.lookup(ctx, target, req.Hops)
	if err != nil {
		return nil, err
	}
	return &response{Node: &result.Node, Hops: result.Hops}, nil
}

func (n *Node) handleGetPredecessor(_ context.Context, _ *request) (*response, error) {
	var predecessor, ok = n.Predecessor()
	if !ok {
		return &response{}, nil
	}
	return &response{Node: &predecessor}, nil
}

func (n *Node) handleGetSuccessor(_ context.Context, _ *request) (*response, error) {
	var successor = n.Successor()
	return &response{Node: &successor}, nil
}

func (n *Node) handleNotify(_ context.Context, req *request) (*response, error) {
	if req.Node == nil || req.Node.IsZero() {
		return nil, fmt.Errorf("%w: notify needs a node argument", ErrMalformedRequest)
	}
	if uint64(req.Node.ID) >= ringSize(n.options.ringBits) {
		return nil, fmt.Errorf("%w: identifier %d outside ring", ErrMalformedRequest, req.Node.ID)
	}

	n.Notify(*req.Node)
	return &response{Ack: true}, nil
}

func (n *Node) handleClosestPrecedingFinger(_ context.Context, req *request) (*response, error) {
	var target, err = n.targetArg(req)
	if err != nil {
		return nil, err
	}

	var finger = n.ClosestPrecedingFinger(target)
	return &response{Node: &finger}, nil
}

func (n *Node) handlePing(_ context.Context, _ *request) (*response, error) {
	var self = n.self
	return &response{Node: &self, Ack: true}, nil
}

// targetArg extracts the identifier argument of req.
func (n *Node) targetArg(req *request) (ID, error) {
	if req.Target == nil {
		return 0, fmt.Errorf("%w: %s needs an identifier argument", ErrMalformedRequest, req.Procedure)
	}
	if uint64(*req.Target) >= ringSize(n.options.ringBits) {
		return 0, fmt.Errorf("%w: identifier %d outside ring of %d bits", ErrMalformedRequest, *req.Target, n.options.ringBits)
	}
	return *req.Target, nil
}
