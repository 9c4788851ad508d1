package chordring

import (
	"context"
	"fmt"
)

// FindSuccessor returns the node responsible for target.
func (n *Node) FindSuccessor(ctx context.Context, target ID) (NodeInfo, error) {
	var result, err = n.Lookup(ctx, target)
	if err != nil {
		return NodeInfo{}, err
	}
	return result.Node, nil
}

// Lookup resolves the successor of target and reports how many times the
// query was forwarded to reach it.
func (n *Node) Lookup(ctx context.Context, target ID) (LookupResult, error) {
	if uint64(target) >= ringSize(n.options.ringBits) {
		return LookupResult{}, fmt.Errorf("%w: identifier %d outside ring of %d bits", ErrMalformedRequest, target, n.options.ringBits)
	}
	return n.lookup(ctx, target, 0)
}

// lookup answers locally when target falls in (n, successor], otherwise
// forwards the query to the closest preceding finger and relays its answer.
func (n *Node) lookup(ctx context.Context, target ID, hops int) (LookupResult, error) {
	if hops > n.options.maxHops {
		return LookupResult{}, fmt.Errorf("%w: %d hops for identifier %d", ErrTooManyHops, hops, target)
	}

	n.mu.RLock()
	var (
		successor = n.fingers.successor()
		next      = n.fingers.closestPrecedingFinger(target)
	)
	n.mu.RUnlock()

	if betweenRightIncl(target, n.self.ID, successor.ID) {
		return LookupResult{Node: successor, Hops: hops}, nil
	}

	// Nowhere closer to go from here.
	if next.ID == n.self.ID {
		return LookupResult{Node: successor, Hops: hops}, nil
	}

	var result, err = n.client.findSuccessor(ctx, next.Addr, target, hops+1)
	if err != nil {
		return LookupResult{}, fmt.Errorf("failed to forward lookup of %d to %s: %w", target, next, err)
	}

	n.observe(result.Node)
	return result, nil
}

// observe feeds a peer learned from the network into the finger table.
func (n *Node) observe(peer NodeInfo) {
	n.mu.Lock()
	var changed = n.fingers.observe(peer)
	n.mu.Unlock()

	if changed > 0 {
		n.options.logger.Debug("learned route from lookup",
			"node_id", n.self.ID,
			"peer", peer.String(),
			"fingers_changed", changed)
	}
}
