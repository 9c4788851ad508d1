package chordring

import (
	"context"
	"errors"
	"fmt"
)

// stabilize asks the successor for its predecessor, adopts it when it sits
// between us and the successor, then notifies the successor about us.
func (n *Node) stabilize(ctx context.Context) error {
	var (
		successor = n.Successor()
		candidate NodeInfo
		found     bool
	)

	if successor.ID == n.self.ID {
		candidate, found = n.Predecessor()
	} else {
		var err error
		candidate, found, err = n.client.GetPredecessor(ctx, successor.Addr)
		if err != nil {
			return fmt.Errorf("failed to get predecessor of successor %s: %w", successor, err)
		}
	}

	if found && between(candidate.ID, n.self.ID, successor.ID) {
		n.mu.Lock()
		// Another writer may have moved the successor meanwhile.
		var adopted = n.fingers.successor() == successor
		if adopted {
			n.fingers.setSuccessor(candidate)
			n.joined = true
			successor = candidate
		}
		n.mu.Unlock()

		if adopted {
			n.options.logger.Info("adopted new successor",
				"node_id", n.self.ID,
				"successor", candidate.String())
		}
	}

	if successor.ID == n.self.ID {
		return nil
	}

	if err := n.client.Notify(ctx, successor.Addr, n.self); err != nil {
		return fmt.Errorf("failed to notify successor %s: %w", successor, err)
	}
	return nil
}

// Refresh runs one stabilization round and then refreshes every finger.
// It works whether or not periodic stabilization is enabled.
func (n *Node) Refresh(ctx context.Context) error {
	if err := n.stabilize(ctx); err != nil {
		return err
	}

	for i := 1; i <= n.options.ringBits; i++ {
		n.mu.RLock()
		var entry = n.fingers.entry(i)
		n.mu.RUnlock()

		if err := n.fixFinger(ctx, i, entry); err != nil {
			return err
		}
	}
	return nil
}

// fixNextFinger refreshes one finger per call, cycling through the table.
func (n *Node) fixNextFinger(ctx context.Context) error {
	n.mu.Lock()
	n.nextFinger = n.nextFinger%n.options.ringBits + 1
	var (
		index = n.nextFinger
		entry = n.fingers.entry(index)
	)
	n.mu.Unlock()

	return n.fixFinger(ctx, index, entry)
}

// fixFinger points finger index at the current successor of its start.
// The update is dropped if the entry changed while the lookup was in flight.
func (n *Node) fixFinger(ctx context.Context, index int, before fingerEntry) error {
	var result, err = n.lookup(ctx, before.Start, 0)
	if err != nil {
		return fmt.Errorf("failed to fix finger %d: %w", index, err)
	}

	n.mu.Lock()
	if n.fingers.entry(index).Node == before.Node {
		n.fingers.setNode(index, result.Node)
	}
	n.mu.Unlock()
	return nil
}

// checkPredecessor clears the predecessor once it stops answering.
func (n *Node) checkPredecessor(ctx context.Context) error {
	var predecessor, ok = n.Predecessor()
	if !ok {
		return nil
	}

	var _, err = n.client.Ping(ctx, predecessor.Addr)
	if err == nil {
		return nil
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		return fmt.Errorf("failed to ping predecessor %s: %w", predecessor, err)
	}

	n.mu.Lock()
	if n.predecessor != nil && *n.predecessor == predecessor {
		n.predecessor = nil
	}
	n.mu.Unlock()

	n.options.logger.Warn("predecessor unreachable, cleared",
		"node_id", n.self.ID,
		"predecessor", predecessor.String(),
		"error", err)
	return nil
}

// heartbeat refreshes this node's directory registration.
func (n *Node) heartbeat(ctx context.Context) error {
	if err := n.options.directory.Register(ctx, n.self); err != nil {
		return fmt.Errorf("failed to renew directory registration: %w", err)
	}
	return nil
}
