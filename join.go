package chordring

import (
	"context"
	"fmt"
)

// Join splices this node into the ring that contact belongs to. It asks the
// contact for the successor of our own identifier, adopts it as finger 1 and
// leaves the predecessor unset for peers to fill in through notify.
// Join happens at most once per node; any failure wraps ErrJoinFailed.
func (n *Node) Join(ctx context.Context, contact string) error {
	if n.Joined() {
		return ErrAlreadyJoined
	}

	n.options.logger.Info("joining ring", "node_id", n.self.ID, "contact", contact)

	var result, err = n.client.FindSuccessor(ctx, contact, n.self.ID)
	if err != nil {
		return fmt.Errorf("%w: contact %s: %w", ErrJoinFailed, contact, err)
	}

	var successor = result.Node
	if successor.ID == n.self.ID && successor.Addr != n.self.Addr {
		return fmt.Errorf("%w: identifier %d already taken by %s", ErrJoinFailed, n.self.ID, successor.Addr)
	}

	n.mu.Lock()
	if n.joined {
		n.mu.Unlock()
		return ErrAlreadyJoined
	}
	n.fingers.setSuccessor(successor)
	n.fingers.observe(successor)
	n.predecessor = nil
	n.joined = true
	n.mu.Unlock()

	n.options.logger.Info("joined ring",
		"node_id", n.self.ID,
		"successor", successor.String(),
		"hops", result.Hops)

	if successor.ID == n.self.ID {
		return nil
	}

	// Let the successor learn about us right away instead of waiting for stabilization.
	if err := n.client.Notify(ctx, successor.Addr, n.self); err != nil {
		n.options.logger.Warn("failed to notify successor after join",
			"successor", successor.String(),
			"error", err)
	}

	return nil
}

// joinFromDirectory joins through the first live directory member that is not
// ourselves. With no live members the node starts a new ring.
func (n *Node) joinFromDirectory(ctx context.Context) error {
	var contacts, err = n.options.directory.Contacts(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to list directory contacts: %w", ErrJoinFailed, err)
	}

	for _, contact := range contacts {
		if contact.Addr == n.self.Addr {
			continue
		}

		if err := n.Join(ctx, contact.Addr); err != nil {
			n.options.logger.Warn("failed to join through directory contact",
				"contact", contact.String(),
				"error", err)
			continue
		}
		return nil
	}

	n.options.logger.Info("no live directory contacts, starting a new ring", "node_id", n.self.ID)
	return nil
}
