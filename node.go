package chordring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// NewNode creates a node listening on address. Its identifier is computed
// immediately by hashing the address, unless WithIdentifier pins it.
// The node starts as a ring of one.
func NewNode(address string, opts ...Option) (*Node, error) {
	var options = defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := validateOptions(options); err != nil {
		return nil, err
	}

	if _, _, err := net.SplitHostPort(address); err != nil {
		return nil, fmt.Errorf("invalid node address %q: %w", address, err)
	}

	var id = HashToID(address, options.ringBits)
	if options.identifier != nil {
		id = *options.identifier
	}

	var self = NodeInfo{ID: id, Addr: address}
	return &Node{
		self:    self,
		fingers: newFingerTable(self, options.ringBits),
		options: options,
		client:  NewClient(options.callTimeout, options.logger),
	}, nil
}

func validateOptions(o options) error {
	if o.ringBits < minRingBits || o.ringBits > maxRingBits {
		return fmt.Errorf("ring bits must be between %d and %d, got %d", minRingBits, maxRingBits, o.ringBits)
	}
	if o.identifier != nil && uint64(*o.identifier) >= ringSize(o.ringBits) {
		return fmt.Errorf("identifier %d does not fit a ring of %d bits", *o.identifier, o.ringBits)
	}
	if o.callTimeout <= 0 {
		return errors.New("call timeout must be positive")
	}
	if o.maxConcurrentRequests <= 0 {
		return errors.New("max concurrent requests must be positive")
	}
	if o.maxHops <= 0 {
		return errors.New("max hops must be positive")
	}
	if o.stabilizeInterval < 0 {
		return errors.New("stabilize interval must not be negative")
	}
	if o.directory != nil && o.memberTTL < 3*time.Millisecond {
		return errors.New("member TTL too short")
	}
	return nil
}

// Self returns this node's identity.
func (n *Node) Self() NodeInfo {
	return n.self
}

// ID returns this node's ring identifier.
func (n *Node) ID() ID {
	return n.self.ID
}

// Successor returns finger 1.
func (n *Node) Successor() NodeInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fingers.successor()
}

// Predecessor returns the current predecessor, if any peer has notified us.
func (n *Node) Predecessor() (NodeInfo, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.predecessor == nil {
		return NodeInfo{}, false
	}
	return *n.predecessor, true
}

// Joined reports whether the node has left the standalone state.
func (n *Node) Joined() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.joined
}

// ClosestPrecedingFinger returns the finger closest to, and strictly before, target.
func (n *Node) ClosestPrecedingFinger(target ID) NodeInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fingers.closestPrecedingFinger(target)
}

// Notify accepts candidate as predecessor if we have none or it lies
// between the current predecessor and us. Returns whether it was accepted.
func (n *Node) Notify(candidate NodeInfo) bool {
	if candidate.IsZero() || candidate.ID == n.self.ID {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.predecessor != nil && !between(candidate.ID, n.predecessor.ID, n.self.ID) {
		return false
	}

	n.predecessor = &candidate
	n.options.logger.Info("accepted new predecessor",
		"node_id", n.self.ID,
		"predecessor", candidate.String())
	return true
}

// Start binds the listener and begins serving peers in the background.
// Background workers run until Stop is called.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.server != nil {
		return errors.New("node already started")
	}

	var listener = n.options.listener
	if listener == nil {
		var lc net.ListenConfig
		l, err := lc.Listen(ctx, "tcp", n.self.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", n.self.Addr, err)
		}
		listener = l
	}

	n.listener = listener
	n.coordinator = newCoordinator(n, n.options)
	var workerCtx = n.coordinator.start()

	n.server = newServer(listener, n.handlers(), n.options.maxConcurrentRequests, n.options.callTimeout, n.options.logger)
	go n.server.serve(workerCtx)

	n.options.logger.Info("node listening",
		"node_id", n.self.ID,
		"addr", n.self.Addr,
		"ring_bits", n.options.ringBits)

	return nil
}

// Stop closes the listener, stops background workers and waits for
// in-flight requests to finish. Ring state is kept.
func (n *Node) Stop() error {
	n.mu.Lock()
	var (
		srv         = n.server
		listener    = n.listener
		coordinator = n.coordinator
	)
	n.server, n.listener, n.coordinator = nil, nil, nil
	n.mu.Unlock()

	if srv == nil {
		return ErrNotStarted
	}

	coordinator.stop()
	var err = listener.Close()
	srv.wait()

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close listener: %w", err)
	}
	return nil
}

// Run starts the server, joins the ring through contact when one is given
// (or through the directory when configured), then blocks until ctx is done.
// A join failure stops the node and is returned.
func (n *Node) Run(ctx context.Context, contact string) error {
	if err := n.Start(ctx); err != nil {
		return err
	}
	defer n.Stop()

	switch {
	case contact != "":
		if err := n.Join(ctx, contact); err != nil {
			return err
		}
	case n.options.directory != nil:
		if err := n.joinFromDirectory(ctx); err != nil {
			return err
		}
	default:
		n.options.logger.Info("starting a new ring", "node_id", n.self.ID)
	}

	if n.options.directory != nil {
		if err := n.options.directory.Register(ctx, n.self); err != nil {
			n.options.logger.Warn("failed to register in directory", "error", err)
		}
	}

	<-ctx.Done()
	return nil
}

// String returns a visual representation of the node state.
func (n *Node) String() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var b strings.Builder

	var state = "STANDALONE"
	if n.joined {
		state = "JOINED"
	}

	b.WriteString(fmt.Sprintf("Node: %s | State: %s\n", n.self, state))
	if n.predecessor != nil {
		b.WriteString(fmt.Sprintf("Predecessor: %s\n", n.predecessor))
	} else {
		b.WriteString("Predecessor: <unset>\n")
	}
	b.WriteString(fmt.Sprintf("Successor:   %s\n\n", n.fingers.successor()))
	b.WriteString(n.fingers.String())

	return b.String()
}
