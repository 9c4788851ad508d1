package chordring

import (
	"context"
	"net"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestListener binds an ephemeral localhost port.
func newTestListener(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return l
}

// newTestNode creates a node on an ephemeral port without starting it.
func newTestNode(t *testing.T, opts ...Option) *Node {
	t.Helper()
	var l = newTestListener(t)
	n, err := NewNode(l.Addr().String(), append([]Option{WithListener(l)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return n
}

// startTestNode creates and starts a node; it is stopped on cleanup.
func startTestNode(t *testing.T, opts ...Option) *Node {
	t.Helper()
	var n = newTestNode(t, opts...)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(func() { _ = n.Stop() })
	return n
}

// buildTestRing starts one node per identifier and fills every finger table,
// successor and predecessor with the correct ring layout.
func buildTestRing(t *testing.T, bits int, ids []ID, opts ...Option) []*Node {
	t.Helper()

	var nodes = make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = startTestNode(t, append([]Option{WithRingBits(bits), WithIdentifier(id)}, opts...)...)
	}

	var infos = make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		infos[i] = n.Self()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	for _, n := range nodes {
		n.mu.Lock()
		for i := 1; i <= bits; i++ {
			n.fingers.setNode(i, expectedSuccessor(infos, n.fingers.entry(i).Start))
		}
		var pred = expectedPredecessor(infos, n.self.ID)
		n.predecessor = &pred
		n.joined = len(infos) > 1
		n.mu.Unlock()
	}

	return nodes
}

// expectedSuccessor returns the first node with id >= target, wrapping around.
func expectedSuccessor(sorted []NodeInfo, target ID) NodeInfo {
	for _, info := range sorted {
		if info.ID >= target {
			return info
		}
	}
	return sorted[0]
}

// expectedPredecessor returns the last node with id < target, wrapping around.
func expectedPredecessor(sorted []NodeInfo, target ID) NodeInfo {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].ID < target {
			return sorted[i]
		}
	}
	return sorted[len(sorted)-1]
}

// newBlackholeListener accepts connections and never answers.
func newBlackholeListener(t *testing.T) net.Listener {
	t.Helper()
	var (
		l     = newTestListener(t)
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = l.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return l
}

// closedAddress returns an address nothing is listening on.
func closedAddress(t *testing.T) string {
	t.Helper()
	var l = newTestListener(t)
	var addr = l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// memoryDirectory is an in-process Directory.
type memoryDirectory struct {
	mu      sync.Mutex
	members []NodeInfo
}

func (d *memoryDirectory) Register(_ context.Context, node NodeInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, m := range d.members {
		if m.Addr == node.Addr {
			d.members[i] = node
			return nil
		}
	}
	d.members = append(d.members, node)
	return nil
}

func (d *memoryDirectory) Contacts(_ context.Context) ([]NodeInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out = make([]NodeInfo, len(d.members))
	copy(out, d.members)
	return out, nil
}
