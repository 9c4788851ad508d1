package chordring

import (
	"fmt"
	"strings"
)

// fingerEntry is one row of the routing table. Entry i (1-based) covers
// [n + 2^(i-1), n + 2^i) and caches the best known successor of its start.
type fingerEntry struct {
	Start    ID
	Interval Interval
	Node     NodeInfo
}

// fingerTable is not safe for concurrent use; the owning Node guards it.
type fingerTable struct {
	self    NodeInfo
	bits    int
	entries []fingerEntry
}

// newFingerTable builds a table for a ring of one: every entry points at self.
func newFingerTable(self NodeInfo, bits int) *fingerTable {
	var ft = &fingerTable{
		self:    self,
		bits:    bits,
		entries: make([]fingerEntry, bits),
	}

	for i := 1; i <= bits; i++ {
		var (
			start = addID(self.ID, uint64(1)<<uint(i-1), bits)
			next  = self.ID
		)
		if i < bits {
			next = addID(self.ID, uint64(1)<<uint(i), bits)
		}
		ft.entries[i-1] = fingerEntry{
			Start:    start,
			Interval: Interval{Start: start, End: next, Bits: bits},
			Node:     self,
		}
	}

	return ft
}

// successor returns finger 1, the node's immediate ring successor.
func (ft *fingerTable) successor() NodeInfo {
	return ft.entries[0].Node
}

func (ft *fingerTable) setSuccessor(node NodeInfo) {
	ft.entries[0].Node = node
}

// entry returns finger i (1-based).
func (ft *fingerTable) entry(i int) fingerEntry {
	return ft.entries[i-1]
}

// setNode replaces the node cached by finger i (1-based).
func (ft *fingerTable) setNode(i int, node NodeInfo) {
	ft.entries[i-1].Node = node
}

// closestPrecedingFinger scans from the widest finger down and returns the
// first node strictly between self and target, or self if none qualifies.
func (ft *fingerTable) closestPrecedingFinger(target ID) NodeInfo {
	for i := len(ft.entries) - 1; i >= 0; i-- {
		var node = ft.entries[i].Node
		if between(node.ID, ft.self.ID, target) {
			return node
		}
	}
	return ft.self
}

// observe records a live peer learned from the network. Any finger whose
// start the peer succeeds more closely than the cached node is replaced.
// Returns the number of entries changed.
func (ft *fingerTable) observe(peer NodeInfo) int {
	if peer.IsZero() || peer.ID == ft.self.ID {
		return 0
	}

	var changed = 0
	for i := range ft.entries {
		var (
			e       = &ft.entries[i]
			current = ft.distance(e.Start, e.Node.ID)
			offered = ft.distance(e.Start, peer.ID)
		)
		if offered < current {
			e.Node = peer
			changed++
		}
	}
	return changed
}

// distance is the clockwise number of steps from a to b.
func (ft *fingerTable) distance(a, b ID) uint64 {
	return (uint64(b) - uint64(a)) & ringMask(ft.bits)
}

// String renders the table the way the Chord paper draws it.
func (ft *fingerTable) String() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Finger table of %s (m=%d)\n", ft.self, ft.bits))
	b.WriteString(fmt.Sprintf("  %-4s %-22s %-24s %s\n", "i", "start", "interval", "node"))
	for i, e := range ft.entries {
		var marker = " "
		if e.Node.ID == ft.self.ID {
			marker = "●"
		}
		b.WriteString(fmt.Sprintf("%s %-4d %-22d %-24s %s\n",
			marker, i+1, e.Start, e.Interval, e.Node))
	}

	return b.String()
}
