package chordring

import (
	"fmt"
	"net"
	"sync"
)

// ID is a position on the identifier ring, in [0, 2^bits).
type ID uint64

// NodeInfo identifies a ring member and where to reach it.
type NodeInfo struct {
	ID   ID     `json:"id"`
	Addr string `json:"addr"`
}

// IsZero reports whether the NodeInfo carries no address.
func (n NodeInfo) IsZero() bool {
	return n.Addr == ""
}

func (n NodeInfo) String() string {
	return fmt.Sprintf("%d@%s", n.ID, n.Addr)
}

// Node is a single Chord ring member.
type Node struct {
	mu          sync.RWMutex
	self        NodeInfo
	predecessor *NodeInfo // nil until a peer notifies us
	fingers     *fingerTable
	joined      bool
	nextFinger  int // last finger refreshed by fixNextFinger
	options     options

	client      *Client
	server      *server
	listener    net.Listener
	coordinator *coordinator
}

// LookupResult is the answer to a find_successor query.
type LookupResult struct {
	Node NodeInfo
	Hops int
}
