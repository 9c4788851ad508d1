package database

import "time"

// MemberRecord represents a ring member registration in the database.
type MemberRecord struct {
	RingID   string
	NodeID   uint64
	Address  string
	LastSeen time.Time
}
