package chordring

import "fmt"

// Interval is a half-open range [Start, End) on a ring of 2^Bits identifiers.
// A range that passes 2^Bits wraps around to zero. Start == End denotes the
// full ring, which is what a node alone on the ring is responsible for;
// callers that need an empty range must check for it themselves.
type Interval struct {
	Start ID
	End   ID
	Bits  int
}

// Contains reports whether id lies in the interval.
func (iv Interval) Contains(id ID) bool {
	switch {
	case iv.Start == iv.End:
		return true
	case iv.Start < iv.End:
		return iv.Start <= id && id < iv.End
	default:
		return id >= iv.Start || id < iv.End
	}
}

// Len returns how many identifiers the interval covers.
func (iv Interval) Len() uint64 {
	if iv.Start == iv.End {
		return ringSize(iv.Bits)
	}
	return (uint64(iv.End) - uint64(iv.Start)) & ringMask(iv.Bits)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d)", iv.Start, iv.End)
}

// between reports whether x lies in the open interval (a, b).
// When a == b the interval is the whole ring except a.
func between(x, a, b ID) bool {
	switch {
	case a == b:
		return x != a
	case a < b:
		return a < x && x < b
	default:
		return x > a || x < b
	}
}

// betweenRightIncl reports whether x lies in (a, b].
// When a == b the interval is the whole ring.
func betweenRightIncl(x, a, b ID) bool {
	switch {
	case a == b:
		return true
	case a < b:
		return a < x && x <= b
	default:
		return x > a || x <= b
	}
}

// addID returns (n + delta) mod 2^bits.
func addID(n ID, delta uint64, bits int) ID {
	return ID((uint64(n) + delta) & ringMask(bits))
}
