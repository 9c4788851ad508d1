package chordring

import (
	"io"
	"log/slog"
	"net"
	"time"
)

const (
	minRingBits = 1
	maxRingBits = 63
)

// options configures the Node behavior (internal only).
type options struct {
	ringBits              int
	identifier            *ID
	listener              net.Listener
	callTimeout           time.Duration
	maxConcurrentRequests int64
	maxHops               int
	stabilizeInterval     time.Duration
	directory             Directory
	memberTTL             time.Duration
	logger                *slog.Logger
}

// defaultOptions returns sensible defaults.
func defaultOptions() options {
	return options{
		ringBits:              32,
		callTimeout:           2 * time.Second,
		maxConcurrentRequests: 256,
		maxHops:               64,
		stabilizeInterval:     0,
		memberTTL:             15 * time.Second,
		logger:                discardLogger(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option is a functional option for configuring a Node.
type Option func(*options)

// WithRingBits sets m, the ring holds 2^m identifiers. Valid values are 1 to 63.
// DEFAULT: 32
func WithRingBits(bits int) Option {
	return func(o *options) {
		o.ringBits = bits
	}
}

// WithIdentifier pins the node identifier instead of hashing the address.
// Useful for building rings with known layouts.
func WithIdentifier(id ID) Option {
	return func(o *options) {
		o.identifier = &id
	}
}

// WithListener makes the node serve on an already bound listener.
// The node's address should match the listener's address.
func WithListener(l net.Listener) Option {
	return func(o *options) {
		o.listener = l
	}
}

// WithCallTimeout bounds every outbound call, including connect.
// DEFAULT: 2s
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.callTimeout = timeout
	}
}

// WithMaxConcurrentRequests bounds the number of inbound connections served at once.
// DEFAULT: 256
func WithMaxConcurrentRequests(n int64) Option {
	return func(o *options) {
		o.maxConcurrentRequests = n
	}
}

// WithMaxHops bounds how often a single lookup may be forwarded.
// DEFAULT: 64
func WithMaxHops(hops int) Option {
	return func(o *options) {
		o.maxHops = hops
	}
}

// WithStabilizeInterval enables the periodic stabilize, fix-fingers and
// check-predecessor workers. Zero disables them.
// DEFAULT: disabled
func WithStabilizeInterval(interval time.Duration) Option {
	return func(o *options) {
		o.stabilizeInterval = interval
	}
}

// WithDirectory registers the node in a peer directory and uses it to find
// a contact when none is given.
func WithDirectory(d Directory) Option {
	return func(o *options) {
		o.directory = d
	}
}

// WithMemberTTL sets how long a directory registration stays valid.
// The node re-registers every third of the TTL.
// DEFAULT: 15s
func WithMemberTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.memberTTL = ttl
	}
}

// WithLogger sets the logger for the node.
// If the logger is nil, the node will use a no-op logger.
// DEFAULT: A no-op logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = discardLogger()
			return
		}

		o.logger = logger
	}
}
