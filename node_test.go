package chordring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode(t *testing.T) {
	var (
		newNode = func(t *testing.T, id ID) *Node {
			n, err := NewNode("127.0.0.1:7000", WithRingBits(3), WithIdentifier(id))
			require.NoError(t, err)
			return n
		}
	)

	t.Run("should create node with identity from its address", func(t *testing.T) {
		// Arrange & Act
		sut, err := NewNode("127.0.0.1:7000")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, HashToID("127.0.0.1:7000", 32), sut.ID())
		assert.Equal(t, "127.0.0.1:7000", sut.Self().Addr)
		assert.Equal(t, sut.Self(), sut.Successor())
		assert.False(t, sut.Joined())
		_, found := sut.Predecessor()
		assert.False(t, found)
	})

	t.Run("should reject invalid configuration", func(t *testing.T) {
		var cases = map[string][]Option{
			"zero bits":         {WithRingBits(0)},
			"too many bits":     {WithRingBits(64)},
			"id outside ring":   {WithRingBits(3), WithIdentifier(8)},
			"zero timeout":      {WithCallTimeout(0)},
			"zero pool":         {WithMaxConcurrentRequests(0)},
			"zero hops":         {WithMaxHops(0)},
			"negative interval": {WithStabilizeInterval(-1)},
		}
		for name, opts := range cases {
			_, err := NewNode("127.0.0.1:7000", opts...)
			assert.Error(t, err, name)
		}

		_, err := NewNode("no-port", WithRingBits(8))
		assert.Error(t, err)
	})

	t.Run("should accept first notify", func(t *testing.T) {
		// Arrange
		var sut = newNode(t, 5)

		// Act
		var accepted = sut.Notify(NodeInfo{ID: 1, Addr: "127.0.0.1:7001"})

		// Assert
		assert.True(t, accepted)
		predecessor, found := sut.Predecessor()
		require.True(t, found)
		assert.Equal(t, ID(1), predecessor.ID)
	})

	t.Run("should accept closer predecessor and reject farther one", func(t *testing.T) {
		// Arrange
		var sut = newNode(t, 5)
		sut.Notify(NodeInfo{ID: 1, Addr: "127.0.0.1:7001"})

		// Act
		var closer = sut.Notify(NodeInfo{ID: 3, Addr: "127.0.0.1:7003"})
		var farther = sut.Notify(NodeInfo{ID: 2, Addr: "127.0.0.1:7002"})

		// Assert
		assert.True(t, closer)
		assert.False(t, farther)
		predecessor, _ := sut.Predecessor()
		assert.Equal(t, ID(3), predecessor.ID)
	})

	t.Run("should accept predecessor across zero", func(t *testing.T) {
		// Arrange
		var sut = newNode(t, 1)
		sut.Notify(NodeInfo{ID: 5, Addr: "127.0.0.1:7005"})

		// Act
		var accepted = sut.Notify(NodeInfo{ID: 7, Addr: "127.0.0.1:7007"})

		// Assert
		assert.True(t, accepted)
		predecessor, _ := sut.Predecessor()
		assert.Equal(t, ID(7), predecessor.ID)
	})

	t.Run("should ignore notify from itself", func(t *testing.T) {
		var sut = newNode(t, 5)
		assert.False(t, sut.Notify(sut.Self()))
		assert.False(t, sut.Notify(NodeInfo{}))
	})

	t.Run("should reject lookups outside the ring", func(t *testing.T) {
		var sut = newNode(t, 5)
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		_, err := sut.Lookup(ctx, 8)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})

	t.Run("should expose closest preceding finger", func(t *testing.T) {
		// Arrange
		var sut = newNode(t, 0)
		sut.fingers.setNode(3, NodeInfo{ID: 6, Addr: "127.0.0.1:7006"})

		// Act & Assert
		assert.Equal(t, ID(6), sut.ClosestPrecedingFinger(7).ID)
		assert.Equal(t, ID(6), sut.ClosestPrecedingFinger(7).ID, "repeated calls should agree")
		assert.Equal(t, ID(0), sut.ClosestPrecedingFinger(5).ID)
	})

	t.Run("should print node state", func(t *testing.T) {
		var sut = newNode(t, 5)
		var output = sut.String()
		assert.Contains(t, output, "STANDALONE")
		assert.Contains(t, output, "Predecessor: <unset>")
		t.Logf("\n%s", output)
	})
}
