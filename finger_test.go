package chordring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerTable(t *testing.T) {
	var (
		info = func(id ID) NodeInfo {
			return NodeInfo{ID: id, Addr: "node-" + string(rune('a'+id))}
		}
	)

	t.Run("should build entries for a ring of one", func(t *testing.T) {
		// Arrange
		var self = info(1)

		// Act
		var sut = newFingerTable(self, 3)

		// Assert
		require.Len(t, sut.entries, 3)
		assert.Equal(t, ID(2), sut.entry(1).Start)
		assert.Equal(t, ID(3), sut.entry(2).Start)
		assert.Equal(t, ID(5), sut.entry(3).Start)
		assert.Equal(t, ID(1), sut.entry(3).Interval.End, "last entry should close the ring")
		for i := 1; i <= 3; i++ {
			assert.Equal(t, self, sut.entry(i).Node)
		}
		assert.Equal(t, self, sut.successor())
	})

	t.Run("interval lengths should double", func(t *testing.T) {
		for n := ID(0); n < 16; n++ {
			var sut = newFingerTable(info(n), 4)
			for i := 1; i < 4; i++ {
				assert.Equal(t, uint64(1)<<uint(i-1), sut.entry(i).Interval.Len())
			}
			var (
				last    = sut.entry(4).Interval
				covered = uint64(0)
			)
			for i := 1; i <= 4; i++ {
				covered += sut.entry(i).Interval.Len()
			}
			assert.Equal(t, n, last.End, "last entry should end at n")
			assert.Equal(t, uint64(15), covered, "entries should cover the ring except n")
		}
	})

	t.Run("should return self when no finger precedes the target", func(t *testing.T) {
		// Arrange
		var sut = newFingerTable(info(1), 3)

		// Act
		var got = sut.closestPrecedingFinger(6)

		// Assert
		assert.Equal(t, info(1), got)
	})

	t.Run("should pick the widest finger preceding the target", func(t *testing.T) {
		// Arrange
		var sut = newFingerTable(info(0), 3)
		sut.setNode(1, info(1))
		sut.setNode(2, info(3))
		sut.setNode(3, info(6))

		// Act & Assert
		assert.Equal(t, info(6), sut.closestPrecedingFinger(7))
		assert.Equal(t, info(3), sut.closestPrecedingFinger(6))
		assert.Equal(t, info(1), sut.closestPrecedingFinger(2))
		assert.Equal(t, info(0), sut.closestPrecedingFinger(1))
	})

	t.Run("closest preceding finger should be idempotent", func(t *testing.T) {
		// Arrange
		var sut = newFingerTable(info(3), 3)
		sut.setNode(1, info(6))
		sut.setNode(2, info(6))
		sut.setNode(3, info(0))

		// Act
		var first = sut.closestPrecedingFinger(2)
		var second = sut.closestPrecedingFinger(2)

		// Assert
		assert.Equal(t, first, second)
		assert.Equal(t, info(0), first)
	})

	t.Run("should learn a closer successor from an observed peer", func(t *testing.T) {
		// Arrange
		var sut = newFingerTable(info(1), 3)

		// Act
		var changed = sut.observe(info(5))

		// Assert
		assert.Equal(t, 3, changed)
		assert.Equal(t, info(5), sut.entry(1).Node)
		assert.Equal(t, info(5), sut.entry(2).Node)
		assert.Equal(t, info(5), sut.entry(3).Node)
	})

	t.Run("should keep fingers that are already closer", func(t *testing.T) {
		// Arrange
		var sut = newFingerTable(info(0), 3)
		sut.observe(info(6))

		// Act
		var changed = sut.observe(info(3))

		// Assert
		assert.Equal(t, 2, changed)
		assert.Equal(t, info(3), sut.entry(1).Node)
		assert.Equal(t, info(3), sut.entry(2).Node)
		assert.Equal(t, info(6), sut.entry(3).Node)
		assert.Equal(t, 0, sut.observe(info(6)))
	})

	t.Run("should ignore self and empty peers", func(t *testing.T) {
		var sut = newFingerTable(info(2), 3)
		assert.Equal(t, 0, sut.observe(info(2)))
		assert.Equal(t, 0, sut.observe(NodeInfo{}))
	})

	t.Run("should print the table", func(t *testing.T) {
		var sut = newFingerTable(info(0), 3)
		sut.observe(info(3))

		var output = sut.String()

		assert.Contains(t, output, "m=3")
		assert.Contains(t, output, "[4, 0)")
		t.Logf("\n%s", output)
	})
}
