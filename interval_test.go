package chordring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterval(t *testing.T) {
	const bits = 3

	t.Run("should contain ids of a plain range", func(t *testing.T) {
		// Arrange
		var sut = Interval{Start: 1, End: 4, Bits: bits}

		// Act & Assert
		assert.True(t, sut.Contains(1))
		assert.True(t, sut.Contains(3))
		assert.False(t, sut.Contains(4))
		assert.False(t, sut.Contains(0))
		assert.Equal(t, uint64(3), sut.Len())
	})

	t.Run("should wrap around zero", func(t *testing.T) {
		// Arrange
		var sut = Interval{Start: 6, End: 2, Bits: bits}

		// Act & Assert
		for _, id := range []ID{6, 7, 0, 1} {
			assert.True(t, sut.Contains(id), "id %d should be inside", id)
		}
		for _, id := range []ID{2, 3, 4, 5} {
			assert.False(t, sut.Contains(id), "id %d should be outside", id)
		}
		assert.Equal(t, uint64(4), sut.Len())
	})

	t.Run("should treat equal bounds as the full ring", func(t *testing.T) {
		for a := ID(0); a < 8; a++ {
			var sut = Interval{Start: a, End: a, Bits: bits}
			for x := ID(0); x < 8; x++ {
				assert.True(t, sut.Contains(x))
			}
			assert.Equal(t, uint64(8), sut.Len())
		}
	})

	t.Run("should always contain its start", func(t *testing.T) {
		for a := ID(0); a < 8; a++ {
			for b := ID(0); b < 8; b++ {
				if a == b {
					continue
				}
				var sut = Interval{Start: a, End: b, Bits: bits}
				assert.True(t, sut.Contains(a), "[%d, %d) should contain %d", a, b, a)
				assert.False(t, sut.Contains(b), "[%d, %d) should not contain %d", a, b, b)
			}
		}
	})

	t.Run("membership count should match length", func(t *testing.T) {
		for a := ID(0); a < 8; a++ {
			for b := ID(0); b < 8; b++ {
				var (
					sut   = Interval{Start: a, End: b, Bits: bits}
					count uint64
				)
				for x := ID(0); x < 8; x++ {
					if sut.Contains(x) {
						count++
					}
				}
				assert.Equal(t, sut.Len(), count)
			}
		}
	})
}

func TestBetween(t *testing.T) {
	t.Run("open interval excludes both ends", func(t *testing.T) {
		assert.True(t, between(3, 1, 5))
		assert.False(t, between(1, 1, 5))
		assert.False(t, between(5, 1, 5))
	})

	t.Run("open interval wraps", func(t *testing.T) {
		assert.True(t, between(7, 5, 1))
		assert.True(t, between(0, 5, 1))
		assert.False(t, between(1, 5, 1))
		assert.False(t, between(3, 5, 1))
	})

	t.Run("open interval with equal ends is everything but the end", func(t *testing.T) {
		assert.False(t, between(4, 4, 4))
		assert.True(t, between(5, 4, 4))
		assert.True(t, between(0, 4, 4))
	})

	t.Run("right inclusive interval", func(t *testing.T) {
		assert.True(t, betweenRightIncl(5, 1, 5))
		assert.False(t, betweenRightIncl(1, 1, 5))
		assert.True(t, betweenRightIncl(1, 5, 1))
		assert.True(t, betweenRightIncl(5, 5, 5))
		assert.True(t, betweenRightIncl(2, 5, 5))
	})

	t.Run("addition wraps at the ring size", func(t *testing.T) {
		assert.Equal(t, ID(1), addID(7, 2, 3))
		assert.Equal(t, ID(0), addID(4, 4, 3))
	})
}
