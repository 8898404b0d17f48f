package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualizeHistStretchesRange(t *testing.T) {
	// a dim two-level image gets stretched to the full range
	pixels := make([]uint8, 256)
	for i := range pixels {
		if i%2 == 0 {
			pixels[i] = 100
		} else {
			pixels[i] = 110
		}
	}

	EqualizeHist(pixels)

	for i, p := range pixels {
		if i%2 == 0 {
			assert.Equal(t, uint8(0), p)
		} else {
			assert.Equal(t, uint8(255), p)
		}
	}
}

func TestEqualizeHistFlatImage(t *testing.T) {
	pixels := []uint8{42, 42, 42, 42}
	EqualizeHist(pixels)
	// nothing to equalize
	assert.Equal(t, []uint8{42, 42, 42, 42}, pixels)
}

func TestEqualizeHistEmpty(t *testing.T) {
	assert.NotPanics(t, func() { EqualizeHist(nil) })
}

func TestEqualizeHistPreservesOrder(t *testing.T) {
	pixels := []uint8{10, 50, 90, 130, 170, 210}
	EqualizeHist(pixels)

	for i := 1; i < len(pixels); i++ {
		assert.LessOrEqual(t, pixels[i-1], pixels[i])
	}
	assert.Equal(t, uint8(255), pixels[len(pixels)-1])
}
