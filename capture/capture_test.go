package capture

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYUYVToGray(t *testing.T) {
	// Y0 U Y1 V pairs
	src := []byte{10, 128, 20, 128, 30, 128, 40, 128}
	gray := yuyvToGray(src, nil)
	assert.Equal(t, []byte{10, 20, 30, 40}, gray)
}

func TestYUYVToGrayReusesBuffer(t *testing.T) {
	src := []byte{10, 128, 20, 128}
	dst := make([]byte, 0, 16)
	gray := yuyvToGray(src, dst)
	assert.Equal(t, []byte{10, 20}, gray)
	assert.Equal(t, 16, cap(gray), "provided buffer is reused")
}

func TestBlackLevel(t *testing.T) {
	testcases := []struct {
		name string
		img  []byte
		good bool
	}{
		{"empty", nil, false},
		{"all dark", bytes.Repeat([]byte{10}, 100), false},
		{"all bright", bytes.Repeat([]byte{200}, 100), false},
		{"mixed", append(bytes.Repeat([]byte{10}, 30), bytes.Repeat([]byte{200}, 70)...), true},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.good, hasGoodBlackLevel(tc.img), tc.name)
	}
}

func TestFrameGray(t *testing.T) {
	f := &Frame{
		Buffer: []byte{1, 2, 3, 4, 5, 6},
		Width:  3,
		Height: 2,
	}

	gray := f.Gray()
	assert.Equal(t, image.Rect(0, 0, 3, 2), gray.Bounds())
	assert.Equal(t, uint8(4), gray.GrayAt(0, 1).Y)
}
