package capture

import (
	"image"
	"time"
)

// Frame is a single grayscale camera frame. Buffer holds one byte per
// pixel in row-major order.
type Frame struct {
	Buffer []byte
	Width  int
	Height int
	Seq    uint64
	Time   time.Time
}

// Gray wraps the frame buffer as an image without copying it.
func (f *Frame) Gray() *image.Gray {
	return &image.Gray{
		Pix:    f.Buffer,
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// yuyvToGray extracts the luma plane from a packed YUYV buffer.
func yuyvToGray(src []byte, dst []byte) []byte {
	n := len(src) / 2
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = src[2*i]
	}
	return dst
}
