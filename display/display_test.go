package display

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegMagic = []byte{0xff, 0xd8}

func testImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	return img
}

func TestNewRejectsUnknownResolution(t *testing.T) {
	_, err := New("4k")
	assert.Error(t, err)
}

func TestNewResolutions(t *testing.T) {
	for preset, size := range Resolutions {
		d, err := New(preset)
		require.NoError(t, err, preset)
		assert.Equal(t, size.X, d.width)
		assert.Equal(t, size.Y, d.height)
	}
}

func TestFrameBeforeSet(t *testing.T) {
	d, err := New("360p")
	require.NoError(t, err)

	assert.Nil(t, d.Frame())
}

func TestSetFramePublishesJPEG(t *testing.T) {
	d, err := New("360p")
	require.NoError(t, err)

	require.NoError(t, d.SetFrame(testImage()))

	frame := d.Frame()
	require.NotNil(t, frame)
	assert.True(t, bytes.HasPrefix(frame, jpegMagic), "frame is not a JPEG")
}

func TestFrameReturnsLatest(t *testing.T) {
	d, err := New("360p")
	require.NoError(t, err)

	require.NoError(t, d.SetFrame(testImage()))
	first := d.Frame()

	img := testImage()
	for i := range img.Pix {
		img.Pix[i] = 255 - img.Pix[i]
	}
	require.NoError(t, d.SetFrame(img))

	assert.NotEqual(t, first, d.Frame())
}

func TestFrameReturnsCopy(t *testing.T) {
	d, err := New("360p")
	require.NoError(t, err)
	require.NoError(t, d.SetFrame(testImage()))

	frame := d.Frame()
	frame[0] = 0x00

	assert.True(t, bytes.HasPrefix(d.Frame(), jpegMagic))
}

func TestServeFIFOWritesFrames(t *testing.T) {
	// a regular file stands in for the named pipe
	path := filepath.Join(t.TempDir(), "results.mjpeg")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	d, err := New("360p")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- d.ServeFIFO(path) }()

	require.NoError(t, d.SetFrame(testImage()))

	assert.Eventually(t, func() bool {
		fi, err := os.Stat(path)
		return err == nil && fi.Size() > 0
	}, time.Second, 10*time.Millisecond)

	d.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("fifo writer did not stop")
	}
}
