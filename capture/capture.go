package capture

import (
	"sync/atomic"
	"time"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
)

const fmtYUYV = webcam.PixelFormat(0x56595559)

// Option configures the camera stream.
type Option struct {
	Device string
	Width  uint32
	Height uint32
}

// Camera streams grayscale frames from a V4L2 device. Frames are pushed
// to a buffered channel from a pump goroutine; when the consumer lags the
// pump drops frames instead of blocking.
type Camera struct {
	frames  chan *Frame
	err     error
	stopped atomic.Bool
	seq     uint64
}

// Open starts streaming from the given device. The returned camera owns a
// pump goroutine that runs until Close is called or the device fails.
func Open(opt *Option) *Camera {
	if opt.Width == 0 {
		opt.Width = 640
	}
	if opt.Height == 0 {
		opt.Height = 480
	}

	c := &Camera{
		frames: make(chan *Frame, 1),
	}

	go func() {
		err := c.pump(opt)
		if err != nil {
			c.err = err
		}
		close(c.frames)
	}()

	return c
}

// Stream returns the frame channel. It is closed when the camera stops.
func (c *Camera) Stream() <-chan *Frame {
	return c.frames
}

// Err reports the pump failure, if any, after Stream is closed.
func (c *Camera) Err() error {
	return c.err
}

// Close stops the pump. Pending frames may still be delivered.
func (c *Camera) Close() {
	c.stopped.Store(true)
}

func (c *Camera) pump(opt *Option) error {
	cam, err := webcam.Open(opt.Device)
	if err != nil {
		return errors.Wrap(err, "can not open device "+opt.Device)
	}
	defer cam.Close()

	_, width, height, err := cam.SetImageFormat(fmtYUYV, opt.Width, opt.Height)
	if err != nil {
		return errors.Wrap(err, "can not set image format")
	}

	err = cam.StartStreaming()
	if err != nil {
		return errors.Wrap(err, "can not start streaming")
	}

	for {
		if c.stopped.Load() {
			return nil
		}

		err = cam.WaitForFrame(1)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			return errors.Wrap(err, "frame wait failed")
		}

		buf, err := cam.ReadFrame()
		if err != nil {
			return errors.Wrap(err, "read frame failed")
		}
		if len(buf) == 0 {
			continue
		}

		c.seq++

		// consumer is still busy with the previous frame
		if len(c.frames) > 0 {
			continue
		}

		gray := yuyvToGray(buf, nil)
		if !hasGoodBlackLevel(gray) {
			continue
		}

		c.frames <- &Frame{
			Buffer: gray,
			Width:  int(width),
			Height: int(height),
			Seq:    c.seq,
			Time:   time.Now(),
		}
	}
}
