// Package display keeps the latest annotated preview frame as JPEG and
// streams it to a named pipe for an external player, e.g.
//
//	mplayer -demuxer lavf -lavfdopts format=mjpeg:probesize=32 /tmp/results.mjpeg
package display

import (
	"image"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Resolutions are the supported preview stream sizes.
var Resolutions = map[string]image.Point{
	"1080p": {X: 1920, Y: 1080},
	"720p":  {X: 1280, Y: 720},
	"480p":  {X: 858, Y: 480},
	"360p":  {X: 640, Y: 360},
}

// Display holds the most recent preview frame, encoded as JPEG. Producers
// call SetFrame, consumers read Frame or attach via ServeFIFO.
type Display struct {
	width  int
	height int

	mu    sync.RWMutex
	frame []byte

	notify   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a display for the given resolution preset.
func New(resolution string) (*Display, error) {
	size, ok := Resolutions[resolution]
	if !ok {
		return nil, errors.Errorf("invalid resolution %q", resolution)
	}

	return &Display{
		width:  size.X,
		height: size.Y,
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}, nil
}

// SetFrame scales the image to the preview resolution, encodes it and
// publishes it as the latest frame.
func (d *Display) SetFrame(img image.Image) error {
	dc := gg.NewContext(d.width, d.height)
	bounds := img.Bounds()
	if bounds.Dx() > 0 && bounds.Dy() > 0 {
		dc.Scale(float64(d.width)/float64(bounds.Dx()), float64(d.height)/float64(bounds.Dy()))
	}
	dc.DrawImage(img, 0, 0)

	buf, err := encodeJPEG(dc.Image())
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.frame = buf
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
	return nil
}

// Frame returns a copy of the latest encoded frame, or nil when no frame
// has been published yet.
func (d *Display) Frame() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.frame == nil {
		return nil
	}
	buf := make([]byte, len(d.frame))
	copy(buf, d.frame)
	return buf
}

// ServeFIFO writes every published frame to the named pipe at path,
// creating it when missing. It blocks until Close is called or the pipe
// write fails hard. Opening O_RDWR keeps the open from blocking while no
// player is attached.
func (d *Display) ServeFIFO(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := unix.Mkfifo(path, 0644); err != nil && err != unix.EEXIST {
			return errors.Wrap(err, "can not create fifo")
		}
	}

	fifo, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return errors.Wrap(err, "can not open fifo")
	}
	defer fifo.Close()

	for {
		select {
		case <-d.stop:
			return nil
		case <-d.notify:
		}

		frame := d.Frame()
		if frame == nil {
			continue
		}
		if _, err := fifo.Write(frame); err != nil {
			// player went away; wait for the next one
			if errors.Is(err, unix.EPIPE) {
				continue
			}
			return errors.Wrap(err, "fifo write failed")
		}
	}
}

// Close stops ServeFIFO.
func (d *Display) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
}
