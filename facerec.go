// Package facerec runs the device-side face recognition loop: it pulls
// frames from the camera stream, detects a face, accumulates a short batch
// of face crops and hands them to the recognition stage, which answers
// with an identity label.
package facerec

import (
	"context"
	"image"
	"time"

	goface "github.com/Kagami/go-face"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nautilusPrime/deeplens-facerec/capture"
	"github.com/nautilusPrime/deeplens-facerec/detect"
	"github.com/nautilusPrime/deeplens-facerec/recognize"
	"github.com/nautilusPrime/deeplens-facerec/stats"
)

// Detector finds the dominant face in a grayscale frame.
type Detector interface {
	Detect(pixels []uint8, width, height int) *detect.Face
}

// Predictor localizes landmarks inside a detected face.
type Predictor interface {
	Predict(face *detect.Face, pixels []uint8, width, height int) *detect.Landmarks
}

// Recognizer embeds face crops and classifies the batch.
type Recognizer interface {
	Embed(crops []image.Image) ([]goface.Descriptor, error)
	Infer(descriptors []goface.Descriptor) recognize.Identity
}

// Sink receives the annotated preview frame.
type Sink interface {
	SetFrame(img image.Image) error
}

// IdentityFunc is called once per completed batch with the inferred
// identity and the length of the consecutive-detection sequence that
// produced it.
type IdentityFunc func(identity recognize.Identity, sequence int)

// Options wires the loop together. Detector, Predictor and Recognizer are
// required; Display, Meter and OnIdentity are optional.
type Options struct {
	Detector   Detector
	Predictor  Predictor
	Recognizer Recognizer
	Display    Sink
	Meter      *stats.Meter
	Log        *logrus.Logger

	// FrameSkip processes only every Nth frame; every frame still counts
	// toward FPS.
	FrameSkip int
	// BatchSize is the number of accumulated crops that triggers
	// recognition.
	BatchSize int

	OnIdentity IdentityFunc
}

// Loop is the inference loop state. Accumulated crops and landmarks are
// reset whenever face detection is discontinuous across processed frames.
type Loop struct {
	opt Options
	log *logrus.Logger

	sequence  int
	crops     []image.Image
	landmarks []*detect.Landmarks
}

// New validates the options and creates a loop.
func New(opt Options) (*Loop, error) {
	if opt.Detector == nil || opt.Predictor == nil || opt.Recognizer == nil {
		return nil, errors.New("detector, predictor and recognizer are required")
	}
	if opt.FrameSkip < 1 {
		opt.FrameSkip = 1
	}
	if opt.BatchSize < 1 {
		opt.BatchSize = 1
	}
	if opt.Log == nil {
		opt.Log = logrus.StandardLogger()
	}

	return &Loop{opt: opt, log: opt.Log}, nil
}

// Run consumes the frame stream until it is closed or the context is
// canceled. Errors from the recognition stage abort the loop.
func (l *Loop) Run(ctx context.Context, frames <-chan *capture.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if err := l.process(frame); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) process(frame *capture.Frame) error {
	if l.opt.Meter != nil {
		l.opt.Meter.Tick()
	}

	if frame.Seq%uint64(l.opt.FrameSkip) != 0 {
		return nil
	}

	detect.EqualizeHist(frame.Buffer)

	face := l.opt.Detector.Detect(frame.Buffer, frame.Width, frame.Height)
	if face == nil {
		l.startOver()
	} else {
		l.sequence++

		landmarks := l.opt.Predictor.Predict(face, frame.Buffer, frame.Width, frame.Height)
		if landmarks != nil {
			l.crops = append(l.crops, cropFace(frame.Gray(), face.Rect))
			l.landmarks = append(l.landmarks, landmarks)
		}

		if len(l.crops) >= l.opt.BatchSize {
			if err := l.recognizeBatch(); err != nil {
				return err
			}
			l.startOver()
		}
	}

	return l.preview(frame, face)
}

func (l *Loop) recognizeBatch() error {
	start := time.Now()

	descriptors, err := l.opt.Recognizer.Embed(l.crops)
	if err != nil {
		return errors.Wrap(err, "batch embedding failed")
	}
	identity := l.opt.Recognizer.Infer(descriptors)

	l.log.WithFields(logrus.Fields{
		"identity": identity.Label,
		"class":    identity.Class,
		"batch":    len(l.crops),
		"sequence": l.sequence,
		"runtime":  time.Since(start),
	}).Info("batch recognized")

	if l.opt.OnIdentity != nil {
		l.opt.OnIdentity(identity, l.sequence)
	}
	return nil
}

func (l *Loop) preview(frame *capture.Frame, face *detect.Face) error {
	if l.opt.Display == nil {
		return nil
	}

	var rect *image.Rectangle
	if face != nil {
		rect = &face.Rect
	}

	label := ""
	if l.opt.Meter != nil {
		label = fpsLabel(l.opt.Meter.Rate())
	}

	img := annotate(frame.Gray(), rect, label)
	return l.opt.Display.SetFrame(img)
}

// startOver resets the accumulation state. Called when no face was
// detected in a processed frame and after every completed batch.
func (l *Loop) startOver() {
	l.sequence = 0
	l.crops = nil
	l.landmarks = nil
}

// Sequence returns the current consecutive-detection count.
func (l *Loop) Sequence() int {
	return l.sequence
}

// Pending returns the number of accumulated, not yet recognized crops.
func (l *Loop) Pending() int {
	return len(l.crops)
}
