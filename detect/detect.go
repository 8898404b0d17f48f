// Package detect finds the dominant face in a grayscale frame using the
// pigo cascade classifier, and localizes eye landmarks with its puploc
// cascade.
package detect

import (
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// Face is a single detection, already clustered.
type Face struct {
	Rect  image.Rectangle
	Scale int
	Q     float32
}

// Option configures the detector.
type Option struct {
	CascadeFile string
	// AreaThreshold is the minimal face area relative to the frame area.
	// Smaller faces are ignored.
	AreaThreshold float64
	// MinQuality is the minimal cascade score for a detection to count.
	MinQuality float32
}

// Detector wraps an unpacked pigo classifier. It is not safe for
// concurrent use; the inference loop owns it.
type Detector struct {
	classifier    *pigo.Pigo
	areaThreshold float64
	minQuality    float32
}

// NewDetector reads and unpacks the cascade file.
func NewDetector(opt *Option) (*Detector, error) {
	cascade, err := os.ReadFile(opt.CascadeFile)
	if err != nil {
		return nil, errors.Wrap(err, "can not read cascade file")
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, errors.Wrap(err, "can not unpack cascade file")
	}

	if opt.MinQuality == 0 {
		opt.MinQuality = 5.0
	}

	return &Detector{
		classifier:    classifier,
		areaThreshold: opt.AreaThreshold,
		minQuality:    opt.MinQuality,
	}, nil
}

// Detect runs the cascade over the frame and returns the largest face, or
// nil when no face passes the quality and area thresholds.
func (d *Detector) Detect(pixels []uint8, width, height int) *Face {
	minSize := 20
	maxSize := width
	if height < maxSize {
		maxSize = height
	}

	cParams := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,

		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   height,
			Cols:   width,
			Dim:    width,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	faces := make([]Face, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.minQuality {
			continue
		}
		faces = append(faces, Face{
			Rect:  detRect(det),
			Scale: det.Scale,
			Q:     det.Q,
		})
	}

	best := largest(faces)
	if best == nil {
		return nil
	}
	if areaRatio(best.Rect, width, height) < d.areaThreshold {
		return nil
	}
	return best
}

func detRect(det pigo.Detection) image.Rectangle {
	half := det.Scale / 2
	return image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half)
}

func largest(faces []Face) *Face {
	var best *Face
	for i := range faces {
		if best == nil || size(faces[i].Rect) > size(best.Rect) {
			best = &faces[i]
		}
	}
	return best
}

func size(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

func areaRatio(r image.Rectangle, width, height int) float64 {
	if width == 0 || height == 0 {
		return 0
	}
	return float64(size(r)) / float64(width*height)
}
