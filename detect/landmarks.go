package detect

import (
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// perturbs is the perturbation factor for pupil localization.
const perturbs = 63

// Landmarks holds the localized eye centers of a detected face. A face
// whose pupils can not be found is not usable for recognition.
type Landmarks struct {
	LeftEye  image.Point
	RightEye image.Point
}

// Predictor localizes pupils inside a face rectangle using the pigo
// puploc cascade.
type Predictor struct {
	cascade *pigo.PuplocCascade
}

// NewPredictor reads and unpacks the puploc cascade file.
func NewPredictor(puplocFile string) (*Predictor, error) {
	raw, err := os.ReadFile(puplocFile)
	if err != nil {
		return nil, errors.Wrap(err, "can not read puploc cascade file")
	}

	cascade, err := pigo.NewPuplocCascade().UnpackCascade(raw)
	if err != nil {
		return nil, errors.Wrap(err, "can not unpack puploc cascade file")
	}

	return &Predictor{cascade: cascade}, nil
}

// Predict returns the eye landmarks for the face, or nil when either
// pupil can not be localized.
func (p *Predictor) Predict(face *Face, pixels []uint8, width, height int) *Landmarks {
	imgParams := pigo.ImageParams{
		Pixels: pixels,
		Rows:   height,
		Cols:   width,
		Dim:    width,
	}

	row := (face.Rect.Min.Y + face.Rect.Max.Y) / 2
	col := (face.Rect.Min.X + face.Rect.Max.X) / 2
	scale := float32(face.Scale)

	left := p.eye(imgParams, row, col, scale, false)
	right := p.eye(imgParams, row, col, scale, true)
	if left == nil || right == nil {
		return nil
	}

	return &Landmarks{LeftEye: *left, RightEye: *right}
}

func (p *Predictor) eye(imgParams pigo.ImageParams, row, col int, scale float32, rightSide bool) *image.Point {
	colShift := -0.185 * scale
	if rightSide {
		colShift = 0.185 * scale
	}

	puploc := pigo.Puploc{
		Row:      row - int(0.085*scale),
		Col:      col + int(colShift),
		Scale:    scale * 0.4,
		Perturbs: perturbs,
	}

	res := p.cascade.RunDetector(puploc, imgParams, 0.0, false)
	if res.Row <= 0 || res.Col <= 0 {
		return nil
	}
	return &image.Point{X: res.Col, Y: res.Row}
}
