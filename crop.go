package facerec

import (
	"fmt"
	"image"

	"github.com/nautilusPrime/deeplens-facerec/display"
)

// cropFace copies the face region out of the frame, padded by a fifth of
// the rectangle on every side so the embedder sees some context around
// the face.
func cropFace(gray *image.Gray, rect image.Rectangle) *image.Gray {
	pad := rect.Dx() / 5
	padded := image.Rect(rect.Min.X-pad, rect.Min.Y-pad, rect.Max.X+pad, rect.Max.Y+pad)
	padded = padded.Intersect(gray.Bounds())

	crop := image.NewGray(image.Rect(0, 0, padded.Dx(), padded.Dy()))
	for y := 0; y < padded.Dy(); y++ {
		srcOff := (padded.Min.Y+y)*gray.Stride + padded.Min.X
		copy(crop.Pix[y*crop.Stride:y*crop.Stride+padded.Dx()], gray.Pix[srcOff:srcOff+padded.Dx()])
	}
	return crop
}

func fpsLabel(rate float64) string {
	return fmt.Sprintf("FPS:%.0f", rate)
}

func annotate(gray *image.Gray, rect *image.Rectangle, label string) image.Image {
	return display.Annotate(gray, rect, label)
}
