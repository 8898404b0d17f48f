package display

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
)

// Annotate draws the detection rectangle and the FPS label over a
// grayscale frame and returns the annotated color image. The frame is
// mirrored so the preview behaves like a mirror.
func Annotate(frame *image.Gray, faceRect *image.Rectangle, label string) image.Image {
	mirrored := Mirror(frame)
	dc := gg.NewContextForImage(mirrored)

	if faceRect != nil {
		r := mirrorRect(*faceRect, frame.Bounds().Dx())
		dc.SetRGB255(255, 0, 255)
		dc.SetLineWidth(2)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()
	}

	if label != "" {
		dc.SetRGB255(255, 0, 0)
		dc.DrawString(label, 2, 14)
	}

	return dc.Image()
}

// Mirror flips a grayscale image horizontally.
func Mirror(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			dstRow[w-1-x] = srcRow[x]
		}
	}
	return dst
}

func mirrorRect(r image.Rectangle, width int) image.Rectangle {
	return image.Rect(width-r.Max.X, r.Min.Y, width-r.Min.X, r.Max.Y)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, errors.Wrap(err, "can not encode frame")
	}
	return buf.Bytes(), nil
}
