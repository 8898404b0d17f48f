// Package recognize computes dlib face descriptors and maps them to known
// identities via go-face.
package recognize

import (
	"bytes"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/pkg/errors"
)

// UnknownLabel is reported when no sample is close enough.
const UnknownLabel = "unknown"

// Identity is the result of classifying a batch of face crops.
type Identity struct {
	Label string
	Class int
}

// Unknown reports whether the identity is the unknown fallback.
func (id Identity) Unknown() bool {
	return id.Label == UnknownLabel
}

// Option configures the recognizer.
type Option struct {
	// ModelsDir holds the dlib model files go-face expects.
	ModelsDir string
	// SamplesFile is the labeled descriptor set to classify against.
	// Optional; without it every face classifies as unknown.
	SamplesFile string
	// Threshold is the maximal descriptor distance for a match.
	Threshold float64
	// UnknownClass is the class reported for unmatched faces.
	UnknownClass int
}

// Recognizer wraps the dlib recognizer together with the loaded sample
// labels. Safe for concurrent use.
type Recognizer struct {
	rec       *face.Recognizer
	threshold float32
	unknown   int

	mu         sync.RWMutex
	categories []string
}

// NewRecognizer loads the dlib models and the sample set.
func NewRecognizer(opt *Option) (*Recognizer, error) {
	rec, err := face.NewRecognizer(opt.ModelsDir)
	if err != nil {
		return nil, errors.Wrap(err, "can not initialize dlib recognizer")
	}

	r := &Recognizer{
		rec:       rec,
		threshold: float32(opt.Threshold),
		unknown:   opt.UnknownClass,
	}

	if opt.SamplesFile != "" {
		if err := r.ReloadSamples(opt.SamplesFile); err != nil {
			rec.Close()
			return nil, err
		}
	}

	return r, nil
}

// Close releases the dlib resources.
func (r *Recognizer) Close() {
	r.rec.Close()
}

// ReloadSamples replaces the classification set from a samples file.
func (r *Recognizer) ReloadSamples(path string) error {
	samples, err := LoadSamples(path)
	if err != nil {
		return err
	}

	descriptors := make([]face.Descriptor, len(samples))
	cats := make([]int32, len(samples))
	categories := make([]string, len(samples))
	for i, s := range samples {
		descriptors[i] = s.Descriptor
		cats[i] = int32(i)
		categories[i] = s.Label
	}

	r.mu.Lock()
	r.rec.SetSamples(descriptors, cats)
	r.categories = categories
	r.mu.Unlock()
	return nil
}

// Embed computes a descriptor for each face crop. Crops where dlib can not
// find a face are skipped; embedding fails only on encode errors.
func (r *Recognizer) Embed(crops []image.Image) ([]face.Descriptor, error) {
	descriptors := make([]face.Descriptor, 0, len(crops))
	var buf bytes.Buffer

	for _, crop := range crops {
		buf.Reset()
		if err := jpeg.Encode(&buf, crop, nil); err != nil {
			return nil, errors.Wrap(err, "can not encode face crop")
		}

		f, err := r.rec.RecognizeSingle(buf.Bytes())
		if err != nil {
			return nil, errors.Wrap(err, "can not embed face crop")
		}
		if f == nil {
			continue
		}
		descriptors = append(descriptors, f.Descriptor)
	}

	return descriptors, nil
}

// Infer classifies the batch by the mean of its descriptors. Below the
// distance threshold the unknown identity is returned.
func (r *Recognizer) Infer(descriptors []face.Descriptor) Identity {
	if len(descriptors) == 0 {
		return Identity{Label: UnknownLabel, Class: r.unknown}
	}

	mean := MeanDescriptor(descriptors)

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.rec.ClassifyThreshold(mean, r.threshold)
	if idx < 0 || idx >= len(r.categories) {
		return Identity{Label: UnknownLabel, Class: r.unknown}
	}
	return Identity{Label: r.categories[idx], Class: idx}
}

// EmbedImage computes descriptors for all faces dlib finds in a full
// frame. Used by enrollment, where detection quality matters less than
// descriptor quality.
func (r *Recognizer) EmbedImage(img image.Image) ([]face.Descriptor, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, errors.Wrap(err, "can not encode frame")
	}

	faces, err := r.rec.Recognize(buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "can not recognize frame")
	}

	descriptors := make([]face.Descriptor, len(faces))
	for i, f := range faces {
		descriptors[i] = f.Descriptor
	}
	return descriptors, nil
}

// MeanDescriptor averages a batch of descriptors component-wise.
func MeanDescriptor(descriptors []face.Descriptor) face.Descriptor {
	var mean face.Descriptor
	if len(descriptors) == 0 {
		return mean
	}

	for _, d := range descriptors {
		for i, v := range d {
			mean[i] += v
		}
	}
	n := float32(len(descriptors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
