package recognize

import (
	"encoding/json"
	"os"

	"github.com/Kagami/go-face"
	"github.com/pkg/errors"
)

// Sample is one labeled face descriptor on disk.
type Sample struct {
	Label      string          `json:"label"`
	Descriptor face.Descriptor `json:"descriptor"`
}

// LoadSamples reads the labeled descriptor set from a JSON file.
func LoadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "can not open samples file")
	}
	defer f.Close()

	var samples []Sample
	if err := json.NewDecoder(f).Decode(&samples); err != nil {
		return nil, errors.Wrap(err, "can not decode samples file")
	}
	return samples, nil
}

// SaveSamples writes the labeled descriptor set to a JSON file.
func SaveSamples(path string, samples []Sample) error {
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return errors.Wrap(err, "can not encode samples")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "can not write samples file")
	}
	return nil
}
