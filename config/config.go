// Package config loads the appliance configuration from a JSON file with
// environment overrides.
package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const DefaultPath = "/etc/facerec/config.json"

type Config struct {
	// Camera
	Device    string `json:"device" validate:"required"`
	CamWidth  uint32 `json:"cam_width" validate:"gt=0"`
	CamHeight uint32 `json:"cam_height" validate:"gt=0"`

	// Inference loop
	FrameSkip            int     `json:"frame_skip" validate:"gte=1"`
	BatchSize            int     `json:"batch_size" validate:"gte=1"`
	FaceAreaThreshold    float64 `json:"face_area_threshold" validate:"gte=0,lte=1"`
	RecognitionThreshold float64 `json:"recognition_threshold" validate:"gt=0,lte=1"`
	UnknownClass         int     `json:"unknown_class"`
	FPSInterval          int     `json:"fps_interval" validate:"gte=1"`

	// Models
	CascadeFile string `json:"cascade_file" validate:"required"`
	PuplocFile  string `json:"puploc_file" validate:"required"`
	ModelsDir   string `json:"models_dir" validate:"required"`
	SamplesFile string `json:"samples_file"`

	// Preview
	Resolution string `json:"resolution" validate:"oneof=1080p 720p 480p 360p"`
	FifoPath   string `json:"fifo_path"`

	// Daemon
	Socket   string `json:"socket"`
	PidFile  string `json:"pid_file"`
	HTTPAddr string `json:"http_addr"`
	LogFile  string `json:"log_file"`
	// CPUCore pins the inference loop to a core when set.
	CPUCore *int `json:"cpu_core,omitempty"`
}

// Load reads the config file at path (or DefaultPath when empty), applies
// FACEREC_* environment overrides and defaults, and validates the result.
// A missing config file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FACEREC_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	conf := &Config{}
	if err := loadFromFile(path, conf); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, err
	}

	applyEnv(conf)
	applyDefaults(conf)

	if err := validator.New().Struct(conf); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return conf, nil
}

func loadFromFile(path string, conf *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "can not open config file")
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(conf); err != nil {
		return errors.Wrap(err, "can not parse config file")
	}
	return nil
}

func applyEnv(conf *Config) {
	setString(&conf.Device, "FACEREC_DEVICE")
	setString(&conf.CascadeFile, "FACEREC_CASCADE_FILE")
	setString(&conf.PuplocFile, "FACEREC_PUPLOC_FILE")
	setString(&conf.ModelsDir, "FACEREC_MODELS_DIR")
	setString(&conf.SamplesFile, "FACEREC_SAMPLES_FILE")
	setString(&conf.Resolution, "FACEREC_RESOLUTION")
	setString(&conf.FifoPath, "FACEREC_FIFO")
	setString(&conf.Socket, "FACEREC_SOCKET")
	setString(&conf.PidFile, "FACEREC_PID_FILE")
	setString(&conf.HTTPAddr, "FACEREC_HTTP_ADDR")
	setString(&conf.LogFile, "FACEREC_LOG_FILE")
	setInt(&conf.FrameSkip, "FACEREC_FRAME_SKIP")
	setInt(&conf.BatchSize, "FACEREC_BATCH_SIZE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyDefaults(conf *Config) {
	if conf.Device == "" {
		conf.Device = "/dev/video0"
	}
	if conf.CamWidth == 0 {
		conf.CamWidth = 640
	}
	if conf.CamHeight == 0 {
		conf.CamHeight = 480
	}
	if conf.FrameSkip == 0 {
		conf.FrameSkip = 5
	}
	if conf.BatchSize == 0 {
		conf.BatchSize = 1
	}
	if conf.FaceAreaThreshold == 0 {
		conf.FaceAreaThreshold = 0.25
	}
	if conf.RecognitionThreshold == 0 {
		conf.RecognitionThreshold = 0.25
	}
	if conf.UnknownClass == 0 {
		conf.UnknownClass = -1
	}
	if conf.FPSInterval == 0 {
		conf.FPSInterval = 5
	}
	if conf.CascadeFile == "" {
		conf.CascadeFile = "/usr/share/facerec/cascade/facefinder"
	}
	if conf.PuplocFile == "" {
		conf.PuplocFile = "/usr/share/facerec/cascade/puploc"
	}
	if conf.ModelsDir == "" {
		conf.ModelsDir = "/usr/share/facerec/models"
	}
	if conf.Resolution == "" {
		conf.Resolution = "480p"
	}
	if conf.FifoPath == "" {
		conf.FifoPath = "/tmp/results.mjpeg"
	}
	if conf.Socket == "" {
		conf.Socket = "/var/run/facerec.sock"
	}
	if conf.PidFile == "" {
		conf.PidFile = "/var/run/facerec.pid"
	}
}
