package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "/dev/video0", conf.Device)
	assert.Equal(t, 5, conf.FrameSkip)
	assert.Equal(t, 1, conf.BatchSize)
	assert.Equal(t, 0.25, conf.FaceAreaThreshold)
	assert.Equal(t, 0.25, conf.RecognitionThreshold)
	assert.Equal(t, -1, conf.UnknownClass)
	assert.Equal(t, "480p", conf.Resolution)
	assert.Equal(t, "/tmp/results.mjpeg", conf.FifoPath)
	assert.Equal(t, 5, conf.FPSInterval)
	assert.Nil(t, conf.CPUCore)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"device": "/dev/video2",
		"frame_skip": 3,
		"batch_size": 10,
		"resolution": "720p",
		"cpu_core": 2
	}`)

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/video2", conf.Device)
	assert.Equal(t, 3, conf.FrameSkip)
	assert.Equal(t, 10, conf.BatchSize)
	assert.Equal(t, "720p", conf.Resolution)
	require.NotNil(t, conf.CPUCore)
	assert.Equal(t, 2, *conf.CPUCore)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"device": "/dev/video2", "frame_skip": 3}`)

	t.Setenv("FACEREC_DEVICE", "/dev/video7")
	t.Setenv("FACEREC_FRAME_SKIP", "9")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/video7", conf.Device)
	assert.Equal(t, 9, conf.FrameSkip)
}

func TestInvalidResolution(t *testing.T) {
	path := writeConfig(t, `{"resolution": "madeup"}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestInvalidFrameSkip(t *testing.T) {
	path := writeConfig(t, `{"frame_skip": -1}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestBrokenJSON(t *testing.T) {
	path := writeConfig(t, `{"device": `)

	_, err := Load(path)
	assert.Error(t, err)
}
