package protocol

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReqRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReq(&buf, ActionStatus))

	req, err := ReadReq(&buf)
	require.NoError(t, err)
	assert.Equal(t, ActionStatus, req.Action)
}

func TestSuccessResRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	extras := map[string]string{"fps": "12.5", "frames": "1000"}
	require.NoError(t, WriteSuccessRes(&buf, extras))

	res, err := ReadRes(&buf)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Empty(t, res.Error)
	assert.Equal(t, extras, res.Extras)
}

func TestErrorResRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteErrorRes(&buf, errors.New("no identity recognized yet")))

	res, err := ReadRes(&buf)
	require.NoError(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "no identity recognized yet", res.Error)
}
