package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nautilusPrime/deeplens-facerec/display"
	"github.com/nautilusPrime/deeplens-facerec/recognize"
	"github.com/nautilusPrime/deeplens-facerec/stats"
)

func testServer(t *testing.T, identity IdentitySource) *Server {
	t.Helper()

	meter := stats.NewMeter(time.Second)
	t.Cleanup(meter.Stop)

	disp, err := display.New("360p")
	require.NoError(t, err)
	t.Cleanup(disp.Close)

	if identity == nil {
		identity = func() (recognize.Identity, time.Time, bool) {
			return recognize.Identity{}, time.Time{}, false
		}
	}
	return New(meter, disp, identity)
}

func TestStatus(t *testing.T) {
	s := testServer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "fps")
	assert.Contains(t, body, "frames")
	assert.Contains(t, body, "uptime")
}

func TestIdentityNotSeen(t *testing.T) {
	s := testServer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/identity", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdentitySeen(t *testing.T) {
	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := testServer(t, func() (recognize.Identity, time.Time, bool) {
		return recognize.Identity{Label: "boss", Class: 2}, seen, true
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/identity", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Label   string `json:"label"`
		Class   int    `json:"class"`
		Unknown bool   `json:"unknown"`
		SeenAt  string `json:"seen_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "boss", body.Label)
	assert.Equal(t, 2, body.Class)
	assert.False(t, body.Unknown)
	assert.Equal(t, "2024-05-01T12:00:00Z", body.SeenAt)
}
