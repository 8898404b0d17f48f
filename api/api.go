// Package api exposes loop status and the MJPEG preview over HTTP.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nautilusPrime/deeplens-facerec/display"
	"github.com/nautilusPrime/deeplens-facerec/recognize"
	"github.com/nautilusPrime/deeplens-facerec/stats"
)

const streamBoundary = "frame"

// IdentitySource reports the last recognized identity, its timestamp and
// whether one has been seen at all.
type IdentitySource func() (recognize.Identity, time.Time, bool)

// Server answers status queries and streams the preview.
type Server struct {
	meter    *stats.Meter
	display  *display.Display
	identity IdentitySource
}

func New(meter *stats.Meter, disp *display.Display, identity IdentitySource) *Server {
	return &Server{
		meter:    meter,
		display:  disp,
		identity: identity,
	}
}

// Router builds the gin engine with CORS open for local dashboards.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/api/status", s.status)
	r.GET("/api/identity", s.lastIdentity)
	r.GET("/stream", s.stream)
	return r
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fps":     s.meter.Rate(),
		"avg_fps": s.meter.Avg(),
		"frames":  s.meter.Frames(),
		"uptime":  s.meter.Uptime().Round(time.Second).String(),
	})
}

func (s *Server) lastIdentity(c *gin.Context) {
	identity, seen, ok := s.identity()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no identity recognized yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"label":   identity.Label,
		"class":   identity.Class,
		"unknown": identity.Unknown(),
		"seen_at": seen.UTC().Format(time.RFC3339),
	})
}

// stream serves the preview as multipart MJPEG, the format browsers render
// natively in an <img> tag.
func (s *Server) stream(c *gin.Context) {
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}

		frame := s.display.Frame()
		if frame == nil {
			continue
		}

		_, err := fmt.Fprintf(c.Writer, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %s\r\n\r\n",
			streamBoundary, strconv.Itoa(len(frame)))
		if err != nil {
			return
		}
		if _, err := c.Writer.Write(frame); err != nil {
			return
		}
		if _, err := fmt.Fprint(c.Writer, "\r\n"); err != nil {
			return
		}
		c.Writer.Flush()
	}
}
