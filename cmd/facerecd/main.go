package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	facerec "github.com/nautilusPrime/deeplens-facerec"
	"github.com/nautilusPrime/deeplens-facerec/api"
	"github.com/nautilusPrime/deeplens-facerec/capture"
	"github.com/nautilusPrime/deeplens-facerec/config"
	"github.com/nautilusPrime/deeplens-facerec/detect"
	"github.com/nautilusPrime/deeplens-facerec/display"
	"github.com/nautilusPrime/deeplens-facerec/logging"
	"github.com/nautilusPrime/deeplens-facerec/protocol"
	"github.com/nautilusPrime/deeplens-facerec/recognize"
	"github.com/nautilusPrime/deeplens-facerec/stats"
	"github.com/nautilusPrime/deeplens-facerec/utils/thread"
)

// lastIdentity is the most recent batch result, served over the control
// socket and the HTTP API.
type lastIdentity struct {
	mu       sync.RWMutex
	identity recognize.Identity
	seen     time.Time
	ok       bool
}

func (l *lastIdentity) set(identity recognize.Identity, _ int) {
	l.mu.Lock()
	l.identity = identity
	l.seen = time.Now()
	l.ok = true
	l.mu.Unlock()
}

func (l *lastIdentity) get() (recognize.Identity, time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.identity, l.seen, l.ok
}

func main() {
	godotenv.Load()

	conf, err := config.Load("")
	if err != nil {
		logrus.Fatal(err)
	}

	log := logging.New(conf.LogFile)
	if err := serve(conf, log); err != nil {
		log.Fatal(err)
	}
}

func serve(conf *config.Config, log *logrus.Logger) error {
	if isAlreadyRun(conf.PidFile, log) {
		return errors.New("already run")
	}
	if err := writeLockFile(conf.PidFile); err != nil {
		return err
	}
	defer os.Remove(conf.PidFile)

	detector, err := detect.NewDetector(&detect.Option{
		CascadeFile:   conf.CascadeFile,
		AreaThreshold: conf.FaceAreaThreshold,
	})
	if err != nil {
		return errors.Wrap(err, "can not initialize face detector")
	}

	predictor, err := detect.NewPredictor(conf.PuplocFile)
	if err != nil {
		return errors.Wrap(err, "can not initialize landmark predictor")
	}

	recognizer, err := recognize.NewRecognizer(&recognize.Option{
		ModelsDir:    conf.ModelsDir,
		SamplesFile:  conf.SamplesFile,
		Threshold:    conf.RecognitionThreshold,
		UnknownClass: conf.UnknownClass,
	})
	if err != nil {
		return errors.Wrap(err, "can not initialize face recognizer")
	}
	defer recognizer.Close()

	disp, err := display.New(conf.Resolution)
	if err != nil {
		return err
	}
	defer disp.Close()

	meter := stats.NewMeter(time.Duration(conf.FPSInterval) * time.Second)
	defer meter.Stop()

	last := &lastIdentity{}
	loop, err := facerec.New(facerec.Options{
		Detector:   detector,
		Predictor:  predictor,
		Recognizer: recognizer,
		Display:    disp,
		Meter:      meter,
		Log:        log,
		FrameSkip:  conf.FrameSkip,
		BatchSize:  conf.BatchSize,
		OnIdentity: last.set,
	})
	if err != nil {
		return err
	}

	cam := capture.Open(&capture.Option{
		Device: conf.Device,
		Width:  conf.CamWidth,
		Height: conf.CamHeight,
	})
	defer cam.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopErr := make(chan error, 1)
	go func() {
		if conf.CPUCore != nil {
			thread.Pin(*conf.CPUCore)
		}
		loopErr <- runLoop(ctx, loop, cam)
	}()

	go func() {
		if err := disp.ServeFIFO(conf.FifoPath); err != nil {
			log.WithError(err).Error("preview fifo writer stopped")
		}
	}()

	ln, err := listenControl(conf.Socket)
	if err != nil {
		return err
	}
	defer ln.Close()
	go acceptControl(ln, meter, last, log)

	if conf.HTTPAddr != "" {
		server := api.New(meter, disp, last.get)
		go func() {
			if err := http.ListenAndServe(conf.HTTPAddr, server.Router()); err != nil {
				log.WithError(err).Error("http api stopped")
			}
		}()
		log.WithField("addr", conf.HTTPAddr).Info("http api listening")
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	daemon.SdNotify(false, daemon.SdNotifyReady)
	log.WithField("device", conf.Device).Info("inference loop running")

	select {
	case sig := <-sigc:
		log.Infof("caught signal %s, shutting down", sig)
		cancel()
		cam.Close()
		<-loopErr
	case err := <-loopErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "inference loop failed")
		}
	}

	log.WithField("avg_fps", fmt.Sprintf("%.3f", meter.Avg())).Info("stopped")
	return nil
}

func runLoop(ctx context.Context, loop *facerec.Loop, cam *capture.Camera) error {
	if err := loop.Run(ctx, cam.Stream()); err != nil {
		return err
	}
	return cam.Err()
}

func listenControl(socket string) (net.Listener, error) {
	os.Remove(socket)

	ln, err := net.Listen("unix", socket)
	if err != nil {
		return nil, errors.Wrap(err, "listen error")
	}
	os.Chmod(socket, 0666)
	return ln, nil
}

func acceptControl(ln net.Listener, meter *stats.Meter, last *lastIdentity, log *logrus.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if opErr, ok := err.(*net.OpError); ok {
				if opErr.Err.Error() == "use of closed network connection" {
					return
				}
			}
			log.WithError(err).Error("accept error")
			return
		}

		go handle(conn, meter, last, log)
	}
}

func handle(c net.Conn, meter *stats.Meter, last *lastIdentity, log *logrus.Logger) {
	defer c.Close()

	for {
		req, err := protocol.ReadReq(c)
		if err != nil {
			if err.Error() != "EOF" {
				log.WithError(err).Warn("can not read request")
			}
			return
		}

		switch req.Action {
		case protocol.ActionStatus:
			protocol.WriteSuccessRes(c, map[string]string{
				"fps":     fmt.Sprintf("%.1f", meter.Rate()),
				"avg_fps": fmt.Sprintf("%.1f", meter.Avg()),
				"frames":  strconv.FormatUint(meter.Frames(), 10),
				"uptime":  meter.Uptime().Round(time.Second).String(),
			})

		case protocol.ActionIdentity:
			identity, seen, ok := last.get()
			if !ok {
				protocol.WriteErrorRes(c, errors.New("no identity recognized yet"))
				break
			}
			protocol.WriteSuccessRes(c, map[string]string{
				"label":   identity.Label,
				"class":   strconv.Itoa(identity.Class),
				"seen_at": seen.UTC().Format(time.RFC3339),
			})

		default:
			protocol.WriteErrorRes(c, errors.Errorf("unknown action %q", req.Action))
		}
	}
}

func isAlreadyRun(path string, log *logrus.Logger) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}

	pidStr, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Warn("can not read pid file")
		return false
	}
	pid, err := strconv.Atoi(string(pidStr))
	if err != nil {
		log.WithError(err).Warn("invalid existing pid file")
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return proc.Signal(syscall.Signal(0)) == nil
}

func writeLockFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "can not write pid file")
	}

	fmt.Fprintf(f, "%d", os.Getpid())
	return f.Close()
}
