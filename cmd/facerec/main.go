package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	facerec "github.com/nautilusPrime/deeplens-facerec"
	"github.com/nautilusPrime/deeplens-facerec/capture"
	"github.com/nautilusPrime/deeplens-facerec/config"
	"github.com/nautilusPrime/deeplens-facerec/detect"
	"github.com/nautilusPrime/deeplens-facerec/display"
	"github.com/nautilusPrime/deeplens-facerec/logging"
	"github.com/nautilusPrime/deeplens-facerec/recognize"
	"github.com/nautilusPrime/deeplens-facerec/stats"
)

func main() {
	if len(os.Args) != 2 {
		help()
	}

	godotenv.Load()

	switch os.Args[1] {
	case "run":
		must(run())
	case "config":
		must(printConfig())
	default:
		help()
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func help() {
	log.Fatalf("Usage: %s <run|config>", os.Args[0])
}

// printConfig shows the effective configuration after file, env and
// defaults are folded together.
func printConfig() error {
	conf, err := config.Load("")
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// run executes the inference loop in the foreground, printing every
// recognized identity to stdout.
func run() error {
	conf, err := config.Load("")
	if err != nil {
		return err
	}
	logger := logging.New("")

	detector, err := detect.NewDetector(&detect.Option{
		CascadeFile:   conf.CascadeFile,
		AreaThreshold: conf.FaceAreaThreshold,
	})
	if err != nil {
		return err
	}

	predictor, err := detect.NewPredictor(conf.PuplocFile)
	if err != nil {
		return err
	}

	recognizer, err := recognize.NewRecognizer(&recognize.Option{
		ModelsDir:    conf.ModelsDir,
		SamplesFile:  conf.SamplesFile,
		Threshold:    conf.RecognitionThreshold,
		UnknownClass: conf.UnknownClass,
	})
	if err != nil {
		return err
	}
	defer recognizer.Close()

	disp, err := display.New(conf.Resolution)
	if err != nil {
		return err
	}
	defer disp.Close()
	go disp.ServeFIFO(conf.FifoPath)

	meter := stats.NewMeter(time.Duration(conf.FPSInterval) * time.Second)
	defer meter.Stop()

	loop, err := facerec.New(facerec.Options{
		Detector:   detector,
		Predictor:  predictor,
		Recognizer: recognizer,
		Display:    disp,
		Meter:      meter,
		Log:        logger,
		FrameSkip:  conf.FrameSkip,
		BatchSize:  conf.BatchSize,
		OnIdentity: func(identity recognize.Identity, sequence int) {
			fmt.Printf("Predicted identity: %s (class %d, sequence %d)\n",
				identity.Label, identity.Class, sequence)
		},
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

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		cancel()
		cam.Close()
	}()

	if err := loop.Run(ctx, cam.Stream()); err != nil && err != context.Canceled {
		return err
	}

	fmt.Printf("Avg. FPS: %.3f\n", meter.Avg())
	return cam.Err()
}
