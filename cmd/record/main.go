package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nautilusPrime/deeplens-facerec/capture"
	"github.com/nautilusPrime/deeplens-facerec/config"
	"github.com/nautilusPrime/deeplens-facerec/recognize"
)

var (
	label = flag.String("label", "", "identity label to record samples for")
	out   = flag.String("out", "samples.json", "samples file to append to")
	count = flag.Int("count", 10, "number of descriptors to record")
)

func main() {
	flag.Parse()
	godotenv.Load()

	if *label == "" {
		fmt.Fprintln(os.Stderr, "a -label is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := record(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func record() error {
	conf, err := config.Load("")
	if err != nil {
		return err
	}

	rec, err := recognize.NewRecognizer(&recognize.Option{
		ModelsDir:    conf.ModelsDir,
		Threshold:    conf.RecognitionThreshold,
		UnknownClass: conf.UnknownClass,
	})
	if err != nil {
		return fmt.Errorf("can not initialize face recognizer: %w", err)
	}
	defer rec.Close()

	var samples []recognize.Sample
	if _, err := os.Stat(*out); err == nil {
		samples, err = recognize.LoadSamples(*out)
		if err != nil {
			return err
		}
	}

	cam := capture.Open(&capture.Option{
		Device: conf.Device,
		Width:  conf.CamWidth,
		Height: conf.CamHeight,
	})
	defer cam.Close()

	recorded := 0
	noFaceFrames := 0
	for frame := range cam.Stream() {
		if recorded >= *count {
			break
		}

		descriptors, err := rec.EmbedImage(frame.Gray())
		if err != nil {
			return err
		}

		if len(descriptors) == 0 {
			noFaceFrames++
			fmt.Println("  - No face detected")
			continue
		}
		if len(descriptors) > 1 {
			fmt.Println("  - More than one face in view, skipping")
			continue
		}

		samples = append(samples, recognize.Sample{
			Label:      *label,
			Descriptor: descriptors[0],
		})
		recorded++
		fmt.Printf("  - Recorded sample %d/%d\n", recorded, *count)
	}

	if err := cam.Err(); err != nil {
		return err
	}

	if err := recognize.SaveSamples(*out, samples); err != nil {
		return err
	}
	fmt.Printf("Saved %d samples for %q to %s\n", recorded, *label, *out)
	return nil
}
