package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// Standalone helper: re-encode a video with every frame rotated by a fixed
// angle about the frame center. Useful for correcting recordings made with
// a tilted camera before ROI analysis.
func main() {
	var (
		inputPath  string
		outputPath string
		angle      float64
		codec      string
	)
	flag.StringVar(&inputPath, "input", "", "input video file")
	flag.StringVar(&outputPath, "output", "", "rotated output file")
	flag.Float64Var(&angle, "angle", 0.0, "rotation angle in degrees")
	flag.StringVar(&codec, "codec", "MJPG", "fourcc codec for the output")
	flag.Parse()

	if inputPath == "" || outputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: rotate-video -input FILE -output FILE -angle DEG [-codec FOURCC]")
		os.Exit(2)
	}

	if err := rotateVideo(inputPath, outputPath, angle, codec); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rotateVideo(inputPath, outputPath string, angle float64, codec string) error {
	cap, err := gocv.VideoCaptureFile(inputPath)
	if err != nil {
		return fmt.Errorf("unable to open video file: %w", err)
	}
	defer cap.Close()

	width := int(cap.Get(gocv.VideoCaptureFrameWidth))
	height := int(cap.Get(gocv.VideoCaptureFrameHeight))
	fps := cap.Get(gocv.VideoCaptureFPS)

	writer, err := gocv.VideoWriterFile(outputPath, codec, fps, width, height, true)
	if err != nil {
		return fmt.Errorf("unable to open output file: %w", err)
	}
	defer writer.Close()

	center := image.Pt(width/2, height/2)
	rot := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer rot.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	rotated := gocv.NewMat()
	defer rotated.Close()

	frames := 0
	for {
		if ok := cap.Read(&frame); !ok || frame.Empty() {
			break
		}
		gocv.WarpAffine(frame, &rotated, rot, image.Pt(width, height))
		if err := writer.Write(rotated); err != nil {
			return fmt.Errorf("write frame %d: %w", frames, err)
		}
		frames++
	}

	fmt.Printf("rotated %d frames by %.1f° into %s\n", frames, angle, outputPath)
	return nil
}
