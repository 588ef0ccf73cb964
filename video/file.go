package video

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FileSource decodes a video file through OpenCV's VideoCapture.
type FileSource struct {
	path string
	cap  *gocv.VideoCapture
}

var _ Source = (*FileSource)(nil)

// OpenFile opens a video file for sequential decoding.
func OpenFile(path string) (*FileSource, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open video file %s: %w", path, err)
	}
	return &FileSource{path: path, cap: cap}, nil
}

// Path returns the opened file path.
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) TotalFrames() int {
	return int(s.cap.Get(gocv.VideoCaptureFrameCount))
}

func (s *FileSource) FrameRate() float64 {
	return s.cap.Get(gocv.VideoCaptureFPS)
}

func (s *FileSource) FrameSize() (int, int) {
	return int(s.cap.Get(gocv.VideoCaptureFrameWidth)),
		int(s.cap.Get(gocv.VideoCaptureFrameHeight))
}

func (s *FileSource) Seek(frameIndex int) error {
	s.cap.Set(gocv.VideoCapturePosFrames, float64(frameIndex))
	return nil
}

func (s *FileSource) ReadNext() (gocv.Mat, bool) {
	frame := gocv.NewMat()
	if ok := s.cap.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, false
	}
	return frame, true
}

func (s *FileSource) Close() error {
	return s.cap.Close()
}
