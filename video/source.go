package video

import "gocv.io/x/gocv"

// Source is a sequential-read handle over a decoded video. ReadNext
// returning ok=false (end of stream or a decode failure) must not be
// treated as fatal by a running batch scan.
type Source interface {
	// TotalFrames is the decoder-reported frame count.
	TotalFrames() int
	// FrameRate is the native frame rate in frames per second.
	FrameRate() float64
	// FrameSize returns the native decoded width and height in pixels.
	FrameSize() (width, height int)
	// Seek positions the read cursor at the given frame index.
	Seek(frameIndex int) error
	// ReadNext decodes the next frame. The caller owns the returned Mat
	// and must Close it when ok is true.
	ReadNext() (frame gocv.Mat, ok bool)
	// Close releases the underlying decoder.
	Close() error
}
