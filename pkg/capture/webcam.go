package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

// Webcam captures frames from a local camera device via OpenCV.
type Webcam struct {
	deviceID int
	quality  int

	mu     sync.Mutex
	cam    *gocv.VideoCapture
	frame  gocv.Mat
	ready  bool
	closed bool

	logger *slog.Logger
}

// WebcamOptions configures the device.
type WebcamOptions struct {
	DeviceID    int
	Width       int // Requested capture width (0 = device default)
	Height      int // Requested capture height
	JPEGQuality int // 1-100, 0 = default (85)
}

// OpenWebcam opens a camera device for capture.
func OpenWebcam(opts WebcamOptions) (*Webcam, error) {
	cam, err := gocv.OpenVideoCapture(opts.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("capture: open device %d: %w", opts.DeviceID, err)
	}
	if opts.Width > 0 {
		cam.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
	}
	if opts.Height > 0 {
		cam.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}

	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	return &Webcam{
		deviceID: opts.DeviceID,
		quality:  quality,
		cam:      cam,
		frame:    gocv.NewMat(),
		ready:    true,
		logger:   slog.Default().With("component", "capture.webcam"),
	}, nil
}

// CaptureJPEG grabs the current frame and encodes it.
func (w *Webcam) CaptureJPEG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if !w.ready {
		// Try to re-verify: a single successful read restores ready.
		if !w.cam.Read(&w.frame) || w.frame.Empty() {
			return nil, ErrNotReady
		}
		w.ready = true
		w.logger.Info("video source recovered", "device", w.deviceID)
	} else if !w.cam.Read(&w.frame) {
		return nil, ErrNotReady
	}

	// A ready device handing back an empty frame is the capture-
	// unavailable condition: drop the ready flag so the pipeline stops
	// issuing requests until the device re-verifies.
	if w.frame.Empty() || w.frame.Cols() == 0 || w.frame.Rows() == 0 {
		w.ready = false
		w.logger.Warn("empty frame from ready device", "device", w.deviceID)
		return nil, ErrUnavailable
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.frame,
		[]int{gocv.IMWriteJpegQuality, w.quality})
	if err != nil {
		return nil, fmt.Errorf("capture: encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())
	return jpeg, nil
}

// Ready reports whether the device is delivering frames.
func (w *Webcam) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready && !w.closed
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.frame.Close()
	return w.cam.Close()
}

// Verify Webcam implements Source at compile time.
var _ Source = (*Webcam)(nil)
