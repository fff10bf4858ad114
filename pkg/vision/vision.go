// Package vision sends camera frames to a cloud vision-language model
// and returns the detections it describes.
//
// The model replies with free text that is expected to contain a JSON
// array, often wrapped in a fenced code block. Extraction is tolerant;
// parsing the array's elements into canonical geometry is the detect
// package's job.
package vision

import "context"

// Mode selects the query style: both the prompt sent to the model and
// the response schema expected back.
type Mode string

const (
	// Mode2D asks for 2D bounding boxes: box_2d = [ymin,xmin,ymax,xmax].
	Mode2D Mode = "2d"

	// Mode3D asks for 9-field oriented 3D boxes.
	Mode3D Mode = "3d"

	// ModePoints asks for single points of interest: point = [y,x].
	ModePoints Mode = "points"
)

// Request is one frame analysis request.
type Request struct {
	// ImageJPEG is the compressed frame.
	ImageJPEG []byte

	// Mode selects the detection style.
	Mode Mode

	// Context is an optional scene-context hint built from recent frame
	// history ("3 seconds ago I saw: ...").
	Context string
}

// Response is the model's parsed reply.
type Response struct {
	// Text is the raw model output.
	Text string

	// Items is the JSON array extracted from Text, decoded but not yet
	// normalized.
	Items []any

	// Model identifies the serving model.
	Model string

	// LatencyMs is the request round-trip time.
	LatencyMs int64
}

// Provider is the vision service interface. Implementations: Gemini
// (production) and Mock (tests).
type Provider interface {
	// Detect analyzes one frame. A reply whose text holds no JSON array
	// fails with ErrResponseFormat; callers keep their previous
	// detection state in that case.
	Detect(ctx context.Context, req *Request) (*Response, error)

	// Health checks service connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases resources.
	Close() error
}
