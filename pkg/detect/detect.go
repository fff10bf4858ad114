// Package detect normalizes the loosely structured detection records
// returned by the vision model into canonical geometry.
//
// The model is asked for a JSON array, but the shape of each element is
// not guaranteed: bounding boxes show up as 4-number arrays in several
// orderings, as named objects, or as polygon vertex lists, and numbers
// are sometimes encoded as strings. Normalization is defensive and never
// panics on malformed input; records that yield no usable box are dropped.
package detect

import "math"

// Raw is one untyped detection record from the model response.
type Raw map[string]any

// Box2D is the canonical detection: a unit-square box (0-1, top-left
// origin) with its label and the model's optional free-text fields.
// Coordinates outside [0,1] are possible on noisy input and are kept
// as-is; consumers clamp where it matters.
type Box2D struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label"`

	// Distance is the model's human-readable distance estimate, if any.
	Distance string `json:"distance,omitempty"`

	// MovementHint is the model's own movement text ("approaching",
	// "moving left", ...). The tracker lets it override computed movement.
	MovementHint string `json:"movement,omitempty"`
}

// CenterX returns the horizontal center of the box.
func (b Box2D) CenterX() float64 { return b.X + b.Width/2 }

// CenterY returns the vertical center of the box.
func (b Box2D) CenterY() float64 { return b.Y + b.Height/2 }

// Area returns the box area in unit-square terms.
func (b Box2D) Area() float64 { return b.Width * b.Height }

// Box3D is a 9-DOF oriented box: center, size, and orientation in
// radians. The wire format carries exactly nine numbers
// [cx,cy,cz,sx,sy,sz,roll,pitch,yaw] with angles in degrees.
type Box3D struct {
	Center       [3]float64 `json:"center"`
	Size         [3]float64 `json:"size"`
	Orientation  [3]float64 `json:"orientation"` // roll, pitch, yaw in radians
	Label        string     `json:"label"`
	Distance     string     `json:"distance,omitempty"`
	MovementHint string     `json:"movement,omitempty"`
}

// Point is a single normalized point of interest.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Label    string  `json:"label"`
	Distance string  `json:"distance,omitempty"`
}

// labelFields is the fallback order for the label field.
var labelFields = []string{"label", "description", "name", "class", "category"}

// UnknownLabel is used when a record carries no recognizable label.
const UnknownLabel = "Unknown"

// labelOf extracts a label from a record, falling back through the
// alternate field names before giving up.
func labelOf(raw Raw) string {
	for _, field := range labelFields {
		if s, ok := raw[field].(string); ok && s != "" {
			return s
		}
	}
	return UnknownLabel
}

// stringField returns a top-level string field, or "".
func stringField(raw Raw, key string) string {
	s, _ := raw[key].(string)
	return s
}

// scaleMax is the cutoff for the coordinate-space guess: values above it
// mean the box is in the model's 0-1000 integer space, values at or
// below mean it is already unit-normalized. The guess is idempotent:
// re-normalizing a unit box never rescales it.
const scaleMax = 10.0

// normalizeScale divides the values by 1000 when they look like they are
// in 0-1000 space.
func normalizeScale(vals []float64) {
	max := 0.0
	for _, v := range vals {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	if max > scaleMax {
		for i := range vals {
			vals[i] /= 1000.0
		}
	}
}
