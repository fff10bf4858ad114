package detect

import "math"

// Normalize converts one raw response element to a canonical Box2D.
// The element is usually an object, but the model occasionally emits a
// bare 4-number array; both are handled. Returns false when no usable
// box can be found, in which case the record is dropped.
func Normalize(item any) (Box2D, bool) {
	switch v := item.(type) {
	case []any:
		// The record itself is a raw [ymin,xmin,ymax,xmax] array.
		f, ok := floats4(v)
		if !ok {
			return Box2D{}, false
		}
		c := corners{ymin: f[0], xmin: f[1], ymax: f[2], xmax: f[3]}
		return boxFromCorners(c, Raw{}), true
	case map[string]any:
		return normalizeRecord(Raw(v))
	}
	return Box2D{}, false
}

func normalizeRecord(raw Raw) (Box2D, bool) {
	for _, s := range strategies {
		if c, ok := s.tryParse(raw); ok {
			return boxFromCorners(c, raw), true
		}
	}
	if c, ok := nestedScan(raw); ok {
		return boxFromCorners(c, raw), true
	}
	return Box2D{}, false
}

// boxFromCorners applies the coordinate-space guess and attaches the
// record's text fields.
func boxFromCorners(c corners, raw Raw) Box2D {
	vals := []float64{c.xmin, c.ymin, c.xmax, c.ymax}
	normalizeScale(vals)
	xmin, ymin, xmax, ymax := vals[0], vals[1], vals[2], vals[3]
	if xmax < xmin {
		xmin, xmax = xmax, xmin
	}
	if ymax < ymin {
		ymin, ymax = ymax, ymin
	}
	return Box2D{
		X:            xmin,
		Y:            ymin,
		Width:        xmax - xmin,
		Height:       ymax - ymin,
		Label:        labelOf(raw),
		Distance:     stringField(raw, "distance"),
		MovementHint: stringField(raw, "movement"),
	}
}

// NormalizeAll converts a decoded response array to boxes, dropping
// records that yield nothing. When fallback is true and no record at all
// produced a box, centered placeholders are synthesized so downstream
// consumers are not left empty-handed. The placeholders are a display
// continuity measure, not real detections.
func NormalizeAll(items []any, fallback bool) []Box2D {
	boxes := make([]Box2D, 0, len(items))
	for _, item := range items {
		if box, ok := Normalize(item); ok {
			boxes = append(boxes, box)
		}
	}
	if len(boxes) == 0 && fallback && len(items) > 0 {
		return PlaceholderBoxes(len(items))
	}
	return boxes
}

// PlaceholderBoxes synthesizes n (capped at 3) small centered boxes.
func PlaceholderBoxes(n int) []Box2D {
	if n > 3 {
		n = 3
	}
	boxes := make([]Box2D, 0, n)
	for i := 0; i < n; i++ {
		offset := 0.15 * float64(i)
		boxes = append(boxes, Box2D{
			X:      0.4 + offset,
			Y:      0.4,
			Width:  0.2,
			Height: 0.2,
			Label:  UnknownLabel,
		})
	}
	return boxes
}

// NormalizeBox3D parses a 3D record. The box_3d field must hold exactly
// nine numbers [cx,cy,cz,sx,sy,sz,roll,pitch,yaw]; angles arrive in
// degrees and are converted to radians. Anything else drops the record.
func NormalizeBox3D(item any) (Box3D, bool) {
	raw, ok := item.(map[string]any)
	if !ok {
		return Box3D{}, false
	}
	arr, ok := raw["box_3d"].([]any)
	if !ok || len(arr) != 9 {
		return Box3D{}, false
	}
	var f [9]float64
	for i, e := range arr {
		v, ok := toFloat(e)
		if !ok {
			return Box3D{}, false
		}
		f[i] = v
	}
	box := Box3D{
		Center:       [3]float64{f[0], f[1], f[2]},
		Size:         [3]float64{f[3], f[4], f[5]},
		Label:        labelOf(Raw(raw)),
		Distance:     stringField(Raw(raw), "distance"),
		MovementHint: stringField(Raw(raw), "movement"),
	}
	for i := 0; i < 3; i++ {
		box.Orientation[i] = f[6+i] * math.Pi / 180.0
	}
	return box, true
}

// NormalizeAllBox3D converts a decoded response array to 3D boxes.
func NormalizeAllBox3D(items []any) []Box3D {
	boxes := make([]Box3D, 0, len(items))
	for _, item := range items {
		if box, ok := NormalizeBox3D(item); ok {
			boxes = append(boxes, box)
		}
	}
	return boxes
}

// NormalizePoint parses a point record: point = [y,x] in 0-1000 space.
func NormalizePoint(item any) (Point, bool) {
	raw, ok := item.(map[string]any)
	if !ok {
		return Point{}, false
	}
	arr, ok := raw["point"].([]any)
	if !ok || len(arr) != 2 {
		return Point{}, false
	}
	y, okY := toFloat(arr[0])
	x, okX := toFloat(arr[1])
	if !(okX && okY) {
		return Point{}, false
	}
	vals := []float64{x, y}
	normalizeScale(vals)
	return Point{
		X:        vals[0],
		Y:        vals[1],
		Label:    labelOf(Raw(raw)),
		Distance: stringField(Raw(raw), "distance"),
	}, true
}

// NormalizeAllPoints converts a decoded response array to points.
func NormalizeAllPoints(items []any) []Point {
	points := make([]Point, 0, len(items))
	for _, item := range items {
		if p, ok := NormalizePoint(item); ok {
			points = append(points, p)
		}
	}
	return points
}

// PointsToBoxes converts points to tiny boxes so point-mode detections
// can flow through the same tracker and advisory paths.
func PointsToBoxes(points []Point) []Box2D {
	const size = 0.04
	boxes := make([]Box2D, 0, len(points))
	for _, p := range points {
		boxes = append(boxes, Box2D{
			X:        p.X - size/2,
			Y:        p.Y - size/2,
			Width:    size,
			Height:   size,
			Label:    p.Label,
			Distance: p.Distance,
		})
	}
	return boxes
}
