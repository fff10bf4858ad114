package detect

import (
	"strconv"
	"strings"
)

// A box encoding guess. Each strategy inspects one documented shape and
// returns corner geometry in the source's own coordinate scale. Strategies
// are tried in a fixed priority order and the first hit wins, so each one
// can be unit tested in isolation.
type strategy interface {
	name() string
	tryParse(raw Raw) (corners, bool)
}

// corners is raw box geometry before scale normalization.
type corners struct {
	xmin, ymin, xmax, ymax float64
}

// strategies is the priority-ordered parse chain.
var strategies = []strategy{
	box2DArrayStrategy{},
	namedBoxStrategy{},
	cornerFieldsStrategy{},
	sizeFieldsStrategy{},
	vertexListStrategy{},
	polygonStrategy{},
}

// toFloat coerces the numeric encodings seen in model output: JSON
// numbers, Go ints from earlier decoding stages, and numbers quoted as
// strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// floats4 converts a 4-element array-ish value to numbers.
func floats4(v any) ([4]float64, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 4 {
		return [4]float64{}, false
	}
	var out [4]float64
	for i, e := range arr {
		f, ok := toFloat(e)
		if !ok {
			return [4]float64{}, false
		}
		out[i] = f
	}
	return out, true
}

// box2DArrayStrategy handles the primary wire shape:
// box_2d = [ymin, xmin, ymax, xmax].
type box2DArrayStrategy struct{}

func (box2DArrayStrategy) name() string { return "box_2d-array" }

func (box2DArrayStrategy) tryParse(raw Raw) (corners, bool) {
	v, ok := raw["box_2d"]
	if !ok {
		return corners{}, false
	}
	f, ok := floats4(v)
	if !ok {
		return corners{}, false
	}
	return corners{ymin: f[0], xmin: f[1], ymax: f[2], xmax: f[3]}, true
}

// namedBoxStrategy handles a box under an alternate field name, as either
// a 4-array, an {x,y,width,height} object, or an {xmin,ymin,xmax,ymax}
// object.
type namedBoxStrategy struct{}

func (namedBoxStrategy) name() string { return "named-box" }

var namedBoxFields = []string{"bounding_box", "bbox", "box"}

func (namedBoxStrategy) tryParse(raw Raw) (corners, bool) {
	for _, field := range namedBoxFields {
		v, ok := raw[field]
		if !ok {
			continue
		}
		if f, ok := floats4(v); ok {
			return corners{ymin: f[0], xmin: f[1], ymax: f[2], xmax: f[3]}, true
		}
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if c, ok := cornersFromMap(Raw(obj)); ok {
			return c, true
		}
	}
	return corners{}, false
}

// cornersFromMap reads either corner or size fields out of a map.
func cornersFromMap(m Raw) (corners, bool) {
	if c, ok := (cornerFieldsStrategy{}).tryParse(m); ok {
		return c, true
	}
	return (sizeFieldsStrategy{}).tryParse(m)
}

// cornerFieldsStrategy handles top-level xmin/ymin/xmax/ymax.
type cornerFieldsStrategy struct{}

func (cornerFieldsStrategy) name() string { return "corner-fields" }

func (cornerFieldsStrategy) tryParse(raw Raw) (corners, bool) {
	xmin, ok1 := toFloat(raw["xmin"])
	ymin, ok2 := toFloat(raw["ymin"])
	xmax, ok3 := toFloat(raw["xmax"])
	ymax, ok4 := toFloat(raw["ymax"])
	if !(ok1 && ok2 && ok3 && ok4) {
		return corners{}, false
	}
	return corners{xmin: xmin, ymin: ymin, xmax: xmax, ymax: ymax}, true
}

// sizeFieldsStrategy handles top-level x,y plus width/height (or w/h).
type sizeFieldsStrategy struct{}

func (sizeFieldsStrategy) name() string { return "size-fields" }

func (sizeFieldsStrategy) tryParse(raw Raw) (corners, bool) {
	x, ok1 := toFloat(raw["x"])
	y, ok2 := toFloat(raw["y"])
	if !(ok1 && ok2) {
		return corners{}, false
	}
	w, okW := toFloat(raw["width"])
	if !okW {
		w, okW = toFloat(raw["w"])
	}
	h, okH := toFloat(raw["height"])
	if !okH {
		h, okH = toFloat(raw["h"])
	}
	if !(okW && okH) {
		return corners{}, false
	}
	return corners{xmin: x, ymin: y, xmax: x + w, ymax: y + h}, true
}

// vertexListStrategy handles a flat vertex list under points/coordinates:
// the axis-aligned bounding box is the min/max over all vertices.
type vertexListStrategy struct{}

func (vertexListStrategy) name() string { return "vertex-list" }

var vertexListFields = []string{"points", "coordinates", "vertices"}

func (vertexListStrategy) tryParse(raw Raw) (corners, bool) {
	for _, field := range vertexListFields {
		v, ok := raw[field]
		if !ok {
			continue
		}
		if c, ok := boundsOfVertices(v); ok {
			return c, true
		}
	}
	return corners{}, false
}

// polygonStrategy handles {polygon: {vertices: [...]}}.
type polygonStrategy struct{}

func (polygonStrategy) name() string { return "polygon" }

func (polygonStrategy) tryParse(raw Raw) (corners, bool) {
	poly, ok := raw["polygon"].(map[string]any)
	if !ok {
		return corners{}, false
	}
	for _, field := range []string{"vertices", "points"} {
		if c, ok := boundsOfVertices(poly[field]); ok {
			return c, true
		}
	}
	return corners{}, false
}

// boundsOfVertices computes the axis-aligned bounds of a vertex list.
// Vertices may be [x,y] pairs or {x:..., y:...} objects; at least two
// vertices are required for a meaningful box.
func boundsOfVertices(v any) (corners, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return corners{}, false
	}
	var c corners
	count := 0
	for _, e := range arr {
		var x, y float64
		var okX, okY bool
		switch vert := e.(type) {
		case []any:
			if len(vert) < 2 {
				continue
			}
			x, okX = toFloat(vert[0])
			y, okY = toFloat(vert[1])
		case map[string]any:
			x, okX = toFloat(vert["x"])
			y, okY = toFloat(vert["y"])
		}
		if !(okX && okY) {
			continue
		}
		if count == 0 {
			c = corners{xmin: x, ymin: y, xmax: x, ymax: y}
		} else {
			if x < c.xmin {
				c.xmin = x
			}
			if x > c.xmax {
				c.xmax = x
			}
			if y < c.ymin {
				c.ymin = y
			}
			if y > c.ymax {
				c.ymax = y
			}
		}
		count++
	}
	return c, count >= 2
}

// nestedScan is the last resort: walk nested object values and retry the
// chain on anything box-shaped one level down.
func nestedScan(raw Raw) (corners, bool) {
	for _, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		nested := Raw(obj)
		for _, s := range strategies {
			if c, ok := s.tryParse(nested); ok {
				return c, true
			}
		}
	}
	return corners{}, false
}
