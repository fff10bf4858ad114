package vision

import "strings"

// Prompts per detection mode. Each asks for a bare JSON array so the
// reply survives ExtractJSONArray even when the model adds a fence.
const (
	prompt2D = `Detect obstacles a walking person could collide with in this image.
Respond with a JSON array only. Each element:
{"box_2d": [ymin, xmin, ymax, xmax], "label": "<short name>", "distance": "<estimate>", "movement": "<approaching|receding|stationary|left|right>"}
Coordinates are integers in 0-1000 image space, origin top-left.
Include at most 8 objects, nearest first. No prose outside the array.`

	prompt3D = `Detect obstacles in this image and estimate their 3D extent.
Respond with a JSON array only. Each element:
{"box_3d": [cx, cy, cz, sx, sy, sz, roll, pitch, yaw], "label": "<short name>", "distance": "<estimate>", "movement": "<text>"}
box_3d holds exactly 9 numbers; angles in degrees.
Include at most 6 objects. No prose outside the array.`

	promptPoints = `Mark the key obstacles and navigation landmarks in this image as points.
Respond with a JSON array only. Each element:
{"point": [y, x], "label": "<short name>", "distance": "<estimate>"}
Coordinates are integers in 0-1000 image space, origin top-left.
Include at most 10 points. No prose outside the array.`
)

// PromptFor builds the full prompt for a mode, appending the optional
// scene-context hint from recent frame history.
func PromptFor(mode Mode, context string) string {
	var p string
	switch mode {
	case Mode3D:
		p = prompt3D
	case ModePoints:
		p = promptPoints
	default:
		p = prompt2D
	}
	if context == "" {
		return p
	}
	var b strings.Builder
	b.WriteString(p)
	b.WriteString("\n\nContext: ")
	b.WriteString(context)
	return b.String()
}
