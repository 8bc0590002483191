package geom

import "math"

// Edge names one side of a square in its own (unrotated) frame.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

// AllEdges lists the edges in scan order. Pickup detection walks this
// order, so Top wins ties.
var AllEdges = [4]Edge{EdgeTop, EdgeRight, EdgeBottom, EdgeLeft}

// edgeOffsets are the unit offsets from the center to each edge midpoint
// before rotation. Screen coordinates: +Y points down.
var edgeOffsets = [4]Vec2{
	EdgeTop:    {X: 0, Y: -1},
	EdgeRight:  {X: 1, Y: 0},
	EdgeBottom: {X: 0, Y: 1},
	EdgeLeft:   {X: -1, Y: 0},
}

// String returns the lowercase edge name.
func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Offset returns the unrotated center-to-edge offset for a half size h.
func (e Edge) Offset(h float64) Vec2 {
	if int(e) >= len(edgeOffsets) {
		return Vec2{}
	}
	return edgeOffsets[e].Scale(h)
}

// EdgePoints returns the midpoint of each edge of a square of side size
// centered at center and rotated by rotation, indexed by Edge.
func EdgePoints(center Vec2, size, rotation float64) [4]Vec2 {
	h := size / 2
	var pts [4]Vec2
	for _, e := range AllEdges {
		pts[e] = center.Add(e.Offset(h).Rotate(rotation))
	}
	return pts
}

// RotatedCorners returns the four corners of a square of side size, grown
// outward by padding on every side, in perimeter order (clockwise on screen).
func RotatedCorners(center Vec2, size, rotation, padding float64) [4]Vec2 {
	h := size/2 + padding
	local := [4]Vec2{
		{X: -h, Y: -h},
		{X: h, Y: -h},
		{X: h, Y: h},
		{X: -h, Y: h},
	}
	var out [4]Vec2
	for i, p := range local {
		out[i] = center.Add(p.Rotate(rotation))
	}
	return out
}

// Axes returns the two unit edge normals of a square rotated by rotation.
// Opposite edges of a rectangle share a normal, so two axes cover all four.
func Axes(rotation float64) [2]Vec2 {
	cos, sin := math.Cos(rotation), math.Sin(rotation)
	return [2]Vec2{
		{X: cos, Y: sin},
		{X: -sin, Y: cos},
	}
}

// Interval is a closed range on a projection axis.
type Interval struct {
	Min, Max float64
}

// Overlaps reports whether the two intervals share at least one point.
func (i Interval) Overlaps(o Interval) bool {
	return !(i.Max < o.Min || o.Max < i.Min)
}

// Project projects points onto a unit axis.
func Project(points []Vec2, axis Vec2) Interval {
	iv := Interval{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range points {
		d := p.Dot(axis)
		if d < iv.Min {
			iv.Min = d
		}
		if d > iv.Max {
			iv.Max = d
		}
	}
	return iv
}
