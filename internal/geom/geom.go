// Package geom provides the small 2D vector utilities shared by the alignment,
// stabilization and scoring stages.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Epsilon is the threshold below which a length or spread is treated as zero.
const Epsilon = 1e-6

// Point is a 2D point in an arbitrary but consistent coordinate system
// (normalized [0,1] image coordinates or pixels).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return p.Sub(q).Norm()
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Centroid returns the mean of pts. An empty slice yields the origin.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}

	var sum Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(pts)))
}

// MeanDistance returns the mean distance of pts from c.
func MeanDistance(pts []Point, c Point) float64 {
	if len(pts) == 0 {
		return 0
	}

	var total float64
	for _, p := range pts {
		total += p.Dist(c)
	}
	return total / float64(len(pts))
}

// Rotate rotates p about the origin by theta radians (counter-clockwise in a
// y-up frame, clockwise on screen where y grows downward).
func Rotate(p Point, theta float64) Point {
	s, c := math.Sincos(theta)
	return Point{
		X: c*p.X - s*p.Y,
		Y: s*p.X + c*p.Y,
	}
}

// WrapAngle maps theta into (-pi, pi].
func WrapAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// Heading returns the direction of v in radians and whether v is long enough
// for the direction to be meaningful.
func Heading(v Point) (float64, bool) {
	if v.Norm() < Epsilon {
		return 0, false
	}
	return math.Atan2(v.Y, v.X), true
}

// AngleAt returns the interior angle at b, in degrees, formed by a-b-c.
// Degenerate arms report a straight angle (180).
func AngleAt(a, b, c Point) float64 {
	v1 := a.Sub(b)
	v2 := c.Sub(b)
	n1, n2 := v1.Norm(), v2.Norm()
	if n1 < Epsilon || n2 < Epsilon {
		return 180
	}

	cos := (v1.X*v2.X + v1.Y*v2.Y) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Bounds returns the axis-aligned bounding box of pts, skipping non-finite points.
func Bounds(pts []Point) orb.Bound {
	mp := make(orb.MultiPoint, 0, len(pts))
	for _, p := range pts {
		if p.IsFinite() {
			mp = append(mp, orb.Point{p.X, p.Y})
		}
	}
	return mp.Bound()
}
