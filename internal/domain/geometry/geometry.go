// Package geometry contains the pure 2D helpers used to turn keypoints into
// posture metrics. Coordinates are normalised image space with y growing down.
package geometry

import "math"

// Point is a position in normalised image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const radToDeg = 180 / math.Pi

// AngleAtVertex returns the angle a-b-c measured at b, in degrees within
// [0, 180]. The second result is false when either ray has zero length.
func AngleAtVertex(a, b, c Point) (float64, bool) {
	abx, aby := a.X-b.X, a.Y-b.Y
	cbx, cby := c.X-b.X, c.Y-b.Y
	mag := math.Hypot(abx, aby) * math.Hypot(cbx, cby)
	if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return 0, false
	}
	cos := (abx*cbx + aby*cby) / mag
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * radToDeg, true
}

// AxisDeviation returns how far the line p->q deviates from horizontal, in
// degrees within [0, 90]. Direction does not matter.
func AxisDeviation(p, q Point) float64 {
	deg := math.Abs(math.Atan2(q.Y-p.Y, q.X-p.X) * radToDeg)
	if deg > 90 {
		deg = 180 - deg
	}
	return deg
}

// Distance is the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Centroid returns the mean position of points, or the zero Point for none.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}
}

// MinVariancePoints is the smallest cloud Variance reports a spread for.
const MinVariancePoints = 3

// Variance is the mean squared distance of points from their centroid.
// Clouds smaller than MinVariancePoints report 0.
func Variance(points []Point) float64 {
	if len(points) < MinVariancePoints {
		return 0
	}
	c := Centroid(points)
	var sum float64
	for _, p := range points {
		dx, dy := p.X-c.X, p.Y-c.Y
		sum += dx*dx + dy*dy
	}
	return sum / float64(len(points))
}
