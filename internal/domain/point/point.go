// Package point provides a small 2D point/vector type used by canvas
// geometry.
package point

// Point is a 2D vector.
type Point struct {
	X float64
	Y float64
}

// New returns the point (x, y).
func New(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the vector sum p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector difference p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the component-wise product of p and q.
func (p Point) Mul(q Point) Point {
	return Point{X: p.X * q.X, Y: p.Y * q.Y}
}

// Div returns the component-wise quotient of p and q.
// Division by a zero component follows IEEE 754 (±Inf or NaN).
func (p Point) Div(q Point) Point {
	return Point{X: p.X / q.X, Y: p.Y / q.Y}
}

// Scale returns the scalar multiple of p.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// DivScalar returns p divided by the scalar s.
func (p Point) DivScalar(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s}
}
