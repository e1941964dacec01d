package grid

import "math"

// FixedOne is the scale of the 16.16 fixed-point coordinate format.
const FixedOne = 1 << 16

// ToFixed converts a pixel coordinate to 16.16 fixed point, truncating
// toward zero. Out-of-range values saturate instead of wrapping and NaN
// maps to 0, so a misbehaving script cannot poison a grid with wrapped
// indices.
func ToFixed(v float64) int32 {
	v *= FixedOne
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// FromFixed converts a 16.16 fixed-point value back to a float.
func FromFixed(v int32) float64 {
	return float64(v) / FixedOne
}

// lerpFixed interpolates between two fixed-point values with a fraction
// in [0, 65536).
func lerpFixed(a, b, f int32) int32 {
	return a + int32((int64(b)-int64(a))*int64(f)>>16)
}

func lerpPoint(a, b Point, f int32) Point {
	return Point{lerpFixed(a.X, b.X, f), lerpFixed(a.Y, b.Y, f)}
}
