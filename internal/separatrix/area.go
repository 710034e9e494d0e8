package separatrix

import "gonum.org/v1/gonum/mat"

// StableArea is the signed area of the triangle spanned by the fixed points
// in normalized coordinates. The determinant of
//
//	| x1  x2  x3 |
//	| p1  p2  p3 |
//	|  1   1   1 |
//
// is twice that area; it is positive when the points run counterclockwise.
// Figures quoted as the raw determinant are twice the value returned here.
func StableArea(fp FixedPoints) float64 {
	m := mat.NewDense(3, 3, []float64{
		fp[0].Normalized.X, fp[1].Normalized.X, fp[2].Normalized.X,
		fp[0].Normalized.Px, fp[1].Normalized.Px, fp[2].Normalized.Px,
		1, 1, 1,
	})
	return mat.Det(m) / 2
}
