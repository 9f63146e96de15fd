package align

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ayusman/ghostcoach/internal/geom"
)

// procrustesRotation returns the rotation minimizing the squared distance
// between the centered reference and observed anchors (Kabsch).
// Reflections are excluded. Degenerate anchor layouts fall back to the
// two-anchor estimate.
func procrustesRotation(refPts, obsPts []geom.Point, refCenter, obsCenter geom.Point) float64 {
	// Cross-covariance H = sum(r_i * o_i^T) over centered anchors.
	var h00, h01, h10, h11 float64
	for i := range refPts {
		r := refPts[i].Sub(refCenter)
		o := obsPts[i].Sub(obsCenter)
		h00 += r.X * o.X
		h01 += r.X * o.Y
		h10 += r.Y * o.X
		h11 += r.Y * o.Y
	}
	if math.Abs(h00)+math.Abs(h01)+math.Abs(h10)+math.Abs(h11) < geom.Epsilon*geom.Epsilon {
		return anchorRotation(refPts, obsPts)
	}

	h := mat.NewDense(2, 2, []float64{h00, h01, h10, h11})

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return anchorRotation(refPts, obsPts)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// R = V * U^T, with the last column of V flipped if R would reflect.
	var r mat.Dense
	r.Mul(&v, u.T())
	if mat.Det(&r) < 0 {
		v.Set(0, 1, -v.At(0, 1))
		v.Set(1, 1, -v.At(1, 1))
		r.Mul(&v, u.T())
	}

	return math.Atan2(r.At(1, 0), r.At(0, 0))
}
