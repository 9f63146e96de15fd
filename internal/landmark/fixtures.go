package landmark

import (
	"math"

	"github.com/ayusman/ghostcoach/internal/geom"
)

// fingerGeometry describes how a synthetic finger is laid out: where its
// base sits, its segment lengths and its resting direction.
type fingerGeometry struct {
	base    geom.Point
	lengths [3]float64
	heading float64
	bends   [3]float64
}

// Synthetic right hand, palm facing the camera, in normalized image
// coordinates (y grows downward). The thumb bends toward the palm.
var (
	syntheticWrist = geom.Point{X: 0.50, Y: 0.80}

	syntheticFingers = [5]fingerGeometry{
		{base: geom.Point{X: 0.55, Y: 0.76}, lengths: [3]float64{0.05, 0.04, 0.035}, heading: -0.6, bends: [3]float64{0, -0.9, -1.0}},
		{base: geom.Point{X: 0.56, Y: 0.65}, lengths: [3]float64{0.06, 0.04, 0.03}, heading: -math.Pi/2 + 0.15, bends: [3]float64{1.2, 1.6, 0.9}},
		{base: geom.Point{X: 0.50, Y: 0.64}, lengths: [3]float64{0.065, 0.045, 0.032}, heading: -math.Pi / 2, bends: [3]float64{1.2, 1.6, 0.9}},
		{base: geom.Point{X: 0.45, Y: 0.65}, lengths: [3]float64{0.06, 0.04, 0.03}, heading: -math.Pi/2 - 0.1, bends: [3]float64{1.2, 1.6, 0.9}},
		{base: geom.Point{X: 0.40, Y: 0.67}, lengths: [3]float64{0.045, 0.03, 0.025}, heading: -math.Pi/2 - 0.2, bends: [3]float64{1.2, 1.6, 0.9}},
	}
)

// SyntheticHand builds a right hand with each finger curled by the given
// amount, thumb first: 0 is fully extended and 1 fully curled.
func SyntheticHand(curls [5]float64) Set {
	points := make([]geom.Point, NumHandLandmarks)
	points[Wrist] = syntheticWrist

	for f, g := range syntheticFingers {
		curl := math.Max(0, math.Min(1, curls[f]))
		chain := FingerChains[f]

		p := g.base
		points[chain[0]] = p
		dir := g.heading
		for seg := 0; seg < 3; seg++ {
			dir += curl * g.bends[seg]
			s, c := math.Sincos(dir)
			p = geom.Point{X: p.X + g.lengths[seg]*c, Y: p.Y + g.lengths[seg]*s}
			points[chain[seg+1]] = p
		}
	}

	return Set{Points: points}
}

// OpenPalm returns a hand with every finger extended.
func OpenPalm() Set {
	return SyntheticHand([5]float64{0, 0, 0, 0, 0})
}

// Fist returns a hand with every finger curled, thumb included.
func Fist() Set {
	return SyntheticHand([5]float64{1, 1, 1, 1, 1})
}

// ThumbsUp returns a hand with only the thumb extended.
func ThumbsUp() Set {
	return SyntheticHand([5]float64{0, 1, 1, 1, 1})
}

// Victory returns a hand with the index and middle fingers extended.
func Victory() Set {
	return SyntheticHand([5]float64{1, 0, 0, 1, 1})
}

// Mirror reflects a set horizontally about x = axis, turning a right hand
// into a left hand.
func Mirror(s Set, axis float64) Set {
	points := make([]geom.Point, s.Len())
	for i, p := range s.Points {
		points[i] = geom.Point{X: 2*axis - p.X, Y: p.Y}
	}
	return s.WithPoints(points)
}

// TPose returns a full-body pose standing upright with both arms held out
// horizontally, in normalized image coordinates.
func TPose() Set {
	points := make([]geom.Point, NumBodyLandmarks)

	points[Nose] = geom.Point{X: 0.50, Y: 0.15}
	points[LeftEyeInner] = geom.Point{X: 0.51, Y: 0.13}
	points[LeftEye] = geom.Point{X: 0.52, Y: 0.13}
	points[LeftEyeOuter] = geom.Point{X: 0.53, Y: 0.13}
	points[RightEyeInner] = geom.Point{X: 0.49, Y: 0.13}
	points[RightEye] = geom.Point{X: 0.48, Y: 0.13}
	points[RightEyeOuter] = geom.Point{X: 0.47, Y: 0.13}
	points[LeftEar] = geom.Point{X: 0.55, Y: 0.14}
	points[RightEar] = geom.Point{X: 0.45, Y: 0.14}
	points[MouthLeft] = geom.Point{X: 0.52, Y: 0.18}
	points[MouthRight] = geom.Point{X: 0.48, Y: 0.18}

	// Subject's left appears on the image right.
	points[LeftShoulder] = geom.Point{X: 0.60, Y: 0.30}
	points[RightShoulder] = geom.Point{X: 0.40, Y: 0.30}
	points[LeftElbow] = geom.Point{X: 0.75, Y: 0.30}
	points[RightElbow] = geom.Point{X: 0.25, Y: 0.30}
	points[LeftWrist] = geom.Point{X: 0.90, Y: 0.30}
	points[RightWrist] = geom.Point{X: 0.10, Y: 0.30}
	points[LeftPinky] = geom.Point{X: 0.93, Y: 0.31}
	points[RightPinky] = geom.Point{X: 0.07, Y: 0.31}
	points[LeftIndex] = geom.Point{X: 0.94, Y: 0.30}
	points[RightIndex] = geom.Point{X: 0.06, Y: 0.30}
	points[LeftThumb] = geom.Point{X: 0.92, Y: 0.28}
	points[RightThumb] = geom.Point{X: 0.08, Y: 0.28}

	points[LeftHip] = geom.Point{X: 0.56, Y: 0.55}
	points[RightHip] = geom.Point{X: 0.44, Y: 0.55}
	points[LeftKnee] = geom.Point{X: 0.56, Y: 0.72}
	points[RightKnee] = geom.Point{X: 0.44, Y: 0.72}
	points[LeftAnkle] = geom.Point{X: 0.56, Y: 0.89}
	points[RightAnkle] = geom.Point{X: 0.44, Y: 0.89}
	points[LeftHeel] = geom.Point{X: 0.55, Y: 0.91}
	points[RightHeel] = geom.Point{X: 0.45, Y: 0.91}
	points[LeftFootIndex] = geom.Point{X: 0.58, Y: 0.92}
	points[RightFootIndex] = geom.Point{X: 0.42, Y: 0.92}

	return Set{Points: points}
}
