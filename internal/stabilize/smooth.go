// Package stabilize removes frame-to-frame jitter from alignment transforms
// and keeps template selection from flickering between near-equal candidates.
package stabilize

import (
	"math"

	"github.com/ayusman/ghostcoach/internal/geom"
)

// Default smoothing and hysteresis values.
const (
	DefaultAlpha           = 0.3
	DefaultMaxTranslation  = 0.05
	DefaultMaxScaleChange  = 0.10
	DefaultMaxRotationDeg  = 10.0
	DefaultSwitchThreshold = 0.92
)

// SmoothOptions bounds how far a transform may move between frames.
// A zero cap disables that clamp.
type SmoothOptions struct {
	// Alpha is the weight of the new (clamped) transform, in (0,1].
	Alpha float64

	// MaxTranslation is the largest displacement of the ghost per frame, in
	// the coordinate units of the landmark sets.
	MaxTranslation float64

	// MaxScaleChange is the largest relative scale change per frame.
	MaxScaleChange float64

	// MaxRotationDeg is the largest rotation change per frame, in degrees.
	MaxRotationDeg float64
}

// DefaultSmoothOptions returns the defaults for normalized coordinates.
func DefaultSmoothOptions() SmoothOptions {
	return SmoothOptions{
		Alpha:          DefaultAlpha,
		MaxTranslation: DefaultMaxTranslation,
		MaxScaleChange: DefaultMaxScaleChange,
		MaxRotationDeg: DefaultMaxRotationDeg,
	}
}

// Smooth moves prev toward raw. A nil prev (no history) returns raw as is.
//
// Translation is measured at pivot, normally the centroid of the reference
// anchors, so a subject turning or growing in place does not drag the ghost:
//   - displacement of pivot's image limited to MaxTranslation in magnitude
//   - scale ratio limited to [1-MaxScaleChange, 1+MaxScaleChange]
//   - rotation delta taken along the shortest path and limited to MaxRotationDeg
//
// Each component is clamped first, then blended. The returned translation
// places pivot at the blended position.
func Smooth(prev *geom.Transform, raw geom.Transform, pivot geom.Point, opts SmoothOptions) geom.Transform {
	if prev == nil {
		return raw
	}

	alpha := opts.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}

	// Displacement of the pivot
	from := prev.Apply(pivot)
	dp := raw.Apply(pivot).Sub(from)
	if limit := opts.MaxTranslation; limit > 0 {
		if n := dp.Norm(); n > limit {
			dp = dp.Scale(limit / n)
		}
	}
	at := from.Add(dp.Scale(alpha))

	// Scale
	scale := prev.Scale
	if raw.Scale > 0 && prev.Scale > 0 {
		ratio := raw.Scale / prev.Scale
		if limit := opts.MaxScaleChange; limit > 0 {
			ratio = math.Max(1-limit, math.Min(1+limit, ratio))
		}
		scale = prev.Scale + alpha*(prev.Scale*ratio-prev.Scale)
	}
	if scale <= 0 || math.IsNaN(scale) {
		scale = prev.Scale
	}

	// Rotation
	dr := geom.WrapAngle(raw.Rotation - prev.Rotation)
	if limit := opts.MaxRotationDeg * math.Pi / 180; limit > 0 {
		dr = math.Max(-limit, math.Min(limit, dr))
	}
	rotation := geom.WrapAngle(prev.Rotation + alpha*dr)

	return geom.Transform{
		Scale:       scale,
		Rotation:    rotation,
		Translation: at.Sub(geom.Rotate(pivot.Scale(scale), rotation)),
	}
}

// ShouldSwitch reports whether a candidate with bestErr should replace the
// current template whose error is previousErr.
func ShouldSwitch(bestErr, previousErr, threshold float64) bool {
	return bestErr <= previousErr*threshold
}
