// Package align computes the rigid similarity transform that maps a reference
// ("ghost") skeleton onto an observed subject and applies it to the whole
// reference.
package align

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
)

var (
	// ErrTooFewAnchors is returned when fewer than two anchors are configured.
	ErrTooFewAnchors = errors.New("align: at least two anchors are required")

	// ErrAnchorOutOfRange is returned when an anchor index does not exist in
	// the domain's landmark set.
	ErrAnchorOutOfRange = errors.New("align: anchor index out of range")

	// ErrBadOption is returned for invalid numeric options.
	ErrBadOption = errors.New("align: invalid option")
)

// Mode selects how the rotation is estimated.
type Mode int

const (
	// ModeAnchor takes the angle between the first two valid anchor vectors.
	ModeAnchor Mode = iota
	// ModeProcrustes takes the least-squares rotation over all valid anchors.
	ModeProcrustes
)

// Options configures an Aligner.
type Options struct {
	// Anchors are the landmark indices used to estimate the transform.
	// They are never used for scoring.
	Anchors []int

	// EnableRotation turns on rotation estimation. Hands always rotate;
	// bodies only when explicitly requested.
	EnableRotation bool

	// MaxRotation clamps the rotation magnitude in radians. 0 disables the clamp.
	MaxRotation float64

	// MinConfidence is the observed confidence an anchor needs to count.
	MinConfidence float64

	// Mode selects the rotation estimator.
	Mode Mode
}

// DefaultOptions returns the anchor configuration for kind.
func DefaultOptions(kind landmark.Kind) (Options, error) {
	anchors, err := kind.Anchors()
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Anchors:       anchors,
		MinConfidence: 0.5,
		Mode:          ModeAnchor,
	}
	switch kind {
	case landmark.Hand:
		opts.EnableRotation = true
	case landmark.Body:
		opts.EnableRotation = false
	}
	return opts, nil
}

// Result is the outcome of aligning a reference to an observed set.
type Result struct {
	// Aligned is the reference with the transform applied to every point.
	Aligned landmark.Set

	// Transform maps reference coordinates to observed coordinates.
	Transform geom.Transform

	// Quality is the fraction of requested anchors that were usable this
	// frame. Below 1 means reduced trust, not failure.
	Quality float64

	// Anchors is the number of anchors that were usable this frame.
	Anchors int

	// Pivot is the centroid of the usable reference anchors, in reference
	// coordinates. The transform maps it onto the observed anchor centroid.
	Pivot geom.Point
}

// Degenerate reports whether too few anchors were usable and the transform
// is the identity fallback.
func (r Result) Degenerate() bool {
	return r.Anchors < 2
}

// Aligner estimates reference-to-observed transforms. It holds no per-frame
// state and is safe for concurrent use.
type Aligner struct {
	opts Options
}

// New validates opts against the domain's landmark cardinality and returns
// an Aligner.
func New(opts Options, cardinality int) (*Aligner, error) {
	if len(opts.Anchors) < 2 {
		return nil, ErrTooFewAnchors
	}

	seen := make(map[int]bool, len(opts.Anchors))
	for _, idx := range opts.Anchors {
		if idx < 0 || idx >= cardinality {
			return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrAnchorOutOfRange, idx, cardinality)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: duplicate anchor %d", ErrBadOption, idx)
		}
		seen[idx] = true
	}

	if opts.MaxRotation < 0 || math.IsNaN(opts.MaxRotation) {
		return nil, fmt.Errorf("%w: max rotation %v", ErrBadOption, opts.MaxRotation)
	}
	if opts.MinConfidence < 0 || opts.MinConfidence > 1 {
		return nil, fmt.Errorf("%w: min confidence %v", ErrBadOption, opts.MinConfidence)
	}
	if opts.Mode != ModeAnchor && opts.Mode != ModeProcrustes {
		return nil, fmt.Errorf("%w: mode %d", ErrBadOption, opts.Mode)
	}

	opts.Anchors = append([]int(nil), opts.Anchors...)
	return &Aligner{opts: opts}, nil
}

// Options returns a copy of the aligner's configuration.
func (a *Aligner) Options() Options {
	opts := a.opts
	opts.Anchors = append([]int(nil), a.opts.Anchors...)
	return opts
}

// Align maps reference onto observed.
//
// Algorithm:
//  1. Keep the anchors present and finite in both sets; quality = valid/requested.
//     With fewer than two, return the identity transform.
//  2. Centroids of the valid reference and observed anchors.
//  3. scale = observed mean spread / reference mean spread (1 when degenerate).
//  4. Rotation, when enabled, from the configured estimator, optionally clamped.
//  5. Translation moves the transformed reference centroid onto the observed centroid.
//  6. Apply the transform to every reference point.
func (a *Aligner) Align(reference, observed landmark.Set) Result {
	var refPts, obsPts []geom.Point
	for _, idx := range a.opts.Anchors {
		if reference.Valid(idx, 0) && observed.Valid(idx, a.opts.MinConfidence) {
			refPts = append(refPts, reference.At(idx))
			obsPts = append(obsPts, observed.At(idx))
		}
	}

	quality := float64(len(refPts)) / float64(len(a.opts.Anchors))
	if len(refPts) < 2 {
		return Result{
			Aligned:   reference.Clone(),
			Transform: geom.Identity(),
			Quality:   quality,
			Anchors:   len(refPts),
			Pivot:     geom.Centroid(refPts),
		}
	}

	t := a.estimate(refPts, obsPts)
	return Result{
		Aligned:   reference.WithPoints(t.ApplyAll(reference.Points)),
		Transform: t,
		Quality:   quality,
		Anchors:   len(refPts),
		Pivot:     geom.Centroid(refPts),
	}
}

func (a *Aligner) estimate(refPts, obsPts []geom.Point) geom.Transform {
	refCenter := geom.Centroid(refPts)
	obsCenter := geom.Centroid(obsPts)

	scale := 1.0
	refSpread := geom.MeanDistance(refPts, refCenter)
	obsSpread := geom.MeanDistance(obsPts, obsCenter)
	if refSpread > geom.Epsilon && obsSpread > geom.Epsilon {
		scale = obsSpread / refSpread
	}

	var rotation float64
	if a.opts.EnableRotation {
		switch a.opts.Mode {
		case ModeProcrustes:
			rotation = procrustesRotation(refPts, obsPts, refCenter, obsCenter)
		default:
			rotation = anchorRotation(refPts, obsPts)
		}
		if limit := a.opts.MaxRotation; limit > 0 {
			rotation = math.Max(-limit, math.Min(limit, rotation))
		}
	}

	translation := obsCenter.Sub(geom.Rotate(refCenter.Scale(scale), rotation))
	return geom.Transform{
		Scale:       scale,
		Rotation:    rotation,
		Translation: translation,
	}
}

// anchorRotation returns the angle from the reference vector to the observed
// vector formed by the first two anchors. Zero-length vectors give 0.
func anchorRotation(refPts, obsPts []geom.Point) float64 {
	refHeading, okRef := geom.Heading(refPts[1].Sub(refPts[0]))
	obsHeading, okObs := geom.Heading(obsPts[1].Sub(obsPts[0]))
	if !okRef || !okObs {
		return 0
	}
	return geom.WrapAngle(obsHeading - refHeading)
}

// FitError returns the mean Euclidean distance between aligned and observed
// over the indices valid in both. It is +Inf when no index matches.
func FitError(aligned, observed landmark.Set, minConf float64) float64 {
	n := min(aligned.Len(), observed.Len())

	var total float64
	var count int
	for i := 0; i < n; i++ {
		if !aligned.Valid(i, 0) || !observed.Valid(i, minConf) {
			continue
		}
		total += aligned.At(i).Dist(observed.At(i))
		count++
	}

	if count == 0 {
		return math.Inf(1)
	}
	return total / float64(count)
}
