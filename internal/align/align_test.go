package align

import (
	"math"
	"testing"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func newHandAligner(t *testing.T, mode Mode) *Aligner {
	t.Helper()
	opts, err := DefaultOptions(landmark.Hand)
	require.NoError(t, err)
	opts.Mode = mode
	a, err := New(opts, landmark.NumHandLandmarks)
	require.NoError(t, err)
	return a
}

// moved applies a known similarity transform to every point of s.
func moved(s landmark.Set, tr geom.Transform) landmark.Set {
	return s.WithPoints(tr.ApplyAll(s.Points))
}

func anchorPoints(s landmark.Set, anchors []int) []geom.Point {
	pts := make([]geom.Point, len(anchors))
	for i, idx := range anchors {
		pts[i] = s.Points[idx]
	}
	return pts
}

func TestNew_Validation(t *testing.T) {
	t.Run("too few anchors", func(t *testing.T) {
		_, err := New(Options{Anchors: []int{0}}, 21)
		assert.ErrorIs(t, err, ErrTooFewAnchors)
	})

	t.Run("anchor out of range", func(t *testing.T) {
		_, err := New(Options{Anchors: []int{0, 21}}, 21)
		assert.ErrorIs(t, err, ErrAnchorOutOfRange)
	})

	t.Run("body anchors do not fit a hand", func(t *testing.T) {
		_, err := New(Options{Anchors: landmark.BodyAnchors}, landmark.NumHandLandmarks)
		assert.ErrorIs(t, err, ErrAnchorOutOfRange)
	})

	t.Run("duplicate anchor", func(t *testing.T) {
		_, err := New(Options{Anchors: []int{0, 5, 5}}, 21)
		assert.ErrorIs(t, err, ErrBadOption)
	})

	t.Run("negative max rotation", func(t *testing.T) {
		_, err := New(Options{Anchors: []int{0, 5}, MaxRotation: -1}, 21)
		assert.ErrorIs(t, err, ErrBadOption)
	})
}

func TestAlign_RecoversKnownTransform(t *testing.T) {
	for _, mode := range []Mode{ModeAnchor, ModeProcrustes} {
		a := newHandAligner(t, mode)
		ref := landmark.OpenPalm()
		want := geom.Transform{Scale: 1.7, Rotation: 0.4, Translation: geom.Point{X: 0.2, Y: -0.1}}
		obs := moved(ref, want)

		res := a.Align(ref, obs)

		assert.Equal(t, 1.0, res.Quality)
		assert.InDelta(t, want.Scale, res.Transform.Scale, 1e-9)
		assert.InDelta(t, want.Rotation, res.Transform.Rotation, 1e-9)
		assert.InDelta(t, want.Translation.X, res.Transform.Translation.X, 1e-9)
		assert.InDelta(t, want.Translation.Y, res.Transform.Translation.Y, 1e-9)

		for i := range obs.Points {
			assert.InDelta(t, obs.Points[i].X, res.Aligned.Points[i].X, 1e-9)
			assert.InDelta(t, obs.Points[i].Y, res.Aligned.Points[i].Y, 1e-9)
		}
	}
}

func TestAlign_CentroidCoincides(t *testing.T) {
	a := newHandAligner(t, ModeAnchor)
	ref := landmark.OpenPalm()
	obs := landmark.Fist()
	obs = moved(obs, geom.Transform{Scale: 0.8, Rotation: -0.3, Translation: geom.Point{X: 0.05, Y: 0.02}})

	res := a.Align(ref, obs)

	alignedAnchors := res.Transform.ApplyAll(anchorPoints(ref, landmark.HandAnchors))
	got := geom.Centroid(alignedAnchors)
	want := geom.Centroid(anchorPoints(obs, landmark.HandAnchors))
	assert.InDelta(t, want.X, got.X, tolerance)
	assert.InDelta(t, want.Y, got.Y, tolerance)
}

func TestAlign_Idempotent(t *testing.T) {
	a := newHandAligner(t, ModeAnchor)
	ref := landmark.Victory()
	obs := moved(landmark.OpenPalm(), geom.Transform{Scale: 2.1, Rotation: 1.2, Translation: geom.Point{X: -0.3, Y: 0.4}})

	first := a.Align(ref, obs)
	second := a.Align(first.Aligned, obs)

	assert.InDelta(t, 1.0, second.Transform.Scale, 1e-9)
	assert.InDelta(t, 0.0, second.Transform.Rotation, 1e-9)
	assert.InDelta(t, 0.0, second.Transform.Translation.X, 1e-9)
	assert.InDelta(t, 0.0, second.Transform.Translation.Y, 1e-9)
}

func TestAlign_DegenerateInput(t *testing.T) {
	a := newHandAligner(t, ModeAnchor)
	ref := landmark.OpenPalm()

	t.Run("empty observed set", func(t *testing.T) {
		res := a.Align(ref, landmark.Set{})
		assert.Equal(t, 0.0, res.Quality)
		assert.Equal(t, geom.Identity(), res.Transform)
		assert.Equal(t, ref.Points, res.Aligned.Points)
	})

	t.Run("one valid anchor", func(t *testing.T) {
		obs := landmark.OpenPalm()
		obs.Confidence = make([]float64, obs.Len())
		obs.Confidence[landmark.Wrist] = 1

		res := a.Align(ref, obs)
		assert.InDelta(t, 1.0/3.0, res.Quality, tolerance)
		assert.Less(t, res.Quality, 1.0)
		assert.True(t, res.Degenerate())
		assert.Equal(t, geom.Transform{Scale: 1, Rotation: 0, Translation: geom.Point{}}, res.Transform)
	})

	t.Run("two valid anchors still align", func(t *testing.T) {
		obs := landmark.OpenPalm()
		obs.Points[landmark.MiddleMCP] = geom.Point{X: math.NaN(), Y: 0}

		res := a.Align(ref, obs)
		assert.InDelta(t, 2.0/3.0, res.Quality, tolerance)
		assert.False(t, res.Degenerate())
		assert.InDelta(t, 1.0, res.Transform.Scale, tolerance)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		obs := moved(ref, geom.Transform{Scale: 3, Translation: geom.Point{X: 1, Y: 1}})
		before := ref.Clone()
		a.Align(ref, obs)
		assert.Equal(t, before, ref)
	})
}

func TestAlign_ZeroLengthAnchorVector(t *testing.T) {
	a := newHandAligner(t, ModeAnchor)

	ref := landmark.OpenPalm()
	ref.Points[landmark.IndexMCP] = ref.Points[landmark.Wrist]
	obs := moved(landmark.OpenPalm(), geom.Transform{Scale: 1, Rotation: 0.5})

	res := a.Align(ref, obs)

	assert.Equal(t, 0.0, res.Transform.Rotation)
	assert.False(t, math.IsNaN(res.Transform.Scale))
	assert.Greater(t, res.Transform.Scale, 0.0)
}

func TestAlign_DegenerateReferenceExtent(t *testing.T) {
	a := newHandAligner(t, ModeAnchor)

	ref := landmark.OpenPalm()
	for _, idx := range landmark.HandAnchors {
		ref.Points[idx] = geom.Point{X: 0.5, Y: 0.5}
	}
	res := a.Align(ref, landmark.OpenPalm())

	assert.Equal(t, 1.0, res.Transform.Scale)
}

func TestAlign_RotationDisabledAndClamped(t *testing.T) {
	ref := landmark.TPose()
	obs := moved(ref, geom.Transform{Scale: 1, Rotation: 0.5})

	t.Run("body default ignores rotation", func(t *testing.T) {
		opts, err := DefaultOptions(landmark.Body)
		require.NoError(t, err)
		a, err := New(opts, landmark.NumBodyLandmarks)
		require.NoError(t, err)

		assert.Equal(t, 0.0, a.Align(ref, obs).Transform.Rotation)
	})

	t.Run("clamp to max rotation", func(t *testing.T) {
		opts, err := DefaultOptions(landmark.Body)
		require.NoError(t, err)
		opts.EnableRotation = true
		opts.MaxRotation = 0.2
		a, err := New(opts, landmark.NumBodyLandmarks)
		require.NoError(t, err)

		assert.InDelta(t, 0.2, a.Align(ref, obs).Transform.Rotation, tolerance)
	})
}

func TestFitError(t *testing.T) {
	a := landmark.NewSet([]geom.Point{{0, 0}, {1, 0}})
	b := landmark.NewSet([]geom.Point{{0, 0}, {1, 2}})

	assert.InDelta(t, 1.0, FitError(a, b, 0), tolerance)
	assert.True(t, math.IsInf(FitError(a, landmark.Set{}, 0), 1))
}
