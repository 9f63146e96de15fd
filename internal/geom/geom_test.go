package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func TestCentroidAndMeanDistance(t *testing.T) {
	t.Run("square centroid", func(t *testing.T) {
		pts := []Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
		c := Centroid(pts)

		assert.InDelta(t, 1.0, c.X, epsilon)
		assert.InDelta(t, 1.0, c.Y, epsilon)
		assert.InDelta(t, math.Sqrt2, MeanDistance(pts, c), epsilon)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, Point{}, Centroid(nil))
		assert.Equal(t, 0.0, MeanDistance(nil, Point{}))
	})
}

func TestRotateAndWrap(t *testing.T) {
	p := Rotate(Point{1, 0}, math.Pi/2)
	assert.InDelta(t, 0.0, p.X, epsilon)
	assert.InDelta(t, 1.0, p.Y, epsilon)

	assert.InDelta(t, math.Pi, WrapAngle(-math.Pi), epsilon)
	assert.InDelta(t, -math.Pi/2, WrapAngle(3*math.Pi/2), epsilon)
	assert.InDelta(t, 0.1, WrapAngle(0.1+4*math.Pi), epsilon)
}

func TestAngleAt(t *testing.T) {
	t.Run("right angle", func(t *testing.T) {
		assert.InDelta(t, 90.0, AngleAt(Point{1, 0}, Point{0, 0}, Point{0, 1}), 1e-6)
	})

	t.Run("straight chain", func(t *testing.T) {
		assert.InDelta(t, 180.0, AngleAt(Point{0, 0}, Point{1, 0}, Point{2, 0}), 1e-6)
	})

	t.Run("zero-length arm is straight, not NaN", func(t *testing.T) {
		got := AngleAt(Point{1, 1}, Point{1, 1}, Point{2, 0})
		assert.False(t, math.IsNaN(got))
		assert.Equal(t, 180.0, got)
	})
}

func TestHeading(t *testing.T) {
	_, ok := Heading(Point{})
	assert.False(t, ok)

	h, ok := Heading(Point{0, 2})
	assert.True(t, ok)
	assert.InDelta(t, math.Pi/2, h, epsilon)
}

func TestTransform(t *testing.T) {
	t.Run("identity leaves points unchanged", func(t *testing.T) {
		p := Point{3, -4}
		assert.Equal(t, p, Identity().Apply(p))
	})

	t.Run("scale rotate translate", func(t *testing.T) {
		tr := Transform{Scale: 2, Rotation: math.Pi / 2, Translation: Point{1, 1}}
		got := tr.Apply(Point{1, 0})
		assert.InDelta(t, 1.0, got.X, epsilon)
		assert.InDelta(t, 3.0, got.Y, epsilon)
	})

	t.Run("compose matches sequential application", func(t *testing.T) {
		a := Transform{Scale: 1.5, Rotation: 0.3, Translation: Point{2, -1}}
		b := Transform{Scale: 0.5, Rotation: -1.1, Translation: Point{0.4, 7}}
		p := Point{0.7, 0.2}

		want := b.Apply(a.Apply(p))
		got := a.Compose(b).Apply(p)
		assert.InDelta(t, want.X, got.X, 1e-9)
		assert.InDelta(t, want.Y, got.Y, 1e-9)
	})

	t.Run("non-finite points pass through", func(t *testing.T) {
		nan := Point{math.NaN(), 0}
		out := Transform{Scale: 2}.ApplyAll([]Point{nan, {1, 1}})
		assert.True(t, math.IsNaN(out[0].X))
		assert.Equal(t, Point{2, 2}, out[1])
	})
}

func TestBounds(t *testing.T) {
	b := Bounds([]Point{{1, 2}, {4, -1}, {math.Inf(1), 0}})
	assert.Equal(t, 1.0, b.Min[0])
	assert.Equal(t, -1.0, b.Min[1])
	assert.Equal(t, 4.0, b.Max[0])
	assert.Equal(t, 2.0, b.Max[1])
}
