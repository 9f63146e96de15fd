package reference

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func shifted(s landmark.Set, dx float64) landmark.Set {
	return s.WithPoints(geom.Transform{Scale: 1, Translation: geom.Point{X: dx}}.ApplyAll(s.Points))
}

// sweep is a palm moving right by 0.01 per frame.
func sweep(n int) []landmark.Set {
	frames := make([]landmark.Set, n)
	for i := range frames {
		frames[i] = shifted(landmark.OpenPalm(), float64(i)*0.01)
	}
	return frames
}

func TestSequence(t *testing.T) {
	seq := Sequence{Name: "sweep", Kind: landmark.Hand, FPS: 10, Frames: sweep(10)}
	require.NoError(t, seq.Validate())

	assert.False(t, seq.IsStatic())
	assert.Equal(t, time.Second, seq.Duration())
	assert.Equal(t, 0, seq.FrameIndex(0))
	assert.Equal(t, 3, seq.FrameIndex(350*time.Millisecond))

	t.Run("playback loops", func(t *testing.T) {
		assert.Equal(t, 2, seq.FrameIndex(1200*time.Millisecond))
		assert.Equal(t, seq.Frames[2], seq.FrameAt(1200*time.Millisecond))
	})

	t.Run("static", func(t *testing.T) {
		st := Static("palm", landmark.Hand, landmark.OpenPalm())
		require.NoError(t, st.Validate())
		assert.True(t, st.IsStatic())
		assert.Equal(t, time.Duration(0), st.Duration())
		assert.Equal(t, st.Frames[0], st.FrameAt(time.Hour))
	})

	t.Run("retime", func(t *testing.T) {
		fast := seq.Retime(20)
		assert.Equal(t, 20.0, fast.FPS)
		assert.Len(t, fast.Frames, 20)
		assert.InDelta(t, seq.Duration().Seconds(), fast.Duration().Seconds(), epsilon)
		assert.InDelta(t, seq.Frames[9].Points[0].X, fast.Frames[19].Points[0].X, epsilon)
	})
}

func TestSequence_Validate(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
		err  error
	}{
		{"no name", Sequence{Kind: landmark.Hand, Frames: sweep(1)}, nil},
		{"no frames", Sequence{Name: "x", Kind: landmark.Hand}, ErrEmptySequence},
		{"unknown kind", Sequence{Name: "x", Frames: sweep(1)}, landmark.ErrUnknownKind},
		{"animated without fps", Sequence{Name: "x", Kind: landmark.Hand, Frames: sweep(3)}, nil},
		{"wrong cardinality", Sequence{Name: "x", Kind: landmark.Body, Frames: sweep(1)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seq.Validate()
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestAverage(t *testing.T) {
	t.Run("normalized samples average to the shared shape", func(t *testing.T) {
		a := landmark.OpenPalm()
		b := a.WithPoints(geom.Transform{Scale: 2, Translation: geom.Point{X: 0.3, Y: -0.1}}.ApplyAll(a.Points))

		avg, err := Average([]landmark.Set{a, b}, int(landmark.Wrist), int(landmark.MiddleMCP))
		require.NoError(t, err)

		want := landmark.Normalize(a, int(landmark.Wrist), int(landmark.MiddleMCP))
		for i := range want.Points {
			assert.InDelta(t, want.Points[i].X, avg.Points[i].X, epsilon)
			assert.InDelta(t, want.Points[i].Y, avg.Points[i].Y, epsilon)
		}
	})

	t.Run("raw average", func(t *testing.T) {
		a := landmark.NewSet([]geom.Point{{0, 0}, {2, 2}})
		b := landmark.NewSet([]geom.Point{{2, 0}, {4, 4}})

		avg, err := Average([]landmark.Set{a, b}, -1, -1)
		require.NoError(t, err)
		assert.Equal(t, []geom.Point{{1, 0}, {3, 3}}, avg.Points)
		assert.Equal(t, []float64{1, 1}, avg.Confidence)
	})

	t.Run("missing points are skipped", func(t *testing.T) {
		a := landmark.NewSet([]geom.Point{{0, 0}, {math.NaN(), 0}})
		b := landmark.NewSet([]geom.Point{{2, 0}, {4, 4}})

		avg, err := Average([]landmark.Set{a, b}, -1, -1)
		require.NoError(t, err)
		assert.Equal(t, geom.Point{X: 4, Y: 4}, avg.Points[1])
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Average(nil, 0, 1)
		assert.Error(t, err)

		_, err = Average([]landmark.Set{landmark.OpenPalm(), landmark.TPose()}, 0, 1)
		assert.Error(t, err)
	})
}

func TestResample(t *testing.T) {
	frames := sweep(3)

	out := Resample(frames, 5)
	require.Len(t, out, 5)
	assert.InDelta(t, frames[0].Points[0].X, out[0].Points[0].X, epsilon)
	assert.InDelta(t, frames[0].Points[0].X+0.005, out[1].Points[0].X, epsilon)
	assert.InDelta(t, frames[2].Points[0].X, out[4].Points[0].X, epsilon)

	assert.Nil(t, Resample(nil, 4))
	assert.Len(t, Resample(frames[:1], 4), 1)
}

func TestAlign(t *testing.T) {
	ref := sweep(10)

	t.Run("same sequence", func(t *testing.T) {
		w := Align(ref, ref, 0)
		assert.InDelta(t, 0.0, w.Distance, epsilon)
		assert.Len(t, w.Path, 10)
		assert.InDelta(t, 0.0, w.Pace(), epsilon)
	})

	t.Run("fast performance", func(t *testing.T) {
		var fast []landmark.Set
		for i := 0; i < len(ref); i += 2 {
			fast = append(fast, ref[i])
		}
		assert.Greater(t, Align(fast, ref, 0).Pace(), 0.2)
	})

	t.Run("slow performance", func(t *testing.T) {
		var slow []landmark.Set
		for _, f := range ref {
			slow = append(slow, f, f)
		}
		assert.Less(t, Align(slow, ref, 0).Pace(), -0.2)
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, math.IsInf(Align(nil, ref, 0).Distance, 1))
		assert.Equal(t, 0.0, Warp{}.Pace())
	})
}
