package cue

import (
	"math"
	"testing"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapper_Body(t *testing.T) {
	m := DefaultMapper()
	ctx := ContextFor(landmark.BodySubject())
	shoulder := int(landmark.LeftShoulder)
	wrist := int(landmark.RightWrist)

	t.Run("priority ignores top joint order", func(t *testing.T) {
		assert.Equal(t, "Level your shoulders", m.Map([]int{shoulder, wrist}, ctx))
		assert.Equal(t, "Level your shoulders", m.Map([]int{wrist, shoulder}, ctx))
	})

	tests := []struct {
		name string
		top  []int
		want string
	}{
		{"hips beat elbows", []int{int(landmark.LeftElbow), int(landmark.RightHip)}, "Square your hips"},
		{"elbows beat knees", []int{int(landmark.LeftKnee), int(landmark.RightElbow)}, "Adjust your elbows"},
		{"wrists", []int{wrist}, "Bring your hands into position"},
		{"knees beat feet", []int{int(landmark.LeftHeel), int(landmark.RightKnee)}, "Match the bend in your knees"},
		{"feet beat head", []int{int(landmark.Nose), int(landmark.RightFootIndex)}, "Check your foot placement"},
		{"head", []int{int(landmark.LeftEar)}, "Keep your head aligned with the ghost"},
		{"no joints", nil, Fallback},
		{"unknown joint", []int{99}, Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.top, ctx))
		})
	}
}

func TestMapper_Hand(t *testing.T) {
	m := DefaultMapper()
	ctx := ContextFor(landmark.HandSubject(landmark.Left))

	assert.Equal(t, "Move your index fingertip onto the ghost",
		m.Map([]int{int(landmark.Wrist), int(landmark.IndexPIP), int(landmark.IndexTip)}, ctx))
	assert.Equal(t, "Match the bend of your fingers",
		m.Map([]int{int(landmark.Wrist), int(landmark.RingDIP)}, ctx))
	assert.Equal(t, "Move your wrist to line up with the ghost", m.Map([]int{int(landmark.Wrist)}, ctx))

	t.Run("same joint index means different things per kind", func(t *testing.T) {
		body := ContextFor(landmark.BodySubject())
		assert.NotEqual(t, m.Map([]int{12}, ctx), m.Map([]int{12}, body))
	})

	t.Run("unknown kind falls back", func(t *testing.T) {
		assert.Equal(t, Fallback, m.Map([]int{0}, Context{Kind: landmark.Kind(7)}))
	})
}

func TestNewMapper(t *testing.T) {
	t.Run("joint out of range", func(t *testing.T) {
		_, err := NewMapper([]Rule{{Group: "x", Joints: []int{40}, Text: "x"}}, BodyRules(), "")
		assert.ErrorIs(t, err, ErrBadRule)
	})

	t.Run("missing text", func(t *testing.T) {
		_, err := NewMapper(HandRules(), []Rule{{Group: "x", Joints: []int{1}}}, "")
		assert.ErrorIs(t, err, ErrBadRule)
	})

	t.Run("custom fallback", func(t *testing.T) {
		m, err := NewMapper(nil, nil, "Follow the ghost")
		require.NoError(t, err)
		assert.Equal(t, "Follow the ghost", m.Map([]int{0}, ContextFor(landmark.BodySubject())))
		assert.Equal(t, "Follow the ghost", m.Fallback())
	})
}

func TestPraise(t *testing.T) {
	assert.Equal(t, "Perfect! Keep it up!", Praise(95))
	assert.Equal(t, "Great job! Almost perfect!", Praise(90))
	assert.Equal(t, "Almost there! Small adjustment needed", Praise(75))
	assert.Equal(t, "", Praise(74.9))
}

func TestFingerCue(t *testing.T) {
	assert.Equal(t, "Curl your index finger more", FingerCue(shape.Correction{Finger: shape.Index, Want: shape.Bent}))
	assert.Equal(t, "Extend your middle finger", FingerCue(shape.Correction{Finger: shape.Middle, Want: shape.Extended}))
	assert.Equal(t, "Extend your pinky", FingerCue(shape.Correction{Finger: shape.Pinky, Want: shape.Extended}))
	assert.Equal(t, "Adjust your thumb position", FingerCue(shape.Correction{Finger: shape.Thumb, Want: shape.Bent}))
}

func TestPaceCue(t *testing.T) {
	assert.Equal(t, "Slow down a bit", PaceCue(0.5))
	assert.Equal(t, "Try to keep up with the pace", PaceCue(-0.5))
	assert.Equal(t, "", PaceCue(0.1))
}

// turned rotates a hand about its wrist by deg degrees.
func turned(s landmark.Set, deg float64) landmark.Set {
	pivot := s.At(int(landmark.Wrist))
	tr := geom.Transform{Scale: 1, Rotation: deg * math.Pi / 180}
	tr.Translation = pivot.Sub(geom.Rotate(pivot, tr.Rotation))
	return s.WithPoints(tr.ApplyAll(s.Points))
}

// squeezed scales the fingertip distances of a hand by f.
func squeezed(s landmark.Set, f float64) landmark.Set {
	out := s.Clone()
	mid := s.At(int(landmark.MiddleTip))
	for _, j := range []landmark.HandJoint{landmark.ThumbTip, landmark.IndexTip, landmark.RingTip, landmark.PinkyTip} {
		out.Points[j] = mid.Add(out.Points[j].Sub(mid).Scale(f))
	}
	return out
}

func TestRotationCue(t *testing.T) {
	palm := landmark.OpenPalm()

	assert.Equal(t, "", RotationCue(palm, palm, 0.5))
	assert.Equal(t, "", RotationCue(turned(palm, 14), palm, 0.5))
	assert.Equal(t, "Rotate wrist counter-clockwise", RotationCue(turned(palm, 20), palm, 0.5))
	assert.Equal(t, "Rotate wrist clockwise", RotationCue(turned(palm, -20), palm, 0.5))

	t.Run("unreliable wrist", func(t *testing.T) {
		obs := turned(palm, 40)
		obs.Confidence = make([]float64, obs.Len())
		for i := range obs.Confidence {
			obs.Confidence[i] = 1
		}
		obs.Confidence[landmark.Wrist] = 0.1
		assert.Equal(t, "", RotationCue(obs, palm, 0.5))
	})
}

func TestSpreadCue(t *testing.T) {
	palm := landmark.OpenPalm()

	assert.Equal(t, "", SpreadCue(palm, palm, 0.5))
	assert.Equal(t, "", SpreadCue(squeezed(palm, 0.95), palm, 0.5))
	assert.Equal(t, "Open your fingers wider", SpreadCue(squeezed(palm, 0.5), palm, 0.5))
	assert.Equal(t, "Close your fingers slightly", SpreadCue(squeezed(palm, 1.5), palm, 0.5))

	t.Run("rotation does not change the spread", func(t *testing.T) {
		assert.Equal(t, "", SpreadCue(turned(palm, 45), palm, 0.5))
	})

	t.Run("collapsed ghost", func(t *testing.T) {
		ghost := squeezed(palm, 0)
		assert.Equal(t, "", SpreadCue(palm, ghost, 0.5))
	})
}
