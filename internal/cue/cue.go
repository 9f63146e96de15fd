// Package cue maps the worst joints of a frame to one short correction.
// The mapping is a fixed priority table per subject kind, so the same joints
// always produce the same cue regardless of how large the errors are.
package cue

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/shape"
)

// Fallback is the cue used when no rule matches.
const Fallback = "Stay inside the silhouette"

// Thresholds of the hand orientation cues.
const (
	RotationThresholdDeg = 15.0
	SpreadThreshold      = 0.1
)

// ErrBadRule is returned by NewMapper for an invalid rule table.
var ErrBadRule = errors.New("cue: invalid rule")

// Rule is a named joint group and the cue spoken when any of its joints is
// among the worst joints.
type Rule struct {
	Group  string
	Joints []int
	Text   string
}

// Context carries what the mapper needs to know about the subject.
type Context struct {
	Kind landmark.Kind
	Side landmark.Side
}

// ContextFor returns the context of subject.
func ContextFor(s landmark.Subject) Context {
	return Context{Kind: s.Kind, Side: s.Side}
}

func joints[T ~int](js ...T) []int {
	out := make([]int, len(js))
	for i, j := range js {
		out[i] = int(j)
	}
	return out
}

// HandRules are ordered fingertips, then the other finger joints, then the wrist.
func HandRules() []Rule {
	return []Rule{
		{Group: "thumb tip", Joints: joints(landmark.ThumbTip), Text: "Adjust your thumb position"},
		{Group: "index tip", Joints: joints(landmark.IndexTip), Text: "Move your index fingertip onto the ghost"},
		{Group: "middle tip", Joints: joints(landmark.MiddleTip), Text: "Move your middle fingertip onto the ghost"},
		{Group: "ring tip", Joints: joints(landmark.RingTip), Text: "Move your ring fingertip onto the ghost"},
		{Group: "pinky tip", Joints: joints(landmark.PinkyTip), Text: "Move your pinky tip onto the ghost"},
		{
			Group: "finger joints",
			Joints: joints(
				landmark.ThumbCMC, landmark.ThumbMCP, landmark.ThumbIP,
				landmark.IndexMCP, landmark.IndexPIP, landmark.IndexDIP,
				landmark.MiddleMCP, landmark.MiddlePIP, landmark.MiddleDIP,
				landmark.RingMCP, landmark.RingPIP, landmark.RingDIP,
				landmark.PinkyMCP, landmark.PinkyPIP, landmark.PinkyDIP,
			),
			Text: "Match the bend of your fingers",
		},
		{Group: "wrist", Joints: joints(landmark.Wrist), Text: "Move your wrist to line up with the ghost"},
	}
}

// BodyRules are ordered shoulders, hips, elbows, wrists, knees, feet, head.
func BodyRules() []Rule {
	return []Rule{
		{Group: "shoulders", Joints: joints(landmark.LeftShoulder, landmark.RightShoulder), Text: "Level your shoulders"},
		{Group: "hips", Joints: joints(landmark.LeftHip, landmark.RightHip), Text: "Square your hips"},
		{Group: "elbows", Joints: joints(landmark.LeftElbow, landmark.RightElbow), Text: "Adjust your elbows"},
		{
			Group: "wrists",
			Joints: joints(
				landmark.LeftWrist, landmark.RightWrist,
				landmark.LeftPinky, landmark.RightPinky,
				landmark.LeftIndex, landmark.RightIndex,
				landmark.LeftThumb, landmark.RightThumb,
			),
			Text: "Bring your hands into position",
		},
		{Group: "knees", Joints: joints(landmark.LeftKnee, landmark.RightKnee), Text: "Match the bend in your knees"},
		{
			Group: "feet",
			Joints: joints(
				landmark.LeftAnkle, landmark.RightAnkle,
				landmark.LeftHeel, landmark.RightHeel,
				landmark.LeftFootIndex, landmark.RightFootIndex,
			),
			Text: "Check your foot placement",
		},
		{
			Group: "head",
			Joints: joints(
				landmark.Nose, landmark.LeftEyeInner, landmark.LeftEye, landmark.LeftEyeOuter,
				landmark.RightEyeInner, landmark.RightEye, landmark.RightEyeOuter,
				landmark.LeftEar, landmark.RightEar, landmark.MouthLeft, landmark.MouthRight,
			),
			Text: "Keep your head aligned with the ghost",
		},
	}
}

// Mapper resolves worst joints to a cue. It is immutable and safe for
// concurrent use.
type Mapper struct {
	hand     []Rule
	body     []Rule
	fallback string
}

// NewMapper validates the rule tables and returns a Mapper. An empty
// fallback uses Fallback.
func NewMapper(hand, body []Rule, fallback string) (*Mapper, error) {
	if err := validate(hand, landmark.MaxHandLandmarks); err != nil {
		return nil, fmt.Errorf("hand rules: %w", err)
	}
	if err := validate(body, landmark.NumBodyLandmarks); err != nil {
		return nil, fmt.Errorf("body rules: %w", err)
	}
	if fallback == "" {
		fallback = Fallback
	}
	return &Mapper{
		hand:     append([]Rule(nil), hand...),
		body:     append([]Rule(nil), body...),
		fallback: fallback,
	}, nil
}

// DefaultMapper returns the mapper with the built-in tables.
func DefaultMapper() *Mapper {
	m, err := NewMapper(HandRules(), BodyRules(), Fallback)
	if err != nil {
		panic(err)
	}
	return m
}

func validate(rules []Rule, cardinality int) error {
	for i, r := range rules {
		if r.Text == "" {
			return fmt.Errorf("%w: rule %d (%s) has no text", ErrBadRule, i, r.Group)
		}
		if len(r.Joints) == 0 {
			return fmt.Errorf("%w: rule %d (%s) has no joints", ErrBadRule, i, r.Group)
		}
		for _, j := range r.Joints {
			if j < 0 || j >= cardinality {
				return fmt.Errorf("%w: rule %d (%s) joint %d out of range", ErrBadRule, i, r.Group, j)
			}
		}
	}
	return nil
}

// Map returns the text of the first rule, in table order, whose joints
// intersect topJoints. The order of topJoints does not matter.
func (m *Mapper) Map(topJoints []int, ctx Context) string {
	var rules []Rule
	switch ctx.Kind {
	case landmark.Hand:
		rules = m.hand
	case landmark.Body:
		rules = m.body
	default:
		return m.fallback
	}

	if len(topJoints) == 0 {
		return m.fallback
	}
	top := make(map[int]bool, len(topJoints))
	for _, j := range topJoints {
		top[j] = true
	}

	for _, r := range rules {
		for _, j := range r.Joints {
			if top[j] {
				return r.Text
			}
		}
	}
	return m.fallback
}

// Fallback returns the mapper's fallback cue.
func (m *Mapper) Fallback() string {
	return m.fallback
}

// Praise returns encouragement for a high score, or "" below 75.
func Praise(score float64) string {
	switch {
	case score >= 95:
		return "Perfect! Keep it up!"
	case score >= 85:
		return "Great job! Almost perfect!"
	case score >= 75:
		return "Almost there! Small adjustment needed"
	}
	return ""
}

// FingerCue returns the cue for a finger in the wrong state.
func FingerCue(c shape.Correction) string {
	if c.Finger == shape.Thumb {
		return "Adjust your thumb position"
	}
	name := c.Finger.String()
	if c.Finger == shape.Pinky {
		if c.Want == shape.Bent {
			return "Curl your pinky"
		}
		return "Extend your pinky"
	}
	if c.Want == shape.Bent {
		return "Curl your " + name + " finger more"
	}
	return "Extend your " + name + " finger"
}

// PaceCue returns a timing cue for a pace offset (see reference.Warp.Pace),
// or "" when the performance is within 20% of the reference pace.
func PaceCue(pace float64) string {
	switch {
	case pace > 0.2:
		return "Slow down a bit"
	case pace < -0.2:
		return "Try to keep up with the pace"
	}
	return ""
}

// RotationCue compares the heading of the wrist to middle knuckle vector of
// a hand with the ghost's and returns a turning cue when they differ by at
// least RotationThresholdDeg. Angles are in image coordinates (y down), so
// a positive difference is a clockwise turn on screen.
func RotationCue(observed, ghost landmark.Set, minConf float64) string {
	w, m := int(landmark.Wrist), int(landmark.MiddleMCP)
	if !observed.Valid(w, minConf) || !observed.Valid(m, minConf) || !ghost.Valid(w, 0) || !ghost.Valid(m, 0) {
		return ""
	}

	heading := func(s landmark.Set) float64 {
		v := s.At(m).Sub(s.At(w))
		return math.Atan2(v.Y, v.X)
	}
	delta := geom.WrapAngle(heading(observed)-heading(ghost)) * 180 / math.Pi
	switch {
	case delta >= RotationThresholdDeg:
		return "Rotate wrist counter-clockwise"
	case delta <= -RotationThresholdDeg:
		return "Rotate wrist clockwise"
	}
	return ""
}

// spreadPairs are neighbouring fingertips.
var spreadPairs = [][2]landmark.HandJoint{
	{landmark.ThumbTip, landmark.IndexTip},
	{landmark.IndexTip, landmark.MiddleTip},
	{landmark.MiddleTip, landmark.RingTip},
	{landmark.RingTip, landmark.PinkyTip},
}

// SpreadCue compares the mean distance between neighbouring fingertips of a
// hand with the ghost's. Outside a SpreadThreshold band around a ratio of 1
// it asks to open or close the fingers. All five tips must be valid.
func SpreadCue(observed, ghost landmark.Set, minConf float64) string {
	spread := func(s landmark.Set, minConf float64) (float64, bool) {
		var sum float64
		for _, p := range spreadPairs {
			a, b := int(p[0]), int(p[1])
			if !s.Valid(a, minConf) || !s.Valid(b, minConf) {
				return 0, false
			}
			sum += s.At(a).Dist(s.At(b))
		}
		return sum / float64(len(spreadPairs)), true
	}

	obs, ok := spread(observed, minConf)
	if !ok {
		return ""
	}
	ref, ok := spread(ghost, 0)
	if !ok || ref < 1e-6 {
		return ""
	}

	switch ratio := obs / ref; {
	case ratio < 1-SpreadThreshold:
		return "Open your fingers wider"
	case ratio > 1+SpreadThreshold:
		return "Close your fingers slightly"
	}
	return ""
}
