// Package landmark provides the landmark set types, named joints and subject
// identities consumed by the coaching pipeline.
package landmark

import (
	"math"

	"github.com/ayusman/ghostcoach/internal/geom"
)

// HandJoint is a hand landmark index following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
type HandJoint int

const (
	Wrist HandJoint = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip
)

// NumHandLandmarks is the number of hand landmarks produced per hand.
const NumHandLandmarks = 21

// MaxHandLandmarks is the largest hand cardinality accepted. Some trackers
// append a palm-center point after the 21 MediaPipe joints.
const MaxHandLandmarks = 22

// BodyJoint is a body landmark index following the MediaPipe Pose convention.
type BodyJoint int

const (
	Nose BodyJoint = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// NumBodyLandmarks is the number of body landmarks produced per pose.
const NumBodyLandmarks = 33

// HandAnchors are the joints used to estimate a hand's rigid transform:
// wrist, index base and middle base.
var HandAnchors = []int{int(Wrist), int(IndexMCP), int(MiddleMCP)}

// BodyAnchors are the joints used to estimate a body's rigid transform:
// both shoulders and both hips.
var BodyAnchors = []int{int(LeftShoulder), int(RightShoulder), int(LeftHip), int(RightHip)}

// FingerChains lists each finger from its base to its tip, thumb first.
var FingerChains = [5][4]HandJoint{
	{ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
	{IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{RingMCP, RingPIP, RingDIP, RingTip},
	{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

// Set is an ordered landmark set for one subject in one frame. Index identity
// is the only relationship used: index k always means the same joint.
// Confidence is optional; a missing entry means full confidence.
type Set struct {
	Points     []geom.Point `json:"points"`
	Confidence []float64    `json:"confidence,omitempty"`
}

// NewSet creates a Set from points with no confidence information.
func NewSet(points []geom.Point) Set {
	return Set{Points: points}
}

// Len returns the number of landmarks in the set.
func (s Set) Len() int {
	return len(s.Points)
}

// Empty reports whether the set holds no landmarks. An empty set for a
// frame means the subject was not tracked.
func (s Set) Empty() bool {
	return len(s.Points) == 0
}

// Conf returns the confidence of landmark i, or 1 when none was supplied.
func (s Set) Conf(i int) float64 {
	if i < 0 || i >= len(s.Confidence) {
		return 1
	}
	return s.Confidence[i]
}

// Valid reports whether landmark i exists, is finite and has at least
// minConf confidence.
func (s Set) Valid(i int, minConf float64) bool {
	if i < 0 || i >= len(s.Points) {
		return false
	}
	if !s.Points[i].IsFinite() {
		return false
	}
	c := s.Conf(i)
	return !math.IsNaN(c) && c >= minConf
}

// At returns landmark i. The caller must check Valid first.
func (s Set) At(i int) geom.Point {
	return s.Points[i]
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := Set{Points: make([]geom.Point, len(s.Points))}
	copy(out.Points, s.Points)
	if s.Confidence != nil {
		out.Confidence = make([]float64, len(s.Confidence))
		copy(out.Confidence, s.Confidence)
	}
	return out
}

// WithPoints returns a new set sharing the confidence values of s but with
// the given points.
func (s Set) WithPoints(points []geom.Point) Set {
	out := Set{Points: points}
	if s.Confidence != nil {
		out.Confidence = make([]float64, len(s.Confidence))
		copy(out.Confidence, s.Confidence)
	}
	return out
}

// Normalize returns a copy of s translated so that the origin joint sits at
// (0,0) and scaled so that the origin-to-scaleRef distance is 1.0.
// A degenerate reference distance leaves the set translated only.
func Normalize(s Set, origin, scaleRef int) Set {
	if origin < 0 || origin >= s.Len() || scaleRef < 0 || scaleRef >= s.Len() {
		return s.Clone()
	}

	base := s.Points[origin]
	points := make([]geom.Point, s.Len())
	for i, p := range s.Points {
		points[i] = p.Sub(base)
	}

	// Avoid division by zero
	scale := points[scaleRef].Norm()
	if scale < 1e-10 {
		return s.WithPoints(points)
	}

	for i := range points {
		points[i] = points[i].Scale(1 / scale)
	}
	return s.WithPoints(points)
}
