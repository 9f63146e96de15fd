// Package score turns the per-joint distance between an aligned reference and
// an observed landmark set into a stable 0-100 score and a short list of the
// joints that need the most correction.
package score

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
)

// ErrBadOption is returned by New for invalid options.
var ErrBadOption = errors.New("score: invalid option")

// Options configures a Scorer.
type Options struct {
	// Weights maps a joint index to its importance. Joints not listed use
	// DefaultWeight.
	Weights       map[int]float64
	DefaultWeight float64

	// Exclude lists joints that never contribute to the score.
	Exclude []int

	// MinConfidence is the observed confidence a joint needs to be scored.
	MinConfidence float64

	// Sensitivity converts the average weighted error into score points:
	// raw = 100 - avg*Sensitivity.
	Sensitivity float64

	// Tolerance is a dead zone subtracted from every joint distance.
	Tolerance float64

	// EMAAlpha is the weight of the newest raw score in the overall score.
	EMAAlpha float64

	// TopN is the number of worst joints reported.
	TopN int

	// AngleWeight mixes in the joint-angle score over Chains; 0 scores
	// positions only.
	AngleWeight float64
	Chains      [][]int
}

// DefaultOptions returns the options for normalized [0,1] coordinates.
func DefaultOptions(kind landmark.Kind) Options {
	opts := Options{
		DefaultWeight: 1.0,
		MinConfidence: 0.5,
		Sensitivity:   500,
		EMAAlpha:      0.3,
		TopN:          3,
	}
	switch kind {
	case landmark.Hand:
		opts.Weights = HandWeights()
		opts.Chains = HandChains()
	case landmark.Body:
		opts.Weights = BodyWeights()
		opts.Chains = BodyChains()
	}
	return opts
}

// PixelOptions returns options for pixel coordinates: a dead zone of a few
// pixels and one score point per pixel of average error.
func PixelOptions(kind landmark.Kind) Options {
	opts := DefaultOptions(kind)
	opts.Sensitivity = 1.0
	opts.Tolerance = 8
	return opts
}

// HandWeights weights fingertips above the rest of the hand.
func HandWeights() map[int]float64 {
	return map[int]float64{
		int(landmark.Wrist):     1.0,
		int(landmark.ThumbTip):  1.5,
		int(landmark.IndexTip):  1.5,
		int(landmark.MiddleTip): 1.5,
		int(landmark.RingTip):   1.2,
		int(landmark.PinkyTip):  1.2,
	}
}

// BodyWeights weights the limbs above the face and feet.
func BodyWeights() map[int]float64 {
	w := map[int]float64{
		int(landmark.LeftShoulder):  1.2,
		int(landmark.RightShoulder): 1.2,
		int(landmark.LeftElbow):     1.2,
		int(landmark.RightElbow):    1.2,
		int(landmark.LeftWrist):     1.5,
		int(landmark.RightWrist):    1.5,
		int(landmark.LeftHip):       1.2,
		int(landmark.RightHip):      1.2,
		int(landmark.LeftKnee):      1.2,
		int(landmark.RightKnee):     1.2,
		int(landmark.LeftAnkle):     1.0,
		int(landmark.RightAnkle):    1.0,
	}
	for j := landmark.Nose; j <= landmark.MouthRight; j++ {
		w[int(j)] = 0.3
	}
	return w
}

// HandChains returns each finger as a wrist-to-tip chain.
func HandChains() [][]int {
	chains := make([][]int, 0, len(landmark.FingerChains))
	for _, f := range landmark.FingerChains {
		chains = append(chains, []int{int(landmark.Wrist), int(f[0]), int(f[1]), int(f[2]), int(f[3])})
	}
	return chains
}

// BodyChains returns the four limbs as chains.
func BodyChains() [][]int {
	return [][]int{
		{int(landmark.LeftShoulder), int(landmark.LeftElbow), int(landmark.LeftWrist)},
		{int(landmark.RightShoulder), int(landmark.RightElbow), int(landmark.RightWrist)},
		{int(landmark.LeftHip), int(landmark.LeftKnee), int(landmark.LeftAnkle)},
		{int(landmark.RightHip), int(landmark.RightKnee), int(landmark.RightAnkle)},
		{int(landmark.LeftShoulder), int(landmark.LeftHip), int(landmark.LeftKnee)},
		{int(landmark.RightShoulder), int(landmark.RightHip), int(landmark.RightKnee)},
	}
}

// Result is the score of one frame.
type Result struct {
	// Overall is the EMA-smoothed score in [0,100].
	Overall float64

	// Raw is this frame's unsmoothed score.
	Raw        float64
	Positional float64
	Angular    float64

	// TopJoints are the worst joints by weighted error, worst first. Joints
	// with zero error are never listed.
	TopJoints []int

	// JointErrors holds the weighted error of every scored joint.
	JointErrors map[int]float64

	// Valid is the number of joints that were scored.
	Valid int
}

// Scorer holds the EMA state of one subject. It is not safe for concurrent
// use; give every subject its own Scorer.
type Scorer struct {
	opts    Options
	exclude map[int]bool
	ema     float64
	hasEMA  bool
}

// New validates opts and returns a Scorer.
func New(opts Options) (*Scorer, error) {
	if opts.Sensitivity <= 0 {
		return nil, fmt.Errorf("%w: sensitivity %v", ErrBadOption, opts.Sensitivity)
	}
	if opts.EMAAlpha <= 0 || opts.EMAAlpha > 1 {
		return nil, fmt.Errorf("%w: ema alpha %v", ErrBadOption, opts.EMAAlpha)
	}
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance %v", ErrBadOption, opts.Tolerance)
	}
	if opts.TopN < 0 {
		return nil, fmt.Errorf("%w: top n %d", ErrBadOption, opts.TopN)
	}
	if opts.AngleWeight < 0 || opts.AngleWeight > 1 {
		return nil, fmt.Errorf("%w: angle weight %v", ErrBadOption, opts.AngleWeight)
	}
	for idx, w := range opts.Weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: weight %v for joint %d", ErrBadOption, w, idx)
		}
	}
	if opts.DefaultWeight == 0 && opts.Weights == nil {
		opts.DefaultWeight = 1
	}

	exclude := make(map[int]bool, len(opts.Exclude))
	for _, idx := range opts.Exclude {
		exclude[idx] = true
	}
	return &Scorer{opts: opts, exclude: exclude}, nil
}

func (s *Scorer) weight(idx int) float64 {
	if w, ok := s.opts.Weights[idx]; ok {
		return w
	}
	return s.opts.DefaultWeight
}

// Score compares the aligned reference with observed and updates the EMA.
// With no scoreable joints it returns a zero result and leaves the EMA as is.
func (s *Scorer) Score(reference, observed landmark.Set) Result {
	n := min(reference.Len(), observed.Len())

	errs := make(map[int]float64)
	var weighted, total float64
	for i := 0; i < n; i++ {
		if s.exclude[i] || !reference.Valid(i, 0) || !observed.Valid(i, s.opts.MinConfidence) {
			continue
		}
		w := s.weight(i)
		if w == 0 {
			continue
		}
		d := math.Max(0, reference.At(i).Dist(observed.At(i))-s.opts.Tolerance)
		errs[i] = w * d
		weighted += w * d
		total += w
	}

	if total == 0 {
		return Result{TopJoints: []int{}, JointErrors: errs}
	}

	positional := s.toScore(weighted / total)
	raw := positional
	angular := positional
	if s.opts.AngleWeight > 0 {
		if angErr, ok := s.angularError(reference, observed); ok {
			angular = s.toScore(angErr)
			raw = (1-s.opts.AngleWeight)*positional + s.opts.AngleWeight*angular
		}
	}

	return Result{
		Overall:     s.smooth(raw),
		Raw:         raw,
		Positional:  positional,
		Angular:     angular,
		TopJoints:   topJoints(errs, s.opts.TopN),
		JointErrors: errs,
		Valid:       len(errs),
	}
}

// angularError returns the mean absolute joint-angle difference over the
// chains fully visible in both sets, normalized to [0,1] by 180 degrees.
func (s *Scorer) angularError(reference, observed landmark.Set) (float64, bool) {
	var sum float64
	var chains int
	for _, chain := range s.opts.Chains {
		if !s.chainValid(chain, reference, observed) || len(chain) < 3 {
			continue
		}
		var diff float64
		for k := 1; k < len(chain)-1; k++ {
			a, b, c := chain[k-1], chain[k], chain[k+1]
			ref := geom.AngleAt(reference.At(a), reference.At(b), reference.At(c))
			obs := geom.AngleAt(observed.At(a), observed.At(b), observed.At(c))
			diff += math.Abs(ref - obs)
		}
		sum += diff / float64(len(chain)-2)
		chains++
	}
	if chains == 0 {
		return 0, false
	}
	return sum / float64(chains) / 180, true
}

func (s *Scorer) chainValid(chain []int, reference, observed landmark.Set) bool {
	for _, idx := range chain {
		if !reference.Valid(idx, 0) || !observed.Valid(idx, s.opts.MinConfidence) {
			return false
		}
	}
	return true
}

func (s *Scorer) toScore(err float64) float64 {
	return math.Max(0, math.Min(100, 100-err*s.opts.Sensitivity))
}

func (s *Scorer) smooth(raw float64) float64 {
	if !s.hasEMA {
		s.ema = raw
		s.hasEMA = true
		return raw
	}
	s.ema = s.opts.EMAAlpha*raw + (1-s.opts.EMAAlpha)*s.ema
	return s.ema
}

// Reset clears the EMA. Call it whenever the subject is lost.
func (s *Scorer) Reset() {
	s.ema = 0
	s.hasEMA = false
}

// topJoints returns up to n joints with strictly positive error, sorted by
// descending error and then by index.
func topJoints(errs map[int]float64, n int) []int {
	joints := make([]int, 0, len(errs))
	for idx, e := range errs {
		if e > 0 {
			joints = append(joints, idx)
		}
	}
	sort.Slice(joints, func(i, j int) bool {
		ei, ej := errs[joints[i]], errs[joints[j]]
		if ei != ej {
			return ei > ej
		}
		return joints[i] < joints[j]
	})
	if len(joints) > n {
		joints = joints[:n]
	}
	return joints
}
