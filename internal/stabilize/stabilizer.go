package stabilize

import (
	"errors"
	"math"

	"github.com/ayusman/ghostcoach/internal/align"
	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
)

// ErrNoCandidates is returned by Select when no candidate templates are given.
var ErrNoCandidates = errors.New("stabilize: no candidate templates")

// Candidate is one reference template that may be shown for a subject.
type Candidate struct {
	Name      string
	Reference landmark.Set
}

// Selection is the template chosen for a frame and its smoothed alignment.
type Selection struct {
	// Index is the position of the chosen template in the candidate slice.
	Index int
	Name  string

	// Aligned is the chosen reference mapped through the smoothed transform.
	Aligned landmark.Set

	// Transform is the smoothed transform; Raw is this frame's estimate.
	Transform geom.Transform
	Raw       geom.Transform

	Quality  float64
	FitError float64

	// Switched is true when the chosen template differs from last frame's.
	Switched bool
}

// Options configures a Stabilizer.
type Options struct {
	Smooth          SmoothOptions
	SwitchThreshold float64
	MinConfidence   float64
}

// DefaultOptions returns the default stabilizer options.
func DefaultOptions() Options {
	return Options{
		Smooth:          DefaultSmoothOptions(),
		SwitchThreshold: DefaultSwitchThreshold,
		MinConfidence:   0.5,
	}
}

type historyKey struct {
	subject  landmark.Subject
	template string
}

// Stabilizer keeps the smoothed transform of every (subject, template) pair
// and the preferred template of every subject. Callers own one instance;
// it is not safe for concurrent use.
type Stabilizer struct {
	aligner   *align.Aligner
	opts      Options
	history   map[historyKey]geom.Transform
	preferred map[landmark.Subject]string
}

// New creates a Stabilizer that aligns candidates with aligner.
func New(aligner *align.Aligner, opts Options) *Stabilizer {
	if opts.SwitchThreshold <= 0 {
		opts.SwitchThreshold = DefaultSwitchThreshold
	}
	return &Stabilizer{
		aligner:   aligner,
		opts:      opts,
		history:   make(map[historyKey]geom.Transform),
		preferred: make(map[landmark.Subject]string),
	}
}

// Select aligns every candidate to observed, picks the best fit subject to
// hysteresis and returns the chosen template under its smoothed transform.
//
// The current template is replaced only when the best candidate's fit error
// is at most SwitchThreshold times the current template's error.
func (s *Stabilizer) Select(subject landmark.Subject, observed landmark.Set, candidates []Candidate) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, ErrNoCandidates
	}

	results := make([]align.Result, len(candidates))
	errs := make([]float64, len(candidates))
	best := 0
	current := -1
	prevName, hasPrev := s.preferred[subject]

	for i, c := range candidates {
		results[i] = s.aligner.Align(c.Reference, observed)
		if results[i].Degenerate() {
			errs[i] = math.Inf(1)
		} else {
			errs[i] = align.FitError(results[i].Aligned, observed, s.opts.MinConfidence)
		}
		if errs[i] < errs[best] {
			best = i
		}
		if hasPrev && c.Name == prevName {
			current = i
		}
	}

	chosen := best
	if current >= 0 && current != best {
		if math.IsInf(errs[best], 1) || !ShouldSwitch(errs[best], errs[current], s.opts.SwitchThreshold) {
			chosen = current
		}
	}

	c := candidates[chosen]
	res := results[chosen]
	smoothed := s.track(subject, c.Name, res)
	s.preferred[subject] = c.Name

	return Selection{
		Index:     chosen,
		Name:      c.Name,
		Aligned:   c.Reference.WithPoints(smoothed.ApplyAll(c.Reference.Points)),
		Transform: smoothed,
		Raw:       res.Transform,
		Quality:   res.Quality,
		FitError:  errs[chosen],
		Switched:  hasPrev && prevName != c.Name,
	}, nil
}

// Track smooths raw about pivot against the history of (subject, template)
// and records the result. Use it when a subject follows a single template.
func (s *Stabilizer) Track(subject landmark.Subject, template string, raw geom.Transform, pivot geom.Point) geom.Transform {
	key := historyKey{subject: subject, template: template}
	var prev *geom.Transform
	if t, ok := s.history[key]; ok {
		prev = &t
	}
	smoothed := Smooth(prev, raw, pivot, s.opts.Smooth)
	s.history[key] = smoothed
	return smoothed
}

// track is Track for an alignment result. A degenerate alignment holds the
// last smoothed transform instead of pulling it toward the identity.
func (s *Stabilizer) track(subject landmark.Subject, template string, res align.Result) geom.Transform {
	if res.Degenerate() {
		if t, ok := s.history[historyKey{subject: subject, template: template}]; ok {
			return t
		}
		return res.Transform
	}
	return s.Track(subject, template, res.Transform, res.Pivot)
}

// Current returns the last smoothed transform of (subject, template).
func (s *Stabilizer) Current(subject landmark.Subject, template string) (geom.Transform, bool) {
	t, ok := s.history[historyKey{subject: subject, template: template}]
	return t, ok
}

// Preferred returns the template last chosen for subject.
func (s *Stabilizer) Preferred(subject landmark.Subject) (string, bool) {
	name, ok := s.preferred[subject]
	return name, ok
}

// Forget drops all state of subject. Call it when the subject is lost.
func (s *Stabilizer) Forget(subject landmark.Subject) {
	for key := range s.history {
		if key.subject == subject {
			delete(s.history, key)
		}
	}
	delete(s.preferred, subject)
}

// Reset drops all state.
func (s *Stabilizer) Reset() {
	clear(s.history)
	clear(s.preferred)
}
