// Package coach runs the per-frame coaching pipeline: align the reference to
// the subject, stabilize it, score the pose, pick a cue and track the hold.
package coach

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/ghostcoach/internal/align"
	"github.com/ayusman/ghostcoach/internal/config"
	"github.com/ayusman/ghostcoach/internal/cue"
	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/hold"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/reference"
	"github.com/ayusman/ghostcoach/internal/score"
	"github.com/ayusman/ghostcoach/internal/shape"
	"github.com/ayusman/ghostcoach/internal/stabilize"
)

var (
	// ErrNoTargets is returned when a session is created without references.
	ErrNoTargets = errors.New("coach: no reference targets")

	// ErrDuplicateTarget is returned when two references share a name.
	ErrDuplicateTarget = errors.New("coach: duplicate reference name")
)

// Input is one frame of one subject.
type Input struct {
	Observed landmark.Set
	Now      time.Time
}

// Output is everything the pipeline produced for one subject in one frame.
type Output struct {
	Subject landmark.Subject
	Tracked bool

	// Template is the reference chosen this frame; Switched is set when it
	// differs from the previous frame's.
	Template string
	Switched bool

	// Ghost is the reference mapped onto the subject.
	Ghost     landmark.Set
	Transform geom.Transform
	Quality   float64

	Score score.Result

	// Shape is set for hand sessions with finger-shape scoring when the
	// template is a known shape.
	Shape *shape.Match

	// Final is the score that drives the hold: the blended shape and
	// geometry score when Shape is set, Score.Overall otherwise.
	Final float64

	Cue    string
	Praise string

	Hold  hold.State
	Event hold.Event
}

// Session owns all per-subject state. Sessions are never shared between
// subjects and are not safe for concurrent use.
type Session struct {
	subject landmark.Subject
	profile config.Profile
	targets []reference.Sequence

	stabilizer *stabilize.Stabilizer
	scorer     *score.Scorer
	hold       *hold.Tracker
	mapper     *cue.Mapper

	classifier shape.Classifier
	library    *shape.Library
	blend      shape.Blend

	start time.Time
}

// NewSession builds the pipeline for subject from profile. Every target
// must be of the subject's kind; with several targets the best fitting one
// is chosen each frame.
func NewSession(subject landmark.Subject, profile config.Profile, targets []reference.Sequence) (*Session, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if profile.Kind != subject.Kind {
		return nil, fmt.Errorf("coach: %s profile for %s subject", profile.Kind, subject)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := checkTargets(subject, targets); err != nil {
		return nil, err
	}

	n, err := subject.Kind.Cardinality()
	if err != nil {
		return nil, err
	}
	if subject.Kind == landmark.Hand {
		n = landmark.MaxHandLandmarks
	}
	aligner, err := align.New(profile.AlignOptions(), n)
	if err != nil {
		return nil, err
	}
	scorer, err := score.New(profile.ScoreOptions())
	if err != nil {
		return nil, err
	}

	s := &Session{
		subject:    subject,
		profile:    profile,
		targets:    append([]reference.Sequence(nil), targets...),
		stabilizer: stabilize.New(aligner, profile.StabilizeOptions()),
		scorer:     scorer,
		hold:       hold.NewTracker(profile.HoldConfig()),
		mapper:     cue.DefaultMapper(),
	}
	if profile.Shape.Enabled {
		s.classifier = profile.Classifier()
		s.library = shape.DefaultLibrary()
		s.blend = profile.Blend()
	}
	return s, nil
}

// Subject returns the session's subject.
func (s *Session) Subject() landmark.Subject {
	return s.subject
}

// SetLibrary replaces the canonical shape library.
func (s *Session) SetLibrary(l *shape.Library) {
	s.library = l
}

// Step runs the pipeline on one frame. An empty observed set is tracking
// loss: all temporal state is dropped and the fallback cue is returned.
func (s *Session) Step(in Input) Output {
	if in.Observed.Empty() {
		return s.lose(in.Now)
	}
	if s.start.IsZero() {
		s.start = in.Now
	}

	elapsed := in.Now.Sub(s.start)
	candidates := make([]stabilize.Candidate, len(s.targets))
	for i, t := range s.targets {
		candidates[i] = stabilize.Candidate{Name: t.Name, Reference: t.FrameAt(elapsed)}
	}

	sel, err := s.stabilizer.Select(s.subject, in.Observed, candidates)
	if err != nil {
		return s.lose(in.Now)
	}

	res := s.scorer.Score(sel.Aligned, in.Observed)
	out := Output{
		Subject:   s.subject,
		Tracked:   true,
		Template:  sel.Name,
		Switched:  sel.Switched,
		Ghost:     sel.Aligned,
		Transform: sel.Transform,
		Quality:   sel.Quality,
		Score:     res,
		Final:     res.Overall,
		Cue:       s.mapper.Map(res.TopJoints, cue.ContextFor(s.subject)),
	}

	fingerCue := false
	if s.library != nil && res.Valid > 0 {
		if states, ok := s.classifier.Classify(in.Observed); ok {
			if m, err := s.library.Match(states, sel.Name); err == nil {
				out.Shape = &m
				out.Final = s.blend.Combine(m.Accuracy, res.Overall)
				if len(m.Corrections) > 0 {
					out.Cue = cue.FingerCue(m.Corrections[0])
					fingerCue = true
				}
			}
		}
	}

	// Orientation cues rank below finger corrections and above the joint table.
	if s.subject.Kind == landmark.Hand && !fingerCue && res.Valid > 0 {
		minConf := s.profile.Score.MinConfidence
		if c := cue.RotationCue(in.Observed, sel.Aligned, minConf); c != "" {
			out.Cue = c
		} else if c := cue.SpreadCue(in.Observed, sel.Aligned, minConf); c != "" {
			out.Cue = c
		}
	}

	out.Praise = cue.Praise(out.Final)
	out.Event = s.hold.Update(out.Final, res.Valid > 0, in.Now)
	out.Hold = s.hold.State()
	return out
}

// lose drops all temporal state of the subject.
func (s *Session) lose(now time.Time) Output {
	s.stabilizer.Forget(s.subject)
	s.scorer.Reset()
	ev := s.hold.Update(0, false, now)
	return Output{
		Subject: s.subject,
		Tracked: false,
		Score:   score.Result{TopJoints: []int{}},
		Cue:     s.mapper.Fallback(),
		Hold:    s.hold.State(),
		Event:   ev,
	}
}

// Advance clears the hold so the next target can be completed. Playback of
// animated references restarts on the next frame.
func (s *Session) Advance() {
	s.hold.Reset()
	s.start = time.Time{}
}

// SetTargets replaces the references and clears all temporal state.
func (s *Session) SetTargets(targets []reference.Sequence) error {
	if err := checkTargets(s.subject, targets); err != nil {
		return err
	}
	s.targets = append([]reference.Sequence(nil), targets...)
	s.stabilizer.Forget(s.subject)
	s.scorer.Reset()
	s.Advance()
	return nil
}

// checkTargets validates targets for subject. Names identify the smoothing
// history of a template, so they must be unique.
func checkTargets(subject landmark.Subject, targets []reference.Sequence) error {
	if len(targets) == 0 {
		return ErrNoTargets
	}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.Kind != subject.Kind {
			return fmt.Errorf("coach: %s reference %q for %s subject", t.Kind, t.Name, subject)
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateTarget, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}
