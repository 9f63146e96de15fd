// Package reference holds the reference ("ghost") content a subject follows:
// a single static pose or an animated sequence of poses.
package reference

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/ghostcoach/internal/landmark"
)

// ErrEmptySequence is returned for a sequence with no frames.
var ErrEmptySequence = errors.New("reference: sequence has no frames")

// Sequence is a named reference for one kind of subject. A sequence with
// one frame is static; longer sequences play back at FPS and loop.
type Sequence struct {
	Name   string
	Kind   landmark.Kind
	FPS    float64
	Frames []landmark.Set
}

// Static creates a one-frame sequence.
func Static(name string, kind landmark.Kind, pose landmark.Set) Sequence {
	return Sequence{Name: name, Kind: kind, Frames: []landmark.Set{pose}}
}

// IsStatic reports whether the sequence has a single frame.
func (s Sequence) IsStatic() bool {
	return len(s.Frames) == 1
}

// Validate checks that the sequence can be played.
func (s Sequence) Validate() error {
	if s.Name == "" {
		return errors.New("reference: sequence has no name")
	}
	n, err := s.Kind.Cardinality()
	if err != nil {
		return err
	}
	if len(s.Frames) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySequence, s.Name)
	}
	if !s.IsStatic() && (s.FPS <= 0 || math.IsNaN(s.FPS)) {
		return fmt.Errorf("reference: %s: animated sequence needs a positive fps, got %v", s.Name, s.FPS)
	}
	for i, f := range s.Frames {
		if f.Len() != n && !(s.Kind == landmark.Hand && f.Len() == landmark.MaxHandLandmarks) {
			return fmt.Errorf("reference: %s: frame %d has %d landmarks, expected %d", s.Name, i, f.Len(), n)
		}
	}
	return nil
}

// Duration returns the playback length of one loop. Static sequences have
// no duration.
func (s Sequence) Duration() time.Duration {
	if s.IsStatic() || s.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Frames)) / s.FPS * float64(time.Second))
}

// FrameIndex returns the frame shown after elapsed playback time.
func (s Sequence) FrameIndex(elapsed time.Duration) int {
	if len(s.Frames) <= 1 || s.FPS <= 0 || elapsed <= 0 {
		return 0
	}
	idx := int(elapsed.Seconds()*s.FPS + 1e-9)
	return idx % len(s.Frames)
}

// FrameAt returns the frame shown after elapsed playback time.
func (s Sequence) FrameAt(elapsed time.Duration) landmark.Set {
	if len(s.Frames) == 0 {
		return landmark.Set{}
	}
	return s.Frames[s.FrameIndex(elapsed)]
}

// Retime resamples the sequence to play the same motion at fps.
func (s Sequence) Retime(fps float64) Sequence {
	if s.IsStatic() || s.FPS <= 0 || fps <= 0 {
		out := s
		out.Frames = append([]landmark.Set(nil), s.Frames...)
		if fps > 0 {
			out.FPS = fps
		}
		return out
	}

	n := max(1, int(math.Round(float64(len(s.Frames))*fps/s.FPS)))
	return Sequence{
		Name:   s.Name,
		Kind:   s.Kind,
		FPS:    fps,
		Frames: Resample(s.Frames, n),
	}
}
