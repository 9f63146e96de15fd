package coach

import (
	"fmt"
	"log"
	"time"

	"github.com/ayusman/ghostcoach/internal/config"
	"github.com/ayusman/ghostcoach/internal/hold"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/reference"
)

// subjects is the processing order of a frame.
var subjects = []landmark.Subject{
	landmark.HandSubject(landmark.Left),
	landmark.HandSubject(landmark.Right),
	landmark.BodySubject(),
}

// Coach keeps one Session per subject and feeds it detector frames.
type Coach struct {
	config   config.Config
	targets  map[landmark.Kind][]reference.Sequence
	sessions map[landmark.Subject]*Session
}

// New creates a Coach that coaches every subject whose kind has at least
// one target.
func New(cfg config.Config, targets ...reference.Sequence) (*Coach, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	c := &Coach{
		config:   cfg,
		targets:  make(map[landmark.Kind][]reference.Sequence),
		sessions: make(map[landmark.Subject]*Session),
	}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTarget, t.Name)
		}
		seen[t.Name] = true
		c.targets[t.Kind] = append(c.targets[t.Kind], t)
	}
	return c, nil
}

// Process runs every coached subject of f through its session. Subjects
// never seen yet are skipped until they first appear.
func (c *Coach) Process(f landmark.Frame) ([]Output, error) {
	now := time.UnixMilli(f.TimestampMs)

	var outputs []Output
	for _, subject := range subjects {
		if len(c.targets[subject.Kind]) == 0 {
			continue
		}

		set, tracked := f.Set(subject)
		session, ok := c.sessions[subject]
		if !ok {
			if !tracked {
				continue
			}
			var err error
			session, err = c.newSession(subject)
			if err != nil {
				return nil, err
			}
			c.sessions[subject] = session
		}

		out := session.Step(Input{Observed: set, Now: now})
		if out.Switched {
			log.Printf("Switched %s to template %s", subject, out.Template)
		}
		if out.Event == hold.Done {
			log.Printf("Hold completed: %s on %s (score: %.1f)", subject, out.Template, out.Final)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (c *Coach) newSession(subject landmark.Subject) (*Session, error) {
	profile, err := c.config.Profile(subject.Kind)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(subject, profile, c.targets[subject.Kind])
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", subject, err)
	}
	return s, nil
}

// Session returns the session of subject, if it has been seen.
func (c *Coach) Session(subject landmark.Subject) (*Session, bool) {
	s, ok := c.sessions[subject]
	return s, ok
}

// Advance clears the hold of every session.
func (c *Coach) Advance() {
	for _, s := range c.sessions {
		s.Advance()
	}
}
