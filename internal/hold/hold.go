// Package hold decides when a pose has been held above a score threshold
// long enough to count as completed.
package hold

import (
	"fmt"
	"time"
)

// Default hold settings.
const (
	DefaultThreshold = 85.0
	DefaultDuration  = 1500 * time.Millisecond
)

// Phase is the position of a hold in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Holding
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Holding:
		return "holding"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Event is what a Step changed.
type Event int

const (
	None Event = iota
	// Started is emitted on Idle to Holding.
	Started
	// Broken is emitted when a score dip or tracking loss ends a hold.
	Broken
	// Done is emitted once, when the hold reaches Completed.
	Done
)

func (e Event) String() string {
	switch e {
	case None:
		return "none"
	case Started:
		return "started"
	case Broken:
		return "broken"
	case Done:
		return "done"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Config sets the score to hold and for how long.
type Config struct {
	Threshold float64
	Duration  time.Duration
}

// DefaultConfig returns a config with the default threshold and duration.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, Duration: DefaultDuration}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("hold: threshold %v not in [0,100]", c.Threshold)
	}
	if c.Duration < 0 {
		return fmt.Errorf("hold: negative duration %v", c.Duration)
	}
	return nil
}

// State is the hold state of one subject. The zero value is Idle.
type State struct {
	Phase Phase
	Start time.Time

	// Progress is the held fraction of the duration, in [0,100].
	Progress float64
}

// Step advances s by one frame. A frame succeeds when the subject is
// tracked and score >= Threshold. Completed is terminal until the caller
// replaces the state.
func Step(s State, cfg Config, score float64, tracked bool, now time.Time) (State, Event) {
	if s.Phase == Completed {
		return s, None
	}

	if !tracked || score < cfg.Threshold {
		if s.Phase == Holding {
			return State{}, Broken
		}
		return State{}, None
	}

	ev := None
	if s.Phase == Idle {
		s = State{Phase: Holding, Start: now}
		ev = Started
	}

	elapsed := now.Sub(s.Start)
	if elapsed >= cfg.Duration {
		return State{Phase: Completed, Start: s.Start, Progress: 100}, Done
	}
	s.Progress = min(100, float64(elapsed)/float64(cfg.Duration)*100)
	return s, ev
}

// Tracker owns the hold state of one subject.
type Tracker struct {
	cfg   Config
	state State
}

// NewTracker creates an idle Tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Update runs one Step and keeps the new state.
func (t *Tracker) Update(score float64, tracked bool, now time.Time) Event {
	var ev Event
	t.state, ev = Step(t.state, t.cfg, score, tracked, now)
	return ev
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Completed reports whether the hold has completed.
func (t *Tracker) Completed() bool {
	return t.state.Phase == Completed
}

// Reset returns the tracker to Idle.
func (t *Tracker) Reset() {
	t.state = State{}
}
