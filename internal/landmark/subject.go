package landmark

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a Kind value is not Hand or Body.
var ErrUnknownKind = errors.New("unknown subject kind")

// Kind identifies the landmark domain of a subject.
type Kind int

const (
	// Hand is a single tracked hand.
	Hand Kind = iota + 1
	// Body is a full-body pose.
	Body
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Hand:
		return "hand"
	case Body:
		return "body"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses "hand" or "body".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "hand":
		return Hand, nil
	case "body":
		return Body, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Cardinality returns the landmark count for the kind.
func (k Kind) Cardinality() (int, error) {
	switch k {
	case Hand:
		return NumHandLandmarks, nil
	case Body:
		return NumBodyLandmarks, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
}

// Anchors returns a copy of the default anchor indices for the kind.
func (k Kind) Anchors() ([]int, error) {
	switch k {
	case Hand:
		return append([]int(nil), HandAnchors...), nil
	case Body:
		return append([]int(nil), BodyAnchors...), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
}

// Side is the handedness of a hand subject.
type Side int

const (
	// NoSide is used for body subjects.
	NoSide Side = iota
	Left
	Right
)

// String returns "left", "right" or "" for NoSide.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return ""
}

// Subject identifies one tracked subject: a hand of a given side or a body.
// Construct it with HandSubject or BodySubject.
type Subject struct {
	Kind Kind
	Side Side
}

// HandSubject returns the subject for the hand on the given side.
func HandSubject(side Side) Subject {
	return Subject{Kind: Hand, Side: side}
}

// BodySubject returns the full-body subject.
func BodySubject() Subject {
	return Subject{Kind: Body}
}

// Validate checks that the subject is a well-formed variant.
func (s Subject) Validate() error {
	switch s.Kind {
	case Hand:
		if s.Side != Left && s.Side != Right {
			return fmt.Errorf("hand subject needs a side, got %d", int(s.Side))
		}
		return nil
	case Body:
		if s.Side != NoSide {
			return fmt.Errorf("body subject cannot have a side")
		}
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnknownKind, int(s.Kind))
}

// String returns a compact name such as "hand:left" or "body".
func (s Subject) String() string {
	if s.Kind == Hand {
		return s.Kind.String() + ":" + s.Side.String()
	}
	return s.Kind.String()
}
