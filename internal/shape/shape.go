// Package shape classifies each finger of a hand as extended or bent and
// compares the result with canonical finger-spelling shapes. It scores what
// the hand is doing rather than where every joint sits.
package shape

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
)

// ErrUnknownShape is returned when a label is not in the library.
var ErrUnknownShape = errors.New("shape: unknown label")

// State is the discrete state of one finger.
type State int

const (
	Ambiguous State = iota
	Extended
	Bent
)

func (s State) String() string {
	switch s {
	case Extended:
		return "extended"
	case Bent:
		return "bent"
	}
	return "ambiguous"
}

// Finger indexes States, thumb first.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerNames = [5]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < Thumb || f > Pinky {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// States holds the state of every finger, thumb first.
type States [5]State

func (s States) String() string {
	parts := make([]string, len(s))
	for i, st := range s {
		parts[i] = Finger(i).String() + "=" + st.String()
	}
	return strings.Join(parts, " ")
}

// Classifier turns finger joint angles into States.
type Classifier struct {
	// ExtendedDeg is the mean interior angle at or above which a finger is
	// extended.
	ExtendedDeg float64

	// BentDeg is the mean interior angle at or below which a finger is bent.
	BentDeg float64

	// MinConfidence is the confidence every joint of a finger needs.
	MinConfidence float64
}

// DefaultClassifier returns the classifier with 160/130 degree thresholds.
func DefaultClassifier() Classifier {
	return Classifier{ExtendedDeg: 160, BentDeg: 130, MinConfidence: 0.5}
}

// FingerAngle returns the mean interior angle, in degrees, at the two middle
// joints of the finger's chain (PIP and DIP; MCP and IP for the thumb).
func FingerAngle(s landmark.Set, f Finger) float64 {
	chain := landmark.FingerChains[f]
	a := geom.AngleAt(s.At(int(chain[0])), s.At(int(chain[1])), s.At(int(chain[2])))
	b := geom.AngleAt(s.At(int(chain[1])), s.At(int(chain[2])), s.At(int(chain[3])))
	return (a + b) / 2
}

// Classify returns the state of every finger of s. Fingers with a joint
// missing are Ambiguous; ok is false when no finger could be classified.
func (c Classifier) Classify(s landmark.Set) (States, bool) {
	var states States
	ok := false
	for f := Thumb; f <= Pinky; f++ {
		if !c.fingerValid(s, f) {
			states[f] = Ambiguous
			continue
		}
		ok = true

		angle := FingerAngle(s, f)
		switch {
		case angle >= c.ExtendedDeg:
			states[f] = Extended
		case angle <= c.BentDeg:
			states[f] = Bent
		default:
			states[f] = Ambiguous
		}
	}
	return states, ok
}

func (c Classifier) fingerValid(s landmark.Set, f Finger) bool {
	for _, j := range landmark.FingerChains[f] {
		if !s.Valid(int(j), c.MinConfidence) {
			return false
		}
	}
	return true
}

// Template is the canonical shape of a label: true means extended.
type Template [5]bool

// Correction is a finger whose state differs from the target.
type Correction struct {
	Finger Finger
	Want   State
	Got    State
}

// Match is the agreement between observed States and a label's template.
type Match struct {
	Label string

	// Accuracy is the per-finger agreement in [0,100]. An ambiguous finger
	// counts as half a match.
	Accuracy float64

	// Corrections lists the fingers that do not match, thumb first.
	Corrections []Correction

	// Alike lists the other labels with the same template. Only Best sets it.
	Alike []string
}

// Library holds the canonical shapes by label.
type Library struct {
	templates map[string]Template
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{templates: make(map[string]Template)}
}

// DefaultLibrary returns the static finger-spelling letters described by
// finger extension. R, U and V share a template, as do E and S: they are
// scored with Match against a known label and cannot be told apart by Best.
func DefaultLibrary() *Library {
	const x, o = true, false
	l := NewLibrary()
	l.Add("A", Template{x, o, o, o, o})
	l.Add("B", Template{o, x, x, x, x})
	l.Add("D", Template{o, x, o, o, o})
	l.Add("E", Template{o, o, o, o, o})
	l.Add("F", Template{o, o, x, x, x})
	l.Add("I", Template{o, o, o, o, x})
	l.Add("K", Template{x, x, x, o, o})
	l.Add("L", Template{x, x, o, o, o})
	l.Add("R", Template{o, x, x, o, o})
	l.Add("S", Template{o, o, o, o, o})
	l.Add("U", Template{o, x, x, o, o})
	l.Add("V", Template{o, x, x, o, o})
	l.Add("W", Template{o, x, x, x, o})
	l.Add("Y", Template{x, o, o, o, x})
	return l
}

// Add registers or replaces the template of label. Labels are case-insensitive.
func (l *Library) Add(label string, t Template) {
	l.templates[strings.ToUpper(label)] = t
}

// Labels returns the registered labels in sorted order.
func (l *Library) Labels() []string {
	labels := make([]string, 0, len(l.templates))
	for label := range l.templates {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Template returns the template of label.
func (l *Library) Template(label string) (Template, error) {
	t, ok := l.templates[strings.ToUpper(label)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownShape, label)
	}
	return t, nil
}

// Match compares states with the template of label.
func (l *Library) Match(states States, label string) (Match, error) {
	t, err := l.Template(label)
	if err != nil {
		return Match{}, err
	}

	m := Match{Label: strings.ToUpper(label)}
	var agree float64
	for f := Thumb; f <= Pinky; f++ {
		want := Bent
		if t[f] {
			want = Extended
		}
		switch states[f] {
		case want:
			agree++
		case Ambiguous:
			agree += 0.5
			m.Corrections = append(m.Corrections, Correction{Finger: f, Want: want, Got: Ambiguous})
		default:
			m.Corrections = append(m.Corrections, Correction{Finger: f, Want: want, Got: states[f]})
		}
	}
	m.Accuracy = agree * 100 / 5
	return m, nil
}

// Best returns the label whose template agrees most with states. Ties go to
// the alphabetically first label; labels sharing its template are listed in
// Alike.
func (l *Library) Best(states States) (Match, bool) {
	var best Match
	found := false
	for _, label := range l.Labels() {
		m, _ := l.Match(states, label)
		if !found || m.Accuracy > best.Accuracy {
			best = m
			found = true
		}
	}
	if found {
		best.Alike = l.alike(best.Label)
	}
	return best, found
}

func (l *Library) alike(label string) []string {
	t := l.templates[label]
	var out []string
	for _, other := range l.Labels() {
		if other != label && l.templates[other] == t {
			out = append(out, other)
		}
	}
	return out
}

// Blend combines the shape accuracy with the geometric score. The weights
// are domain policy and are normalized by their sum.
type Blend struct {
	ShapeWeight    float64
	GeometryWeight float64
}

// DefaultBlend favors the categorical shape 70/30.
func DefaultBlend() Blend {
	return Blend{ShapeWeight: 0.7, GeometryWeight: 0.3}
}

// Validate checks that the weights are non-negative and not both zero.
func (b Blend) Validate() error {
	if b.ShapeWeight < 0 || b.GeometryWeight < 0 || b.ShapeWeight+b.GeometryWeight == 0 {
		return fmt.Errorf("shape: invalid blend weights %v/%v", b.ShapeWeight, b.GeometryWeight)
	}
	return nil
}

// Combine returns the weighted mean of the shape accuracy and the geometric
// score, both in [0,100].
func (b Blend) Combine(shape, geometry float64) float64 {
	sum := b.ShapeWeight + b.GeometryWeight
	if sum <= 0 {
		return geometry
	}
	return (b.ShapeWeight*shape + b.GeometryWeight*geometry) / sum
}
