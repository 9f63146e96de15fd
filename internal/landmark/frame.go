package landmark

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/ayusman/ghostcoach/internal/geom"
)

// Frame holds every subject observed in one detector frame. A nil set
// means the subject was not tracked in this frame.
type Frame struct {
	Index       int
	TimestampMs int64
	LeftHand    *Set
	RightHand   *Set
	Pose        *Set
}

// Set returns the landmark set for subject, or an empty set and false when
// the subject was not tracked.
func (f Frame) Set(s Subject) (Set, bool) {
	var set *Set
	switch s.Kind {
	case Hand:
		switch s.Side {
		case Left:
			set = f.LeftHand
		case Right:
			set = f.RightHand
		}
	case Body:
		set = f.Pose
	}
	if set == nil || set.Empty() {
		return Set{}, false
	}
	return *set, true
}

// Reader decodes detector frames written by the keypoint extractor: either
// one JSON object per line or a single JSON array of objects.
//
// Hands are rows of [x, y, z] with one confidence per hand in
// left_hand_confidence / right_hand_confidence. Pose rows are
// [x, y, z, visibility]. A fourth value is always the point's own
// confidence; z is ignored.
type Reader struct {
	src     *bufio.Reader
	dec     *json.Decoder
	array   bool
	started bool
	n       int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: bufio.NewReader(r)}
}

// start detects whether the stream is a JSON array.
func (r *Reader) start() error {
	r.started = true
	for {
		b, err := r.src.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read frames: %w", err)
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			continue
		}
		if err := r.src.UnreadByte(); err != nil {
			return err
		}
		r.array = b == '['
		break
	}

	r.dec = json.NewDecoder(r.src)
	if r.array {
		if _, err := r.dec.Token(); err != nil {
			return fmt.Errorf("read frames: %w", err)
		}
	}
	return nil
}

// Next returns the next frame, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (Frame, error) {
	if !r.started {
		if err := r.start(); err != nil {
			return Frame{}, err
		}
	}
	if r.array && !r.dec.More() {
		return Frame{}, io.EOF
	}

	var jf jsonFrame
	if err := r.dec.Decode(&jf); err != nil {
		if err == io.EOF && !r.array {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("parse frame %d: %w", r.n, err)
	}
	f, err := jf.toFrame()
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d: %w", r.n, err)
	}
	r.n++
	return f, nil
}

// ReadAll decodes every remaining frame.
func (r *Reader) ReadAll() ([]Frame, error) {
	var frames []Frame
	for {
		f, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

type jsonFrame struct {
	FrameIndex          int         `json:"frame_index"`
	TimestampMs         float64     `json:"timestamp_ms"`
	LeftHand            [][]float64 `json:"left_hand"`
	RightHand           [][]float64 `json:"right_hand"`
	Pose                [][]float64 `json:"pose"`
	LeftHandConfidence  *float64    `json:"left_hand_confidence,omitempty"`
	RightHandConfidence *float64    `json:"right_hand_confidence,omitempty"`
	PoseConfidence      *float64    `json:"pose_confidence,omitempty"`
}

func (jf jsonFrame) toFrame() (Frame, error) {
	f := Frame{
		Index:       jf.FrameIndex,
		TimestampMs: int64(math.Round(jf.TimestampMs)),
	}

	var err error
	if f.LeftHand, err = toSet(jf.LeftHand, jf.LeftHandConfidence); err != nil {
		return Frame{}, fmt.Errorf("left_hand: %w", err)
	}
	if f.RightHand, err = toSet(jf.RightHand, jf.RightHandConfidence); err != nil {
		return Frame{}, fmt.Errorf("right_hand: %w", err)
	}
	if f.Pose, err = toSet(jf.Pose, jf.PoseConfidence); err != nil {
		return Frame{}, fmt.Errorf("pose: %w", err)
	}
	return f, nil
}

// toSet converts rows to a set. Rows without their own confidence take
// setConf, or 1 when it is nil.
func toSet(rows [][]float64, setConf *float64) (*Set, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	fill := 1.0
	if setConf != nil {
		fill = *setConf
	}

	set := &Set{Points: make([]geom.Point, len(rows))}
	for i, row := range rows {
		if len(row) < 2 || len(row) > 4 {
			return nil, fmt.Errorf("point %d has %d values, want 2 to 4", i, len(row))
		}
		set.Points[i] = geom.Point{X: row[0], Y: row[1]}

		if len(row) == 4 || setConf != nil {
			if set.Confidence == nil {
				set.Confidence = make([]float64, len(rows))
				for j := range set.Confidence {
					set.Confidence[j] = fill
				}
			}
			if len(row) == 4 {
				set.Confidence[i] = row[3]
			}
		}
	}
	return set, nil
}

// EncodeFrame writes f as a single JSON line in the Reader's format. Every
// row is [x, y, 0, confidence].
func EncodeFrame(w io.Writer, f Frame) error {
	jf := jsonFrame{
		FrameIndex:  f.Index,
		TimestampMs: float64(f.TimestampMs),
		LeftHand:    fromSet(f.LeftHand),
		RightHand:   fromSet(f.RightHand),
		Pose:        fromSet(f.Pose),
	}
	return json.NewEncoder(w).Encode(jf)
}

func fromSet(s *Set) [][]float64 {
	if s == nil {
		return nil
	}
	rows := make([][]float64, s.Len())
	for i, p := range s.Points {
		rows[i] = []float64{p.X, p.Y, 0, s.Conf(i)}
	}
	return rows
}
