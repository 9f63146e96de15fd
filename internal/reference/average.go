package reference

import (
	"fmt"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
)

// Average builds one reference pose from several captures of the same pose.
// Every sample is normalized (origin joint at 0, origin-to-scaleRef length 1)
// before averaging; pass a negative origin to average raw coordinates.
// The confidence of the result is the mean sample confidence.
func Average(samples []landmark.Set, origin, scaleRef int) (landmark.Set, error) {
	if len(samples) == 0 {
		return landmark.Set{}, fmt.Errorf("no samples provided")
	}

	numPoints := samples[0].Len()
	if numPoints == 0 {
		return landmark.Set{}, fmt.Errorf("sample 0 has no landmarks")
	}
	for i, s := range samples {
		if s.Len() != numPoints {
			return landmark.Set{}, fmt.Errorf("sample %d has %d landmarks, expected %d", i, s.Len(), numPoints)
		}
	}

	normalized := samples
	if origin >= 0 {
		normalized = make([]landmark.Set, len(samples))
		for i, s := range samples {
			normalized[i] = landmark.Normalize(s, origin, scaleRef)
		}
	}

	points := make([]geom.Point, numPoints)
	conf := make([]float64, numPoints)
	for i := 0; i < numPoints; i++ {
		var sum geom.Point
		var sumConf float64
		var n float64
		for _, s := range normalized {
			if !s.Valid(i, 0) {
				continue
			}
			sum = sum.Add(s.At(i))
			sumConf += s.Conf(i)
			n++
		}
		if n == 0 {
			return landmark.Set{}, fmt.Errorf("landmark %d is missing from every sample", i)
		}
		points[i] = sum.Scale(1 / n)
		conf[i] = sumConf / float64(len(samples))
	}

	return landmark.Set{Points: points, Confidence: conf}, nil
}

// Resample returns exactly n frames spread evenly over frames, linearly
// interpolating points and confidence between neighbors.
func Resample(frames []landmark.Set, n int) []landmark.Set {
	if len(frames) == 0 || n <= 0 {
		return nil
	}
	if len(frames) == 1 || n == 1 {
		return []landmark.Set{frames[0].Clone()}
	}

	result := make([]landmark.Set, n)
	for i := 0; i < n; i++ {
		// Map index i to a position in the input sequence
		t := float64(i) / float64(n-1)
		pos := t * float64(len(frames)-1)

		idx := int(pos)
		if idx >= len(frames)-1 {
			idx = len(frames) - 2
		}
		frac := pos - float64(idx)

		result[i] = lerp(frames[idx], frames[idx+1], frac)
	}
	return result
}

// lerp interpolates a and b by frac. Points missing from either side are
// taken from the nearer frame.
func lerp(a, b landmark.Set, frac float64) landmark.Set {
	near := a
	if frac >= 0.5 {
		near = b
	}
	n := min(a.Len(), b.Len())

	points := make([]geom.Point, n)
	var conf []float64
	if a.Confidence != nil || b.Confidence != nil {
		conf = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if a.Valid(i, 0) && b.Valid(i, 0) {
			pa, pb := a.At(i), b.At(i)
			points[i] = pa.Add(pb.Sub(pa).Scale(frac))
		} else {
			points[i] = near.Points[i]
		}
		if conf != nil {
			conf[i] = a.Conf(i) + frac*(b.Conf(i)-a.Conf(i))
		}
	}
	return landmark.Set{Points: points, Confidence: conf}
}
