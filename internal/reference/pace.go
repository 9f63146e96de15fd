package reference

import (
	"math"

	"github.com/ayusman/ghostcoach/internal/landmark"
)

// Warp is the result of dynamic time warping a performance onto a reference.
type Warp struct {
	// Distance is the accumulated frame cost normalized by the longer length.
	Distance float64

	// Path pairs performance frame i with reference frame j, in order.
	Path [][2]int
}

// Pace returns how fast the performance moved through the reference:
// 0 is on pace, positive is ahead (too fast), negative is behind.
// It is the least-squares slope of the warping path minus one.
func (w Warp) Pace() float64 {
	if len(w.Path) < 2 {
		return 0
	}

	var mi, mj float64
	for _, p := range w.Path {
		mi += float64(p[0])
		mj += float64(p[1])
	}
	n := float64(len(w.Path))
	mi /= n
	mj /= n

	var cov, vari float64
	for _, p := range w.Path {
		di := float64(p[0]) - mi
		cov += di * (float64(p[1]) - mj)
		vari += di * di
	}
	if vari == 0 {
		return 0
	}
	return cov/vari - 1
}

// Align warps performed onto ref. Frame cost is the mean distance over the
// joints valid in both frames (observed confidence >= minConf). Distance is
// +Inf when either sequence is empty.
func Align(performed, ref []landmark.Set, minConf float64) Warp {
	n := len(performed)
	m := len(ref)
	if n == 0 || m == 0 {
		return Warp{Distance: math.Inf(1)}
	}

	// (n+1) x (m+1) cost matrix initialized to infinity
	dtw := make([][]float64, n+1)
	for i := range dtw {
		dtw[i] = make([]float64, m+1)
		for j := range dtw[i] {
			dtw[i][j] = math.Inf(1)
		}
	}
	dtw[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := frameCost(ref[j-1], performed[i-1], minConf)
			dtw[i][j] = cost + min(dtw[i-1][j], dtw[i][j-1], dtw[i-1][j-1])
		}
	}

	return Warp{
		Distance: dtw[n][m] / float64(max(n, m)),
		Path:     backtrack(dtw),
	}
}

// backtrack walks the cost matrix from the end to the start.
func backtrack(dtw [][]float64) [][2]int {
	i, j := len(dtw)-1, len(dtw[0])-1
	var path [][2]int
	for i > 0 && j > 0 {
		path = append(path, [2]int{i - 1, j - 1})
		diag, up, left := dtw[i-1][j-1], dtw[i-1][j], dtw[i][j-1]
		switch {
		case diag <= up && diag <= left:
			i, j = i-1, j-1
		case up <= left:
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// frameCost is the mean joint distance between two frames. Frames with no
// joint in common cost 1, the width of a normalized image.
func frameCost(ref, observed landmark.Set, minConf float64) float64 {
	n := min(ref.Len(), observed.Len())
	var total float64
	var count int
	for i := 0; i < n; i++ {
		if !ref.Valid(i, 0) || !observed.Valid(i, minConf) {
			continue
		}
		total += ref.At(i).Dist(observed.At(i))
		count++
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}
