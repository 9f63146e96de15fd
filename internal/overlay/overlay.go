// Package overlay draws the ghost and the observed skeleton into an image
// for debugging and replay snapshots.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/paulmach/orb"
	"gocv.io/x/gocv"
)

// ErrNothingToDraw is returned when neither skeleton has a finite point.
var ErrNothingToDraw = errors.New("overlay: nothing to draw")

// Style controls how skeletons are drawn.
type Style struct {
	Background    color.RGBA
	GhostColor    color.RGBA
	ObservedColor color.RGBA
	TextColor     color.RGBA
	Thickness     int
	Radius        int
	// Margin is the padding in pixels kept free around the skeletons.
	Margin        int
	MinConfidence float64
}

// DefaultStyle draws a translucent-looking grey ghost under a green subject.
func DefaultStyle() Style {
	return Style{
		Background:    color.RGBA{R: 24, G: 24, B: 24, A: 0},
		GhostColor:    color.RGBA{R: 170, G: 170, B: 170, A: 0},
		ObservedColor: color.RGBA{R: 0, G: 220, B: 90, A: 0},
		TextColor:     color.RGBA{R: 255, G: 255, B: 255, A: 0},
		Thickness:     2,
		Radius:        4,
		Margin:        20,
		MinConfidence: 0.5,
	}
}

// Viewport maps normalized landmark coordinates into pixel space.
type Viewport struct {
	Scale  float64
	Offset geom.Point
	Width  int
	Height int
}

// Fit returns the viewport that fits b into a width x height canvas with
// margin pixels on every side, preserving the aspect ratio and centering
// the content.
func Fit(b orb.Bound, width, height, margin int) Viewport {
	v := Viewport{Scale: 1, Width: width, Height: height}

	w := float64(width - 2*margin)
	h := float64(height - 2*margin)
	bw := b.Max.X() - b.Min.X()
	bh := b.Max.Y() - b.Min.Y()

	switch {
	case bw <= geom.Epsilon && bh <= geom.Epsilon:
		v.Scale = 1
	case bw <= geom.Epsilon:
		v.Scale = h / bh
	case bh <= geom.Epsilon:
		v.Scale = w / bw
	default:
		v.Scale = math.Min(w/bw, h/bh)
	}

	center := b.Center()
	v.Offset = geom.Point{
		X: float64(width)/2 - center.X()*v.Scale,
		Y: float64(height)/2 - center.Y()*v.Scale,
	}
	return v
}

// Project maps a landmark to a pixel.
func (v Viewport) Project(p geom.Point) image.Point {
	return image.Point{
		X: int(math.Round(p.X*v.Scale + v.Offset.X)),
		Y: int(math.Round(p.Y*v.Scale + v.Offset.Y)),
	}
}

// Frame is what one overlay shows. Caption lines are printed in the
// top-left corner.
type Frame struct {
	Kind     landmark.Kind
	Ghost    landmark.Set
	Observed landmark.Set
	Caption  []string
}

func (f Frame) bounds() (orb.Bound, bool) {
	pts := make([]geom.Point, 0, f.Ghost.Len()+f.Observed.Len())
	pts = append(pts, f.Ghost.Points...)
	pts = append(pts, f.Observed.Points...)
	var finite int
	for _, p := range pts {
		if p.IsFinite() {
			finite++
		}
	}
	return geom.Bounds(pts), finite > 0
}

// Render draws f onto a new width x height BGR image. The caller owns the
// returned Mat and must Close it.
func Render(f Frame, width, height int, style Style) (gocv.Mat, error) {
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("overlay: invalid canvas %dx%d", width, height)
	}
	b, ok := f.bounds()
	if !ok {
		return gocv.NewMat(), ErrNothingToDraw
	}

	bg := style.Background
	img := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(bg.B), float64(bg.G), float64(bg.R), 0),
		height, width, gocv.MatTypeCV8UC3,
	)

	v := Fit(b, width, height, style.Margin)
	drawSkeleton(&img, v, f.Kind, f.Ghost, style.GhostColor, style)
	drawSkeleton(&img, v, f.Kind, f.Observed, style.ObservedColor, style)

	for i, line := range f.Caption {
		org := image.Point{X: 10, Y: 24 + 22*i}
		gocv.PutText(&img, line, org, gocv.FontHersheySimplex, 0.6, style.TextColor, 1)
	}
	return img, nil
}

func drawSkeleton(img *gocv.Mat, v Viewport, kind landmark.Kind, s landmark.Set, c color.RGBA, style Style) {
	for _, e := range kind.Edges() {
		if !s.Valid(e[0], style.MinConfidence) || !s.Valid(e[1], style.MinConfidence) {
			continue
		}
		gocv.Line(img, v.Project(s.At(e[0])), v.Project(s.At(e[1])), c, style.Thickness)
	}
	for i := range s.Points {
		if !s.Valid(i, style.MinConfidence) {
			continue
		}
		gocv.Circle(img, v.Project(s.At(i)), style.Radius, c, -1)
	}
}

// Encode renders f and encodes it in the image format of ext (".png",
// ".jpg").
func Encode(f Frame, width, height int, style Style, ext string) ([]byte, error) {
	img, err := Render(f, width, height, style)
	defer img.Close()
	if err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.FileExt(ext), img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Snapshot renders f and writes it to path. The format follows the file
// extension.
func Snapshot(path string, f Frame, width, height int, style Style) error {
	img, err := Render(f, width, height, style)
	defer img.Close()
	if err != nil {
		return err
	}
	if !gocv.IMWrite(path, img) {
		return fmt.Errorf("failed to write snapshot %s", path)
	}
	return nil
}
