package overlay

import (
	"bytes"
	"image"
	"math"
	"path/filepath"
	"testing"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestFit(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0.2, 0.4}, Max: orb.Point{0.6, 0.6}}
	v := Fit(b, 440, 240, 20)

	// 400 px for 0.4 wide, 200 px for 0.2 high: both give 1000.
	assert.InDelta(t, 1000.0, v.Scale, 1e-9)
	assert.Equal(t, image.Point{X: 20, Y: 20}, v.Project(geom.Point{X: 0.2, Y: 0.4}))
	assert.Equal(t, image.Point{X: 420, Y: 220}, v.Project(geom.Point{X: 0.6, Y: 0.6}))

	t.Run("aspect ratio is kept", func(t *testing.T) {
		v := Fit(b, 1000, 240, 20)
		assert.InDelta(t, 1000.0, v.Scale, 1e-9)
		assert.Equal(t, image.Point{X: 500, Y: 120}, v.Project(geom.Point{X: 0.4, Y: 0.5}))
	})

	t.Run("single point is centered", func(t *testing.T) {
		p := orb.Point{0.3, 0.3}
		v := Fit(orb.Bound{Min: p, Max: p}, 100, 100, 10)
		assert.Equal(t, image.Point{X: 50, Y: 50}, v.Project(geom.Point{X: 0.3, Y: 0.3}))
	})
}

func handFrame() Frame {
	ghost := landmark.OpenPalm()
	observed := landmark.OpenPalm()
	observed.Points[landmark.IndexTip].X += 0.02
	return Frame{Kind: landmark.Hand, Ghost: ghost, Observed: observed, Caption: []string{"score 91.0"}}
}

func TestRender(t *testing.T) {
	f := handFrame()
	style := DefaultStyle()

	img, err := Render(f, 320, 240, style)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, 240, img.Rows())
	assert.Equal(t, 320, img.Cols())

	b, _ := f.bounds()
	v := Fit(b, 320, 240, style.Margin)

	wrist := v.Project(f.Observed.At(int(landmark.Wrist)))
	px := img.GetVecbAt(wrist.Y, wrist.X)
	assert.Equal(t, style.ObservedColor.B, px[0])
	assert.Equal(t, style.ObservedColor.G, px[1])
	assert.Equal(t, style.ObservedColor.R, px[2])

	corner := img.GetVecbAt(239, 319)
	assert.Equal(t, style.Background.B, corner[0])
}

func TestRender_Errors(t *testing.T) {
	_, err := Render(handFrame(), 0, 10, DefaultStyle())
	assert.Error(t, err)

	empty := Frame{Kind: landmark.Hand, Ghost: landmark.Set{}, Observed: landmark.Set{
		Points: []geom.Point{{X: math.NaN(), Y: 0}},
	}}
	_, err = Render(empty, 100, 100, DefaultStyle())
	assert.ErrorIs(t, err, ErrNothingToDraw)
}

func TestEncode(t *testing.T) {
	data, err := Encode(handFrame(), 160, 120, DefaultStyle(), ".png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.png")
	pose := landmark.TPose()
	f := Frame{Kind: landmark.Body, Ghost: pose, Observed: pose}

	require.NoError(t, Snapshot(path, f, 200, 300, DefaultStyle()))

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	require.False(t, img.Empty())
	assert.Equal(t, 300, img.Rows())
	assert.Equal(t, 200, img.Cols())
}
