package view

import (
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gfaview "github.com/gfaview/gfaview"
)

func TestWorldScreenRoundTrip(t *testing.T) {
	dims := ScreenDims{Width: 800, Height: 600}

	views := []View{
		{Center: gfaview.Pt(0, 0), Scale: 1},
		{Center: gfaview.Pt(100, -250), Scale: 4},
		{Center: gfaview.Pt(-3.5, 12), Scale: 0.125},
	}
	points := []gfaview.Point{
		gfaview.Pt(0, 0),
		gfaview.Pt(55, 77),
		gfaview.Pt(-123, 456),
	}

	for _, v := range views {
		for _, p := range points {
			screen := v.WorldToScreen(p, dims)
			back := v.ScreenToWorld(screen, dims)
			assert.InDelta(t, p.X, back.X, 1e-3)
			assert.InDelta(t, p.Y, back.Y, 1e-3)
		}
	}
}

// The on-screen length of a segment equals its world length times the
// view scale, for any view translation.
func TestScreenLengthScalesWithView(t *testing.T) {
	dims := ScreenDims{Width: 1024, Height: 768}
	p0 := gfaview.Pt(10, 20)
	p1 := gfaview.Pt(40, 60) // world length 50

	for _, v := range []View{
		{Center: gfaview.Pt(0, 0), Scale: 1},
		{Center: gfaview.Pt(500, 500), Scale: 2.5},
		{Center: gfaview.Pt(-20, 35), Scale: 0.2},
	} {
		s0 := v.WorldToScreen(p0, dims)
		s1 := v.WorldToScreen(p1, dims)
		want := p0.Distance(p1) * v.Scale
		assert.InDelta(t, want, s0.Distance(s1), 1e-2,
			"scale %v", v.Scale)
	}
}

func TestClipMatrixCenterMapsToOrigin(t *testing.T) {
	dims := ScreenDims{Width: 800, Height: 600}
	v := View{Center: gfaview.Pt(123, -45), Scale: 3}

	m := v.ClipMatrix(dims)

	// Column-major multiply against (123, -45, 0, 1).
	x := m[0]*v.Center.X + m[4]*v.Center.Y + m[12]
	y := m[1]*v.Center.X + m[5]*v.Center.Y + m[13]

	assert.InDelta(t, 0, x, 1e-4)
	assert.InDelta(t, 0, y, 1e-4)
}

func TestClipMatrixScalesToNDC(t *testing.T) {
	dims := ScreenDims{Width: 800, Height: 600}
	v := View{Center: gfaview.Pt(0, 0), Scale: 1}

	m := v.ClipMatrix(dims)

	// The right viewport edge is w/(2*scale) world units from center and
	// must land at clip x=1.
	edge := dims.Width / (2 * v.Scale)
	x := m[0] * edge
	assert.InDelta(t, 1, x, 1e-5)

	// World +Y points down on screen, so it maps to negative clip Y.
	yEdge := dims.Height / (2 * v.Scale)
	y := m[5] * yEdge
	assert.InDelta(t, -1, y, 1e-5)
}

// Scenario: selection bounds ((10,0),(15,0)) on an 800x600 screen fit to
// center (12.5, 0) and scale 15 within 1%.
func TestFitRectGotoSelection(t *testing.T) {
	dims := ScreenDims{Width: 800, Height: 600}
	rect := gfaview.NewRect(gfaview.Pt(10, 0), gfaview.Pt(15, 0))

	fit := DefaultView().FitRect(rect, dims)

	assert.InDelta(t, 12.5, fit.Center.X, 1e-4)
	assert.InDelta(t, 0, fit.Center.Y, 1e-4)
	assert.InDelta(t, 15, fit.Scale, 15*0.01)
}

func TestFitRectEmptyKeepsView(t *testing.T) {
	dims := ScreenDims{Width: 800, Height: 600}
	v := View{Center: gfaview.Pt(5, 5), Scale: 2}
	assert.Equal(t, v, v.FitRect(gfaview.RectEmpty(), dims))
}

func TestViewLerpEndpointsExact(t *testing.T) {
	start := View{Center: gfaview.Pt(0, 0), Scale: 1}
	end := View{Center: gfaview.Pt(100, 200), Scale: 8}

	assert.Equal(t, start, start.Lerp(end, 0))
	assert.Equal(t, end, start.Lerp(end, 1))
	assert.Equal(t, end, start.Lerp(end, 1.5))

	mid := start.Lerp(end, 0.5)
	assert.InDelta(t, 50, mid.Center.X, 1e-4)
	assert.InDelta(t, 4.5, mid.Scale, 1e-4)
}

func TestClampScale(t *testing.T) {
	v := View{Scale: 100}
	assert.Equal(t, float32(50), v.ClampScale(1, 50).Scale)
	v.Scale = 0.001
	assert.Equal(t, float32(0.01), v.ClampScale(0.01, 50).Scale)
	// Zero bounds are open.
	v.Scale = 1e6
	assert.Equal(t, float32(1e6), v.ClampScale(0, 0).Scale)
}

func TestAnimationEndpointsExact(t *testing.T) {
	start := View{Center: gfaview.Pt(0, 0), Scale: 1}
	end := View{Center: gfaview.Pt(10, 10), Scale: 2}
	anim := newAnimation(start, end, time.Second, ElasticOut)

	assert.Equal(t, start, anim.viewAt(0))
	assert.Equal(t, end, anim.viewAt(time.Second))
	assert.Equal(t, end, anim.viewAt(2*time.Second))
}

func TestAnimationShortDurationSnaps(t *testing.T) {
	start := View{Center: gfaview.Pt(0, 0), Scale: 1}
	end := View{Center: gfaview.Pt(10, 10), Scale: 2}
	anim := newAnimation(start, end, 5*time.Millisecond, ExpoOut)

	assert.Equal(t, end, anim.viewAt(time.Millisecond))
}

func TestRequestResolve(t *testing.T) {
	dims := ScreenDims{Width: 800, Height: 600}
	start := View{Center: gfaview.Pt(10, 10), Scale: 2}

	tests := []struct {
		name string
		req  Request
		want View
	}{
		{
			name: "relative translate",
			req:  Request{Op: OpTranslate, Kind: Relative, Center: gfaview.Pt(5, -5)},
			want: View{Center: gfaview.Pt(15, 5), Scale: 2},
		},
		{
			name: "absolute translate",
			req:  Request{Op: OpTranslate, Kind: Absolute, Center: gfaview.Pt(0, 0)},
			want: View{Center: gfaview.Pt(0, 0), Scale: 2},
		},
		{
			name: "relative scale",
			req:  Request{Op: OpScale, Kind: Relative, Scale: 3},
			want: View{Center: gfaview.Pt(10, 10), Scale: 6},
		},
		{
			name: "absolute scale",
			req:  Request{Op: OpScale, Kind: Absolute, Scale: 0.5},
			want: View{Center: gfaview.Pt(10, 10), Scale: 0.5},
		},
		{
			name: "absolute transform",
			req:  Request{Op: OpTransform, Kind: Absolute, Center: gfaview.Pt(1, 2), Scale: 9},
			want: View{Center: gfaview.Pt(1, 2), Scale: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.req.resolve(start, dims)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPanKeyScalesWithZoom(t *testing.T) {
	zoomedIn := PanKey(View{Scale: 10}, 1, 0)
	zoomedOut := PanKey(View{Scale: 0.1}, 1, 0)

	require.Equal(t, OpTranslate, zoomedIn.Op)
	require.Equal(t, Relative, zoomedIn.Kind)

	// Zoomed out pans farther in world units.
	assert.Greater(t, zoomedOut.Center.X, zoomedIn.Center.X)
	assert.InDelta(t, 1.0, float64(zoomedIn.Center.X), 1e-5)
	assert.InDelta(t, 100.0, float64(zoomedOut.Center.X), 1e-3)
}

func TestScreenRectToWorldScaleInvariant(t *testing.T) {
	dims := ScreenDims{Width: 800, Height: 600}
	world := gfaview.NewRect(gfaview.Pt(-5, -5), gfaview.Pt(5, 5))

	for _, v := range []View{
		{Center: gfaview.Pt(0, 0), Scale: 1},
		{Center: gfaview.Pt(0, 0), Scale: 10},
	} {
		sMin := v.WorldToScreen(world.Min, dims)
		sMax := v.WorldToScreen(world.Max, dims)
		back := v.ScreenRectToWorld(gfaview.NewRect(sMin, sMax), dims)

		assert.True(t, math32.Abs(back.Min.X-world.Min.X) < 1e-3)
		assert.True(t, math32.Abs(back.Max.Y-world.Max.Y) < 1e-3)
	}
}
