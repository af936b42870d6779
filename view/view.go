// Package view holds the camera state of the graph viewport and the
// animation worker that drives smooth view transitions.
//
// A View is a small value type (center, scale). The render thread reads
// the current view through an atomically-shared cell (see Shared) while
// the animation worker is the only writer, so no locks are involved on
// the frame path.
package view

import (
	"github.com/chewxy/math32"

	gfaview "github.com/gfaview/gfaview"
)

// ScreenDims is the viewport size in physical pixels.
type ScreenDims struct {
	Width, Height float32
}

// ShortSide returns the smaller viewport dimension.
func (d ScreenDims) ShortSide() float32 {
	return math32.Min(d.Width, d.Height)
}

// Center returns the viewport midpoint in screen coordinates.
func (d ScreenDims) Center() gfaview.Point {
	return gfaview.Pt(d.Width/2, d.Height/2)
}

// View is the current camera: the world point at the viewport center and
// the zoom scale. Scale is expressed in screen pixels per world unit, so
// a node that is L world units long covers L*Scale pixels on screen.
type View struct {
	Center gfaview.Point
	Scale  float32
}

// DefaultView is the view before any graph is loaded or fitted.
func DefaultView() View {
	return View{Center: gfaview.Pt(0, 0), Scale: 1}
}

// WorldToScreen maps a world-space point to screen pixels under this view.
func (v View) WorldToScreen(p gfaview.Point, dims ScreenDims) gfaview.Point {
	rel := p.Sub(v.Center).Mul(v.Scale)
	return rel.Add(dims.Center())
}

// ScreenToWorld maps a screen-pixel position back to world space.
func (v View) ScreenToWorld(p gfaview.Point, dims ScreenDims) gfaview.Point {
	rel := p.Sub(dims.Center())
	return rel.Mul(1 / v.Scale).Add(v.Center)
}

// ScreenRectToWorld maps a screen-space rectangle to world space.
func (v View) ScreenRectToWorld(r gfaview.Rect, dims ScreenDims) gfaview.Rect {
	return gfaview.NewRect(
		v.ScreenToWorld(r.Min, dims),
		v.ScreenToWorld(r.Max, dims),
	)
}

// ClipMatrix returns the column-major 4x4 world-to-clip matrix for this
// view: translate by -Center, scale to pixels, then map the viewport to
// NDC ([-1,1] with Y up). Uploaded as a shader uniform each frame.
func (v View) ClipMatrix(dims ScreenDims) [16]float32 {
	sx := 2 * v.Scale / dims.Width
	sy := -2 * v.Scale / dims.Height

	tx := -v.Center.X * sx
	ty := -v.Center.Y * sy

	return [16]float32{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, 1, 0,
		tx, ty, 0, 1,
	}
}

// gotoRectFraction controls how much of the short viewport axis a
// GotoRect target occupies after the animation: the rect's long side maps
// to shortSide/8 pixels.
const gotoRectFraction = float32(8)

// FitRect returns the view that centers the given world rectangle and
// scales it to a fixed fraction of the viewport's short axis. Degenerate
// rectangles (single points) keep the current scale.
func (v View) FitRect(r gfaview.Rect, dims ScreenDims) View {
	if r.IsEmpty() {
		return v
	}
	dim := math32.Max(r.Width(), r.Height())
	scale := v.Scale
	if dim > 0 {
		scale = dims.ShortSide() / (gotoRectFraction * dim)
	}
	return View{Center: r.Center(), Scale: scale}
}

// Lerp interpolates between two views; t=0 returns v, t=1 returns end.
// The endpoints are returned exactly so animations land on their target
// without float drift.
func (v View) Lerp(end View, t float32) View {
	if t <= 0 {
		return v
	}
	if t >= 1 {
		return end
	}
	return View{
		Center: v.Center.Lerp(end.Center, t),
		Scale:  v.Scale + (end.Scale-v.Scale)*t,
	}
}

// ClampScale returns the view with scale limited to [min, max].
// A zero max means no upper bound.
func (v View) ClampScale(min, max float32) View {
	if min > 0 && v.Scale < min {
		v.Scale = min
	}
	if max > 0 && v.Scale > max {
		v.Scale = max
	}
	return v
}
