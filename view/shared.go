package view

import (
	"sync/atomic"

	gfaview "github.com/gfaview/gfaview"
)

// Shared is the atomically-shared camera state. The animation worker is
// the single writer of the view cell; the render thread reads it once per
// frame and always observes a coherent (center, scale) pair because the
// whole View value is swapped through one pointer.
//
// All methods are safe for concurrent use.
type Shared struct {
	view  atomic.Pointer[View]
	dims  atomic.Pointer[ScreenDims]
	mouse atomic.Pointer[gfaview.Point]
}

// NewShared creates shared camera state with the given initial view and
// viewport size.
func NewShared(initial View, dims ScreenDims) *Shared {
	s := &Shared{}
	s.StoreView(initial)
	s.StoreDims(dims)
	s.StoreMouse(dims.Center())
	return s
}

// View returns the current camera view.
func (s *Shared) View() View { return *s.view.Load() }

// StoreView atomically replaces the camera view.
func (s *Shared) StoreView(v View) {
	s.view.Store(&v)
}

// Dims returns the current viewport size.
func (s *Shared) Dims() ScreenDims { return *s.dims.Load() }

// StoreDims atomically replaces the viewport size. Called from the event
// loop on window resize.
func (s *Shared) StoreDims(d ScreenDims) {
	s.dims.Store(&d)
}

// Mouse returns the last stored cursor position in screen coordinates.
func (s *Shared) Mouse() gfaview.Point { return *s.mouse.Load() }

// StoreMouse atomically replaces the cursor position.
func (s *Shared) StoreMouse(p gfaview.Point) {
	s.mouse.Store(&p)
}

// MouseWorld returns the cursor position mapped into world space under
// the current view.
func (s *Shared) MouseWorld() gfaview.Point {
	return s.View().ScreenToWorld(s.Mouse(), s.Dims())
}
