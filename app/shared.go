// Package app ties the viewer together: shared cross-thread state,
// input bindings, the selection interaction state machine, and async
// task handles delivering parse and build results to the main loop.
package app

import (
	"sync/atomic"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/view"
)

// SharedState is the state shared between the main loop, the animation
// worker and async tasks. All fields are lock-free cells; readers always
// see a coherent value.
type SharedState struct {
	*view.Shared

	// hover holds the node id under the cursor, 0 when none.
	hover atomic.Uint32

	// rectAnchor holds the world-space anchor of an in-progress
	// rectangle selection, nil when none.
	rectAnchor atomic.Pointer[gfaview.Point]

	overlayOn atomic.Bool
	darkTheme atomic.Bool
}

// NewSharedState creates shared state around a view cell.
func NewSharedState(shared *view.Shared) *SharedState {
	return &SharedState{Shared: shared}
}

// HoverNode returns the node under the cursor, or 0.
func (s *SharedState) HoverNode() graph.NodeID {
	return graph.NodeID(s.hover.Load())
}

// SetHoverNode stores the node under the cursor, 0 for none.
func (s *SharedState) SetHoverNode(id graph.NodeID) {
	s.hover.Store(uint32(id))
}

// RectAnchor returns the selection rectangle anchor, if one is set.
func (s *SharedState) RectAnchor() (gfaview.Point, bool) {
	p := s.rectAnchor.Load()
	if p == nil {
		return gfaview.Point{}, false
	}
	return *p, true
}

// SetRectAnchor stores the selection rectangle anchor.
func (s *SharedState) SetRectAnchor(p gfaview.Point) {
	s.rectAnchor.Store(&p)
}

// ClearRectAnchor clears the selection rectangle anchor.
func (s *SharedState) ClearRectAnchor() {
	s.rectAnchor.Store(nil)
}

// OverlayEnabled reports whether the active overlay is shown.
func (s *SharedState) OverlayEnabled() bool { return s.overlayOn.Load() }

// ToggleOverlay flips overlay display and returns the new state.
func (s *SharedState) ToggleOverlay() bool {
	for {
		old := s.overlayOn.Load()
		if s.overlayOn.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// DarkTheme reports whether the dark theme is active.
func (s *SharedState) DarkTheme() bool { return s.darkTheme.Load() }

// ToggleTheme flips the theme and returns true when dark is now active.
func (s *SharedState) ToggleTheme() bool {
	for {
		old := s.darkTheme.Load()
		if s.darkTheme.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
