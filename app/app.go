package app

import (
	"time"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/layout"
	"github.com/gfaview/gfaview/overlay"
	"github.com/gfaview/gfaview/universe"
	"github.com/gfaview/gfaview/view"
)

const gotoSelectionDuration = 750 * time.Millisecond

// App owns the main-loop-side state: the node selection, its cached
// bounding box and the theme set. Messages from input handlers and
// async tasks are applied between frames via Apply.
type App struct {
	shared   *SharedState
	channels Channels

	positions *layout.Positions
	selection *universe.NodeSelection

	// selectionBox caches the selection bounding box so GotoSelection
	// and TranslateSelected do not rescan the selection.
	selectionBox gfaview.Rect

	selectionDirty bool

	// rectSelect, when installed, routes rectangle selection to the
	// GPU kernel. The CPU mirror runs when it is absent or fails.
	rectSelect func(rect gfaview.Rect, clear bool) error

	themes [2]overlay.Theme
}

// New creates the app state for a loaded layout.
func New(shared *SharedState, positions *layout.Positions) *App {
	return &App{
		shared:       shared,
		channels:     NewChannels(),
		positions:    positions,
		selection:    universe.NewNodeSelection(positions.NodeCount()),
		selectionBox: gfaview.RectEmpty(),
		themes:       [2]overlay.Theme{overlay.LightDefault(), overlay.DarkDefault()},
	}
}

// Shared returns the cross-thread shared state.
func (a *App) Shared() *SharedState { return a.shared }

// Channels returns the app message channel set.
func (a *App) Channels() Channels { return a.channels }

// SetRectSelector installs the GPU rectangle-selection kernel hook.
func (a *App) SetRectSelector(fn func(rect gfaview.Rect, clear bool) error) {
	a.rectSelect = fn
}

// Selection returns the current node selection. Only the main loop may
// mutate it.
func (a *App) Selection() *universe.NodeSelection { return a.selection }

// SelectionBoundingBox returns the cached selection bounding box.
func (a *App) SelectionBoundingBox() gfaview.Rect { return a.selectionBox }

// SelectionDirty reports whether the selection changed since the last
// TakeSelectionDirty, so the GPU selection buffer can be refreshed.
func (a *App) SelectionDirty() bool { return a.selectionDirty }

// TakeSelectionDirty clears and returns the dirty flag.
func (a *App) TakeSelectionDirty() bool {
	d := a.selectionDirty
	a.selectionDirty = false
	return d
}

// ActiveTheme returns the theme matching the shared theme toggle.
func (a *App) ActiveTheme() overlay.Theme {
	if a.shared.DarkTheme() {
		return a.themes[1]
	}
	return a.themes[0]
}

// Apply processes one message. Animator requests resulting from
// messages go through anim; a nil anim drops them.
func (a *App) Apply(msg Msg, anim *view.Animator) {
	switch m := msg.(type) {
	case SelectClear:
		a.selection.Clear()
		a.selectionBox = gfaview.RectEmpty()
		a.selectionDirty = true

	case SelectOne:
		if m.Clear {
			a.selection.Clear()
			a.selectionBox = gfaview.RectEmpty()
		}
		if a.selection.Add(m.Node) {
			n := a.positions.Node(uint32(m.Node))
			a.selectionBox = a.selectionBox.ExpandPoint(n.P0).ExpandPoint(n.P1)
		}
		a.selectionDirty = true

	case SelectMany:
		if m.Clear {
			a.selection.Clear()
			a.selectionBox = gfaview.RectEmpty()
		}
		for _, id := range m.Nodes {
			if a.selection.Add(id) {
				n := a.positions.Node(uint32(id))
				a.selectionBox = a.selectionBox.ExpandPoint(n.P0).ExpandPoint(n.P1)
			}
		}
		a.selectionDirty = true

	case RectSelect:
		if a.rectSelect != nil {
			err := a.rectSelect(m.Rect, m.Clear)
			if err == nil {
				return
			}
			gfaview.Logger().Warn("rect select kernel failed, using CPU mirror", "error", err)
		}
		a.SelectNodesInRect(m.Rect, m.Clear)

	case TranslateSelected:
		if a.selectionBox.IsEmpty() {
			return
		}
		ids := a.selection.IDs()
		raw := make([]uint32, len(ids))
		for i, id := range ids {
			raw[i] = uint32(id)
		}
		a.positions.Translate(raw, m.Delta)
		a.selectionBox = gfaview.Rect{
			Min: a.selectionBox.Min.Add(m.Delta),
			Max: a.selectionBox.Max.Add(m.Delta),
		}

	case GotoSelection:
		if a.selectionBox.IsEmpty() || anim == nil {
			return
		}
		anim.Request(view.GotoRect(a.selectionBox, gotoSelectionDuration))

	case HoverNode:
		a.shared.SetHoverNode(m.Node)

	case ToggleOverlay:
		on := a.shared.ToggleOverlay()
		gfaview.Logger().Debug("overlay toggled", "enabled", on)

	case ToggleTheme:
		dark := a.shared.ToggleTheme()
		gfaview.Logger().Debug("theme toggled", "dark", dark)
	}
}

// ApplyPending drains and applies all queued messages.
func (a *App) ApplyPending(anim *view.Animator) {
	a.channels.Drain(func(msg Msg) { a.Apply(msg, anim) })
}

// SelectNodesInRect selects every node whose segment midpoint falls in
// the world rectangle. The CPU path mirrors the GPU rectangle-selection
// kernel and is used when the compute queue is unavailable.
func (a *App) SelectNodesInRect(rect gfaview.Rect, clear bool) {
	var ids []graph.NodeID
	for i, n := range a.positions.Nodes() {
		if rect.Contains(n.Center()) {
			ids = append(ids, graph.NodeID(i+1))
		}
	}
	a.Apply(SelectMany{Nodes: ids, Clear: clear}, nil)
}
