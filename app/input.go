package app

import (
	"time"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/view"
)

// wheelZoomSpeed is the zoom multiplier per wheel notch, uninverted.
const wheelZoomSpeed = 0.45

const wheelZoomDuration = 150 * time.Millisecond

// Key identifies a bindable key.
type Key uint8

const (
	KeyNone Key = iota
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyF9
	KeyF10
)

// MouseButton identifies a bindable mouse button.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Event is a single window event. Exactly one field group is set,
// selected by Kind.
type Event struct {
	Kind EventKind

	Width, Height float32

	Key     Key
	Pressed bool

	Button MouseButton
	Pos    gfaview.Point

	WheelDelta float32

	Rune rune
}

// EventKind discriminates window events.
type EventKind uint8

const (
	EventResize EventKind = iota
	EventKey
	EventMouseButton
	EventMouseMove
	EventMouseWheel
	EventChar
)

// EventSource delivers window events to the input handler. The windowing
// layer implements it; tests drive it directly.
type EventSource interface {
	Events() <-chan Event
}

// rectState is the selection interaction state.
type rectState uint8

const (
	rectIdle rectState = iota
	// rectAnchored: mouse down, not yet moved.
	rectAnchored
	// rectSelecting: dragging out a rectangle.
	rectSelecting
)

// InputHandler translates window events into app messages and animator
// requests. It owns the selection interaction state machine:
//
//	Idle -> Anchored (mouse down) -> Selecting (drag) -> Idle (mouse up)
//
// Escape returns to Idle from any state and clears the selection.
type InputHandler struct {
	shared   *SharedState
	channels Channels
	anim     *view.Animator

	state  rectState
	anchor gfaview.Point

	// initialView restores the view on the reset binding.
	initialView view.View
}

// NewInputHandler wires an input handler to the shared state, the app
// channel and the animation worker.
func NewInputHandler(shared *SharedState, channels Channels, anim *view.Animator, initial view.View) *InputHandler {
	return &InputHandler{
		shared:      shared,
		channels:    channels,
		anim:        anim,
		initialView: initial,
	}
}

// State exposes the interaction state for tests and debug overlays.
func (h *InputHandler) selecting() bool { return h.state == rectSelecting }

// Handle processes one event.
func (h *InputHandler) Handle(ev Event) {
	switch ev.Kind {
	case EventResize:
		h.shared.StoreDims(view.ScreenDims{Width: ev.Width, Height: ev.Height})

	case EventKey:
		h.handleKey(ev.Key, ev.Pressed)

	case EventMouseButton:
		if ev.Button == MouseLeft {
			h.handleLeftButton(ev.Pressed, ev.Pos)
		}

	case EventMouseMove:
		h.shared.StoreMouse(ev.Pos)
		if h.state == rectAnchored {
			h.state = rectSelecting
		}

	case EventMouseWheel:
		h.handleWheel(ev.WheelDelta)
	}
}

func (h *InputHandler) handleKey(key Key, pressed bool) {
	if !pressed {
		return
	}
	switch key {
	case KeyEscape:
		h.state = rectIdle
		h.shared.ClearRectAnchor()
		h.channels.Send(SelectClear{})

	case KeyUp:
		h.anim.Request(view.PanKey(h.shared.View(), 0, -1))
	case KeyDown:
		h.anim.Request(view.PanKey(h.shared.View(), 0, 1))
	case KeyLeft:
		h.anim.Request(view.PanKey(h.shared.View(), -1, 0))
	case KeyRight:
		h.anim.Request(view.PanKey(h.shared.View(), 1, 0))

	case KeySpace:
		h.anim.SetViewDirect(h.initialView)

	case KeyF9:
		h.channels.Send(ToggleTheme{})
	case KeyF10:
		h.channels.Send(ToggleOverlay{})
	}
}

func (h *InputHandler) handleLeftButton(pressed bool, screenPos gfaview.Point) {
	h.shared.StoreMouse(screenPos)
	world := h.shared.MouseWorld()

	if pressed {
		h.state = rectAnchored
		h.anchor = world
		h.shared.SetRectAnchor(world)
		return
	}

	// Mouse up.
	switch h.state {
	case rectSelecting:
		h.channels.Send(RectSelect{
			Rect:  gfaview.NewRect(h.anchor, world),
			Clear: true,
		})
	case rectAnchored:
		// A click without a drag selects the hovered node, or clears.
		if id := h.shared.HoverNode(); id != 0 {
			h.channels.Send(SelectOne{Node: id, Clear: true})
		} else {
			h.channels.Send(SelectClear{})
		}
	}
	h.state = rectIdle
	h.shared.ClearRectAnchor()
}

func (h *InputHandler) handleWheel(delta float32) {
	if delta == 0 {
		return
	}
	v := h.shared.View()

	// Uninverted: wheel up zooms in (smaller world extent per pixel
	// means a larger scale).
	factor := float32(1) + wheelZoomSpeed
	scale := v.Scale
	if delta > 0 {
		scale *= factor
	} else {
		scale /= factor
	}

	h.anim.Request(view.Request{
		Kind:     view.Absolute,
		Op:       view.OpScale,
		Scale:    scale,
		Duration: wheelZoomDuration,
	})
}

// Run pumps events from src until its channel closes.
func (h *InputHandler) Run(src EventSource) {
	for ev := range src.Events() {
		h.Handle(ev)
	}
}
