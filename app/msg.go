package app

import (
	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/graph"
)

// Msg is a message delivered to the main loop. Producers on any
// goroutine send into the app channel; only the main loop applies them.
type Msg interface{ appMsg() }

// SelectClear empties the selection.
type SelectClear struct{}

// SelectOne adds a single node to the selection. Clear empties the
// selection first.
type SelectOne struct {
	Node  graph.NodeID
	Clear bool
}

// SelectMany adds a set of nodes to the selection. Clear empties the
// selection first.
type SelectMany struct {
	Nodes []graph.NodeID
	Clear bool
}

// RectSelect asks for a GPU rectangle selection over the given world
// rectangle.
type RectSelect struct {
	Rect  gfaview.Rect
	Clear bool
}

// TranslateSelected reports that the selected nodes moved by Delta, so
// the cached bounding box shifts with them.
type TranslateSelected struct {
	Delta gfaview.Point
}

// GotoSelection animates the view to fit the selection bounding box.
type GotoSelection struct{}

// HoverNode updates the node under the cursor, 0 for none.
type HoverNode struct {
	Node graph.NodeID
}

// ToggleOverlay flips overlay display.
type ToggleOverlay struct{}

// ToggleTheme flips between the light and dark themes.
type ToggleTheme struct{}

func (SelectClear) appMsg()       {}
func (SelectOne) appMsg()         {}
func (SelectMany) appMsg()        {}
func (RectSelect) appMsg()        {}
func (TranslateSelected) appMsg() {}
func (GotoSelection) appMsg()     {}
func (HoverNode) appMsg()         {}
func (ToggleOverlay) appMsg()     {}
func (ToggleTheme) appMsg()       {}

// Channels carries the MPSC message channel from input handlers and
// async tasks to the main loop.
type Channels struct {
	Msgs chan Msg
}

// NewChannels allocates the app channel set.
func NewChannels() Channels {
	return Channels{Msgs: make(chan Msg, 128)}
}

// Send queues a message without blocking; the oldest queued message is
// dropped when the channel is full.
func (c Channels) Send(msg Msg) {
	for {
		select {
		case c.Msgs <- msg:
			return
		default:
		}
		select {
		case <-c.Msgs:
		default:
		}
	}
}

// Drain applies every queued message through fn, newest last.
func (c Channels) Drain(fn func(Msg)) {
	for {
		select {
		case msg := <-c.Msgs:
			fn(msg)
		default:
			return
		}
	}
}
