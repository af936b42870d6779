package view

import (
	"time"

	gfaview "github.com/gfaview/gfaview"
)

// animatorTick is how long the worker sleeps between wakeups.
const animatorTick = 2500 * time.Microsecond

// animatorMinStep is the minimum interval between view updates. Wakeups
// closer together than this are coalesced so the view cell is not churned
// faster than the display can show.
const animatorMinStep = 5 * time.Millisecond

// Animator is the dedicated view-animation worker. It owns the only
// writer side of the shared view cell: the event loop posts Requests and
// the worker integrates them over time using the request's easing.
//
// A new request always replaces the in-flight animation, restarting from
// the view current at that moment, so rapid input (held pan keys, wheel
// spins) chains into continuous motion instead of queueing up.
type Animator struct {
	shared *Shared

	requests chan Request
	stop     chan struct{}
	stopped  chan struct{}

	minScale float32
	maxScale float32
}

// AnimatorConfig bounds the zoom scale. Zero values leave the
// corresponding bound open.
type AnimatorConfig struct {
	MinScale float32
	MaxScale float32
}

// NewAnimator creates and starts the animation worker.
func NewAnimator(shared *Shared, cfg AnimatorConfig) *Animator {
	a := &Animator{
		shared:   shared,
		requests: make(chan Request, 64),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		minScale: cfg.MinScale,
		maxScale: cfg.MaxScale,
	}
	go a.run()
	return a
}

// Request submits a view animation. It never blocks: if the queue is
// full the oldest pending request is dropped, since a newer request
// supersedes it anyway.
func (a *Animator) Request(r Request) {
	for {
		select {
		case a.requests <- r:
			return
		default:
			select {
			case <-a.requests:
			default:
			}
		}
	}
}

// SetViewDirect stores a view immediately and cancels any in-flight
// animation. Used by pointer dragging, which tracks the cursor exactly
// rather than easing toward it.
func (a *Animator) SetViewDirect(v View) {
	a.Request(Request{
		Op:       OpTransform,
		Kind:     Absolute,
		Center:   v.Center,
		Scale:    v.Scale,
		Duration: 0,
	})
}

// Close stops the worker and waits for it to exit. Pending requests are
// discarded.
func (a *Animator) Close() {
	close(a.stop)
	<-a.stopped
}

func (a *Animator) run() {
	defer close(a.stopped)

	ticker := time.NewTicker(animatorTick)
	defer ticker.Stop()

	var anim *animation
	last := time.Now()

	for {
		select {
		case <-a.stop:
			return

		case req := <-a.requests:
			// Drain any backlog; only the newest request matters.
			for {
				select {
				case req = <-a.requests:
				default:
					goto latest
				}
			}
		latest:
			start := a.shared.View()
			end := req.resolve(start, a.shared.Dims()).ClampScale(a.minScale, a.maxScale)
			anim = newAnimation(start, end, req.Duration, req.Easing)
			last = time.Now()

			gfaview.Logger().Debug("view animation started",
				"center", end.Center, "scale", end.Scale,
				"duration", req.Duration)

		case now := <-ticker.C:
			if anim == nil {
				last = now
				continue
			}
			delta := now.Sub(last)
			if delta < animatorMinStep {
				continue
			}
			last = now

			v := anim.update(delta).ClampScale(a.minScale, a.maxScale)
			a.shared.StoreView(v)

			if anim.done() {
				anim = nil
			}
		}
	}
}
