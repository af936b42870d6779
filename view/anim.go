package view

import (
	"time"

	gfaview "github.com/gfaview/gfaview"
)

// RequestKind says whether a request's target is in absolute world
// coordinates or relative to the view at the time the animation starts.
type RequestKind int

const (
	// Absolute targets replace the view component outright.
	Absolute RequestKind = iota
	// Relative targets are combined with the current view: translation
	// deltas are added to the center, scale factors multiply the scale.
	Relative
)

// Request describes a view animation for the animation worker. Exactly
// one of the target fields is used depending on Op.
type Request struct {
	Op       Op
	Kind     RequestKind
	Center   gfaview.Point // Translate, Transform
	Scale    float32       // Scale, Transform
	Rect     gfaview.Rect  // GotoRect
	Duration time.Duration
	Easing   Easing
}

// Op selects which view components a Request animates.
type Op int

const (
	// OpTranslate animates the view center only.
	OpTranslate Op = iota
	// OpScale animates the zoom scale only.
	OpScale
	// OpTransform animates center and scale together.
	OpTransform
	// OpGotoRect fits a world rectangle into the viewport (see View.FitRect).
	OpGotoRect
)

// panKeyMult is the per-request pan distance in world units at scale 1.
const panKeyMult = float32(10)

// panKeyDuration is the duration of a single key-pan step. Held keys
// produce a stream of these, which chain into continuous motion because
// each new request starts from the then-current view.
const panKeyDuration = 100 * time.Millisecond

// PanKey builds the relative translate request for arrow-key panning.
// h and v are the horizontal/vertical key directions (-1, 0, or +1);
// the pan distance grows as the user zooms out so a key press always
// moves the view by the same fraction of the screen.
func PanKey(v View, h, vdir int) Request {
	sign := func(d int) float32 {
		switch {
		case d < 0:
			return -1
		case d > 0:
			return 1
		}
		return 0
	}
	delta := gfaview.Pt(sign(h), sign(vdir)).Mul(panKeyMult / v.Scale)
	return Request{
		Op:       OpTranslate,
		Kind:     Relative,
		Center:   delta,
		Duration: panKeyDuration,
		Easing:   ExpoOut,
	}
}

// GotoRect builds the absolute request that fits a world rectangle into
// the viewport.
func GotoRect(rect gfaview.Rect, duration time.Duration) Request {
	return Request{
		Op:       OpGotoRect,
		Kind:     Absolute,
		Rect:     rect,
		Duration: duration,
		Easing:   ExpoOut,
	}
}

// resolve computes the animation end view for a request given the view at
// animation start.
func (r Request) resolve(start View, dims ScreenDims) View {
	end := start
	switch r.Op {
	case OpTranslate:
		if r.Kind == Relative {
			end.Center = start.Center.Add(r.Center)
		} else {
			end.Center = r.Center
		}
	case OpScale:
		if r.Kind == Relative {
			end.Scale = start.Scale * r.Scale
		} else {
			end.Scale = r.Scale
		}
	case OpTransform:
		if r.Kind == Relative {
			end.Center = start.Center.Add(r.Center)
			end.Scale = start.Scale * r.Scale
		} else {
			end.Center = r.Center
			end.Scale = r.Scale
		}
	case OpGotoRect:
		end = start.FitRect(r.Rect, dims)
	}
	return end
}

// animation is one in-flight view animation. The worker integrates it by
// advancing now and sampling the eased lerp between start and end.
type animation struct {
	start    View
	end      View
	duration time.Duration
	now      time.Duration
	easing   Easing
}

func newAnimation(start, end View, duration time.Duration, easing Easing) *animation {
	if easing == nil {
		easing = ExpoOut
	}
	return &animation{
		start:    start,
		end:      end,
		duration: duration,
		easing:   easing,
	}
}

// viewAt samples the animation at an elapsed time. Durations at or below
// 10ms snap straight to the end view.
func (a *animation) viewAt(elapsed time.Duration) View {
	d := a.duration.Seconds()

	var t float64
	switch {
	case d <= 0.01, elapsed >= a.duration:
		t = 1
	default:
		t = elapsed.Seconds() / d
	}

	return a.start.Lerp(a.end, float32(a.easing(t)))
}

// update advances the animation clock and returns the current view.
func (a *animation) update(delta time.Duration) View {
	a.now += delta
	return a.viewAt(a.now)
}

// done reports whether the animation has reached its end.
func (a *animation) done() bool {
	return a.now >= a.duration
}
