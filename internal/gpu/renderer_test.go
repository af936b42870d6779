//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/overlay"
)

func identityClip() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func testFrameParams() FrameParams {
	return FrameParams{
		Width:         320,
		Height:        240,
		Clip:          identityClip(),
		Scale:         1,
		NodeWidth:     10,
		TexturePeriod: 6,
		OverlayMode:   NodeColorTheme,
		EdgeWidth:     2,
		EdgeColor:     gfaview.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1},
		Bow:           0.25,
		Background:    gputypes.Color{R: 1, G: 1, B: 1, A: 1},
	}
}

func newTestRenderer(t *testing.T) (*Renderer, func()) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)

	r, err := NewRenderer(device, queue, testGraph(t), testLayout(), overlay.LightDefault())
	if err != nil {
		cleanup()
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r, func() {
		r.Destroy()
		cleanup()
	}
}

func TestRendererNew(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	if r.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", r.NodeCount())
	}
	if r.Dispatcher() == nil {
		t.Error("expected non-nil dispatcher")
	}
}

func TestRendererRenderFrameOutline(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	// The outline passes sample the mask and outline attachments; the
	// recording includes their usage transitions.
	p := testFrameParams()
	p.OutlineSelection = true
	if err := r.RenderFrame(p); err != nil {
		t.Fatalf("RenderFrame with outline failed: %v", err)
	}
}

func TestRendererRenderFrame(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	if err := r.RenderFrame(testFrameParams()); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	// Picking grid covers the frame after a render.
	w, h := r.pick.Size()
	if w != 320 || h != 240 {
		t.Errorf("pick grid = (%d, %d), want (320, 240)", w, h)
	}
	if _, ok := r.NodeAt(-1, 0); ok {
		t.Error("expected miss for out-of-bounds pixel")
	}
	if _, ok := r.NodeAt(5000, 5000); ok {
		t.Error("expected miss for out-of-bounds pixel")
	}
}

func TestRendererRenderFrameZeroSize(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	p := testFrameParams()
	p.Width = 0
	if err := r.RenderFrame(p); err == nil {
		t.Error("expected error for zero frame size")
	}
}

func TestRendererResize(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	p := testFrameParams()
	if err := r.RenderFrame(p); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	p.Width, p.Height = 640, 480
	if err := r.RenderFrame(p); err != nil {
		t.Fatalf("RenderFrame after resize failed: %v", err)
	}
	w, h := r.pick.Size()
	if w != 640 || h != 480 {
		t.Errorf("pick grid = (%d, %d), want (640, 480)", w, h)
	}
}

func TestRendererRenderFrameWithGUI(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	var mesh GUIMesh
	mesh.Clip = gfaview.Rect{Max: gfaview.Point{X: 320, Y: 240}}
	r.atlas.AppendRect(&mesh, gfaview.Rect{
		Min: gfaview.Point{X: 10, Y: 10},
		Max: gfaview.Point{X: 110, Y: 40},
	}, gfaview.RGBA{A: 0.8})
	r.atlas.AppendText(&mesh, "node 2", gfaview.Point{X: 14, Y: 30}, gfaview.RGBA{R: 1, G: 1, B: 1, A: 1})

	p := testFrameParams()
	p.GUI = []GUIMesh{mesh}
	if err := r.RenderFrame(p); err != nil {
		t.Fatalf("RenderFrame with GUI failed: %v", err)
	}
}

func TestRendererSelectAndTranslate(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	id, err := r.SelectRect(gfaview.Rect{
		Min: gfaview.Point{X: -5, Y: -5},
		Max: gfaview.Point{X: 35, Y: 5},
	}, true)
	if err != nil {
		t.Fatalf("SelectRect failed: %v", err)
	}
	if err := r.Dispatcher().Release(id, true); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	id, err = r.TranslateSelection(gfaview.Point{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("TranslateSelection failed: %v", err)
	}
	if err := r.Dispatcher().Release(id, true); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := r.DownloadPositions(); err != nil {
		t.Fatalf("DownloadPositions failed: %v", err)
	}
	if _, err := r.DownloadSelection(); err != nil {
		t.Fatalf("DownloadSelection failed: %v", err)
	}
}

func TestRendererReadFrame(t *testing.T) {
	r, done := newTestRenderer(t)
	defer done()

	if _, err := r.ReadFrame(); err == nil {
		t.Error("expected error before first frame")
	}

	if err := r.RenderFrame(testFrameParams()); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	pixels, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if len(pixels) != 320*240*4 {
		t.Errorf("pixel length = %d, want %d", len(pixels), 320*240*4)
	}
}
