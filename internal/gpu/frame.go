//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/layout"
	"github.com/gfaview/gfaview/overlay"
	"github.com/gfaview/gfaview/universe"
)

// FrameParams carries everything a single frame needs from the view
// and application state.
type FrameParams struct {
	Width, Height uint32

	// Clip is the column-major world-to-clip matrix of the view.
	Clip [16]float32

	// Scale is the view scale in pixels per world unit.
	Scale float32

	// NodeWidth is the node thickness in world units.
	NodeWidth float32

	// TexturePeriod is the theme palette length node ids wrap over.
	TexturePeriod float32

	// OverlayMode selects the node color source, one of the
	// NodeColor constants.
	OverlayMode uint32

	EdgeWidth float32
	EdgeColor gfaview.RGBA

	// Bow scales how far edge curves leave the straight chord.
	Bow float32

	// OutlineSelection enables the selection outline post passes.
	OutlineSelection bool

	Background gputypes.Color

	// GUI is this frame's overlay mesh stream, already clipped.
	GUI []GUIMesh
}

// Renderer owns the whole per-graph GPU state: the geometry stores,
// the selection and overlay buffers, every pipeline and kernel, and
// the frame attachments. One Renderer serves one loaded graph.
type Renderer struct {
	device hal.Device
	queue  hal.Queue

	verts *NodeVertices
	edges *EdgeIndices
	sel   *SelectionBuffer
	ov    *OverlayBuffer
	theme *ThemeTexture

	att   *Attachments
	atlas *FontAtlas

	nodePipe *NodePipeline
	curve    *EdgeCurveCompute
	edgePipe *EdgePipeline
	post     *PostPipeline
	gui      *GUIPipeline
	pick     *NodeIDReadback

	dispatcher *Dispatcher
	selectRect *SelectionCompute
	translate  *TranslateCompute

	boundW, boundH uint32
}

// NewRenderer uploads the graph geometry and builds every pipeline.
// The returned Renderer must be destroyed with Destroy.
func NewRenderer(
	device hal.Device,
	queue hal.Queue,
	g graph.Source,
	pos *layout.Positions,
	theme overlay.Theme,
) (*Renderer, error) {
	r := &Renderer{device: device, queue: queue}

	var err error
	if r.verts, err = NewNodeVertices(device, queue, pos); err != nil {
		return nil, err
	}
	if r.edges, err = NewEdgeIndices(device, queue, g); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.sel, err = NewSelectionBuffer(device, queue, r.verts.NodeCount()); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.ov, err = NewOverlayBuffer(device, queue, r.verts.NodeCount()); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.theme, err = NewThemeTexture(device, queue, theme); err != nil {
		r.Destroy()
		return nil, err
	}

	r.att = NewAttachments(device)
	r.atlas = NewFontAtlas()

	if r.nodePipe, err = NewNodePipeline(device, queue, r.verts, r.sel, r.ov, r.theme); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.curve, err = NewEdgeCurveCompute(device, queue, r.verts, r.edges); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.edgePipe, err = NewEdgePipeline(device, queue, r.curve); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.post, err = NewPostPipeline(device, queue); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.gui, err = NewGUIPipeline(device, queue); err != nil {
		r.Destroy()
		return nil, err
	}
	r.pick = NewNodeIDReadback(device, queue)

	r.dispatcher = NewDispatcher(device, queue)
	if r.selectRect, err = NewSelectionCompute(device, queue, r.verts, r.sel); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.translate, err = NewTranslateCompute(device, queue, r.verts, r.sel); err != nil {
		r.Destroy()
		return nil, err
	}

	slogger().Info("gpu: renderer ready",
		"nodes", r.verts.NodeCount(),
		"edges", r.edges.EdgeCount())
	return r, nil
}

// NodeCount returns the number of nodes in the uploaded graph.
func (r *Renderer) NodeCount() uint32 { return r.verts.NodeCount() }

// Atlas returns the GUI font atlas, for building text meshes the GUI
// pass draws.
func (r *Renderer) Atlas() *FontAtlas { return r.atlas }

// Dispatcher returns the async compute dispatcher.
func (r *Renderer) Dispatcher() *Dispatcher { return r.dispatcher }

// SelectRect flags every node whose midpoint lies inside the world
// rect, optionally clearing the previous selection first. The returned
// fence completes when the selection buffer holds the result.
func (r *Renderer) SelectRect(rect gfaview.Rect, clear bool) (FenceID, error) {
	return r.selectRect.Run(r.dispatcher, SelectRectConfig{Clear: clear, Rect: rect})
}

// TranslateSelection moves every flagged node by delta, in world
// units. The GPU vertex store is authoritative afterwards; call
// DownloadPositions to refresh a CPU mirror.
func (r *Renderer) TranslateSelection(delta gfaview.Point) (FenceID, error) {
	return r.translate.Run(r.dispatcher, delta)
}

// DownloadPositions copies the node vertex store back to the CPU.
func (r *Renderer) DownloadPositions() ([]layout.Node, error) {
	return r.verts.Download()
}

// DownloadSelection copies the selection flags back to the CPU.
func (r *Renderer) DownloadSelection() (*universe.NodeSelection, error) {
	return r.sel.Download()
}

// UploadSelection replaces the GPU selection flags.
func (r *Renderer) UploadSelection(sel *universe.NodeSelection) {
	r.sel.Upload(sel)
}

// ClearSelection zeroes the selection flags.
func (r *Renderer) ClearSelection() { r.sel.Clear() }

// UploadOverlay replaces the per-node overlay data.
func (r *Renderer) UploadOverlay(ov *overlay.Overlay) error {
	return r.ov.Upload(ov)
}

// UploadTheme replaces the theme palette texture.
func (r *Renderer) UploadTheme(theme overlay.Theme) {
	r.theme.Upload(theme)
}

// NodeAt resolves a framebuffer pixel to the node rendered there in
// the last completed frame.
func (r *Renderer) NodeAt(x, y int) (graph.NodeID, bool) {
	return r.pick.NodeAt(x, y)
}

// ensureSize grows the attachments and rebinds the passes that sample
// them.
func (r *Renderer) ensureSize(w, h uint32) error {
	if err := r.att.EnsureSize(w, h); err != nil {
		return err
	}
	if r.boundW == w && r.boundH == h {
		return nil
	}
	if err := r.post.Rebind(r.att); err != nil {
		return err
	}
	r.boundW, r.boundH = w, h
	return nil
}

// RenderFrame draws one complete frame into the internal attachments
// and refreshes the node-ID picking grid. It blocks until the GPU has
// finished the frame.
//
// Pass order: edge curves (compute), edges into the multisampled
// color image, nodes on top with resolve plus the id and mask
// targets, selection outline extraction and composite, then the GUI
// mesh stream over the resolved image.
func (r *Renderer) RenderFrame(p FrameParams) error {
	if p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("%w: zero frame size", ErrNotInitialized)
	}
	if err := r.ensureSize(p.Width, p.Height); err != nil {
		return err
	}

	if err := r.gui.UploadAtlas(r.atlas); err != nil {
		return err
	}
	if err := r.gui.BuildFrame(p.GUI, float32(p.Width), float32(p.Height)); err != nil {
		return err
	}

	r.nodePipe.WriteConfig(NodeConfig{
		Clip:          p.Clip,
		BaseWidth:     p.NodeWidth,
		Scale:         p.Scale,
		ViewportW:     float32(p.Width),
		ViewportH:     float32(p.Height),
		TexturePeriod: p.TexturePeriod,
		OverlayMode:   p.OverlayMode,
	})
	ec := p.EdgeColor
	r.edgePipe.WriteConfig(EdgeConfig{
		Clip:      p.Clip,
		Width:     p.EdgeWidth,
		Scale:     p.Scale,
		ViewportW: float32(p.Width),
		ViewportH: float32(p.Height),
		Color:     [4]float32{ec.R * ec.A, ec.G * ec.A, ec.B * ec.A, ec.A},
	})
	r.post.WriteConfig(PostConfig{
		TexelW:  1 / float32(p.Width),
		TexelH:  1 / float32(p.Height),
		Enabled: p.OutlineSelection,
	})

	err := copyAndWait(r.device, r.queue, "frame", func(enc hal.CommandEncoder) {
		r.curve.Record(enc, EdgeCurveConfig{
			ViewportW: float32(p.Width),
			ViewportH: float32(p.Height),
			Scale:     p.Scale,
			Bow:       p.Bow,
		})

		// Edges first, under the nodes.
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "edge_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       r.att.ColorView(),
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: p.Background,
			}},
		})
		r.edgePipe.RecordDraws(rp)
		rp.End()

		// Nodes on top, resolving the multisampled image and writing
		// the picking and selection mask targets.
		rp = enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "node_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{
				{
					View:          r.att.ColorView(),
					ResolveTarget: r.att.ResolveView(),
					LoadOp:        gputypes.LoadOpLoad,
					StoreOp:       gputypes.StoreOpStore,
				},
				{
					View:       r.att.NodeIDView(),
					LoadOp:     gputypes.LoadOpClear,
					StoreOp:    gputypes.StoreOpStore,
					ClearValue: gputypes.Color{},
				},
				{
					View:       r.att.MaskView(),
					LoadOp:     gputypes.LoadOpClear,
					StoreOp:    gputypes.StoreOpStore,
					ClearValue: gputypes.Color{},
				},
			},
		})
		r.nodePipe.RecordDraws(rp)
		rp.End()

		r.post.RecordSobel(enc, r.att)
		r.post.RecordBlur(enc, r.att)

		// GUI over the resolved image.
		rp = enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "gui_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    r.att.ResolveView(),
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		r.gui.RecordDraws(rp, p.Width, p.Height)
		rp.End()

		if err := r.pick.Record(enc, r.att); err != nil {
			slogger().Warn("gpu: node id readback skipped", "error", err)
		}
	})
	if err != nil {
		return err
	}
	return r.pick.Resolve()
}

// ReadFrame copies the resolved frame image back to the CPU as tight
// RGBA rows. Intended for headless rendering and tests.
func (r *Renderer) ReadFrame() ([]byte, error) {
	w, h := r.att.Size()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: no rendered frame", ErrNotInitialized)
	}

	alignedRow := alignedBytesPerRow(w)
	staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_staging",
		Size:  uint64(alignedRow) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create frame staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(staging)

	err = copyAndWait(r.device, r.queue, "frame_read", func(enc hal.CommandEncoder) {
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: r.att.ResolveTexture(),
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		enc.CopyTextureToBuffer(r.att.ResolveTexture(), staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedRow, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: r.att.ResolveTexture(), MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: r.att.ResolveTexture(),
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	})
	if err != nil {
		return nil, err
	}

	raw := make([]byte, uint64(alignedRow)*uint64(h))
	if err := r.queue.ReadBuffer(staging, 0, raw); err != nil {
		return nil, fmt.Errorf("gpu: read frame staging buffer: %w", err)
	}

	out := make([]byte, int(w)*int(h)*4)
	for row := uint32(0); row < h; row++ {
		src := raw[row*alignedRow:]
		dst := out[row*w*4 : (row+1)*w*4]
		// BGRA attachment to RGBA rows.
		for x := uint32(0); x < w; x++ {
			dst[x*4+0] = src[x*4+2]
			dst[x*4+1] = src[x*4+1]
			dst[x*4+2] = src[x*4+0]
			dst[x*4+3] = src[x*4+3]
		}
	}
	return out, nil
}

// Destroy releases every GPU resource the renderer owns.
func (r *Renderer) Destroy() {
	if r.translate != nil {
		r.translate.Destroy()
		r.translate = nil
	}
	if r.selectRect != nil {
		r.selectRect.Destroy()
		r.selectRect = nil
	}
	if r.dispatcher != nil {
		r.dispatcher.Close()
		r.dispatcher = nil
	}
	if r.pick != nil {
		r.pick.Destroy()
		r.pick = nil
	}
	if r.gui != nil {
		r.gui.Destroy()
		r.gui = nil
	}
	if r.post != nil {
		r.post.Destroy()
		r.post = nil
	}
	if r.edgePipe != nil {
		r.edgePipe.Destroy()
		r.edgePipe = nil
	}
	if r.curve != nil {
		r.curve.Destroy()
		r.curve = nil
	}
	if r.nodePipe != nil {
		r.nodePipe.Destroy()
		r.nodePipe = nil
	}
	if r.att != nil {
		r.att.Destroy()
		r.att = nil
	}
	if r.theme != nil {
		r.theme.Destroy()
		r.theme = nil
	}
	if r.ov != nil {
		r.ov.Destroy()
		r.ov = nil
	}
	if r.sel != nil {
		r.sel.Destroy()
		r.sel = nil
	}
	if r.edges != nil {
		r.edges.Destroy()
		r.edges = nil
	}
	if r.verts != nil {
		r.verts.Destroy()
		r.verts = nil
	}
}
