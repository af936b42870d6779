//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gfaview/gfaview/overlay"
)

// sampleCount is the MSAA sample count for the main color attachment.
const sampleCount = 4

// colorFormat is the format of the main color attachment and its
// resolve target.
const colorFormat = gputypes.TextureFormatBGRA8Unorm

// Attachments is the offscreen attachment set for one frame size:
// MSAA color with a single-sample resolve, the R32Uint node-ID picking
// target and the R8 selection mask, plus the R8 outline target the
// post passes write into. Recreated whenever the window size changes.
type Attachments struct {
	device hal.Device

	width  uint32
	height uint32

	colorTex     hal.Texture
	colorView    hal.TextureView
	resolveTex   hal.Texture
	resolveView  hal.TextureView
	nodeIDTex    hal.Texture
	nodeIDView   hal.TextureView
	maskTex      hal.Texture
	maskView     hal.TextureView
	outlineTex   hal.Texture
	outlineView  hal.TextureView
}

// NewAttachments creates an empty attachment set. EnsureSize allocates
// the textures on first use.
func NewAttachments(device hal.Device) *Attachments {
	return &Attachments{device: device}
}

// Size returns the current attachment dimensions (0,0 before first
// EnsureSize).
func (a *Attachments) Size() (uint32, uint32) { return a.width, a.height }

// Views used as render pass attachments and sampled inputs.
func (a *Attachments) ColorView() hal.TextureView   { return a.colorView }
func (a *Attachments) ResolveView() hal.TextureView { return a.resolveView }
func (a *Attachments) NodeIDView() hal.TextureView  { return a.nodeIDView }
func (a *Attachments) MaskView() hal.TextureView    { return a.maskView }
func (a *Attachments) OutlineView() hal.TextureView { return a.outlineView }

// ResolveTexture returns the single-sample color texture for readback
// or presentation blits.
func (a *Attachments) ResolveTexture() hal.Texture { return a.resolveTex }

// NodeIDTexture returns the picking target for readback.
func (a *Attachments) NodeIDTexture() hal.Texture { return a.nodeIDTex }

// MaskTexture and OutlineTexture back the post pass usage transitions.
func (a *Attachments) MaskTexture() hal.Texture    { return a.maskTex }
func (a *Attachments) OutlineTexture() hal.Texture { return a.outlineTex }

// EnsureSize recreates the attachment set when the requested size
// differs from the current one. The caller must not hold views from
// before the call.
func (a *Attachments) EnsureSize(w, h uint32) error {
	if w == 0 || h == 0 {
		return fmt.Errorf("gpu: invalid attachment size %dx%d", w, h)
	}
	if a.width == w && a.height == h && a.colorTex != nil {
		return nil
	}
	a.Destroy()

	type texSpec struct {
		tex     *hal.Texture
		view    *hal.TextureView
		label   string
		format  gputypes.TextureFormat
		samples uint32
		usage   gputypes.TextureUsage
	}

	specs := []texSpec{
		{&a.colorTex, &a.colorView, "attach_color_msaa", colorFormat, sampleCount,
			gputypes.TextureUsageRenderAttachment},
		{&a.resolveTex, &a.resolveView, "attach_color_resolve", colorFormat, 1,
			gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc},
		{&a.nodeIDTex, &a.nodeIDView, "attach_node_id", gputypes.TextureFormatR32Uint, 1,
			gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc},
		{&a.maskTex, &a.maskView, "attach_mask", gputypes.TextureFormatR8Unorm, 1,
			gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding},
		{&a.outlineTex, &a.outlineView, "attach_outline", gputypes.TextureFormatR8Unorm, 1,
			gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding},
	}

	for _, s := range specs {
		tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
			Label:         s.label,
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   s.samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        s.format,
			Usage:         s.usage,
		})
		if err != nil {
			a.Destroy()
			return fmt.Errorf("gpu: create %s: %w", s.label, err)
		}
		*s.tex = tex

		view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         s.label + "_view",
			Format:        s.format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			a.Destroy()
			return fmt.Errorf("gpu: create %s view: %w", s.label, err)
		}
		*s.view = view
	}

	a.width = w
	a.height = h
	slogger().Debug("gpu: attachments created", "size", fmt.Sprintf("%dx%d", w, h))
	return nil
}

// Destroy releases every texture and view in the set.
func (a *Attachments) Destroy() {
	destroyView := func(v *hal.TextureView) {
		if *v != nil {
			a.device.DestroyTextureView(*v)
			*v = nil
		}
	}
	destroyTex := func(t *hal.Texture) {
		if *t != nil {
			a.device.DestroyTexture(*t)
			*t = nil
		}
	}
	destroyView(&a.colorView)
	destroyView(&a.resolveView)
	destroyView(&a.nodeIDView)
	destroyView(&a.maskView)
	destroyView(&a.outlineView)
	destroyTex(&a.colorTex)
	destroyTex(&a.resolveTex)
	destroyTex(&a.nodeIDTex)
	destroyTex(&a.maskTex)
	destroyTex(&a.outlineTex)
	a.width, a.height = 0, 0
}

// ThemeTexture is the small indexed color LUT sampled by the node
// fragment stage. Texel i holds palette color i; the background color
// lives in the frame clear value, not here.
type ThemeTexture struct {
	device hal.Device
	queue  hal.Queue

	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
	texels  uint32
}

// NewThemeTexture creates the LUT texture and uploads the given theme.
func NewThemeTexture(device hal.Device, queue hal.Queue, theme overlay.Theme) (*ThemeTexture, error) {
	texels := uint32(len(theme.NodeColors))
	if texels == 0 {
		return nil, fmt.Errorf("gpu: theme has no palette colors")
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "theme_lut",
		Size:          hal.Extent3D{Width: texels, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create theme LUT: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "theme_lut_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create theme LUT view: %w", err)
	}

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:     "theme_lut_sampler",
		MagFilter: gputypes.FilterModeNearest,
		MinFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create theme LUT sampler: %w", err)
	}

	tt := &ThemeTexture{device: device, queue: queue, tex: tex, view: view, sampler: sampler, texels: texels}
	tt.Upload(theme)
	return tt, nil
}

// Upload replaces the LUT contents. The palette length must match the
// texture width; themes with a different palette size need a new
// texture.
func (tt *ThemeTexture) Upload(theme overlay.Theme) {
	if uint32(len(theme.NodeColors)) != tt.texels {
		slogger().Warn("gpu: theme palette size mismatch, LUT unchanged",
			"want", tt.texels, "got", len(theme.NodeColors))
		return
	}
	tt.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tt.tex, MipLevel: 0},
		theme.LUTBytes(),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: tt.texels * 4, RowsPerImage: 1},
		&hal.Extent3D{Width: tt.texels, Height: 1, DepthOrArrayLayers: 1},
	)
}

// View returns the LUT texture view.
func (tt *ThemeTexture) View() hal.TextureView { return tt.view }

// Sampler returns the LUT sampler.
func (tt *ThemeTexture) Sampler() hal.Sampler { return tt.sampler }

// Texels returns the palette length the shader wraps node ids over.
func (tt *ThemeTexture) Texels() uint32 { return tt.texels }

// Destroy releases the texture, view and sampler.
func (tt *ThemeTexture) Destroy() {
	if tt.sampler != nil {
		tt.device.DestroySampler(tt.sampler)
		tt.sampler = nil
	}
	if tt.view != nil {
		tt.device.DestroyTextureView(tt.view)
		tt.view = nil
	}
	if tt.tex != nil {
		tt.device.DestroyTexture(tt.tex)
		tt.tex = nil
	}
}

// OverlayBuffer holds the active per-node overlay as a storage buffer:
// one RGBA texel (4 unorm bytes packed in a u32) or one f32 per node.
// Writer-exclusive during upload, read-only during frames.
type OverlayBuffer struct {
	device hal.Device
	queue  hal.Queue

	buf       hal.Buffer
	nodeCount uint32
	kind      overlay.Kind
}

// NewOverlayBuffer allocates an overlay slot for nodeCount nodes. The
// buffer starts zeroed; Upload installs an overlay.
func NewOverlayBuffer(device hal.Device, queue hal.Queue, nodeCount uint32) (*OverlayBuffer, error) {
	size := uint64(nodeCount) * 4
	if size == 0 {
		size = 4
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "overlay_texels",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create overlay buffer: %w", err)
	}

	ob := &OverlayBuffer{device: device, queue: queue, buf: buf, nodeCount: nodeCount}
	zeros := make([]byte, size)
	queue.WriteBuffer(buf, 0, zeros)
	return ob, nil
}

// Buffer returns the underlying HAL buffer.
func (ob *OverlayBuffer) Buffer() hal.Buffer { return ob.buf }

// Kind returns the kind of the last uploaded overlay.
func (ob *OverlayBuffer) Kind() overlay.Kind { return ob.kind }

// Upload installs an overlay. The overlay node count must match.
func (ob *OverlayBuffer) Upload(ov *overlay.Overlay) error {
	if uint32(ov.NodeCount()) != ob.nodeCount {
		return fmt.Errorf("%w: overlay has %d nodes, store has %d",
			overlay.ErrBadLength, ov.NodeCount(), ob.nodeCount)
	}
	if ob.nodeCount == 0 {
		return nil
	}

	raw := make([]byte, 0, int(ob.nodeCount)*4)
	if ov.Kind == overlay.KindRGB {
		for _, c := range ov.Colors {
			b := c.Bytes()
			raw = append(raw, b[:]...)
		}
	} else {
		var w [4]byte
		for _, v := range ov.Values {
			binary.LittleEndian.PutUint32(w[:], math.Float32bits(v))
			raw = append(raw, w[:]...)
		}
	}
	ob.queue.WriteBuffer(ob.buf, 0, raw)
	ob.kind = ov.Kind

	slogger().Debug("gpu: overlay uploaded", "name", ov.Name, "kind", ov.Kind.String())
	return nil
}

// Destroy releases the buffer.
func (ob *OverlayBuffer) Destroy() {
	if ob.buf != nil {
		ob.device.DestroyBuffer(ob.buf)
		ob.buf = nil
	}
}
