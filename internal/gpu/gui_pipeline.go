//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	gfaview "github.com/gfaview/gfaview"
)

//go:embed shaders/gui.wgsl
var shaderGUI string

// guiVertexStride is the byte size of one GUI vertex:
// pos (2 x f32) + uv (2 x f32) + color (4 x unorm8).
const guiVertexStride = 20

// guiConfigSize is the byte size of the GUI uniform block.
const guiConfigSize = 16

// GUIVertex is one vertex of a GUI mesh, in screen pixels.
type GUIVertex struct {
	Pos   gfaview.Point
	UV    gfaview.Point
	Color gfaview.RGBA
}

// GUIMesh is one clipped GUI mesh as produced by the overlay UI.
type GUIMesh struct {
	Clip     gfaview.Rect
	Vertices []GUIVertex
	Indices  []uint32
}

// guiDraw is one recorded scissored draw range.
type guiDraw struct {
	clip       gfaview.Rect
	firstIndex uint32
	indexCount uint32
	baseVertex int32
}

// GUIPipeline renders the GUI mesh stream over the resolved frame.
// Vertex and index buffers are reallocated each frame to fit the mesh
// stream; the font atlas texture is refreshed when its version bumps.
type GUIPipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	configBuf hal.Buffer
	sampler   hal.Sampler

	atlasTex     hal.Texture
	atlasView    hal.TextureView
	atlasSize    uint32
	atlasVersion uint64
	bindGroup    hal.BindGroup

	vertBuf hal.Buffer
	idxBuf  hal.Buffer
	draws   []guiDraw
}

// NewGUIPipeline compiles the GUI shader and creates the static
// pipeline objects. UploadAtlas must run before the first frame.
func NewGUIPipeline(device hal.Device, queue hal.Queue) (*GUIPipeline, error) {
	p := &GUIPipeline{device: device, queue: queue}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "gui_shader",
		Source: hal.ShaderSource{WGSL: shaderGUI},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: compile gui shader: %w", err)
	}
	p.shader = shader

	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "gui_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create gui bind group layout: %w", err)
	}
	p.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gui_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create gui pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "gui_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: guiVertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
						{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
						{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    colorFormat,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create gui pipeline: %w", err)
	}
	p.pipeline = pipeline

	configBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gui_config",
		Size:  guiConfigSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create gui config buffer: %w", err)
	}
	p.configBuf = configBuf

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:     "gui_sampler",
		MagFilter: gputypes.FilterModeNearest,
		MinFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create gui sampler: %w", err)
	}
	p.sampler = sampler

	return p, nil
}

// UploadAtlas refreshes the font atlas texture when the version
// differs from the last uploaded one. The atlas is square RGBA.
func (p *GUIPipeline) UploadAtlas(atlas *FontAtlas) error {
	if atlas.Version() == p.atlasVersion && p.atlasTex != nil {
		return nil
	}

	size := atlas.Size()
	if p.atlasTex == nil || p.atlasSize != size {
		p.destroyAtlas()

		tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "gui_atlas",
			Size:          hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("gpu: create gui atlas: %w", err)
		}
		p.atlasTex = tex

		view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         "gui_atlas_view",
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			return fmt.Errorf("gpu: create gui atlas view: %w", err)
		}
		p.atlasView = view
		p.atlasSize = size

		bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "gui_bg",
			Layout: p.bgLayout,
			Entries: []gputypes.BindGroupEntry{
				bufferEntry(0, p.configBuf),
				{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: p.atlasView.NativeHandle()}},
				{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
			},
		})
		if err != nil {
			return fmt.Errorf("gpu: create gui bind group: %w", err)
		}
		p.bindGroup = bindGroup
	}

	p.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: p.atlasTex, MipLevel: 0},
		atlas.RGBA(),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: size * 4, RowsPerImage: size},
		&hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
	)
	p.atlasVersion = atlas.Version()

	slogger().Debug("gpu: gui atlas uploaded", "size", size, "version", p.atlasVersion)
	return nil
}

// BuildFrame reallocates the vertex and index buffers for this frame's
// mesh stream and records the scissored draw ranges.
func (p *GUIPipeline) BuildFrame(meshes []GUIMesh, screenW, screenH float32) error {
	p.destroyFrameBuffers()
	p.draws = p.draws[:0]

	var cfg [guiConfigSize]byte
	binary.LittleEndian.PutUint32(cfg[0:], math.Float32bits(screenW))
	binary.LittleEndian.PutUint32(cfg[4:], math.Float32bits(screenH))
	p.queue.WriteBuffer(p.configBuf, 0, cfg[:])

	totalVerts, totalIdx := 0, 0
	for i := range meshes {
		totalVerts += len(meshes[i].Vertices)
		totalIdx += len(meshes[i].Indices)
	}
	if totalIdx == 0 {
		return nil
	}

	vertData := make([]byte, 0, totalVerts*guiVertexStride)
	idxData := make([]byte, 0, totalIdx*4)
	var w [4]byte

	baseVertex := int32(0)
	firstIndex := uint32(0)
	for i := range meshes {
		m := &meshes[i]
		if len(m.Indices) == 0 {
			continue
		}
		for _, v := range m.Vertices {
			binary.LittleEndian.PutUint32(w[:], math.Float32bits(v.Pos.X))
			vertData = append(vertData, w[:]...)
			binary.LittleEndian.PutUint32(w[:], math.Float32bits(v.Pos.Y))
			vertData = append(vertData, w[:]...)
			binary.LittleEndian.PutUint32(w[:], math.Float32bits(v.UV.X))
			vertData = append(vertData, w[:]...)
			binary.LittleEndian.PutUint32(w[:], math.Float32bits(v.UV.Y))
			vertData = append(vertData, w[:]...)
			c := v.Color.Bytes()
			vertData = append(vertData, c[:]...)
		}
		for _, idx := range m.Indices {
			binary.LittleEndian.PutUint32(w[:], idx)
			idxData = append(idxData, w[:]...)
		}

		p.draws = append(p.draws, guiDraw{
			clip:       m.Clip,
			firstIndex: firstIndex,
			indexCount: uint32(len(m.Indices)),
			baseVertex: baseVertex,
		})
		firstIndex += uint32(len(m.Indices))
		baseVertex += int32(len(m.Vertices))
	}

	vertBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gui_vertices",
		Size:  uint64(len(vertData)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create gui vertex buffer: %w", err)
	}
	p.vertBuf = vertBuf
	p.queue.WriteBuffer(vertBuf, 0, vertData)

	idxBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gui_indices",
		Size:  uint64(len(idxData)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create gui index buffer: %w", err)
	}
	p.idxBuf = idxBuf
	p.queue.WriteBuffer(idxBuf, 0, idxData)
	return nil
}

// RecordDraws records all scissored mesh draws into an existing render
// pass over the resolved color image.
func (p *GUIPipeline) RecordDraws(rp hal.RenderPassEncoder, screenW, screenH uint32) {
	if len(p.draws) == 0 || p.bindGroup == nil {
		return
	}
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.SetVertexBuffer(0, p.vertBuf, 0)
	rp.SetIndexBuffer(p.idxBuf, gputypes.IndexFormatUint32, 0)

	for _, d := range p.draws {
		x, y, w, h := clampScissor(d.clip, screenW, screenH)
		if w == 0 || h == 0 {
			continue
		}
		rp.SetScissorRect(x, y, w, h)
		rp.DrawIndexed(d.indexCount, 1, d.firstIndex, d.baseVertex, 0)
	}
}

// clampScissor clips a mesh clip rect to the screen and converts it to
// integer scissor coordinates.
func clampScissor(clip gfaview.Rect, screenW, screenH uint32) (x, y, w, h uint32) {
	minX := clip.Min.X
	minY := clip.Min.Y
	maxX := clip.Max.X
	maxY := clip.Max.Y
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > float32(screenW) {
		maxX = float32(screenW)
	}
	if maxY > float32(screenH) {
		maxY = float32(screenH)
	}
	if maxX <= minX || maxY <= minY {
		return 0, 0, 0, 0
	}
	return uint32(minX), uint32(minY), uint32(maxX - minX), uint32(maxY - minY)
}

func (p *GUIPipeline) destroyFrameBuffers() {
	if p.vertBuf != nil {
		p.device.DestroyBuffer(p.vertBuf)
		p.vertBuf = nil
	}
	if p.idxBuf != nil {
		p.device.DestroyBuffer(p.idxBuf)
		p.idxBuf = nil
	}
}

func (p *GUIPipeline) destroyAtlas() {
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.atlasView != nil {
		p.device.DestroyTextureView(p.atlasView)
		p.atlasView = nil
	}
	if p.atlasTex != nil {
		p.device.DestroyTexture(p.atlasTex)
		p.atlasTex = nil
	}
	p.atlasSize = 0
	p.atlasVersion = 0
}

// Destroy releases all pipeline resources.
func (p *GUIPipeline) Destroy() {
	p.destroyFrameBuffers()
	p.destroyAtlas()
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.configBuf != nil {
		p.device.DestroyBuffer(p.configBuf)
		p.configBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bgLayout != nil {
		p.device.DestroyBindGroupLayout(p.bgLayout)
		p.bgLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
