//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/node.wgsl
var shaderNode string

// nodeCapSegments is the number of fan segments per rounded end cap.
const nodeCapSegments = 8

// nodeVertsPerInstance is the vertex count of one capsule expanded in
// the vertex stage: a 2-triangle body quad plus two end cap fans.
// Matches VERTS_PER_NODE in node.wgsl.
const nodeVertsPerInstance = 6 + 2*nodeCapSegments*3

// nodeConfigSize is the byte size of the node uniform block.
const nodeConfigSize = 96

// Overlay modes for NodeConfig.OverlayMode. They select the color
// source in the node fragment stage.
const (
	// NodeColorTheme samples the theme LUT by wrapped node id.
	NodeColorTheme uint32 = iota
	// NodeColorOverlayRGB reads a packed RGBA texel per node.
	NodeColorOverlayRGB
	// NodeColorOverlayValue reads a scalar per node and maps it to a
	// grayscale ramp.
	NodeColorOverlayValue
)

// NodeConfig is the per-draw parameter block of the node renderer,
// uploaded as a uniform in place of push constants.
type NodeConfig struct {
	// Clip is the column-major world-to-clip matrix from the view.
	Clip [16]float32

	// BaseWidth is the node thickness in world units.
	BaseWidth float32

	// Scale is the view scale in pixels per world unit. On-screen
	// width is clamped from below so nodes stay visible zoomed out.
	Scale float32

	ViewportW float32
	ViewportH float32

	// TexturePeriod is the palette length node ids wrap over.
	TexturePeriod float32

	// OverlayMode selects the fragment color source.
	OverlayMode uint32
}

// toBytes serializes the config to the WGSL uniform layout.
func (c NodeConfig) toBytes() []byte {
	buf := make([]byte, nodeConfigSize)
	for i, f := range c.Clip {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(c.BaseWidth))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(c.Scale))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(c.ViewportW))
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(c.ViewportH))
	binary.LittleEndian.PutUint32(buf[80:], math.Float32bits(c.TexturePeriod))
	binary.LittleEndian.PutUint32(buf[84:], c.OverlayMode)
	return buf
}

// NodePipeline draws every node as a rounded capsule between its two
// endpoints. There is no vertex buffer: the vertex stage pulls both
// endpoints from the node vertex store by instance index and expands
// the capsule, so one instanced draw covers the whole graph. The
// fragment stage writes three targets: the shaded color, the node id
// (instance index + 1) into the R32Uint picking target, and a 1.0 mask
// texel when the node's selection flag is set.
type NodePipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	configBuf hal.Buffer
	bindGroup hal.BindGroup
	nodeCount uint32
}

// NewNodePipeline compiles the node shader and wires the pipeline to
// the given stores. The stores must outlive the pipeline.
func NewNodePipeline(
	device hal.Device,
	queue hal.Queue,
	verts *NodeVertices,
	sel *SelectionBuffer,
	ov *OverlayBuffer,
	theme *ThemeTexture,
) (*NodePipeline, error) {
	p := &NodePipeline{device: device, queue: queue, nodeCount: verts.NodeCount()}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "node_shader",
		Source: hal.ShaderSource{WGSL: shaderNode},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: compile node shader: %w", err)
	}
	p.shader = shader

	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "node_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    4,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    5,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create node bind group layout: %w", err)
	}
	p.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "node_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create node pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "node_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: colorFormat, WriteMask: gputypes.ColorWriteMaskAll},
				{Format: gputypes.TextureFormatR32Uint, WriteMask: gputypes.ColorWriteMaskAll},
				{Format: gputypes.TextureFormatR8Unorm, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create node pipeline: %w", err)
	}
	p.pipeline = pipeline

	configBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "node_config",
		Size:  nodeConfigSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create node config buffer: %w", err)
	}
	p.configBuf = configBuf

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "node_bg",
		Layout: bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, configBuf),
			bufferEntry(1, verts.Buffer()),
			bufferEntry(2, sel.Buffer()),
			bufferEntry(3, ov.Buffer()),
			{Binding: 4, Resource: gputypes.TextureViewBinding{TextureView: theme.View().NativeHandle()}},
			{Binding: 5, Resource: gputypes.SamplerBinding{Sampler: theme.Sampler().NativeHandle()}},
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create node bind group: %w", err)
	}
	p.bindGroup = bindGroup

	slogger().Debug("gpu: node pipeline created", "nodes", p.nodeCount)
	return p, nil
}

// WriteConfig uploads the per-frame parameter block. Called outside
// the render pass, before recording.
func (p *NodePipeline) WriteConfig(cfg NodeConfig) {
	p.queue.WriteBuffer(p.configBuf, 0, cfg.toBytes())
}

// RecordDraws records the instanced capsule draw into an existing
// render pass.
func (p *NodePipeline) RecordDraws(rp hal.RenderPassEncoder) {
	if p.nodeCount == 0 {
		return
	}
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.Draw(nodeVertsPerInstance, p.nodeCount, 0, 0)
}

// Destroy releases all pipeline resources in reverse creation order.
func (p *NodePipeline) Destroy() {
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
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
