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

//go:embed shaders/edge.wgsl
var shaderEdge string

// edgeSegments is the number of flat segments one curve is expanded
// into by the vertex stage. Matches SEGMENTS in edge.wgsl.
const edgeSegments = 16

// edgeVertsPerInstance is the vertex count of one edge strip:
// two triangles per segment.
const edgeVertsPerInstance = edgeSegments * 6

// edgeConfigSize is the byte size of the edge uniform block.
const edgeConfigSize = 96

// EdgeConfig is the per-draw parameter block of the edge renderer.
type EdgeConfig struct {
	// Clip is the column-major world-to-clip matrix from the view.
	Clip [16]float32

	// Width is the edge thickness in world units, clamped on screen
	// the same way node width is.
	Width float32

	Scale     float32
	ViewportW float32
	ViewportH float32

	// Color is the edge stroke color, alpha-blended over the node
	// layer.
	Color [4]float32
}

// toBytes serializes the config to the WGSL uniform layout.
func (c EdgeConfig) toBytes() []byte {
	buf := make([]byte, edgeConfigSize)
	for i, f := range c.Clip {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(c.Width))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(c.Scale))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(c.ViewportW))
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(c.ViewportH))
	for i, f := range c.Color {
		binary.LittleEndian.PutUint32(buf[80+i*4:], math.Float32bits(f))
	}
	return buf
}

// EdgePipeline draws every edge as a thin cubic Bezier strip. The
// vertex stage pulls the four control points written by the edge
// preprocess kernel, evaluates the curve at the segment parameter and
// extrudes a quad around it. Alpha-blended on top of the node color
// layer, no picking or mask output.
type EdgePipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	configBuf hal.Buffer
	bindGroup hal.BindGroup
	edgeCount uint32
}

// NewEdgePipeline compiles the edge shader and wires it to the control
// point buffer owned by the preprocess kernel.
func NewEdgePipeline(device hal.Device, queue hal.Queue, curves *EdgeCurveCompute) (*EdgePipeline, error) {
	p := &EdgePipeline{device: device, queue: queue, edgeCount: curves.EdgeCount()}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "edge_shader",
		Source: hal.ShaderSource{WGSL: shaderEdge},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: compile edge shader: %w", err)
	}
	p.shader = shader

	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "edge_bgl",
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
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create edge bind group layout: %w", err)
	}
	p.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "edge_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create edge pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "edge_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
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
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create edge pipeline: %w", err)
	}
	p.pipeline = pipeline

	configBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "edge_config",
		Size:  edgeConfigSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create edge config buffer: %w", err)
	}
	p.configBuf = configBuf

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "edge_bg",
		Layout: bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, configBuf),
			bufferEntry(1, curves.ControlBuffer()),
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create edge bind group: %w", err)
	}
	p.bindGroup = bindGroup

	slogger().Debug("gpu: edge pipeline created", "edges", p.edgeCount)
	return p, nil
}

// WriteConfig uploads the per-frame parameter block.
func (p *EdgePipeline) WriteConfig(cfg EdgeConfig) {
	p.queue.WriteBuffer(p.configBuf, 0, cfg.toBytes())
}

// RecordDraws records the instanced strip draw into an existing render
// pass.
func (p *EdgePipeline) RecordDraws(rp hal.RenderPassEncoder) {
	if p.edgeCount == 0 {
		return
	}
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.Draw(edgeVertsPerInstance, p.edgeCount, 0, 0)
}

// Destroy releases all pipeline resources in reverse creation order.
func (p *EdgePipeline) Destroy() {
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
