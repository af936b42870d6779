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

//go:embed shaders/sobel.wgsl
var shaderSobel string

//go:embed shaders/blur.wgsl
var shaderBlur string

// postConfigSize is the byte size of the post pass uniform block:
// texel size plus an enable flag.
const postConfigSize = 16

// PostConfig is the parameter block shared by both post passes.
type PostConfig struct {
	// TexelW and TexelH are 1/width and 1/height of the attachments,
	// the sampling step of the 3x3 kernels.
	TexelW float32
	TexelH float32

	// Enabled turns the pass into a no-op write of zero intensity
	// when false, keeping the pass structure stable for benchmarking
	// degraded modes.
	Enabled bool
}

// toBytes serializes the config to the WGSL uniform layout.
func (c PostConfig) toBytes() []byte {
	buf := make([]byte, postConfigSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(c.TexelW))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(c.TexelH))
	if c.Enabled {
		binary.LittleEndian.PutUint32(buf[8:], 1)
	}
	return buf
}

// PostPipeline draws the selection outline glow: a Sobel edge detect
// over the selection mask into the outline target, then a 3x3 blur of
// the outline blended additively into the resolved color image. Both
// passes are full-screen triangles.
type PostPipeline struct {
	device hal.Device
	queue  hal.Queue

	sobelShader hal.ShaderModule
	blurShader  hal.ShaderModule

	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	sobelPipeline hal.RenderPipeline
	blurPipeline  hal.RenderPipeline

	sampler        hal.Sampler
	sobelConfigBuf hal.Buffer
	blurConfigBuf  hal.Buffer

	// Bind groups reference attachment views and are rebuilt on
	// resize via Rebind.
	sobelBindGroup hal.BindGroup
	blurBindGroup  hal.BindGroup
}

// NewPostPipeline compiles both post shaders and creates the two
// pipelines. Rebind must be called before the first frame.
func NewPostPipeline(device hal.Device, queue hal.Queue) (*PostPipeline, error) {
	p := &PostPipeline{device: device, queue: queue}

	sobelShader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sobel_shader",
		Source: hal.ShaderSource{WGSL: shaderSobel},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: compile sobel shader: %w", err)
	}
	p.sobelShader = sobelShader

	blurShader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "blur_shader",
		Source: hal.ShaderSource{WGSL: shaderBlur},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: compile blur shader: %w", err)
	}
	p.blurShader = blurShader

	// Both passes share one layout: uniform, sampled source texture,
	// sampler.
	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "post_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
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
		return nil, fmt.Errorf("gpu: create post bind group layout: %w", err)
	}
	p.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "post_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create post pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sobelPipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sobel_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     sobelShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     sobelShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: gputypes.TextureFormatR8Unorm, WriteMask: gputypes.ColorWriteMaskAll},
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
		return nil, fmt.Errorf("gpu: create sobel pipeline: %w", err)
	}
	p.sobelPipeline = sobelPipeline

	premulBlend := gputypes.BlendStatePremultiplied()
	blurPipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "blur_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     blurShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     blurShader,
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
		return nil, fmt.Errorf("gpu: create blur pipeline: %w", err)
	}
	p.blurPipeline = blurPipeline

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:     "post_sampler",
		MagFilter: gputypes.FilterModeLinear,
		MinFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create post sampler: %w", err)
	}
	p.sampler = sampler

	for _, spec := range []struct {
		target *hal.Buffer
		label  string
	}{
		{&p.sobelConfigBuf, "sobel_config"},
		{&p.blurConfigBuf, "blur_config"},
	} {
		buf, bufErr := device.CreateBuffer(&hal.BufferDescriptor{
			Label: spec.label,
			Size:  postConfigSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if bufErr != nil {
			p.Destroy()
			return nil, fmt.Errorf("gpu: create %s buffer: %w", spec.label, bufErr)
		}
		*spec.target = buf
	}

	return p, nil
}

// Rebind rebuilds the bind groups against the current attachment set.
// Must be called after every Attachments.EnsureSize that recreated
// textures.
func (p *PostPipeline) Rebind(att *Attachments) error {
	p.destroyBindGroups()

	sobelBG, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sobel_bg",
		Layout: p.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, p.sobelConfigBuf),
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: att.MaskView().NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create sobel bind group: %w", err)
	}
	p.sobelBindGroup = sobelBG

	blurBG, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "blur_bg",
		Layout: p.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, p.blurConfigBuf),
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: att.OutlineView().NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		p.destroyBindGroups()
		return fmt.Errorf("gpu: create blur bind group: %w", err)
	}
	p.blurBindGroup = blurBG
	return nil
}

// WriteConfig uploads the per-frame parameter block to both passes.
func (p *PostPipeline) WriteConfig(cfg PostConfig) {
	raw := cfg.toBytes()
	p.queue.WriteBuffer(p.sobelConfigBuf, 0, raw)
	p.queue.WriteBuffer(p.blurConfigBuf, 0, raw)
}

// RecordSobel records the edge detect pass: mask in, outline out. The
// mask was just rendered as an attachment, so it is transitioned to a
// sampled binding for the pass and back afterwards.
func (p *PostPipeline) RecordSobel(enc hal.CommandEncoder, att *Attachments) {
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: att.MaskTexture(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sobel_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       att.OutlineView(),
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{},
		}},
	})
	rp.SetPipeline(p.sobelPipeline)
	rp.SetBindGroup(0, p.sobelBindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: att.MaskTexture(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageTextureBinding,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
}

// RecordBlur records the blur pass: outline in, blended into the
// resolved color image. The outline, written by the Sobel pass, gets
// the same transition bracketing as the mask.
func (p *PostPipeline) RecordBlur(enc hal.CommandEncoder, att *Attachments) {
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: att.OutlineTexture(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "blur_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    att.ResolveView(),
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(p.blurPipeline)
	rp.SetBindGroup(0, p.blurBindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: att.OutlineTexture(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageTextureBinding,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
}

func (p *PostPipeline) destroyBindGroups() {
	if p.sobelBindGroup != nil {
		p.device.DestroyBindGroup(p.sobelBindGroup)
		p.sobelBindGroup = nil
	}
	if p.blurBindGroup != nil {
		p.device.DestroyBindGroup(p.blurBindGroup)
		p.blurBindGroup = nil
	}
}

// Destroy releases all pipeline resources.
func (p *PostPipeline) Destroy() {
	p.destroyBindGroups()
	if p.sobelConfigBuf != nil {
		p.device.DestroyBuffer(p.sobelConfigBuf)
		p.sobelConfigBuf = nil
	}
	if p.blurConfigBuf != nil {
		p.device.DestroyBuffer(p.blurConfigBuf)
		p.blurConfigBuf = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.sobelPipeline != nil {
		p.device.DestroyRenderPipeline(p.sobelPipeline)
		p.sobelPipeline = nil
	}
	if p.blurPipeline != nil {
		p.device.DestroyRenderPipeline(p.blurPipeline)
		p.blurPipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bgLayout != nil {
		p.device.DestroyBindGroupLayout(p.bgLayout)
		p.bgLayout = nil
	}
	if p.sobelShader != nil {
		p.device.DestroyShaderModule(p.sobelShader)
		p.sobelShader = nil
	}
	if p.blurShader != nil {
		p.device.DestroyShaderModule(p.blurShader)
		p.blurShader = nil
	}
}
