//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// computeWGSize is the workgroup size used by every compute shader in
// this package. It matches the WG_SIZE constant in the WGSL sources.
const computeWGSize = 256

// workgroupCount performs ceiling division of elementCount by the
// shared workgroup size.
func workgroupCount(elementCount uint32) uint32 {
	if elementCount == 0 {
		return 0
	}
	return (elementCount + computeWGSize - 1) / computeWGSize
}

// configUniformEntry is the layout entry for binding(0), the uniform
// parameter block every kernel carries in place of push constants.
func configUniformEntry() gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageROEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
	}
}

func storageRWEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
	}
}

// bufferEntry builds a whole-buffer bind group entry.
func bufferEntry(binding uint32, buf hal.Buffer) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding: binding,
		Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   0, // 0 = entire buffer
		},
	}
}

// computeStage bundles the objects behind one compute pipeline so the
// kernel wrappers share creation and teardown.
type computeStage struct {
	device hal.Device

	shader     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// newComputeStage compiles the shader and creates the bind group
// layout, pipeline layout and compute pipeline for one kernel.
func newComputeStage(device hal.Device, label, wgsl string, entries []gputypes.BindGroupLayoutEntry) (*computeStage, error) {
	s := &computeStage{device: device}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: wgsl},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create shader module for %s: %w", label, err)
	}
	s.shader = shader

	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bgl",
		Entries: entries,
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("gpu: create bind group layout for %s: %w", label, err)
	}
	s.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("gpu: create pipeline layout for %s: %w", label, err)
	}
	s.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: pipeLayout,
		Compute: hal.ComputeState{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("gpu: create compute pipeline for %s: %w", label, err)
	}
	s.pipeline = pipeline

	slogger().Debug("gpu: compute pipeline created", "label", label, "bindings", len(entries))
	return s, nil
}

// destroy releases the stage objects in reverse creation order.
func (s *computeStage) destroy() {
	if s.pipeline != nil {
		s.device.DestroyComputePipeline(s.pipeline)
		s.pipeline = nil
	}
	if s.pipeLayout != nil {
		s.device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.bgLayout != nil {
		s.device.DestroyBindGroupLayout(s.bgLayout)
		s.bgLayout = nil
	}
	if s.shader != nil {
		s.device.DestroyShaderModule(s.shader)
		s.shader = nil
	}
}

// dispatchStage records one compute pass over the stage pipeline.
func (s *computeStage) dispatchStage(enc hal.CommandEncoder, label string, bg hal.BindGroup, groups uint32) {
	pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(groups, 1, 1)
	pass.End()
}
