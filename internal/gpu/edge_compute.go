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

//go:embed shaders/edge_curve.wgsl
var shaderEdgeCurve string

// edgeCurveConfigSize is the byte size of the edge preprocess uniform
// block: edge_count, pad, viewport, scale, bow.
const edgeCurveConfigSize = 32

// edgeControlStride is the byte size of one edge's curve record in the
// output buffer: four vec2 control points of a cubic Bezier.
const edgeControlStride = 32

// EdgeCurveConfig is the parameter block for one edge preprocess
// dispatch. Viewport and scale feed the screen-space bow heuristic.
type EdgeCurveConfig struct {
	EdgeCount uint32

	ViewportW float32
	ViewportH float32

	// Scale is the current view scale in pixels per world unit.
	Scale float32

	// Bow scales how far interior control points leave the chord,
	// as a fraction of endpoint distance.
	Bow float32
}

// toBytes serializes the config to the WGSL uniform layout.
func (c EdgeCurveConfig) toBytes() []byte {
	buf := make([]byte, edgeCurveConfigSize)
	binary.LittleEndian.PutUint32(buf[0:], c.EdgeCount)
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(c.ViewportW))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(c.ViewportH))
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(c.Scale))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(c.Bow))
	return buf
}

// EdgeCurveCompute derives cubic Bezier control points for every edge
// from the current node endpoints: curves leave each endpoint along the
// node's own direction and bow outward proportional to the endpoint
// distance. It owns the control point buffer the edge render pipeline
// pulls from, and runs before the edge pass whenever the view or the
// node positions changed.
type EdgeCurveCompute struct {
	device hal.Device
	queue  hal.Queue

	stage      *computeStage
	configBuf  hal.Buffer
	controlBuf hal.Buffer
	bindGroup  hal.BindGroup
	edgeCount  uint32
}

// NewEdgeCurveCompute builds the kernel and allocates the control
// point buffer. The stores must outlive the kernel.
func NewEdgeCurveCompute(device hal.Device, queue hal.Queue, verts *NodeVertices, edges *EdgeIndices) (*EdgeCurveCompute, error) {
	stage, err := newComputeStage(device, "edge_curve", shaderEdgeCurve,
		[]gputypes.BindGroupLayoutEntry{
			configUniformEntry(),
			storageROEntry(1), // node vertices
			storageROEntry(2), // edge indices
			storageRWEntry(3), // control points out
		})
	if err != nil {
		return nil, err
	}

	configBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "edge_curve_config",
		Size:  edgeCurveConfigSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		stage.destroy()
		return nil, fmt.Errorf("gpu: create edge curve config buffer: %w", err)
	}

	ctrlSize := uint64(edges.EdgeCount()) * edgeControlStride
	if ctrlSize == 0 {
		ctrlSize = edgeControlStride
	}
	controlBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "edge_control_points",
		Size:  ctrlSize,
		Usage: gputypes.BufferUsageStorage,
	})
	if err != nil {
		device.DestroyBuffer(configBuf)
		stage.destroy()
		return nil, fmt.Errorf("gpu: create edge control buffer: %w", err)
	}

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "edge_curve_bg",
		Layout: stage.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, configBuf),
			bufferEntry(1, verts.Buffer()),
			bufferEntry(2, edges.Buffer()),
			bufferEntry(3, controlBuf),
		},
	})
	if err != nil {
		device.DestroyBuffer(controlBuf)
		device.DestroyBuffer(configBuf)
		stage.destroy()
		return nil, fmt.Errorf("gpu: create edge curve bind group: %w", err)
	}

	return &EdgeCurveCompute{
		device:     device,
		queue:      queue,
		stage:      stage,
		configBuf:  configBuf,
		controlBuf: controlBuf,
		bindGroup:  bindGroup,
		edgeCount:  edges.EdgeCount(),
	}, nil
}

// ControlBuffer returns the curve output buffer for the edge pipeline.
func (ec *EdgeCurveCompute) ControlBuffer() hal.Buffer { return ec.controlBuf }

// EdgeCount returns the number of edges the kernel covers.
func (ec *EdgeCurveCompute) EdgeCount() uint32 { return ec.edgeCount }

// Record encodes the kernel into an existing command buffer so the
// edge render pass in the same submission sees fresh control points.
func (ec *EdgeCurveCompute) Record(enc hal.CommandEncoder, cfg EdgeCurveConfig) {
	cfg.EdgeCount = ec.edgeCount
	groups := workgroupCount(cfg.EdgeCount)
	if groups == 0 {
		return
	}
	ec.queue.WriteBuffer(ec.configBuf, 0, cfg.toBytes())
	ec.stage.dispatchStage(enc, "edge_curve_pass", ec.bindGroup, groups)
}

// Run dispatches the kernel on its own through the dispatcher.
func (ec *EdgeCurveCompute) Run(d *Dispatcher, cfg EdgeCurveConfig) (FenceID, error) {
	if ec.edgeCount == 0 {
		return 0, fmt.Errorf("gpu: edge curve dispatch with zero edges")
	}
	return d.Dispatch("edge_curve", func(enc hal.CommandEncoder) error {
		ec.Record(enc, cfg)
		return nil
	})
}

// Destroy releases the kernel resources.
func (ec *EdgeCurveCompute) Destroy() {
	if ec.bindGroup != nil {
		ec.device.DestroyBindGroup(ec.bindGroup)
		ec.bindGroup = nil
	}
	if ec.controlBuf != nil {
		ec.device.DestroyBuffer(ec.controlBuf)
		ec.controlBuf = nil
	}
	if ec.configBuf != nil {
		ec.device.DestroyBuffer(ec.configBuf)
		ec.configBuf = nil
	}
	if ec.stage != nil {
		ec.stage.destroy()
		ec.stage = nil
	}
}
