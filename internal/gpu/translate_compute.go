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

//go:embed shaders/translate.wgsl
var shaderTranslate string

// translateConfigSize is the byte size of the translate uniform block:
// node_count, pad, delta.
const translateConfigSize = 16

// TranslateConfig is the parameter block for one translate dispatch.
type TranslateConfig struct {
	NodeCount uint32

	// Delta is the world-space displacement applied to both endpoints
	// of every selected node.
	Delta gfaview.Point
}

// toBytes serializes the config to the WGSL uniform layout.
func (c TranslateConfig) toBytes() []byte {
	buf := make([]byte, translateConfigSize)
	binary.LittleEndian.PutUint32(buf[0:], c.NodeCount)
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(c.Delta.X))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(c.Delta.Y))
	return buf
}

// TranslateCompute moves every selected node by a delta, directly in
// the vertex store. The store is the source of truth for positions
// after load, so the CPU mirror must be refreshed with
// NodeVertices.Download after the fence signals.
type TranslateCompute struct {
	device hal.Device
	queue  hal.Queue

	stage     *computeStage
	configBuf hal.Buffer
	bindGroup hal.BindGroup
	nodeCount uint32
}

// NewTranslateCompute builds the kernel over the given stores. The
// bind group is persistent; the stores must outlive the kernel.
func NewTranslateCompute(device hal.Device, queue hal.Queue, verts *NodeVertices, sel *SelectionBuffer) (*TranslateCompute, error) {
	stage, err := newComputeStage(device, "translate", shaderTranslate,
		[]gputypes.BindGroupLayoutEntry{
			configUniformEntry(),
			storageROEntry(1), // selection flags
			storageRWEntry(2), // node vertices
		})
	if err != nil {
		return nil, err
	}

	configBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "translate_config",
		Size:  translateConfigSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		stage.destroy()
		return nil, fmt.Errorf("gpu: create translate config buffer: %w", err)
	}

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "translate_bg",
		Layout: stage.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, configBuf),
			bufferEntry(1, sel.Buffer()),
			bufferEntry(2, verts.Buffer()),
		},
	})
	if err != nil {
		device.DestroyBuffer(configBuf)
		stage.destroy()
		return nil, fmt.Errorf("gpu: create translate bind group: %w", err)
	}

	return &TranslateCompute{
		device:    device,
		queue:     queue,
		stage:     stage,
		configBuf: configBuf,
		bindGroup: bindGroup,
		nodeCount: verts.NodeCount(),
	}, nil
}

// Run uploads the config and dispatches the kernel. The caller must
// wait the returned fence before reading positions back.
func (tc *TranslateCompute) Run(d *Dispatcher, delta gfaview.Point) (FenceID, error) {
	groups := workgroupCount(tc.nodeCount)
	if groups == 0 {
		return 0, fmt.Errorf("gpu: translate dispatch with zero nodes")
	}

	cfg := TranslateConfig{NodeCount: tc.nodeCount, Delta: delta}
	tc.queue.WriteBuffer(tc.configBuf, 0, cfg.toBytes())
	return d.Dispatch("translate", func(enc hal.CommandEncoder) error {
		tc.stage.dispatchStage(enc, "translate_pass", tc.bindGroup, groups)
		return nil
	})
}

// Destroy releases the kernel resources.
func (tc *TranslateCompute) Destroy() {
	if tc.bindGroup != nil {
		tc.device.DestroyBindGroup(tc.bindGroup)
		tc.bindGroup = nil
	}
	if tc.configBuf != nil {
		tc.device.DestroyBuffer(tc.configBuf)
		tc.configBuf = nil
	}
	if tc.stage != nil {
		tc.stage.destroy()
		tc.stage = nil
	}
}
