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

//go:embed shaders/select_rect.wgsl
var shaderSelectRect string

// selectRectConfigSize is the byte size of the rectangle-select uniform
// block: node_count, clear, rect_min, rect_max.
const selectRectConfigSize = 24

// SelectRectConfig is the parameter block for one rectangle-select
// dispatch. Rect coordinates are in world space, so the kernel result
// is invariant under view scale and translation.
type SelectRectConfig struct {
	// NodeCount bounds the dispatch; excess invocations return early.
	NodeCount uint32

	// Clear zeroes each flag before testing, turning additive
	// rectangle-select into replace mode without a separate zero pass.
	Clear bool

	// Rect is the world-space selection rectangle.
	Rect gfaview.Rect
}

// toBytes serializes the config to the WGSL uniform layout.
func (c SelectRectConfig) toBytes() []byte {
	buf := make([]byte, selectRectConfigSize)
	binary.LittleEndian.PutUint32(buf[0:], c.NodeCount)
	if c.Clear {
		binary.LittleEndian.PutUint32(buf[4:], 1)
	}
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(c.Rect.Min.X))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(c.Rect.Min.Y))
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(c.Rect.Max.X))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(c.Rect.Max.Y))
	return buf
}

// SelectionCompute is the rectangle-select kernel: one invocation per
// node reads the node's endpoints from the vertex store, computes the
// midpoint and sets the selection flag when the midpoint lies inside
// the rectangle. Flags outside the rectangle are left unchanged unless
// Clear is set.
type SelectionCompute struct {
	device hal.Device
	queue  hal.Queue

	stage     *computeStage
	configBuf hal.Buffer
	bindGroup hal.BindGroup
	nodeCount uint32
}

// NewSelectionCompute builds the kernel and binds it to the given
// stores. The bind group is persistent; the stores must outlive the
// kernel.
func NewSelectionCompute(device hal.Device, queue hal.Queue, verts *NodeVertices, sel *SelectionBuffer) (*SelectionCompute, error) {
	stage, err := newComputeStage(device, "select_rect", shaderSelectRect,
		[]gputypes.BindGroupLayoutEntry{
			configUniformEntry(),
			storageROEntry(1), // node vertices
			storageRWEntry(2), // selection flags
		})
	if err != nil {
		return nil, err
	}

	configBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "select_rect_config",
		Size:  selectRectConfigSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		stage.destroy()
		return nil, fmt.Errorf("gpu: create select config buffer: %w", err)
	}

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "select_rect_bg",
		Layout: stage.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, configBuf),
			bufferEntry(1, verts.Buffer()),
			bufferEntry(2, sel.Buffer()),
		},
	})
	if err != nil {
		device.DestroyBuffer(configBuf)
		stage.destroy()
		return nil, fmt.Errorf("gpu: create select bind group: %w", err)
	}

	return &SelectionCompute{
		device:    device,
		queue:     queue,
		stage:     stage,
		configBuf: configBuf,
		bindGroup: bindGroup,
		nodeCount: verts.NodeCount(),
	}, nil
}

// Run uploads the config and dispatches the kernel through the
// dispatcher. The caller waits or polls the returned fence before
// reading the selection buffer.
func (sc *SelectionCompute) Run(d *Dispatcher, cfg SelectRectConfig) (FenceID, error) {
	if cfg.NodeCount == 0 || cfg.NodeCount > sc.nodeCount {
		cfg.NodeCount = sc.nodeCount
	}
	groups := workgroupCount(cfg.NodeCount)
	if groups == 0 {
		return 0, fmt.Errorf("gpu: select dispatch with zero nodes")
	}

	sc.queue.WriteBuffer(sc.configBuf, 0, cfg.toBytes())
	return d.Dispatch("select_rect", func(enc hal.CommandEncoder) error {
		sc.stage.dispatchStage(enc, "select_rect_pass", sc.bindGroup, groups)
		return nil
	})
}

// Destroy releases the kernel resources.
func (sc *SelectionCompute) Destroy() {
	if sc.bindGroup != nil {
		sc.device.DestroyBindGroup(sc.bindGroup)
		sc.bindGroup = nil
	}
	if sc.configBuf != nil {
		sc.device.DestroyBuffer(sc.configBuf)
		sc.configBuf = nil
	}
	if sc.stage != nil {
		sc.stage.destroy()
		sc.stage = nil
	}
}
