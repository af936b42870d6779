//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/layout"
	"github.com/gfaview/gfaview/universe"
)

// nodeVertexStride is the byte size of one node in the vertex store:
// two endpoints, 2 x float32 each.
const nodeVertexStride = 16

// selectionStride is the byte size of one selection flag: a single u32.
const selectionStride = 4

// NodeVertices is the device-local node endpoint store. It is the
// single source of truth for node positions after the initial upload;
// all later mutation goes through the translate kernel, and the CPU
// reads positions back with Download.
type NodeVertices struct {
	device hal.Device
	queue  hal.Queue

	buf       hal.Buffer
	nodeCount uint32
}

// NewNodeVertices allocates the store and uploads the initial layout.
func NewNodeVertices(device hal.Device, queue hal.Queue, pos *layout.Positions) (*NodeVertices, error) {
	count := uint32(pos.NodeCount())
	size := uint64(count) * nodeVertexStride
	if size == 0 {
		size = nodeVertexStride
	}

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "node_vertices",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageStorage |
			gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create node vertex buffer: %w", err)
	}

	nv := &NodeVertices{device: device, queue: queue, buf: buf, nodeCount: count}
	if count > 0 {
		queue.WriteBuffer(buf, 0, pos.VertexBytes())
	}

	slogger().Debug("gpu: node vertices uploaded", "nodes", count, "bytes", size)
	return nv, nil
}

// Buffer returns the underlying HAL buffer for bind group creation.
func (nv *NodeVertices) Buffer() hal.Buffer { return nv.buf }

// NodeCount returns the number of nodes in the store.
func (nv *NodeVertices) NodeCount() uint32 { return nv.nodeCount }

// SizeBytes returns the byte size of the store.
func (nv *NodeVertices) SizeBytes() uint64 { return uint64(nv.nodeCount) * nodeVertexStride }

// Download copies the store to a staging buffer, waits for the copy and
// returns the current endpoints. Called after a translate fence when the
// CPU mirror needs fresh positions.
func (nv *NodeVertices) Download() ([]layout.Node, error) {
	size := nv.SizeBytes()
	if size == 0 {
		return nil, nil
	}

	staging, err := nv.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "node_vertices_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer nv.device.DestroyBuffer(staging)

	if err := copyAndWait(nv.device, nv.queue, "node_vertices_readback", func(enc hal.CommandEncoder) {
		enc.CopyBufferToBuffer(nv.buf, staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
	}); err != nil {
		return nil, err
	}

	raw := make([]byte, size)
	if err := nv.queue.ReadBuffer(staging, 0, raw); err != nil {
		return nil, fmt.Errorf("gpu: read node vertices: %w", err)
	}
	return layout.NodesFromVertexBytes(raw)
}

// Destroy releases the buffer.
func (nv *NodeVertices) Destroy() {
	if nv.buf != nil {
		nv.device.DestroyBuffer(nv.buf)
		nv.buf = nil
	}
}

// EdgeIndices is the device-local edge endpoint index store: 2 u32
// vertex indices per edge, addressing individual endpoints in
// NodeVertices with handle orientation already folded in.
type EdgeIndices struct {
	device hal.Device

	buf       hal.Buffer
	edgeCount uint32
}

// exitEndpointIndex maps an oriented handle to the vertex index of the
// endpoint an edge leaves from: P1 of the node when traversed forward,
// P0 when traversed in reverse.
func exitEndpointIndex(h graph.Handle) uint32 {
	i := 2 * (uint32(h.ID()) - 1)
	if !h.IsReverse() {
		i++
	}
	return i
}

// entryEndpointIndex maps an oriented handle to the vertex index of the
// endpoint an edge arrives at: P0 forward, P1 in reverse.
func entryEndpointIndex(h graph.Handle) uint32 {
	i := 2 * (uint32(h.ID()) - 1)
	if h.IsReverse() {
		i++
	}
	return i
}

// NewEdgeIndices builds the index store from the graph edge list.
func NewEdgeIndices(device hal.Device, queue hal.Queue, g graph.Source) (*EdgeIndices, error) {
	edges := g.Edges()
	count := uint32(len(edges))

	raw := make([]byte, 0, len(edges)*8)
	var w [4]byte
	for _, e := range edges {
		binary.LittleEndian.PutUint32(w[:], exitEndpointIndex(e.From))
		raw = append(raw, w[:]...)
		binary.LittleEndian.PutUint32(w[:], entryEndpointIndex(e.To))
		raw = append(raw, w[:]...)
	}

	size := uint64(len(raw))
	if size == 0 {
		size = 8
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "edge_indices",
		Size:  size,
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create edge index buffer: %w", err)
	}
	if len(raw) > 0 {
		queue.WriteBuffer(buf, 0, raw)
	}

	slogger().Debug("gpu: edge indices uploaded", "edges", count)
	return &EdgeIndices{device: device, buf: buf, edgeCount: count}, nil
}

// Buffer returns the underlying HAL buffer.
func (ei *EdgeIndices) Buffer() hal.Buffer { return ei.buf }

// EdgeCount returns the number of edges in the store.
func (ei *EdgeIndices) EdgeCount() uint32 { return ei.edgeCount }

// Destroy releases the buffer.
func (ei *EdgeIndices) Destroy() {
	if ei.buf != nil {
		ei.device.DestroyBuffer(ei.buf)
		ei.buf = nil
	}
}

// SelectionBuffer is the per-node selection flag store: one u32 per
// node, 1 = selected. Written by the selection kernel and by CPU
// uploads, read by the node fragment stage and the translate kernel.
type SelectionBuffer struct {
	device hal.Device
	queue  hal.Queue

	buf       hal.Buffer
	nodeCount uint32
}

// NewSelectionBuffer allocates a zeroed selection store.
func NewSelectionBuffer(device hal.Device, queue hal.Queue, nodeCount uint32) (*SelectionBuffer, error) {
	size := uint64(nodeCount) * selectionStride
	if size == 0 {
		size = selectionStride
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "selection_flags",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create selection buffer: %w", err)
	}

	sb := &SelectionBuffer{device: device, queue: queue, buf: buf, nodeCount: nodeCount}
	sb.Clear()
	return sb, nil
}

// Buffer returns the underlying HAL buffer.
func (sb *SelectionBuffer) Buffer() hal.Buffer { return sb.buf }

// NodeCount returns the number of flags in the store.
func (sb *SelectionBuffer) NodeCount() uint32 { return sb.nodeCount }

// Clear zeroes every flag.
func (sb *SelectionBuffer) Clear() {
	if sb.nodeCount == 0 {
		return
	}
	zeros := make([]byte, uint64(sb.nodeCount)*selectionStride)
	sb.queue.WriteBuffer(sb.buf, 0, zeros)
}

// Upload replaces the flags with the given CPU-side selection.
func (sb *SelectionBuffer) Upload(sel *universe.NodeSelection) {
	if sb.nodeCount == 0 {
		return
	}
	sb.queue.WriteBuffer(sb.buf, 0, sel.Bytes(int(sb.nodeCount)))
}

// Download reads the flags back into a CPU-side selection set.
func (sb *SelectionBuffer) Download() (*universe.NodeSelection, error) {
	if sb.nodeCount == 0 {
		return universe.NewNodeSelection(0), nil
	}
	size := uint64(sb.nodeCount) * selectionStride

	staging, err := sb.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "selection_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer sb.device.DestroyBuffer(staging)

	if err := copyAndWait(sb.device, sb.queue, "selection_readback", func(enc hal.CommandEncoder) {
		enc.CopyBufferToBuffer(sb.buf, staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
	}); err != nil {
		return nil, err
	}

	raw := make([]byte, size)
	if err := sb.queue.ReadBuffer(staging, 0, raw); err != nil {
		return nil, fmt.Errorf("gpu: read selection flags: %w", err)
	}
	sel := universe.NewNodeSelection(int(sb.nodeCount))
	sel.FromBytes(raw)
	return sel, nil
}

// Destroy releases the buffer.
func (sb *SelectionBuffer) Destroy() {
	if sb.buf != nil {
		sb.device.DestroyBuffer(sb.buf)
		sb.buf = nil
	}
}

// copyAndWait records a transfer with the given function, submits it
// and blocks until the fence signals.
func copyAndWait(device hal.Device, queue hal.Queue, label string, record func(hal.CommandEncoder)) error {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("gpu: wait: %w", err)
	}
	if !ok {
		return ErrFenceTimeout
	}
	return nil
}
