//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gfaview/gfaview/graph"
)

// copyPitchAlignment is the required row alignment for texture to
// buffer copies.
const copyPitchAlignment = 256

// NodeIDReadback copies the node-ID attachment to a staging buffer
// after each frame and resolves cursor positions to node identifiers
// on the CPU. Texel value 0 means no node; values are NodeID as
// written by the node fragment shader.
type NodeIDReadback struct {
	device hal.Device
	queue  hal.Queue

	staging       hal.Buffer
	width, height uint32
	alignedRow    uint32

	ids []uint32
}

// NewNodeIDReadback creates an empty readback. The staging buffer is
// allocated lazily on the first Record call.
func NewNodeIDReadback(device hal.Device, queue hal.Queue) *NodeIDReadback {
	return &NodeIDReadback{device: device, queue: queue}
}

func alignedBytesPerRow(width uint32) uint32 {
	return (width*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

func (r *NodeIDReadback) ensureStaging(w, h uint32) error {
	if r.staging != nil && r.width == w && r.height == h {
		return nil
	}
	if r.staging != nil {
		r.device.DestroyBuffer(r.staging)
		r.staging = nil
	}

	row := alignedBytesPerRow(w)
	staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "node_id_staging",
		Size:  uint64(row) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create node id staging buffer: %w", err)
	}
	r.staging = staging
	r.width = w
	r.height = h
	r.alignedRow = row
	r.ids = make([]uint32, int(w)*int(h))
	return nil
}

// Record records the attachment copy into the frame encoder. The
// node-ID texture leaves the frame's render pass as a render
// attachment; copies require it in copy-source usage, so the copy is
// bracketed by explicit transitions.
func (r *NodeIDReadback) Record(enc hal.CommandEncoder, att *Attachments) error {
	w, h := att.Size()
	if err := r.ensureStaging(w, h); err != nil {
		return err
	}

	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: att.NodeIDTexture(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	enc.CopyTextureToBuffer(att.NodeIDTexture(), r.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: r.alignedRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: att.NodeIDTexture(), MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: att.NodeIDTexture(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	return nil
}

// Resolve reads the staging buffer back after the frame fence has
// signaled, stripping row padding into the tight ID grid.
func (r *NodeIDReadback) Resolve() error {
	if r.staging == nil {
		return fmt.Errorf("%w: node id readback has no staged frame", ErrNotInitialized)
	}

	raw := make([]byte, uint64(r.alignedRow)*uint64(r.height))
	if err := r.queue.ReadBuffer(r.staging, 0, raw); err != nil {
		return fmt.Errorf("gpu: read node id staging buffer: %w", err)
	}

	for row := uint32(0); row < r.height; row++ {
		src := raw[row*r.alignedRow:]
		dst := r.ids[row*r.width : (row+1)*r.width]
		for col := range dst {
			dst[col] = binary.LittleEndian.Uint32(src[col*4:])
		}
	}
	return nil
}

// NodeAt returns the node under the given framebuffer pixel, or
// (0, false) when the pixel is empty or out of bounds.
func (r *NodeIDReadback) NodeAt(x, y int) (graph.NodeID, bool) {
	if x < 0 || y < 0 || uint32(x) >= r.width || uint32(y) >= r.height {
		return 0, false
	}
	id := r.ids[uint32(y)*r.width+uint32(x)]
	if id == 0 {
		return 0, false
	}
	return graph.NodeID(id), true
}

// Size returns the dimensions of the last resolved ID grid.
func (r *NodeIDReadback) Size() (w, h uint32) { return r.width, r.height }

// Destroy releases the staging buffer.
func (r *NodeIDReadback) Destroy() {
	if r.staging != nil {
		r.device.DestroyBuffer(r.staging)
		r.staging = nil
	}
	r.ids = nil
	r.width, r.height = 0, 0
}
