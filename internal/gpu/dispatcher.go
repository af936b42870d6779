//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// ErrUnknownFence is returned for fence handles that were never issued
// or were already released.
var ErrUnknownFence = errors.New("gpu: unknown fence handle")

// FenceID is an opaque handle for one dispatched command buffer.
type FenceID uint64

// Dispatcher submits recorded command buffers on the shared queue and
// tracks each submission with its own fence. Submissions are not
// ordered relative to each other; callers that need compute results
// before graphics either host-wait the fence or record both into the
// same command buffer.
type Dispatcher struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	nextID  FenceID
	pending map[FenceID]*pendingWork
}

// pendingWork pairs an in-flight command buffer with its fence so both
// can be freed on Release.
type pendingWork struct {
	fence  hal.Fence
	cmdBuf hal.CommandBuffer
}

// NewDispatcher creates a dispatcher over the given device and queue.
func NewDispatcher(device hal.Device, queue hal.Queue) *Dispatcher {
	return &Dispatcher{
		device:  device,
		queue:   queue,
		nextID:  1,
		pending: make(map[FenceID]*pendingWork),
	}
}

// Dispatch records a command buffer with the given function, submits it
// with a fresh fence and returns the fence handle. The caller must
// eventually Release the handle.
func (d *Dispatcher) Dispatch(label string, record func(hal.CommandEncoder) error) (FenceID, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return 0, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return 0, fmt.Errorf("gpu: begin encoding: %w", err)
	}
	if err := record(encoder); err != nil {
		encoder.DiscardEncoding()
		return 0, err
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return 0, fmt.Errorf("gpu: end encoding: %w", err)
	}

	fence, err := d.device.CreateFence()
	if err != nil {
		d.device.FreeCommandBuffer(cmdBuf)
		return 0, fmt.Errorf("gpu: create fence: %w", err)
	}

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		d.device.DestroyFence(fence)
		d.device.FreeCommandBuffer(cmdBuf)
		return 0, fmt.Errorf("gpu: submit %s: %w", label, err)
	}

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.pending[id] = &pendingWork{fence: fence, cmdBuf: cmdBuf}
	d.mu.Unlock()

	slogger().Debug("gpu: dispatched", "label", label, "fence", uint64(id))
	return id, nil
}

// Poll reports whether the submission behind id has completed. It does
// not block.
func (d *Dispatcher) Poll(id FenceID) (bool, error) {
	d.mu.Lock()
	work, ok := d.pending[id]
	d.mu.Unlock()
	if !ok {
		return false, ErrUnknownFence
	}
	return d.device.Wait(work.fence, 1, 0)
}

// Wait blocks until the submission behind id completes or the bounded
// timeout expires.
func (d *Dispatcher) Wait(id FenceID) error {
	return d.waitTimeout(id, fenceTimeout)
}

func (d *Dispatcher) waitTimeout(id FenceID, timeout time.Duration) error {
	d.mu.Lock()
	work, ok := d.pending[id]
	d.mu.Unlock()
	if !ok {
		return ErrUnknownFence
	}
	done, err := d.device.Wait(work.fence, 1, timeout)
	if err != nil {
		return fmt.Errorf("gpu: fence wait: %w", err)
	}
	if !done {
		return ErrFenceTimeout
	}
	return nil
}

// Release frees the command buffer and destroys the fence behind id.
// When block is true it waits for completion first; releasing an
// unfinished submission without blocking is the caller's risk.
func (d *Dispatcher) Release(id FenceID, block bool) error {
	if block {
		if err := d.Wait(id); err != nil {
			return err
		}
	}

	d.mu.Lock()
	work, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	d.mu.Unlock()
	if !ok {
		return ErrUnknownFence
	}

	d.device.DestroyFence(work.fence)
	d.device.FreeCommandBuffer(work.cmdBuf)
	return nil
}

// PendingCount returns the number of un-released submissions.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close releases every outstanding submission without waiting.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, work := range d.pending {
		d.device.DestroyFence(work.fence)
		d.device.FreeCommandBuffer(work.cmdBuf)
		delete(d.pending, id)
	}
}
