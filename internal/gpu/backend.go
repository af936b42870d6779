//go:build !nogpu

// Package gpu owns every live GPU resource of the viewer: the node and
// edge buffer stores, the offscreen attachment set, the render and
// compute pipelines, and the fence-handle compute dispatcher. All work
// goes through the wgpu HAL directly.
package gpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNoGPU is returned when no usable GPU adapter is found.
	ErrNoGPU = errors.New("gpu: no usable GPU adapter")

	// ErrNotInitialized is returned when a component is used before Init.
	ErrNotInitialized = errors.New("gpu: not initialized")

	// ErrFenceTimeout is returned when a bounded fence wait expires.
	ErrFenceTimeout = errors.New("gpu: fence wait timed out")
)

// fenceTimeout is the maximum time to wait for GPU work to complete.
const fenceTimeout = 5 * time.Second

// Backend owns the GPU instance, adapter, device and queue for the
// lifetime of the process. Pipelines and buffer stores borrow the
// device and queue from here and never outlive it.
type Backend struct {
	mu sync.Mutex

	instance    hal.Instance
	adapterName string
	device      hal.Device
	queue       hal.Queue

	initialized bool
}

// NewBackend creates an empty backend. Init must be called before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Init creates the instance, picks an adapter (discrete or integrated
// GPUs preferred) and opens a device with default limits.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoGPU
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("gpu: open device: %w", err)
	}

	b.instance = instance
	b.adapterName = selected.Info.Name
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.initialized = true

	slogger().Info("gpu: backend initialized", "adapter", b.adapterName)
	return nil
}

// InitFromDevice adopts an externally created device and queue.
// Used by tests and by hosts that already own a device.
func (b *Backend) InitFromDevice(device hal.Device, queue hal.Queue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.device = device
	b.queue = queue
	b.initialized = true
}

// Device returns the HAL device. Nil before Init.
func (b *Backend) Device() hal.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device
}

// Queue returns the HAL queue. Nil before Init.
func (b *Backend) Queue() hal.Queue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue
}

// AdapterName returns the name of the selected adapter, or "" when the
// device was adopted via InitFromDevice.
func (b *Backend) AdapterName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adapterName
}

// Close destroys the device and instance. Only resources created by
// Init are destroyed; adopted devices stay with their owner.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	if b.instance != nil {
		if b.device != nil {
			b.device.Destroy()
		}
		b.instance.Destroy()
	}
	b.instance = nil
	b.device = nil
	b.queue = nil
	b.initialized = false
}
