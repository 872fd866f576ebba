package gpu

import (
	"context"
	"fmt"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// device is the part of an NVML device handle the monitor reads.
type device interface {
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
}

// NVML reads one device through the NVIDIA management library. The library
// is loaded on first use; a host without the driver reports ErrUnavailable
// on every call.
type NVML struct {
	index int

	once     sync.Once
	dev      device
	shutdown func()
	err      error

	// open is swapped in tests.
	open func(index int) (device, func(), error)
}

// NewNVML returns a monitor for the device at index.
func NewNVML(index int) *NVML {
	return &NVML{index: index, open: openNVML}
}

func openNVML(index int) (device, func(), error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, nil, fmt.Errorf("%w: init: %s", ErrUnavailable, nvml.ErrorString(ret))
	}
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		_ = nvml.Shutdown()
		return nil, nil, fmt.Errorf("%w: device %d: %s", ErrUnavailable, index, nvml.ErrorString(ret))
	}
	return dev, func() { _ = nvml.Shutdown() }, nil
}

func (p *NVML) handle() (device, error) {
	p.once.Do(func() {
		p.dev, p.shutdown, p.err = p.open(p.index)
	})
	return p.dev, p.err
}

func (p *NVML) Memory(ctx context.Context) (Memory, error) {
	if err := ctx.Err(); err != nil {
		return Memory{}, err
	}
	dev, err := p.handle()
	if err != nil {
		return Memory{}, err
	}
	mem, ret := dev.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return Memory{}, fmt.Errorf("%w: memory info: %s", ErrUnavailable, nvml.ErrorString(ret))
	}
	return Memory{UsedBytes: mem.Used, TotalBytes: mem.Total}, nil
}

func (p *NVML) Utilization(ctx context.Context) (Utilization, error) {
	mem, err := p.Memory(ctx)
	if err != nil {
		return Utilization{}, err
	}
	rates, ret := p.dev.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return Utilization{}, fmt.Errorf("%w: utilization: %s", ErrUnavailable, nvml.ErrorString(ret))
	}
	return Utilization{GPUPercent: int(rates.Gpu), Memory: mem}, nil
}

// Close unloads the library if it was loaded. The monitor is unusable after.
func (p *NVML) Close() error {
	p.once.Do(func() { p.err = fmt.Errorf("%w: monitor closed", ErrUnavailable) })
	if p.shutdown != nil {
		p.shutdown()
		p.shutdown = nil
	}
	return nil
}
