// Package gpu reads device memory and utilization. Monitors are best-effort:
// callers are expected to degrade to a default snapshot on error.
package gpu

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the device or its management library is absent.
var ErrUnavailable = errors.New("gpu: monitoring unavailable")

// Memory is device memory usage in bytes.
type Memory struct {
	UsedBytes  uint64
	TotalBytes uint64
}

// Utilization is a point-in-time device utilization sample.
type Utilization struct {
	GPUPercent int
	Memory     Memory
}

// Monitor reads device state. Implementations must be safe for concurrent use.
type Monitor interface {
	Memory(ctx context.Context) (Memory, error)
	Utilization(ctx context.Context) (Utilization, error)
}

// Static is a fixed monitor, used when monitoring is disabled and in tests.
type Static struct {
	Util Utilization
	Err  error
}

func (s Static) Memory(context.Context) (Memory, error) {
	if s.Err != nil {
		return Memory{}, s.Err
	}
	return s.Util.Memory, nil
}

func (s Static) Utilization(context.Context) (Utilization, error) {
	if s.Err != nil {
		return Utilization{}, s.Err
	}
	return s.Util, nil
}

// Disabled always reports ErrUnavailable.
var Disabled Monitor = Static{Err: ErrUnavailable}
