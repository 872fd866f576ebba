package manager

import (
	"context"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"voiced/pkg/types"
)

const gib = 1 << 30

// monitorTimeout bounds a single device query made on behalf of a status read.
const monitorTimeout = 3 * time.Second

// Status builds a detailed status response for /api/status. It never takes
// the manager lock.
func (m *Manager) Status(ctx context.Context) types.StatusResponse {
	s := m.Snapshot()
	resp := types.StatusResponse{
		ModelLoaded:        s.Loaded,
		State:              string(s.State),
		Busy:               s.Busy,
		SampleRate:         s.SampleRate,
		LoadedVoices:       s.LoadedVoices,
		Voices:             m.voices.Names(),
		DefaultVoice:       m.voices.Default(),
		IdleTimeoutSeconds: int64(m.idleTimeout / time.Second),
		LastError:          s.Err,
		LoadsTotal:         m.loads.Load(),
		UnloadsTotal:       m.unloads.Load(),
		UptimeSeconds:      int64(time.Since(m.startTime) / time.Second),
		WorkerPID:          m.WorkerPID(),
		GPU:                m.MemoryInfo(ctx),
	}
	if resp.LoadedVoices == nil {
		resp.LoadedVoices = []string{}
	}
	if !s.IdleDeadline.IsZero() {
		if rem := time.Until(s.IdleDeadline); rem > 0 {
			resp.IdleRemainingSeconds = int64(math.Ceil(rem.Seconds()))
		}
	}
	if !s.LoadedAt.IsZero() {
		resp.LoadedAtUnix = s.LoadedAt.Unix()
	}
	return resp
}

// MemoryInfo reports device memory. A failing monitor yields Available=false.
func (m *Manager) MemoryInfo(ctx context.Context) types.MemoryInfo {
	ctx, cancel := context.WithTimeout(ctx, monitorTimeout)
	defer cancel()
	mem, err := m.monitor.Memory(ctx)
	if err != nil || mem.TotalBytes == 0 {
		if err != nil {
			m.log.Debug().Err(err).Msg("memory monitor unavailable")
		}
		return types.MemoryInfo{Available: false}
	}
	return types.MemoryInfo{
		Available:  true,
		UsedGB:     round(float64(mem.UsedBytes)/gib, 2),
		TotalGB:    round(float64(mem.TotalBytes)/gib, 2),
		UsedHuman:  humanize.IBytes(mem.UsedBytes),
		TotalHuman: humanize.IBytes(mem.TotalBytes),
	}
}

// UtilizationStats reports device utilization and the busy flag. A failing
// monitor yields zeroed numbers; IsGenerating is always accurate.
func (m *Manager) UtilizationStats(ctx context.Context) types.UtilizationStats {
	out := types.UtilizationStats{IsGenerating: m.busy.Load()}
	ctx, cancel := context.WithTimeout(ctx, monitorTimeout)
	defer cancel()
	u, err := m.monitor.Utilization(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("utilization monitor unavailable")
		return out
	}
	out.GPUUtilPct = u.GPUPercent
	if u.Memory.TotalBytes > 0 {
		out.VRAMUsedPct = int(math.Round(float64(u.Memory.UsedBytes) / float64(u.Memory.TotalBytes) * 100))
		out.VRAMUsedGB = round(float64(u.Memory.UsedBytes)/gib, 1)
		out.VRAMTotalGB = round(float64(u.Memory.TotalBytes)/gib, 1)
	}
	return out
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
