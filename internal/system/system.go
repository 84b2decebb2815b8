// Package system inspects the host to pick sensible encoding defaults.
package system

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/videobgremover/videobgremover-go/internal/ffmpeg"
)

// minMemPerThread is a rough working-set estimate per encoder thread.
const minMemPerThread = 512 * 1024 * 1024

// Threads picks a worker count for the engine: the logical CPU count,
// reduced when memory is tight. Returns 0 (engine default) when the
// host cannot be inspected.
func Threads() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		count = runtime.NumCPU()
	}
	if count <= 0 {
		return 0
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
		byMem := int(vm.Available / minMemPerThread)
		if byMem > 0 && byMem < count {
			count = byMem
		}
	}
	if count > 16 {
		count = 16
	}
	return count
}

// hardware encoders in preference order, per platform
var hwEncoders = map[string][]string{
	"darwin":  {"h264_videotoolbox"},
	"linux":   {"h264_nvenc", "h264_vaapi"},
	"windows": {"h264_nvenc", "h264_qsv"},
}

// BestH264Encoder returns the fastest available H.264 encoder on this
// host, falling back to libx264.
func BestH264Encoder(ctx context.Context, exec *ffmpeg.Executor) string {
	for _, name := range hwEncoders[runtime.GOOS] {
		ok, err := exec.HasEncoder(ctx, name)
		if err == nil && ok {
			return name
		}
	}
	return "libx264"
}
