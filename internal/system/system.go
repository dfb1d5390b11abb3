// Package system probes the host to size the decode worker pool.
package system

import (
	"runtime"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// lowMemoryBytes is the available-memory floor under which the decode
// pool is halved; raw demosaic buffers are large.
const lowMemoryBytes = 1 << 30

// DecodeWorkers picks the parallel decode/resize worker count: one per
// CPU, halved on memory-starved hosts, never more than the frame count.
func DecodeWorkers(frameCount int) int {
	n := runtime.NumCPU()

	if vm, err := mem.VirtualMemory(); err == nil && vm.Available < lowMemoryBytes {
		n /= 2
	}

	if n > frameCount {
		n = frameCount
	}
	if n < 1 {
		n = 1
	}
	return n
}

// InitResourceLimits raises the open-file limit so large frame batches
// can decode in parallel without hitting EMFILE.
func InitResourceLimits(log zerolog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("could not read open-file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("could not raise open-file limit")
	} else {
		log.Debug().Uint64("limit", rLimit.Cur).Msg("open-file limit raised")
	}
}
