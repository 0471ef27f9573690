// Package runtime samples memory usage with gopsutil and the Go runtime, and collects the
// readings as memory events for the agent.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/vshulcz/Perfwatch/internal/ports"
)

const bytesPerMB = 1024 * 1024

// Source selects what a Sampler measures.
type Source string

const (
	// SourceProcess is the resident set size of a process.
	SourceProcess Source = "process"
	// SourceRuntime is the Go heap in use by this process.
	SourceRuntime Source = "runtime"
	// SourceSystem is the host memory in use.
	SourceSystem Source = "system"
	// SourceNone disables local sampling; memory only arrives through ingestion.
	SourceNone Source = "none"
)

// ErrUnknownSource is returned for an unsupported Source.
var ErrUnknownSource = errors.New("unknown memory source")

// Sampler implements ports.MemorySampler.
type Sampler struct {
	source Source
	pid    int32
}

var _ ports.MemorySampler = (*Sampler)(nil)

// NewSampler returns a sampler for source. pid <= 0 means the current process.
func NewSampler(source Source, pid int) *Sampler {
	if source == "" {
		source = SourceProcess
	}
	if pid <= 0 {
		pid = os.Getpid()
	}
	return &Sampler{source: source, pid: int32(pid)} // #nosec G115
}

// ParseSource validates a source name from configuration.
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceProcess, SourceRuntime, SourceSystem, SourceNone:
		return src, nil
	case "":
		return SourceProcess, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
}

// SampleMB returns the current usage in megabytes.
func (s *Sampler) SampleMB(ctx context.Context) (float64, error) {
	switch s.source {
	case SourceProcess:
		p, err := process.NewProcessWithContext(ctx, s.pid)
		if err != nil {
			return 0, fmt.Errorf("open process %d: %w", s.pid, err)
		}
		mi, err := p.MemoryInfoWithContext(ctx)
		if err != nil {
			return 0, fmt.Errorf("process %d memory: %w", s.pid, err)
		}
		return float64(mi.RSS) / bytesPerMB, nil
	case SourceSystem:
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return 0, fmt.Errorf("virtual memory: %w", err)
		}
		return float64(vm.Used) / bytesPerMB, nil
	case SourceRuntime:
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return float64(ms.HeapAlloc) / bytesPerMB, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSource, s.source)
	}
}
