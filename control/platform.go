// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Process-level debug probe integrations.

package control

import (
	"os"
	"runtime"

	"github.com/momentics/hioload-mavrelay/affinity"
)

// RegisterPlatformProbes sets process-level debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	dp.RegisterProbe("platform.pid", func() any {
		return os.Getpid()
	})
	dp.RegisterProbe("platform.affinity", func() any {
		cpus, err := affinity.Current()
		if err != nil {
			return err.Error()
		}
		return cpus
	})
}
