package terrane

import (
	"runtime"
	"sync"
)

// Config is the process-wide configuration read once at tool start, mirroring
// whitebox_common::configs::get_configs() in the original WhiteboxTools
// implementation: a working directory and a cap on the number of worker
// threads a tool is permitted to spawn.
type Config struct {
	WorkingDirectory string
	MaxProcs         int
}

var (
	configOnce  sync.Once
	activeConfig Config
)

// InitConfig sets the process-wide configuration. Only the first call to
// InitConfig or GetConfig takes effect; subsequent calls are no-ops so that
// library code can call GetConfig without having to thread a Config value
// through every call.
func InitConfig(workingDirectory string, maxProcs int) {
	configOnce.Do(func() {
		activeConfig = Config{
			WorkingDirectory: workingDirectory,
			MaxProcs:         maxProcs,
		}
	})
}

// GetConfig returns the process-wide configuration, initializing it with
// defaults (current directory, no cap) if InitConfig was never called.
func GetConfig() Config {
	configOnce.Do(func() {
		activeConfig = Config{
			WorkingDirectory: "",
			MaxProcs:         0,
		}
	})
	return activeConfig
}

// NumWorkers resolves the number of worker threads a tool should spawn: the
// number of logical CPUs, optionally capped by the configured MaxProcs.
func (c Config) NumWorkers() int {
	n := runtime.NumCPU()
	if c.MaxProcs > 0 && c.MaxProcs < n {
		return c.MaxProcs
	}
	return n
}
