// internal/workers/intake/update-lead-status/config.go
package updateleadstatus

import (
	"time"

	"lead-intake/internal/common/config"
)

const defaultActor = "Workflow"

type Config struct {
	Timeout time.Duration
	// Actor is recorded as updatedBy when the job does not name one.
	Actor string
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout, Actor: defaultActor}
}
