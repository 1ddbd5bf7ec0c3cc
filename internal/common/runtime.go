// Package common provides shared utilities used across all features
package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// defaultMemLimit caps the heap when GOMEMLIMIT is not set. The engine's
// working set is small (open pair sessions plus the basket store), so a
// modest limit keeps a leaking session registry from taking the host down.
const defaultMemLimit = 1 * 1024 * 1024 * 1024

// InitRuntime applies process-wide runtime settings. Environment variables
// GOGC, GOMAXPROCS and GOMEMLIMIT always win over the defaults here.
func InitRuntime() {
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(defaultMemLimit)
	}

	log.Info().
		Int("GOMAXPROCS", runtime.GOMAXPROCS(0)).
		Int("num_cpu", runtime.NumCPU()).
		Str("go_version", runtime.Version()).
		Msg("[runtime] initialized")
}
