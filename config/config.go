// config.go — backend tunables.
//
// All values are plain struct fields handed to the constructor; there is
// no file or environment loading here.  Defaults are tuned for "quiet
// process, occasional bursts": a 300µs idle sleep bounds added dispatch
// latency while keeping an idle backend invisible in CPU profiles.

package config

import "time"

// NoAffinity is the CPU sentinel meaning "no placement requested".
const NoAffinity = -1

// Config parameterizes the backend worker and its collaborators.
type Config struct {
	// SleepDuration is the idle backoff applied when a merge step finds
	// no record anywhere.  It is also the worst-case stop latency.
	SleepDuration time.Duration

	// CPU pins the backend thread to a logical CPU; NoAffinity disables
	// placement.
	CPU int

	// ThreadName is applied to the backend OS thread where the platform
	// supports it.  Empty skips naming.
	ThreadName string

	// RequirePlacement turns "placement unsupported on this platform"
	// from a tolerated no-op into a fatal startup error.
	RequirePlacement bool

	// LaneCapacity is the per-producer ring size; must be a power of two.
	LaneCapacity int

	// ClockWarmup is the calibration window of the counter clock.
	ClockWarmup time.Duration
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		SleepDuration: 300 * time.Microsecond,
		CPU:           NoAffinity,
		ThreadName:    "quill-backend",
		LaneCapacity:  1024,
		ClockWarmup:   700 * time.Millisecond,
	}
}
