package manager

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Config holds scheduler configuration.
type Config struct {
	// TimeSlice is the number of units granted to the running process per iteration.
	TimeSlice int
	// Interval is the delay between scheduling iterations.
	Interval time.Duration
	// Dwell keeps the executed process in the running slot before its
	// post-execution disposition so observers can see it running.
	Dwell time.Duration
	// StopTimeout bounds how long StopScheduler waits for the loop to exit.
	StopTimeout time.Duration
	// ResumeProbability is the per-iteration chance a waiting process resumes.
	ResumeProbability float64
	// IOProbability is the chance an executed process blocks for I/O.
	IOProbability float64
	// MinBurst and MaxBurst bound randomly drawn burst times (inclusive).
	MinBurst int
	MaxBurst int
	// SpawnMinBurst and SpawnMaxBurst bound the bursts of SpawnRandom (inclusive).
	SpawnMinBurst int
	SpawnMaxBurst int
	// Seed for the default random source. Zero seeds from the clock.
	Seed uint64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TimeSlice:         1,
		Interval:          500 * time.Millisecond,
		Dwell:             500 * time.Millisecond,
		StopTimeout:       time.Second,
		ResumeProbability: 0.3,
		IOProbability:     0.2,
		MinBurst:          1,
		MaxBurst:          10,
		SpawnMinBurst:     3,
		SpawnMaxBurst:     15,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	switch {
	case c.TimeSlice <= 0:
		return fmt.Errorf("time slice must be positive, got %d", c.TimeSlice)
	case c.Interval <= 0:
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	case c.Dwell < 0:
		return fmt.Errorf("dwell must not be negative, got %s", c.Dwell)
	case c.StopTimeout <= 0:
		return fmt.Errorf("stop timeout must be positive, got %s", c.StopTimeout)
	case c.ResumeProbability < 0 || c.ResumeProbability > 1:
		return fmt.Errorf("resume probability must be within [0,1], got %v", c.ResumeProbability)
	case c.IOProbability < 0 || c.IOProbability > 1:
		return fmt.Errorf("io probability must be within [0,1], got %v", c.IOProbability)
	case c.MinBurst < 1:
		return fmt.Errorf("min burst must be at least 1, got %d", c.MinBurst)
	case c.MinBurst > c.MaxBurst:
		return fmt.Errorf("min burst %d exceeds max burst %d", c.MinBurst, c.MaxBurst)
	case c.SpawnMinBurst < 1:
		return fmt.Errorf("spawn min burst must be at least 1, got %d", c.SpawnMinBurst)
	case c.SpawnMinBurst > c.SpawnMaxBurst:
		return fmt.Errorf("spawn min burst %d exceeds spawn max burst %d", c.SpawnMinBurst, c.SpawnMaxBurst)
	}
	return nil
}

// withDefaults fills zero-valued fields from DefaultConfig. Probabilities are
// left as given since zero is a meaningful setting.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TimeSlice <= 0 {
		c.TimeSlice = d.TimeSlice
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Dwell < 0 {
		c.Dwell = 0
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
	if c.MinBurst < 1 {
		c.MinBurst = d.MinBurst
	}
	if c.MaxBurst < c.MinBurst {
		c.MaxBurst = max(d.MaxBurst, c.MinBurst)
	}
	if c.SpawnMinBurst < 1 {
		c.SpawnMinBurst = d.SpawnMinBurst
	}
	if c.SpawnMaxBurst < c.SpawnMinBurst {
		c.SpawnMaxBurst = max(d.SpawnMaxBurst, c.SpawnMinBurst)
	}
	return c
}

// Rand is the source of randomness for burst draws and probabilistic
// transitions. *rand.Rand from math/rand/v2 satisfies it. The Manager only
// calls it while holding its lock, so implementations need not be safe for
// concurrent use.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

func newRand(seed uint64) Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
