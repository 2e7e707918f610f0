// Package config loads server configuration from defaults, an optional YAML
// file, PROCSIM_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/me/procsim/internal/logging"
	"github.com/me/procsim/internal/manager"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "procsim"

// ServerConfig holds configuration for the procsim server.
type ServerConfig struct {
	Addr      string          `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string          `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string          `yaml:"log_format"` // Log format: text, json
	HistoryDB string          `yaml:"history_db"` // SQLite path for the history journal (":memory:" default, "" disables)
	AutoStart bool            `yaml:"auto_start"` // Start the scheduler at boot
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// SchedulerConfig mirrors manager.Config with file-friendly names.
type SchedulerConfig struct {
	TimeSlice         int           `yaml:"time_slice"`
	Interval          time.Duration `yaml:"interval"`
	Dwell             time.Duration `yaml:"dwell"`
	StopTimeout       time.Duration `yaml:"stop_timeout"`
	ResumeProbability float64       `yaml:"resume_probability"`
	IOProbability     float64       `yaml:"io_probability"`
	MinBurst          int           `yaml:"min_burst"`
	MaxBurst          int           `yaml:"max_burst"`
	SpawnMinBurst     int           `yaml:"spawn_min_burst"`
	SpawnMaxBurst     int           `yaml:"spawn_max_burst"`
	Seed              uint64        `yaml:"seed"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	d := manager.DefaultConfig()
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		HistoryDB: ":memory:",
		Scheduler: SchedulerConfig{
			TimeSlice:         d.TimeSlice,
			Interval:          d.Interval,
			Dwell:             d.Dwell,
			StopTimeout:       d.StopTimeout,
			ResumeProbability: d.ResumeProbability,
			IOProbability:     d.IOProbability,
			MinBurst:          d.MinBurst,
			MaxBurst:          d.MaxBurst,
			SpawnMinBurst:     d.SpawnMinBurst,
			SpawnMaxBurst:     d.SpawnMaxBurst,
			Seed:              d.Seed,
		},
	}
}

// Manager converts the scheduler section to a manager.Config.
func (s SchedulerConfig) Manager() manager.Config {
	return manager.Config{
		TimeSlice:         s.TimeSlice,
		Interval:          s.Interval,
		Dwell:             s.Dwell,
		StopTimeout:       s.StopTimeout,
		ResumeProbability: s.ResumeProbability,
		IOProbability:     s.IOProbability,
		MinBurst:          s.MinBurst,
		MaxBurst:          s.MaxBurst,
		SpawnMinBurst:     s.SpawnMinBurst,
		SpawnMaxBurst:     s.SpawnMaxBurst,
		Seed:              s.Seed,
	}
}

// Validate reports every invalid setting.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if err := logging.ValidateFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if err := c.Scheduler.Manager().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	return errors.Join(errs...)
}

// flagKeys maps server flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":               "addr",
	"log-level":          "log_level",
	"log-format":         "log_format",
	"history-db":         "history_db",
	"auto-start":         "auto_start",
	"time-slice":         "scheduler.time_slice",
	"interval":           "scheduler.interval",
	"dwell":              "scheduler.dwell",
	"stop-timeout":       "scheduler.stop_timeout",
	"resume-probability": "scheduler.resume_probability",
	"io-probability":     "scheduler.io_probability",
	"min-burst":          "scheduler.min_burst",
	"max-burst":          "scheduler.max_burst",
	"spawn-min-burst":    "scheduler.spawn_min_burst",
	"spawn-max-burst":    "scheduler.spawn_max_burst",
	"seed":               "scheduler.seed",
}

// RegisterFlags adds the server flags to fs with defaults from DefaultServerConfig.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultServerConfig()
	fs.String("addr", d.Addr, "Listen address")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "Log format (text, json)")
	fs.String("history-db", d.HistoryDB, `History journal database path ("" disables)`)
	fs.Bool("auto-start", d.AutoStart, "Start the scheduler immediately")
	fs.Int("time-slice", d.Scheduler.TimeSlice, "Units executed per scheduling iteration")
	fs.Duration("interval", d.Scheduler.Interval, "Delay between scheduling iterations")
	fs.Duration("dwell", d.Scheduler.Dwell, "How long an executed process stays visible in the running slot")
	fs.Duration("stop-timeout", d.Scheduler.StopTimeout, "Maximum wait for the scheduler loop to exit")
	fs.Float64("resume-probability", d.Scheduler.ResumeProbability, "Per-iteration chance a waiting process resumes")
	fs.Float64("io-probability", d.Scheduler.IOProbability, "Chance an executed process blocks for I/O")
	fs.Int("min-burst", d.Scheduler.MinBurst, "Minimum randomly drawn burst time")
	fs.Int("max-burst", d.Scheduler.MaxBurst, "Maximum randomly drawn burst time")
	fs.Int("spawn-min-burst", d.Scheduler.SpawnMinBurst, "Minimum burst time of spawned processes")
	fs.Int("spawn-max-burst", d.Scheduler.SpawnMaxBurst, "Maximum burst time of spawned processes")
	fs.Uint64("seed", d.Scheduler.Seed, "Random seed (0 seeds from the clock)")
}

// NewViper returns a viper instance with defaults, the optional config file
// and environment binding applied. A missing explicit file is an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, DefaultServerConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// BindFlags binds every registered server flag in fs to its configuration key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load builds a ServerConfig from v.
func Load(v *viper.Viper) ServerConfig {
	return ServerConfig{
		Addr:      v.GetString("addr"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		HistoryDB: v.GetString("history_db"),
		AutoStart: v.GetBool("auto_start"),
		Scheduler: SchedulerConfig{
			TimeSlice:         v.GetInt("scheduler.time_slice"),
			Interval:          v.GetDuration("scheduler.interval"),
			Dwell:             v.GetDuration("scheduler.dwell"),
			StopTimeout:       v.GetDuration("scheduler.stop_timeout"),
			ResumeProbability: v.GetFloat64("scheduler.resume_probability"),
			IOProbability:     v.GetFloat64("scheduler.io_probability"),
			MinBurst:          v.GetInt("scheduler.min_burst"),
			MaxBurst:          v.GetInt("scheduler.max_burst"),
			SpawnMinBurst:     v.GetInt("scheduler.spawn_min_burst"),
			SpawnMaxBurst:     v.GetInt("scheduler.spawn_max_burst"),
			Seed:              v.GetUint64("scheduler.seed"),
		},
	}
}

func setDefaults(v *viper.Viper, d ServerConfig) {
	v.SetDefault("addr", d.Addr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("history_db", d.HistoryDB)
	v.SetDefault("auto_start", d.AutoStart)
	v.SetDefault("scheduler.time_slice", d.Scheduler.TimeSlice)
	v.SetDefault("scheduler.interval", d.Scheduler.Interval)
	v.SetDefault("scheduler.dwell", d.Scheduler.Dwell)
	v.SetDefault("scheduler.stop_timeout", d.Scheduler.StopTimeout)
	v.SetDefault("scheduler.resume_probability", d.Scheduler.ResumeProbability)
	v.SetDefault("scheduler.io_probability", d.Scheduler.IOProbability)
	v.SetDefault("scheduler.min_burst", d.Scheduler.MinBurst)
	v.SetDefault("scheduler.max_burst", d.Scheduler.MaxBurst)
	v.SetDefault("scheduler.spawn_min_burst", d.Scheduler.SpawnMinBurst)
	v.SetDefault("scheduler.spawn_max_burst", d.Scheduler.SpawnMaxBurst)
	v.SetDefault("scheduler.seed", d.Scheduler.Seed)
}
