package harness

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/scalareval/internal/corpus"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("harness: invalid config")

// Config describes a benchmark sweep and the environment it runs in.
type Config struct {
	// Report is the report file prefix.
	Report string `yaml:"report"`
	// Min and Max bound the generated values to [Min, Max).
	Min int32 `yaml:"min"`
	Max int32 `yaml:"max"`
	// Floats selects float32 corpora.
	Floats bool `yaml:"floats"`
	// Device selects an accelerator device. Empty means CPU.
	Device string `yaml:"device"`
	// MaxThreads is the top of the thread ladder. Zero means
	// runtime.GOMAXPROCS(0).
	MaxThreads int `yaml:"maxThreads"`

	SetSizes   []int  `yaml:"setSizes"`
	SetCounts  []int  `yaml:"setCounts"`
	ProbeSizes []int  `yaml:"probeSizes"`
	Preload    []bool `yaml:"preload"`

	// DataDir holds generated corpora.
	DataDir string `yaml:"dataDir"`
	// Seed makes corpora and probes reproducible. Zero is time-based.
	Seed int64 `yaml:"seed"`

	Mirror    MirrorConfig    `yaml:"mirror"`
	Resources ResourcesConfig `yaml:"resources"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// MirrorConfig configures the shared corpus mirror.
type MirrorConfig struct {
	// URL of the mirror store. Empty disables the mirror.
	URL string `yaml:"url"`
	// Codec is one of none, lz4, zstd.
	Codec string `yaml:"codec"`
	// Publish uploads corpora generated locally.
	Publish bool `yaml:"publish"`
}

// ResourcesConfig caps the resources used by a sweep.
type ResourcesConfig struct {
	MemoryLimitBytes   int64 `yaml:"memoryLimitBytes"`
	IOLimitBytesPerSec int64 `yaml:"ioLimitBytesPerSec"`
	GenerateWorkers    int   `yaml:"generateWorkers"`
}

// LoggingConfig selects the log level and format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the grid of the reference benchmark.
func DefaultConfig() *Config {
	return &Config{
		Report:     "report",
		Min:        0,
		Max:        1000000,
		SetSizes:   []int{10, 100, 1000, 10000},
		SetCounts:  []int{10, 100, 1000, 10000, 100000},
		ProbeSizes: []int{10, 100, 1000, 10000},
		Preload:    []bool{false, true},
		DataDir:    ".",
		Mirror: MirrorConfig{
			Codec: "zstd",
		},
		Resources: ResourcesConfig{
			GenerateWorkers: runtime.GOMAXPROCS(0),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML config file (if path is not empty) over the
// defaults and applies SCALAREVAL_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCALAREVAL_REPORT"); v != "" {
		cfg.Report = v
	}
	if v := os.Getenv("SCALAREVAL_MIN"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Min = int32(n)
		}
	}
	if v := os.Getenv("SCALAREVAL_MAX"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Max = int32(n)
		}
	}
	if v := os.Getenv("SCALAREVAL_FLOATS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Floats = b
		}
	}
	if v := os.Getenv("SCALAREVAL_DEVICE"); v != "" {
		cfg.Device = v
	}
	if v := os.Getenv("SCALAREVAL_MAX_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxThreads = n
		}
	}
	if v := os.Getenv("SCALAREVAL_SET_SIZES"); v != "" {
		if ns, err := parseInts(v); err == nil {
			cfg.SetSizes = ns
		}
	}
	if v := os.Getenv("SCALAREVAL_SET_COUNTS"); v != "" {
		if ns, err := parseInts(v); err == nil {
			cfg.SetCounts = ns
		}
	}
	if v := os.Getenv("SCALAREVAL_PROBE_SIZES"); v != "" {
		if ns, err := parseInts(v); err == nil {
			cfg.ProbeSizes = ns
		}
	}
	if v := os.Getenv("SCALAREVAL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SCALAREVAL_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v := os.Getenv("SCALAREVAL_MIRROR_URL"); v != "" {
		cfg.Mirror.URL = v
	}
	if v := os.Getenv("SCALAREVAL_MIRROR_CODEC"); v != "" {
		cfg.Mirror.Codec = v
	}
	if v := os.Getenv("SCALAREVAL_MIRROR_PUBLISH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Mirror.Publish = b
		}
	}
	if v := os.Getenv("SCALAREVAL_MEMORY_LIMIT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Resources.MemoryLimitBytes = n
		}
	}
	if v := os.Getenv("SCALAREVAL_IO_LIMIT_BYTES_PER_SEC"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Resources.IOLimitBytesPerSec = n
		}
	}
	if v := os.Getenv("SCALAREVAL_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SCALAREVAL_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SCALAREVAL_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// parseInts parses a comma separated list such as "10,100,1000".
func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Validate checks that every grid point can be generated. Sets and probes
// hold distinct values, so each size must fit into [Min, Max).
func (c *Config) Validate() error {
	if c.Report == "" {
		return fmt.Errorf("%w: empty report prefix", ErrInvalidConfig)
	}
	if c.MaxThreads < 0 {
		return fmt.Errorf("%w: negative thread count %d", ErrInvalidConfig, c.MaxThreads)
	}
	if len(c.SetSizes) == 0 || len(c.SetCounts) == 0 || len(c.ProbeSizes) == 0 || len(c.Preload) == 0 {
		return fmt.Errorf("%w: empty grid", ErrInvalidConfig)
	}

	span := corpus.RangeSize(c.Min, c.Max)
	for _, n := range c.SetCounts {
		if n < 0 {
			return fmt.Errorf("%w: negative set count %d", ErrInvalidConfig, n)
		}
	}
	for _, sizes := range [][]int{c.SetSizes, c.ProbeSizes} {
		for _, n := range sizes {
			if n < 0 || int64(n) > span {
				return fmt.Errorf("%w: size %d does not fit range [%d, %d)", ErrInvalidConfig, n, c.Min, c.Max)
			}
		}
	}
	return nil
}

// threads resolves MaxThreads.
func (c *Config) threads() int {
	if c.MaxThreads > 0 {
		return c.MaxThreads
	}
	return runtime.GOMAXPROCS(0)
}
